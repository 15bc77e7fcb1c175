// Package web renders the shop's pages on the server. Every page reads the
// same workshop operations the JSON API serves.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/i18n"
	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"dashboard", "add", "requests", "spares", "customers", "accounts", "invoice"}

type Options struct {
	ShopName string
	Refresh  time.Duration
	Logger   *zap.Logger
}

type Pages struct {
	service    *workshop.Service
	translator *i18n.Translator
	templates  map[string]*template.Template
	shopName   string
	refresh    time.Duration
	logger     *zap.Logger
}

type pageData struct {
	Lang     string
	Dir      string
	ShopName string
	Path     string
	Refresh  int
	Flash    string
	Error    string
	Body     any
}

func New(service *workshop.Service, opts Options) (*Pages, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	p := &Pages{
		service:    service,
		translator: service.Translator(),
		templates:  make(map[string]*template.Template, len(pageNames)),
		shopName:   opts.ShopName,
		refresh:    opts.Refresh,
		logger:     opts.Logger,
	}
	funcs := template.FuncMap{
		"t":       p.t,
		"status":  p.statusLabel,
		"payment": p.paymentLabel,
		"href":    href,
		"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"low":     func(s models.SparePart) bool { return s.LowStock(service.LowStockThreshold()) },
	}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.templates[name] = tmpl
	}
	return p, nil
}

func (p *Pages) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", p.handleDashboard)
	mux.HandleFunc("/add", p.handleAdd)
	mux.HandleFunc("/requests", p.handleRequests)
	mux.HandleFunc("/requests/", p.handleRequestAction)
	mux.HandleFunc("/spares", p.handleSpares)
	mux.HandleFunc("/spares/", p.handleSpareAction)
	mux.HandleFunc("/customers", p.handleCustomers)
	mux.HandleFunc("/accounts", p.handleAccounts)
	return mux
}

func (p *Pages) t(lang, messageID string) string {
	return p.translator.T(lang, messageID, nil)
}

func (p *Pages) statusLabel(lang string, status models.Status) string {
	return p.t(lang, "status."+string(models.NormalizeStatus(status)))
}

func (p *Pages) paymentLabel(lang string, status models.PaymentStatus) string {
	if status == "" {
		return p.t(lang, "payment.none")
	}
	return p.t(lang, "payment."+string(status))
}

// href keeps the chosen language on internal links.
func href(lang, path string) string {
	if lang == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "lang=" + url.QueryEscape(lang)
}

func (p *Pages) lang(r *http.Request) string {
	raw := r.URL.Query().Get("lang")
	if raw == "" {
		raw = r.PostFormValue("lang")
	}
	return p.translator.Lang(raw)
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, name string, status int, data pageData) {
	data.Lang = p.lang(r)
	data.Dir = p.translator.Dir(data.Lang)
	data.ShopName = p.shopName
	data.Path = r.URL.Path
	if data.Flash == "" && r.URL.Query().Get("saved") != "" {
		data.Flash = p.t(data.Lang, "page.saved")
	}

	var buf bytes.Buffer
	if err := p.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) renderError(w http.ResponseWriter, r *http.Request, name string, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case workshop.IsValidation(err):
		status, message = http.StatusBadRequest, err.Error()
	case isNotFound(err):
		status, message = http.StatusNotFound, err.Error()
	default:
		p.logger.Error("page failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	lang := p.lang(r)
	p.render(w, r, name, status, pageData{
		Error: p.translator.T(lang, "page.error", map[string]any{"Error": message}),
	})
}

func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, path string) {
	target := path + "?saved=1"
	if lang := r.PostFormValue("lang"); lang != "" {
		target = href(p.translator.Lang(lang), target)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
