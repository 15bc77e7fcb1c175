package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"
)

const partRows = 3

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrRequestNotFound) || errors.Is(err, store.ErrSpareNotFound) || errors.Is(err, store.ErrInvalidID)
}

type dashboardBody struct {
	Summary models.DashboardSummary
	Recent  []models.ServiceRequest
}

func (p *Pages) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	summary, err := p.service.Dashboard(r.Context())
	if err != nil {
		p.renderError(w, r, "dashboard", err)
		return
	}
	recent, err := p.service.ListRequests(r.Context(), workshop.ListFilter{})
	if err != nil {
		p.renderError(w, r, "dashboard", err)
		return
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}
	p.render(w, r, "dashboard", http.StatusOK, pageData{
		Refresh: int(p.refresh.Seconds()),
		Body:    dashboardBody{Summary: summary, Recent: recent},
	})
}

type addBody struct {
	Spares   []models.SparePart
	PartRows []int
}

func (p *Pages) handleAdd(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		spares, err := p.service.ListSpares(r.Context(), "")
		if err != nil {
			p.renderError(w, r, "add", err)
			return
		}
		rows := make([]int, partRows)
		for i := range rows {
			rows[i] = i
		}
		p.render(w, r, "add", http.StatusOK, pageData{Body: addBody{Spares: spares, PartRows: rows}})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			p.renderError(w, r, "add", &workshop.ValidationError{Message: "invalid form"})
			return
		}
		input, err := p.requestFromForm(r)
		if err != nil {
			p.renderError(w, r, "add", err)
			return
		}
		if _, err := p.service.CreateRequest(r.Context(), input); err != nil {
			p.renderError(w, r, "add", err)
			return
		}
		p.redirect(w, r, "/requests")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (p *Pages) requestFromForm(r *http.Request) (workshop.RequestInput, error) {
	form := r.PostForm
	input := workshop.RequestInput{
		CustomerName:         form.Get("customerName"),
		Phone:                form.Get("phone"),
		CarType:              form.Get("carType"),
		CarModel:             form.Get("carModel"),
		CarNumber:            form.Get("carNumber"),
		Kilometers:           form.Get("kilometers"),
		Problem:              form.Get("problem"),
		Notes:                form.Get("notes"),
		RepairCost:           models.ParseAmount(form.Get("repairCost")),
		SparePartName:        form.Get("sparePartName"),
		SparePartPrice:       models.ParseAmount(form.Get("sparePartPrice")),
		Total:                models.ParseAmount(form.Get("total")),
		PaymentStatus:        form.Get("paymentStatus"),
		RemainingAmount:      models.ParseAmount(form.Get("remainingAmount")),
		NetPurchasesRkha:     models.ParseAmount(form.Get("netPurchasesRkha")),
		NetPurchasesExternal: models.ParseAmount(form.Get("netPurchasesExternal")),
	}

	ids := form["partId"]
	quantities := form["partQty"]
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		spare, err := p.service.GetSpare(r.Context(), id)
		if err != nil {
			return workshop.RequestInput{}, err
		}
		qty := 1
		if i < len(quantities) {
			if parsed := int(models.ParseAmount(quantities[i])); parsed > 0 {
				qty = parsed
			}
		}
		input.SpareParts = append(input.SpareParts, models.UsedPart{
			SpareID:  spare.ID,
			Name:     spare.Name,
			Price:    spare.Price,
			Quantity: qty,
		})
	}
	return input, nil
}

type requestsBody struct {
	Query    string
	Status   string
	Statuses []models.Status
	Requests []models.ServiceRequest
}

func (p *Pages) handleRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	requests, err := p.service.ListRequests(r.Context(), workshop.ListFilter{
		Query:  query.Get("q"),
		Status: query.Get("status"),
	})
	if err != nil {
		p.renderError(w, r, "requests", err)
		return
	}
	p.render(w, r, "requests", http.StatusOK, pageData{Body: requestsBody{
		Query:    query.Get("q"),
		Status:   query.Get("status"),
		Statuses: models.Statuses,
		Requests: requests,
	}})
}

type invoiceBody struct {
	Request models.ServiceRequest
	Invoice models.Invoice
}

// handleRequestAction serves /requests/{id}/invoice and the row forms
// posting to /requests/{id}/{status|notes|payment|delete}.
func (p *Pages) handleRequestAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/requests/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	requestID, action := parts[0], parts[1]

	if action == "invoice" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		lang := p.lang(r)
		req, err := p.service.GetRequest(r.Context(), requestID)
		if err != nil {
			p.renderError(w, r, "invoice", err)
			return
		}
		invoice, err := p.service.Invoice(r.Context(), requestID, lang)
		if err != nil {
			p.renderError(w, r, "invoice", err)
			return
		}
		p.render(w, r, "invoice", http.StatusOK, pageData{Body: invoiceBody{Request: req, Invoice: invoice}})
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		p.renderError(w, r, "requests", &workshop.ValidationError{Message: "invalid form"})
		return
	}
	var err error
	switch action {
	case "status":
		value := r.PostForm.Get("status")
		_, err = p.service.UpdateRequest(r.Context(), requestID, workshop.RequestPatch{Status: &value})
	case "notes":
		value := r.PostForm.Get("notes")
		_, err = p.service.UpdateRequest(r.Context(), requestID, workshop.RequestPatch{Notes: &value})
	case "payment":
		value := r.PostForm.Get("paymentStatus")
		remaining := models.ParseAmount(r.PostForm.Get("remainingAmount"))
		_, err = p.service.UpdateRequest(r.Context(), requestID, workshop.RequestPatch{PaymentStatus: &value, RemainingAmount: &remaining})
	case "delete":
		_, err = p.service.DeleteRequest(r.Context(), requestID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		p.renderError(w, r, "requests", err)
		return
	}
	p.redirect(w, r, "/requests")
}

type sparesBody struct {
	Query      string
	Spares     []models.SparePart
	Categories []models.SpareCategory
	Threshold  int
}

func (p *Pages) handleSpares(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query().Get("q")
		spares, err := p.service.ListSpares(r.Context(), query)
		if err != nil {
			p.renderError(w, r, "spares", err)
			return
		}
		categories, err := p.service.ListCategories(r.Context())
		if err != nil {
			p.renderError(w, r, "spares", err)
			return
		}
		p.render(w, r, "spares", http.StatusOK, pageData{Body: sparesBody{
			Query:      query,
			Spares:     spares,
			Categories: categories,
			Threshold:  p.service.LowStockThreshold(),
		}})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			p.renderError(w, r, "spares", &workshop.ValidationError{Message: "invalid form"})
			return
		}
		input := workshop.SpareInput{
			Name:     r.PostForm.Get("name"),
			Quantity: models.ParseAmount(r.PostForm.Get("quantity")),
			Category: r.PostForm.Get("category"),
		}
		if raw := strings.TrimSpace(r.PostForm.Get("price")); raw != "" {
			price := models.ParseAmount(raw)
			input.Price = &price
		}
		if _, err := p.service.CreateSpare(r.Context(), input); err != nil {
			p.renderError(w, r, "spares", err)
			return
		}
		p.redirect(w, r, "/spares")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSpareAction serves /spares/{id} edits and /spares/{id}/delete.
func (p *Pages) handleSpareAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/spares/"), "/"), "/")
	if parts[0] == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		p.renderError(w, r, "spares", &workshop.ValidationError{Message: "invalid form"})
		return
	}
	spareID := parts[0]
	if len(parts) == 2 {
		if parts[1] != "delete" {
			http.NotFound(w, r)
			return
		}
		if err := p.service.DeleteSpare(r.Context(), spareID); err != nil {
			p.renderError(w, r, "spares", err)
			return
		}
		p.redirect(w, r, "/spares")
		return
	}

	var patch workshop.SparePatch
	if values, ok := r.PostForm["name"]; ok {
		patch.Name = &values[0]
	}
	if values, ok := r.PostForm["category"]; ok {
		patch.Category = &values[0]
	}
	if raw := strings.TrimSpace(r.PostForm.Get("price")); raw != "" {
		price := models.ParseAmount(raw)
		patch.Price = &price
	}
	if raw := strings.TrimSpace(r.PostForm.Get("quantity")); raw != "" {
		qty := models.ParseAmount(raw)
		patch.Quantity = &qty
	}
	if _, err := p.service.UpdateSpare(r.Context(), spareID, patch); err != nil {
		p.renderError(w, r, "spares", err)
		return
	}
	p.redirect(w, r, "/spares")
}

func (p *Pages) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	customers, err := p.service.Customers(r.Context())
	if err != nil {
		p.renderError(w, r, "customers", err)
		return
	}
	p.render(w, r, "customers", http.StatusOK, pageData{Body: customers})
}

type accountsBody struct {
	Period string
	Date   string
	Totals models.AccountTotals
}

func (p *Pages) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query()
	period, err := p.service.ResolvePeriod(query.Get("period"), query.Get("date"))
	if err != nil {
		p.renderError(w, r, "accounts", err)
		return
	}
	totals, err := p.service.Accounts(r.Context(), period)
	if err != nil {
		p.renderError(w, r, "accounts", err)
		return
	}
	p.render(w, r, "accounts", http.StatusOK, pageData{Body: accountsBody{
		Period: period.Kind,
		Date:   period.From.Format("2006-01-02"),
		Totals: totals,
	}})
}
