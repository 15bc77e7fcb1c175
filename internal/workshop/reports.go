package workshop

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
)

const (
	PeriodDay  = "day"
	PeriodWeek = "week"

	dateLayout = "2006-01-02"
)

type Period struct {
	Kind string
	From time.Time
	To   time.Time
}

// ResolvePeriod turns a period kind and an optional YYYY-MM-DD date into a
// closed time range. A week runs from its start date through the end of the
// sixth day after it; without a date it starts on the most recent Sunday.
func (s *Service) ResolvePeriod(kind, date string) (Period, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = PeriodDay
	}
	if kind != PeriodDay && kind != PeriodWeek {
		return Period{}, invalid("period must be day or week")
	}

	var start time.Time
	if date = strings.TrimSpace(date); date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, s.location)
		if err != nil {
			return Period{}, invalid("date must be YYYY-MM-DD")
		}
		start = parsed
	} else {
		now := s.now().In(s.location)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
		if kind == PeriodWeek {
			start = start.AddDate(0, 0, -int(start.Weekday()))
		}
	}

	days := 1
	if kind == PeriodWeek {
		days = 7
	}
	return Period{
		Kind: kind,
		From: start,
		To:   start.AddDate(0, 0, days).Add(-time.Nanosecond),
	}, nil
}

func (s *Service) PeriodRequests(ctx context.Context, period Period) ([]models.ServiceRequest, error) {
	return s.store.ListRequests(ctx, store.RequestFilter{From: period.From, To: period.To})
}

func (s *Service) Accounts(ctx context.Context, period Period) (models.AccountTotals, error) {
	requests, err := s.PeriodRequests(ctx, period)
	if err != nil {
		return models.AccountTotals{}, err
	}
	return SumAccounts(period, requests), nil
}

func SumAccounts(period Period, requests []models.ServiceRequest) models.AccountTotals {
	totals := models.AccountTotals{
		Period: period.Kind,
		From:   period.From,
		To:     period.To,
		Count:  len(requests),
	}
	for _, req := range requests {
		totals.Repair += req.RepairCost
		totals.NetPurchasesRkha += req.NetPurchasesRkha
		totals.NetPurchasesExternal += req.NetPurchasesExternal
		totals.Total += req.Total
		totals.Remaining += req.RemainingAmount
	}
	return totals
}

func (s *Service) Dashboard(ctx context.Context) (models.DashboardSummary, error) {
	requests, err := s.store.ListRequests(ctx, store.RequestFilter{})
	if err != nil {
		return models.DashboardSummary{}, err
	}
	var summary models.DashboardSummary
	for _, req := range requests {
		switch models.NormalizeStatus(req.Status) {
		case models.StatusNew:
			summary.New++
		case models.StatusInRepair:
			summary.InRepair++
		case models.StatusDelivered:
			summary.Delivered++
		}
	}
	return summary, nil
}

// Customers derives the distinct name and phone pairs from requests, newest
// first.
func (s *Service) Customers(ctx context.Context) ([]models.Customer, error) {
	requests, err := s.store.ListRequests(ctx, store.RequestFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	customers := make([]models.Customer, 0)
	for _, req := range requests {
		name := strings.TrimSpace(req.CustomerName)
		phone := strings.TrimSpace(req.Phone)
		if name == "" || phone == "" {
			continue
		}
		key := name + "-" + phone
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		customers = append(customers, models.Customer{
			CustomerName: name,
			Phone:        phone,
			WhatsAppURL:  WhatsAppURL(phone),
		})
	}
	return customers, nil
}

// WhatsAppURL builds a chat link for an Egyptian local number.
func WhatsAppURL(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/2" + digits.String()
}

func (s *Service) Invoice(ctx context.Context, requestID, lang string) (models.Invoice, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return models.Invoice{}, err
	}
	text := s.InvoiceText(req, lang)
	return models.Invoice{
		RequestID:   req.ID,
		Text:        text,
		WhatsAppURL: "https://wa.me/?text=" + encodeComponent(text),
	}, nil
}

func (s *Service) InvoiceText(req models.ServiceRequest, lang string) string {
	t := func(id string) string { return s.translator.T(lang, id, nil) }

	payment := "-"
	if req.PaymentStatus != "" {
		payment = t("payment." + string(req.PaymentStatus))
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = "-"
	}

	var b strings.Builder
	if s.shopName != "" {
		b.WriteString(s.shopName)
		b.WriteString("\n")
	}
	b.WriteString(t("invoice.welcome"))
	b.WriteString("\n\n")
	b.WriteString(t("invoice.title"))
	b.WriteString("\n\n")
	lines := [][2]string{
		{t("invoice.customer"), orDash(req.CustomerName)},
		{t("invoice.phone"), orDash(req.Phone)},
		{t("invoice.problem"), orDash(req.Problem)},
		{t("invoice.notes"), notes},
		{t("invoice.total"), amountOrDash(req.Total)},
		{t("invoice.payment"), payment},
		{t("invoice.remaining"), amountOrDash(req.RemainingAmount)},
		{t("invoice.kilometers"), orDash(req.Kilometers)},
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line[0])
		b.WriteString(": ")
		b.WriteString(line[1])
	}
	return b.String()
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func amountOrDash(value models.Amount) string {
	if value == 0 {
		return "-"
	}
	return value.String()
}

// encodeComponent percent-encodes text for a URL query value using %20 for
// spaces, which WhatsApp renders literally otherwise.
func encodeComponent(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
