package httpapi

import (
	"encoding/csv"
	"encoding/json"
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/hub"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *workshop.Service
	hub     *hub.Hub
	logger  *zap.Logger
}

type Options struct {
	Hub    *hub.Hub
	Logger *zap.Logger
}

type errorResponse struct {
	RequestID string        `json:"request_id,omitempty"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type successResponse struct {
	Success   bool   `json:"success"`
	ID        string `json:"id,omitempty"`
	Inventory any    `json:"inventory,omitempty"`
}

func NewHandler(service *workshop.Service, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, hub: opts.Hub, logger: logger}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/requests", h.handleRequests)
	mux.HandleFunc("/api/requests/", h.handleRequestByID)
	mux.HandleFunc("/api/spares", h.handleSpares)
	mux.HandleFunc("/api/spares/low-stock", h.handleLowStock)
	mux.HandleFunc("/api/spares/", h.handleSpareByID)
	mux.HandleFunc("/api/spare-categories", h.handleCategories)
	mux.HandleFunc("/api/customers", h.handleCustomers)
	mux.HandleFunc("/api/dashboard/summary", h.handleDashboard)
	mux.HandleFunc("/api/accounts", h.handleAccounts)
	mux.HandleFunc("/api/accounts/export", h.handleAccountsExport)
	if h.hub != nil {
		mux.Handle("/realtime/", NewRealtimeHandler(h.hub, h.logger))
	}
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeError(w, requestIDFrom(r), http.StatusServiceUnavailable, "unavailable", "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		requests, err := h.service.ListRequests(r.Context(), workshop.ListFilter{
			Query:  query.Get("q"),
			Status: query.Get("status"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	case http.MethodPost:
		var input workshop.RequestInput
		if !decodeJSON(w, r, &input) {
			return
		}
		result, err := h.service.CreateRequest(r.Context(), input)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, ID: result.Request.ID, Inventory: result.Inventory})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/requests/"), "/")
	parts := strings.Split(path, "/")
	if path == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	requestID := parts[0]
	if len(parts) == 2 {
		if parts[1] != "invoice" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleInvoice(w, r, requestID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		req, err := h.service.GetRequest(r.Context(), requestID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodPatch, http.MethodPut:
		var patch workshop.RequestPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		result, err := h.service.UpdateRequest(r.Context(), requestID, patch)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, ID: result.Request.ID, Inventory: result.Inventory})
	case http.MethodDelete:
		result, err := h.service.DeleteRequest(r.Context(), requestID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, ID: requestID, Inventory: result})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request, requestID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	invoice, err := h.service.Invoice(r.Context(), requestID, r.URL.Query().Get("lang"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

type spareIDRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleSpares(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		spares, err := h.service.ListSpares(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, spares)
	case http.MethodPost:
		var input workshop.SpareInput
		if !decodeJSON(w, r, &input) {
			return
		}
		spare, err := h.service.CreateSpare(r.Context(), input)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, ID: spare.ID})
	case http.MethodPatch, http.MethodPut:
		var patch workshop.SparePatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		h.updateSpare(w, r, patch.ID, patch)
	case http.MethodDelete:
		var payload spareIDRequest
		if r.ContentLength != 0 {
			if !decodeJSON(w, r, &payload) {
				return
			}
		}
		if payload.ID == "" {
			payload.ID = r.URL.Query().Get("id")
		}
		h.deleteSpare(w, r, payload.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSpareByID(w http.ResponseWriter, r *http.Request) {
	spareID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/spares/"), "/")
	if spareID == "" || strings.Contains(spareID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		spare, err := h.service.GetSpare(r.Context(), spareID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, spare)
	case http.MethodPatch, http.MethodPut:
		var patch workshop.SparePatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		h.updateSpare(w, r, spareID, patch)
	case http.MethodDelete:
		h.deleteSpare(w, r, spareID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) updateSpare(w http.ResponseWriter, r *http.Request, spareID string, patch workshop.SparePatch) {
	spare, err := h.service.UpdateSpare(r.Context(), strings.TrimSpace(spareID), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, ID: spare.ID})
}

func (h *Handler) deleteSpare(w http.ResponseWriter, r *http.Request, spareID string) {
	spareID = strings.TrimSpace(spareID)
	if err := h.service.DeleteSpare(r.Context(), spareID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, ID: spareID})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	spares, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spares)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	customers, err := h.service.Customers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	period, err := h.service.ResolvePeriod(r.URL.Query().Get("period"), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	totals, err := h.service.Accounts(r.Context(), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) handleAccountsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	period, err := h.service.ResolvePeriod(r.URL.Query().Get("period"), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.service.PeriodRequests(r.Context(), period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	totals := workshop.SumAccounts(period, rows)

	filename := "accounts-" + period.Kind + "-" + period.From.Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id", "created_at", "customer_name", "phone", "car_type", "car_number", "status", "payment_status",
		"repair_cost", "net_purchases_rkha", "net_purchases_external", "total", "remaining_amount",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.ID,
			row.CreatedAt.Format(time.RFC3339),
			row.CustomerName,
			row.Phone,
			row.CarType,
			row.CarNumber,
			string(row.Status),
			string(row.PaymentStatus),
			row.RepairCost.String(),
			row.NetPurchasesRkha.String(),
			row.NetPurchasesExternal.String(),
			row.Total.String(),
			row.RemainingAmount.String(),
		})
	}
	_ = writer.Write([]string{
		"", "", "", "", "", "", "", "",
		totals.Repair.String(),
		totals.NetPurchasesRkha.String(),
		totals.NetPurchasesExternal.String(),
		totals.Total.String(),
		totals.Remaining.String(),
	})
	writer.Flush()
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, requestIDFrom(r), status, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, requestIDFrom(r), http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func requestIDFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-ID"))
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
