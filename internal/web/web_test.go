package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/i18n"
	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store/memory"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPages(t *testing.T) (http.Handler, *workshop.Service, *memory.Store) {
	t.Helper()
	translator, err := i18n.New("ar")
	require.NoError(t, err)
	st := memory.NewStore()
	svc := workshop.New(st, translator, nil, nil, workshop.Options{
		ShopName: "Al-Rayan",
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC) },
	})
	pages, err := New(svc, Options{ShopName: "Al-Rayan", Refresh: 7 * time.Second})
	require.NoError(t, err)
	return pages.Routes(), svc, st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestDashboardRefreshesAndDefaultsToArabic(t *testing.T) {
	h, _, _ := newTestPages(t)
	resp := get(t, h, "/")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `<meta http-equiv="refresh" content="7">`)
	assert.Contains(t, body, `dir="rtl"`)
	assert.Contains(t, body, "ملخص الحالات")

	resp = get(t, h, "/?lang=en")
	assert.Contains(t, resp.Body.String(), `dir="ltr"`)
	assert.Contains(t, resp.Body.String(), "Status summary")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nowhere").Code)
}

func TestAddFormCreatesRequestAndConsumesStock(t *testing.T) {
	h, svc, _ := newTestPages(t)
	price := models.Amount(40)
	spare, err := svc.CreateSpare(context.Background(), workshop.SpareInput{Name: "oil", Price: &price, Quantity: 5})
	require.NoError(t, err)

	resp := get(t, h, "/add")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), spare.ID)

	form := url.Values{
		"customerName": {"Ali"},
		"phone":        {"0100"},
		"problem":      {"oil change"},
		"repairCost":   {"100"},
		"partId":       {spare.ID, "", ""},
		"partQty":      {"2", "1", "1"},
		"lang":         {"en"},
	}
	resp = postForm(t, h, "/add", form)
	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/requests?saved=1&lang=en", resp.Header().Get("Location"))

	requests, err := svc.ListRequests(context.Background(), workshop.ListFilter{})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, models.Amount(180), requests[0].Total)

	updated, err := svc.GetSpare(context.Background(), spare.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
}

func TestAddFormMissingFields(t *testing.T) {
	h, _, _ := newTestPages(t)
	resp := postForm(t, h, "/add", url.Values{"customerName": {"Ali"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "customerName, phone and problem are required")
}

func TestRequestsPageActions(t *testing.T) {
	h, svc, _ := newTestPages(t)
	created, err := svc.CreateRequest(context.Background(), workshop.RequestInput{CustomerName: "Omar", Phone: "0111", Problem: "engine"})
	require.NoError(t, err)
	id := created.Request.ID

	resp := get(t, h, "/requests?q=omar")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Omar")

	resp = get(t, h, "/requests?q=nobody")
	assert.NotContains(t, resp.Body.String(), "Omar")

	resp = postForm(t, h, "/requests/"+id+"/status", url.Values{"status": {"delivered"}})
	require.Equal(t, http.StatusSeeOther, resp.Code)
	resp = postForm(t, h, "/requests/"+id+"/notes", url.Values{"notes": {"call back"}})
	require.Equal(t, http.StatusSeeOther, resp.Code)

	req, err := svc.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, req.Status)
	assert.Equal(t, "call back", req.Notes)

	resp = get(t, h, "/requests/"+id+"/invoice?lang=en")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "https://wa.me/?text=")

	resp = postForm(t, h, "/requests/"+id+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.Code)
	_, err = svc.GetRequest(context.Background(), id)
	assert.Error(t, err)

	resp = get(t, h, "/requests/"+id+"/invoice")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSparesPage(t *testing.T) {
	h, svc, _ := newTestPages(t)
	resp := postForm(t, h, "/spares", url.Values{"name": {"bulb"}, "price": {"15"}, "quantity": {"2"}})
	require.Equal(t, http.StatusSeeOther, resp.Code)

	resp = postForm(t, h, "/spares", url.Values{"name": {"bulb"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = get(t, h, "/spares")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `class="low"`)

	spares, err := svc.ListSpares(context.Background(), "bulb")
	require.NoError(t, err)
	require.Len(t, spares, 1)

	resp = postForm(t, h, "/spares/"+spares[0].ID, url.Values{"quantity": {"30"}})
	require.Equal(t, http.StatusSeeOther, resp.Code)
	resp = get(t, h, "/spares")
	assert.NotContains(t, resp.Body.String(), `class="low"`)

	resp = postForm(t, h, "/spares/"+spares[0].ID+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.Code)
	spares, err = svc.ListSpares(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, spares)
}

func TestCustomersAndAccountsPages(t *testing.T) {
	h, svc, _ := newTestPages(t)
	_, err := svc.CreateRequest(context.Background(), workshop.RequestInput{CustomerName: "Mona", Phone: "0122", Problem: "AC", RepairCost: 250})
	require.NoError(t, err)

	resp := get(t, h, "/customers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "https://wa.me/20122")

	resp = get(t, h, "/accounts?period=day&date=2024-06-12")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "<td>250</td>")

	resp = get(t, h, "/accounts?period=year")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
