package workshop

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/i18n"
	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store/memory"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

var fixedNow = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC) // a Wednesday

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPublisher) {
	t.Helper()
	translator, err := i18n.New("ar")
	require.NoError(t, err)
	st := memory.NewStore()
	pub := &recordingPublisher{}
	svc := New(st, translator, pub, nil, Options{
		ShopName: "Al-Rayan",
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	return svc, st, pub
}

func addSpare(t *testing.T, svc *Service, name string, qty int) models.SparePart {
	t.Helper()
	price := models.Amount(100)
	spare, err := svc.CreateSpare(context.Background(), SpareInput{Name: name, Price: &price, Quantity: models.Amount(qty)})
	require.NoError(t, err)
	return spare
}

func quantityOf(t *testing.T, svc *Service, id string) int {
	t.Helper()
	spare, err := svc.GetSpare(context.Background(), id)
	require.NoError(t, err)
	return spare.Quantity
}

func TestCreateRequestValidatesPresence(t *testing.T) {
	svc, _, pub := newTestService(t)
	_, err := svc.CreateRequest(context.Background(), RequestInput{CustomerName: "Ali", Phone: " "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, pub.Events())
}

func TestCreateRequestDefaultsAndTotal(t *testing.T) {
	svc, _, pub := newTestService(t)
	oil := addSpare(t, svc, "oil", 10)

	m, err := svc.CreateRequest(context.Background(), RequestInput{
		CustomerName:   "Ali",
		Phone:          "010-123",
		Problem:        "noise",
		RepairCost:     200,
		SparePartPrice: 50,
		SpareParts:     []models.UsedPart{{SpareID: oil.ID, Name: "oil", Price: 30, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, m.Request.Status)
	assert.Equal(t, models.Amount(310), m.Request.Total)
	assert.Equal(t, fixedNow, m.Request.CreatedAt)
	assert.Equal(t, 8, quantityOf(t, svc, oil.ID))
	assert.Contains(t, pub.Events(), EventRequestCreated)
}

func TestCreateRequestKeepsExplicitTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, err := svc.CreateRequest(context.Background(), RequestInput{
		CustomerName: "Ali", Phone: "1", Problem: "x", RepairCost: 200, Total: 150, Status: "تحت الإصلاح", PaymentStatus: "كاش",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Amount(150), m.Request.Total)
	assert.Equal(t, models.StatusInRepair, m.Request.Status)
	assert.Equal(t, models.PaymentCash, m.Request.PaymentStatus)
}

func TestRequestLifecycleReconcilesStock(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	oil := addSpare(t, svc, "oil", 5)
	pads := addSpare(t, svc, "brake pads", 1)

	created, err := svc.CreateRequest(ctx, RequestInput{
		CustomerName: "Ali", Phone: "1", Problem: "service",
		SpareParts: []models.UsedPart{{SpareID: oil.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, quantityOf(t, svc, oil.ID))

	parts := []models.UsedPart{{SpareID: oil.ID, Quantity: 1}, {Name: "brake pads", Quantity: 3}}
	updated, err := svc.UpdateRequest(ctx, created.Request.ID, RequestPatch{SpareParts: &parts})
	require.NoError(t, err)
	assert.Equal(t, 4, quantityOf(t, svc, oil.ID))
	assert.Equal(t, 0, quantityOf(t, svc, pads.ID))
	require.Len(t, updated.Inventory.Shortfalls, 1)
	assert.Equal(t, pads.ID, updated.Inventory.Shortfalls[0].SpareID)

	notes := "customer waiting"
	_, err = svc.UpdateRequest(ctx, created.Request.ID, RequestPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 4, quantityOf(t, svc, oil.ID))

	result, err := svc.DeleteRequest(ctx, created.Request.ID)
	require.NoError(t, err)
	assert.Len(t, result.Adjusted, 2)
	assert.Equal(t, 5, quantityOf(t, svc, oil.ID))
	assert.Equal(t, 3, quantityOf(t, svc, pads.ID))

	_, err = svc.GetRequest(ctx, created.Request.ID)
	assert.ErrorIs(t, err, store.ErrRequestNotFound)

	want := []string{
		EventSpareCreated, EventSpareCreated,
		EventRequestCreated, EventRequestUpdated, EventRequestUpdated, EventRequestDeleted,
	}
	if diff := cmp.Diff(want, pub.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStalePartIDResolvesByName(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	filter := addSpare(t, svc, "Oil Filter", 10)

	created, err := svc.CreateRequest(ctx, RequestInput{
		CustomerName: "Ali", Phone: "1", Problem: "service",
		SpareParts: []models.UsedPart{{SpareID: "stale-id", Name: "Oil Filter", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, quantityOf(t, svc, filter.ID))
	assert.Empty(t, created.Inventory.Missing)

	_, err = svc.DeleteRequest(ctx, created.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, quantityOf(t, svc, filter.ID))
}

func TestCreateRequestWithUnknownPartStillSucceeds(t *testing.T) {
	svc, _, _ := newTestService(t)
	m, err := svc.CreateRequest(context.Background(), RequestInput{
		CustomerName: "Ali", Phone: "1", Problem: "x", SparePartName: "mirror",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mirror"}, m.Inventory.Missing)
}

func TestUpdateRequestRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created, err := svc.CreateRequest(ctx, RequestInput{CustomerName: "Ali", Phone: "1", Problem: "x"})
	require.NoError(t, err)

	status := "lost"
	_, err = svc.UpdateRequest(ctx, created.Request.ID, RequestPatch{Status: &status})
	assert.True(t, IsValidation(err))

	_, err = svc.UpdateRequest(ctx, "missing", RequestPatch{Status: &status})
	assert.ErrorIs(t, err, store.ErrRequestNotFound)
}

func TestUpdateRequestRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created, err := svc.CreateRequest(ctx, RequestInput{CustomerName: "Ali", Phone: "1", Problem: "x", RepairCost: 100})
	require.NoError(t, err)

	cost := models.Amount(250)
	m, err := svc.UpdateRequest(ctx, created.Request.ID, RequestPatch{RepairCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, models.Amount(250), m.Request.Total)
}

func TestListRequestsSearch(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	inputs := []RequestInput{
		{CustomerName: "Ali Hassan", Phone: "0100", Problem: "brakes", CarType: "Toyota"},
		{CustomerName: "Omar", Phone: "0111", Problem: "engine", Status: "delivered"},
		{CustomerName: "Mona", Phone: "0122", Problem: "AC", SpareParts: []models.UsedPart{{Name: "Compressor"}}},
	}
	for _, in := range inputs {
		_, err := svc.CreateRequest(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.ListRequests(ctx, ListFilter{Query: "toyota"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ali Hassan", got[0].CustomerName)

	got, err = svc.ListRequests(ctx, ListFilter{Query: "compressor"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.ListRequests(ctx, ListFilter{Status: "delivered"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Omar", got[0].CustomerName)

	_, err = svc.ListRequests(ctx, ListFilter{Status: "bogus"})
	assert.True(t, IsValidation(err))
}

func TestSpareOperations(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	_, err := svc.CreateSpare(ctx, SpareInput{Name: "bulb"})
	require.Error(t, err)
	assert.Equal(t, "name and price are required", err.Error())

	var in SpareInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"bulb","price":"15","quantity":"7","category":"كهرباء"}`), &in))
	bulb, err := svc.CreateSpare(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 7, bulb.Quantity)
	assert.Equal(t, models.Amount(15), bulb.Price)

	negative := models.Amount(-4)
	updated, err := svc.UpdateSpare(ctx, bulb.ID, SparePatch{Quantity: &negative})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)

	addSpare(t, svc, "tire", 20)
	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "bulb", low[0].Name)

	found, err := svc.ListSpares(ctx, "كهرباء")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, svc.DeleteSpare(ctx, bulb.ID))
	assert.ErrorIs(t, svc.DeleteSpare(ctx, bulb.ID), store.ErrSpareNotFound)
	assert.True(t, IsValidation(svc.DeleteSpare(ctx, "")))
	assert.Contains(t, pub.Events(), EventSpareDeleted)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	n, err := svc.SeedCategories(ctx, []string{"زيوت", "", "فلاتر"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	addSpare(t, svc, "فلتر زيت", 3)
	changed, err := svc.BackfillCategories(ctx, map[string]string{"فلتر زيت": "فلاتر", "غير موجود": "زيوت"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
}

func TestCustomersAndDashboard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	for _, in := range []RequestInput{
		{CustomerName: "Ali", Phone: "010 1234", Problem: "x"},
		{CustomerName: "Ali", Phone: "010 1234", Problem: "y", Status: "in_repair"},
		{CustomerName: "Omar", Phone: "0111", Problem: "z", Status: "delivered"},
	} {
		_, err := svc.CreateRequest(ctx, in)
		require.NoError(t, err)
	}

	customers, err := svc.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	byName := map[string]string{}
	for _, c := range customers {
		byName[c.CustomerName] = c.WhatsAppURL
	}
	assert.Equal(t, "https://wa.me/20101234", byName["Ali"])

	summary, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardSummary{New: 1, InRepair: 1, Delivered: 1}, summary)
}

func TestResolvePeriod(t *testing.T) {
	svc, _, _ := newTestService(t)

	day, err := svc.ResolvePeriod("", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), day.From)
	assert.Equal(t, time.Date(2024, 6, 12, 23, 59, 59, 999999999, time.UTC), day.To)

	week, err := svc.ResolvePeriod("week", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), week.From)
	assert.Equal(t, time.Date(2024, 6, 15, 23, 59, 59, 999999999, time.UTC), week.To)

	explicit, err := svc.ResolvePeriod("week", "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 7, 23, 59, 59, 999999999, time.UTC), explicit.To)

	_, err = svc.ResolvePeriod("month", "")
	assert.True(t, IsValidation(err))
	_, err = svc.ResolvePeriod("day", "12/06/2024")
	assert.True(t, IsValidation(err))
}

func TestSumAccounts(t *testing.T) {
	period := Period{Kind: PeriodDay}
	totals := SumAccounts(period, []models.ServiceRequest{
		{RepairCost: 100, NetPurchasesRkha: 20, NetPurchasesExternal: 5, Total: 150, RemainingAmount: 10},
		{RepairCost: 50, Total: 80},
	})
	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, models.Amount(150), totals.Repair)
	assert.Equal(t, models.Amount(20), totals.NetPurchasesRkha)
	assert.Equal(t, models.Amount(5), totals.NetPurchasesExternal)
	assert.Equal(t, models.Amount(230), totals.Total)
	assert.Equal(t, models.Amount(10), totals.Remaining)
}

func TestAccountsUsesPeriod(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.CreateRequest(ctx, RequestInput{CustomerName: "Ali", Phone: "1", Problem: "x", RepairCost: 100})
	require.NoError(t, err)

	today, err := svc.ResolvePeriod("day", "")
	require.NoError(t, err)
	totals, err := svc.Accounts(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Count)

	yesterday, err := svc.ResolvePeriod("day", "2024-06-11")
	require.NoError(t, err)
	totals, err = svc.Accounts(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, 0, totals.Count)
}

func TestInvoice(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created, err := svc.CreateRequest(ctx, RequestInput{
		CustomerName: "Ali", Phone: "0100", Problem: "brakes", Total: 300, PaymentStatus: "cash", Kilometers: "120000",
	})
	require.NoError(t, err)

	inv, err := svc.Invoice(ctx, created.Request.ID, "en")
	require.NoError(t, err)
	lines := strings.Split(inv.Text, "\n")
	assert.Equal(t, "Al-Rayan", lines[0])
	assert.Contains(t, inv.Text, "Name: Ali")
	assert.Contains(t, inv.Text, "Total: 300")
	assert.Contains(t, inv.Text, "Payment: Cash")
	assert.Contains(t, inv.Text, "Notes: -")
	assert.Contains(t, inv.Text, "Remaining: -")
	assert.Contains(t, inv.Text, "Kilometers: 120000")
	assert.True(t, strings.HasPrefix(inv.WhatsAppURL, "https://wa.me/?text=Al-Rayan%0A"))
	assert.NotContains(t, inv.WhatsAppURL, "+")

	_, err = svc.Invoice(ctx, "missing", "en")
	assert.ErrorIs(t, err, store.ErrRequestNotFound)
}
