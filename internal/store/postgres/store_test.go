package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rayan"),
		tcpostgres.WithUsername("rayan"),
		tcpostgres.WithPassword("rayan"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := Connect(ctx, dsn, 3, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))

	s := NewStore(pool)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStoreRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older, err := s.CreateRequest(ctx, models.ServiceRequest{
		CustomerName: "Ahmed", Phone: "0100", Problem: "brakes", Status: models.StatusNew,
		RepairCost: 150, CreatedAt: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	newer, err := s.CreateRequest(ctx, models.ServiceRequest{
		CustomerName: "Mona", Phone: "0111", Problem: "oil", Status: models.StatusInRepair,
		SpareParts: []models.UsedPart{{SpareID: "s1", Name: "filter", Price: 40, Quantity: 2}},
		CreatedAt:  time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, newer.ID)

	all, err := s.ListRequests(ctx, store.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, []models.UsedPart{{SpareID: "s1", Name: "filter", Price: 40, Quantity: 2}}, all[0].SpareParts)
	assert.Equal(t, models.Amount(150), all[1].RepairCost)

	window, err := s.ListRequests(ctx, store.RequestFilter{
		From: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, older.ID, window[0].ID)

	inRepair, err := s.ListRequests(ctx, store.RequestFilter{Status: models.StatusInRepair})
	require.NoError(t, err)
	require.Len(t, inRepair, 1)

	newer.PaymentStatus = models.PaymentCash
	updated, err := s.UpdateRequest(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, updated.PaymentStatus)

	_, ok, err := s.GetRequest(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateRequest(ctx, models.ServiceRequest{ID: "missing"})
	assert.ErrorIs(t, err, store.ErrRequestNotFound)

	require.NoError(t, s.DeleteRequest(ctx, older.ID))
	assert.ErrorIs(t, s.DeleteRequest(ctx, older.ID), store.ErrRequestNotFound)
}

func TestStoreSpareQuantityClamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	spare, err := s.CreateSpare(ctx, models.SparePart{Name: "pads", Price: 90, Quantity: 2})
	require.NoError(t, err)

	adjusted, err := s.AdjustSpareQuantity(ctx, spare.ID, -7)
	require.NoError(t, err)
	assert.Equal(t, 0, adjusted.Quantity)

	adjusted, err = s.AdjustSpareQuantity(ctx, spare.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, adjusted.Quantity)

	_, err = s.AdjustSpareQuantity(ctx, "missing", 1)
	assert.ErrorIs(t, err, store.ErrSpareNotFound)
}

func TestStoreSparesAndCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateSpare(ctx, models.SparePart{Name: "wipers", Price: 30, Quantity: 5})
	require.NoError(t, err)
	filter, err := s.CreateSpare(ctx, models.SparePart{Name: "filter", Price: 40, Quantity: 1})
	require.NoError(t, err)

	spares, err := s.ListSpares(ctx)
	require.NoError(t, err)
	require.Len(t, spares, 2)
	assert.Equal(t, "filter", spares[0].Name)

	found, ok, err := s.FindSpareByName(ctx, "filter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filter.ID, found.ID)

	filter.Name = "oil filter"
	filter.Quantity = -3
	renamed, err := s.UpdateSpare(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, "oil filter", renamed.Name)
	assert.Equal(t, 0, renamed.Quantity)

	n, err := s.AssignCategoryByName(ctx, "wipers", "body")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.UpsertCategory(ctx, "body"))
	require.NoError(t, s.UpsertCategory(ctx, "body"))
	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SpareCategory{{Name: "body"}}, categories)

	require.NoError(t, s.DeleteSpare(ctx, filter.ID))
	assert.ErrorIs(t, s.DeleteSpare(ctx, filter.ID), store.ErrSpareNotFound)
}
