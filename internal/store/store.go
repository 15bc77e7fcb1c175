package store

import (
	"context"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
)

type RequestFilter struct {
	Status models.Status
	From   time.Time
	To     time.Time
}

// Matches reports whether a request falls inside the filter. Zero bounds are
// open.
func (f RequestFilter) Matches(req models.ServiceRequest) bool {
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && req.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && req.CreatedAt.After(f.To) {
		return false
	}
	return true
}

type Store interface {
	CreateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error)
	GetRequest(ctx context.Context, requestID string) (models.ServiceRequest, bool, error)
	UpdateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error)
	DeleteRequest(ctx context.Context, requestID string) error
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.ServiceRequest, error)

	CreateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error)
	GetSpare(ctx context.Context, spareID string) (models.SparePart, bool, error)
	FindSpareByName(ctx context.Context, name string) (models.SparePart, bool, error)
	UpdateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error)
	DeleteSpare(ctx context.Context, spareID string) error
	ListSpares(ctx context.Context) ([]models.SparePart, error)
	AdjustSpareQuantity(ctx context.Context, spareID string, delta int) (models.SparePart, error)
	AssignCategoryByName(ctx context.Context, spareName, category string) (int64, error)

	UpsertCategory(ctx context.Context, name string) error
	ListCategories(ctx context.Context) ([]models.SpareCategory, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
