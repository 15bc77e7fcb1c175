// Package memory keeps every collection in process. It backs DB_DRIVER=memory
// for local runs and the workshop tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"github.com/google/btree"
	"github.com/google/uuid"
)

const degree = 16

type requestKey struct {
	createdAt time.Time
	id        string
}

type spareKey struct {
	name string
	id   string
}

type Store struct {
	mu         sync.RWMutex
	requests   map[string]models.ServiceRequest
	byCreated  *btree.BTreeG[requestKey]
	spares     map[string]models.SparePart
	byName     *btree.BTreeG[spareKey]
	categories *btree.BTreeG[string]
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		requests: make(map[string]models.ServiceRequest),
		byCreated: btree.NewG(degree, func(a, b requestKey) bool {
			if a.createdAt.Equal(b.createdAt) {
				return a.id < b.id
			}
			return a.createdAt.After(b.createdAt)
		}),
		spares: make(map[string]models.SparePart),
		byName: btree.NewG(degree, func(a, b spareKey) bool {
			if a.name == b.name {
				return a.id < b.id
			}
			return a.name < b.name
		}),
		categories: btree.NewG(degree, func(a, b string) bool { return a < b }),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	req.UpdatedAt = s.now()
	req.SpareParts = cloneParts(req.SpareParts)
	s.requests[req.ID] = req
	s.byCreated.ReplaceOrInsert(requestKey{createdAt: req.CreatedAt, id: req.ID})
	return req, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (models.ServiceRequest, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return models.ServiceRequest{}, false, nil
	}
	req.SpareParts = cloneParts(req.SpareParts)
	return req, true, nil
}

func (s *Store) UpdateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[req.ID]
	if !ok {
		return models.ServiceRequest{}, store.ErrRequestNotFound
	}
	if !existing.CreatedAt.Equal(req.CreatedAt) {
		s.byCreated.Delete(requestKey{createdAt: existing.CreatedAt, id: existing.ID})
		if req.CreatedAt.IsZero() {
			req.CreatedAt = existing.CreatedAt
		}
		s.byCreated.ReplaceOrInsert(requestKey{createdAt: req.CreatedAt, id: req.ID})
	}
	req.UpdatedAt = s.now()
	req.SpareParts = cloneParts(req.SpareParts)
	s.requests[req.ID] = req
	return req, nil
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[requestID]
	if !ok {
		return store.ErrRequestNotFound
	}
	delete(s.requests, requestID)
	s.byCreated.Delete(requestKey{createdAt: existing.CreatedAt, id: existing.ID})
	return nil
}

func (s *Store) ListRequests(ctx context.Context, filter store.RequestFilter) ([]models.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ServiceRequest
	s.byCreated.Ascend(func(key requestKey) bool {
		req := s.requests[key.id]
		if filter.Matches(req) {
			req.SpareParts = cloneParts(req.SpareParts)
			out = append(out, req)
		}
		return true
	})
	return out, nil
}

func (s *Store) CreateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if spare.ID == "" {
		spare.ID = uuid.NewString()
	}
	if spare.CreatedAt.IsZero() {
		spare.CreatedAt = s.now()
	}
	spare.UpdatedAt = s.now()
	s.spares[spare.ID] = spare
	s.byName.ReplaceOrInsert(spareKey{name: spare.Name, id: spare.ID})
	return spare, nil
}

func (s *Store) GetSpare(ctx context.Context, spareID string) (models.SparePart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spare, ok := s.spares[spareID]
	return spare, ok, nil
}

func (s *Store) FindSpareByName(ctx context.Context, name string) (models.SparePart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name = strings.TrimSpace(name)
	var found models.SparePart
	var ok bool
	s.byName.AscendGreaterOrEqual(spareKey{name: name}, func(key spareKey) bool {
		if key.name == name {
			found, ok = s.spares[key.id], true
		}
		return false
	})
	return found, ok, nil
}

func (s *Store) UpdateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.spares[spare.ID]
	if !ok {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	if existing.Name != spare.Name {
		s.byName.Delete(spareKey{name: existing.Name, id: existing.ID})
		s.byName.ReplaceOrInsert(spareKey{name: spare.Name, id: spare.ID})
	}
	if spare.CreatedAt.IsZero() {
		spare.CreatedAt = existing.CreatedAt
	}
	spare.UpdatedAt = s.now()
	s.spares[spare.ID] = spare
	return spare, nil
}

func (s *Store) DeleteSpare(ctx context.Context, spareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.spares[spareID]
	if !ok {
		return store.ErrSpareNotFound
	}
	delete(s.spares, spareID)
	s.byName.Delete(spareKey{name: existing.Name, id: existing.ID})
	return nil
}

func (s *Store) ListSpares(ctx context.Context) ([]models.SparePart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SparePart, 0, len(s.spares))
	s.byName.Ascend(func(key spareKey) bool {
		out = append(out, s.spares[key.id])
		return true
	})
	return out, nil
}

func (s *Store) AdjustSpareQuantity(ctx context.Context, spareID string, delta int) (models.SparePart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spare, ok := s.spares[spareID]
	if !ok {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	spare.Quantity += delta
	if spare.Quantity < 0 {
		spare.Quantity = 0
	}
	spare.UpdatedAt = s.now()
	s.spares[spareID] = spare
	return spare, nil
}

func (s *Store) AssignCategoryByName(ctx context.Context, spareName, category string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for id, spare := range s.spares {
		if spare.Name != spareName {
			continue
		}
		spare.Category = category
		spare.UpdatedAt = s.now()
		s.spares[id] = spare
		updated++
	}
	return updated, nil
}

func (s *Store) UpsertCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories.ReplaceOrInsert(name)
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.SpareCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SpareCategory, 0, s.categories.Len())
	s.categories.Ascend(func(name string) bool {
		out = append(out, models.SpareCategory{Name: name})
		return true
	})
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func cloneParts(parts []models.UsedPart) []models.UsedPart {
	if parts == nil {
		return nil
	}
	out := make([]models.UsedPart, len(parts))
	copy(out, parts)
	return out
}
