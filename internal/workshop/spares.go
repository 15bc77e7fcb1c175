package workshop

import (
	"context"
	"strings"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
)

func (s *Service) ListSpares(ctx context.Context, query string) ([]models.SparePart, error) {
	spares, err := s.store.ListSpares(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if spares == nil {
			spares = []models.SparePart{}
		}
		return spares, nil
	}
	matched := make([]models.SparePart, 0, len(spares))
	for _, spare := range spares {
		if strings.Contains(strings.ToLower(spare.Name), query) || strings.Contains(strings.ToLower(spare.Category), query) {
			matched = append(matched, spare)
		}
	}
	return matched, nil
}

func (s *Service) GetSpare(ctx context.Context, spareID string) (models.SparePart, error) {
	spare, found, err := s.store.GetSpare(ctx, spareID)
	if err != nil {
		return models.SparePart{}, err
	}
	if !found {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	return spare, nil
}

func (s *Service) CreateSpare(ctx context.Context, input SpareInput) (models.SparePart, error) {
	spare, err := input.toModel()
	if err != nil {
		return models.SparePart{}, err
	}
	now := s.now().UTC()
	spare.CreatedAt = now
	spare.UpdatedAt = now
	created, err := s.store.CreateSpare(ctx, spare)
	if err != nil {
		return models.SparePart{}, err
	}
	s.publish(EventSpareCreated, created)
	return created, nil
}

func (s *Service) UpdateSpare(ctx context.Context, spareID string, patch SparePatch) (models.SparePart, error) {
	if strings.TrimSpace(spareID) == "" {
		return models.SparePart{}, invalid("id is required")
	}
	spare, err := s.GetSpare(ctx, spareID)
	if err != nil {
		return models.SparePart{}, err
	}
	if err := patch.apply(&spare); err != nil {
		return models.SparePart{}, err
	}
	spare.UpdatedAt = s.now().UTC()
	updated, err := s.store.UpdateSpare(ctx, spare)
	if err != nil {
		return models.SparePart{}, err
	}
	s.publish(EventSpareUpdated, updated)
	return updated, nil
}

func (s *Service) DeleteSpare(ctx context.Context, spareID string) error {
	if strings.TrimSpace(spareID) == "" {
		return invalid("id is required")
	}
	if err := s.store.DeleteSpare(ctx, spareID); err != nil {
		return err
	}
	s.publish(EventSpareDeleted, map[string]string{"_id": spareID})
	return nil
}

// LowStock lists spares whose quantity is at or under the configured
// threshold.
func (s *Service) LowStock(ctx context.Context) ([]models.SparePart, error) {
	spares, err := s.store.ListSpares(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]models.SparePart, 0)
	for _, spare := range spares {
		if spare.LowStock(s.threshold) {
			low = append(low, spare)
		}
	}
	return low, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.SpareCategory, error) {
	return s.store.ListCategories(ctx)
}

// SeedCategories upserts every name and returns how many were written.
func (s *Service) SeedCategories(ctx context.Context, names []string) (int, error) {
	written := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := s.store.UpsertCategory(ctx, name); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// BackfillCategories sets the category of spares by exact name and returns
// the number of spares changed.
func (s *Service) BackfillCategories(ctx context.Context, mapping map[string]string) (int64, error) {
	var total int64
	for name, category := range mapping {
		changed, err := s.store.AssignCategoryByName(ctx, name, category)
		if err != nil {
			return total, err
		}
		total += changed
	}
	return total, nil
}
