package workshop

import (
	"context"
	"strings"

	"github.com/Fahmy112/Al-Rayan-Service/internal/inventory"
	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"go.uber.org/zap"
)

type ListFilter struct {
	Query  string
	Status string
}

// Mutation is the outcome of a request write together with the stock moves
// it caused.
type Mutation struct {
	Request   models.ServiceRequest `json:"request"`
	Inventory inventory.Result      `json:"inventory"`
}

func (s *Service) CreateRequest(ctx context.Context, input RequestInput) (Mutation, error) {
	req, err := input.toModel()
	if err != nil {
		return Mutation{}, err
	}
	now := s.now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	created, err := s.store.CreateRequest(ctx, req)
	if err != nil {
		return Mutation{}, err
	}
	result := s.reconcile(ctx, created.ID, inventory.Diff(nil, &created))
	s.logger.Info("request created", zap.String("request_id", created.ID), zap.String("status", string(created.Status)))
	s.publish(EventRequestCreated, created)
	return Mutation{Request: created, Inventory: result}, nil
}

func (s *Service) ListRequests(ctx context.Context, filter ListFilter) ([]models.ServiceRequest, error) {
	storeFilter := store.RequestFilter{}
	if filter.Status != "" {
		status, ok := models.ParseStatus(filter.Status)
		if !ok {
			return nil, invalid("unknown status")
		}
		storeFilter.Status = status
	}
	requests, err := s.store.ListRequests(ctx, storeFilter)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query == "" {
		if requests == nil {
			requests = []models.ServiceRequest{}
		}
		return requests, nil
	}
	matched := make([]models.ServiceRequest, 0, len(requests))
	for _, req := range requests {
		if matchesQuery(req, query) {
			matched = append(matched, req)
		}
	}
	return matched, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID string) (models.ServiceRequest, error) {
	req, found, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	if !found {
		return models.ServiceRequest{}, store.ErrRequestNotFound
	}
	return req, nil
}

func (s *Service) UpdateRequest(ctx context.Context, requestID string, patch RequestPatch) (Mutation, error) {
	before, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return Mutation{}, err
	}
	merged := before
	merged.SpareParts = append([]models.UsedPart(nil), before.SpareParts...)
	if err := patch.apply(&merged); err != nil {
		return Mutation{}, err
	}
	merged.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateRequest(ctx, merged)
	if err != nil {
		return Mutation{}, err
	}
	result := s.reconcile(ctx, updated.ID, inventory.Diff(&before, &updated))
	s.publish(EventRequestUpdated, updated)
	return Mutation{Request: updated, Inventory: result}, nil
}

func (s *Service) DeleteRequest(ctx context.Context, requestID string) (inventory.Result, error) {
	before, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return inventory.Result{}, err
	}
	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		return inventory.Result{}, err
	}
	result := s.reconcile(ctx, requestID, inventory.Diff(&before, nil))
	s.logger.Info("request deleted", zap.String("request_id", requestID))
	s.publish(EventRequestDeleted, map[string]string{"_id": requestID})
	return result, nil
}

func matchesQuery(req models.ServiceRequest, query string) bool {
	fields := []string{
		req.CustomerName,
		req.Phone,
		req.CarType,
		req.CarModel,
		req.CarNumber,
		req.Kilometers,
		req.Problem,
		req.Notes,
		req.SparePartName,
	}
	for _, part := range req.SpareParts {
		fields = append(fields, part.Name)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
