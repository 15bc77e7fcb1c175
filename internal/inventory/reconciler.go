package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"

	"go.uber.org/zap"
)

type PartStore interface {
	GetSpare(ctx context.Context, spareID string) (models.SparePart, bool, error)
	FindSpareByName(ctx context.Context, name string) (models.SparePart, bool, error)
	AdjustSpareQuantity(ctx context.Context, spareID string, delta int) (models.SparePart, error)
}

type Adjustment struct {
	SpareID  string `json:"spareId"`
	Name     string `json:"name"`
	Delta    int    `json:"delta"`
	Quantity int    `json:"quantity"`
}

type Shortfall struct {
	SpareID   string `json:"spareId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type Result struct {
	Adjusted   []Adjustment `json:"adjusted,omitempty"`
	Missing    []string     `json:"missing,omitempty"`
	Shortfalls []Shortfall  `json:"shortfalls,omitempty"`
}

type Reconciler struct {
	parts  PartStore
	logger *zap.Logger
}

func NewReconciler(parts PartStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{parts: parts, logger: logger}
}

// Apply moves stock for every delta. It is best effort: a failing part is
// logged and the remaining parts are still processed.
func (r *Reconciler) Apply(ctx context.Context, deltas map[PartKey]int) (Result, error) {
	var (
		result Result
		errs   []error
	)
	for _, move := range ordered(deltas) {
		spare, found, err := r.resolve(ctx, move.key)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve %s: %w", move.key, err))
			continue
		}
		if !found {
			result.Missing = append(result.Missing, move.key.String())
			r.logger.Warn("spare part not in inventory", zap.String("part", move.key.String()), zap.Int("delta", move.delta))
			continue
		}
		if move.delta < 0 && spare.Quantity < -move.delta {
			result.Shortfalls = append(result.Shortfalls, Shortfall{
				SpareID:   spare.ID,
				Name:      spare.Name,
				Requested: -move.delta,
				Available: spare.Quantity,
			})
			r.logger.Warn("spare part stock short",
				zap.String("spare_id", spare.ID),
				zap.String("name", spare.Name),
				zap.Int("requested", -move.delta),
				zap.Int("available", spare.Quantity))
		}
		updated, err := r.parts.AdjustSpareQuantity(ctx, spare.ID, move.delta)
		if err != nil {
			errs = append(errs, fmt.Errorf("adjust %s: %w", spare.ID, err))
			continue
		}
		result.Adjusted = append(result.Adjusted, Adjustment{
			SpareID:  updated.ID,
			Name:     updated.Name,
			Delta:    move.delta,
			Quantity: updated.Quantity,
		})
	}
	return result, errors.Join(errs...)
}

// resolve looks a part up by id first and falls back to its name when the id
// no longer matches a spare.
func (r *Reconciler) resolve(ctx context.Context, key PartKey) (models.SparePart, bool, error) {
	if key.SpareID != "" {
		spare, found, err := r.parts.GetSpare(ctx, key.SpareID)
		if err != nil || found || key.Name == "" {
			return spare, found, err
		}
		r.logger.Debug("spare id not found, resolving by name",
			zap.String("spare_id", key.SpareID), zap.String("name", key.Name))
	}
	return r.parts.FindSpareByName(ctx, key.Name)
}
