// Package inventory turns the parts a service request consumes into stock
// movements on the spares collection.
package inventory

import (
	"sort"
	"strings"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
)

// PartKey identifies a spare by id, by name, or by both. The name is kept next
// to the id so a stale id can still be resolved by name.
type PartKey struct {
	SpareID string
	Name    string
}

func (k PartKey) String() string {
	if k.SpareID != "" {
		return k.SpareID
	}
	return k.Name
}

func keyFor(part models.UsedPart) (PartKey, bool) {
	key := PartKey{
		SpareID: strings.TrimSpace(part.SpareID),
		Name:    strings.TrimSpace(part.Name),
	}
	return key, key.SpareID != "" || key.Name != ""
}

// Usage collapses the parts a request consumes into quantities per part. The
// legacy single sparePartName counts as one unit when no part list is set.
func Usage(req *models.ServiceRequest) map[PartKey]int {
	usage := make(map[PartKey]int)
	if req == nil {
		return usage
	}
	if len(req.SpareParts) == 0 {
		if name := strings.TrimSpace(req.SparePartName); name != "" {
			usage[PartKey{Name: name}] = 1
		}
		return usage
	}
	for _, part := range req.SpareParts {
		key, ok := keyFor(part)
		if !ok {
			continue
		}
		qty := part.Quantity
		if qty <= 0 {
			qty = 1
		}
		usage[key] += qty
	}
	return usage
}

// Diff returns the stock movement needed to go from the consumption of
// before to the consumption of after. Positive values restock, negative
// values consume. A nil side means the request does not exist.
func Diff(before, after *models.ServiceRequest) map[PartKey]int {
	deltas := make(map[PartKey]int)
	for key, qty := range Usage(before) {
		deltas[key] += qty
	}
	for key, qty := range Usage(after) {
		deltas[key] -= qty
	}
	for key, delta := range deltas {
		if delta == 0 {
			delete(deltas, key)
		}
	}
	return deltas
}

type movement struct {
	key   PartKey
	delta int
}

// ordered puts restocks before consumption so a part swapped within one edit
// never reports a false shortfall.
func ordered(deltas map[PartKey]int) []movement {
	out := make([]movement, 0, len(deltas))
	for key, delta := range deltas {
		out = append(out, movement{key: key, delta: delta})
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].delta > 0) != (out[j].delta > 0) {
			return out[i].delta > 0
		}
		if a, b := out[i].key.String(), out[j].key.String(); a != b {
			return a < b
		}
		return out[i].key.Name < out[j].key.Name
	})
	return out
}
