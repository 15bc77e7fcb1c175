package inventory

import (
	"testing"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		req  *models.ServiceRequest
		want map[PartKey]int
	}{
		{name: "nil request", req: nil, want: map[PartKey]int{}},
		{
			name: "legacy single part",
			req:  &models.ServiceRequest{SparePartName: " تيل فرامل "},
			want: map[PartKey]int{{Name: "تيل فرامل"}: 1},
		},
		{
			name: "id and name are both kept",
			req: &models.ServiceRequest{SpareParts: []models.UsedPart{
				{SpareID: " a ", Name: " oil ", Quantity: 2},
				{SpareID: "a", Name: "oil"},
			}},
			want: map[PartKey]int{{SpareID: "a", Name: "oil"}: 3},
		},
		{
			name: "part list wins over legacy field",
			req: &models.ServiceRequest{
				SparePartName: "ignored",
				SpareParts: []models.UsedPart{
					{SpareID: "a", Quantity: 2},
					{SpareID: "a", Quantity: 1},
					{Name: "bulb"},
					{},
				},
			},
			want: map[PartKey]int{{SpareID: "a"}: 3, {Name: "bulb"}: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Usage(tt.req)); diff != "" {
				t.Fatalf("usage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	before := &models.ServiceRequest{SpareParts: []models.UsedPart{{SpareID: "a", Quantity: 2}, {SpareID: "b", Quantity: 1}}}
	after := &models.ServiceRequest{SpareParts: []models.UsedPart{{SpareID: "a", Quantity: 3}, {SpareID: "c", Quantity: 1}}}

	tests := []struct {
		name          string
		before, after *models.ServiceRequest
		want          map[PartKey]int
	}{
		{name: "create consumes", before: nil, after: before, want: map[PartKey]int{{SpareID: "a"}: -2, {SpareID: "b"}: -1}},
		{name: "delete restocks", before: before, after: nil, want: map[PartKey]int{{SpareID: "a"}: 2, {SpareID: "b"}: 1}},
		{name: "edit nets out", before: before, after: after, want: map[PartKey]int{{SpareID: "a"}: -1, {SpareID: "b"}: 1, {SpareID: "c"}: -1}},
		{name: "unchanged", before: before, after: before, want: map[PartKey]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Diff(tt.before, tt.after)); diff != "" {
				t.Fatalf("diff mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderedRestocksFirst(t *testing.T) {
	moves := ordered(map[PartKey]int{{SpareID: "a"}: -1, {SpareID: "b"}: 2, {SpareID: "c"}: -3})
	if moves[0].key.SpareID != "b" {
		t.Fatalf("expected restock first, got %+v", moves)
	}
	if moves[1].key.SpareID != "a" || moves[2].key.SpareID != "c" {
		t.Fatalf("unexpected consumption order: %+v", moves)
	}
}
