package domain

import "testing"

func TestClampSlot(t *testing.T) {
	tests := []struct {
		name     string
		u        int
		capacity int
		want     int
	}{
		{"inside range", 10, 42, 10},
		{"lower bound", 1, 42, 1},
		{"upper bound", 42, 42, 42},
		{"zero", 0, 42, 1},
		{"negative", -7, 42, 1},
		{"above capacity", 99, 42, 42},
		{"small rack", 5, 4, 4},
		{"invalid capacity", 3, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampSlot(tt.u, tt.capacity); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRangesOverlap(t *testing.T) {
	tests := []struct {
		name         string
		startA, endA int
		startB, endB int
		want         bool
	}{
		{"disjoint below", 1, 2, 3, 4, false},
		{"disjoint above", 10, 12, 5, 9, false},
		{"touching at one slot", 5, 6, 6, 7, true},
		{"contained", 1, 10, 4, 5, true},
		{"identical", 3, 3, 3, 3, true},
		{"partial", 30, 33, 32, 40, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RangesOverlap(tt.startA, tt.endA, tt.startB, tt.endB); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			// overlap is symmetric
			if got := RangesOverlap(tt.startB, tt.endB, tt.startA, tt.endA); got != tt.want {
				t.Errorf("expected symmetric result %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewRack(t *testing.T) {
	t.Run("keeps explicit values", func(t *testing.T) {
		r := NewRack("A1", "Rack A1", 24)
		if r.ID != "A1" || r.Name != "Rack A1" || r.Capacity != 24 {
			t.Errorf("unexpected rack %+v", r)
		}
	})

	t.Run("defaults capacity and name", func(t *testing.T) {
		r := NewRack("B2", "", 0)
		if r.Capacity != DefaultCapacity {
			t.Errorf("expected capacity %d, got %d", DefaultCapacity, r.Capacity)
		}
		if r.Name != "B2" {
			t.Errorf("expected name to fall back to id, got %s", r.Name)
		}
	})

	t.Run("default catalog", func(t *testing.T) {
		racks := DefaultCatalog(42)
		if len(racks) != 12 {
			t.Fatalf("expected 12 racks, got %d", len(racks))
		}
		if racks[0].ID != "A1" || racks[11].ID != "B6" {
			t.Errorf("unexpected catalog order: first %s, last %s", racks[0].ID, racks[11].ID)
		}
	})
}
