package domain

import "fmt"

// Rack is a numbered enclosure offering a fixed number of vertical slots.
// Racks are reference data: they are created once from the catalog and
// never mutated afterwards.
type Rack struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// NewRack creates a rack, falling back to DefaultCapacity for non-positive capacities
func NewRack(id, name string, capacity int) Rack {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if name == "" {
		name = id
	}
	return Rack{ID: id, Name: name, Capacity: capacity}
}

// ClampSlot clamps u into this rack's slot range
func (r Rack) ClampSlot(u int) int {
	return ClampSlot(u, r.Capacity)
}

// DefaultCatalog returns the rack catalog used when configuration lists none:
// two rows (A and B) of six racks each.
func DefaultCatalog(capacity int) []Rack {
	racks := make([]Rack, 0, 12)
	for _, row := range []string{"A", "B"} {
		for n := 1; n <= 6; n++ {
			id := fmt.Sprintf("%s%d", row, n)
			racks = append(racks, NewRack(id, "Rack "+id, capacity))
		}
	}
	return racks
}
