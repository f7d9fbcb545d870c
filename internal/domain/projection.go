package domain

import "sort"

// Projections are pure functions over a device slice. They are recomputed on
// every call and never cache; occupancy is always derived by scanning devices.

// CountByCategory counts devices per category. Every category is present in
// the result, with zero when no device has it.
func CountByCategory(devices []Device) map[Category]int {
	counts := make(map[Category]int, len(Categories()))
	for _, c := range Categories() {
		counts[c] = 0
	}
	for _, d := range devices {
		counts[d.Category]++
	}
	return counts
}

// CountPlaced counts devices with a placement for the phase
func CountPlaced(devices []Device, phase Phase) int {
	n := 0
	for i := range devices {
		if devices[i].IsPlaced(phase) {
			n++
		}
	}
	return n
}

// CountComplete counts migration-complete devices
func CountComplete(devices []Device) int {
	n := 0
	for _, d := range devices {
		if IsComplete(d) {
			n++
		}
	}
	return n
}

// Unplaced lists devices without a placement for the phase, in input order
func Unplaced(devices []Device, phase Phase) []Device {
	result := make([]Device, 0)
	for i := range devices {
		if !devices[i].IsPlaced(phase) {
			result = append(result, devices[i])
		}
	}
	return result
}

// RackOccupants lists the devices placed in a rack for a phase, ordered by
// start slot ascending
func RackOccupants(devices []Device, rackID string, phase Phase) []Device {
	result := make([]Device, 0)
	for i := range devices {
		p := devices[i].PlacementFor(phase)
		if p != nil && p.RackID == rackID {
			result = append(result, devices[i])
		}
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].PlacementFor(phase).Start < result[b].PlacementFor(phase).Start
	})
	return result
}

// DeviceAtSlot returns the device occupying a slot of a rack for a phase
func DeviceAtSlot(devices []Device, rackID string, phase Phase, slot int) (Device, bool) {
	for i := range devices {
		p := devices[i].PlacementFor(phase)
		if p != nil && p.RackID == rackID && p.Contains(slot) {
			return devices[i], true
		}
	}
	return Device{}, false
}

// SlotRow is one line of a rack elevation
type SlotRow struct {
	Slot     int    `json:"slot"`
	DeviceID string `json:"device_id,omitempty"`
	Code     string `json:"code,omitempty"`
	Name     string `json:"name,omitempty"`
	// Top marks the highest slot of a multi-slot device
	Top bool `json:"top,omitempty"`
}

// RackLayout returns the elevation of a rack for a phase, one row per slot
// from the top (capacity) down to slot 1
func RackLayout(devices []Device, rack Rack, phase Phase) []SlotRow {
	rows := make([]SlotRow, 0, rack.Capacity)
	occupants := RackOccupants(devices, rack.ID, phase)
	for slot := rack.Capacity; slot >= 1; slot-- {
		row := SlotRow{Slot: slot}
		for _, d := range occupants {
			p := d.PlacementFor(phase)
			if p.Contains(slot) {
				row.DeviceID = d.ID
				row.Code = d.Code
				row.Name = d.Name
				row.Top = slot == p.End
				break
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// RackUsage is the slot usage of one rack in one phase
type RackUsage struct {
	RackID   string `json:"rack_id"`
	Phase    Phase  `json:"phase"`
	Used     int    `json:"used"`
	Capacity int    `json:"capacity"`
	Devices  int    `json:"devices"`
}

// Summary aggregates the projections used by dashboards and metrics
type Summary struct {
	Total      int              `json:"total"`
	Complete   int              `json:"complete"`
	Placed     map[Phase]int    `json:"placed"`
	Unplaced   map[Phase]int    `json:"unplaced"`
	ByCategory map[Category]int `json:"by_category"`
	Racks      []RackUsage      `json:"racks"`
}

// Summarize computes a Summary over devices and the rack catalog
func Summarize(devices []Device, racks []Rack) Summary {
	s := Summary{
		Total:      len(devices),
		Complete:   CountComplete(devices),
		Placed:     make(map[Phase]int, 2),
		Unplaced:   make(map[Phase]int, 2),
		ByCategory: CountByCategory(devices),
		Racks:      make([]RackUsage, 0, len(racks)*2),
	}
	for _, phase := range Phases() {
		placed := CountPlaced(devices, phase)
		s.Placed[phase] = placed
		s.Unplaced[phase] = len(devices) - placed
	}
	for _, rack := range racks {
		for _, phase := range Phases() {
			usage := RackUsage{RackID: rack.ID, Phase: phase, Capacity: rack.Capacity}
			for _, d := range RackOccupants(devices, rack.ID, phase) {
				usage.Used += d.PlacementFor(phase).Len()
				usage.Devices++
			}
			s.Racks = append(s.Racks, usage)
		}
	}
	return s
}
