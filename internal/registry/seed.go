package registry

import (
	"fmt"

	"rackplan/internal/domain"
)

// DroppedPlacement records a seeded placement that could not be kept
type DroppedPlacement struct {
	DeviceID string       `json:"device_id"`
	Phase    domain.Phase `json:"phase"`
	Reason   string       `json:"reason"`
}

// SeedReport summarizes what Seed repaired
type SeedReport struct {
	Devices    int                `json:"devices"`
	Reassigned int                `json:"reassigned"`
	Dropped    []DroppedPlacement `json:"dropped,omitempty"`
}

// Seed replaces all devices with the records of an external snapshot.
//
// Records are repaired field by field rather than rejected. A missing or
// duplicate id is replaced by a fresh one. Placements are re-derived from
// their rack and start slot and kept only when the rack exists, the range
// fits, and it does not collide with a device seeded earlier.
func (r *Registry) Seed(raw domain.RawSnapshot) SeedReport {
	r.order = r.order[:0]
	r.devices = make(map[string]*domain.Device, len(raw.Devices))

	var report SeedReport
	now := r.now()
	for _, rec := range raw.Devices {
		repaired := domain.RepairRecord(rec, r.capacity)
		d := repaired.Device
		if _, taken := r.devices[d.ID]; d.ID == "" || taken {
			d.ID = r.freshID()
			report.Reassigned++
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = d.CreatedAt
		}
		r.insert(&d)

		r.seedPlacement(&d, domain.PhaseBefore, repaired.Before, &report)
		r.seedPlacement(&d, domain.PhaseAfter, repaired.After, &report)
	}
	report.Devices = len(r.order)
	return report
}

func (r *Registry) seedPlacement(d *domain.Device, phase domain.Phase, raw *domain.RawPlacement, report *SeedReport) {
	if raw == nil {
		return
	}
	drop := func(reason string) {
		report.Dropped = append(report.Dropped, DroppedPlacement{DeviceID: d.ID, Phase: phase, Reason: reason})
	}

	rack, ok := r.Rack(raw.RackID)
	if !ok {
		drop(fmt.Sprintf("rack %s not found", raw.RackID))
		return
	}
	want := span(rack, raw.Start, d.Size)
	if want.End > rack.Capacity {
		drop(fmt.Sprintf("slots U%d-U%d exceed capacity of rack %s", want.Start, want.End, rack.ID))
		return
	}
	if other, _, conflict := r.collision(phase, d.ID, want); conflict {
		drop(fmt.Sprintf("slots U%d-U%d in rack %s collide with %s", want.Start, want.End, rack.ID, other.Code))
		return
	}
	d.SetPlacement(phase, &want)
}
