package registry

import "rackplan/internal/domain"

// Place validates and commits the placement of a device for a phase.
//
// The start slot is clamped to [1, capacity] and the end slot derived from
// the device size. A range running past the top of the rack fails with
// OutOfBounds; there is no auto-shift. A range touching any other device in
// the same rack and phase fails with SlotConflict naming that device. On
// success any prior placement for the phase is replaced, which is how a
// placed device is moved. Failures leave the registry unchanged.
//
// An unknown phase is rejected with ErrUnknownPhase before any lookup.
func (r *Registry) Place(phase domain.Phase, deviceID, rackID string, start int) domain.PlaceResult {
	if _, err := domain.ParsePhase(string(phase)); err != nil {
		return domain.InvalidPhase(phase)
	}
	d, ok := r.devices[deviceID]
	if !ok {
		return domain.DeviceNotFound(deviceID)
	}
	rack, ok := r.Rack(rackID)
	if !ok {
		return domain.RackNotFound(rackID)
	}

	want := span(rack, start, d.Size)
	if want.End > rack.Capacity {
		return domain.OutOfBounds(rack, want.Start, want.End)
	}
	if other, held, conflict := r.collision(phase, deviceID, want); conflict {
		return domain.SlotConflict(want, *other, held)
	}

	d.SetPlacement(phase, &want)
	d.UpdatedAt = r.now()
	return domain.Placed(want)
}

// ClearPlacement removes the placement of a device for one phase. It never
// fails and reports whether a placement was removed.
func (r *Registry) ClearPlacement(phase domain.Phase, deviceID string) bool {
	d, ok := r.devices[deviceID]
	if !ok || !d.IsPlaced(phase) {
		return false
	}
	d.SetPlacement(phase, nil)
	d.UpdatedAt = r.now()
	return true
}

// span computes the placement of a device of the given size starting at
// start. Only the start is clamped to the rack; the length is always the
// device size, so End may exceed capacity.
func span(rack domain.Rack, start, size int) domain.Placement {
	s := rack.ClampSlot(start)
	return domain.Placement{
		RackID: rack.ID,
		Start:  s,
		End:    s + max(size, 1) - 1,
	}
}

// collision scans every device except self, in insertion order, for a
// placement in the same rack and phase overlapping want. The first hit is
// returned along with the range it holds.
func (r *Registry) collision(phase domain.Phase, self string, want domain.Placement) (*domain.Device, domain.Placement, bool) {
	for _, id := range r.order {
		if id == self {
			continue
		}
		other := r.devices[id]
		held := other.PlacementFor(phase)
		if held != nil && held.Overlaps(want) {
			return other, *held, true
		}
	}
	return nil, domain.Placement{}, false
}
