package registry

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"rackplan/internal/domain"
)

func TestPlace(t *testing.T) {
	t.Run("range length equals size", func(t *testing.T) {
		r := newTestRegistry(t)
		for size := 1; size <= 5; size++ {
			id := addDevice(t, r, "D", size)
			res := r.Place(domain.PhaseBefore, id, "A2", size*6)
			if !res.OK {
				t.Fatalf("size %d: unexpected failure %s", size, res.Message)
			}
			if res.Placement.Len() != size {
				t.Errorf("size %d: expected length %d, got %d", size, size, res.Placement.Len())
			}
		}
	})

	t.Run("start is clamped", func(t *testing.T) {
		r := newTestRegistry(t)
		id := addDevice(t, r, "D", 1)
		res := r.Place(domain.PhaseBefore, id, "A1", -5)
		if !res.OK || res.Placement.Start != 1 {
			t.Errorf("expected clamp to slot 1, got %+v", res)
		}
		res = r.Place(domain.PhaseAfter, id, "A1", 500)
		if !res.OK || res.Placement.Start != 42 {
			t.Errorf("expected clamp to slot 42, got %+v", res)
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		r := newTestRegistry(t)
		res := r.Place(domain.PhaseBefore, "nope", "A1", 1)
		if res.OK || res.Kind != domain.FailureDeviceNotFound {
			t.Errorf("expected DeviceNotFound, got %+v", res)
		}
	})

	t.Run("unknown rack", func(t *testing.T) {
		r := newTestRegistry(t)
		id := addDevice(t, r, "D", 1)
		res := r.Place(domain.PhaseBefore, id, "Z9", 1)
		if res.OK || res.Kind != domain.FailureRackNotFound {
			t.Errorf("expected RackNotFound, got %+v", res)
		}
	})

	t.Run("overhang fails and leaves placement unchanged", func(t *testing.T) {
		r := newTestRegistry(t)
		id := addDevice(t, r, "D", 3)
		r.Place(domain.PhaseBefore, id, "A1", 10)

		res := r.Place(domain.PhaseBefore, id, "A1", 41)
		if res.OK || res.Kind != domain.FailureOutOfBounds {
			t.Fatalf("expected OutOfBounds, got %+v", res)
		}
		d, _ := r.Lookup(id)
		if d.Before == nil || d.Before.Start != 10 || d.Before.End != 12 {
			t.Errorf("expected placement [10,12] kept, got %+v", d.Before)
		}
	})

	t.Run("touching ranges conflict", func(t *testing.T) {
		r := newTestRegistry(t)
		a := addDevice(t, r, "SW-A", 2)
		b := addDevice(t, r, "SW-B", 2)

		if res := r.Place(domain.PhaseBefore, a, "A1", 5); !res.OK {
			t.Fatalf("unexpected failure %s", res.Message)
		}
		res := r.Place(domain.PhaseBefore, b, "A1", 6)
		if res.OK || res.Kind != domain.FailureSlotConflict {
			t.Fatalf("expected SlotConflict, got %+v", res)
		}
		if res.ConflictID != a {
			t.Errorf("expected conflict with %s, got %s", a, res.ConflictID)
		}
		if !strings.Contains(res.Message, "SW-A") || !strings.Contains(res.Message, "SW-A name") {
			t.Errorf("expected message to name SW-A, got %q", res.Message)
		}
		if d, _ := r.Lookup(b); d.Before != nil {
			t.Errorf("expected B to remain unplaced, got %+v", d.Before)
		}
	})

	t.Run("phases and racks are independent", func(t *testing.T) {
		r := newTestRegistry(t)
		a := addDevice(t, r, "A", 2)
		b := addDevice(t, r, "B", 2)
		r.Place(domain.PhaseBefore, a, "A1", 5)

		if res := r.Place(domain.PhaseAfter, b, "A1", 5); !res.OK {
			t.Errorf("expected other phase to be free, got %s", res.Message)
		}
		if res := r.Place(domain.PhaseBefore, b, "A2", 5); !res.OK {
			t.Errorf("expected other rack to be free, got %s", res.Message)
		}
	})

	t.Run("device does not conflict with itself", func(t *testing.T) {
		r := newTestRegistry(t)
		id := addDevice(t, r, "D", 4)
		r.Place(domain.PhaseBefore, id, "A1", 10)

		res := r.Place(domain.PhaseBefore, id, "A1", 11)
		if !res.OK {
			t.Fatalf("expected shift onto own range to succeed, got %s", res.Message)
		}
	})

	t.Run("move replaces prior range", func(t *testing.T) {
		r := newTestRegistry(t)
		a := addDevice(t, r, "A", 2)
		b := addDevice(t, r, "B", 2)
		r.Place(domain.PhaseBefore, a, "A1", 5)

		if res := r.Place(domain.PhaseBefore, a, "A2", 20); !res.OK {
			t.Fatalf("unexpected failure %s", res.Message)
		}
		d, _ := r.Lookup(a)
		if d.Before.RackID != "A2" || d.Before.Start != 20 || d.Before.End != 21 {
			t.Errorf("expected A2 [20,21], got %+v", d.Before)
		}
		if res := r.Place(domain.PhaseBefore, b, "A1", 5); !res.OK {
			t.Errorf("expected old range to be free, got %s", res.Message)
		}
	})
}

func newSmallRackRegistry(t *testing.T) *Registry {
	t.Helper()
	return New([]domain.Rack{
		domain.NewRack("S1", "Rack S1", 24),
		domain.NewRack("A1", "Rack A1", 42),
	}, WithCapacity(42))
}

func TestPlaceSmallRack(t *testing.T) {
	t.Run("device taller than the rack is out of bounds", func(t *testing.T) {
		r := newSmallRackRegistry(t)
		id := addDevice(t, r, "CHASSIS", 30)

		res := r.Place(domain.PhaseBefore, id, "S1", 1)
		if res.OK || res.Kind != domain.FailureOutOfBounds {
			t.Fatalf("expected OutOfBounds, got %+v", res)
		}
		if d, _ := r.Lookup(id); d.Before != nil {
			t.Errorf("expected device to stay unplaced, got %+v", d.Before)
		}
		if res := r.Place(domain.PhaseBefore, id, "A1", 1); !res.OK || res.Placement.Len() != 30 {
			t.Errorf("expected full 30 slots in a 42U rack, got %+v", res)
		}
	})

	t.Run("range keeps the device size", func(t *testing.T) {
		r := newSmallRackRegistry(t)
		id := addDevice(t, r, "SRV", 10)

		res := r.Place(domain.PhaseAfter, id, "S1", 15)
		if !res.OK || res.Placement.End != 24 || res.Placement.Len() != 10 {
			t.Fatalf("expected [15,24], got %+v", res)
		}
		if res := r.Place(domain.PhaseAfter, id, "S1", 16); res.Kind != domain.FailureOutOfBounds {
			t.Errorf("expected OutOfBounds for [16,25], got %+v", res)
		}
	})

	t.Run("growing past a small rack clears the placement", func(t *testing.T) {
		r := newSmallRackRegistry(t)
		id := addDevice(t, r, "SRV", 4)
		r.Place(domain.PhaseBefore, id, "S1", 1)

		size := 30
		cleared, _ := r.UpdateDevice(id, domain.DeviceUpdate{Size: &size})
		if len(cleared) != 1 || cleared[0] != domain.PhaseBefore {
			t.Fatalf("expected before phase cleared, got %v", cleared)
		}
		if d, _ := r.Lookup(id); d.Before != nil || d.Size != 30 {
			t.Errorf("expected size 30 and no placement, got size %d %+v", d.Size, d.Before)
		}
	})

	t.Run("seeding drops a placement taller than the rack", func(t *testing.T) {
		r := newSmallRackRegistry(t)
		report := r.Seed(domain.RawSnapshot{Devices: []domain.Record{{
			"id": "big", "size": float64(30),
			"before": map[string]any{"rack_id": "S1", "start": float64(1)},
		}}})
		if len(report.Dropped) != 1 {
			t.Fatalf("expected one dropped placement, got %+v", report.Dropped)
		}
		if d, _ := r.Lookup("big"); d.Before != nil || d.Size != 30 {
			t.Errorf("expected size 30 and no placement, got size %d %+v", d.Size, d.Before)
		}
	})
}

func TestPlaceInvalidPhase(t *testing.T) {
	r := newTestRegistry(t)
	id := addDevice(t, r, "D", 1)

	res := r.Place(domain.Phase("during"), id, "A1", 1)
	if res.OK || res.Kind != domain.FailureInvalidPhase {
		t.Fatalf("expected InvalidPhase, got %+v", res)
	}
	if !errors.Is(res.Err(), domain.ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", res.Err())
	}
	if d, _ := r.Lookup(id); d.Before != nil || d.After != nil {
		t.Errorf("expected no placement, got %+v %+v", d.Before, d.After)
	}
}

func TestPlaceWorkedExample(t *testing.T) {
	r := newTestRegistry(t)
	x := addDevice(t, r, "X", 2)
	y := addDevice(t, r, "Y", 4)
	z := addDevice(t, r, "Z", 1)

	res := r.Place(domain.PhaseBefore, x, "A1", 40)
	if !res.OK || res.Placement.Start != 40 || res.Placement.End != 41 {
		t.Fatalf("expected X at [40,41], got %+v", res)
	}

	res = r.Place(domain.PhaseBefore, y, "A1", 30)
	if !res.OK || res.Placement.Start != 30 || res.Placement.End != 33 {
		t.Fatalf("expected Y at [30,33], got %+v", res)
	}

	res = r.Place(domain.PhaseBefore, z, "A1", 41)
	if res.OK || res.Kind != domain.FailureSlotConflict || res.ConflictID != x {
		t.Fatalf("expected SlotConflict citing X, got %+v", res)
	}
}

func TestClearPlacement(t *testing.T) {
	r := newTestRegistry(t)
	a := addDevice(t, r, "A", 2)
	addDevice(t, r, "B", 1)

	unplacedBefore := ids(domain.Unplaced(r.Devices(), domain.PhaseBefore))

	r.Place(domain.PhaseBefore, a, "A1", 1)
	r.Place(domain.PhaseAfter, a, "B1", 1)
	if !r.ClearPlacement(domain.PhaseBefore, a) {
		t.Fatal("expected clear to report true")
	}

	got := ids(domain.Unplaced(r.Devices(), domain.PhaseBefore))
	if strings.Join(got, ",") != strings.Join(unplacedBefore, ",") {
		t.Errorf("expected unplaced %v restored, got %v", unplacedBefore, got)
	}
	if d, _ := r.Lookup(a); d.After == nil {
		t.Error("expected after placement untouched")
	}

	if r.ClearPlacement(domain.PhaseBefore, a) {
		t.Error("expected clearing an empty phase to report false")
	}
	if r.ClearPlacement(domain.PhaseBefore, "nope") {
		t.Error("expected clearing an unknown device to report false")
	}
}

// TestPlaceRandomSequences drives random place/clear calls and checks the
// non-overlap and length invariants after every step
func TestPlaceRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rackIDs := []string{"A1", "A2", "B1"}

	for round := 0; round < 20; round++ {
		r := newTestRegistry(t)
		var devices []string
		for i := 0; i < 15; i++ {
			devices = append(devices, addDevice(t, r, "D", 1+rng.Intn(6)))
		}

		for step := 0; step < 300; step++ {
			id := devices[rng.Intn(len(devices))]
			phase := domain.Phases()[rng.Intn(2)]
			if rng.Intn(4) == 0 {
				r.ClearPlacement(phase, id)
			} else {
				before, _ := r.Lookup(id)
				res := r.Place(phase, id, rackIDs[rng.Intn(len(rackIDs))], rng.Intn(46)-2)
				if !res.OK {
					after, _ := r.Lookup(id)
					if !samePlacement(before.PlacementFor(phase), after.PlacementFor(phase)) {
						t.Fatalf("round %d step %d: failed place changed state", round, step)
					}
				}
			}
			checkInvariants(t, r)
		}
	}
}

func checkInvariants(t *testing.T, r *Registry) {
	t.Helper()
	devices := r.Devices()
	for _, rack := range r.Racks() {
		for _, phase := range domain.Phases() {
			occ := domain.RackOccupants(devices, rack.ID, phase)
			for i := range occ {
				p := occ[i].PlacementFor(phase)
				if p.Start < 1 || p.End > rack.Capacity {
					t.Fatalf("%s out of bounds in %s/%s: %+v", occ[i].ID, rack.ID, phase, p)
				}
				if p.Len() != domain.ClampSlot(occ[i].Size, rack.Capacity) {
					t.Fatalf("%s length %d does not match size %d", occ[i].ID, p.Len(), occ[i].Size)
				}
				for j := i + 1; j < len(occ); j++ {
					if p.Overlaps(*occ[j].PlacementFor(phase)) {
						t.Fatalf("%s and %s overlap in %s/%s", occ[i].ID, occ[j].ID, rack.ID, phase)
					}
				}
			}
		}
	}
}

func samePlacement(a, b *domain.Placement) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ids(devices []domain.Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}
