package domain

import "testing"

func placed(id, code string, cat Category, rack string, start, end int) Device {
	return Device{
		ID:       id,
		Code:     code,
		Category: cat,
		Size:     end - start + 1,
		Before:   &Placement{RackID: rack, Start: start, End: end},
	}
}

func testDevices() []Device {
	complete := placed("c", "SRV-02", CategoryServer, "A2", 1, 2)
	complete.Status = MigrationStatus{Mounted: true, Cabled: true, Powered: true, Tested: true}
	complete.After = &Placement{RackID: "B1", Start: 10, End: 11}

	return []Device{
		placed("a", "SW-01", CategoryNetwork, "A1", 20, 21),
		placed("b", "SRV-01", CategoryServer, "A1", 5, 8),
		complete,
		{ID: "d", Code: "NAS-01", Category: CategoryStorage, Size: 2},
	}
}

func TestCountByCategory(t *testing.T) {
	counts := CountByCategory(testDevices())

	want := map[Category]int{
		CategoryNetwork: 1,
		CategoryStorage: 1,
		CategoryServer:  2,
		CategoryOther:   0,
	}
	for c, n := range want {
		got, ok := counts[c]
		if !ok {
			t.Errorf("expected category %s present", c)
		}
		if got != n {
			t.Errorf("expected %d %s devices, got %d", n, c, got)
		}
	}
}

func TestCountPlacedAndComplete(t *testing.T) {
	devices := testDevices()

	if got := CountPlaced(devices, PhaseBefore); got != 3 {
		t.Errorf("expected 3 placed before, got %d", got)
	}
	if got := CountPlaced(devices, PhaseAfter); got != 1 {
		t.Errorf("expected 1 placed after, got %d", got)
	}
	if got := CountComplete(devices); got != 1 {
		t.Errorf("expected 1 complete, got %d", got)
	}
}

func TestUnplaced(t *testing.T) {
	devices := testDevices()

	t.Run("before phase", func(t *testing.T) {
		got := Unplaced(devices, PhaseBefore)
		if len(got) != 1 || got[0].ID != "d" {
			t.Errorf("expected [d], got %v", ids(got))
		}
	})

	t.Run("after phase keeps insertion order", func(t *testing.T) {
		got := ids(Unplaced(devices, PhaseAfter))
		want := []string{"a", "b", "d"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("empty input gives empty slice", func(t *testing.T) {
		got := Unplaced(nil, PhaseBefore)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})
}

func TestRackOccupants(t *testing.T) {
	got := ids(RackOccupants(testDevices(), "A1", PhaseBefore))
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("expected [b a] ordered by start, got %v", got)
	}

	if n := len(RackOccupants(testDevices(), "A1", PhaseAfter)); n != 0 {
		t.Errorf("expected no after occupants, got %d", n)
	}
}

func TestDeviceAtSlot(t *testing.T) {
	devices := testDevices()

	tests := []struct {
		slot   int
		wantID string
	}{
		{5, "b"},
		{8, "b"},
		{9, ""},
		{21, "a"},
		{42, ""},
	}
	for _, tt := range tests {
		d, ok := DeviceAtSlot(devices, "A1", PhaseBefore, tt.slot)
		if tt.wantID == "" {
			if ok {
				t.Errorf("slot %d: expected empty, got %s", tt.slot, d.ID)
			}
			continue
		}
		if !ok || d.ID != tt.wantID {
			t.Errorf("slot %d: expected %s, got %s", tt.slot, tt.wantID, d.ID)
		}
	}
}

func TestRackLayout(t *testing.T) {
	rack := NewRack("A1", "", 42)
	rows := RackLayout(testDevices(), rack, PhaseBefore)

	if len(rows) != 42 {
		t.Fatalf("expected 42 rows, got %d", len(rows))
	}
	if rows[0].Slot != 42 || rows[41].Slot != 1 {
		t.Errorf("expected rows from 42 down to 1, got %d..%d", rows[0].Slot, rows[41].Slot)
	}

	// slot n sits at index 42-n
	top := rows[42-21]
	if top.DeviceID != "a" || !top.Top {
		t.Errorf("expected slot 21 to be top of a, got %+v", top)
	}
	bottom := rows[42-20]
	if bottom.DeviceID != "a" || bottom.Top {
		t.Errorf("expected slot 20 to be body of a, got %+v", bottom)
	}
	if rows[42-9].DeviceID != "" {
		t.Errorf("expected slot 9 empty, got %+v", rows[42-9])
	}
}

func TestSummarize(t *testing.T) {
	racks := []Rack{NewRack("A1", "", 42), NewRack("B1", "", 42)}
	s := Summarize(testDevices(), racks)

	if s.Total != 4 || s.Complete != 1 {
		t.Errorf("expected total 4 complete 1, got %d %d", s.Total, s.Complete)
	}
	if s.Placed[PhaseBefore] != 3 || s.Unplaced[PhaseBefore] != 1 {
		t.Errorf("unexpected before counts %d/%d", s.Placed[PhaseBefore], s.Unplaced[PhaseBefore])
	}
	if len(s.Racks) != 4 {
		t.Fatalf("expected usage for 2 racks x 2 phases, got %d", len(s.Racks))
	}

	a1 := s.Racks[0]
	if a1.RackID != "A1" || a1.Phase != PhaseBefore || a1.Used != 6 || a1.Devices != 2 {
		t.Errorf("unexpected A1 usage %+v", a1)
	}
	b1After := s.Racks[3]
	if b1After.RackID != "B1" || b1After.Phase != PhaseAfter || b1After.Used != 2 {
		t.Errorf("unexpected B1 after usage %+v", b1After)
	}
}

func ids(devices []Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}
