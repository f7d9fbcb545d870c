package domain

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Network", CategoryNetwork},
		{"storage", CategoryStorage},
		{" SERVER ", CategoryServer},
		{"Other", CategoryOther},
		{"", CategoryOther},
		{"toaster", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCategory(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParsePhase(t *testing.T) {
	t.Run("known phases", func(t *testing.T) {
		for _, s := range []string{"before", "After", " BEFORE "} {
			if _, err := ParsePhase(s); err != nil {
				t.Errorf("expected %q to parse, got %v", s, err)
			}
		}
	})

	t.Run("unknown phase", func(t *testing.T) {
		_, err := ParsePhase("during")
		if !errors.Is(err, ErrUnknownPhase) {
			t.Errorf("expected ErrUnknownPhase, got %v", err)
		}
	})
}

func TestParseFlag(t *testing.T) {
	for _, f := range Flags() {
		got, err := ParseFlag(string(f))
		if err != nil || got != f {
			t.Errorf("expected %s, got %s (%v)", f, got, err)
		}
	}
	if _, err := ParseFlag("labelled"); !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestPlacement(t *testing.T) {
	p := Placement{RackID: "A1", Start: 5, End: 6}

	if p.Len() != 2 {
		t.Errorf("expected length 2, got %d", p.Len())
	}
	if !p.Contains(5) || !p.Contains(6) || p.Contains(7) {
		t.Error("unexpected Contains result")
	}
	if !p.Overlaps(Placement{RackID: "A1", Start: 6, End: 7}) {
		t.Error("expected touching ranges to overlap")
	}
	if p.Overlaps(Placement{RackID: "A2", Start: 5, End: 6}) {
		t.Error("expected ranges in different racks not to overlap")
	}
}

func TestMigrationStatus(t *testing.T) {
	t.Run("complete only when all flags set", func(t *testing.T) {
		var s MigrationStatus
		for i, f := range Flags() {
			if s.Complete() {
				t.Fatalf("expected incomplete after %d flags", i)
			}
			if err := s.Set(f, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if !s.Complete() {
			t.Error("expected complete after all flags set")
		}

		_ = s.Set(FlagCabled, false)
		if s.Complete() {
			t.Error("expected incomplete after clearing a flag")
		}
	})

	t.Run("flag order does not matter", func(t *testing.T) {
		var forward, reverse MigrationStatus
		flags := Flags()
		for i := range flags {
			_ = forward.Set(flags[i], true)
			_ = reverse.Set(flags[len(flags)-1-i], true)
		}
		if forward != reverse {
			t.Errorf("expected %+v, got %+v", forward, reverse)
		}
	})

	t.Run("get mirrors set", func(t *testing.T) {
		var s MigrationStatus
		_ = s.Set(FlagPowered, true)
		if !s.Get(FlagPowered) || s.Get(FlagTested) {
			t.Errorf("unexpected flags %+v", s)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		var s MigrationStatus
		if err := s.Set(Flag("labelled"), true); !errors.Is(err, ErrUnknownFlag) {
			t.Errorf("expected ErrUnknownFlag, got %v", err)
		}
		if s != (MigrationStatus{}) {
			t.Errorf("expected status untouched, got %+v", s)
		}
	})
}

func TestDeviceClone(t *testing.T) {
	d := Device{ID: "d1", Before: &Placement{RackID: "A1", Start: 1, End: 2}}
	c := d.Clone()
	c.Before.Start = 10

	if d.Before.Start != 1 {
		t.Errorf("expected original placement untouched, got start %d", d.Before.Start)
	}
	if c.After != nil {
		t.Error("expected nil after placement to stay nil")
	}
}

func TestDevicePlacementFor(t *testing.T) {
	var d Device
	d.SetPlacement(PhaseAfter, &Placement{RackID: "B1", Start: 3, End: 3})

	if d.IsPlaced(PhaseBefore) {
		t.Error("expected before phase unplaced")
	}
	if !d.IsPlaced(PhaseAfter) {
		t.Error("expected after phase placed")
	}

	d.SetPlacement(PhaseAfter, nil)
	if d.IsPlaced(PhaseAfter) {
		t.Error("expected after phase cleared")
	}
}

func TestDeviceUpdateIsEmpty(t *testing.T) {
	if !(DeviceUpdate{}).IsEmpty() {
		t.Error("expected zero update to be empty")
	}
	name := "core switch"
	if (DeviceUpdate{Name: &name}).IsEmpty() {
		t.Error("expected update with a name not to be empty")
	}
}
