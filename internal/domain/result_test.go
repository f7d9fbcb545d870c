package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestPlaceResultErr(t *testing.T) {
	x := Device{ID: "x", Code: "SW-01", Name: "Core Switch"}
	held := Placement{RackID: "A1", Start: 40, End: 41}

	tests := []struct {
		name   string
		result PlaceResult
		want   error
	}{
		{"device not found", DeviceNotFound("nope"), ErrDeviceNotFound},
		{"rack not found", RackNotFound("Z9"), ErrRackNotFound},
		{"out of bounds", OutOfBounds(NewRack("A1", "", 42), 42, 43), ErrOutOfBounds},
		{"slot conflict", SlotConflict(Placement{RackID: "A1", Start: 41, End: 41}, x, held), ErrSlotConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.OK {
				t.Fatal("expected failed result")
			}
			if err := tt.result.Err(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("ok result has no error", func(t *testing.T) {
		r := Placed(held)
		if !r.OK || r.Err() != nil {
			t.Errorf("expected ok result, got %+v", r)
		}
		if r.Placement == nil || *r.Placement != held {
			t.Errorf("expected placement %+v, got %+v", held, r.Placement)
		}
	})
}

func TestSlotConflictMessage(t *testing.T) {
	other := Device{ID: "x", Code: "SW-01", Name: "Core Switch"}
	r := SlotConflict(Placement{RackID: "A1", Start: 41, End: 41}, other, Placement{RackID: "A1", Start: 40, End: 41})

	if r.Kind != FailureSlotConflict {
		t.Errorf("expected kind %s, got %s", FailureSlotConflict, r.Kind)
	}
	if r.ConflictID != "x" {
		t.Errorf("expected conflict id x, got %s", r.ConflictID)
	}
	for _, part := range []string{"SW-01", "Core Switch", "U40-U41"} {
		if !strings.Contains(r.Message, part) {
			t.Errorf("expected message to contain %q, got %q", part, r.Message)
		}
	}
}
