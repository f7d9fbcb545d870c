package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRepairRecord(t *testing.T) {
	t.Run("empty record gets defaults", func(t *testing.T) {
		r := RepairRecord(Record{}, 42)

		if r.Device.Category != CategoryOther {
			t.Errorf("expected category Other, got %s", r.Device.Category)
		}
		if r.Device.Size != 1 {
			t.Errorf("expected size 1, got %d", r.Device.Size)
		}
		if r.Device.Status != (MigrationStatus{}) {
			t.Errorf("expected all flags false, got %+v", r.Device.Status)
		}
		if r.Before != nil || r.After != nil {
			t.Error("expected no placements")
		}
	})

	t.Run("well formed record", func(t *testing.T) {
		rec := Record{
			"id":       "d1",
			"category": "Network",
			"code":     "SW-01",
			"name":     "Core Switch",
			"ports":    float64(48),
			"size":     float64(2),
			"status":   map[string]any{"mounted": true, "tested": true},
			"before":   map[string]any{"rack_id": "A1", "start": float64(40), "end": float64(41)},
		}
		r := RepairRecord(rec, 42)

		if r.Device.ID != "d1" || r.Device.Category != CategoryNetwork || r.Device.Code != "SW-01" {
			t.Errorf("unexpected device %+v", r.Device)
		}
		if r.Device.Ports != 48 || r.Device.Size != 2 {
			t.Errorf("expected ports 48 size 2, got %d %d", r.Device.Ports, r.Device.Size)
		}
		if !r.Device.Status.Mounted || !r.Device.Status.Tested || r.Device.Status.Cabled {
			t.Errorf("unexpected status %+v", r.Device.Status)
		}
		if r.Before == nil || r.Before.RackID != "A1" || r.Before.Start != 40 {
			t.Errorf("unexpected before placement %+v", r.Before)
		}
	})

	t.Run("malformed fields", func(t *testing.T) {
		rec := Record{
			"category": 7,
			"size":     "huge",
			"ports":    float64(-3),
			"status":   map[string]any{"mounted": "yes", "cabled": 1, "powered": "true"},
			"after":    map[string]any{"rack_id": "B1"},
		}
		r := RepairRecord(rec, 42)

		if r.Device.Category != CategoryOther {
			t.Errorf("expected category Other, got %s", r.Device.Category)
		}
		if r.Device.Size != 1 {
			t.Errorf("expected size 1, got %d", r.Device.Size)
		}
		if r.Device.Ports != 0 {
			t.Errorf("expected ports 0, got %d", r.Device.Ports)
		}
		if r.Device.Status.Mounted || r.Device.Status.Cabled {
			t.Errorf("expected non-boolean flags to be false, got %+v", r.Device.Status)
		}
		if !r.Device.Status.Powered {
			t.Error("expected string \"true\" to parse as true")
		}
		if r.After != nil {
			t.Errorf("expected placement without start to be dropped, got %+v", r.After)
		}
	})

	t.Run("size is clamped", func(t *testing.T) {
		if r := RepairRecord(Record{"size": float64(99)}, 42); r.Device.Size != 42 {
			t.Errorf("expected size 42, got %d", r.Device.Size)
		}
		if r := RepairRecord(Record{"size": float64(0)}, 42); r.Device.Size != 1 {
			t.Errorf("expected size 1, got %d", r.Device.Size)
		}
	})

	t.Run("top level flags", func(t *testing.T) {
		r := RepairRecord(Record{"cabled": true}, 42)
		if !r.Device.Status.Cabled {
			t.Error("expected top level cabled flag to be honoured")
		}
	})

	t.Run("json numbers", func(t *testing.T) {
		var rec Record
		dec := json.NewDecoder(strings.NewReader(`{"size": 3, "before": {"rack_id": "A2", "start": 7}}`))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		r := RepairRecord(rec, 42)
		if r.Device.Size != 3 || r.Before == nil || r.Before.Start != 7 {
			t.Errorf("unexpected repair %+v before %+v", r.Device, r.Before)
		}
	})
}
