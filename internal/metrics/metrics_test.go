package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"rackplan/internal/domain"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Mutation("place")
	m.Mutation("place")
	m.PlacementRejected(domain.FailureSlotConflict)
	m.SinkFailed("mqtt")
	m.RecordHTTPRequest("GET", "/api/summary", 200, 3*time.Millisecond)

	devices := []domain.Device{
		{ID: "a", Size: 2, Before: &domain.Placement{RackID: "A1", Start: 1, End: 2}},
		{ID: "b", Size: 1},
	}
	m.Observe(domain.Summarize(devices, []domain.Rack{domain.NewRack("A1", "", 42)}))

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("place")); got != 2 {
		t.Errorf("expected 2 place mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("SlotConflict")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.devices); got != 2 {
		t.Errorf("expected 2 devices, got %v", got)
	}
	if got := testutil.ToFloat64(m.devicesPlaced.WithLabelValues("before")); got != 1 {
		t.Errorf("expected 1 placed before, got %v", got)
	}
	if got := testutil.ToFloat64(m.slotsUsed.WithLabelValues("A1", "before")); got != 2 {
		t.Errorf("expected 2 slots used, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}
