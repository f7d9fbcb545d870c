package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rackplan/internal/domain"
)

const namespace = "rackplan"

// Metrics holds the engine and HTTP collectors. Gauges mirror the latest
// summary; counters accumulate over the process lifetime.
type Metrics struct {
	devices         prometheus.Gauge
	devicesPlaced   *prometheus.GaugeVec
	devicesComplete prometheus.Gauge
	slotsUsed       *prometheus.GaugeVec
	mutations       *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	sinkFailures    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "devices",
			Help:      "Devices in the registry.",
		}),
		devicesPlaced: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "devices_placed",
			Help:      "Devices with a placement, per phase.",
		}, []string{"phase"}),
		devicesComplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "devices_complete",
			Help:      "Devices with all four migration flags set.",
		}),
		slotsUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rack_slots_used",
			Help:      "Occupied slots per rack and phase.",
		}, []string{"rack", "phase"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "mutations_total",
			Help:      "Successful engine mutations by operation.",
		}, []string{"op"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "placement_rejections_total",
			Help:      "Rejected placement requests by failure kind.",
		}, []string{"kind"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "failures_total",
			Help:      "Snapshot emissions that failed, by sink.",
		}, []string{"sink"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		m.devices, m.devicesPlaced, m.devicesComplete, m.slotsUsed,
		m.mutations, m.rejections, m.sinkFailures,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Mutation counts a successful engine mutation
func (m *Metrics) Mutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// PlacementRejected counts a failed placement
func (m *Metrics) PlacementRejected(kind domain.FailureKind) {
	m.rejections.WithLabelValues(string(kind)).Inc()
}

// SinkFailed counts a failed snapshot emission
func (m *Metrics) SinkFailed(sink string) {
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// Observe updates the gauges from a summary
func (m *Metrics) Observe(s domain.Summary) {
	m.devices.Set(float64(s.Total))
	m.devicesComplete.Set(float64(s.Complete))
	for phase, n := range s.Placed {
		m.devicesPlaced.WithLabelValues(string(phase)).Set(float64(n))
	}
	for _, u := range s.Racks {
		m.slotsUsed.WithLabelValues(u.RackID, string(u.Phase)).Set(float64(u.Used))
	}
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
