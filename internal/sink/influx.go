package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"rackplan/internal/domain"
)

const progressMeasurement = "migration_progress"

// pointWriter is the subset of api.WriteAPIBlocking the sink needs
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxConfig configures the InfluxDB sink
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Influx records migration progress as a time series: one point per snapshot
// plus one point per rack and phase with its slot usage
type Influx struct {
	writer pointWriter
	client influxdb2.Client
}

// DialInflux connects to an InfluxDB server and verifies it with a ping
func DialInflux(ctx context.Context, cfg InfluxConfig) (*Influx, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb ping: server not healthy")
	}
	return &Influx{
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		client: client,
	}, nil
}

// NewInflux creates a sink over an existing writer
func NewInflux(writer pointWriter) *Influx {
	return &Influx{writer: writer}
}

// Name implements Sink
func (i *Influx) Name() string { return "influxdb" }

// Emit implements Sink
func (i *Influx) Emit(ctx context.Context, snap domain.Snapshot) error {
	if err := i.writer.WritePoint(ctx, progressPoints(snap)...); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

func progressPoints(snap domain.Snapshot) []*write.Point {
	s := domain.Summarize(snap.Devices, snap.Racks)

	points := make([]*write.Point, 0, 1+len(s.Racks))
	points = append(points, write.NewPoint(
		progressMeasurement,
		map[string]string{"scope": "total"},
		map[string]interface{}{
			"seq":           int64(snap.Seq),
			"total":         s.Total,
			"complete":      s.Complete,
			"placed_before": s.Placed[domain.PhaseBefore],
			"placed_after":  s.Placed[domain.PhaseAfter],
		},
		snap.TakenAt,
	))
	for _, u := range s.Racks {
		points = append(points, write.NewPoint(
			progressMeasurement,
			map[string]string{"scope": "rack", "rack": u.RackID, "phase": string(u.Phase)},
			map[string]interface{}{
				"used":     u.Used,
				"capacity": u.Capacity,
				"devices":  u.Devices,
			},
			snap.TakenAt,
		))
	}
	return points
}

// Close closes the client when the sink owns it
func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}
