package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rackplan/internal/domain"
	"rackplan/internal/registry"
	"rackplan/internal/sink"
)

// ErrFlagsLocked is returned by SetFlag when the after-placement policy is
// enabled and the device has no after placement
var ErrFlagsLocked = errors.New("service: migration flags require an after placement")

// Recorder receives engine measurements
type Recorder interface {
	Mutation(op string)
	PlacementRejected(kind domain.FailureKind)
	SinkFailed(sink string)
	Observe(summary domain.Summary)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string)                      {}
func (nopRecorder) PlacementRejected(domain.FailureKind) {}
func (nopRecorder) SinkFailed(string)                    {}
func (nopRecorder) Observe(domain.Summary)               {}

// Option configures a Planner
type Option func(*Planner)

// WithSink sets the sink receiving a snapshot after every mutation
func WithSink(s sink.Sink) Option {
	return func(p *Planner) {
		p.sink = s
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Planner) {
		p.log = logger.With().Str("component", "planner").Logger()
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(p *Planner) {
		if r != nil {
			p.rec = r
		}
	}
}

// WithRequireAfterPlacement restricts migration flag changes to devices with
// an after placement
func WithRequireAfterPlacement(enabled bool) Option {
	return func(p *Planner) {
		p.requireAfter = enabled
	}
}

// DefaultEmitTimeout bounds how long a mutation waits on its sink
const DefaultEmitTimeout = 10 * time.Second

// WithEmitTimeout sets the deadline for emitting one snapshot
func WithEmitTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.emitTimeout = d
		}
	}
}

// WithClock replaces the time source used for snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// Planner is the single owner of the device registry. Every operation runs
// under one lock, so each is observed whole. After a successful mutation the
// planner emits a full snapshot to its sink, publishes an event and updates
// metrics, all before releasing the lock so snapshot order matches mutation
// order. Sink failures are logged and counted; they never undo a mutation.
type Planner struct {
	mu  sync.RWMutex
	reg *registry.Registry
	seq uint64

	sink         sink.Sink
	bus          *EventBus
	log          zerolog.Logger
	rec          Recorder
	requireAfter bool
	emitTimeout  time.Duration
	now          func() time.Time
}

// NewPlanner creates a planner over reg. bus may be nil.
func NewPlanner(reg *registry.Registry, bus *EventBus, opts ...Option) *Planner {
	p := &Planner{
		reg:         reg,
		bus:         bus,
		sink:        sink.NewMulti(),
		log:         zerolog.Nop(),
		rec:         nopRecorder{},
		emitTimeout: DefaultEmitTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddDevice creates a device from draft and returns it
func (p *Planner) AddDevice(ctx context.Context, draft domain.DeviceDraft) domain.Device {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.reg.AddDevice(draft)
	d, _ := p.reg.Lookup(id)
	p.log.Info().Str("device_id", id).Str("code", d.Code).Msg("device added")
	p.commit(ctx, "add_device", EventDeviceAdded, d)
	return d
}

// UpdateDevice merges u into a device. Unknown ids are a silent no-op and
// report false.
func (p *Planner) UpdateDevice(ctx context.Context, id string, u domain.DeviceUpdate) (domain.Device, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cleared, ok := p.reg.UpdateDevice(id, u)
	if !ok {
		p.log.Debug().Str("device_id", id).Msg("update of unknown device ignored")
		return domain.Device{}, false
	}
	for _, phase := range cleared {
		p.log.Warn().Str("device_id", id).Str("phase", string(phase)).
			Msg("placement cleared after size change")
	}
	d, _ := p.reg.Lookup(id)
	p.commit(ctx, "update_device", EventDeviceUpdated, d)
	return d, true
}

// DeleteDevice removes a device. Unknown ids are a silent no-op and report
// false.
func (p *Planner) DeleteDevice(ctx context.Context, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.reg.DeleteDevice(id) {
		return false
	}
	p.log.Info().Str("device_id", id).Msg("device deleted")
	p.commit(ctx, "delete_device", EventDeviceDeleted, map[string]string{"device_id": id})
	return true
}

// PlacementChange is the payload of placement events
type PlacementChange struct {
	DeviceID  string            `json:"device_id"`
	Phase     domain.Phase      `json:"phase"`
	Placement *domain.Placement `json:"placement,omitempty"`
}

// Place places a device for a phase. Rejections are reported in the result,
// never as an error; the error is only for an invalid phase.
func (p *Planner) Place(ctx context.Context, phase domain.Phase, deviceID, rackID string, start int) (domain.PlaceResult, error) {
	phase, err := domain.ParsePhase(string(phase))
	if err != nil {
		return domain.PlaceResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.reg.Place(phase, deviceID, rackID, start)
	if !res.OK {
		p.rec.PlacementRejected(res.Kind)
		p.log.Info().Str("device_id", deviceID).Str("phase", string(phase)).
			Str("rack_id", rackID).Int("start", start).
			Str("kind", string(res.Kind)).Msg(res.Message)
		return res, nil
	}

	p.commit(ctx, "place", EventPlacementSet, PlacementChange{
		DeviceID:  deviceID,
		Phase:     phase,
		Placement: res.Placement,
	})
	return res, nil
}

// ClearPlacement removes a device's placement for a phase. It reports
// whether anything was removed; the error is only for an invalid phase.
func (p *Planner) ClearPlacement(ctx context.Context, phase domain.Phase, deviceID string) (bool, error) {
	phase, err := domain.ParsePhase(string(phase))
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.reg.ClearPlacement(phase, deviceID) {
		return false, nil
	}
	p.commit(ctx, "clear_placement", EventPlacementClear, PlacementChange{DeviceID: deviceID, Phase: phase})
	return true, nil
}

// StatusChange is the payload of status events
type StatusChange struct {
	DeviceID string      `json:"device_id"`
	Flag     domain.Flag `json:"flag"`
	Value    bool        `json:"value"`
	Complete bool        `json:"complete"`
}

// SetFlag sets one migration flag. Unknown devices are a silent no-op
// reporting false. Unknown flags return domain.ErrUnknownFlag; with the
// after-placement policy enabled, devices without an after placement return
// ErrFlagsLocked.
func (p *Planner) SetFlag(ctx context.Context, deviceID string, flag domain.Flag, value bool) (bool, error) {
	flag, err := domain.ParseFlag(string(flag))
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.requireAfter {
		if d, ok := p.reg.Lookup(deviceID); ok && !d.IsPlaced(domain.PhaseAfter) {
			return false, ErrFlagsLocked
		}
	}

	ok, err := p.reg.SetFlag(deviceID, flag, value)
	if err != nil || !ok {
		return false, err
	}
	d, _ := p.reg.Lookup(deviceID)
	p.commit(ctx, "set_flag", EventStatusChanged, StatusChange{
		DeviceID: deviceID,
		Flag:     flag,
		Value:    value,
		Complete: domain.IsComplete(d),
	})
	return true, nil
}

// Load seeds the registry from stored state at startup. Nothing is emitted;
// the sequence continues from the stored one.
func (p *Planner) Load(raw domain.RawSnapshot) registry.SeedReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := p.reg.Seed(raw)
	p.seq = raw.Seq
	p.logSeed(report)
	p.rec.Observe(domain.Summarize(p.reg.Devices(), p.reg.Racks()))
	return report
}

// Import replaces all devices with an external snapshot and emits the result
func (p *Planner) Import(ctx context.Context, raw domain.RawSnapshot) registry.SeedReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := p.reg.Seed(raw)
	p.logSeed(report)
	p.commit(ctx, "import", EventRegistrySeeded, report)
	return report
}

func (p *Planner) logSeed(report registry.SeedReport) {
	for _, d := range report.Dropped {
		p.log.Warn().Str("device_id", d.DeviceID).Str("phase", string(d.Phase)).
			Msg("seeded placement dropped: " + d.Reason)
	}
	p.log.Info().Int("devices", report.Devices).Int("reassigned", report.Reassigned).
		Int("dropped", len(report.Dropped)).Msg("registry seeded")
}

// commit finishes a successful mutation. Callers hold the write lock.
func (p *Planner) commit(ctx context.Context, op string, kind EventType, payload any) {
	p.seq++
	snap := p.snapshotLocked()

	// the mutation is already applied; a caller that went away must not
	// keep it from reaching storage
	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.emitTimeout)
	defer cancel()
	if err := p.sink.Emit(emitCtx, snap); err != nil {
		p.rec.SinkFailed(p.sink.Name())
		p.log.Error().Err(err).Uint64("seq", snap.Seq).Msg("snapshot emission failed")
	}

	p.rec.Mutation(op)
	p.rec.Observe(domain.Summarize(snap.Devices, snap.Racks))

	if p.bus != nil {
		p.bus.Publish(Event{Type: kind, Seq: snap.Seq, Payload: payload})
	}
}

func (p *Planner) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Seq:     p.seq,
		TakenAt: p.now().UTC(),
		Racks:   p.reg.Racks(),
		Devices: p.reg.Devices(),
	}
}

// Snapshot returns the full current state
func (p *Planner) Snapshot() domain.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// Device looks up a device
func (p *Planner) Device(id string) (domain.Device, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reg.Lookup(id)
}

// Devices lists all devices in insertion order
func (p *Planner) Devices() []domain.Device {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reg.Devices()
}

// Racks lists the rack catalog
func (p *Planner) Racks() []domain.Rack {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reg.Racks()
}

// Rack looks up a rack
func (p *Planner) Rack(id string) (domain.Rack, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reg.Rack(id)
}

// Unplaced lists devices without a placement for phase
func (p *Planner) Unplaced(phase domain.Phase) []domain.Device {
	return domain.Unplaced(p.Devices(), phase)
}

// Summary computes the dashboard aggregates
func (p *Planner) Summary() domain.Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.Summarize(p.reg.Devices(), p.reg.Racks())
}

// Layout returns the elevation of a rack for a phase
func (p *Planner) Layout(rackID string, phase domain.Phase) ([]domain.SlotRow, error) {
	phase, err := domain.ParsePhase(string(phase))
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	rack, ok := p.reg.Rack(rackID)
	if !ok {
		return nil, domain.RackNotFound(rackID).Err()
	}
	return domain.RackLayout(p.reg.Devices(), rack, phase), nil
}
