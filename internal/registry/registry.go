package registry

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"rackplan/internal/domain"
)

// Option configures a Registry
type Option func(*Registry)

// WithCapacity sets the slot capacity used to clamp device sizes
func WithCapacity(capacity int) Option {
	return func(r *Registry) {
		if capacity > 0 {
			r.capacity = capacity
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new device ids
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithClock replaces the time source used for device timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry holds the canonical device and rack collections.
//
// Devices are kept in insertion order. Racks are fixed at construction.
// Occupancy is never stored; it is derived by scanning devices.
//
// A Registry is not safe for concurrent use. Callers serialize access,
// which also makes the check-then-set of Place a single atomic step.
type Registry struct {
	racks     []domain.Rack
	rackIndex map[string]int

	order   []string
	devices map[string]*domain.Device

	capacity int
	newID    func() string
	now      func() time.Time
}

// New creates a registry over a rack catalog. Racks with an empty or
// duplicate id are ignored.
func New(racks []domain.Rack, opts ...Option) *Registry {
	r := &Registry{
		rackIndex: make(map[string]int, len(racks)),
		devices:   make(map[string]*domain.Device),
		capacity:  domain.DefaultCapacity,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, rack := range racks {
		if rack.ID == "" {
			continue
		}
		if _, dup := r.rackIndex[rack.ID]; dup {
			continue
		}
		r.rackIndex[rack.ID] = len(r.racks)
		r.racks = append(r.racks, domain.NewRack(rack.ID, rack.Name, rack.Capacity))
	}
	return r
}

// Capacity returns the slot capacity used to clamp device sizes
func (r *Registry) Capacity() int {
	return r.capacity
}

// Len returns the number of devices
func (r *Registry) Len() int {
	return len(r.order)
}

// Racks returns a copy of the rack catalog
func (r *Registry) Racks() []domain.Rack {
	out := make([]domain.Rack, len(r.racks))
	copy(out, r.racks)
	return out
}

// Rack looks up a rack by id
func (r *Registry) Rack(id string) (domain.Rack, bool) {
	i, ok := r.rackIndex[id]
	if !ok {
		return domain.Rack{}, false
	}
	return r.racks[i], true
}

// Devices returns deep copies of all devices in insertion order
func (r *Registry) Devices() []domain.Device {
	out := make([]domain.Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id].Clone())
	}
	return out
}

// Lookup returns a deep copy of a device
func (r *Registry) Lookup(id string) (domain.Device, bool) {
	d, ok := r.devices[id]
	if !ok {
		return domain.Device{}, false
	}
	return d.Clone(), true
}

// AddDevice appends a new device built from draft and returns its id.
// The device starts unplaced with all migration flags false.
func (r *Registry) AddDevice(draft domain.DeviceDraft) string {
	now := r.now()
	d := &domain.Device{
		ID:           r.freshID(),
		Category:     domain.ParseCategory(string(draft.Category)),
		Code:         strings.TrimSpace(draft.Code),
		Name:         strings.TrimSpace(draft.Name),
		Brand:        draft.Brand,
		Model:        draft.Model,
		Ports:        max(draft.Ports, 0),
		Size:         domain.ClampSlot(draft.Size, r.capacity),
		ManagementIP: strings.TrimSpace(draft.ManagementIP),
		Serial:       draft.Serial,
		PortMapping:  draft.PortMapping,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.insert(d)
	return d.ID
}

// UpdateDevice merges the set fields of u into the device. Unknown ids are a
// silent no-op and report false. Placements and migration flags are not
// touched, except that a size change re-derives the end slot of each
// placement; a placement that no longer fits its rack or now collides with
// another device is cleared and its phase returned.
func (r *Registry) UpdateDevice(id string, u domain.DeviceUpdate) (cleared []domain.Phase, ok bool) {
	d, ok := r.devices[id]
	if !ok {
		return nil, false
	}

	if u.Category != nil {
		d.Category = domain.ParseCategory(string(*u.Category))
	}
	if u.Code != nil {
		d.Code = strings.TrimSpace(*u.Code)
	}
	if u.Name != nil {
		d.Name = strings.TrimSpace(*u.Name)
	}
	if u.Brand != nil {
		d.Brand = *u.Brand
	}
	if u.Model != nil {
		d.Model = *u.Model
	}
	if u.Ports != nil {
		d.Ports = max(*u.Ports, 0)
	}
	if u.ManagementIP != nil {
		d.ManagementIP = strings.TrimSpace(*u.ManagementIP)
	}
	if u.Serial != nil {
		d.Serial = *u.Serial
	}
	if u.PortMapping != nil {
		d.PortMapping = *u.PortMapping
	}
	if u.Size != nil {
		size := domain.ClampSlot(*u.Size, r.capacity)
		if size != d.Size {
			d.Size = size
			cleared = r.refit(d)
		}
	}

	d.UpdatedAt = r.now()
	return cleared, true
}

// refit recomputes each placement of d after a size change
func (r *Registry) refit(d *domain.Device) []domain.Phase {
	var cleared []domain.Phase
	for _, phase := range domain.Phases() {
		p := d.PlacementFor(phase)
		if p == nil {
			continue
		}
		rack, ok := r.Rack(p.RackID)
		if !ok {
			d.SetPlacement(phase, nil)
			cleared = append(cleared, phase)
			continue
		}
		next := span(rack, p.Start, d.Size)
		if next.End > rack.Capacity {
			d.SetPlacement(phase, nil)
			cleared = append(cleared, phase)
			continue
		}
		if _, _, conflict := r.collision(phase, d.ID, next); conflict {
			d.SetPlacement(phase, nil)
			cleared = append(cleared, phase)
			continue
		}
		d.SetPlacement(phase, &next)
	}
	return cleared
}

// DeleteDevice removes a device and with it both of its placements.
// Unknown ids are a silent no-op and report false.
func (r *Registry) DeleteDevice(id string) bool {
	if _, ok := r.devices[id]; !ok {
		return false
	}
	delete(r.devices, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) insert(d *domain.Device) {
	r.devices[d.ID] = d
	r.order = append(r.order, d.ID)
}

// freshID returns a generated id not yet in use
func (r *Registry) freshID() string {
	for {
		id := r.newID()
		if _, taken := r.devices[id]; !taken && id != "" {
			return id
		}
	}
}
