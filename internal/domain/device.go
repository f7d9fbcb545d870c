package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category classifies a device
type Category string

const (
	CategoryNetwork Category = "Network"
	CategoryStorage Category = "Storage"
	CategoryServer  Category = "Server"
	CategoryOther   Category = "Other"
)

// Categories returns the closed set of device categories in display order
func Categories() []Category {
	return []Category{CategoryNetwork, CategoryStorage, CategoryServer, CategoryOther}
}

// ParseCategory maps s onto a known category, case-insensitively.
// Anything unrecognised becomes CategoryOther.
func ParseCategory(s string) Category {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c
		}
	}
	return CategoryOther
}

// Phase is one of the two independent placement contexts
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// ErrUnknownPhase is returned when a phase name is not "before" or "after"
var ErrUnknownPhase = errors.New("domain: unknown phase")

// Phases returns both phases in migration order
func Phases() []Phase {
	return []Phase{PhaseBefore, PhaseAfter}
}

// ParsePhase parses a phase name
func ParsePhase(s string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseBefore:
		return PhaseBefore, nil
	case PhaseAfter:
		return PhaseAfter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// Flag names one of the four migration readiness indicators
type Flag string

const (
	FlagMounted Flag = "mounted"
	FlagCabled  Flag = "cabled"
	FlagPowered Flag = "powered"
	FlagTested  Flag = "tested"
)

// ErrUnknownFlag is returned for flag names outside the four readiness flags
var ErrUnknownFlag = errors.New("domain: unknown status flag")

// Flags returns the readiness flags in checklist order
func Flags() []Flag {
	return []Flag{FlagMounted, FlagCabled, FlagPowered, FlagTested}
}

// ParseFlag parses a flag name
func ParseFlag(s string) (Flag, error) {
	f := Flag(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FlagMounted, FlagCabled, FlagPowered, FlagTested:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFlag, s)
}

// Placement is the occupied slot range of a device in one rack for one phase.
// End is always Start + size - 1.
type Placement struct {
	RackID string `json:"rack_id" yaml:"rack_id"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
}

// Len returns the number of slots the placement covers
func (p Placement) Len() int {
	return p.End - p.Start + 1
}

// Contains reports whether slot lies within the placement
func (p Placement) Contains(slot int) bool {
	return slot >= p.Start && slot <= p.End
}

// Overlaps reports whether two placements share a slot in the same rack
func (p Placement) Overlaps(o Placement) bool {
	return p.RackID == o.RackID && RangesOverlap(p.Start, p.End, o.Start, o.End)
}

// MigrationStatus holds the four independent readiness flags of a device
type MigrationStatus struct {
	Mounted bool `json:"mounted" yaml:"mounted"`
	Cabled  bool `json:"cabled" yaml:"cabled"`
	Powered bool `json:"powered" yaml:"powered"`
	Tested  bool `json:"tested" yaml:"tested"`
}

// Complete is true iff all four flags are set
func (s MigrationStatus) Complete() bool {
	return s.Mounted && s.Cabled && s.Powered && s.Tested
}

// Get returns the value of a single flag
func (s MigrationStatus) Get(flag Flag) bool {
	switch flag {
	case FlagMounted:
		return s.Mounted
	case FlagCabled:
		return s.Cabled
	case FlagPowered:
		return s.Powered
	case FlagTested:
		return s.Tested
	}
	return false
}

// Set assigns a single flag
func (s *MigrationStatus) Set(flag Flag, value bool) error {
	switch flag {
	case FlagMounted:
		s.Mounted = value
	case FlagCabled:
		s.Cabled = value
	case FlagPowered:
		s.Powered = value
	case FlagTested:
		s.Tested = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}
	return nil
}

// Device is a piece of equipment tracked through the relocation
type Device struct {
	ID           string   `json:"id" yaml:"id"`
	Category     Category `json:"category" yaml:"category"`
	Code         string   `json:"code" yaml:"code"`
	Name         string   `json:"name" yaml:"name"`
	Brand        string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty"`
	Ports        int      `json:"ports" yaml:"ports"`
	Size         int      `json:"size" yaml:"size"`
	ManagementIP string   `json:"management_ip,omitempty" yaml:"management_ip,omitempty"`
	Serial       string   `json:"serial,omitempty" yaml:"serial,omitempty"`
	PortMapping  string   `json:"port_mapping,omitempty" yaml:"port_mapping,omitempty"`

	Before *Placement      `json:"before,omitempty" yaml:"before,omitempty"`
	After  *Placement      `json:"after,omitempty" yaml:"after,omitempty"`
	Status MigrationStatus `json:"status" yaml:"status"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// PlacementFor returns the placement record for a phase, or nil when unplaced
func (d *Device) PlacementFor(phase Phase) *Placement {
	switch phase {
	case PhaseBefore:
		return d.Before
	case PhaseAfter:
		return d.After
	}
	return nil
}

// SetPlacement replaces the placement record for a phase; nil clears it
func (d *Device) SetPlacement(phase Phase, p *Placement) {
	switch phase {
	case PhaseBefore:
		d.Before = p
	case PhaseAfter:
		d.After = p
	}
}

// IsPlaced reports whether the device has a placement for the phase
func (d *Device) IsPlaced(phase Phase) bool {
	return d.PlacementFor(phase) != nil
}

// Clone returns a deep copy of the device
func (d Device) Clone() Device {
	c := d
	if d.Before != nil {
		b := *d.Before
		c.Before = &b
	}
	if d.After != nil {
		a := *d.After
		c.After = &a
	}
	return c
}

// IsComplete reports whether the device is migration-complete
func IsComplete(d Device) bool {
	return d.Status.Complete()
}

// DeviceDraft carries the user-supplied fields of a new device
type DeviceDraft struct {
	Category     Category `json:"category" yaml:"category"`
	Code         string   `json:"code" yaml:"code"`
	Name         string   `json:"name" yaml:"name"`
	Brand        string   `json:"brand" yaml:"brand"`
	Model        string   `json:"model" yaml:"model"`
	Ports        int      `json:"ports" yaml:"ports"`
	Size         int      `json:"size" yaml:"size"`
	ManagementIP string   `json:"management_ip" yaml:"management_ip"`
	Serial       string   `json:"serial" yaml:"serial"`
	PortMapping  string   `json:"port_mapping" yaml:"port_mapping"`
}

// DeviceUpdate is a partial field update; nil fields are left untouched
type DeviceUpdate struct {
	Category     *Category `json:"category,omitempty"`
	Code         *string   `json:"code,omitempty"`
	Name         *string   `json:"name,omitempty"`
	Brand        *string   `json:"brand,omitempty"`
	Model        *string   `json:"model,omitempty"`
	Ports        *int      `json:"ports,omitempty"`
	Size         *int      `json:"size,omitempty"`
	ManagementIP *string   `json:"management_ip,omitempty"`
	Serial       *string   `json:"serial,omitempty"`
	PortMapping  *string   `json:"port_mapping,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u DeviceUpdate) IsEmpty() bool {
	return u.Category == nil && u.Code == nil && u.Name == nil && u.Brand == nil &&
		u.Model == nil && u.Ports == nil && u.Size == nil && u.ManagementIP == nil &&
		u.Serial == nil && u.PortMapping == nil
}
