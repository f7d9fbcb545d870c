package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a rejected placement
type FailureKind string

const (
	FailureDeviceNotFound FailureKind = "DeviceNotFound"
	FailureRackNotFound   FailureKind = "RackNotFound"
	FailureOutOfBounds    FailureKind = "OutOfBounds"
	FailureSlotConflict   FailureKind = "SlotConflict"
	FailureInvalidPhase   FailureKind = "InvalidPhase"
)

// Placement errors, for callers that prefer errors.Is over inspecting a PlaceResult
var (
	ErrDeviceNotFound = errors.New("placement: device not found")
	ErrRackNotFound   = errors.New("placement: rack not found")
	ErrOutOfBounds    = errors.New("placement: range exceeds rack capacity")
	ErrSlotConflict   = errors.New("placement: slot conflict")
)

// PlaceResult is the outcome of a placement request. Failures are values,
// never panics, and a failed placement leaves engine state untouched.
type PlaceResult struct {
	OK         bool        `json:"ok"`
	Kind       FailureKind `json:"kind,omitempty"`
	Message    string      `json:"message,omitempty"`
	ConflictID string      `json:"conflict_id,omitempty"`
	Placement  *Placement  `json:"placement,omitempty"`
}

// Placed builds a successful result
func Placed(p Placement) PlaceResult {
	return PlaceResult{OK: true, Placement: &p}
}

// DeviceNotFound builds the failure for an unknown device id
func DeviceNotFound(id string) PlaceResult {
	return PlaceResult{
		Kind:    FailureDeviceNotFound,
		Message: fmt.Sprintf("device %s not found", id),
	}
}

// RackNotFound builds the failure for an unknown rack id
func RackNotFound(id string) PlaceResult {
	return PlaceResult{
		Kind:    FailureRackNotFound,
		Message: fmt.Sprintf("rack %s not found", id),
	}
}

// InvalidPhase builds the failure for a phase other than before or after
func InvalidPhase(phase Phase) PlaceResult {
	return PlaceResult{
		Kind:    FailureInvalidPhase,
		Message: fmt.Sprintf("unknown phase %q", phase),
	}
}

// OutOfBounds builds the failure for a range running past the top of the rack
func OutOfBounds(rack Rack, start, end int) PlaceResult {
	return PlaceResult{
		Kind: FailureOutOfBounds,
		Message: fmt.Sprintf("slots U%d-U%d exceed capacity of rack %s (%dU)",
			start, end, rack.ID, rack.Capacity),
	}
}

// SlotConflict builds the failure for a requested range colliding with the
// range held by another device. The message names that device's code and name.
func SlotConflict(requested Placement, other Device, held Placement) PlaceResult {
	return PlaceResult{
		Kind: FailureSlotConflict,
		Message: fmt.Sprintf("slots U%d-U%d in rack %s collide with %s (%s) at U%d-U%d",
			requested.Start, requested.End, requested.RackID,
			other.Code, other.Name, held.Start, held.End),
		ConflictID: other.ID,
	}
}

// Err maps a failed result onto the matching sentinel error; nil when OK
func (r PlaceResult) Err() error {
	if r.OK {
		return nil
	}
	var base error
	switch r.Kind {
	case FailureDeviceNotFound:
		base = ErrDeviceNotFound
	case FailureRackNotFound:
		base = ErrRackNotFound
	case FailureOutOfBounds:
		base = ErrOutOfBounds
	case FailureSlotConflict:
		base = ErrSlotConflict
	case FailureInvalidPhase:
		base = ErrUnknownPhase
	default:
		return errors.New(r.Message)
	}
	if r.Message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, r.Message)
}
