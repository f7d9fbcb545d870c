package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the full state of the engine at a point in time. Devices are
// held by value, in registry insertion order.
type Snapshot struct {
	Seq     uint64    `json:"seq" yaml:"seq"`
	TakenAt time.Time `json:"taken_at" yaml:"taken_at"`
	Racks   []Rack    `json:"racks" yaml:"racks"`
	Devices []Device  `json:"devices" yaml:"devices"`
}

// Record is an untyped device record as read from an external snapshot.
// Records may be partial or malformed; RepairRecord turns them into devices.
type Record map[string]any

// RawSnapshot is an external snapshot whose device records have not been
// validated yet
type RawSnapshot struct {
	Seq     uint64   `json:"seq" yaml:"seq"`
	Devices []Record `json:"devices" yaml:"devices"`
}

// RawPlacement is a placement request recovered from a record. The end slot
// is never trusted; it is recomputed from start and size when seeding.
type RawPlacement struct {
	RackID string
	Start  int
}

// RepairedRecord is a device rebuilt from a record, with the placements it
// asked for kept aside for validation against the rack catalog
type RepairedRecord struct {
	Device Device
	Before *RawPlacement
	After  *RawPlacement
}

// RepairRecord rebuilds a device from a record field by field, substituting
// defaults for anything missing or malformed: unknown category becomes
// Other, flags default to false, size defaults to 1 and is clamped to
// [1, capacity], ports are clamped to be non-negative.
func RepairRecord(rec Record, capacity int) RepairedRecord {
	d := Device{
		ID:           recordString(rec, "id"),
		Category:     ParseCategory(recordString(rec, "category")),
		Code:         recordString(rec, "code"),
		Name:         recordString(rec, "name"),
		Brand:        recordString(rec, "brand"),
		Model:        recordString(rec, "model"),
		ManagementIP: recordString(rec, "management_ip"),
		Serial:       recordString(rec, "serial"),
		PortMapping:  recordString(rec, "port_mapping"),
	}

	if ports, ok := asInt(rec["ports"]); ok && ports > 0 {
		d.Ports = ports
	}
	size, ok := asInt(rec["size"])
	if !ok {
		size = 1
	}
	d.Size = ClampSlot(size, capacity)

	// Flags live under "status" but older exports kept them at top level
	status, _ := asMap(rec["status"])
	for _, flag := range Flags() {
		v, found := status[string(flag)]
		if !found {
			v = rec[string(flag)]
		}
		_ = d.Status.Set(flag, asBool(v))
	}

	if t, ok := asTime(rec["created_at"]); ok {
		d.CreatedAt = t
	}
	if t, ok := asTime(rec["updated_at"]); ok {
		d.UpdatedAt = t
	}

	return RepairedRecord{
		Device: d,
		Before: recordPlacement(rec["before"]),
		After:  recordPlacement(rec["after"]),
	}
}

func recordPlacement(v any) *RawPlacement {
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	rackID, _ := asString(m["rack_id"])
	start, ok := asInt(m["start"])
	if rackID == "" || !ok {
		return nil
	}
	return &RawPlacement{RackID: rackID, Start: start}
}

func recordString(rec Record, key string) string {
	s, _ := asString(rec[key])
	return s
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		if t > math.MaxInt32 {
			return math.MaxInt32, true
		}
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
