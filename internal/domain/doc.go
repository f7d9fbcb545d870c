// Package domain defines the core types of the rack migration planner.
//
// This package contains the entities and value objects that describe a
// two-phase relocation of equipment between rack enclosures, together with
// the pure functions that derive views from them.
//
// # Core Types
//
// Rack is a fixed enclosure with a number of vertical slots. Racks are static
// reference data built from the catalog at startup.
//
// Device is a piece of equipment with a size in slots, two independent
// placements (before and after the move) and four migration readiness flags.
//
// Placement is the inclusive slot range a device occupies in one rack for one
// phase. Occupancy is never stored on racks; it is derived by scanning devices.
//
// PlaceResult reports the outcome of a placement request. Failures are values
// carrying a FailureKind and an operator-facing message.
//
// # Projections
//
// CountByCategory, CountPlaced, CountComplete, Unplaced, RackOccupants,
// DeviceAtSlot, RackLayout and Summarize are recomputed from a device slice
// on every call.
//
// # Snapshots
//
// Snapshot is the full engine state handed to storage after every write.
// RawSnapshot and RepairRecord accept untrusted external state and repair it
// field by field before it is seeded into a registry.
package domain
