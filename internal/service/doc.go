// Package service coordinates the placement engine for the HTTP layer.
//
// Planner is the single owner of the device registry. Handlers and the
// server hold a *Planner; nothing else mutates registry state.
//
// # Write path
//
// Every mutation runs under an exclusive lock. On success the planner
// increments the snapshot sequence, hands the full state to the configured
// sink.Sink, updates metrics through a Recorder and publishes an Event on the
// EventBus. No-ops and rejected placements emit nothing.
//
// # Event System
//
// EventBus fans events out to subscribers without blocking. The SSE hub
// subscribes once at startup and forwards events to browser clients.
package service
