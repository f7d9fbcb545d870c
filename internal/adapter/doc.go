// Package adapter connects the planner to the physical network.
//
// # Reachability Probe
//
// Prober runs an nmap ping scan (Ullaakut/nmap) against the management
// addresses of devices placed in the "after" phase and reports which ones
// answer. Devices without a valid address are listed as skipped rather than
// failing the run.
//
// The result is advisory. It never changes migration flags; an operator
// reads the report and sets "tested" through the normal status update.
//
// When the nmap binary is missing Probe returns ErrProbeUnavailable so the
// HTTP layer can answer 503 instead of a generic failure.
package adapter
