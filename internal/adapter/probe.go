package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"

	"rackplan/internal/domain"
)

// ErrProbeUnavailable is returned when the nmap binary cannot be run
var ErrProbeUnavailable = errors.New("adapter: nmap not available")

// ProbeResult is the reachability of one device's management address
type ProbeResult struct {
	DeviceID string        `json:"device_id"`
	Code     string        `json:"code"`
	Address  string        `json:"address"`
	Up       bool          `json:"up"`
	Latency  time.Duration `json:"latency_ns,omitempty"`
}

// Skipped names a device that could not be probed
type Skipped struct {
	DeviceID string `json:"device_id"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// ProbeReport is the outcome of one probe run. Results follow device
// order; devices with no "after" placement are not part of the run.
type ProbeReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []ProbeResult `json:"results"`
	Skipped   []Skipped     `json:"skipped"`
}

// scanFunc runs a ping scan over addresses
type scanFunc func(ctx context.Context, addresses []string) (*nmap.Run, error)

// Prober checks whether relocated devices answer on their management
// address. It only reports; migration flags are never touched.
type Prober struct {
	timeout    time.Duration
	binaryPath string
	logger     zerolog.Logger
	scan       scanFunc
	now        func() time.Time
}

// ProbeOption is a functional option for configuring Prober
type ProbeOption func(*Prober)

// WithTimeout sets the timeout for the entire nmap run
func WithTimeout(d time.Duration) ProbeOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBinaryPath runs nmap from an explicit path instead of $PATH
func WithBinaryPath(path string) ProbeOption {
	return func(p *Prober) {
		p.binaryPath = path
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ProbeOption {
	return func(p *Prober) {
		p.logger = logger.With().Str("component", "probe").Logger()
	}
}

// NewProber creates a prober that ping-scans with nmap (-sn)
func NewProber(opts ...ProbeOption) *Prober {
	p := &Prober{
		timeout: 30 * time.Second,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	p.scan = p.nmapScan

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Targets groups the probeable devices by management address. Devices
// without an "after" placement are ignored; placed devices with a missing
// or malformed address are returned as skipped.
func Targets(devices []domain.Device) (map[string][]domain.Device, []Skipped) {
	targets := make(map[string][]domain.Device)
	var skipped []Skipped
	for _, d := range devices {
		if !d.IsPlaced(domain.PhaseAfter) {
			continue
		}
		if d.ManagementIP == "" {
			skipped = append(skipped, Skipped{DeviceID: d.ID, Code: d.Code, Reason: "no management address"})
			continue
		}
		addr, err := netip.ParseAddr(d.ManagementIP)
		if err != nil {
			skipped = append(skipped, Skipped{DeviceID: d.ID, Code: d.Code, Reason: "invalid management address"})
			continue
		}
		key := addr.Unmap().String()
		targets[key] = append(targets[key], d)
	}
	return targets, skipped
}

// Probe ping-scans the management addresses of after-placed devices
func (p *Prober) Probe(ctx context.Context, devices []domain.Device) (*ProbeReport, error) {
	report := &ProbeReport{StartedAt: p.now(), Results: make([]ProbeResult, 0)}

	targets, skipped := Targets(devices)
	report.Skipped = append(make([]Skipped, 0, len(skipped)), skipped...)
	if len(targets) == 0 {
		return report, nil
	}

	addresses := make([]string, 0, len(targets))
	for addr := range targets {
		addresses = append(addresses, addr)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.logger.Info().Int("addresses", len(addresses)).Msg("starting reachability probe")
	run, err := p.scan(ctx, addresses)
	if err != nil {
		return nil, err
	}

	hosts := hostStates(run)
	for _, d := range devices {
		if !d.IsPlaced(domain.PhaseAfter) {
			continue
		}
		addr, err := netip.ParseAddr(d.ManagementIP)
		if err != nil {
			continue
		}
		key := addr.Unmap().String()
		state := hosts[key]
		report.Results = append(report.Results, ProbeResult{
			DeviceID: d.ID,
			Code:     d.Code,
			Address:  key,
			Up:       state.up,
			Latency:  state.latency,
		})
	}

	report.Duration = p.now().Sub(report.StartedAt)
	p.logger.Info().
		Int("probed", len(report.Results)).
		Int("skipped", len(report.Skipped)).
		Dur("duration", report.Duration).
		Msg("reachability probe complete")
	return report, nil
}

func (p *Prober) nmapScan(ctx context.Context, addresses []string) (*nmap.Run, error) {
	opts := []nmap.Option{
		nmap.WithTargets(addresses...),
		nmap.WithPingScan(),
	}
	if p.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(p.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		if errors.Is(err, nmap.ErrNmapNotInstalled) {
			return nil, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
		}
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		p.logger.Warn().Strs("warnings", *warnings).Msg("nmap reported warnings")
	}
	return result, nil
}

type hostState struct {
	up      bool
	latency time.Duration
}

// hostStates indexes scan results by IP address
func hostStates(run *nmap.Run) map[string]hostState {
	states := make(map[string]hostState)
	if run == nil {
		return states
	}
	for _, host := range run.Hosts {
		state := hostState{up: host.Status.State == "up"}
		// srtt is reported in microseconds
		if us, err := strconv.ParseInt(host.Times.SRTT, 10, 64); err == nil {
			state.latency = time.Duration(us) * time.Microsecond
		}
		for _, addr := range host.Addresses {
			if addr.AddrType != "ipv4" && addr.AddrType != "ipv6" {
				continue
			}
			if ip, err := netip.ParseAddr(addr.Addr); err == nil {
				states[ip.Unmap().String()] = state
			}
		}
	}
	return states
}
