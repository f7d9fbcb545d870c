// Package config provides configuration management for rackplan.
//
// Config file locations (priority order):
//  1. $RACKPLAN_CONFIG
//  2. ./rackplan.yaml or ./rackplan.toml
//  3. $XDG_CONFIG_HOME/rackplan/config.yaml (or ~/.config/rackplan)
//  4. /etc/rackplan/config.yaml
//
// The format follows the file extension: .toml files are read with
// BurntSushi/toml, everything else as YAML. After the file, RACKPLAN_*
// environment variables override individual settings; a .env file in the
// working directory is loaded first if present.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"rackplan/internal/domain"
)

const (
	defaultListen          = ":3000"
	defaultShutdownTimeout = 10 * time.Second
	defaultProbeTimeout    = 30 * time.Second
	defaultSQLitePath      = "./rackplan.db"
	defaultFilePath        = "./rackplan.json"
)

// ErrInvalid is returned by Validate for unusable settings
var ErrInvalid = errors.New("config: invalid")

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides apply in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, isTOML(path))
	if err != nil {
		return nil, path, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes YAML or TOML config data and fills in defaults
func Parse(data []byte, asTOML bool) (*Config, error) {
	var cfg Config
	if asTOML {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the specified path in the format its extension names
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Engine.Capacity < 1 {
		c.Engine.Capacity = domain.DefaultCapacity
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case DriverSQLite:
			c.Storage.Path = defaultSQLitePath
		case DriverFile:
			c.Storage.Path = defaultFilePath
		}
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = Duration(defaultProbeTimeout)
	}
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for driver %s", ErrInvalid, c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for driver postgres", ErrInvalid)
		}
	case DriverNone:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalid, c.Storage.Driver)
	}

	if c.Engine.WatchSeed && c.Engine.SeedPath == "" {
		return fmt.Errorf("%w: engine.watch_seed requires engine.seed_path", ErrInvalid)
	}

	if q := c.Sinks.MQTT.QoS; q < 0 || q > 2 {
		return fmt.Errorf("%w: sinks.mqtt.qos must be 0, 1 or 2", ErrInvalid)
	}

	seen := make(map[string]bool, len(c.Racks))
	for i, r := range c.Racks {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("%w: racks[%d] has no id", ErrInvalid, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate rack id %q", ErrInvalid, id)
		}
		seen[id] = true
	}
	return nil
}

// RackCatalog returns the configured racks, or the default two-row catalog
// when none are listed. Racks without a capacity get engine.capacity.
func (c *Config) RackCatalog() []domain.Rack {
	if len(c.Racks) == 0 {
		return domain.DefaultCatalog(c.Engine.Capacity)
	}
	racks := make([]domain.Rack, 0, len(c.Racks))
	for _, r := range c.Racks {
		capacity := r.Capacity
		if capacity < 1 {
			capacity = c.Engine.Capacity
		}
		racks = append(racks, domain.NewRack(strings.TrimSpace(r.ID), strings.TrimSpace(r.Name), capacity))
	}
	return racks
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	sinks := c.EnabledSinks()
	if len(sinks) == 0 {
		sinks = []string{"none"}
	}
	return fmt.Sprintf("Listen: %s, Storage: %s, Racks: %d, Capacity: %d, Sinks: %s",
		c.Server.Listen, c.Storage.Driver, len(c.RackCatalog()), c.Engine.Capacity,
		strings.Join(sinks, ","))
}

// EnabledSinks names the sinks that have an address configured
func (c *Config) EnabledSinks() []string {
	var names []string
	if c.Sinks.MQTT.Broker != "" {
		names = append(names, "mqtt")
	}
	if c.Sinks.Redis.URL != "" {
		names = append(names, "redis")
	}
	if len(c.Sinks.Kafka.Brokers) > 0 {
		names = append(names, "kafka")
	}
	if c.Sinks.InfluxDB.URL != "" {
		names = append(names, "influxdb")
	}
	return names
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
