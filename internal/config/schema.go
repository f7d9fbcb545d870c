package config

import (
	"fmt"
	"time"

	"rackplan/internal/logging"
)

// Config is the root configuration structure
type Config struct {
	Version int            `yaml:"version" toml:"version"`
	Server  ServerConfig   `yaml:"server" toml:"server"`
	Logging logging.Config `yaml:"logging" toml:"logging"`
	Engine  EngineConfig   `yaml:"engine" toml:"engine"`
	Racks   []RackConfig   `yaml:"racks,omitempty" toml:"racks,omitempty"`
	Storage StorageConfig  `yaml:"storage" toml:"storage"`
	Sinks   SinksConfig    `yaml:"sinks" toml:"sinks"`
	Probe   ProbeConfig    `yaml:"probe" toml:"probe"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Listen          string   `yaml:"listen" toml:"listen"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// EngineConfig holds placement engine settings
type EngineConfig struct {
	// Capacity is the slot count of racks that do not set their own
	Capacity int `yaml:"capacity" toml:"capacity"`
	// RequireAfterPlacement rejects status changes on devices with no
	// "after" placement
	RequireAfterPlacement bool `yaml:"require_after_placement" toml:"require_after_placement"`
	// SeedPath is a JSON or YAML snapshot imported when storage holds no
	// snapshot yet
	SeedPath string `yaml:"seed_path,omitempty" toml:"seed_path,omitempty"`
	// WatchSeed re-imports SeedPath whenever the file changes
	WatchSeed bool `yaml:"watch_seed,omitempty" toml:"watch_seed,omitempty"`
}

// RackConfig is one entry of the rack catalog
type RackConfig struct {
	ID       string `yaml:"id" toml:"id"`
	Name     string `yaml:"name,omitempty" toml:"name,omitempty"`
	Capacity int    `yaml:"capacity,omitempty" toml:"capacity,omitempty"`
}

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
	DriverNone     = "none"
)

// StorageConfig selects where snapshots are persisted
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // sqlite, postgres, file or none
	Path   string `yaml:"path,omitempty" toml:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty" toml:"dsn,omitempty"`
}

// SinksConfig holds the optional snapshot sinks. A sink is enabled when
// its address is set.
type SinksConfig struct {
	MQTT     MQTTConfig   `yaml:"mqtt" toml:"mqtt"`
	Redis    RedisConfig  `yaml:"redis" toml:"redis"`
	Kafka    KafkaConfig  `yaml:"kafka" toml:"kafka"`
	InfluxDB InfluxConfig `yaml:"influxdb" toml:"influxdb"`
}

// MQTTConfig holds MQTT broker settings
type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty" toml:"broker,omitempty"`
	ClientID string `yaml:"client_id,omitempty" toml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty" toml:"username,omitempty"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" toml:"prefix,omitempty"`
	QoS      int    `yaml:"qos" toml:"qos"`
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL    string `yaml:"url,omitempty" toml:"url,omitempty"`
	Prefix string `yaml:"prefix,omitempty" toml:"prefix,omitempty"`
}

// KafkaConfig holds Kafka producer settings
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty" toml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty" toml:"topic,omitempty"`
}

// InfluxConfig holds InfluxDB v2 settings
type InfluxConfig struct {
	URL    string `yaml:"url,omitempty" toml:"url,omitempty"`
	Token  string `yaml:"token,omitempty" toml:"token,omitempty"`
	Org    string `yaml:"org,omitempty" toml:"org,omitempty"`
	Bucket string `yaml:"bucket,omitempty" toml:"bucket,omitempty"`
}

// ProbeConfig holds management reachability probe settings
type ProbeConfig struct {
	Enabled    bool     `yaml:"enabled" toml:"enabled"`
	Timeout    Duration `yaml:"timeout" toml:"timeout"`
	BinaryPath string   `yaml:"binary_path,omitempty" toml:"binary_path,omitempty"`
}

// Duration wraps time.Duration for YAML and TOML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
