package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values
const (
	EnvListen                = "RACKPLAN_LISTEN"
	EnvLogLevel              = "RACKPLAN_LOG_LEVEL"
	EnvLogFormat             = "RACKPLAN_LOG_FORMAT"
	EnvCapacity              = "RACKPLAN_CAPACITY"
	EnvRequireAfterPlacement = "RACKPLAN_REQUIRE_AFTER_PLACEMENT"
	EnvSeedPath              = "RACKPLAN_SEED_PATH"
	EnvWatchSeed             = "RACKPLAN_WATCH_SEED"
	EnvStorageDriver         = "RACKPLAN_STORAGE_DRIVER"
	EnvStoragePath           = "RACKPLAN_STORAGE_PATH"
	EnvStorageDSN            = "RACKPLAN_STORAGE_DSN"
	EnvMQTTBroker            = "RACKPLAN_MQTT_BROKER"
	EnvMQTTUsername          = "RACKPLAN_MQTT_USERNAME"
	EnvMQTTPassword          = "RACKPLAN_MQTT_PASSWORD"
	EnvRedisURL              = "RACKPLAN_REDIS_URL"
	EnvKafkaBrokers          = "RACKPLAN_KAFKA_BROKERS"
	EnvKafkaTopic            = "RACKPLAN_KAFKA_TOPIC"
	EnvInfluxURL             = "RACKPLAN_INFLUX_URL"
	EnvInfluxToken           = "RACKPLAN_INFLUX_TOKEN"
	EnvInfluxOrg             = "RACKPLAN_INFLUX_ORG"
	EnvInfluxBucket          = "RACKPLAN_INFLUX_BUCKET"
	EnvProbeEnabled          = "RACKPLAN_PROBE_ENABLED"
	EnvProbeTimeout          = "RACKPLAN_PROBE_TIMEOUT"
)

// LoadDotEnv loads variables from the given .env files (default ./.env)
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config values with RACKPLAN_* environment variables.
// Malformed numeric, boolean and duration values are ignored.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Listen, EnvListen)
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setInt(&c.Engine.Capacity, EnvCapacity)
	setBool(&c.Engine.RequireAfterPlacement, EnvRequireAfterPlacement)
	setString(&c.Engine.SeedPath, EnvSeedPath)
	setBool(&c.Engine.WatchSeed, EnvWatchSeed)

	if v, ok := lookup(EnvStorageDriver); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	setString(&c.Storage.Path, EnvStoragePath)
	setString(&c.Storage.DSN, EnvStorageDSN)

	setString(&c.Sinks.MQTT.Broker, EnvMQTTBroker)
	setString(&c.Sinks.MQTT.Username, EnvMQTTUsername)
	setString(&c.Sinks.MQTT.Password, EnvMQTTPassword)
	setString(&c.Sinks.Redis.URL, EnvRedisURL)
	if v, ok := lookup(EnvKafkaBrokers); ok {
		c.Sinks.Kafka.Brokers = splitList(v)
	}
	setString(&c.Sinks.Kafka.Topic, EnvKafkaTopic)
	setString(&c.Sinks.InfluxDB.URL, EnvInfluxURL)
	setString(&c.Sinks.InfluxDB.Token, EnvInfluxToken)
	setString(&c.Sinks.InfluxDB.Org, EnvInfluxOrg)
	setString(&c.Sinks.InfluxDB.Bucket, EnvInfluxBucket)

	setBool(&c.Probe.Enabled, EnvProbeEnabled)
	if v, ok := lookup(EnvProbeTimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Probe.Timeout = Duration(d)
		}
	}

	// a driver switched by env may still need its default path
	c.applyDefaults()
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
