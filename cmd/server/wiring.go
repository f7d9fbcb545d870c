package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"rackplan/internal/config"
	"rackplan/internal/repository"
	"rackplan/internal/repository/file"
	"rackplan/internal/repository/sqlstore"
	"rackplan/internal/sink"
)

// openStore opens the configured snapshot store; nil when persistence is off
func openStore(cfg config.StorageConfig) (repository.SnapshotStore, error) {
	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverFile:
		store, err := file.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := sqlstore.OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	default:
		store, err := sqlstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return store, nil
	}
}

// openSinks connects every sink that has an address configured. A sink
// that cannot connect at startup is fatal; later emit failures are not.
func openSinks(ctx context.Context, cfg config.SinksConfig, logger zerolog.Logger) ([]sink.Sink, error) {
	var sinks []sink.Sink
	fail := func(err error) ([]sink.Sink, error) {
		sink.NewMulti(sinks...).Close()
		return nil, err
	}

	if cfg.MQTT.Broker != "" {
		s, err := sink.DialMQTT(sink.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Prefix:   cfg.MQTT.Prefix,
			QoS:      byte(cfg.MQTT.QoS),
		})
		if err != nil {
			return fail(err)
		}
		logger.Info().Str("broker", cfg.MQTT.Broker).Msg("mqtt sink connected")
		sinks = append(sinks, s)
	}

	if cfg.Redis.URL != "" {
		s, err := sink.DialRedis(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return fail(err)
		}
		logger.Info().Msg("redis sink connected")
		sinks = append(sinks, s)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		s := sink.NewKafka(sink.NewKafkaWriter(cfg.Kafka.Brokers), cfg.Kafka.Topic)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("kafka sink configured")
		sinks = append(sinks, s)
	}

	if cfg.InfluxDB.URL != "" {
		s, err := sink.DialInflux(ctx, sink.InfluxConfig{
			URL:    cfg.InfluxDB.URL,
			Token:  cfg.InfluxDB.Token,
			Org:    cfg.InfluxDB.Org,
			Bucket: cfg.InfluxDB.Bucket,
		})
		if err != nil {
			return fail(err)
		}
		logger.Info().Str("url", cfg.InfluxDB.URL).Msg("influxdb sink connected")
		sinks = append(sinks, s)
	}

	return sinks, nil
}
