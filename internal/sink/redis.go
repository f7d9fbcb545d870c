package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"rackplan/internal/domain"
)

// Redis mirrors the engine state into Redis:
//
//	<prefix>:snapshot  full snapshot JSON
//	<prefix>:summary   progress summary JSON
//	<prefix>:devices   hash of device id to device JSON
type Redis struct {
	client redis.Cmdable
	prefix string
	owned  *redis.Client
}

// DialRedis opens a client from a redis:// URL and verifies it with PING
func DialRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	r := NewRedis(client, prefix)
	r.owned = client
	return r, nil
}

// NewRedis creates a sink over an existing client
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = "rackplan"
	}
	return &Redis{client: client, prefix: prefix}
}

// Name implements Sink
func (r *Redis) Name() string { return "redis" }

func (r *Redis) snapshotKey() string { return r.prefix + ":snapshot" }
func (r *Redis) summaryKey() string  { return r.prefix + ":summary" }
func (r *Redis) devicesKey() string  { return r.prefix + ":devices" }

// Emit implements Sink. All keys are written in one transaction so readers
// never see a snapshot and device hash from different mutations.
func (r *Redis) Emit(ctx context.Context, snap domain.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	summary, err := encodeSummary(snap)
	if err != nil {
		return err
	}
	fields := make(map[string]any, len(snap.Devices))
	for _, d := range snap.Devices {
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode device %s: %w", d.ID, err)
		}
		fields[d.ID] = b
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.snapshotKey(), data, 0)
	pipe.Set(ctx, r.summaryKey(), summary, 0)
	pipe.Del(ctx, r.devicesKey())
	if len(fields) > 0 {
		pipe.HSet(ctx, r.devicesKey(), fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write: %w", err)
	}
	return nil
}

// Close closes the client when the sink owns it
func (r *Redis) Close() error {
	if r.owned != nil {
		return r.owned.Close()
	}
	return nil
}
