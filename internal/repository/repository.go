package repository

import (
	"context"
	"errors"

	"rackplan/internal/domain"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("repository: no snapshot stored")

// SnapshotStore defines durable storage for engine snapshots
type SnapshotStore interface {
	// Save replaces the stored state with snap
	Save(ctx context.Context, snap domain.Snapshot) error

	// Load returns the last saved state as untrusted records, to be
	// repaired and seeded into a registry
	Load(ctx context.Context) (*domain.RawSnapshot, error)

	// Close releases resources
	Close() error
}
