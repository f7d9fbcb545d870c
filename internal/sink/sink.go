package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"rackplan/internal/domain"
	"rackplan/internal/repository"
)

// Sink receives the full engine state after every successful mutation
type Sink interface {
	Name() string
	Emit(ctx context.Context, snap domain.Snapshot) error
}

// Multi fans a snapshot out to several sinks. Every sink is called even when
// an earlier one fails; failures are joined.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out over sinks, skipping nil entries
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Name implements Sink
func (m *Multi) Name() string { return "multi" }

// Len returns the number of child sinks
func (m *Multi) Len() int { return len(m.sinks) }

// Emit implements Sink
func (m *Multi) Emit(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every child sink that holds resources
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Store persists snapshots through a repository
type Store struct {
	store repository.SnapshotStore
}

// NewStore wraps a snapshot store as a sink
func NewStore(store repository.SnapshotStore) *Store {
	return &Store{store: store}
}

// Name implements Sink
func (s *Store) Name() string { return "store" }

// Emit implements Sink
func (s *Store) Emit(ctx context.Context, snap domain.Snapshot) error {
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save snapshot %d: %w", snap.Seq, err)
	}
	return nil
}

// Func adapts a function to a Sink
type Func func(ctx context.Context, snap domain.Snapshot) error

// Name implements Sink
func (f Func) Name() string { return "func" }

// Emit implements Sink
func (f Func) Emit(ctx context.Context, snap domain.Snapshot) error { return f(ctx, snap) }

// summaryMessage is the compact progress document published next to snapshots
type summaryMessage struct {
	Seq     uint64         `json:"seq"`
	TakenAt string         `json:"taken_at"`
	Summary domain.Summary `json:"summary"`
}

func encodeSnapshot(snap domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func encodeSummary(snap domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(summaryMessage{
		Seq:     snap.Seq,
		TakenAt: snap.TakenAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Summary: domain.Summarize(snap.Devices, snap.Racks),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}
	return data, nil
}
