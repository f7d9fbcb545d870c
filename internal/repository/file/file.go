package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"rackplan/internal/codec"
	"rackplan/internal/domain"
	"rackplan/internal/repository"
)

// Store keeps the latest snapshot as a single JSON or YAML document. The
// format follows the file extension. Writes go to a temporary file in the
// same directory which is then renamed over the target.
type Store struct {
	path  string
	codec codec.SnapshotCodec
}

// Open creates a store for path; the file itself need not exist yet
func Open(path string) (*Store, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{path: path, codec: c}, nil
}

// Path returns the snapshot file path
func (s *Store) Path() string {
	return s.path
}

// Save encodes snap and atomically replaces the snapshot file
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, snap); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load decodes the snapshot file
func (s *Store) Load(ctx context.Context) (*domain.RawSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	raw, err := s.codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return raw, nil
}

// Close is a no-op; the store holds no open handles between calls
func (s *Store) Close() error {
	return nil
}
