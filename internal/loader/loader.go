// Package loader reads seed inventory documents from disk.
//
// A seed document is a snapshot in any format the codec package decodes
// (JSON or YAML, chosen by file extension). Records are returned raw so the
// registry can repair them while seeding.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"rackplan/internal/codec"
	"rackplan/internal/domain"
	"rackplan/internal/registry"
)

// Importer replaces the live device set with a raw snapshot
type Importer interface {
	Import(ctx context.Context, raw domain.RawSnapshot) registry.SeedReport
}

// LoadFile reads a seed document from path
func LoadFile(path string) (*domain.RawSnapshot, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	raw, err := c.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// ImportFile loads path and imports it into imp
func ImportFile(ctx context.Context, path string, imp Importer) (registry.SeedReport, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return registry.SeedReport{}, err
	}
	return imp.Import(ctx, *raw), nil
}
