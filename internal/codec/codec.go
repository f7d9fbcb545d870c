package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"rackplan/internal/domain"
)

// ErrUnknownFormat is returned when no codec handles a format name or file extension
var ErrUnknownFormat = errors.New("codec: unknown format")

// SnapshotCodec reads and writes whole-engine snapshot documents
type SnapshotCodec interface {
	Format() string
	ContentType() string
	Decode(r io.Reader) (*domain.RawSnapshot, error)
	Encode(w io.Writer, snap domain.Snapshot) error
}

// Exporter writes the flat device table
type Exporter interface {
	Format() string
	ContentType() string
	Export(w io.Writer, devices []domain.Device) error
}

// ForFormat returns the snapshot codec for "json" or "yaml"/"yml"
func ForFormat(format string) (SnapshotCodec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// ForPath picks a snapshot codec from a file extension
func ForPath(path string) (SnapshotCodec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ForFormat(ext)
}

// ForContentType picks a snapshot codec from a request Content-Type,
// defaulting to JSON
func ForContentType(contentType string) SnapshotCodec {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return NewYAMLCodec()
	}
	return NewJSONCodec()
}

// ExporterFor returns the table exporter for "csv" or "xlsx"
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return NewCSVExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
