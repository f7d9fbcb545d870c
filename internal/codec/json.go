package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"rackplan/internal/domain"
)

// JSONCodec handles JSON snapshot documents
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the encoding
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Decode reads a snapshot document. Numbers are kept as json.Number so
// record repair can tell integers from garbage.
func (c *JSONCodec) Decode(r io.Reader) (*domain.RawSnapshot, error) {
	var raw domain.RawSnapshot
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if raw.Devices == nil {
		raw.Devices = []domain.Record{}
	}
	return &raw, nil
}

// Encode writes a snapshot document
func (c *JSONCodec) Encode(w io.Writer, snap domain.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
