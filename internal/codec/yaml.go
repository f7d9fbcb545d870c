package codec

import (
	"errors"
	"fmt"
	"io"

	"rackplan/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML snapshot documents
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the encoding
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Decode reads a snapshot document. An empty document yields an empty snapshot.
func (c *YAMLCodec) Decode(r io.Reader) (*domain.RawSnapshot, error) {
	var raw domain.RawSnapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw.Devices == nil {
		raw.Devices = []domain.Record{}
	}
	return &raw, nil
}

// Encode writes a snapshot document
func (c *YAMLCodec) Encode(w io.Writer, snap domain.Snapshot) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}
