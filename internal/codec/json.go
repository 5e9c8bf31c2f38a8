package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"topowatch/internal/domain"
)

// JSONCodec handles the discovery server's JSON node list
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse decodes a JSON array of node records
func (c *JSONCodec) Parse(source string, r io.Reader) (*domain.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	snap, err := domain.ParseSnapshot(source, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return snap, nil
}

// Export writes the publication as indented JSON
func (c *JSONCodec) Export(pub *domain.Publication, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(pub); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
