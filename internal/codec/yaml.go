package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"topowatch/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles snapshots written as a YAML sequence of records.
// Documents are converted to JSON so records decode the same way from both formats.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse decodes a YAML sequence of node records
func (c *YAMLCodec) Parse(source string, r io.Reader) (*domain.Snapshot, error) {
	var doc any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return domain.NewSnapshot(source), nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	generic, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML: %w", err)
	}

	snap, err := domain.ParseSnapshot(source, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return snap, nil
}

// Export writes the publication as YAML, using the same field names as JSON
func (c *YAMLCodec) Export(pub *domain.Publication, w io.Writer) error {
	data, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	// Identities are 63-bit; keep them out of float64
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	generic = integers(generic)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// integers replaces json.Number values with int64 where they fit, else float64
func integers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = integers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = integers(val)
		}
		return t
	default:
		return v
	}
}

// normalize rewrites YAML maps with non-string keys so they can be marshaled as JSON
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}
