package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"topowatch/internal/domain"
)

// Importer decodes a snapshot document
type Importer interface {
	Parse(source string, r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter encodes a published graph
type Exporter interface {
	Export(pub *domain.Publication, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

// Lookup returns the codec for a format name
func Lookup(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ForPath picks a codec from a file extension, defaulting to JSON
func ForPath(path string) Codec {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	c, err := Lookup(ext)
	if err != nil {
		return NewJSONCodec()
	}
	return c
}
