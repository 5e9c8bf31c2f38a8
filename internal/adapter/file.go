package adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"topowatch/internal/codec"
	"topowatch/internal/domain"
	"topowatch/internal/watcher"
)

// FileSource reads a snapshot from a JSON or YAML file
type FileSource struct {
	path   string
	codec  codec.Importer
	watch  bool
	logger *log.Logger
}

// NewFileSource creates a source for path. The format is chosen from the
// file extension. With watch set, changes to the file trigger a cycle.
func NewFileSource(path string, watch bool, logger *log.Logger) *FileSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSource{
		path:   path,
		codec:  codec.ForPath(path),
		watch:  watch,
		logger: logger,
	}
}

// Name returns the source identifier
func (s *FileSource) Name() string {
	return "file"
}

// Path returns the snapshot file path
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads and decodes the file
func (s *FileSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := s.codec.Parse(s.Name(), f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

// Watching returns true if the file is watched for changes
func (s *FileSource) Watching() bool {
	return s.watch
}

// Watch calls onChange whenever the file is written or replaced
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	return watcher.New(s.path, onChange, s.logger).Watch(ctx)
}
