package adapter

import (
	"context"
	"errors"

	"topowatch/internal/domain"
)

// ErrSuperseded is returned for a cycle whose fetch was overtaken by a newer one.
// Its snapshot is discarded without reconciliation.
var ErrSuperseded = errors.New("fetch superseded")

// Source produces complete topology snapshots
type Source interface {
	// Name returns the identifier used in logs, metrics and the journal
	Name() string

	// Fetch retrieves one complete snapshot. An error means nothing was
	// learned and the previous graph must be retained.
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}

// CycleFunc runs one fetch and reconcile cycle against a source
type CycleFunc func(ctx context.Context, src Source) error

// Watchable sources can signal that a new snapshot is available
type Watchable interface {
	Source

	// Watching returns false if change notification is disabled
	Watching() bool

	// Watch blocks until ctx is done, calling onChange whenever the
	// source's contents change
	Watch(ctx context.Context, onChange func()) error
}

// SourceInfo provides read-only information about the configured source
type SourceInfo struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Watching bool   `json:"watching"`
}
