package repository

import (
	"context"

	"topowatch/internal/domain"
)

// CycleJournal records one entry per reconciliation cycle. It is an audit
// trail only; graph state is never restored from it.
type CycleJournal interface {
	RecordCycle(ctx context.Context, rec domain.CycleRecord) error

	// ListCycles returns up to limit records, newest first. A non-positive
	// limit returns every record.
	ListCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error)

	// Close releases resources
	Close() error
}
