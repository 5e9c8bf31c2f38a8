package sqlite

import (
	"database/sql"
	"time"

	"topowatch/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt stores a bool as 0 or 1
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// Cycle Row Scanner
// ============================================================================
//
// CRITICAL: Column order must match between cycleColumns, scanArgs() and
// cycleInsertArgs(). New columns are appended to the end of all three.

const cycleColumns = `id, seq, source, started_at, duration_ns, outcome,
	nodes, edges, shortcuts, inserted, removed, dropped, topology_changed, error`

// cycleRow holds all columns from a cycle query for scanning
type cycleRow struct {
	ID              string
	Seq             int64
	Source          string
	StartedAt       int64
	DurationNS      int64
	Outcome         string
	Nodes           int
	Edges           int
	Shortcuts       int
	Inserted        int
	Removed         int
	Dropped         int
	TopologyChanged int
	Error           sql.NullString
}

// scanArgs returns pointers for rows.Scan in cycleColumns order
func (r *cycleRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID, &r.Seq, &r.Source, &r.StartedAt, &r.DurationNS, &r.Outcome,
		&r.Nodes, &r.Edges, &r.Shortcuts, &r.Inserted, &r.Removed, &r.Dropped,
		&r.TopologyChanged, &r.Error,
	}
}

// toDomain converts the scanned row to a domain.CycleRecord
func (r *cycleRow) toDomain() domain.CycleRecord {
	return domain.CycleRecord{
		ID:              r.ID,
		Seq:             uint64(r.Seq),
		Source:          r.Source,
		StartedAt:       time.Unix(0, r.StartedAt).UTC(),
		Duration:        time.Duration(r.DurationNS),
		Outcome:         domain.CycleOutcome(r.Outcome),
		Nodes:           r.Nodes,
		Edges:           r.Edges,
		Shortcuts:       r.Shortcuts,
		Inserted:        r.Inserted,
		Removed:         r.Removed,
		Dropped:         r.Dropped,
		TopologyChanged: r.TopologyChanged != 0,
		Error:           nullToString(r.Error),
	}
}

// cycleInsertArgs returns the insert values in cycleColumns order
func cycleInsertArgs(rec domain.CycleRecord) []interface{} {
	return []interface{}{
		rec.ID,
		int64(rec.Seq),
		rec.Source,
		rec.StartedAt.UnixNano(),
		int64(rec.Duration),
		string(rec.Outcome),
		rec.Nodes,
		rec.Edges,
		rec.Shortcuts,
		rec.Inserted,
		rec.Removed,
		rec.Dropped,
		boolToInt(rec.TopologyChanged),
		stringToNull(rec.Error),
	}
}
