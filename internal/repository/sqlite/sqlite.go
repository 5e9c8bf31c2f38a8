package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"topowatch/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.CycleJournal using SQLite
type Repository struct {
	db *sql.DB
}

// New opens or creates the journal database at dbPath. ":memory:" opens a
// private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		nodes INTEGER NOT NULL DEFAULT 0,
		edges INTEGER NOT NULL DEFAULT 0,
		shortcuts INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		removed INTEGER NOT NULL DEFAULT 0,
		dropped INTEGER NOT NULL DEFAULT 0,
		topology_changed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_source ON cycles(source);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
	`

	_, err := r.db.Exec(schema)
	return err
}

// RecordCycle appends one cycle record
func (r *Repository) RecordCycle(ctx context.Context, rec domain.CycleRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("cycle record has no id")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles (`+cycleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycleInsertArgs(rec)...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle %s: %w", rec.ID, err)
	}
	return nil
}

// ListCycles returns up to limit cycle records, newest first
func (r *Repository) ListCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]domain.CycleRecord, 0)
	for rows.Next() {
		var row cycleRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}
	return cycles, nil
}

// Prune deletes all but the newest keep cycle records and returns how
// many were removed
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cycles WHERE rowid NOT IN (
			SELECT rowid FROM cycles ORDER BY rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cycles: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
