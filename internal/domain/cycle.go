package domain

import "time"

// CycleOutcome describes how a reconciliation cycle ended
type CycleOutcome string

const (
	CycleReconciled  CycleOutcome = "reconciled"   // Snapshot merged and published
	CycleFetchFailed CycleOutcome = "fetch_failed" // Source failed, graph retained
	CycleSuperseded  CycleOutcome = "superseded"   // Newer fetch won, result discarded
)

// CycleRecord is the journal entry for one cycle
type CycleRecord struct {
	ID              string        `json:"id"`
	Seq             uint64        `json:"seq"`
	Source          string        `json:"source"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	Outcome         CycleOutcome  `json:"outcome"`
	Nodes           int           `json:"nodes"`
	Edges           int           `json:"edges"`
	Shortcuts       int           `json:"shortcuts"`
	Inserted        int           `json:"inserted"`
	Removed         int           `json:"removed"`
	Dropped         int           `json:"dropped"`
	TopologyChanged bool          `json:"topology_changed"`
	Error           string        `json:"error,omitempty"`
}
