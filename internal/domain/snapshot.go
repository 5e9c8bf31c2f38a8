package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MalformedRecord describes a snapshot record that was dropped
type MalformedRecord struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Snapshot is one complete description of the currently known nodes,
// in the order the source reported them
type Snapshot struct {
	Source    string            `json:"source,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
	Records   []Record          `json:"records"`
	Malformed []MalformedRecord `json:"malformed,omitempty"`
}

// NewSnapshot creates an empty snapshot from the given source
func NewSnapshot(source string) *Snapshot {
	return &Snapshot{
		Source:    source,
		FetchedAt: time.Now(),
		Records:   make([]Record, 0),
	}
}

// AddRecord appends a record to the snapshot
func (s *Snapshot) AddRecord(rec Record) {
	s.Records = append(s.Records, rec)
}

// ParseSnapshot decodes a JSON array of node records. A null document is an
// empty snapshot. Records that fail to decode are dropped and listed in
// Malformed; they never abort the rest of the document.
func ParseSnapshot(source string, data []byte) (*Snapshot, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snap := NewSnapshot(source)
	for i, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			snap.Malformed = append(snap.Malformed, MalformedRecord{Index: i, Error: err.Error()})
			continue
		}
		snap.AddRecord(rec)
	}
	return snap, nil
}
