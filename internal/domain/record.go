package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// NID is the stable identity of a node in a topology snapshot
type NID int64

// Unconnected is the reserved neighbor identity meaning "no link in this slot".
// It is never a valid node identity.
const Unconnected NID = -1

// String returns the decimal form of the identity
func (n NID) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// ErrMalformedRecord is returned when a snapshot record cannot be used
var ErrMalformedRecord = errors.New("malformed record")

// Field names used on the wire, matching the discovery server's JSON
const (
	FieldNID   = "NID"
	FieldEdges = "Edges"
	FieldD     = "D"
)

// Neighbor is one neighbor declaration slot of a terminal node
type Neighbor struct {
	N NID               `json:"N"`
	D map[string]string `json:"D,omitempty"`
}

// Connected returns true if the slot links to a neighbor
func (nb Neighbor) Connected() bool {
	return nb.N != Unconnected
}

// Record is one node record from a snapshot. Only fields present on the
// wire are marked present; a merge overwrites present fields only.
type Record struct {
	NID   NID
	Edges []Neighbor
	D     map[string]string
	// Extra holds every other field of the record, untouched
	Extra map[string]json.RawMessage

	hasEdges bool
	hasD     bool
}

// NewRecord creates a record carrying only an identity
func NewRecord(nid NID) Record {
	return Record{NID: nid}
}

// SetEdges sets the neighbor declarations, making the record terminal
func (r *Record) SetEdges(edges []Neighbor) {
	if edges == nil {
		edges = []Neighbor{}
	}
	r.Edges = edges
	r.hasEdges = true
}

// SetD sets the display attributes
func (r *Record) SetD(d map[string]string) {
	if d == nil {
		d = map[string]string{}
	}
	r.D = d
	r.hasD = true
}

// SetExtra stores a pass-through field
func (r *Record) SetExtra(key string, raw json.RawMessage) {
	if r.Extra == nil {
		r.Extra = make(map[string]json.RawMessage)
	}
	r.Extra[key] = raw
}

// HasEdges returns true if the record carries a neighbor declaration list
func (r Record) HasEdges() bool {
	return r.hasEdges
}

// HasD returns true if the record carries display attributes
func (r Record) HasD() bool {
	return r.hasD
}

// Validate checks that the record carries a usable identity
func (r Record) Validate() error {
	if r.NID == Unconnected {
		return fmt.Errorf("%w: identity %s is reserved", ErrMalformedRecord, r.NID)
	}
	return nil
}

// Merge overwrites the fields present in src, leaving the rest untouched
func (r *Record) Merge(src Record) {
	r.NID = src.NID
	if src.hasEdges {
		r.SetEdges(src.Edges)
	}
	if src.hasD {
		r.SetD(src.D)
	}
	for k, v := range src.Extra {
		r.SetExtra(k, v)
	}
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	out := Record{NID: r.NID, hasEdges: r.hasEdges, hasD: r.hasD}
	if r.Edges != nil {
		out.Edges = make([]Neighbor, len(r.Edges))
		for i, nb := range r.Edges {
			out.Edges[i] = Neighbor{N: nb.N, D: cloneStrings(nb.D)}
		}
	}
	out.D = cloneStrings(r.D)
	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// UnmarshalJSON decodes a record object, keeping unknown fields in Extra.
// A record without an NID field is malformed.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: record is null", ErrMalformedRecord)
	}

	rawID, ok := fields[FieldNID]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrMalformedRecord, FieldNID)
	}
	var nid NID
	if err := json.Unmarshal(rawID, &nid); err != nil {
		return fmt.Errorf("%w: invalid %s: %v", ErrMalformedRecord, FieldNID, err)
	}

	rec := NewRecord(nid)
	for key, raw := range fields {
		switch key {
		case FieldNID:
		case FieldEdges:
			if isNull(raw) {
				continue
			}
			var edges []Neighbor
			if err := json.Unmarshal(raw, &edges); err != nil {
				return fmt.Errorf("%w: invalid %s: %v", ErrMalformedRecord, FieldEdges, err)
			}
			rec.SetEdges(edges)
		case FieldD:
			if isNull(raw) {
				continue
			}
			var d map[string]string
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("%w: invalid %s: %v", ErrMalformedRecord, FieldD, err)
			}
			rec.SetD(d)
		default:
			rec.SetExtra(key, raw)
		}
	}

	if err := rec.Validate(); err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON encodes the record with its extra fields flattened back in
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldNID] = r.NID
	if r.hasEdges {
		out[FieldEdges] = r.Edges
	}
	if r.hasD {
		out[FieldD] = r.D
	}
	return json.Marshal(out)
}

// Keys returns the names of every field the record carries, sorted
func (r Record) Keys() []string {
	keys := []string{FieldNID}
	if r.hasEdges {
		keys = append(keys, FieldEdges)
	}
	if r.hasD {
		keys = append(keys, FieldD)
	}
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
