package domain

import "fmt"

// Edge is a stored link between a terminal node and one of its declared
// neighbors. Endpoints are referenced by identity; positions are derived
// when the graph is published.
type Edge struct {
	Source NID
	Target NID

	// Keep marks the edge as seen during the current reconciliation cycle
	Keep bool
}

// NewEdge creates an edge from source to target
func NewEdge(source, target NID) *Edge {
	return &Edge{Source: source, Target: target}
}

// Touches returns true if either endpoint is nid
func (e *Edge) Touches(nid NID) bool {
	return e.Source == nid || e.Target == nid
}

// Opposite returns the endpoint across from nid
func (e *Edge) Opposite(nid NID) NID {
	if e.Source == nid {
		return e.Target
	}
	return e.Source
}

// String returns a short description for logs
func (e *Edge) String() string {
	return fmt.Sprintf("%s->%s", e.Source, e.Target)
}

// EdgePosition is a stored edge published as a pair of node positions
type EdgePosition struct {
	Sid int `json:"sid"`
	Tid int `json:"tid"`
}

// Shortcut is a derived pair of node positions connecting two nodes
// across one collapsed intermediate node
type Shortcut struct {
	Sid int `json:"sid"`
	Tid int `json:"tid"`
}
