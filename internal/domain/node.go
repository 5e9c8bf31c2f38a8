package domain

import (
	"fmt"
	"strings"
)

// NodeKind tells whether a node has been resolved from its own record
type NodeKind string

const (
	// NodeKindKnown nodes carry a record from a snapshot
	NodeKindKnown NodeKind = "known"
	// NodeKindPlaceholder nodes were created from someone else's neighbor
	// declaration and carry only an identity
	NodeKindPlaceholder NodeKind = "placeholder"
)

// Node is a live element of the topology graph.
// A nil Record means the node is a placeholder.
type Node struct {
	NID    NID
	Record *Record

	// Keep marks the node as seen during the current reconciliation cycle
	Keep bool
	// Matched marks the node as carrying its own record in the current cycle.
	// A node can be kept without being matched when a neighbor declares it.
	Matched bool
}

// NewPlaceholder creates a node holding only an identity
func NewPlaceholder(nid NID) *Node {
	return &Node{NID: nid}
}

// NewKnownNode creates a node from a snapshot record
func NewKnownNode(rec Record) *Node {
	r := rec
	return &Node{NID: rec.NID, Record: &r}
}

// Kind returns whether the node is known or a placeholder
func (n *Node) Kind() NodeKind {
	if n.Record == nil {
		return NodeKindPlaceholder
	}
	return NodeKindKnown
}

// Placeholder returns true if no record has been merged into the node yet
func (n *Node) Placeholder() bool {
	return n.Record == nil
}

// Terminal returns true if the node carries a neighbor declaration list.
// It is evaluated from the current fields on every call.
func (n *Node) Terminal() bool {
	return n.Record != nil && n.Record.HasEdges()
}

// Intermediate returns true for pass-through nodes with no declared neighbors
func (n *Node) Intermediate() bool {
	return !n.Terminal()
}

// Visible returns true if the node carries display attributes
func (n *Node) Visible() bool {
	return n.Record != nil && n.Record.HasD()
}

// Neighbors returns the node's neighbor declarations
func (n *Node) Neighbors() []Neighbor {
	if n.Record == nil {
		return nil
	}
	return n.Record.Edges
}

// Merge overwrites the node's fields with those present in rec.
// A placeholder becomes a known node.
func (n *Node) Merge(rec Record) {
	if n.Record == nil {
		n.Record = &Record{NID: n.NID}
	}
	n.Record.Merge(rec)
	n.NID = rec.NID
}

// Forget drops the node's record, turning it back into a placeholder
func (n *Node) Forget() {
	n.Record = nil
}

// View returns an immutable snapshot of the node at the given position
func (n *Node) View(pos int) NodeView {
	v := NodeView{
		Position: pos,
		NID:      n.NID,
		Kind:     n.Kind(),
		Terminal: n.Terminal(),
		Visible:  n.Visible(),
	}
	if n.Record != nil {
		rec := n.Record.Clone()
		v.Record = &rec
	}
	return v
}

// Match returns true if the node matches the search key and value.
// An empty key matches the identity or any attribute value.
func (n *Node) Match(k, v string) bool {
	k = strings.ToLower(k)
	switch k {
	case "":
		if n.NID.String() == v {
			return true
		}
	case "nid":
		return n.NID.String() == v
	}

	if n.Record == nil {
		return false
	}
	for key, val := range n.Record.D {
		if (k == "" || strings.ToLower(key) == k) && strings.Contains(val, v) {
			return true
		}
	}
	for _, nb := range n.Record.Edges {
		if (k == "" || k == "n") && nb.N.String() == v {
			return true
		}
		for key, val := range nb.D {
			if (k == "" || strings.ToLower(key) == k) && strings.Contains(val, v) {
				return true
			}
		}
	}
	return false
}

// String returns a short description for logs
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.NID, n.Kind())
}

// NodeView is the published form of a node
type NodeView struct {
	Position int      `json:"position"`
	NID      NID      `json:"nid"`
	Kind     NodeKind `json:"kind"`
	Terminal bool     `json:"terminal"`
	Visible  bool     `json:"visible"`
	Record   *Record  `json:"record,omitempty"`
}
