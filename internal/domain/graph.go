package domain

import "time"

// Publication is the immutable graph handed to renderers after a
// reconciliation cycle
type Publication struct {
	Cycle           uint64         `json:"cycle"`
	CycleID         string         `json:"cycle_id"`
	Source          string         `json:"source,omitempty"`
	PublishedAt     time.Time      `json:"published_at"`
	Nodes           []NodeView     `json:"nodes"`
	Edges           []EdgePosition `json:"edges"`
	Shortcuts       []Shortcut     `json:"shortcuts"`
	TopologyChanged bool           `json:"topology_changed"`
}

// NewPublication creates an empty publication, used before the first cycle
func NewPublication() *Publication {
	return &Publication{
		Nodes:     make([]NodeView, 0),
		Edges:     make([]EdgePosition, 0),
		Shortcuts: make([]Shortcut, 0),
	}
}

// Node returns the published node at pos
func (p *Publication) Node(pos int) (NodeView, bool) {
	if pos < 0 || pos >= len(p.Nodes) {
		return NodeView{}, false
	}
	return p.Nodes[pos], true
}

// Find returns the published node with the given identity
func (p *Publication) Find(nid NID) (NodeView, bool) {
	for _, n := range p.Nodes {
		if n.NID == nid {
			return n, true
		}
	}
	return NodeView{}, false
}

// VisibleCount returns the number of nodes carrying display attributes
func (p *Publication) VisibleCount() int {
	count := 0
	for _, n := range p.Nodes {
		if n.Visible {
			count++
		}
	}
	return count
}
