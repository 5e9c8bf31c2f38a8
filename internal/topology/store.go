package topology

import (
	"errors"
	"fmt"

	"topowatch/internal/domain"
)

// ErrDanglingEdge reports an edge whose endpoint is not a live node.
// It is an internal consistency fault, never an input error.
var ErrDanglingEdge = errors.New("dangling edge")

type edgeKey struct {
	source, target domain.NID
}

// Store owns the canonical ordered node collection and the edge collection
type Store struct {
	nodes []*domain.Node
	index map[domain.NID]int

	edges     []*domain.Edge
	edgeIndex map[edgeKey]*domain.Edge
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		nodes:     make([]*domain.Node, 0),
		index:     make(map[domain.NID]int),
		edges:     make([]*domain.Edge, 0),
		edgeIndex: make(map[edgeKey]*domain.Edge),
	}
}

// Len returns the number of live nodes
func (s *Store) Len() int {
	return len(s.nodes)
}

// EdgeCount returns the number of stored edges
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// Find returns the position of the node with the given identity
func (s *Store) Find(nid domain.NID) (int, bool) {
	pos, ok := s.index[nid]
	return pos, ok
}

// Node returns the node at pos, or nil if pos is out of range
func (s *Store) Node(pos int) *domain.Node {
	if pos < 0 || pos >= len(s.nodes) {
		return nil
	}
	return s.nodes[pos]
}

// Nodes returns the live nodes in position order. The slice must not be modified.
func (s *Store) Nodes() []*domain.Node {
	return s.nodes
}

// Insert appends a node and returns its position.
// Inserting an identity that is already live is a contract violation.
func (s *Store) Insert(n *domain.Node) int {
	if pos, ok := s.index[n.NID]; ok {
		panic(fmt.Sprintf("topology: insert of live identity %s at position %d", n.NID, pos))
	}
	pos := len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.index[n.NID] = pos
	return pos
}

// RemoveAt removes the node at pos and shifts every later node down by one.
// Edge positions are derived from identities, so every edge referencing a
// later position is renumbered by this single removal.
func (s *Store) RemoveAt(pos int) {
	if pos < 0 || pos >= len(s.nodes) {
		panic(fmt.Sprintf("topology: remove at position %d of %d", pos, len(s.nodes)))
	}
	delete(s.index, s.nodes[pos].NID)
	copy(s.nodes[pos:], s.nodes[pos+1:])
	s.nodes[len(s.nodes)-1] = nil
	s.nodes = s.nodes[:len(s.nodes)-1]
	for i := pos; i < len(s.nodes); i++ {
		s.index[s.nodes[i].NID] = i
	}
}

// Edges returns the stored edges in insertion order. The slice must not be modified.
func (s *Store) Edges() []*domain.Edge {
	return s.edges
}

// FindEdge returns the edge from source to target
func (s *Store) FindEdge(source, target domain.NID) (*domain.Edge, bool) {
	e, ok := s.edgeIndex[edgeKey{source, target}]
	return e, ok
}

// AddEdge stores a new edge. Both endpoints must be live.
func (s *Store) AddEdge(e *domain.Edge) {
	key := edgeKey{e.Source, e.Target}
	if _, ok := s.edgeIndex[key]; ok {
		panic(fmt.Sprintf("topology: duplicate edge %s", e))
	}
	s.edges = append(s.edges, e)
	s.edgeIndex[key] = e
}

// RemoveEdgesFunc drops every edge for which drop returns true and
// returns how many were removed
func (s *Store) RemoveEdgesFunc(drop func(*domain.Edge) bool) int {
	kept := s.edges[:0]
	removed := 0
	for _, e := range s.edges {
		if drop(e) {
			delete(s.edgeIndex, edgeKey{e.Source, e.Target})
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.edges); i++ {
		s.edges[i] = nil
	}
	s.edges = kept
	return removed
}

// ClearMarks resets the keep and matched markers on every node and the
// keep marker on every edge
func (s *Store) ClearMarks() {
	for _, n := range s.nodes {
		n.Keep = false
		n.Matched = false
	}
	for _, e := range s.edges {
		e.Keep = false
	}
}

// EdgePosition resolves an edge into its current position pair
func (s *Store) EdgePosition(e *domain.Edge) (domain.EdgePosition, error) {
	sid, ok := s.index[e.Source]
	if !ok {
		return domain.EdgePosition{}, fmt.Errorf("%w: %s source not live", ErrDanglingEdge, e)
	}
	tid, ok := s.index[e.Target]
	if !ok {
		return domain.EdgePosition{}, fmt.Errorf("%w: %s target not live", ErrDanglingEdge, e)
	}
	return domain.EdgePosition{Sid: sid, Tid: tid}, nil
}

// EdgePositions publishes every stored edge as a position pair
func (s *Store) EdgePositions() ([]domain.EdgePosition, error) {
	out := make([]domain.EdgePosition, 0, len(s.edges))
	for _, e := range s.edges {
		p, err := s.EdgePosition(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckIntegrity verifies the identity index and that every edge endpoint is live
func (s *Store) CheckIntegrity() error {
	if len(s.index) != len(s.nodes) {
		return fmt.Errorf("index holds %d identities for %d nodes", len(s.index), len(s.nodes))
	}
	for pos, n := range s.nodes {
		if got, ok := s.index[n.NID]; !ok || got != pos {
			return fmt.Errorf("identity %s indexed at %d, stored at %d", n.NID, got, pos)
		}
	}
	for _, e := range s.edges {
		if _, err := s.EdgePosition(e); err != nil {
			return err
		}
	}
	return nil
}

// Views returns an immutable copy of every node in position order
func (s *Store) Views() []domain.NodeView {
	out := make([]domain.NodeView, len(s.nodes))
	for pos, n := range s.nodes {
		out[pos] = n.View(pos)
	}
	return out
}
