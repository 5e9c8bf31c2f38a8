package topology

import (
	"fmt"

	"github.com/charmbracelet/log"

	"topowatch/internal/domain"
)

// Result summarizes one reconciliation cycle
type Result struct {
	// TopologyChanged is true if any node or edge was inserted or removed.
	// Pure field updates leave it false.
	TopologyChanged bool `json:"topology_changed"`

	Inserted     int `json:"inserted"`
	Placeholders int `json:"placeholders"`
	Updated      int `json:"updated"`
	Removed      int `json:"removed"`
	Demoted      int `json:"demoted"`
	EdgesAdded   int `json:"edges_added"`
	EdgesRemoved int `json:"edges_removed"`
	Dropped      int `json:"dropped"`
}

func (r Result) String() string {
	return fmt.Sprintf("inserted=%d placeholders=%d updated=%d removed=%d demoted=%d edges=+%d/-%d dropped=%d changed=%v",
		r.Inserted, r.Placeholders, r.Updated, r.Removed, r.Demoted, r.EdgesAdded, r.EdgesRemoved, r.Dropped, r.TopologyChanged)
}

// Reconciler merges snapshots into a Store
type Reconciler struct {
	store  *Store
	logger *log.Logger
}

// NewReconciler creates a reconciler that owns writes to store
func NewReconciler(store *Store, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// Store returns the store being reconciled
func (r *Reconciler) Store() *Store {
	return r.store
}

// Reconcile merges snap into the store. A nil or empty snapshot carries no
// records, so every node is dropped; callers skip Reconcile entirely when
// the fetch itself failed.
func (r *Reconciler) Reconcile(snap *domain.Snapshot) Result {
	var res Result
	s := r.store

	s.ClearMarks()

	if snap != nil {
		res.Dropped = len(snap.Malformed)
		for _, m := range snap.Malformed {
			r.logger.Warn("dropped malformed record", "index", m.Index, "err", m.Error)
		}

		for _, rec := range snap.Records {
			if err := rec.Validate(); err != nil {
				r.logger.Warn("dropped record", "nid", rec.NID, "err", err)
				res.Dropped++
				continue
			}
			r.apply(rec, &res)
		}
	}

	// A terminal kept only by someone else's declaration has lost its own
	// record, so it falls back to a placeholder in place.
	for _, n := range s.Nodes() {
		if n.Keep && !n.Matched && n.Terminal() {
			r.logger.Debug("demoting terminal to placeholder", "nid", n.NID)
			n.Forget()
			res.Demoted++
		}
	}

	// Nodes go one at a time; positions still pending removal shift with each call.
	for pos := 0; pos < s.Len(); pos++ {
		if s.Node(pos).Keep {
			continue
		}
		r.logger.Debug("pruning node", "nid", s.Node(pos).NID, "position", pos)
		s.RemoveAt(pos)
		pos--
		res.Removed++
	}

	res.EdgesRemoved = s.RemoveEdgesFunc(func(e *domain.Edge) bool {
		if !e.Keep {
			return true
		}
		_, srcLive := s.Find(e.Source)
		_, dstLive := s.Find(e.Target)
		return !srcLive || !dstLive
	})

	if err := s.CheckIntegrity(); err != nil {
		panic(fmt.Sprintf("topology: store inconsistent after reconcile: %v", err))
	}

	res.TopologyChanged = res.Inserted > 0 || res.Removed > 0 || res.Demoted > 0 || res.EdgesAdded > 0 || res.EdgesRemoved > 0
	return res
}

// apply matches one record by identity, merging or inserting it
func (r *Reconciler) apply(rec domain.Record, res *Result) {
	s := r.store

	if pos, ok := s.Find(rec.NID); ok {
		node := s.Node(pos)
		node.Merge(rec)
		node.Keep = true
		node.Matched = true
		res.Updated++
		if node.Terminal() {
			r.resolveEdges(pos, res)
		}
		return
	}

	node := domain.NewKnownNode(rec)
	node.Keep = true
	node.Matched = true
	pos := s.Insert(node)
	res.Inserted++
	if node.Terminal() {
		r.resolveEdges(pos, res)
	}
}
