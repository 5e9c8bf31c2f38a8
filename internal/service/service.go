package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"topowatch/internal/adapter"
	"topowatch/internal/domain"
	"topowatch/internal/metrics"
	"topowatch/internal/topology"
)

// ErrNotFound is returned when a published node does not exist
var ErrNotFound = errors.New("not found")

// recentCycles is how many cycle records are kept in memory
const recentCycles = 100

// Journal records one entry per cycle
type Journal interface {
	RecordCycle(ctx context.Context, rec domain.CycleRecord) error
	ListCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error)
}

// Options configures a TopologyService
type Options struct {
	// Journal is optional; without one only recent cycles are kept in memory
	Journal Journal
	Bus     *EventBus
	Logger  *log.Logger
	// DensityMax is the default view threshold
	DensityMax int
}

// TopologyService owns the live graph. Cycles are serialized; readers only
// ever see immutable publications.
type TopologyService struct {
	mu         sync.Mutex
	store      *topology.Store
	reconciler *topology.Reconciler
	seq        uint64
	pubCount   uint64
	recent     []domain.CycleRecord

	policy  topology.Policy
	journal Journal
	bus     *EventBus
	logger  *log.Logger

	generation atomic.Uint64
	published  atomic.Pointer[domain.Publication]
}

// NewTopologyService creates a service with an empty graph
func NewTopologyService(opts Options) *TopologyService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	bus := opts.Bus
	if bus == nil {
		bus = NewEventBus()
	}

	store := topology.NewStore()
	s := &TopologyService{
		store:      store,
		reconciler: topology.NewReconciler(store, logger),
		policy:     topology.NewPolicy(opts.DensityMax),
		journal:    opts.Journal,
		bus:        bus,
		logger:     logger,
	}
	s.published.Store(domain.NewPublication())
	return s
}

// Run adapts RunCycle to adapter.CycleFunc
func (s *TopologyService) Run(ctx context.Context, src adapter.Source) error {
	_, err := s.RunCycle(ctx, src)
	return err
}

// RunCycle fetches a snapshot from src and, unless the fetch failed or a
// newer fetch started meanwhile, reconciles it and publishes the result.
func (s *TopologyService) RunCycle(ctx context.Context, src adapter.Source) (domain.CycleRecord, error) {
	gen := s.generation.Add(1)
	start := time.Now()
	rec := domain.CycleRecord{
		ID:        uuid.NewString(),
		Source:    src.Name(),
		StartedAt: start,
	}

	snap, fetchErr := src.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec.Seq = s.seq

	if fetchErr != nil {
		rec.Outcome = domain.CycleFetchFailed
		rec.Error = fetchErr.Error()
		rec.Duration = time.Since(start)
		s.finish(ctx, rec)

		s.logger.Warn("fetch failed, keeping previous graph", "source", rec.Source, "err", fetchErr)
		s.bus.Publish(Event{
			Type:    EventFetchFailed,
			Payload: FetchFailed{CycleID: rec.ID, Source: rec.Source, Error: rec.Error},
		})
		return rec, fmt.Errorf("fetch from %s: %w", rec.Source, fetchErr)
	}

	if s.generation.Load() != gen {
		rec.Outcome = domain.CycleSuperseded
		rec.Duration = time.Since(start)
		s.finish(ctx, rec)

		s.logger.Debug("discarding superseded snapshot", "source", rec.Source, "cycle", rec.Seq)
		s.bus.Publish(Event{Type: EventCycleSuperseded, Payload: map[string]string{"cycle_id": rec.ID}})
		return rec, adapter.ErrSuperseded
	}

	result := s.reconciler.Reconcile(snap)
	pub := s.publish(rec, result.TopologyChanged)

	rec.Outcome = domain.CycleReconciled
	rec.Duration = time.Since(start)
	rec.Nodes = len(pub.Nodes)
	rec.Edges = len(pub.Edges)
	rec.Shortcuts = len(pub.Shortcuts)
	rec.Inserted = result.Inserted
	rec.Removed = result.Removed
	rec.Dropped = result.Dropped
	rec.TopologyChanged = result.TopologyChanged
	s.finish(ctx, rec)

	mode, visible := s.policy.Select(pub.Nodes, nil)
	s.logger.Info("cycle reconciled",
		"source", rec.Source, "cycle", pub.Cycle, "nodes", rec.Nodes, "edges", rec.Edges,
		"shortcuts", rec.Shortcuts, "changed", rec.TopologyChanged, "dropped", rec.Dropped,
		"duration", rec.Duration.Round(time.Millisecond))
	s.logger.Debug("reconcile result", "result", result.String())

	s.bus.Publish(Event{
		Type: EventGraphPublished,
		Payload: GraphPublished{
			Cycle:           pub.Cycle,
			CycleID:         pub.CycleID,
			Source:          pub.Source,
			Nodes:           rec.Nodes,
			Edges:           rec.Edges,
			Shortcuts:       rec.Shortcuts,
			Visible:         visible,
			Mode:            string(mode),
			TopologyChanged: pub.TopologyChanged,
		},
	})
	return rec, nil
}

// publish derives the immutable publication from the store. Must hold mu.
func (s *TopologyService) publish(rec domain.CycleRecord, changed bool) *domain.Publication {
	edges, err := s.store.EdgePositions()
	if err != nil {
		panic(fmt.Sprintf("service: publish: %v", err))
	}

	s.pubCount++
	pub := &domain.Publication{
		Cycle:           s.pubCount,
		CycleID:         rec.ID,
		Source:          rec.Source,
		PublishedAt:     time.Now(),
		Nodes:           s.store.Views(),
		Edges:           edges,
		Shortcuts:       topology.Collapse(s.store),
		TopologyChanged: changed,
	}
	s.published.Store(pub)
	return pub
}

// finish journals and counts a completed cycle. Must hold mu.
func (s *TopologyService) finish(ctx context.Context, rec domain.CycleRecord) {
	metrics.ObserveCycle(rec)

	s.recent = append(s.recent, rec)
	if len(s.recent) > recentCycles {
		s.recent = s.recent[len(s.recent)-recentCycles:]
	}

	if s.journal == nil {
		return
	}
	// A cancelled request context must not lose the journal entry
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.journal.RecordCycle(jctx, rec); err != nil {
		s.logger.Error("failed to journal cycle", "cycle", rec.ID, "err", err)
	}
}

// Current returns the latest publication. Before the first cycle it is empty.
func (s *TopologyService) Current() *domain.Publication {
	return s.published.Load()
}

// Node returns the published node with the given identity
func (s *TopologyService) Node(nid domain.NID) (domain.NodeView, error) {
	v, ok := s.Current().Find(nid)
	if !ok {
		return domain.NodeView{}, fmt.Errorf("node %s %w", nid, ErrNotFound)
	}
	return v, nil
}

// Search returns the published nodes matching key and value. An empty
// value matches every node.
func (s *TopologyService) Search(key, value string) []domain.NodeView {
	nodes := s.Current().Nodes
	if value == "" {
		return nodes
	}
	out := make([]domain.NodeView, 0)
	for _, v := range nodes {
		n := domain.Node{NID: v.NID, Record: v.Record}
		if n.Match(key, value) {
			out = append(out, v)
		}
	}
	return out
}

// Mode applies the view policy to the latest publication. A non-positive
// threshold uses the configured default.
func (s *TopologyService) Mode(threshold int, visible func(domain.NodeView) bool) (topology.Mode, int) {
	policy := s.policy
	if threshold > 0 {
		policy = topology.NewPolicy(threshold)
	}
	return policy.Select(s.Current().Nodes, visible)
}

// DensityMax returns the configured default view threshold
func (s *TopologyService) DensityMax() int {
	return s.policy.Threshold
}

// Cycles returns the most recent cycle records, newest first
func (s *TopologyService) Cycles(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	if limit <= 0 || limit > recentCycles {
		limit = recentCycles
	}
	if s.journal != nil {
		return s.journal.ListCycles(ctx, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CycleRecord, 0, limit)
	for i := len(s.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.recent[i])
	}
	return out, nil
}
