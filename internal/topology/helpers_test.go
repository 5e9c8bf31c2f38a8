package topology

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"topowatch/internal/domain"
)

func host(nid domain.NID, name string, neighbors ...domain.NID) domain.Record {
	rec := domain.NewRecord(nid)
	edges := make([]domain.Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		edges = append(edges, domain.Neighbor{N: n})
	}
	rec.SetEdges(edges)
	rec.SetD(map[string]string{"name": name})
	return rec
}

func network(nid domain.NID, cidr string) domain.Record {
	rec := domain.NewRecord(nid)
	rec.SetD(map[string]string{"cidr": cidr})
	return rec
}

func snapshot(recs ...domain.Record) *domain.Snapshot {
	snap := domain.NewSnapshot("test")
	for _, r := range recs {
		snap.AddRecord(r)
	}
	return snap
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestReconciler(t *testing.T) *Reconciler {
	t.Helper()
	return NewReconciler(NewStore(), quietLogger())
}

func positions(t *testing.T, s *Store) []domain.EdgePosition {
	t.Helper()
	edges, err := s.EdgePositions()
	if err != nil {
		t.Fatalf("edge positions: %v", err)
	}
	return edges
}

func identities(s *Store) []domain.NID {
	out := make([]domain.NID, 0, s.Len())
	for _, n := range s.Nodes() {
		out = append(out, n.NID)
	}
	return out
}
