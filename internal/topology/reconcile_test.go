package topology

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topowatch/internal/domain"
)

func TestReconcileFirstSnapshot(t *testing.T) {
	r := newTestReconciler(t)

	res := r.Reconcile(snapshot(
		host(1, "alpha", 10),
		network(10, "10.0.0.0/24"),
	))

	assert.True(t, res.TopologyChanged)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Placeholders)
	assert.Equal(t, 1, res.Updated, "network record fills the placeholder")
	assert.Equal(t, 1, res.EdgesAdded)

	s := r.Store()
	assert.Equal(t, []domain.NID{1, 10}, identities(s))
	assert.Equal(t, domain.NodeKindKnown, s.Node(1).Kind())
	assert.Equal(t, []domain.EdgePosition{{Sid: 0, Tid: 1}}, positions(t, s))
}

func TestReconcileIdempotent(t *testing.T) {
	r := newTestReconciler(t)
	snap := snapshot(
		host(1, "alpha", 10),
		host(2, "beta", 10, 11),
		network(10, "10.0.0.0/24"),
		network(11, "10.0.1.0/24"),
	)

	r.Reconcile(snap)
	beforeNodes := r.Store().Views()
	beforeEdges := positions(t, r.Store())

	res := r.Reconcile(snap)

	assert.False(t, res.TopologyChanged)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Removed)
	assert.Zero(t, res.EdgesAdded)
	assert.Zero(t, res.EdgesRemoved)
	assert.Equal(t, 4, res.Updated)

	opts := cmp.AllowUnexported(domain.Record{})
	if diff := cmp.Diff(beforeNodes, r.Store().Views(), opts); diff != "" {
		t.Errorf("nodes changed on identical snapshot (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(beforeEdges, positions(t, r.Store())); diff != "" {
		t.Errorf("edges changed on identical snapshot (-before +after):\n%s", diff)
	}
}

func TestReconcileIdentityPreserved(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(host(1, "alpha"), host(2, "beta")))
	node := r.Store().Node(1)

	renamed := host(2, "gamma")
	res := r.Reconcile(snapshot(host(1, "alpha"), renamed))

	assert.False(t, res.TopologyChanged, "pure field update")
	assert.Same(t, node, r.Store().Node(1))
	assert.Equal(t, "gamma", node.Record.D["name"])
}

func TestReconcileMergeKeepsAbsentFields(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(host(1, "alpha")))

	partial := domain.NewRecord(1)
	partial.SetEdges(nil)
	r.Reconcile(snapshot(partial))

	n := r.Store().Node(0)
	require.NotNil(t, n)
	assert.True(t, n.Visible())
	assert.Equal(t, "alpha", n.Record.D["name"])
}

func TestReconcileSpeculativeNeighbor(t *testing.T) {
	r := newTestReconciler(t)

	t.Run("undeclared neighbor becomes placeholder", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "alpha", 99)))

		assert.Equal(t, 1, res.Placeholders)
		pos, ok := r.Store().Find(99)
		require.True(t, ok)
		n := r.Store().Node(pos)
		assert.True(t, n.Placeholder())
		assert.False(t, n.Terminal())
		assert.False(t, n.Visible())
	})

	t.Run("placeholder survives while declared", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "alpha", 99)))

		assert.False(t, res.TopologyChanged)
		_, ok := r.Store().Find(99)
		assert.True(t, ok)
	})

	t.Run("placeholder pruned once undeclared", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "alpha")))

		assert.True(t, res.TopologyChanged)
		assert.Equal(t, 1, res.Removed)
		assert.Equal(t, 1, res.EdgesRemoved)
		_, ok := r.Store().Find(99)
		assert.False(t, ok)
	})
}

func TestReconcilePruneRenumbers(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(
		host(1, "a", 10),
		host(2, "b", 10),
		host(3, "c", 10),
		network(10, "10.0.0.0/24"),
	))
	require.Equal(t, []domain.NID{1, 10, 2, 3}, identities(r.Store()))

	res := r.Reconcile(snapshot(
		host(2, "b", 10),
		host(3, "c", 10),
		network(10, "10.0.0.0/24"),
	))

	assert.True(t, res.TopologyChanged)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, res.EdgesRemoved)
	assert.Equal(t, []domain.NID{10, 2, 3}, identities(r.Store()))
	assert.Equal(t, []domain.EdgePosition{{Sid: 1, Tid: 0}, {Sid: 2, Tid: 0}}, positions(t, r.Store()))
}

func TestReconcileRemovesSeveralNodes(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(host(1, "a"), host(2, "b"), host(3, "c"), host(4, "d"), host(5, "e")))

	res := r.Reconcile(snapshot(host(1, "a"), host(4, "d")))

	assert.Equal(t, 3, res.Removed)
	assert.Equal(t, []domain.NID{1, 4}, identities(r.Store()))
	require.NoError(t, r.Store().CheckIntegrity())
}

func TestReconcileSentinel(t *testing.T) {
	r := newTestReconciler(t)

	rec := domain.NewRecord(1)
	rec.SetEdges([]domain.Neighbor{{N: domain.Unconnected}, {N: 10}})
	res := r.Reconcile(snapshot(rec))

	assert.Equal(t, 1, res.Placeholders)
	assert.Equal(t, 1, res.EdgesAdded)
	_, ok := r.Store().Find(domain.Unconnected)
	assert.False(t, ok)
}

func TestReconcileSelfReference(t *testing.T) {
	r := newTestReconciler(t)
	res := r.Reconcile(snapshot(host(1, "loop", 1)))

	assert.Equal(t, 1, res.Inserted)
	assert.Zero(t, res.EdgesAdded)
}

func TestReconcileEmptySnapshot(t *testing.T) {
	tests := []struct {
		name string
		snap *domain.Snapshot
	}{
		{name: "empty", snap: snapshot()},
		{name: "nil", snap: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReconciler(t)
			r.Reconcile(snapshot(host(1, "a", 10), network(10, "10.0.0.0/24")))

			res := r.Reconcile(tt.snap)

			assert.True(t, res.TopologyChanged)
			assert.Equal(t, 2, res.Removed)
			assert.Equal(t, 1, res.EdgesRemoved)
			assert.Zero(t, r.Store().Len())
			assert.Zero(t, r.Store().EdgeCount())
		})
	}
}

func TestReconcileMalformed(t *testing.T) {
	r := newTestReconciler(t)

	snap, err := domain.ParseSnapshot("test", []byte(`[
		{"NID": 1, "Edges": [{"N": 10}], "D": {"name": "a"}},
		{"D": {"name": "no identity"}},
		{"NID": -1, "D": {"name": "sentinel"}},
		{"NID": 10, "D": {"cidr": "10.0.0.0/24"}}
	]`))
	require.NoError(t, err)
	snap.AddRecord(domain.NewRecord(domain.Unconnected))

	res := r.Reconcile(snap)

	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, []domain.NID{1, 10}, identities(r.Store()))
}

func TestReconcileTerminalNeighbor(t *testing.T) {
	r := newTestReconciler(t)

	res := r.Reconcile(snapshot(host(1, "a", 2), host(2, "b", 1)))

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Placeholders, "b is a placeholder until its own record arrives")
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.EdgesAdded)
	assert.Equal(t, []domain.NID{1, 2}, identities(r.Store()))

	t.Run("second pass links to the terminal", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "a", 2), host(2, "b", 1)))

		assert.False(t, res.TopologyChanged)
		assert.Equal(t, 2, r.Store().Len())
	})

	t.Run("declared terminal without its record becomes a placeholder", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "a", 2)))

		assert.Zero(t, res.Removed)
		assert.Equal(t, 1, res.Demoted)
		assert.Equal(t, 1, res.EdgesRemoved)
		assert.True(t, res.TopologyChanged)
		assert.Equal(t, []domain.EdgePosition{{Sid: 0, Tid: 1}}, positions(t, r.Store()))

		b := r.Store().Node(1)
		assert.True(t, b.Placeholder())
		assert.False(t, b.Terminal())
		assert.False(t, b.Visible())
		assert.Empty(t, b.Neighbors())
	})

	t.Run("record arriving again restores the terminal", func(t *testing.T) {
		res := r.Reconcile(snapshot(host(1, "a", 2), host(2, "b", 1)))

		assert.Zero(t, res.Demoted)
		assert.Equal(t, 1, res.EdgesAdded)
		assert.True(t, r.Store().Node(1).Terminal())
		assert.Equal(t, "b", r.Store().Node(1).Record.D["name"])
	})
}

func TestReconcileTerminalDeclaredBeforeItsRecord(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(host(1, "a", 2), host(2, "b", 1)))

	// 2 is resolved as a neighbor of 1 before its own record is merged
	res := r.Reconcile(snapshot(host(1, "a", 2), host(2, "b2", 1)))

	assert.Zero(t, res.Demoted)
	assert.False(t, res.TopologyChanged)
	assert.Equal(t, "b2", r.Store().Node(1).Record.D["name"])
}


func TestReconcileReclassifies(t *testing.T) {
	r := newTestReconciler(t)
	r.Reconcile(snapshot(network(10, "10.0.0.0/24"), network(11, "10.0.1.0/24")))
	require.True(t, r.Store().Node(0).Intermediate())

	promoted := domain.NewRecord(10)
	promoted.SetEdges([]domain.Neighbor{{N: 11}})
	res := r.Reconcile(snapshot(promoted, network(11, "10.0.1.0/24")))

	assert.True(t, r.Store().Node(0).Terminal())
	assert.Equal(t, 1, res.EdgesAdded)
	assert.True(t, res.TopologyChanged)
}

func TestReconcileDuplicateRecord(t *testing.T) {
	r := newTestReconciler(t)

	res := r.Reconcile(snapshot(host(1, "first"), host(1, "second")))

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "second", r.Store().Node(0).Record.D["name"])
}
