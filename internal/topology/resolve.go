package topology

import "topowatch/internal/domain"

// resolveEdges ensures an edge, and if needed a placeholder node, exists for
// every declared neighbor of the terminal node at pos. It runs before any
// removal in the cycle, so positions it sees are still valid.
func (r *Reconciler) resolveEdges(pos int, res *Result) {
	s := r.store
	node := s.Node(pos)

	for _, nb := range node.Neighbors() {
		if !nb.Connected() || nb.N == node.NID {
			continue
		}

		target, ok := s.Find(nb.N)
		if !ok {
			placeholder := domain.NewPlaceholder(nb.N)
			placeholder.Keep = true
			s.Insert(placeholder)
			res.Inserted++
			res.Placeholders++
			r.linkEdge(node.NID, nb.N, res)
			continue
		}

		neighbor := s.Node(target)
		if neighbor.Terminal() {
			// Identities are unique, so a declared terminal is linked directly
			// rather than shadowed by a placeholder. Reconcile demotes it if
			// its own record never arrives this cycle.
			r.logger.Debug("neighbor is terminal", "nid", node.NID, "neighbor", nb.N)
		}
		neighbor.Keep = true
		r.linkEdge(node.NID, nb.N, res)
	}
}

// linkEdge marks the edge from source to target, creating it if absent
func (r *Reconciler) linkEdge(source, target domain.NID, res *Result) {
	if e, ok := r.store.FindEdge(source, target); ok {
		e.Keep = true
		return
	}
	e := domain.NewEdge(source, target)
	e.Keep = true
	r.store.AddEdge(e)
	res.EdgesAdded++
}
