package topology

import "topowatch/internal/domain"

type positionPair struct {
	lo, hi int
}

// Collapse derives shortcut edges that hide one layer of intermediate nodes.
// For every stored edge the terminal endpoint is near and the other is far;
// when neither or both endpoints are intermediate the target is far. Each
// other edge touching far yields a shortcut from near to its opposite end.
// Shortcuts are recomputed from the store on every call and never stored.
func Collapse(s *Store) []domain.Shortcut {
	adjacent := make(map[domain.NID][]*domain.Edge, s.Len())
	for _, e := range s.Edges() {
		adjacent[e.Source] = append(adjacent[e.Source], e)
		if e.Target != e.Source {
			adjacent[e.Target] = append(adjacent[e.Target], e)
		}
	}

	seen := make(map[positionPair]struct{})
	out := make([]domain.Shortcut, 0)

	for _, e := range s.Edges() {
		near, far := nearFar(s, e)
		nearPos, ok := s.Find(near)
		if !ok {
			continue
		}

		for _, other := range adjacent[far] {
			if other == e {
				continue
			}
			opposite := other.Opposite(far)
			if opposite == near {
				continue
			}
			oppPos, ok := s.Find(opposite)
			if !ok {
				continue
			}

			key := positionPair{lo: nearPos, hi: oppPos}
			if key.lo > key.hi {
				key.lo, key.hi = key.hi, key.lo
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.Shortcut{Sid: nearPos, Tid: oppPos})
		}
	}
	return out
}

func nearFar(s *Store, e *domain.Edge) (near, far domain.NID) {
	if terminal(s, e.Target) && !terminal(s, e.Source) {
		return e.Target, e.Source
	}
	return e.Source, e.Target
}

func terminal(s *Store, nid domain.NID) bool {
	pos, ok := s.Find(nid)
	if !ok {
		return false
	}
	return s.Node(pos).Terminal()
}
