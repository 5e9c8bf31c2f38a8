package topology

import "topowatch/internal/domain"

// DefaultDensityMax is the visible node count above which the collapsed
// topology is shown
const DefaultDensityMax = 10000

// Mode selects which edge set a renderer draws
type Mode string

const (
	ModeFull      Mode = "full"
	ModeCollapsed Mode = "collapsed"
)

// SelectMode returns ModeCollapsed when visible exceeds threshold
func SelectMode(visible, threshold int) Mode {
	if visible > threshold {
		return ModeCollapsed
	}
	return ModeFull
}

// Policy decides the view mode for a published graph. It is stateless;
// there is no hysteresis between calls.
type Policy struct {
	Threshold int
}

// NewPolicy returns a policy using threshold, or DefaultDensityMax if it is not positive
func NewPolicy(threshold int) Policy {
	if threshold <= 0 {
		threshold = DefaultDensityMax
	}
	return Policy{Threshold: threshold}
}

// Select counts the nodes accepted by visible and picks a mode.
// A nil predicate counts nodes carrying display attributes.
func (p Policy) Select(nodes []domain.NodeView, visible func(domain.NodeView) bool) (Mode, int) {
	if visible == nil {
		visible = func(v domain.NodeView) bool { return v.Visible }
	}
	count := 0
	for _, n := range nodes {
		if visible(n) {
			count++
		}
	}
	return SelectMode(count, p.Threshold), count
}
