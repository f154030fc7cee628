package graph

import (
	"github.com/samber/lo"

	"github.com/dd0wney/orbitgraph/pkg/logging"
)

// View is the node and link collection a layout mode works on.
type View struct {
	Nodes []*Node
	Links []Link
}

// Adapter derives per-mode views from a snapshot.
type Adapter struct {
	logger logging.Logger
}

// NewAdapter creates an adapter. A nil logger discards output.
func NewAdapter(logger logging.Logger) *Adapter {
	return &Adapter{logger: logging.OrNop(logger).With(logging.Component("graph_adapter"))}
}

// Solar returns every node with one (center, group) link per group.
func (a *Adapter) Solar(s *Snapshot) View {
	center := s.Center()
	groups := s.Groups()
	v := View{
		Nodes: s.Nodes(),
		Links: lo.Map(groups, func(g *Node, _ int) Link {
			return Link{Source: center.ID, Target: g.ID, Weight: 1}
		}),
	}
	a.logger.Debug("solar view", logging.SnapshotID(s.Generation), logging.Count(len(v.Nodes)))
	return v
}

// Mesh returns the group nodes only. Links are left empty; the mesh engine
// synthesizes them.
func (a *Adapter) Mesh(s *Snapshot) View {
	v := View{
		Nodes: lo.Filter(s.Nodes(), func(n *Node, _ int) bool { return !n.IsCenter }),
	}
	a.logger.Debug("mesh view", logging.SnapshotID(s.Generation), logging.Count(len(v.Nodes)))
	return v
}
