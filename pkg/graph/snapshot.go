package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dd0wney/orbitgraph/pkg/validation"
)

// Snapshot is an arena of nodes indexed by id. The center node always sits
// at index 0; group nodes follow in source order, so a group's layout index
// is its arena index minus one.
type Snapshot struct {
	Generation string

	nodes []Node
	index map[string]int
}

// NewSnapshot validates records and builds a snapshot. Exactly one record
// must be flagged as center and ids must be unique.
func NewSnapshot(records []Record) (*Snapshot, error) {
	centers := 0
	for i := range records {
		if err := validation.Struct(&records[i]); err != nil {
			return nil, newError("build", records[i].ID, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		}
		if records[i].IsCenter {
			centers++
		}
	}
	switch {
	case centers == 0:
		return nil, newError("build", "", ErrNoCenter)
	case centers > 1:
		return nil, newError("build", "", ErrMultipleCenters)
	}

	s := &Snapshot{
		Generation: uuid.NewString(),
		nodes:      make([]Node, 1, len(records)),
		index:      make(map[string]int, len(records)),
	}
	for _, r := range records {
		if _, dup := s.index[r.ID]; dup {
			return nil, newError("build", r.ID, ErrDuplicateNode)
		}
		n := Node{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			PhotoURL:    r.PhotoURL,
			IsCenter:    r.IsCenter,
		}
		if r.IsCenter {
			s.nodes[0] = n
			s.index[r.ID] = 0
			continue
		}
		s.index[r.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}
	return s, nil
}

// Len returns the number of nodes including the center.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Center returns the center node.
func (s *Snapshot) Center() *Node {
	return &s.nodes[0]
}

// Groups returns pointers to the group nodes in layout order.
func (s *Snapshot) Groups() []*Node {
	out := make([]*Node, 0, len(s.nodes)-1)
	for i := 1; i < len(s.nodes); i++ {
		out = append(out, &s.nodes[i])
	}
	return out
}

// Nodes returns pointers to every node, center first.
func (s *Snapshot) Nodes() []*Node {
	out := make([]*Node, len(s.nodes))
	for i := range s.nodes {
		out[i] = &s.nodes[i]
	}
	return out
}

// Lookup returns the node with the given id.
func (s *Snapshot) Lookup(id string) (*Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.nodes[i], true
}

// MustLookup is Lookup returning an ErrUnknownNode error instead of a flag.
func (s *Snapshot) MustLookup(id string) (*Node, error) {
	n, ok := s.Lookup(id)
	if !ok {
		return nil, newError("lookup", id, ErrUnknownNode)
	}
	return n, nil
}

// CarryLayoutState copies orbit angles and physics positions from prev for
// every node id present in both snapshots. Nodes new to s keep zero state
// and receive fresh angles on their first layout pass.
func (s *Snapshot) CarryLayoutState(prev *Snapshot) int {
	if prev == nil {
		return 0
	}
	carried := 0
	for i := range s.nodes {
		old, ok := prev.Lookup(s.nodes[i].ID)
		if !ok {
			continue
		}
		n := &s.nodes[i]
		n.OrbitAngle, n.AngleSet = old.OrbitAngle, old.AngleSet
		n.X, n.Y = old.X, old.Y
		n.VX, n.VY = old.VX, old.VY
		carried++
	}
	return carried
}
