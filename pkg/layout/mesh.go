package layout

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/logging"
)

// latticeNeighbours is the ring-lattice half degree: each node links to the
// next two nodes in id order.
const latticeNeighbours = 2

// PhysicsContract is the tuning the Mesh host must apply to its force
// simulation. The mesh engine only supplies structure.
type PhysicsContract struct {
	// Charge is the many-body strength; negative values repel.
	Charge         float64
	LinkDistance   float64
	LinkStrength   float64
	CenterStrength float64
	// FitPadding is the screen padding used when fitting the view to content.
	FitPadding float64
	// FitDelay is how long after layout the host should fit the view.
	FitDelay time.Duration
}

// DefaultPhysics returns strong repulsion, long rest length and a weak pull
// toward the origin.
func DefaultPhysics() PhysicsContract {
	return PhysicsContract{
		Charge:         -400,
		LinkDistance:   150,
		LinkStrength:   0.3,
		CenterStrength: 0.05,
		FitPadding:     40,
		FitDelay:       500 * time.Millisecond,
	}
}

// Attempts is the number of directed lattice edges generated for n nodes.
func Attempts(n int) int {
	return min(latticeNeighbours*n, n*(n-1))
}

// RingLattice links node i to (i+1) mod n and (i+2) mod n. The first return
// is every directed attempt in generation order; the second is the same set
// with undirected duplicates removed. Self loops, possible only when n <= 2,
// are skipped.
func RingLattice(ids []string) (attempts, links []graph.Link) {
	n := len(ids)
	for i := 0; i < n; i++ {
		for k := 1; k <= latticeNeighbours; k++ {
			j := (i + k) % n
			if j == i {
				continue
			}
			attempts = append(attempts, graph.Link{Source: ids[i], Target: ids[j], Weight: 1})
		}
	}
	links = lo.UniqBy(attempts, func(l graph.Link) string {
		a, b := l.Source, l.Target
		if b < a {
			a, b = b, a
		}
		return a + "\x00" + b
	})
	return attempts, links
}

// MeshLayout is the seed handed to the force simulation.
type MeshLayout struct {
	Nodes    []*graph.Node
	Links    []graph.Link
	Attempts []graph.Link
	Physics  PhysicsContract
}

// MeshEngine builds ring-lattice seeds from the mesh view of a snapshot.
type MeshEngine struct {
	physics PhysicsContract
	logger  logging.Logger
}

// NewMeshEngine creates a mesh engine publishing DefaultPhysics.
func NewMeshEngine(logger logging.Logger) *MeshEngine {
	return &MeshEngine{
		physics: DefaultPhysics(),
		logger:  logging.OrNop(logger).With(logging.Component("mesh")),
	}
}

// Physics returns the tuning the host must apply.
func (m *MeshEngine) Physics() PhysicsContract {
	return m.physics
}

// Build sorts the view's nodes by id, strips the center and every pin, and
// synthesizes the lattice. The view's own links are ignored.
func (m *MeshEngine) Build(view graph.View) MeshLayout {
	nodes := lo.Filter(view.Nodes, func(n *graph.Node, _ int) bool { return !n.IsCenter })
	slices.SortFunc(nodes, func(a, b *graph.Node) int { return strings.Compare(a.ID, b.ID) })
	for _, n := range nodes {
		n.Unpin()
	}

	ids := lo.Map(nodes, func(n *graph.Node, _ int) string { return n.ID })
	attempts, links := RingLattice(ids)

	m.logger.Info("mesh lattice",
		logging.Count(len(nodes)),
		logging.Int("links", len(links)),
		logging.Int("attempts", len(attempts)),
	)
	return MeshLayout{
		Nodes:    nodes,
		Links:    links,
		Attempts: attempts,
		Physics:  m.physics,
	}
}
