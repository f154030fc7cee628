package graph

// Record is a node as supplied by the directory export, before layout.
type Record struct {
	ID          string `yaml:"id" validate:"required,max=256"`
	Name        string `yaml:"name" validate:"max=512"`
	Description string `yaml:"description,omitempty" validate:"max=2048"`
	PhotoURL    string `yaml:"photo,omitempty" validate:"omitempty,photoref"`
	IsCenter    bool   `yaml:"center,omitempty"`
}

// Node is a graph entity together with the layout state it owns. Layout
// engines and the physics simulation mutate the layout fields in place;
// identity fields never change after the snapshot is built.
type Node struct {
	ID          string
	Name        string
	Description string
	PhotoURL    string
	IsCenter    bool

	// FX and FY pin the node; the physics simulation will not move a pinned axis.
	FX, FY *float64

	// Current position, written by the active engine or simulation.
	X, Y float64
	// Velocity, used only by the physics simulation.
	VX, VY float64

	OrbitAngle float64
	AngleSet   bool
	RadiusX    float64
	RadiusY    float64
	OrbitSpeed float64
	StaticX    float64
	StaticY    float64
	StaticSet  bool
}

// Pin fixes the node at (x, y).
func (n *Node) Pin(x, y float64) {
	n.FX, n.FY = &x, &y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
}

// Unpin releases any fixed position.
func (n *Node) Unpin() {
	n.FX, n.FY = nil, nil
}

// Pinned reports whether both axes are fixed.
func (n *Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// Label is the text drawn under the node: the name, or the id when unnamed.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Link is an undirected connection between two node ids.
type Link struct {
	Source string
	Target string
	Weight float64
}
