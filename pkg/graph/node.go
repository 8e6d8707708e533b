package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodeAirfoil   NodeKind = iota // single NACA section (airfoil)
	NodeBlade                     // lofted blade (blade)
	NodeTransform                 // placement (place)
	NodeGroup                     // stage or assembly (stage)
)

func (k NodeKind) String() string {
	switch k {
	case NodeAirfoil:
		return "airfoil"
	case NodeBlade:
		return "blade"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// IsPart reports whether nodes of this kind produce geometry.
func (k NodeKind) IsPart() bool {
	return k == NodeAirfoil || k == NodeBlade
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
