// Package tessellate walks a design graph and hands one mesh per placed
// part to a kernel.Sink.
package tessellate

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/chazu/turbomach/internal/logger"
	"github.com/chazu/turbomach/pkg/blade"
	"github.com/chazu/turbomach/pkg/graph"
	"github.com/chazu/turbomach/pkg/kernel"
	"github.com/chazu/turbomach/pkg/naca"
)

// Part is one mesh object created in the sink.
type Part struct {
	Name   string // mesh name; repeated placements get a #n suffix
	NodeID graph.NodeID
	Kind   graph.NodeKind
	Origin mgl64.Vec3
	Handle kernel.Handle
	Report naca.Report // substitutions made while sampling this part
}

// transformStack accumulates placements during graph traversal.
// Each entry is the world transform of its subtree.
type transformStack struct {
	mats []mgl64.Mat4
}

func newTransformStack() *transformStack {
	return &transformStack{mats: []mgl64.Mat4{mgl64.Ident4()}}
}

func (ts *transformStack) top() mgl64.Mat4 {
	return ts.mats[len(ts.mats)-1]
}

// push composes a translation and a rotation about z (degrees) onto the
// current transform. The rotation applies first.
func (ts *transformStack) push(translation mgl64.Vec3, rotation float64) {
	local := mgl64.Translate3D(translation.X(), translation.Y(), translation.Z()).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(rotation)))
	ts.mats = append(ts.mats, ts.top().Mul4(local))
}

func (ts *transformStack) pop() {
	if len(ts.mats) > 1 {
		ts.mats = ts.mats[:len(ts.mats)-1]
	}
}

// origin is the accumulated translation.
func (ts *transformStack) origin() mgl64.Vec3 {
	return ts.top().Col(3).Vec3()
}

// orient rotates local vertices by the accumulated rotation. Vertices stay
// relative to origin.
func (ts *transformStack) orient(verts []mgl64.Vec3) []mgl64.Vec3 {
	rot := ts.top().Mat3()
	if rot == mgl64.Ident3() {
		return verts
	}
	out := make([]mgl64.Vec3, len(verts))
	for i, v := range verts {
		out[i] = rot.Mul3x1(v)
	}
	return out
}

// walker carries traversal state for one Tessellate call.
type walker struct {
	g     *graph.DesignGraph
	sink  kernel.Sink
	ts    *transformStack
	names map[string]int
	parts []Part
}

// Tessellate walks every root of the design graph and creates one mesh per
// placed airfoil or blade part in sink. Airfoil parts become an outline
// (profile ring plus a closed edge loop, no faces); blade parts become the
// lofted shell. The tessellator never mutates the graph.
func Tessellate(g *graph.DesignGraph, sink kernel.Sink) ([]Part, error) {
	if g == nil {
		return nil, nil
	}

	w := &walker{
		g:     g,
		sink:  sink,
		ts:    newTransformStack(),
		names: make(map[string]int),
	}
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		if err := w.walk(root); err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
	}

	logger.Debug("tessellation finished", zap.Int("parts", len(w.parts)))
	return w.parts, nil
}

// walk recursively traverses a node and its children.
func (w *walker) walk(n *graph.Node) error {
	switch n.Kind {
	case graph.NodeAirfoil:
		return w.airfoil(n)

	case graph.NodeBlade:
		return w.blade(n)

	case graph.NodeTransform:
		return w.transform(n)

	case graph.NodeGroup:
		return w.children(n)

	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (w *walker) airfoil(n *graph.Node) error {
	data, ok := n.Data.(graph.AirfoilData)
	if !ok {
		return fmt.Errorf("airfoil node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	verts, report, err := naca.Profile(data.Params)
	if err != nil {
		return fmt.Errorf("airfoil %q: %w", partLabel(n), err)
	}
	return w.emit(n, verts, outlineEdges(len(verts)), nil, report)
}

func (w *walker) blade(n *graph.Node) error {
	data, ok := n.Data.(graph.BladeData)
	if !ok {
		return fmt.Errorf("blade node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	shell, report, err := blade.Loft(data.Params)
	if err != nil {
		return fmt.Errorf("blade %q: %w", partLabel(n), err)
	}
	return w.emit(n, shell.Vertices, nil, shell.Faces, report)
}

// emit places the geometry under the current transform and hands it to
// the sink.
func (w *walker) emit(n *graph.Node, verts []mgl64.Vec3, edges [][2]int, faces [][3]int, report naca.Report) error {
	name := w.uniqueName(partLabel(n))
	origin := w.ts.origin()

	h, err := w.sink.CreateMesh(name, origin, w.ts.orient(verts), edges, faces)
	if err != nil {
		return fmt.Errorf("%s %q: create mesh: %w", n.Kind, name, err)
	}
	report.Log(name)
	logger.Debug("part emitted",
		zap.String("name", name),
		zap.String("kind", n.Kind.String()),
		zap.Int("vertices", len(verts)),
		zap.Int("faces", len(faces)),
	)

	w.parts = append(w.parts, Part{
		Name:   name,
		NodeID: n.ID,
		Kind:   n.Kind,
		Origin: origin,
		Handle: h,
		Report: report,
	})
	return nil
}

// transform pushes the placement, recurses into children, then pops.
func (w *walker) transform(n *graph.Node) error {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	var translation mgl64.Vec3
	if td.Translation != nil {
		translation = *td.Translation
	}
	w.ts.push(translation, td.Rotation)
	defer w.ts.pop()

	return w.children(n)
}

func (w *walker) children(n *graph.Node) error {
	for _, child := range w.g.Children(n) {
		if err := w.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// uniqueName returns name the first time it is seen and name#2, name#3 ...
// afterwards.
func (w *walker) uniqueName(name string) string {
	w.names[name]++
	if c := w.names[name]; c > 1 {
		return fmt.Sprintf("%s#%d", name, c)
	}
	return name
}

// partLabel prefers the node's name and falls back to its short ID.
func partLabel(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// outlineEdges joins a ring of n vertices into a closed loop.
func outlineEdges(n int) [][2]int {
	if n < 2 {
		return nil
	}
	edges := make([][2]int, n)
	for i := 0; i < n; i++ {
		edges[i] = [2]int{i, (i + 1) % n}
	}
	return edges
}
