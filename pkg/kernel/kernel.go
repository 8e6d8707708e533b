// Package kernel defines where generated geometry goes and how reference
// solids are built. A Sink receives finished meshes (the host application's
// mesh-construction routine); a Kernel builds solid approximations used to
// cross-check the generated shells. Both are interfaces so backends can be
// swapped without changing the generators.
package kernel

import "github.com/go-gl/mathgl/mgl64"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Extrude sweeps a closed outline from z = -height/2 to z = height/2,
	// rotating it linearly by twist radians and scaling it linearly from 1
	// at the bottom to scale at the top.
	Extrude(outline []mgl64.Vec2, height, twist, scale float64) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
