package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ShellError describes why a mesh is not a closed, consistently oriented
// 2-manifold.
type ShellError struct {
	Boundary    int // directed edges with no opposite half-edge
	NonManifold int // directed edges used by more than one triangle
	Degenerate  int // triangles that repeat a vertex index
}

func (e *ShellError) Error() string {
	return fmt.Sprintf("kernel: open or non-manifold shell (%d boundary, %d non-manifold, %d degenerate)",
		e.Boundary, e.NonManifold, e.Degenerate)
}

// CheckClosed verifies that every directed triangle edge appears exactly
// once and that its reverse also appears. A mesh passing this check is a
// closed surface with consistent winding.
func (m *Mesh) CheckClosed() error {
	type halfEdge struct{ a, b uint32 }

	var e ShellError
	seen := make(map[halfEdge]int, len(m.Indices))
	for t := 0; t < m.TriangleCount(); t++ {
		i := m.Indices[t*3 : t*3+3]
		if i[0] == i[1] || i[1] == i[2] || i[2] == i[0] {
			e.Degenerate++
			continue
		}
		seen[halfEdge{i[0], i[1]}]++
		seen[halfEdge{i[1], i[2]}]++
		seen[halfEdge{i[2], i[0]}]++
	}
	for he, n := range seen {
		if n > 1 {
			e.NonManifold++
		}
		if seen[halfEdge{he.b, he.a}] == 0 {
			e.Boundary++
		}
	}
	if e.Boundary > 0 || e.NonManifold > 0 || e.Degenerate > 0 {
		return &e
	}
	return nil
}

func (m *Mesh) vec(i uint32) r3.Vec {
	return r3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}

// SignedVolume returns the volume enclosed by the triangles using the
// divergence theorem. It is positive when faces wind counter-clockwise seen
// from outside, and only meaningful for closed meshes.
func (m *Mesh) SignedVolume() float64 {
	var v float64
	for t := 0; t < m.TriangleCount(); t++ {
		a := m.vec(m.Indices[t*3])
		b := m.vec(m.Indices[t*3+1])
		c := m.vec(m.Indices[t*3+2])
		v += r3.Dot(a, r3.Cross(b, c))
	}
	return v / 6
}

// SurfaceArea returns the total triangle area.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for t := 0; t < m.TriangleCount(); t++ {
		a := m.vec(m.Indices[t*3])
		b := m.vec(m.Indices[t*3+1])
		c := m.vec(m.Indices[t*3+2])
		area += r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
	}
	return area
}

// Bounds returns the axis-aligned bounding box of the vertices in object
// coordinates. An empty mesh has a zero box.
func (m *Mesh) Bounds() r3.Box {
	if m.IsEmpty() {
		return r3.Box{}
	}
	b := r3.Box{Min: m.vec(0), Max: m.vec(0)}
	for i := 1; i < m.VertexCount(); i++ {
		p := m.vec(uint32(i))
		b.Min = r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
		b.Max = r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	}
	return b
}
