package kernel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle and
// edges has 2 uint32s per loose edge.
type Mesh struct {
	Vertices []float32  `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32  `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32   `json:"indices"`  // [i0,i1,i2, ...] triangles
	Edges    []uint32   `json:"edges"`    // [a0,b0, a1,b1, ...]
	PartName string     `json:"partName"` // which design part this came from
	Origin   [3]float64 `json:"origin"`   // object location in the host scene
}

// NewMesh packs vertex, edge and face lists into a Mesh and computes
// per-vertex normals. Every index must refer to an existing vertex.
func NewMesh(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (*Mesh, error) {
	n := len(vertices)
	for i, e := range edges {
		for _, idx := range e {
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("kernel: edge %d references vertex %d, mesh has %d vertices", i, idx, n)
			}
		}
	}
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("kernel: face %d references vertex %d, mesh has %d vertices", i, idx, n)
			}
		}
	}

	m := &Mesh{
		Vertices: make([]float32, 0, n*3),
		Indices:  make([]uint32, 0, len(faces)*3),
		Edges:    make([]uint32, 0, len(edges)*2),
		PartName: name,
		Origin:   [3]float64{origin.X(), origin.Y(), origin.Z()},
	}
	for _, v := range vertices {
		m.Vertices = append(m.Vertices, float32(v.X()), float32(v.Y()), float32(v.Z()))
	}
	for _, f := range faces {
		m.Indices = append(m.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	for _, e := range edges {
		m.Edges = append(m.Edges, uint32(e[0]), uint32(e[1]))
	}
	m.Normals = computeNormals(vertices, faces)
	return m, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// EdgeCount returns the number of loose edges.
func (m *Mesh) EdgeCount() int {
	return len(m.Edges) / 2
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i in object coordinates.
func (m *Mesh) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(m.Vertices[i*3]),
		float64(m.Vertices[i*3+1]),
		float64(m.Vertices[i*3+2]),
	}
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]int {
	return [3]int{int(m.Indices[i*3]), int(m.Indices[i*3+1]), int(m.Indices[i*3+2])}
}

// computeNormals generates per-vertex normals by averaging the area-weighted
// face normals of all triangles incident on each vertex. Vertices that no
// triangle uses get a zero normal.
func computeNormals(vertices []mgl64.Vec3, faces [][3]int) []float32 {
	acc := make([]mgl64.Vec3, len(vertices))
	for _, f := range faces {
		a, b, c := vertices[f[0]], vertices[f[1]], vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range f {
			acc[idx] = acc[idx].Add(n)
		}
	}

	normals := make([]float32, 0, len(vertices)*3)
	for _, n := range acc {
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1 / l)
		}
		normals = append(normals, float32(n.X()), float32(n.Y()), float32(n.Z()))
	}
	return normals
}
