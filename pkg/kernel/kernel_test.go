package kernel

import (
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// tetra is a unit right tetrahedron with outward winding.
var (
	tetraVerts = []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tetraFaces = [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
)

func mustMesh(t *testing.T, verts []mgl64.Vec3, edges [][2]int, faces [][3]int) *Mesh {
	t.Helper()
	m, err := NewMesh("test", mgl64.Vec3{}, verts, edges, faces)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	return m
}

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- NewMesh ---

func TestNewMeshPacksGeometry(t *testing.T) {
	origin := mgl64.Vec3{5, -1, 2}
	m, err := NewMesh("tetra", origin, tetraVerts, [][2]int{{0, 3}}, tetraFaces)
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	if m.PartName != "tetra" {
		t.Errorf("PartName = %q, want %q", m.PartName, "tetra")
	}
	if m.Origin != [3]float64{5, -1, 2} {
		t.Errorf("Origin = %v, want [5 -1 2]", m.Origin)
	}
	if m.VertexCount() != 4 || m.TriangleCount() != 4 || m.EdgeCount() != 1 {
		t.Errorf("counts = (%d,%d,%d), want (4,4,1)", m.VertexCount(), m.TriangleCount(), m.EdgeCount())
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("len(Normals) = %d, want %d", len(m.Normals), len(m.Vertices))
	}
	if got := m.Triangle(3); got != [3]int{1, 2, 3} {
		t.Errorf("Triangle(3) = %v, want [1 2 3]", got)
	}
	if got := m.Vertex(3); got != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("Vertex(3) = %v, want [0 0 1]", got)
	}
}

func TestNewMeshRejectsBadIndices(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int
		faces [][3]int
	}{
		{"face past end", nil, [][3]int{{0, 1, 4}}},
		{"negative face index", nil, [][3]int{{-1, 1, 2}}},
		{"edge past end", [][2]int{{0, 9}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMesh("bad", mgl64.Vec3{}, tetraVerts, tt.edges, tt.faces); err == nil {
				t.Error("NewMesh() error = nil, want error")
			}
		})
	}
}

func TestNewMeshNormals(t *testing.T) {
	// A single triangle in the xy plane wound counter-clockwise.
	m := mustMesh(t, []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {7, 7, 7}}, nil, [][3]int{{0, 1, 2}})
	for i := 0; i < 3; i++ {
		n := m.Normals[i*3 : i*3+3]
		if n[0] != 0 || n[1] != 0 || n[2] != 1 {
			t.Errorf("normal %d = %v, want [0 0 1]", i, n)
		}
	}
	// Unreferenced vertex keeps a zero normal.
	if n := m.Normals[9:12]; n[0] != 0 || n[1] != 0 || n[2] != 0 {
		t.Errorf("unreferenced normal = %v, want zero", n)
	}
}

// --- Analysis ---

func TestCheckClosed(t *testing.T) {
	tests := []struct {
		name    string
		faces   [][3]int
		wantErr bool
	}{
		{"closed tetrahedron", tetraFaces, false},
		{"missing face", tetraFaces[:3], true},
		{"flipped face", [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}, true},
		{"duplicated face", append(append([][3]int{}, tetraFaces...), tetraFaces[0]), true},
		{"degenerate face", append(append([][3]int{}, tetraFaces...), [3]int{1, 1, 2}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mustMesh(t, tetraVerts, nil, tt.faces).CheckClosed()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckClosed() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShellErrorCounts(t *testing.T) {
	err := mustMesh(t, tetraVerts, nil, tetraFaces[:3]).CheckClosed()
	se, ok := err.(*ShellError)
	if !ok {
		t.Fatalf("error = %T, want *ShellError", err)
	}
	// Removing the slanted face exposes its three edges.
	if se.Boundary != 3 || se.NonManifold != 0 || se.Degenerate != 0 {
		t.Errorf("ShellError = %+v, want 3 boundary edges", se)
	}
}

func TestSignedVolumeAndArea(t *testing.T) {
	m := mustMesh(t, tetraVerts, nil, tetraFaces)
	if got := m.SignedVolume(); math.Abs(got-1.0/6) > 1e-12 {
		t.Errorf("SignedVolume() = %g, want 1/6", got)
	}
	wantArea := 1.5 + math.Sqrt(3)/2
	if got := m.SurfaceArea(); math.Abs(got-wantArea) > 1e-6 {
		t.Errorf("SurfaceArea() = %g, want %g", got, wantArea)
	}

	inverted := make([][3]int, len(tetraFaces))
	for i, f := range tetraFaces {
		inverted[i] = [3]int{f[0], f[2], f[1]}
	}
	if got := mustMesh(t, tetraVerts, nil, inverted).SignedVolume(); got >= 0 {
		t.Errorf("inverted SignedVolume() = %g, want negative", got)
	}
}

func TestBounds(t *testing.T) {
	m := mustMesh(t, []mgl64.Vec3{{-1, 2, 0}, {3, -4, 5}, {0, 0, -2}}, nil, nil)
	b := m.Bounds()
	if b.Min.X != -1 || b.Min.Y != -4 || b.Min.Z != -2 {
		t.Errorf("Bounds().Min = %v, want {-1 -4 -2}", b.Min)
	}
	if b.Max.X != 3 || b.Max.Y != 2 || b.Max.Z != 5 {
		t.Errorf("Bounds().Max = %v, want {3 2 5}", b.Max)
	}
	if empty := (&Mesh{}).Bounds(); empty.Min != empty.Max {
		t.Errorf("empty Bounds() = %v, want zero box", empty)
	}
}

// --- Sinks ---

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	h, err := s.CreateMesh("a", mgl64.Vec3{1, 2, 3}, tetraVerts, nil, tetraFaces)
	if err != nil {
		t.Fatalf("CreateMesh() error = %v", err)
	}
	m, ok := h.(*Mesh)
	if !ok {
		t.Fatalf("handle = %T, want *Mesh", h)
	}
	if m.PartName != "a" {
		t.Errorf("PartName = %q, want %q", m.PartName, "a")
	}
	if _, err := s.CreateMesh("b", mgl64.Vec3{}, tetraVerts, nil, [][3]int{{0, 1, 8}}); err == nil {
		t.Error("CreateMesh() with bad index error = nil, want error")
	}
	if got := len(s.Meshes()); got != 1 {
		t.Errorf("len(Meshes()) = %d, want 1", got)
	}
	if s.Lookup("a") != m {
		t.Error("Lookup(a) did not return the stored mesh")
	}
	if s.Lookup("missing") != nil {
		t.Error("Lookup(missing) != nil")
	}
	s.Reset()
	if got := len(s.Meshes()); got != 0 {
		t.Errorf("len(Meshes()) after Reset = %d, want 0", got)
	}
}

func TestMemorySinkConcurrent(t *testing.T) {
	s := NewMemorySink()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateMesh("tetra", mgl64.Vec3{}, tetraVerts, nil, tetraFaces); err != nil {
				t.Errorf("CreateMesh() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if got := len(s.Meshes()); got != 16 {
		t.Errorf("len(Meshes()) = %d, want 16", got)
	}
}

func TestSinkFunc(t *testing.T) {
	var gotName string
	var gotFaces int
	var s Sink = SinkFunc(func(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (Handle, error) {
		gotName, gotFaces = name, len(faces)
		return name, nil
	})
	h, err := s.CreateMesh("blade", mgl64.Vec3{}, tetraVerts, nil, tetraFaces)
	if err != nil {
		t.Fatalf("CreateMesh() error = %v", err)
	}
	if h != "blade" || gotName != "blade" || gotFaces != 4 {
		t.Errorf("SinkFunc got (%v, %q, %d), want (blade, blade, 4)", h, gotName, gotFaces)
	}
}
