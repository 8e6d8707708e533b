package kernel

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Handle is an opaque reference to a mesh object registered with a Sink.
// Callers must not inspect it beyond what the sink documents.
type Handle interface{}

// Sink accepts finished geometry and turns it into an object in the host
// scene. Edges are loose edges not implied by any face.
type Sink interface {
	CreateMesh(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (Handle, error)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (Handle, error)

// CreateMesh calls f.
func (f SinkFunc) CreateMesh(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (Handle, error) {
	return f(name, origin, vertices, edges, faces)
}

// MemorySink keeps every submitted mesh in memory. The handles it returns
// are the stored *Mesh values. It is safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	meshes []*Mesh
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// CreateMesh packs the geometry into a Mesh and stores it.
func (s *MemorySink) CreateMesh(name string, origin mgl64.Vec3, vertices []mgl64.Vec3, edges [][2]int, faces [][3]int) (Handle, error) {
	m, err := NewMesh(name, origin, vertices, edges, faces)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.meshes = append(s.meshes, m)
	s.mu.Unlock()
	return m, nil
}

// Meshes returns the stored meshes in submission order.
func (s *MemorySink) Meshes() []*Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

// Lookup returns the most recently stored mesh with the given name, or nil.
func (s *MemorySink) Lookup(name string) *Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.meshes) - 1; i >= 0; i-- {
		if s.meshes[i].PartName == name {
			return s.meshes[i]
		}
	}
	return nil
}

// Reset drops every stored mesh.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.meshes = nil
	s.mu.Unlock()
}
