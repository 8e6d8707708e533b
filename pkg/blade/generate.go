package blade

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/chazu/turbomach/internal/logger"
	"github.com/chazu/turbomach/pkg/kernel"
	"github.com/chazu/turbomach/pkg/naca"
)

// Generate lofts the blade and hands the shell to sink as a mesh object
// named name at the origin. It returns the sink's handle.
func Generate(name string, p Params, sink kernel.Sink) (kernel.Handle, naca.Report, error) {
	shell, report, err := Loft(p)
	if err != nil {
		return nil, report, err
	}
	h, err := sink.CreateMesh(name, mgl64.Vec3{}, shell.Vertices, nil, shell.Faces)
	if err != nil {
		return nil, report, fmt.Errorf("blade %q: create mesh: %w", name, err)
	}
	report.Log(name)
	logger.Debug("blade generated",
		zap.String("name", name),
		zap.Int("vertices", len(shell.Vertices)),
		zap.Int("faces", len(shell.Faces)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return h, report, nil
}

// RootOutline returns the root section as a closed polygon in the xy plane:
// the upper surface from leading to trailing edge, then the lower surface
// back towards the leading edge.
func (s *Shell) RootOutline() []mgl64.Vec2 {
	st := s.Station(0)
	n := s.Points
	out := make([]mgl64.Vec2, 0, 2*n-1)
	for i := 0; i < n; i++ {
		out = append(out, mgl64.Vec2{st[i].X(), st[i].Y()})
	}
	for i := 2*n - 1; i > n; i-- {
		out = append(out, mgl64.Vec2{st[i].X(), st[i].Y()})
	}
	return out
}

// Reference builds a solid approximation of the blade with k: the root
// section extruded over the full height with linear twist and taper,
// spanning z = 0 to z = Height. Spanwise camber variation is ignored.
func Reference(p Params, k kernel.Kernel) (kernel.Solid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// Only the root station is used.
	root := p
	root.SpanDivisions = 1
	shell, _, err := Loft(root)
	if err != nil {
		return nil, err
	}
	np := shell.Params()
	solid, err := k.Extrude(shell.RootOutline(), np.Height, mgl64.DegToRad(np.Twist), np.TipChord/np.RootChord)
	if err != nil {
		return nil, fmt.Errorf("blade reference: %w", err)
	}
	return k.Translate(solid, 0, 0, np.Height/2), nil
}
