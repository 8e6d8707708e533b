package blade

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/turbomach/pkg/naca"
)

// Shell is a lofted blade surface. Vertices are stored station by station,
// Points upper-surface vertices followed by Points lower-surface vertices.
// The lower surface's leading-edge vertex coincides with the upper one and
// is not referenced by any face; it is kept so every station has the same
// stride.
type Shell struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int
	Points   int // vertices per surface per station
	Stations int // SpanDivisions + 1

	params Params
}

// Stride returns the number of vertices per station.
func (s *Shell) Stride() int {
	return 2 * s.Points
}

// Station returns the vertices of station j.
func (s *Shell) Station(j int) []mgl64.Vec3 {
	return s.Vertices[j*s.Stride() : (j+1)*s.Stride()]
}

// Params returns the normalized parameters the shell was built from.
func (s *Shell) Params() Params {
	return s.params
}

func (s *Shell) dspan() float64 {
	return s.params.Height / float64(s.params.SpanDivisions)
}

// StationHeight returns the span coordinate of station j.
func (s *Shell) StationHeight(j int) float64 {
	return float64(j) * s.dspan()
}

// StationChord returns the chord of station j, linear from RootChord at
// the root to TipChord at the tip.
func (s *Shell) StationChord(j int) float64 {
	p := s.params
	return p.RootChord - float64(j)*s.dspan()*(p.RootChord-p.TipChord)/p.Height
}

// StationAngle returns the twist of station j in radians.
func (s *Shell) StationAngle(j int) float64 {
	perHeight := mgl64.DegToRad(s.params.Twist) / s.params.Height
	return perHeight * float64(j) * s.dspan()
}

// StationCamber returns the camber fraction of station j, interpolated
// linearly from root to tip.
func (s *Shell) StationCamber(j int) float64 {
	f := float64(j) / float64(s.params.SpanDivisions)
	return (1-f)*(s.params.CamberRoot/100) + f*(s.params.CamberTip/100)
}

// Loft builds the blade shell. The returned report lists every parameter
// that was replaced by its default.
func Loft(p Params) (*Shell, naca.Report, error) {
	if err := p.Validate(); err != nil {
		return nil, naca.Report{}, err
	}
	np, report := p.Normalize()

	n := np.Points
	shell := &Shell{
		Points:   n,
		Stations: np.SpanDivisions + 1,
		params:   np,
	}
	shell.Vertices = make([]mgl64.Vec3, 0, shell.Stations*shell.Stride())

	t := np.Thickness / 100
	pos := np.CamberPosition / 100
	pivot := mgl64.Vec2{np.CenterOfTwist.X() / 100, np.CenterOfTwist.Y() / 100}

	for j := 0; j < shell.Stations; j++ {
		surf := naca.Sample(shell.StationCamber(j), t, pos, n, naca.BladeConvention, pivot)
		rot := mgl64.Rotate2D(shell.StationAngle(j))
		chord := shell.StationChord(j)
		z := shell.StationHeight(j)

		for _, pts := range [][]mgl64.Vec2{surf.Upper, surf.Lower} {
			for _, pt := range pts {
				q := rot.Mul2x1(pt)
				shell.Vertices = append(shell.Vertices, mgl64.Vec3{q.X() * chord, q.Y() * chord, z})
			}
		}
	}
	shell.Faces = shellFaces(n, np.SpanDivisions)
	return shell, report, nil
}

// FaceCount returns the number of triangles in a shell with n points per
// surface and spans span divisions.
func FaceCount(n, spans int) int {
	return 2*(2*n-3) + spans*(4*n-2)
}

// shellFaces triangulates the root cap, the side walls between consecutive
// stations, the trailing-edge seam and the tip cap. All faces wind
// counter-clockwise seen from outside.
func shellFaces(n, spans int) [][3]int {
	stride := 2 * n
	upper := func(j, i int) int { return stride*j + i }
	lower := func(j, i int) int {
		if i == 0 {
			return upper(j, 0)
		}
		return stride*j + n + i
	}

	faces := make([][3]int, 0, FaceCount(n, spans))

	// Root cap faces -z.
	for i := 0; i < n-1; i++ {
		faces = append(faces, [3]int{upper(0, i), upper(0, i+1), lower(0, i+1)})
		if i > 0 {
			faces = append(faces, [3]int{upper(0, i), lower(0, i+1), lower(0, i)})
		}
	}

	for j := 0; j < spans; j++ {
		k := j + 1
		for i := 0; i < n-1; i++ {
			faces = append(faces,
				[3]int{upper(j, i), upper(k, i), upper(k, i+1)},
				[3]int{upper(j, i), upper(k, i+1), upper(j, i+1)},
			)
		}
		for i := 0; i < n-1; i++ {
			faces = append(faces,
				[3]int{lower(j, i), lower(k, i+1), lower(k, i)},
				[3]int{lower(j, i), lower(j, i+1), lower(k, i+1)},
			)
		}
		te := n - 1
		faces = append(faces,
			[3]int{upper(j, te), upper(k, te), lower(k, te)},
			[3]int{upper(j, te), lower(k, te), lower(j, te)},
		)
	}

	// Tip cap faces +z.
	for i := 0; i < n-1; i++ {
		faces = append(faces, [3]int{upper(spans, i), lower(spans, i+1), upper(spans, i+1)})
		if i > 0 {
			faces = append(faces, [3]int{upper(spans, i), lower(spans, i), lower(spans, i+1)})
		}
	}
	return faces
}
