package naca

import "github.com/go-gl/mathgl/mgl64"

// Profile samples a closed 2D section outline in the z = 0 plane, scaled
// by the chord. The ring holds Points upper-surface vertices from the
// leading edge to the trailing edge, followed by Points-1 lower-surface
// vertices from just past the leading edge to the trailing edge, so the
// leading edge appears once.
func Profile(p Params) ([]mgl64.Vec3, Report, error) {
	if err := p.Validate(); err != nil {
		return nil, Report{}, err
	}
	p, report := p.Normalize()

	s := Sample(p.Camber/100, p.Thickness/100, p.CamberPosition/100, p.Points, ProfileConvention, mgl64.Vec2{})

	verts := make([]mgl64.Vec3, 0, 2*p.Points-1)
	for i := 0; i < p.Points; i++ {
		verts = append(verts, mgl64.Vec3{s.Upper[i].X() * p.Chord, s.Upper[i].Y() * p.Chord, 0})
	}
	for i := 1; i < p.Points; i++ {
		verts = append(verts, mgl64.Vec3{s.Lower[i].X() * p.Chord, s.Lower[i].Y() * p.Chord, 0})
	}
	return verts, report, nil
}

// Outline returns the 2D section as a polygon loop in ring order, suitable
// for a geometry kernel.
func Outline(verts []mgl64.Vec3) []mgl64.Vec2 {
	loop := make([]mgl64.Vec2, len(verts))
	for i, v := range verts {
		loop[i] = mgl64.Vec2{v.X(), v.Y()}
	}
	return loop
}
