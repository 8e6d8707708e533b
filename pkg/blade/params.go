// Package blade lofts NACA 4-digit sections into a closed, twisted and
// tapered turbomachinery blade shell.
//
// Stations are stacked along +z from the root (z = 0) to the tip
// (z = Height). Each station is a blade-convention section shifted so the
// centre of twist sits at the origin, rotated by the accumulated twist and
// scaled by the local chord.
package blade

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/turbomach/pkg/naca"
)

// Params describes a blade.
type Params struct {
	CamberRoot     float64    `json:"camber_root" yaml:"camber_root"`         // % chord at the root
	CamberTip      float64    `json:"camber_tip" yaml:"camber_tip"`           // % chord at the tip
	CamberPosition float64    `json:"camber_position" yaml:"camber_position"` // % chord
	Thickness      float64    `json:"thickness" yaml:"thickness"`             // % chord
	Height         float64    `json:"height" yaml:"height"`                   // span length
	Twist          float64    `json:"twist" yaml:"twist"`                     // degrees over the full span
	RootChord      float64    `json:"root_chord" yaml:"root_chord"`
	TipChord       float64    `json:"tip_chord" yaml:"tip_chord"`
	CenterOfTwist  mgl64.Vec2 `json:"center_of_twist" yaml:"center_of_twist"` // % chord
	SpanDivisions  int        `json:"span_divisions" yaml:"span_divisions"`
	Points         int        `json:"points" yaml:"points"` // stations per surface
}

// Validate rejects parameters that cannot produce a shell.
func (p Params) Validate() error {
	if p.SpanDivisions < 1 {
		return &naca.ParamError{Field: "span_divisions", Value: float64(p.SpanDivisions), Reason: "must be at least 1"}
	}
	if err := naca.CheckPoints("points", p.Points); err != nil {
		return err
	}
	for _, c := range []struct {
		field string
		v     float64
	}{
		{"height", p.Height},
		{"root_chord", p.RootChord},
		{"tip_chord", p.TipChord},
	} {
		if err := naca.CheckPositive(c.field, c.v); err != nil {
			return err
		}
	}
	if err := naca.CheckFinite("twist", p.Twist); err != nil {
		return err
	}
	if err := naca.CheckFinite("center_of_twist.x", p.CenterOfTwist.X()); err != nil {
		return err
	}
	return naca.CheckFinite("center_of_twist.y", p.CenterOfTwist.Y())
}

// Normalize returns a copy of p with out-of-range percentages replaced by
// their defaults.
func (p Params) Normalize() (Params, naca.Report) {
	var r naca.Report
	p.CamberRoot = r.Camber("camber_root", p.CamberRoot)
	p.CamberTip = r.Camber("camber_tip", p.CamberTip)
	p.Thickness = r.Thickness("thickness", p.Thickness)
	p.CamberPosition = r.CamberPosition("camber_position", p.CamberPosition)
	return p, r
}
