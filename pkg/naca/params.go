// Package naca samples NACA 4-digit airfoil sections.
//
// All percentages are percent of chord (0 = 0%, 100 = 100%). Out-of-range
// percentages are recoverable: they are replaced by a documented default and
// reported as a Warning. Degenerate counts and lengths are rejected with a
// *ParamError.
package naca

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/chazu/turbomach/internal/logger"
)

// Defaults substituted for out-of-range percentages.
const (
	DefaultCamber         = 0.0  // symmetric section
	DefaultThickness      = 10.0 // NACA 0010
	DefaultCamberPosition = 30.0
)

// Params describes a single airfoil section.
type Params struct {
	Camber         float64 `json:"camber" yaml:"camber"`                   // max camber, % chord
	Thickness      float64 `json:"thickness" yaml:"thickness"`             // max thickness, % chord
	CamberPosition float64 `json:"camber_position" yaml:"camber_position"` // location of max camber, % chord
	Chord          float64 `json:"chord" yaml:"chord"`                     // output units
	Points         int     `json:"points" yaml:"points"`                   // stations per surface
}

// Warning records a parameter that was replaced by its default.
type Warning struct {
	Field   string
	Value   float64
	Default float64
	Reason  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %g %s, using %g", w.Field, w.Value, w.Reason, w.Default)
}

// Report is the structured outcome of parameter normalization.
type Report struct {
	Warnings []Warning
}

// HasWarnings reports whether any parameter was substituted.
func (r Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Merge appends the warnings of other to r.
func (r *Report) Merge(other Report) {
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Camber returns v if it lies in [0,100], otherwise DefaultCamber.
func (r *Report) Camber(field string, v float64) float64 {
	if v >= 0 && v <= 100 {
		return v
	}
	return r.substitute(field, v, DefaultCamber, "must be between 0 and 100")
}

// Thickness returns v if it lies in [0,100], otherwise DefaultThickness.
func (r *Report) Thickness(field string, v float64) float64 {
	if v >= 0 && v <= 100 {
		return v
	}
	return r.substitute(field, v, DefaultThickness, "must be between 0 and 100")
}

// CamberPosition returns v if it lies in [0,100), otherwise
// DefaultCamberPosition. 100 is excluded: the aft camber branch divides
// by (1-p)².
func (r *Report) CamberPosition(field string, v float64) float64 {
	if v >= 0 && v < 100 {
		return v
	}
	return r.substitute(field, v, DefaultCamberPosition, "must be at least 0 and below 100")
}

func (r *Report) substitute(field string, v, def float64, reason string) float64 {
	w := Warning{Field: field, Value: v, Default: def, Reason: reason}
	r.Warnings = append(r.Warnings, w)
	return def
}

// Log writes every substitution at warn level, tagged with the part it
// belongs to. Normalization itself never logs.
func (r Report) Log(part string) {
	for _, w := range r.Warnings {
		logger.Warn("parameter out of range, substituting default",
			zap.String("part", part),
			zap.String("field", w.Field),
			zap.Float64("value", w.Value),
			zap.Float64("default", w.Default),
		)
	}
}

// ParamError reports a parameter that cannot be corrected.
type ParamError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// CheckPoints rejects station counts below 2.
func CheckPoints(field string, n int) error {
	if n < 2 {
		return &ParamError{Field: field, Value: float64(n), Reason: "must be at least 2"}
	}
	return nil
}

// CheckPositive rejects zero, negative and non-finite lengths.
func CheckPositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ParamError{Field: field, Value: v, Reason: "must be a positive finite number"}
	}
	return nil
}

// CheckFinite rejects NaN and infinities.
func CheckFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ParamError{Field: field, Value: v, Reason: "must be finite"}
	}
	return nil
}

// Validate rejects parameters that would divide by zero or produce an
// empty outline.
func (p Params) Validate() error {
	if err := CheckPoints("points", p.Points); err != nil {
		return err
	}
	return CheckPositive("chord", p.Chord)
}

// Normalize returns a copy of p with out-of-range percentages replaced by
// their defaults, and a report of every substitution.
func (p Params) Normalize() (Params, Report) {
	var r Report
	p.Camber = r.Camber("camber", p.Camber)
	p.Thickness = r.Thickness("thickness", p.Thickness)
	p.CamberPosition = r.CamberPosition("camber_position", p.CamberPosition)
	return p, r
}
