package naca

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NACA 4-digit half-thickness polynomial coefficients.
const (
	a0 = 0.2969
	a1 = -0.126
	a2 = -0.3516
	a3 = 0.2843
	a4 = -0.1015
)

// Convention selects one of the two sampling variants. They describe the
// same physical section but differ in arithmetic, sign and station spacing,
// and each is kept bit-for-bit stable.
type Convention int

const (
	// ProfileConvention is used for bare sections: thickness scaled by 5t,
	// camber line negated, stations spread so the last one is the
	// trailing edge.
	ProfileConvention Convention = iota
	// BladeConvention is used per span station: thickness scaled by t/0.2,
	// camber line kept, the first n stations of an n-interval spacing.
	BladeConvention
)

func (c Convention) String() string {
	switch c {
	case ProfileConvention:
		return "profile"
	case BladeConvention:
		return "blade"
	default:
		return "unknown"
	}
}

// intervals returns the cosine-spacing denominator for n stations.
func (c Convention) intervals(n int) int {
	if c == ProfileConvention {
		return n - 1
	}
	return n
}

// Station returns the chord fraction of station i.
func (c Convention) Station(i, n int) float64 {
	return 1 - math.Cos(float64(i)*(math.Pi/2)/float64(c.intervals(n)))
}

// halfThickness evaluates the thickness envelope at chord fraction x.
func (c Convention) halfThickness(t, x float64) float64 {
	poly := a0*math.Sqrt(x) + a1*x + a2*x*x + a3*x*x*x + a4*x*x*x*x
	if c == ProfileConvention {
		return t * 5 * poly
	}
	return t / 0.2 * poly
}

// camberLine returns the mean-line height and slope at chord fraction x.
func (c Convention) camberLine(m, p, x float64) (yc, slope float64) {
	if x < p {
		slope = 2 * m / (p * p) * (p - x)
		if c == ProfileConvention {
			return m * x / (p * p) * (2*p - x), slope
		}
		return m / (p * p) * (2*p*x - x*x), slope
	}
	q := (1 - p) * (1 - p)
	slope = 2 * m / q * (p - x)
	if c == ProfileConvention {
		return m * (1 - x) / q * (1 - 2*p + x), slope
	}
	return m / q * (1 - 2*p + 2*p*x - x*x), slope
}

// Surfaces holds the upper and lower surface points of one section in
// chord fractions, one entry per station, leading edge first.
type Surfaces struct {
	Upper []mgl64.Vec2
	Lower []mgl64.Vec2
}

// Sample evaluates n stations of the section with camber m, thickness t and
// camber position p (all fractions). Every mean-line point is shifted by
// -pivot before the surfaces are offset along the local normal. n must be
// at least 2.
func Sample(m, t, p float64, n int, conv Convention, pivot mgl64.Vec2) Surfaces {
	if n < 2 {
		return Surfaces{}
	}

	s := Surfaces{
		Upper: make([]mgl64.Vec2, n),
		Lower: make([]mgl64.Vec2, n),
	}
	for i := 0; i < n; i++ {
		x := conv.Station(i, n)
		yt := conv.halfThickness(t, x)
		yc, slope := conv.camberLine(m, p, x)

		x -= pivot.X()
		yc -= pivot.Y()

		theta := math.Atan(slope)
		sin, cos := math.Sin(theta), math.Cos(theta)

		if conv == ProfileConvention {
			s.Upper[i] = mgl64.Vec2{x - yt*sin, -yc + yt*cos}
			s.Lower[i] = mgl64.Vec2{x + yt*sin, -yc - yt*cos}
			continue
		}
		s.Upper[i] = mgl64.Vec2{x - yt*sin, yc + yt*cos}
		s.Lower[i] = mgl64.Vec2{x + yt*sin, yc - yt*cos}
	}
	return s
}
