// Package vecmath provides the 2D point algebra used by the motion engine.
//
// Every operation is total: non-finite inputs collapse to the zero vector
// instead of propagating NaN/Inf into the control loop.
package vecmath

import "math"

// Vec2 is a point or displacement in screen space.
type Vec2 struct {
	X, Y float64
}

// Zero is the additive identity.
var Zero = Vec2{}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// IsFinite reports whether both components are finite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Sanitize returns v, or the zero vector if either component is non-finite.
func (v Vec2) Sanitize() Vec2 {
	if !v.IsFinite() {
		return Zero
	}
	return v
}

// Offset returns v translated by d.
func (v Vec2) Offset(d Vec2) Vec2 {
	return Vec2{X: v.X + d.X, Y: v.Y + d.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Magnitude returns the Euclidean length of v.
func (v Vec2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the distance between two points.
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Normalize returns a unit vector with v's direction. Zero-length and
// non-finite inputs yield the zero vector.
func (v Vec2) Normalize() Vec2 {
	if !v.IsFinite() {
		return Zero
	}
	mag := v.Magnitude()
	if mag < 1e-9 {
		return Zero
	}
	return Vec2{X: v.X / mag, Y: v.Y / mag}
}

// ClampedMagnitude rescales v to exactly max when it is longer than max.
// Vectors already within the bound are returned unchanged.
func (v Vec2) ClampedMagnitude(max float64) Vec2 {
	if !v.IsFinite() || math.IsNaN(max) {
		return Zero
	}
	if max <= 0 {
		return Zero
	}
	mag := v.Magnitude()
	if mag <= max {
		return v
	}
	return v.Scale(max / mag)
}

// Mix linearly interpolates from v toward o. weight is clamped to [0,1]; a
// weight of 0 returns v and 1 returns o.
func (v Vec2) Mix(o Vec2, weight float64) Vec2 {
	if math.IsNaN(weight) {
		weight = 0
	}
	w := Clamp(weight, 0, 1)
	return Vec2{
		X: v.X + (o.X-v.X)*w,
		Y: v.Y + (o.Y-v.Y)*w,
	}
}

// Round returns v with both components rounded to the nearest integer.
func (v Vec2) Round() Vec2 {
	return Vec2{X: math.Round(v.X), Y: math.Round(v.Y)}
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
