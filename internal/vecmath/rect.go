package vecmath

import "math"

// Rect is an axis-aligned rectangle in screen coordinates, laid out like
// image.Rectangle but real-valued.
type Rect struct {
	Min, Max Vec2
}

// R builds a Rect from its origin and size.
func R(x, y, w, h float64) Rect {
	return Rect{Min: Vec2{X: x, Y: y}, Max: Vec2{X: x + w, Y: y + h}}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return !(r.Min.X < r.Max.X && r.Min.Y < r.Max.Y)
}

// Width of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Vec2 {
	return Vec2{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Union returns the smallest rectangle containing both r and o. Empty
// rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		Min: Vec2{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Vec2{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}

// DistanceTo returns the distance from p to the nearest point of r, which is
// zero when p is inside.
func (r Rect) DistanceTo(p Vec2) float64 {
	dx := math.Max(math.Max(r.Min.X-p.X, 0), p.X-r.Max.X)
	dy := math.Max(math.Max(r.Min.Y-p.Y, 0), p.Y-r.Max.Y)
	return math.Hypot(dx, dy)
}

// ClampToBounds clamps each axis of p independently into bounds. An empty
// bounds rectangle leaves p unchanged. The result stays strictly inside the
// last pixel column/row so a warp never lands on a non-existent display.
func ClampToBounds(p Vec2, bounds Rect) Vec2 {
	if bounds.Empty() {
		return p
	}
	p = p.Sanitize()
	return Vec2{
		X: Clamp(p.X, bounds.Min.X, math.Max(bounds.Min.X, bounds.Max.X-1)),
		Y: Clamp(p.Y, bounds.Min.Y, math.Max(bounds.Min.Y, bounds.Max.Y-1)),
	}
}
