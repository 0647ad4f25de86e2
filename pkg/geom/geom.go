// Package geom holds the planar types shared by the extractor, the clusterer
// and the wirelength estimator. All values are in the model distance unit
// (microns once the extractor has applied its scale factor).
package geom

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Manhattan returns |dx| + |dy| between two points.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Less orders points lexicographically: by X, then by Y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// Rect represents an axis-aligned rectangle given by two corners.
type Rect struct {
	Min Point // lower-left corner
	Max Point // upper-right corner
}

// NewRect returns an empty rectangle ready to be grown with Expand.
func NewRect() Rect {
	return Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// RectWH builds a rectangle from its origin and dimensions.
func RectWH(origin Point, w, h float64) Rect {
	return Rect{Min: origin, Max: Point{X: origin.X + w, Y: origin.Y + h}}
}

// IsEmpty reports whether nothing has been added to the rectangle.
func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Expand grows the rectangle to include p.
func (r *Rect) Expand(p Point) {
	if p.X < r.Min.X {
		r.Min.X = p.X
	}
	if p.Y < r.Min.Y {
		r.Min.Y = p.Y
	}
	if p.X > r.Max.X {
		r.Max.X = p.X
	}
	if p.Y > r.Max.Y {
		r.Max.Y = p.Y
	}
}

// ExpandRect grows the rectangle to include another one.
func (r *Rect) ExpandRect(other Rect) {
	if !other.IsEmpty() {
		r.Expand(other.Min)
		r.Expand(other.Max)
	}
}

// Width returns the horizontal extent (0 for an empty rectangle).
func (r Rect) Width() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent (0 for an empty rectangle).
func (r Rect) Height() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.Y - r.Min.Y
}

// Area returns Width * Height.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// HalfPerimeter returns Width + Height, the HPL of a net box.
func (r Rect) HalfPerimeter() float64 {
	return r.Width() + r.Height()
}

// Center returns the centre point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside the rectangle, boundary included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsOpen reports whether p lies strictly inside the rectangle.
func (r Rect) ContainsOpen(p Point) bool {
	return p.X > r.Min.X && p.X < r.Max.X &&
		p.Y > r.Min.Y && p.Y < r.Max.Y
}

// ContainsRect reports whether other lies within r with tolerance eps.
func (r Rect) ContainsRect(other Rect, eps float64) bool {
	return other.Min.X >= r.Min.X-eps && other.Min.Y >= r.Min.Y-eps &&
		other.Max.X <= r.Max.X+eps && other.Max.Y <= r.Max.Y+eps
}

// Clamp returns the point of r closest to p.
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: math.Max(r.Min.X, math.Min(p.X, r.Max.X)),
		Y: math.Max(r.Min.Y, math.Min(p.Y, r.Max.Y)),
	}
}
