// Package geom provides rectangle and matrix math in PDF point units
// (72 points per inch).
//
// Rectangles use a top-left origin with Y increasing downward, matching the
// coordinate space in which marker positions and table geometry are
// expressed. Conversion to the native bottom-up PDF space happens at the
// pdfcpu boundary.
package geom

import "math"

// PointsPerInch is the PDF unit scale.
const PointsPerInch = 72.0

// Point is a 2D point in points.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. X0,Y0 is the top-left corner,
// X1,Y1 the bottom-right.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect returns a rectangle normalized so that X0 <= X1 and Y0 <= Y1.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X0 >= r.X0 && other.X1 <= r.X1 &&
		other.Y0 >= r.Y0 && other.Y1 <= r.Y1
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X0 < other.X1 && other.X0 < r.X1 &&
		r.Y0 < other.Y1 && other.Y0 < r.Y1
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, other.X0),
		Y0: math.Min(r.Y0, other.Y0),
		X1: math.Max(r.X1, other.X1),
		Y1: math.Max(r.Y1, other.Y1),
	}
}

// Intersect returns the overlap of r and other, or the zero Rect if they
// do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	if !r.Intersects(other) {
		return Rect{}
	}
	return Rect{
		X0: math.Max(r.X0, other.X0),
		Y0: math.Max(r.Y0, other.Y0),
		X1: math.Min(r.X1, other.X1),
		Y1: math.Min(r.Y1, other.Y1),
	}
}

// Expand grows the rectangle by pad on all sides, clipped to bounds.
func (r Rect) Expand(pad float64, bounds Rect) Rect {
	return Rect{
		X0: math.Max(bounds.X0, r.X0-pad),
		Y0: math.Max(bounds.Y0, r.Y0-pad),
		X1: math.Min(bounds.X1, r.X1+pad),
		Y1: math.Min(bounds.Y1, r.Y1+pad),
	}
}

// FitTransform computes the uniform scale and translation that places crop
// inside target, centered, preserving aspect ratio. Engineering drawings
// must never be stretched non-uniformly, so a single scale factor applies
// to both axes.
//
// The returned translation maps the crop's top-left corner into target
// space: devX = crop.X0*scale + dx, devY = crop.Y0*scale + dy.
func FitTransform(target, crop Rect) (scale, dx, dy float64) {
	if crop.Width() <= 0 || crop.Height() <= 0 {
		return 1, target.X0, target.Y0
	}
	scale = math.Min(target.Width()/crop.Width(), target.Height()/crop.Height())
	scaledW := crop.Width() * scale
	scaledH := crop.Height() * scale
	dx = target.X0 + (target.Width()-scaledW)/2 - crop.X0*scale
	dy = target.Y0 + (target.Height()-scaledH)/2 - crop.Y0*scale
	return scale, dx, dy
}

// Matrix is a PDF transformation matrix [a b c d e f].
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity matrix.
func Identity() Matrix { return Matrix{A: 1, D: 1} }

// Mul returns m
// concatenated with n (m applied first, then n).
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		E: m.E*n.A + m.F*n.C + n.E,
		F: m.E*n.B + m.F*n.D + n.F,
	}
}

// Apply transforms p by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// TransformRect returns the axis-aligned bounding box of r transformed by m.
func (m Matrix) TransformRect(r Rect) Rect {
	p1 := m.Apply(Point{r.X0, r.Y0})
	p2 := m.Apply(Point{r.X1, r.Y0})
	p3 := m.Apply(Point{r.X0, r.Y1})
	p4 := m.Apply(Point{r.X1, r.Y1})
	return Rect{
		X0: math.Min(math.Min(p1.X, p2.X), math.Min(p3.X, p4.X)),
		Y0: math.Min(math.Min(p1.Y, p2.Y), math.Min(p3.Y, p4.Y)),
		X1: math.Max(math.Max(p1.X, p2.X), math.Max(p3.X, p4.X)),
		Y1: math.Max(math.Max(p1.Y, p2.Y), math.Max(p3.Y, p4.Y)),
	}
}
