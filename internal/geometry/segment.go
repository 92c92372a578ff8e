package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// Segment is an ordered pair of points going from A to B.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Seg is a convenience function to create a Segment.
func Seg(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// Vector returns B - A.
func (s Segment) Vector() Vector {
	return s.B.Sub(s.A)
}

// Direction returns the unit vector from A to B.
func (s Segment) Direction() Vector {
	return s.Vector().Normalized()
}

// Normal returns the unit left normal of the segment.
func (s Segment) Normal() Vector {
	return s.Direction().Left()
}

func (s Segment) Length() float64 {
	return s.Vector().Length()
}

func (s Segment) Center() Point {
	return s.A.Lerp(s.B, 0.5)
}

// IsDegenerate reports whether A and B coincide.
func (s Segment) IsDegenerate() bool {
	return s.Length() < Epsilon
}

// At returns the point at parameter t, A being t=0 and B t=1.
func (s Segment) At(t float64) Point {
	return s.A.Lerp(s.B, t)
}

// Reversed returns the segment going from B to A.
func (s Segment) Reversed() Segment {
	return Segment{A: s.B, B: s.A}
}

// Bounds returns the axis-aligned bounding box of the segment.
func (s Segment) Bounds() geom.Rect {
	return boundsOf(s.A, s.B)
}

// Side returns a positive value when p lies left of the line through s, a
// negative value when it lies right, and zero on the line.
func (s Segment) Side(p Point) float64 {
	return s.Vector().Cross(p.Sub(s.A))
}

// ClosestPoint returns the point of s nearest to p, clamped to the segment.
func (s Segment) ClosestPoint(p Point) Point {
	v := s.Vector()
	l2 := v.Dot(v)
	if l2 < Epsilon*Epsilon {
		return s.A
	}
	t := p.Sub(s.A).Dot(v) / l2
	t = math.Max(0, math.Min(1, t))
	return s.At(t)
}

// DistanceToPoint returns the distance from p to the closest point of s.
func (s Segment) DistanceToPoint(p Point) float64 {
	return p.Distance(s.ClosestPoint(p))
}

// Crossing locates the meeting point of two segments. T is the parameter along
// the receiver, U the parameter along the other segment.
type Crossing struct {
	Point Point
	T     float64
	U     float64
}

// Intersection returns where s and o meet. Both parameters are accepted within
// a small tolerance of [0, 1] so that hits on endpoints are not lost to
// rounding. Parallel and collinear segments report no crossing; use Overlaps
// for the collinear case.
func (s Segment) Intersection(o Segment) (Crossing, bool) {
	d := s.Vector()
	e := o.Vector()
	denom := d.Cross(e)
	if math.Abs(denom) <= Epsilon*d.Length()*e.Length() || d.IsNull() || e.IsNull() {
		return Crossing{}, false
	}

	w := o.A.Sub(s.A)
	t := w.Cross(e) / denom
	u := w.Cross(d) / denom

	const tol = 1e-9
	if t < -tol || t > 1+tol || u < -tol || u > 1+tol {
		return Crossing{}, false
	}
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	return Crossing{Point: s.At(t), T: t, U: u}, true
}

// Overlaps reports whether s and o are collinear and share more than a single
// point.
func (s Segment) Overlaps(o Segment) bool {
	d := s.Vector()
	if d.IsNull() || o.IsDegenerate() {
		return false
	}
	if math.Abs(s.Side(o.A)) > Epsilon*d.Length() || math.Abs(s.Side(o.B)) > Epsilon*d.Length() {
		return false
	}

	l2 := d.Dot(d)
	t0 := o.A.Sub(s.A).Dot(d) / l2
	t1 := o.B.Sub(s.A).Dot(d) / l2
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo := math.Max(0, t0)
	hi := math.Min(1, t1)
	return (hi-lo)*math.Sqrt(l2) > Epsilon
}
