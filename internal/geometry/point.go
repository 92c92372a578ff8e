// Package geometry holds the planar value types the cutting engine works on:
// points, vectors, segments, polygons and affine matrices.
package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// Epsilon is the absolute tolerance used for coincident points, null vectors
// and boundary tests.
const Epsilon = 1e-9

// Point is a position in scene coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector going from q to p.
func (p Point) Sub(q Point) Vector {
	return Vector{X: p.X - q.X, Y: p.Y - q.Y}
}

// Translate moves p by v in place.
func (p *Point) Translate(v Vector) {
	p.X += v.X
	p.Y += v.Y
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Equal reports whether p and q are the same position within Epsilon.
func (p Point) Equal(q Point) bool {
	return math.Abs(p.X-q.X) <= Epsilon && math.Abs(p.Y-q.Y) <= Epsilon
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

func (p Point) coord() geom.Coord {
	return geom.Coord{X: p.X, Y: p.Y}
}

// Vector is a displacement in scene coordinates.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec is a convenience function to create a Vector.
func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

func (v Vector) Add(w Vector) Vector {
	return Vector{X: v.X + w.X, Y: v.Y + w.Y}
}

func (v Vector) Sub(w Vector) Vector {
	return Vector{X: v.X - w.X, Y: v.Y - w.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of two vectors.
func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z component of the 3D cross product. It is positive when
// w is counter-clockwise from v.
func (v Vector) Cross(w Vector) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the Euclidean norm.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsNull reports whether the vector is shorter than Epsilon.
func (v Vector) IsNull() bool {
	return v.Length() < Epsilon
}

// Normalized returns a unit vector with the same direction. A null vector is
// returned unchanged.
func (v Vector) Normalized() Vector {
	l := v.Length()
	if l < Epsilon {
		return v
	}
	return Vector{X: v.X / l, Y: v.Y / l}
}

// Normalize scales v to unit length in place.
func (v *Vector) Normalize() {
	*v = v.Normalized()
}

// Left returns v rotated by +90 degrees.
func (v Vector) Left() Vector {
	return Vector{X: -v.Y, Y: v.X}
}

// Right returns v rotated by -90 degrees.
func (v Vector) Right() Vector {
	return Vector{X: v.Y, Y: -v.X}
}

// Angle returns the direction of v in radians, in (-pi, pi].
func (v Vector) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Reflect mirrors v about the line whose unit normal is n:
// r = v - 2(v.n)n
func (v Vector) Reflect(n Vector) Vector {
	n = n.Normalized()
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

// IsParallel reports whether v and w point along the same line, in either
// direction.
func (v Vector) IsParallel(w Vector) bool {
	return math.Abs(v.Normalized().Cross(w.Normalized())) < 1e-9
}
