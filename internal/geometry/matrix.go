package geometry

import "math"

// Matrix2D is a 2D affine transform, used to carry rays through portals.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Translate returns a translation matrix.
func Translate(v Vector) Matrix2D {
	return Matrix2D{1, 0, 0, 1, v.X, v.Y}
}

// Rotate returns a rotation matrix (angle in radians, counter-clockwise).
func Rotate(radians float64) Matrix2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// TransformVector applies the linear part of the matrix, ignoring translation.
func (m Matrix2D) TransformVector(v Vector) Vector {
	return Vector{
		X: m[0]*v.X + m[2]*v.Y,
		Y: m[1]*v.X + m[3]*v.Y,
	}
}

// FrameTransform returns the rigid transform carrying the frame of from onto
// the frame of to, anchored at parameter t on both segments: the point
// from.At(t) lands on to.At(t) and from's direction turns into to's direction.
func FrameTransform(from, to Segment, t float64) Matrix2D {
	angle := to.Vector().Angle() - from.Vector().Angle()
	src := from.At(t).Sub(Point{})
	dst := to.At(t).Sub(Point{})
	return Translate(dst).Multiply(Rotate(angle)).Multiply(Translate(src.Scale(-1)))
}
