package geometry

import "github.com/jbeda/geom"

// RectXYWH builds a bounding rectangle from its top-left corner and size.
// Negative sizes are normalized.
func RectXYWH(x, y, w, h float64) geom.Rect {
	return boundsOf(Pt(x, y), Pt(x+w, y+h))
}

func boundsOf(pts ...Point) geom.Rect {
	if len(pts) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{Min: pts[0].coord(), Max: pts[0].coord()}
	for _, p := range pts[1:] {
		r.ExpandToContainCoord(p.coord())
	}
	return r
}

// RectsOverlap reports whether two rectangles share at least one point,
// boundaries included.
func RectsOverlap(a, b geom.Rect) bool {
	return a.Min.X <= b.Max.X+Epsilon && b.Min.X <= a.Max.X+Epsilon &&
		a.Min.Y <= b.Max.Y+Epsilon && b.Min.Y <= a.Max.Y+Epsilon
}

// RectContains reports whether p lies inside r, boundaries included.
func RectContains(r geom.Rect, p Point) bool {
	return p.X >= r.Min.X-Epsilon && p.X <= r.Max.X+Epsilon &&
		p.Y >= r.Min.Y-Epsilon && p.Y <= r.Max.Y+Epsilon
}

// ClipSegment clips s against r (Liang-Barsky) and returns the parameter range
// [t0, t1] of s lying inside the rectangle.
func ClipSegment(r geom.Rect, s Segment) (t0, t1 float64, ok bool) {
	if !RectsOverlap(r, s.Bounds()) {
		return 0, 0, false
	}

	d := s.Vector()
	t0, t1 = 0, 1
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= -Epsilon
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	if clip(-d.X, s.A.X-r.Min.X) &&
		clip(d.X, r.Max.X-s.A.X) &&
		clip(-d.Y, s.A.Y-r.Min.Y) &&
		clip(d.Y, r.Max.Y-s.A.Y) {
		return t0, t1, true
	}
	return 0, 0, false
}
