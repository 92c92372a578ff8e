package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// Polygon is a closed chain of vertices. Insertion order is winding order and
// the last vertex connects back to the first.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Vertices: pts}
}

func (p Polygon) Len() int {
	return len(p.Vertices)
}

// HasEnoughVertices reports whether the polygon has at least three vertices.
// Incomplete polygons take no part in cutting or area bookkeeping.
func (p Polygon) HasEnoughVertices() bool {
	return len(p.Vertices) >= 3
}

// Vertex returns the i-th vertex, wrapping around in both directions.
func (p Polygon) Vertex(i int) Point {
	n := len(p.Vertices)
	return p.Vertices[((i%n)+n)%n]
}

// Edge returns the edge going from vertex i to vertex i+1.
func (p Polygon) Edge(i int) Segment {
	return Segment{A: p.Vertex(i), B: p.Vertex(i + 1)}
}

// Edges returns every edge in winding order.
func (p Polygon) Edges() []Segment {
	n := len(p.Vertices)
	if n < 2 {
		return nil
	}
	edges := make([]Segment, n)
	for i := range edges {
		edges[i] = p.Edge(i)
	}
	return edges
}

// AppendVertex adds v to the chain unless it repeats the previous vertex.
func (p *Polygon) AppendVertex(v Point) {
	if n := len(p.Vertices); n > 0 && p.Vertices[n-1].Equal(v) {
		return
	}
	p.Vertices = append(p.Vertices, v)
}

// HasDuplicateVertices reports whether two consecutive vertices (closing edge
// included) share a position.
func (p Polygon) HasDuplicateVertices() bool {
	n := len(p.Vertices)
	if n < 2 {
		return false
	}
	for i := 0; i < n; i++ {
		if p.Vertices[i].Equal(p.Vertices[(i+1)%n]) {
			return true
		}
	}
	return false
}

// OrientedArea returns the shoelace area: 0.5 * sum(x_i*y_i+1 - x_i+1*y_i).
// It is positive for counter-clockwise winding.
func (p Polygon) OrientedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the unsigned area.
func (p Polygon) Area() float64 {
	return math.Abs(p.OrientedArea())
}

// Barycenter returns the mean of the vertices. Only meaningful with at least
// three vertices.
func (p Polygon) Barycenter() Point {
	if len(p.Vertices) == 0 {
		return Point{}
	}
	var c Point
	for _, v := range p.Vertices {
		c.X += v.X
		c.Y += v.Y
	}
	n := float64(len(p.Vertices))
	return Point{X: c.X / n, Y: c.Y / n}
}

// IsPointOnBoundary reports whether pt lies on an edge within Epsilon.
func (p Polygon) IsPointOnBoundary(pt Point) bool {
	return p.IsPointNearOneEdge(pt, Epsilon)
}

// IsPointInside tests pt against the polygon using ray casting. Points on the
// boundary count as inside.
func (p Polygon) IsPointInside(pt Point) bool {
	if !p.HasEnoughVertices() {
		return false
	}
	if p.IsPointOnBoundary(pt) {
		return true
	}

	inside := false
	n := len(p.Vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// IsPointStrictlyInside tests pt against the polygon, boundary excluded.
func (p Polygon) IsPointStrictlyInside(pt Point) bool {
	return p.IsPointInside(pt) && !p.IsPointOnBoundary(pt)
}

// IsPointNearOneEdge reports whether pt is within tolerance of any edge,
// measured to the edge segment rather than its supporting line.
func (p Polygon) IsPointNearOneEdge(pt Point, tolerance float64) bool {
	for _, e := range p.Edges() {
		if e.DistanceToPoint(pt) <= tolerance {
			return true
		}
	}
	return false
}

// Translate moves every vertex by v in place.
func (p *Polygon) Translate(v Vector) {
	for i := range p.Vertices {
		p.Vertices[i].Translate(v)
	}
}

// Clone returns a deep copy.
func (p Polygon) Clone() Polygon {
	vs := make([]Point, len(p.Vertices))
	copy(vs, p.Vertices)
	return Polygon{Vertices: vs}
}

// Reversed returns the polygon with the opposite winding.
func (p Polygon) Reversed() Polygon {
	n := len(p.Vertices)
	vs := make([]Point, n)
	for i, v := range p.Vertices {
		vs[n-1-i] = v
	}
	return Polygon{Vertices: vs}
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (p Polygon) Bounds() geom.Rect {
	return boundsOf(p.Vertices...)
}
