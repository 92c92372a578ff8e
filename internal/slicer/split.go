package slicer

import (
	"errors"
	"fmt"
	"math"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

var ErrDegenerateSplit = errors.New("degenerate split")

// BoundaryPoint is where a cut meets the boundary of a polygon.
type BoundaryPoint struct {
	Point geometry.Point `json:"point"`
	// Edge is the index of the edge holding the point. A point on a vertex
	// belongs to the edge starting at that vertex.
	Edge int `json:"edge"`
	// U is the parameter of the point along Edge, zero on a vertex.
	U float64 `json:"u"`
	// T is the parameter of the point along the cutting segment.
	T      float64 `json:"t"`
	Vertex bool    `json:"vertex"`
}

func (b BoundaryPoint) before(o BoundaryPoint) bool {
	if b.Edge != o.Edge {
		return b.Edge < o.Edge
	}
	return b.U < o.U
}

// LocateBoundaryPoint finds the edge of poly holding p. Points within snap of
// a vertex are placed on that vertex. When p is equally close to several
// edges the lowest edge index wins.
func LocateBoundaryPoint(poly geometry.Polygon, p geometry.Point, snap float64) (BoundaryPoint, bool) {
	n := poly.Len()
	for i := 0; i < n; i++ {
		if poly.Vertices[i].Distance(p) <= snap {
			return BoundaryPoint{Point: poly.Vertices[i], Edge: i, Vertex: true}, true
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, e := range poly.Edges() {
		if d := e.DistanceToPoint(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > snap {
		return BoundaryPoint{}, false
	}

	e := poly.Edge(best)
	v := e.Vector()
	u := p.Sub(e.A).Dot(v) / v.Dot(v)
	return BoundaryPoint{Point: p, Edge: best, U: u}, true
}

// ApplySplit splits poly along the chord going from entry to exit, both of
// which must lie on the boundary. It returns the two children, each wound
// like the parent, or an error wrapping ErrDegenerateSplit.
func ApplySplit(poly geometry.Polygon, entry, exit geometry.Point, tol Tolerances) (geometry.Polygon, geometry.Polygon, error) {
	if !poly.HasEnoughVertices() {
		return geometry.Polygon{}, geometry.Polygon{}, fmt.Errorf("%w: polygon has %d vertices", ErrDegenerateSplit, poly.Len())
	}
	snap := math.Max(tol.VertexSnap, geometry.Epsilon)
	a, ok := LocateBoundaryPoint(poly, entry, snap)
	if !ok {
		return geometry.Polygon{}, geometry.Polygon{}, fmt.Errorf("%w: entry %v is not on the boundary", ErrDegenerateSplit, entry)
	}
	b, ok := LocateBoundaryPoint(poly, exit, snap)
	if !ok {
		return geometry.Polygon{}, geometry.Polygon{}, fmt.Errorf("%w: exit %v is not on the boundary", ErrDegenerateSplit, exit)
	}
	return splitAt(poly, a, b, tol)
}

// splitAt walks the boundary from the first point to the second to build the
// first child, then on to the first point again for the second child.
func splitAt(poly geometry.Polygon, p, q BoundaryPoint, tol Tolerances) (geometry.Polygon, geometry.Polygon, error) {
	if p.Point.Distance(q.Point) <= tol.VertexSnap {
		return geometry.Polygon{}, geometry.Polygon{}, fmt.Errorf("%w: entry and exit coincide", ErrDegenerateSplit)
	}
	if q.before(p) {
		p, q = q, p
	}

	n := poly.Len()
	var a, b geometry.Polygon

	a.AppendVertex(p.Point)
	for k := p.Edge + 1; k <= q.Edge; k++ {
		a.AppendVertex(poly.Vertices[k])
	}
	a.AppendVertex(q.Point)
	closeChain(&a)

	b.AppendVertex(q.Point)
	for k := q.Edge + 1; k <= p.Edge+n; k++ {
		b.AppendVertex(poly.Vertices[k%n])
	}
	b.AppendVertex(p.Point)
	closeChain(&b)

	if err := checkChildren(poly, a, b, tol); err != nil {
		return geometry.Polygon{}, geometry.Polygon{}, err
	}
	return a, b, nil
}

func closeChain(p *geometry.Polygon) {
	if n := p.Len(); n > 1 && p.Vertices[0].Equal(p.Vertices[n-1]) {
		p.Vertices = p.Vertices[:n-1]
	}
}

func checkChildren(parent, a, b geometry.Polygon, tol Tolerances) error {
	parentArea := parent.OrientedArea()
	minArea := tol.minArea(parentArea)

	for _, child := range []geometry.Polygon{a, b} {
		if !child.HasEnoughVertices() {
			return fmt.Errorf("%w: child has %d vertices", ErrDegenerateSplit, child.Len())
		}
		area := child.OrientedArea()
		if math.Abs(area) < minArea {
			return fmt.Errorf("%w: child area %.4g below %.4g", ErrDegenerateSplit, math.Abs(area), minArea)
		}
		if math.Signbit(area) != math.Signbit(parentArea) {
			return fmt.Errorf("%w: child winding differs from parent", ErrDegenerateSplit)
		}
	}

	sum := a.OrientedArea() + b.OrientedArea()
	if math.Abs(sum-parentArea) > 1e-6*math.Max(1, math.Abs(parentArea)) {
		return fmt.Errorf("%w: children area %.6g != parent area %.6g", ErrDegenerateSplit, sum, parentArea)
	}
	return nil
}
