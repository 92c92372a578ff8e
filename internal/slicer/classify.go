package slicer

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

// Rejection records why a piece crossed by a cut could not be split.
type Rejection struct {
	PieceID string `json:"pieceId"`
	Reason  string `json:"reason"`
}

// Classification is the outcome of a cut attempt over a polygon set.
type Classification struct {
	Verdict Verdict `json:"verdict"`
	// Split lists the ids of the pieces removed by valid splits.
	Split []string `json:"split,omitempty"`
	// Created lists the ids of the children added by valid splits.
	Created  []string    `json:"created,omitempty"`
	Rejected []Rejection `json:"rejected,omitempty"`
	// Pieces is the resulting polygon set. It is the input set, unchanged,
	// unless the verdict is GoodCut.
	Pieces []Piece `json:"pieces"`
}

// Affected returns the ids of every piece the cut interacted with.
func (c Classification) Affected() []string {
	ids := slices.Clone(c.Split)
	for _, r := range c.Rejected {
		if !slices.Contains(ids, r.PieceID) {
			ids = append(ids, r.PieceID)
		}
	}
	return ids
}

// ClassifyCut applies the segments of a cut in order to a working copy of
// pieces. Each segment is tested against every piece of the working set; a
// piece it validly crosses is replaced by its two children, which later
// segments may split again. The input slice is never modified.
func (s *Slicer) ClassifyCut(lines []geometry.Segment, pieces []Piece) Classification {
	work := ClonePieces(pieces)
	var res Classification

	for _, line := range lines {
		if line.IsDegenerate() {
			continue
		}
		kept := make([]Piece, 0, len(work))
		var added []Piece

		for _, piece := range work {
			cut := s.classifyPolygon(line, piece.Polygon)
			switch cut.verdict {
			case GoodCut:
				a := Piece{ID: s.newID(), Polygon: cut.a}
				b := Piece{ID: s.newID(), Polygon: cut.b}
				added = append(added, a, b)
				res.Split = append(res.Split, piece.ID)
				res.Created = append(res.Created, a.ID, b.ID)
			case BadCut:
				kept = append(kept, piece)
				if !slices.ContainsFunc(res.Rejected, func(r Rejection) bool { return r.PieceID == piece.ID }) {
					res.Rejected = append(res.Rejected, Rejection{PieceID: piece.ID, Reason: cut.reason})
				}
				slog.Debug("cut rejected", "piece", piece.ID, "reason", cut.reason)
			default:
				kept = append(kept, piece)
			}
		}
		work = append(kept, added...)
	}

	switch {
	case len(res.Split) > 0:
		res.Verdict = GoodCut
		res.Pieces = work
		// Children split again by a later segment never reach the final set.
		res.Created = slices.DeleteFunc(res.Created, func(id string) bool {
			return slices.Contains(res.Split, id)
		})
	case len(res.Rejected) > 0:
		res.Verdict = BadCut
		res.Pieces = pieces
	default:
		res.Verdict = NoCut
		res.Pieces = pieces
	}
	return res
}

type polygonCut struct {
	verdict Verdict
	reason  string
	a, b    geometry.Polygon
}

func bad(reason string) polygonCut {
	return polygonCut{verdict: BadCut, reason: reason}
}

func (s *Slicer) classifyPolygon(line geometry.Segment, poly geometry.Polygon) polygonCut {
	if !poly.HasEnoughVertices() || line.IsDegenerate() {
		return polygonCut{verdict: NoCut}
	}
	if !geometry.RectsOverlap(line.Bounds(), poly.Bounds()) {
		return polygonCut{verdict: NoCut}
	}

	for _, e := range poly.Edges() {
		if line.Overlaps(e) {
			return bad("cut runs along an edge")
		}
	}

	points := s.boundaryPoints(line, poly)
	if len(points) == 0 {
		return polygonCut{verdict: NoCut}
	}

	for _, end := range []geometry.Point{line.A, line.B} {
		if poly.IsPointInside(end) && !poly.IsPointNearOneEdge(end, s.tol.VertexSnap) {
			return bad("cut ends inside the piece")
		}
	}

	switch {
	case len(points) == 1:
		return bad("cut touches the boundary once")
	case len(points) > 2:
		return bad("cut crosses the boundary more than twice")
	}

	p, q := points[0], points[1]
	if !p.Vertex && !q.Vertex && p.Edge == q.Edge {
		return bad("entry and exit on the same edge")
	}
	mid := p.Point.Lerp(q.Point, 0.5)
	if !poly.IsPointInside(mid) || poly.IsPointNearOneEdge(mid, s.tol.VertexSnap) {
		return bad("cut does not go through the interior")
	}

	a, b, err := splitAt(poly, p, q, s.tol)
	if err != nil {
		if errors.Is(err, ErrDegenerateSplit) {
			return bad(err.Error())
		}
		return bad("split failed")
	}
	return polygonCut{verdict: GoodCut, a: a, b: b}
}

// boundaryPoints returns the distinct points where line meets the boundary
// of poly, ordered along the line. Crossings within VertexSnap of a vertex
// are moved onto it; coincident crossings are reported once, preferring the
// vertex record, which carries the edge starting at that vertex.
func (s *Slicer) boundaryPoints(line geometry.Segment, poly geometry.Polygon) []BoundaryPoint {
	n := poly.Len()
	var points []BoundaryPoint

	for i, e := range poly.Edges() {
		c, ok := line.Intersection(e)
		if !ok {
			continue
		}
		bp := BoundaryPoint{Point: c.Point, Edge: i, U: c.U, T: c.T}

		elen := e.Length()
		switch {
		case c.U*elen <= s.tol.VertexSnap:
			bp.Point, bp.U, bp.Vertex = e.A, 0, true
		case (1-c.U)*elen <= s.tol.VertexSnap:
			bp.Point, bp.Edge, bp.U, bp.Vertex = e.B, (i+1)%n, 0, true
		}

		dup := slices.IndexFunc(points, func(o BoundaryPoint) bool {
			return o.Point.Distance(bp.Point) <= s.tol.VertexSnap
		})
		if dup >= 0 {
			if bp.Vertex && !points[dup].Vertex {
				points[dup] = bp
			}
			continue
		}
		points = append(points, bp)
	}

	slices.SortFunc(points, func(a, b BoundaryPoint) int {
		switch {
		case a.T < b.T:
			return -1
		case a.T > b.T:
			return 1
		}
		return 0
	})
	return points
}
