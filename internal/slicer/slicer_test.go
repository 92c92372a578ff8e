package slicer

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

func square() geometry.Polygon {
	return geometry.NewPolygon(
		geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10),
	)
}

// uShape is a U opening upwards: two 10x20 prongs on a 30x10 base.
func uShape() geometry.Polygon {
	return geometry.NewPolygon(
		geometry.Pt(0, 0), geometry.Pt(30, 0), geometry.Pt(30, 30), geometry.Pt(20, 30),
		geometry.Pt(20, 10), geometry.Pt(10, 10), geometry.Pt(10, 30), geometry.Pt(0, 30),
	)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

func newTestSlicer() *Slicer {
	return NewSlicer(DefaultTolerances(), seqIDs())
}

func seg(ax, ay, bx, by float64) geometry.Segment {
	return geometry.Seg(geometry.Pt(ax, ay), geometry.Pt(bx, by))
}

func TestClassifyCutSingleSegment(t *testing.T) {
	tests := []struct {
		name    string
		poly    geometry.Polygon
		line    geometry.Segment
		verdict Verdict
		areas   []float64
	}{
		{"halves", square(), seg(-1, 5, 11, 5), GoodCut, []float64{50, 50}},
		{"diagonal through vertices", square(), seg(-1, -1, 11, 11), GoodCut, []float64{50, 50}},
		{"uneven but large enough", square(), seg(-1, 3, 11, 3), GoodCut, []float64{70, 30}},
		{"sliver", square(), seg(-1, 0.1, 11, 0.1), BadCut, nil},
		{"outside", square(), seg(20, 0, 30, 10), NoCut, nil},
		{"fully inside", square(), seg(2, 2, 8, 8), NoCut, nil},
		{"ends inside", square(), seg(-1, 5, 5, 5), BadCut, nil},
		{"along an edge", square(), seg(-1, 0, 11, 0), BadCut, nil},
		{"grazes a corner", square(), seg(-5, 5, 5, -5), BadCut, nil},
		{"crosses both prongs", uShape(), seg(-1, 20, 31, 20), BadCut, nil},
		{"crosses one prong", uShape(), seg(-1, 20, 15, 20), GoodCut, []float64{100, 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSlicer()
			pieces := []Piece{{ID: "root", Polygon: tt.poly}}

			res := s.ClassifyCut([]geometry.Segment{tt.line}, pieces)
			if res.Verdict != tt.verdict {
				t.Fatalf("verdict = %v, want %v (rejected %v)", res.Verdict, tt.verdict, res.Rejected)
			}

			if tt.verdict != GoodCut {
				if len(res.Pieces) != 1 || res.Pieces[0].ID != "root" {
					t.Fatalf("pieces changed on %v: %+v", tt.verdict, res.Pieces)
				}
				return
			}

			if len(res.Pieces) != 2 {
				t.Fatalf("got %d pieces, want 2", len(res.Pieces))
			}
			got := []float64{res.Pieces[0].Polygon.OrientedArea(), res.Pieces[1].Polygon.OrientedArea()}
			slices.Sort(got)
			want := slices.Clone(tt.areas)
			slices.Sort(want)
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("areas = %v, want %v", got, want)
					break
				}
			}
			if !slices.Equal(res.Split, []string{"root"}) {
				t.Errorf("split = %v, want [root]", res.Split)
			}
			if len(res.Created) != 2 {
				t.Errorf("created = %v, want two ids", res.Created)
			}
		})
	}
}

func TestClassifyCutDoesNotModifyInput(t *testing.T) {
	s := newTestSlicer()
	pieces := []Piece{{ID: "root", Polygon: square()}}

	res := s.ClassifyCut([]geometry.Segment{seg(-1, 5, 11, 5)}, pieces)
	if res.Verdict != GoodCut {
		t.Fatalf("verdict = %v, want goodCut", res.Verdict)
	}
	if len(pieces) != 1 || pieces[0].Polygon.Len() != 4 || pieces[0].Polygon.OrientedArea() != 100 {
		t.Errorf("input set modified: %+v", pieces)
	}
}

func TestClassifyCutSequentialSegments(t *testing.T) {
	s := newTestSlicer()
	pieces := []Piece{{ID: "sq", Polygon: square()}}
	lines := []geometry.Segment{seg(-1, 5, 11, 5), seg(5, -1, 5, 11)}

	res := s.ClassifyCut(lines, pieces)
	if res.Verdict != GoodCut {
		t.Fatalf("verdict = %v, want goodCut", res.Verdict)
	}
	if !slices.Equal(res.Split, []string{"sq", "p1", "p2"}) {
		t.Errorf("split = %v", res.Split)
	}
	if !slices.Equal(res.Created, []string{"p3", "p4", "p5", "p6"}) {
		t.Errorf("created = %v", res.Created)
	}
	if len(res.Pieces) != 4 {
		t.Fatalf("got %d pieces, want 4", len(res.Pieces))
	}
	for _, p := range res.Pieces {
		if a := p.Polygon.OrientedArea(); math.Abs(a-25) > 1e-9 {
			t.Errorf("piece %s area = %v, want 25", p.ID, a)
		}
	}
}

func TestClassifyCutKeepsUntouchedPiecesInOrder(t *testing.T) {
	s := newTestSlicer()
	far := square()
	far.Translate(geometry.Vec(100, 0))
	pieces := []Piece{{ID: "a", Polygon: square()}, {ID: "b", Polygon: far}}

	res := s.ClassifyCut([]geometry.Segment{seg(-1, 5, 11, 5)}, pieces)
	if res.Verdict != GoodCut {
		t.Fatalf("verdict = %v, want goodCut", res.Verdict)
	}
	ids := make([]string, len(res.Pieces))
	for i, p := range res.Pieces {
		ids[i] = p.ID
	}
	if !slices.Equal(ids, []string{"b", "p1", "p2"}) {
		t.Errorf("order = %v, want [b p1 p2]", ids)
	}
}

func TestClassifyCutGoodWinsOverBad(t *testing.T) {
	s := newTestSlicer()
	other := square()
	other.Translate(geometry.Vec(20, 0))
	pieces := []Piece{{ID: "a", Polygon: square()}, {ID: "b", Polygon: other}}

	// Crosses a fully, stops inside b.
	res := s.ClassifyCut([]geometry.Segment{seg(-1, 5, 25, 5)}, pieces)
	if res.Verdict != GoodCut {
		t.Fatalf("verdict = %v, want goodCut", res.Verdict)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].PieceID != "b" {
		t.Errorf("rejected = %v, want b", res.Rejected)
	}
	if got := res.Affected(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("affected = %v", got)
	}
}

func TestClassifyCutPreservesAreaOnConvexPolygon(t *testing.T) {
	var hex geometry.Polygon
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		hex.AppendVertex(geometry.Pt(10*math.Cos(a), 10*math.Sin(a)))
	}
	total := hex.OrientedArea()

	for deg := 3; deg < 360; deg += 7 {
		a := float64(deg) * math.Pi / 180
		d := geometry.Vec(math.Cos(a), math.Sin(a)).Scale(20)
		line := geometry.Seg(geometry.Pt(0, 0).Add(d.Scale(-1)), geometry.Pt(0, 0).Add(d))

		res := newTestSlicer().ClassifyCut([]geometry.Segment{line}, []Piece{{ID: "hex", Polygon: hex}})
		if res.Verdict != GoodCut {
			t.Fatalf("angle %d: verdict = %v (%v)", deg, res.Verdict, res.Rejected)
		}
		sum := 0.0
		for _, p := range res.Pieces {
			if p.Polygon.OrientedArea() <= 0 {
				t.Errorf("angle %d: child %s lost its winding", deg, p.ID)
			}
			sum += p.Polygon.OrientedArea()
		}
		if math.Abs(sum-total) > 1e-9 {
			t.Errorf("angle %d: area %v, want %v", deg, sum, total)
		}
	}
}

func TestClassifyCutClockwisePolygon(t *testing.T) {
	s := newTestSlicer()
	cw := square().Reversed()

	res := s.ClassifyCut([]geometry.Segment{seg(-1, 5, 11, 5)}, []Piece{{ID: "cw", Polygon: cw}})
	if res.Verdict != GoodCut {
		t.Fatalf("verdict = %v, want goodCut", res.Verdict)
	}
	for _, p := range res.Pieces {
		if a := p.Polygon.OrientedArea(); math.Abs(a+50) > 1e-9 {
			t.Errorf("piece %s area = %v, want -50", p.ID, a)
		}
	}
}

func TestApplySplit(t *testing.T) {
	a, b, err := ApplySplit(square(), geometry.Pt(10, 5), geometry.Pt(0, 5), DefaultTolerances())
	if err != nil {
		t.Fatalf("ApplySplit() error = %v", err)
	}
	if a.OrientedArea() != 50 || b.OrientedArea() != 50 {
		t.Errorf("areas = %v, %v, want 50, 50", a.OrientedArea(), b.OrientedArea())
	}
	if a.HasDuplicateVertices() || b.HasDuplicateVertices() {
		t.Errorf("children carry duplicate vertices: %v %v", a, b)
	}

	// Through opposite vertices.
	a, b, err = ApplySplit(square(), geometry.Pt(0, 0), geometry.Pt(10, 10), DefaultTolerances())
	if err != nil {
		t.Fatalf("ApplySplit() diagonal error = %v", err)
	}
	if a.Len() != 3 || b.Len() != 3 {
		t.Errorf("diagonal children have %d and %d vertices, want triangles", a.Len(), b.Len())
	}
}

func TestApplySplitErrors(t *testing.T) {
	tests := []struct {
		name        string
		entry, exit geometry.Point
	}{
		{"entry off boundary", geometry.Pt(5, 5), geometry.Pt(0, 5)},
		{"same point", geometry.Pt(0, 5), geometry.Pt(0, 5)},
		{"sliver", geometry.Pt(0, 0.1), geometry.Pt(10, 0.1)},
		{"adjacent vertices", geometry.Pt(0, 0), geometry.Pt(10, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ApplySplit(square(), tt.entry, tt.exit, DefaultTolerances())
			if !errors.Is(err, ErrDegenerateSplit) {
				t.Errorf("error = %v, want ErrDegenerateSplit", err)
			}
		})
	}
}

func TestLedger(t *testing.T) {
	s := newTestSlicer()
	pieces := []Piece{{ID: "sq", Polygon: square()}}
	ledger := NewLedger(pieces)
	if ledger.Total() != 100 {
		t.Fatalf("total = %v, want 100", ledger.Total())
	}

	res := s.ClassifyCut([]geometry.Segment{seg(-1, 3, 11, 3)}, pieces)
	if err := ledger.Verify(res.Pieces); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	areas := ledger.ComputeAreas(res.Pieces)
	shares := slices.Clone(areas.Shares)
	slices.Sort(shares)
	if !slices.Equal(shares, []float64{30, 70}) {
		t.Errorf("shares = %v, want [30 70]", shares)
	}
	if areas.MinShare != 30 || areas.MaxShare != 70 || areas.Gap() != 40 {
		t.Errorf("min/max/gap = %v/%v/%v", areas.MinShare, areas.MaxShare, areas.Gap())
	}

	if err := ledger.Verify(res.Pieces[:1]); !errors.Is(err, ErrAreaInvariantViolation) {
		t.Errorf("Verify() on partial set error = %v, want ErrAreaInvariantViolation", err)
	}
}

func TestShare(t *testing.T) {
	tests := []struct {
		area, total, want float64
	}{
		{1, 3, 33.3},
		{2, 3, 66.7},
		{50, 100, 50},
		{-25, -100, 25},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Share(tt.area, tt.total); got != tt.want {
			t.Errorf("Share(%v, %v) = %v, want %v", tt.area, tt.total, got, tt.want)
		}
	}
}

func TestComputeAreasEmpty(t *testing.T) {
	areas := ComputeAreas(nil, 100)
	if areas.MinShare != 0 || areas.MaxShare != 0 || len(areas.Shares) != 0 {
		t.Errorf("ComputeAreas(nil) = %+v", areas)
	}
}

func TestLedgerVerifyTolerance(t *testing.T) {
	rect := func(w, h float64) []Piece {
		return []Piece{{ID: "r", Polygon: geometry.NewPolygon(
			geometry.Pt(0, 0), geometry.Pt(w, 0), geometry.Pt(w, h), geometry.Pt(0, h),
		)}}
	}
	ledger := NewLedger(rect(1000, 1000))

	tests := []struct {
		name    string
		height  float64
		wantErr bool
	}{
		{"exact", 1000, false},
		{"relative drift within 1e-6", 1000.0005, false},
		{"relative drift beyond 1e-6", 1000.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Verify(rect(1000, tt.height))
			if got := errors.Is(err, ErrAreaInvariantViolation); got != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
