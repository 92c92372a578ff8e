package engine

import (
	"github.com/polypixel/polypixel/backend-go/internal/deviation"
	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/level"
	"github.com/polypixel/polypixel/backend-go/internal/slicer"
)

// BuildPieces turns the polygons of a level into the starting polygon set.
// Piece ids are the level polygon ids so that restarts are reproducible.
func BuildPieces(l *level.Level) []slicer.Piece {
	pieces := make([]slicer.Piece, 0, len(l.Polygons))
	for _, p := range l.Polygons {
		pieces = append(pieces, slicer.Piece{
			ID:      p.ID,
			Polygon: geometry.NewPolygon(append([]geometry.Point(nil), p.Vertices...)...),
		})
	}
	return pieces
}

// BuildScene creates the deviation objects of a level. Objects are evaluated
// in level order: tapes, one-ways, mirrors, then portals.
func BuildScene(l *level.Level) *deviation.Scene {
	var objects []deviation.Object

	for _, t := range l.Tapes {
		objects = append(objects, &deviation.Tape{
			Base: deviation.Base{ID: t.ID, Disposable: t.Disposable},
			Rect: geometry.RectXYWH(t.X, t.Y, t.W, t.H),
		})
	}
	for _, o := range l.OneWays {
		objects = append(objects, &deviation.OneWay{
			Base: deviation.Base{ID: o.ID, Disposable: o.Disposable},
			Line: o.Segment(),
		})
	}
	for _, m := range l.Mirrors {
		objects = append(objects, &deviation.Mirror{
			Base: deviation.Base{ID: m.ID, Disposable: m.Disposable},
			Line: m.Segment(),
		})
	}
	for _, p := range l.Portals {
		objects = append(objects, &deviation.Portal{
			Base: deviation.Base{ID: p.ID, Disposable: p.Disposable},
			In:   p.In,
			Out:  p.Out,
		})
	}

	return deviation.NewScene(objects...)
}

// ObjectState is a read-only view of a scene object for hosts.
type ObjectState struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Disposable bool               `json:"disposable"`
	Used       bool               `json:"used"`
	Segments   []geometry.Segment `json:"segments,omitempty"`
	// Rect is x, y, w, h for tapes.
	Rect []float64 `json:"rect,omitempty"`
}

func objectStates(scene *deviation.Scene) []ObjectState {
	states := make([]ObjectState, 0, len(scene.Objects()))
	for _, obj := range scene.Objects() {
		st := ObjectState{
			ID:         obj.ObjectID(),
			Kind:       obj.Kind().String(),
			Disposable: obj.IsDisposable(),
			Used:       scene.IsUsed(obj.ObjectID()),
		}
		switch o := obj.(type) {
		case *deviation.Tape:
			r := o.Rect
			st.Rect = []float64{r.Min.X, r.Min.Y, r.Width(), r.Height()}
		case *deviation.Mirror:
			st.Segments = []geometry.Segment{o.Line}
		case *deviation.OneWay:
			st.Segments = []geometry.Segment{o.Line}
		case *deviation.Portal:
			st.Segments = []geometry.Segment{o.In, o.Out}
		}
		states = append(states, st)
	}
	return states
}
