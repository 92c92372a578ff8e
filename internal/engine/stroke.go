package engine

import "github.com/polypixel/polypixel/backend-go/internal/geometry"

// stroke is the gesture being drawn. The cut is the straight segment from the
// press point to the latest sample.
type stroke struct {
	start geometry.Point
	last  geometry.Point
}

func (s *stroke) segment() geometry.Segment {
	return geometry.Seg(s.start, s.last)
}

// Press starts a stroke at p.
func (e *Engine) Press(p geometry.Point) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.stroke != nil {
		return ErrStrokeActive
	}
	e.stroke = &stroke{start: p, last: p}
	e.last = nil
	return nil
}

// Drag moves the end of the stroke to p and returns what releasing there
// would do.
func (e *Engine) Drag(p geometry.Point) (Attempt, error) {
	if e.stroke == nil {
		return Attempt{}, ErrNoStroke
	}
	e.stroke.last = p
	a := e.evaluate(e.stroke.segment())
	e.last = &a
	return a, nil
}

// Release ends the stroke at p and commits the cut.
func (e *Engine) Release(p geometry.Point) (Result, error) {
	if e.stroke == nil {
		return Result{}, ErrNoStroke
	}
	e.stroke.last = p
	raw := e.stroke.segment()
	e.stroke = nil
	if err := e.ready(); err != nil {
		return Result{}, err
	}
	return e.commit(e.evaluate(raw)), nil
}

// Cancel abandons the stroke. Nothing is committed.
func (e *Engine) Cancel() {
	e.stroke = nil
	e.last = nil
}

// StrokeActive reports whether a stroke is being drawn.
func (e *Engine) StrokeActive() bool {
	return e.stroke != nil
}
