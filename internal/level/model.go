package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

var ErrInvalidLevel = errors.New("invalid level")

// Level is the description of a puzzle: the pieces to cut, the objects that
// deviate or block cuts, and the goals to reach.
type Level struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AuthorID   string    `json:"authorId,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Background string    `json:"background"`
	Polygons   []Polygon `json:"polygons"`
	Tapes      []Tape    `json:"tapes"`
	Mirrors    []Line    `json:"mirrors"`
	OneWays    []Line    `json:"oneWays"`
	Portals    []Portal  `json:"portals"`
	Info       GameInfo  `json:"info"`
}

type Polygon struct {
	ID       string           `json:"id"`
	Vertices []geometry.Point `json:"vertices"`
}

// Tape is an axis-aligned rectangle that blocks cuts.
type Tape struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Disposable bool    `json:"disposable"`
}

// Line is a mirror or a one-way gate. One-ways let cuts through along the
// left normal of A->B.
type Line struct {
	ID         string         `json:"id"`
	A          geometry.Point `json:"a"`
	B          geometry.Point `json:"b"`
	Disposable bool           `json:"disposable"`
}

func (l Line) Segment() geometry.Segment {
	return geometry.Seg(l.A, l.B)
}

type Portal struct {
	ID         string           `json:"id"`
	In         geometry.Segment `json:"in"`
	Out        geometry.Segment `json:"out"`
	Disposable bool             `json:"disposable"`
}

// GameInfo holds the goals of a level. Gaps are in percentage points.
type GameInfo struct {
	LinesGoal   int     `json:"linesGoal"`
	PartsGoal   int     `json:"partsGoal"`
	MaxGapToWin float64 `json:"maxGapToWin"`
	Tolerance   float64 `json:"tolerance"`
	StarsCount  int     `json:"starsCount"`
}

const (
	MinGapToWin = 3
	MaxGapToWin = 100
)

// Decode parses and validates a level. Objects without an id get one.
func Decode(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	l.AssignIDs()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Encode returns the JSON document of the level.
func (l *Level) Encode() ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode level: %w", err)
	}
	return data, nil
}

// AssignIDs fills in missing identifiers.
func (l *Level) AssignIDs() {
	if l.ID == "" {
		l.ID = typeid.NewLevelID()
	}
	for i := range l.Polygons {
		if l.Polygons[i].ID == "" {
			l.Polygons[i].ID = typeid.NewPieceID()
		}
	}
	for i := range l.Tapes {
		if l.Tapes[i].ID == "" {
			l.Tapes[i].ID = typeid.NewObjectID()
		}
	}
	for i := range l.Mirrors {
		if l.Mirrors[i].ID == "" {
			l.Mirrors[i].ID = typeid.NewObjectID()
		}
	}
	for i := range l.OneWays {
		if l.OneWays[i].ID == "" {
			l.OneWays[i].ID = typeid.NewObjectID()
		}
	}
	for i := range l.Portals {
		if l.Portals[i].ID == "" {
			l.Portals[i].ID = typeid.NewObjectID()
		}
	}
}

// Validate reports every problem found, wrapped in ErrInvalidLevel.
func (l *Level) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if l.Width <= 0 || l.Height <= 0 {
		fail("scene size %dx%d must be positive", l.Width, l.Height)
	}
	if len(l.Polygons) == 0 {
		fail("level has no polygons")
	}

	sign := 0.0
	for i, p := range l.Polygons {
		poly := geometry.NewPolygon(p.Vertices...)
		switch {
		case !poly.HasEnoughVertices():
			fail("polygon %d has %d vertices", i, poly.Len())
			continue
		case poly.HasDuplicateVertices():
			fail("polygon %d has duplicate consecutive vertices", i)
			continue
		}
		area := poly.OrientedArea()
		if math.Abs(area) <= geometry.Epsilon {
			fail("polygon %d has zero area", i)
			continue
		}
		if sign != 0 && math.Signbit(area) != math.Signbit(sign) {
			fail("polygon %d is wound against the others", i)
		}
		sign = area
	}

	for i, t := range l.Tapes {
		if t.W <= 0 || t.H <= 0 {
			fail("tape %d has empty size %gx%g", i, t.W, t.H)
		}
	}
	for i, m := range l.Mirrors {
		if m.Segment().IsDegenerate() {
			fail("mirror %d is degenerate", i)
		}
	}
	for i, o := range l.OneWays {
		if o.Segment().IsDegenerate() {
			fail("one-way %d is degenerate", i)
		}
	}
	for i, p := range l.Portals {
		if p.In.IsDegenerate() || p.Out.IsDegenerate() {
			fail("portal %d is degenerate", i)
		}
	}

	if l.Info.LinesGoal < 1 {
		fail("linesGoal %d must be at least 1", l.Info.LinesGoal)
	}
	if l.Info.PartsGoal <= len(l.Polygons) {
		fail("partsGoal %d must exceed the %d starting polygons", l.Info.PartsGoal, len(l.Polygons))
	}
	if l.Info.MaxGapToWin < MinGapToWin || l.Info.MaxGapToWin > MaxGapToWin {
		fail("maxGapToWin %g out of [%d, %d]", l.Info.MaxGapToWin, MinGapToWin, MaxGapToWin)
	}
	if l.Info.Tolerance < 0 || l.Info.Tolerance > 1 {
		fail("tolerance %g out of [0, 1]", l.Info.Tolerance)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy of the level.
func (l *Level) Clone() *Level {
	c := *l
	c.Polygons = make([]Polygon, len(l.Polygons))
	for i, p := range l.Polygons {
		p.Vertices = append([]geometry.Point(nil), p.Vertices...)
		c.Polygons[i] = p
	}
	c.Tapes = append([]Tape(nil), l.Tapes...)
	c.Mirrors = append([]Line(nil), l.Mirrors...)
	c.OneWays = append([]Line(nil), l.OneWays...)
	c.Portals = append([]Portal(nil), l.Portals...)
	return &c
}
