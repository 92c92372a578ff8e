// Package deviation turns a raw stroke into the effective segments a cut
// travels along once mirrors, portals, one-way gates and tapes have had their
// say.
package deviation

import (
	"github.com/jbeda/geom"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

// Kind names the variant of a scene object.
type Kind int

const (
	KindTape Kind = iota
	KindMirror
	KindOneWay
	KindPortal
)

func (k Kind) String() string {
	switch k {
	case KindTape:
		return "tape"
	case KindMirror:
		return "mirror"
	case KindOneWay:
		return "oneWay"
	case KindPortal:
		return "portal"
	default:
		return "unknown"
	}
}

// OutcomeKind says what an object does to a ray that reaches it.
type OutcomeKind int

const (
	// Blocked ends the resolution; the cut does not happen.
	Blocked OutcomeKind = iota
	// PassThrough lets the ray go on unchanged past the hit point.
	PassThrough
	// Continue replaces the rest of the ray with Outcome.Next.
	Continue
)

// Outcome is the result of a ray meeting an object. At locates the hit on the
// incoming ray.
type Outcome struct {
	Kind OutcomeKind
	At   geometry.Crossing
	Next geometry.Segment
}

// Object is a scene element able to deviate or stop a cutting ray. The set of
// variants is closed: Tape, Mirror, OneWay and Portal.
type Object interface {
	ObjectID() string
	Kind() Kind
	IsDisposable() bool

	// ResolveDeviation returns what happens to incoming at its first contact
	// with the object, or false when the ray does not reach it. Contacts at
	// the very start of the ray are ignored so that a ray leaving an object
	// does not hit it again.
	ResolveDeviation(incoming geometry.Segment) (Outcome, bool)

	sealed()
}

// Base carries the fields shared by every object.
type Base struct {
	ID         string
	Disposable bool
}

func (b Base) ObjectID() string   { return b.ID }
func (b Base) IsDisposable() bool { return b.Disposable }
func (Base) sealed()              {}

// minTravel is the distance a ray must cover before a contact counts.
const minTravel = 1e-7

func ahead(ray geometry.Segment, c geometry.Crossing) bool {
	return c.T*ray.Length() > minTravel
}

// Tape is an axis-aligned rectangle that stops any ray touching it.
type Tape struct {
	Base
	Rect geom.Rect
}

func (t *Tape) Kind() Kind { return KindTape }

func (t *Tape) ResolveDeviation(incoming geometry.Segment) (Outcome, bool) {
	t0, _, ok := geometry.ClipSegment(t.Rect, incoming)
	if !ok {
		return Outcome{}, false
	}
	return Outcome{
		Kind: Blocked,
		At:   geometry.Crossing{Point: incoming.At(t0), T: t0},
	}, true
}

// Mirror reflects rays about its own line. Both faces reflect.
type Mirror struct {
	Base
	Line geometry.Segment
}

func (m *Mirror) Kind() Kind { return KindMirror }

func (m *Mirror) ResolveDeviation(incoming geometry.Segment) (Outcome, bool) {
	c, ok := incoming.Intersection(m.Line)
	if !ok || !ahead(incoming, c) {
		return Outcome{}, false
	}

	remaining := incoming.Length() * (1 - c.T)
	dir := incoming.Direction().Reflect(m.Line.Normal())
	return Outcome{
		Kind: Continue,
		At:   c,
		Next: geometry.Seg(c.Point, c.Point.Add(dir.Scale(remaining))),
	}, true
}

// OneWay lets rays travelling along its normal through and stops the others.
// The allowed direction is the left normal of Line.
type OneWay struct {
	Base
	Line geometry.Segment
}

func (o *OneWay) Kind() Kind { return KindOneWay }

// Allows reports whether a ray going along dir may cross the gate.
func (o *OneWay) Allows(dir geometry.Vector) bool {
	return dir.Dot(o.Line.Normal()) > 0
}

func (o *OneWay) ResolveDeviation(incoming geometry.Segment) (Outcome, bool) {
	c, ok := incoming.Intersection(o.Line)
	if !ok || !ahead(incoming, c) {
		return Outcome{}, false
	}
	if o.Allows(incoming.Direction()) {
		return Outcome{Kind: PassThrough, At: c}, true
	}
	return Outcome{Kind: Blocked, At: c}, true
}

// Portal teleports rays crossing In so that they emerge from Out. The
// emergence point keeps its fractional position along the portal and the
// direction turns with the portal frame. Out itself is transparent.
type Portal struct {
	Base
	In  geometry.Segment
	Out geometry.Segment
}

func (p *Portal) Kind() Kind { return KindPortal }

func (p *Portal) ResolveDeviation(incoming geometry.Segment) (Outcome, bool) {
	c, ok := incoming.Intersection(p.In)
	if !ok || !ahead(incoming, c) {
		return Outcome{}, false
	}

	m := geometry.FrameTransform(p.In, p.Out, c.U)
	start := m.TransformPoint(c.Point)
	dir := m.TransformVector(incoming.Direction())
	remaining := incoming.Length() * (1 - c.T)
	return Outcome{
		Kind: Continue,
		At:   c,
		Next: geometry.Seg(start, start.Add(dir.Scale(remaining))),
	}, true
}
