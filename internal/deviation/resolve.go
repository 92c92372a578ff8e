package deviation

import (
	"errors"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

// DefaultMaxHops bounds the reflections and teleports of a single stroke.
const DefaultMaxHops = 16

var (
	ErrDegenerateInput       = errors.New("degenerate stroke")
	ErrUnresolvableDeviation = errors.New("hop bound exceeded")
)

// Resolution is the path a stroke actually takes.
type Resolution struct {
	// Lines are the effective segments, in travel order.
	Lines []geometry.Segment `json:"lines"`
	// Blocked is set when a tape or a one-way gate stopped the stroke.
	Blocked   bool   `json:"blocked"`
	BlockedBy string `json:"blockedBy,omitempty"`
	// Consumed lists the disposable objects the stroke went through. They
	// are not marked used until the caller commits them.
	Consumed []string `json:"consumed,omitempty"`
	Hops     int      `json:"hops"`
}

// Resolver follows strokes through a scene.
type Resolver struct {
	maxHops int
}

// NewResolver creates a resolver allowing at most maxHops reflections and
// teleports per stroke. A non-positive value selects DefaultMaxHops.
func NewResolver(maxHops int) *Resolver {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Resolver{maxHops: maxHops}
}

// Resolve computes the effective lines of raw through scene. The scene is only
// read; disposable objects hit along the way are reported in Consumed and are
// transparent for the rest of this resolution.
//
// A degenerate stroke returns ErrDegenerateInput. Exceeding the hop bound
// returns ErrUnresolvableDeviation along with the lines found so far.
func (r *Resolver) Resolve(raw geometry.Segment, scene *Scene) (Resolution, error) {
	var res Resolution
	if raw.IsDegenerate() {
		return res, ErrDegenerateInput
	}

	consumed := make(map[string]bool)
	lineStart := raw.A
	ray := raw

	// Every pass-through strictly advances along the ray, so this only
	// guards against pathological rounding.
	maxSteps := (r.maxHops + 1) * (len(scene.Objects()) + 1)

	for step := 0; step <= maxSteps; step++ {
		obj, out, ok := r.nearest(ray, scene, consumed)
		if !ok {
			res.Lines = appendLine(res.Lines, geometry.Seg(lineStart, ray.B))
			return res, nil
		}

		if obj.IsDisposable() {
			consumed[obj.ObjectID()] = true
			res.Consumed = append(res.Consumed, obj.ObjectID())
		}

		switch out.Kind {
		case Blocked:
			res.Lines = appendLine(res.Lines, geometry.Seg(lineStart, out.At.Point))
			res.Blocked = true
			res.BlockedBy = obj.ObjectID()
			return res, nil

		case PassThrough:
			ray = geometry.Seg(out.At.Point, ray.B)

		case Continue:
			res.Lines = appendLine(res.Lines, geometry.Seg(lineStart, out.At.Point))
			res.Hops++
			if res.Hops > r.maxHops {
				return res, ErrUnresolvableDeviation
			}
			lineStart = out.Next.A
			ray = out.Next
			if ray.IsDegenerate() {
				return res, nil
			}
		}
	}

	return res, ErrUnresolvableDeviation
}

// nearest finds the first object met along ray. Ties keep the object listed
// first in the scene.
func (r *Resolver) nearest(ray geometry.Segment, scene *Scene, consumed map[string]bool) (Object, Outcome, bool) {
	var (
		best    Object
		bestOut Outcome
		found   bool
	)
	for _, obj := range scene.Objects() {
		if obj.IsDisposable() && (scene.IsUsed(obj.ObjectID()) || consumed[obj.ObjectID()]) {
			continue
		}
		out, ok := obj.ResolveDeviation(ray)
		if !ok {
			continue
		}
		if !found || out.At.T < bestOut.At.T {
			best, bestOut, found = obj, out, true
		}
	}
	return best, bestOut, found
}

func appendLine(lines []geometry.Segment, s geometry.Segment) []geometry.Segment {
	if s.IsDegenerate() {
		return lines
	}
	return append(lines, s)
}
