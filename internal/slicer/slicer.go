// Package slicer classifies cut attempts against the pieces of a level, splits
// the pieces a valid cut crosses and keeps the area bookkeeping that scoring
// relies on.
package slicer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/polypixel/polypixel/backend-go/internal/geometry"
)

// Verdict is the outcome of a cut attempt.
type Verdict int

const (
	NoCut Verdict = iota
	BadCut
	GoodCut
)

func (v Verdict) String() string {
	switch v {
	case NoCut:
		return "noCut"
	case BadCut:
		return "badCut"
	case GoodCut:
		return "goodCut"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "noCut":
		*v = NoCut
	case "badCut":
		*v = BadCut
	case "goodCut":
		*v = GoodCut
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Piece is one polygon of the current polygon set.
type Piece struct {
	ID      string           `json:"id"`
	Polygon geometry.Polygon `json:"polygon"`
}

// Clone returns a deep copy of the piece.
func (p Piece) Clone() Piece {
	return Piece{ID: p.ID, Polygon: p.Polygon.Clone()}
}

// ClonePieces deep-copies a polygon set.
func ClonePieces(pieces []Piece) []Piece {
	out := make([]Piece, len(pieces))
	for i, p := range pieces {
		out[i] = p.Clone()
	}
	return out
}

// Tolerances holds the thresholds of the classifier and splitter.
type Tolerances struct {
	// MinPieceArea is the absolute area under which a piece is a sliver.
	MinPieceArea float64
	// MinPieceRatio is the fraction of the parent area under which a piece
	// is a sliver.
	MinPieceRatio float64
	// VertexSnap is the distance under which a boundary crossing is taken to
	// go through a vertex.
	VertexSnap float64
}

// DefaultTolerances returns the thresholds used by the game.
func DefaultTolerances() Tolerances {
	return Tolerances{
		MinPieceArea:  2,
		MinPieceRatio: 0.01,
		VertexSnap:    1e-6,
	}
}

func (t Tolerances) minArea(parent float64) float64 {
	return math.Max(t.MinPieceArea, t.MinPieceRatio*math.Abs(parent))
}

// Slicer classifies and applies cuts.
type Slicer struct {
	tol   Tolerances
	newID func() string
}

// NewSlicer creates a slicer. newID names the pieces created by splits; nil
// selects a process-wide counter.
func NewSlicer(tol Tolerances, newID func() string) *Slicer {
	if newID == nil {
		newID = counterID
	}
	return &Slicer{tol: tol, newID: newID}
}

// Tolerances returns the thresholds in use.
func (s *Slicer) Tolerances() Tolerances {
	return s.tol
}

var pieceCounter atomic.Int64

func counterID() string {
	return fmt.Sprintf("piece_%d", pieceCounter.Add(1))
}
