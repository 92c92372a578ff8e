package slicer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

var ErrAreaInvariantViolation = errors.New("area invariant violation")

// Areas is the area breakdown of a polygon set.
type Areas struct {
	// Oriented holds the signed area of each piece, in set order.
	Oriented []float64 `json:"oriented"`
	// Shares holds each piece's percentage of the total area, rounded to one
	// decimal.
	Shares []float64 `json:"shares"`
	// MinShare and MaxShare bound Shares. They are percentages, not areas,
	// since the winning gap is measured in percentage points.
	MinShare float64 `json:"minShare"`
	MaxShare float64 `json:"maxShare"`
}

// Gap is the spread between the largest and smallest share.
func (a Areas) Gap() float64 {
	return a.MaxShare - a.MinShare
}

// InitTotalOrientedArea sums the signed areas of the pieces.
func InitTotalOrientedArea(pieces []Piece) float64 {
	areas := make([]float64, 0, len(pieces))
	for _, p := range pieces {
		if p.Polygon.HasEnoughVertices() {
			areas = append(areas, p.Polygon.OrientedArea())
		}
	}
	return floats.Sum(areas)
}

// Share converts an area into a percentage of total rounded to one decimal.
func Share(area, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(10*area*100/total) / 10
}

// ComputeAreas breaks pieces down against total.
func ComputeAreas(pieces []Piece, total float64) Areas {
	res := Areas{
		Oriented: make([]float64, len(pieces)),
		Shares:   make([]float64, len(pieces)),
	}
	for i, p := range pieces {
		res.Oriented[i] = p.Polygon.OrientedArea()
		res.Shares[i] = Share(res.Oriented[i], total)
	}
	if len(res.Shares) > 0 {
		res.MinShare = floats.Min(res.Shares)
		res.MaxShare = floats.Max(res.Shares)
	}
	return res
}

// Ledger tracks the total signed area of a level. Valid cuts never change
// it; it is only reset when a level is loaded or restarted.
type Ledger struct {
	total float64
}

// NewLedger records the total area of pieces.
func NewLedger(pieces []Piece) *Ledger {
	l := &Ledger{}
	l.Reset(pieces)
	return l
}

// Reset records the total area of pieces.
func (l *Ledger) Reset(pieces []Piece) {
	l.total = InitTotalOrientedArea(pieces)
}

// Total returns the recorded total signed area.
func (l *Ledger) Total() float64 {
	return l.total
}

// ComputeAreas breaks pieces down against the recorded total.
func (l *Ledger) ComputeAreas(pieces []Piece) Areas {
	return ComputeAreas(pieces, l.total)
}

// Verify checks that pieces still add up to the recorded total.
func (l *Ledger) Verify(pieces []Piece) error {
	sum := InitTotalOrientedArea(pieces)
	if !scalar.EqualWithinAbsOrRel(sum, l.total, 1e-9, 1e-6) {
		return fmt.Errorf("%w: pieces sum to %.6g, expected %.6g", ErrAreaInvariantViolation, sum, l.total)
	}
	return nil
}
