package level

import (
	"github.com/polypixel/polypixel/backend-go/internal/geometry"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

// SampleLevelID identifies the built-in level, which needs no storage.
const SampleLevelID = "lvl_sample"

// NewSampleLevel returns a small playable level: a square and a triangle,
// a mirror to bank cuts off, a single-use tape guarding the triangle and a
// portal leading back over the square.
func NewSampleLevel() *Level {
	return &Level{
		ID:         SampleLevelID,
		Name:       "First cuts",
		Width:      800,
		Height:     600,
		Background: "#1a1a2e",
		Polygons: []Polygon{
			{
				ID: typeid.NewPieceID(),
				Vertices: []geometry.Point{
					{X: 100, Y: 150}, {X: 300, Y: 150}, {X: 300, Y: 350}, {X: 100, Y: 350},
				},
			},
			{
				ID: typeid.NewPieceID(),
				Vertices: []geometry.Point{
					{X: 450, Y: 350}, {X: 650, Y: 350}, {X: 550, Y: 180},
				},
			},
		},
		Tapes: []Tape{
			{ID: typeid.NewObjectID(), X: 530, Y: 400, W: 40, H: 20, Disposable: true},
		},
		Mirrors: []Line{
			{ID: typeid.NewObjectID(), A: geometry.Point{X: 380, Y: 60}, B: geometry.Point{X: 380, Y: 140}},
		},
		OneWays: []Line{
			{ID: typeid.NewObjectID(), A: geometry.Point{X: 700, Y: 100}, B: geometry.Point{X: 700, Y: 500}},
		},
		Portals: []Portal{
			{
				ID:  typeid.NewObjectID(),
				In:  geometry.Seg(geometry.Pt(40, 480), geometry.Pt(120, 480)),
				Out: geometry.Seg(geometry.Pt(160, 60), geometry.Pt(240, 60)),
			},
		},
		Info: GameInfo{
			LinesGoal:   3,
			PartsGoal:   4,
			MaxGapToWin: 20,
			Tolerance:   1,
		},
	}
}
