package engine

import (
	"math"

	"github.com/polypixel/polypixel/backend-go/internal/level"
)

// PerfectStars is awarded when the gap falls within the level tolerance.
const PerfectStars = 4

// GameInfo tracks the progress of a play session against its level goals.
type GameInfo struct {
	LinesGoal   int     `json:"linesGoal"`
	PartsGoal   int     `json:"partsGoal"`
	MaxGapToWin float64 `json:"maxGapToWin"`
	Tolerance   float64 `json:"tolerance"`

	LinesCount int     `json:"linesCount"`
	PartsCount int     `json:"partsCount"`
	Gap        float64 `json:"gap"`
	Stars      int     `json:"stars"`
	Ended      bool    `json:"ended"`
}

func newGameInfo(goals level.GameInfo, parts int) GameInfo {
	return GameInfo{
		LinesGoal:   goals.LinesGoal,
		PartsGoal:   goals.PartsGoal,
		MaxGapToWin: goals.MaxGapToWin,
		Tolerance:   goals.Tolerance,
		PartsCount:  parts,
	}
}

// GoalReached reports whether the cut or piece budget is spent.
func (g GameInfo) GoalReached() bool {
	return g.LinesCount >= g.LinesGoal || g.PartsCount >= g.PartsGoal
}

// DisplayStars is the number of stars shown, perfect runs included.
func (g GameInfo) DisplayStars() int {
	return min(g.Stars, PerfectStars-1)
}

// Perfect reports a run whose gap fell within the tolerance band.
func (g GameInfo) Perfect() bool {
	return g.Stars == PerfectStars
}

// Won reports a finished run worth at least one star.
func (g GameInfo) Won() bool {
	return g.Ended && g.Stars > 0
}

// ComputeStars rates a finished run. A run missing the parts goal or leaving
// a gap above maxGapToWin gets nothing; within the tolerance it is perfect;
// otherwise each third of maxGapToWin costs a star.
func ComputeStars(partsCount, partsGoal int, gap, maxGapToWin, tolerance float64) int {
	gap = math.Abs(gap)
	if partsCount != partsGoal || gap > maxGapToWin {
		return 0
	}
	if gap <= tolerance {
		return PerfectStars
	}
	third := maxGapToWin / 3
	switch {
	case gap <= third:
		return 3
	case gap <= 2*third:
		return 2
	default:
		return 1
	}
}
