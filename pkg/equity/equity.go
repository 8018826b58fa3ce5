// Package equity aggregates per-participant working-hours statuses into a
// single normalized fairness score.
package equity

import (
	"math"

	"github.com/fairmeet/fairmeet/pkg/workhours"
)

// Point weights per tier. Green and orange reward workable hours; red and
// critical penalize them, with critical weighted heavily enough that a single
// participant on a holiday drags the whole hour down.
const (
	WeightGreen    = 10
	WeightOrange   = 5
	WeightRed      = -15
	WeightCritical = -50
)

// Result summarizes fairness across all participants for one candidate hour.
// Score is normalized to [0, 100]; the tier counts and raw point total are
// independent of the normalization.
type Result struct {
	Score       int `json:"score"`
	TotalPoints int `json:"total_points"`
	Green       int `json:"green"`
	Orange      int `json:"orange"`
	Red         int `json:"red"`
	Critical    int `json:"critical"`
	Total       int `json:"total"`
}

// Breakdown counts statuses per tier and sums their point weights without
// computing a score.
func Breakdown(statuses []workhours.Status) Result {
	var r Result
	for _, s := range statuses {
		switch s.Tier {
		case workhours.TierGreen:
			r.Green++
			r.TotalPoints += WeightGreen
		case workhours.TierOrange:
			r.Orange++
			r.TotalPoints += WeightOrange
		case workhours.TierRed:
			r.Red++
			r.TotalPoints += WeightRed
		case workhours.TierCritical:
			r.Critical++
			r.TotalPoints += WeightCritical
		}
	}
	r.Total = len(statuses)
	return r
}

// Score computes the breakdown plus the normalized fairness score.
//
// Normalization is min-max against the worst case: with N participants the
// point total ranges from N x WeightCritical (all critical) to
// N x WeightGreen (all green), and the score maps that range onto [0, 100]:
//
//	score = round(100 x (total - N x (-50)) / (N x 10 - N x (-50)))
//
// All green scores 100 and all critical scores 0 for any N, and mixed groups
// keep resolution in the sub-zero point range that a simple ratio would clamp
// away. An empty participant list scores 0.
func Score(statuses []workhours.Status) Result {
	r := Breakdown(statuses)
	if r.Total == 0 {
		return r
	}

	minPossible := r.Total * WeightCritical
	maxPossible := r.Total * WeightGreen
	raw := 100 * float64(r.TotalPoints-minPossible) / float64(maxPossible-minPossible)

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = score
	return r
}
