// Package rating turns questionnaire answers into a counterparty risk rating.
//
// Every function here is pure: no I/O, no clock, no randomness and no state
// between calls. The only shared input is the immutable *survey.Config, so the
// calculators are safe for concurrent use without locking.
package rating

import (
	"math"
)

// Ratings run from 1 (best) to 6 (worst).
const (
	MinRating = 1
	MaxRating = 6

	ratingScale = 6.0
)

// Stage identifies which questionnaire stage a lookup belongs to.
type Stage string

const (
	Stage2 Stage = "stage2"
	Stage3 Stage = "stage3"
)

// LookupFailure records an input label the configuration does not know.
// Failures are informational: the calculators substitute neutral values and
// the numeric outcome is the same whether or not anyone reads them.
type LookupFailure struct {
	Stage Stage  `json:"stage"`
	Line  int    `json:"line"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Result is the terminal output of the engine.
type Result struct {
	BaseRating    int     `json:"base_rating"`
	WeightedNotch float64 `json:"weighted_notch"`
	FinalRating   int     `json:"final_rating"`
}

// clampRating maps a raw rating onto [MinRating, MaxRating]. NaN maps to
// MinRating so that no configuration can push a result out of range.
func clampRating(raw float64) int {
	if math.IsNaN(raw) {
		return MinRating
	}
	return int(clamp(raw, MinRating, MaxRating))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
