package rating

import (
	"math"
	"strconv"

	"github.com/MikeSquared-Agency/Rating/internal/survey"
)

// Stage3Answer is one qualitative answer.
type Stage3Answer struct {
	QuestionNo int    `json:"question_no" yaml:"question_no"`
	ChoiceKey  string `json:"choice_key" yaml:"choice_key"`
}

// Contribution is one resolved answer's share of the weighted notch.
type Contribution struct {
	QuestionNo int     `json:"question_no"`
	ChoiceKey  string  `json:"choice_key"`
	Weight     float64 `json:"weight"`
	Notch      float64 `json:"notch"`
	Weighted   float64 `json:"weighted"`
}

// Adjustment is the full stage 3 outcome.
type Adjustment struct {
	BaseRating int `json:"base_rating"`
	// WeightedNotch is rounded to two decimals for display. FinalRating is
	// always derived from RawWeightedNotch.
	WeightedNotch    float64         `json:"weighted_notch"`
	RawWeightedNotch float64         `json:"raw_weighted_notch"`
	FinalRating      int             `json:"final_rating"`
	Contributions    []Contribution  `json:"contributions"`
	Skipped          []LookupFailure `json:"skipped,omitempty"`
}

// Result drops the breakdown.
func (a Adjustment) Result() Result {
	return Result{BaseRating: a.BaseRating, WeightedNotch: a.WeightedNotch, FinalRating: a.FinalRating}
}

// FinalRating applies the stage 3 notch adjustment to baseRating. Answers
// naming an unknown question or choice contribute nothing and are listed in
// Skipped. Halves round away from zero before clamping to [1,6].
func FinalRating(cfg *survey.Config, baseRating int, answers []Stage3Answer) Adjustment {
	adj := Adjustment{BaseRating: baseRating, Contributions: make([]Contribution, 0, len(answers))}
	for i, a := range answers {
		q, ok := cfg.Question(a.QuestionNo)
		if !ok {
			adj.Skipped = append(adj.Skipped, LookupFailure{Stage: Stage3, Line: i + 1, Field: "question_no", Value: strconv.Itoa(a.QuestionNo)})
			continue
		}
		ch, ok := q.Choice(a.ChoiceKey)
		if !ok {
			adj.Skipped = append(adj.Skipped, LookupFailure{Stage: Stage3, Line: i + 1, Field: "choice_key", Value: a.ChoiceKey})
			continue
		}
		weighted := float64(q.Weight * ch.Notch)
		adj.RawWeightedNotch += weighted
		adj.Contributions = append(adj.Contributions, Contribution{
			QuestionNo: q.No,
			ChoiceKey:  a.ChoiceKey,
			Weight:     q.Weight,
			Notch:      ch.Notch,
			Weighted:   weighted,
		})
	}
	adj.WeightedNotch = roundTo(adj.RawWeightedNotch, 2)
	adj.FinalRating = clampRating(math.Round(float64(baseRating) + adj.RawWeightedNotch))
	return adj
}

// Rate runs stage 2 and stage 3 in sequence.
func Rate(cfg *survey.Config, e Exposure, answers []Stage3Answer) Result {
	return FinalRating(cfg, BaseRating(cfg, e), answers).Result()
}
