package rating

import (
	"math"

	"github.com/MikeSquared-Agency/Rating/internal/survey"
)

// Exposure is a counterparty's stage 2 breakdown. RouteAExposure and
// RouteBExposure are its only implementations.
type Exposure interface {
	Route() Route
	Weights() []float64
	score(cfg *survey.Config) BaseScore
}

// RouteARow is one line of a route A breakdown.
type RouteARow struct {
	Underline string  `json:"underline,omitempty" yaml:"underline,omitempty"`
	Sector    string  `json:"sector" yaml:"sector"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// RouteBRow is one line of a route B breakdown.
type RouteBRow struct {
	Category string  `json:"category" yaml:"category"`
	Sector   string  `json:"sector" yaml:"sector"`
	Weight   float64 `json:"weight" yaml:"weight"`
}

// RouteAExposure is a weighted sector breakdown.
type RouteAExposure []RouteARow

// RouteBExposure is a weighted category and sector breakdown.
type RouteBExposure []RouteBRow

func (RouteAExposure) Route() Route { return RouteA }
func (RouteBExposure) Route() Route { return RouteB }

func (e RouteAExposure) Weights() []float64 {
	ws := make([]float64, len(e))
	for i, r := range e {
		ws[i] = r.Weight
	}
	return ws
}

func (e RouteBExposure) Weights() []float64 {
	ws := make([]float64, len(e))
	for i, r := range e {
		ws[i] = r.Weight
	}
	return ws
}

// LineScore captures one row's contribution to the base score.
type LineScore struct {
	Category       string  `json:"category,omitempty"`
	Sector         string  `json:"sector"`
	Weight         float64 `json:"weight"`
	CategoryFactor float64 `json:"category_factor,omitempty"`
	SectorScore    float64 `json:"sector_score"`
	Weighted       float64 `json:"weighted"`
	Recognized     bool    `json:"recognized"`
}

// BaseScore is the full stage 2 outcome for one exposure.
type BaseScore struct {
	Route      Route           `json:"route"`
	Score      float64         `json:"score"`
	Normalized float64         `json:"normalized"`
	Rating     int             `json:"base_rating"`
	Lines      []LineScore     `json:"lines"`
	Warnings   []LookupFailure `json:"warnings,omitempty"`
}

// ScoreExposure computes the base rating for e together with a per-row
// breakdown and any unknown labels. A nil exposure scores as MinRating.
func ScoreExposure(cfg *survey.Config, e Exposure) BaseScore {
	if e == nil {
		return BaseScore{Rating: MinRating}
	}
	return e.score(cfg)
}

// BaseRating returns only the integer base rating for e.
func BaseRating(cfg *survey.Config, e Exposure) int {
	return ScoreExposure(cfg, e).Rating
}

// RouteABaseRating scores a route A breakdown. Unknown sectors score 0.
func RouteABaseRating(cfg *survey.Config, rows []RouteARow) int {
	return RouteAExposure(rows).score(cfg).Rating
}

// RouteBBaseRating scores a route B breakdown. Unknown categories use a
// factor of 1.0 and unknown sectors score 0.
func RouteBBaseRating(cfg *survey.Config, rows []RouteBRow) int {
	return RouteBExposure(rows).score(cfg).Rating
}

func (e RouteAExposure) score(cfg *survey.Config) BaseScore {
	res := BaseScore{Route: RouteA, Lines: make([]LineScore, 0, len(e))}
	for i, row := range e {
		ss, ok := cfg.RouteA.SectorScores[row.Sector]
		if !ok {
			res.Warnings = append(res.Warnings, LookupFailure{Stage: Stage2, Line: i + 1, Field: "sector", Value: row.Sector})
		}
		weighted := float64(row.Weight * ss)
		res.Score += weighted
		res.Lines = append(res.Lines, LineScore{
			Sector:      row.Sector,
			Weight:      row.Weight,
			SectorScore: ss,
			Weighted:    weighted,
			Recognized:  ok,
		})
	}
	res.Normalized = res.Score
	res.Rating = ratingFromScore(res.Normalized)
	return res
}

func (e RouteBExposure) score(cfg *survey.Config) BaseScore {
	res := BaseScore{Route: RouteB, Lines: make([]LineScore, 0, len(e))}
	for i, row := range e {
		cf, catOK := cfg.RouteB.CategoryFactors[row.Category]
		if !catOK {
			cf = 1.0
			res.Warnings = append(res.Warnings, LookupFailure{Stage: Stage2, Line: i + 1, Field: "category", Value: row.Category})
		}
		ss, secOK := cfg.RouteB.SectorScores[row.Sector]
		if !secOK {
			res.Warnings = append(res.Warnings, LookupFailure{Stage: Stage2, Line: i + 1, Field: "sector", Value: row.Sector})
		}
		weighted := float64(float64(row.Weight*cf) * ss)
		res.Score += weighted
		res.Lines = append(res.Lines, LineScore{
			Category:       row.Category,
			Sector:         row.Sector,
			Weight:         row.Weight,
			CategoryFactor: cf,
			SectorScore:    ss,
			Weighted:       weighted,
			Recognized:     catOK && secOK,
		})
	}
	res.Normalized = res.Score / cfg.RouteB.NormalizationDivisor
	res.Rating = ratingFromScore(res.Normalized)
	return res
}

// ratingFromScore maps a normalized score onto the 1..6 scale.
func ratingFromScore(normalized float64) int {
	return clampRating(math.Ceil(normalized * ratingScale))
}
