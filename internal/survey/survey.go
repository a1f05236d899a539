// Package survey holds the validated survey definition: the routing threshold,
// the stage 2 score tables and the stage 3 questionnaire with its notch values.
//
// A Config is built once by Parse, Load or Default and is read-only afterwards.
// Calculators receive it by pointer; nothing in this package mutates a Config
// after construction, so it can be shared across goroutines without locking.
package survey

import (
	"sort"
)

// Config is the immutable survey definition.
type Config struct {
	Version          string
	RoutingThreshold int
	Stage1Questions  []Stage1Question
	RouteA           RouteAConfig
	RouteB           RouteBConfig
	Questions        []Question

	// WeightTolerance is the allowed deviation of the stage 3 weight sum from 1.0.
	WeightTolerance float64
}

type Stage1Question struct {
	ID   string
	Text string
}

type RouteAConfig struct {
	SectorScores map[string]float64
}

type RouteBConfig struct {
	CategoryFactors      map[string]float64
	SectorScores         map[string]float64
	NormalizationDivisor float64
}

// Question is one stage 3 question. Choices are keyed by choice key ("A", "B", ...).
type Question struct {
	No      int
	Text    string
	Weight  float64
	Choices map[string]Choice
}

// Choice is one answer option. Notch is confidential and must never be shown
// to respondents.
type Choice struct {
	Label string
	Notch float64
}

// Question returns the question with the given number. The returned pointer
// refers into the config and must not be modified.
func (c *Config) Question(no int) (*Question, bool) {
	for i := range c.Questions {
		if c.Questions[i].No == no {
			return &c.Questions[i], true
		}
	}
	return nil, false
}

// Choice returns the choice stored under key.
func (q *Question) Choice(key string) (Choice, bool) {
	ch, ok := q.Choices[key]
	return ch, ok
}

// ChoiceKeys returns the question's choice keys in sorted order.
func (q *Question) ChoiceKeys() []string {
	keys := make([]string, 0, len(q.Choices))
	for k := range q.Choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QuestionWeights returns the stage 3 weights in question order.
func (c *Config) QuestionWeights() []float64 {
	weights := make([]float64, len(c.Questions))
	for i, q := range c.Questions {
		weights[i] = q.Weight
	}
	return weights
}

// WeightSum returns the total of the stage 3 question weights.
func (c *Config) WeightSum() float64 {
	var sum float64
	for _, q := range c.Questions {
		sum += q.Weight
	}
	return sum
}

// PublicQuestion is the respondent-facing view of a stage 3 question.
// It carries no weight or notch.
type PublicQuestion struct {
	No      int            `json:"no"`
	Text    string         `json:"text"`
	Choices []PublicChoice `json:"choices"`
}

type PublicChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// PublicQuestions returns the stage 3 questionnaire with scoring data stripped.
func (c *Config) PublicQuestions() []PublicQuestion {
	out := make([]PublicQuestion, 0, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		pq := PublicQuestion{No: q.No, Text: q.Text}
		for _, k := range q.ChoiceKeys() {
			pq.Choices = append(pq.Choices, PublicChoice{Key: k, Label: q.Choices[k].Label})
		}
		out = append(out, pq)
	}
	return out
}
