// Package intake validates questionnaire submissions and drives the rating
// engine over them.
package intake

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Rating/internal/rating"
)

// Stage 2 options as submitted. Option 1 is scored by route A, option 2 by route B.
const (
	OptionSectors    = 1
	OptionCategories = 2
)

// Submission is one counterparty's answers. Any stage may be absent.
type Submission struct {
	CounterpartyID string       `yaml:"counterparty_id" json:"counterparty_id"`
	Name           string       `yaml:"name" json:"name,omitempty"`
	Stage1         *Stage1Input `yaml:"stage1" json:"stage1,omitempty"`
	Stage2         *Stage2Input `yaml:"stage2" json:"stage2,omitempty"`
	Stage3         *Stage3Input `yaml:"stage3" json:"stage3,omitempty"`
}

// Stage1Input holds the three routing answers. Pointers distinguish an
// unanswered question from "no".
type Stage1Input struct {
	Q1 *bool `yaml:"q1" json:"q1"`
	Q2 *bool `yaml:"q2" json:"q2"`
	Q3 *bool `yaml:"q3" json:"q3"`
}

// Answer converts to the engine type. Unanswered questions count as "no".
func (in *Stage1Input) Answer() rating.Stage1Answer {
	deref := func(b *bool) bool { return b != nil && *b }
	return rating.Stage1Answer{Q1: deref(in.Q1), Q2: deref(in.Q2), Q3: deref(in.Q3)}
}

type Stage2Input struct {
	Option int        `yaml:"option" json:"option"`
	Rows   []RowInput `yaml:"rows" json:"rows"`
}

// RowInput is a stage 2 line. Option 1 rows carry Underline, option 2 rows
// carry Category; both carry Sector and Weight.
type RowInput struct {
	Underline string   `yaml:"underline,omitempty" json:"underline,omitempty"`
	Category  string   `yaml:"category,omitempty" json:"category,omitempty"`
	Sector    string   `yaml:"sector" json:"sector"`
	Weight    *float64 `yaml:"weight" json:"weight"`
}

// Route returns the route that scores this option.
func (in *Stage2Input) Route() (rating.Route, bool) {
	switch in.Option {
	case OptionSectors:
		return rating.RouteA, true
	case OptionCategories:
		return rating.RouteB, true
	}
	return "", false
}

// Exposure converts the option-tagged rows into the engine's exposure type.
func (in *Stage2Input) Exposure() (rating.Exposure, error) {
	weight := func(r RowInput) float64 {
		if r.Weight == nil {
			return 0
		}
		return *r.Weight
	}
	switch in.Option {
	case OptionSectors:
		rows := make(rating.RouteAExposure, 0, len(in.Rows))
		for _, r := range in.Rows {
			rows = append(rows, rating.RouteARow{Underline: r.Underline, Sector: r.Sector, Weight: weight(r)})
		}
		return rows, nil
	case OptionCategories:
		rows := make(rating.RouteBExposure, 0, len(in.Rows))
		for _, r := range in.Rows {
			rows = append(rows, rating.RouteBRow{Category: r.Category, Sector: r.Sector, Weight: weight(r)})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown stage 2 option %d", in.Option)
}

type Stage3Input struct {
	Answers []rating.Stage3Answer `yaml:"answers" json:"answers"`
}

type submissionsDoc struct {
	Submissions []Submission `yaml:"submissions"`
}

// ParseSubmissions decodes a YAML or JSON document with a top-level
// "submissions" list.
func ParseSubmissions(data []byte) ([]Submission, error) {
	var doc submissionsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse submissions: %w", err)
	}
	return doc.Submissions, nil
}

func LoadSubmissions(path string) ([]Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	return ParseSubmissions(data)
}
