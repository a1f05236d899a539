package intake

import (
	"fmt"
	"math"
	"strings"

	"github.com/MikeSquared-Agency/Rating/internal/rating"
	"github.com/MikeSquared-Agency/Rating/internal/survey"
	"github.com/MikeSquared-Agency/Rating/internal/weights"
)

const (
	StageOne   = "stage1"
	StageTwo   = "stage2"
	StageThree = "stage3"
)

// Problem is a single finding about a submission, tagged with its stage.
type Problem struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ValidationError lists every shape problem found in a submission.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Stage + ": " + p.Message
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

// Stages returns the distinct stages with problems, in first-seen order.
func (e *ValidationError) Stages() []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range e.Problems {
		if !seen[p.Stage] {
			seen[p.Stage] = true
			out = append(out, p.Stage)
		}
	}
	return out
}

type problems []Problem

func (ps *problems) add(stage, format string, args ...any) {
	*ps = append(*ps, Problem{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

func (ps problems) err() error {
	if len(ps) == 0 {
		return nil
	}
	return &ValidationError{Problems: ps}
}

// ValidateStage1 requires all three routing answers.
func ValidateStage1(in *Stage1Input) error {
	var ps problems
	if in == nil {
		ps.add(StageOne, "answers are required")
		return ps.err()
	}
	for i, v := range [...]*bool{in.Q1, in.Q2, in.Q3} {
		if v == nil {
			ps.add(StageOne, "q%d is required", i+1)
		}
	}
	return ps.err()
}

// ValidateStage2 checks the option, the per-row fields and that the row
// weights sum to 1.0 within tolerance.
func ValidateStage2(in *Stage2Input, tolerance float64) error {
	var ps problems
	if in == nil {
		ps.add(StageTwo, "breakdown is required")
		return ps.err()
	}
	if _, ok := in.Route(); !ok {
		ps.add(StageTwo, "option must be %d or %d, got %d", OptionSectors, OptionCategories, in.Option)
		return ps.err()
	}
	if len(in.Rows) == 0 {
		ps.add(StageTwo, "at least one row is required")
		return ps.err()
	}

	weightsComplete := true
	ws := make([]float64, 0, len(in.Rows))
	for i, r := range in.Rows {
		line := i + 1
		switch in.Option {
		case OptionSectors:
			if strings.TrimSpace(r.Underline) == "" {
				ps.add(StageTwo, "row %d: underline is required", line)
			}
		case OptionCategories:
			if strings.TrimSpace(r.Category) == "" {
				ps.add(StageTwo, "row %d: category is required", line)
			}
		}
		if strings.TrimSpace(r.Sector) == "" {
			ps.add(StageTwo, "row %d: sector is required", line)
		}
		if r.Weight == nil {
			ps.add(StageTwo, "row %d: weight is required", line)
			weightsComplete = false
			continue
		}
		w := *r.Weight
		if math.IsNaN(w) || w < 0 || w > 1 {
			ps.add(StageTwo, "row %d: weight %g must be between 0 and 1", line, w)
		}
		ws = append(ws, w)
	}

	if weightsComplete && !rating.ValidateWeights(ws, tolerance) {
		ps.add(StageTwo, "weights sum to %.4f, must sum to 1.0", weights.Sum(ws))
	}
	return ps.err()
}

// ValidateStage3 requires one resolvable answer per configured question.
func ValidateStage3(cfg *survey.Config, in *Stage3Input) error {
	var ps problems
	if in == nil {
		ps.add(StageThree, "answers are required")
		return ps.err()
	}
	if len(in.Answers) != len(cfg.Questions) {
		ps.add(StageThree, "expected %d answers, got %d", len(cfg.Questions), len(in.Answers))
	}

	seen := make(map[int]bool, len(in.Answers))
	for _, a := range in.Answers {
		if seen[a.QuestionNo] {
			ps.add(StageThree, "question %d answered more than once", a.QuestionNo)
			continue
		}
		seen[a.QuestionNo] = true

		q, ok := cfg.Question(a.QuestionNo)
		if !ok {
			ps.add(StageThree, "question %d does not exist", a.QuestionNo)
			continue
		}
		if _, ok := q.Choice(a.ChoiceKey); !ok {
			ps.add(StageThree, "question %d: choice %q does not exist", a.QuestionNo, a.ChoiceKey)
		}
	}
	return ps.err()
}
