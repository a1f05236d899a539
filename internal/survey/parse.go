package survey

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Rating/internal/weights"
)

const (
	minQuestionNo = 1
	maxQuestionNo = 10
	maxNotch      = 3.0

	defaultWeightTolerance = 0.01
)

//go:embed default.yaml
var defaultDocument []byte

// ConfigError reports a structurally invalid or out-of-range survey definition.
// It is fatal at startup.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("survey config: %s: %s", e.Path, e.Reason)
}

func missing(path string) *ConfigError {
	return &ConfigError{Path: path, Reason: "missing required section"}
}

func outOfRange(path string, v float64, bounds string) *ConfigError {
	return &ConfigError{Path: path, Reason: fmt.Sprintf("value %g out of range %s", v, bounds)}
}

// document mirrors the versioned survey document. Pointers distinguish
// "absent" from "zero" for required scalars.
type document struct {
	Version string     `yaml:"version"`
	Stages  *stagesDoc `yaml:"stages"`
}

type stagesDoc struct {
	Stage1 *stage1Doc `yaml:"stage1"`
	Stage2 *stage2Doc `yaml:"stage2"`
	Stage3 *stage3Doc `yaml:"stage3"`
}

type stage1Doc struct {
	Questions []stage1QuestionDoc `yaml:"questions"`
	Routing   *routingDoc         `yaml:"routing"`
}

type stage1QuestionDoc struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type routingDoc struct {
	Rule      string `yaml:"rule"`
	Threshold *int   `yaml:"threshold"`
}

type stage2Doc struct {
	RouteA *routeADoc `yaml:"routeA"`
	RouteB *routeBDoc `yaml:"routeB"`
}

type routeADoc struct {
	Title       string `yaml:"title"`
	Calculation *struct {
		SectorScores map[string]float64 `yaml:"sector_scores"`
	} `yaml:"calculation"`
}

type routeBDoc struct {
	Title       string `yaml:"title"`
	Calculation *struct {
		NormalizationDivisor *float64          `yaml:"normalization_divisor"`
		CategoryFactors      map[string]float64 `yaml:"category_factors"`
		SectorScores         map[string]float64 `yaml:"sector_scores"`
	} `yaml:"calculation"`
}

type stage3Doc struct {
	Questions  []questionDoc  `yaml:"questions"`
	Validation *validationDoc `yaml:"validation"`
}

type questionDoc struct {
	No      *int                 `yaml:"no"`
	Text    string               `yaml:"text"`
	Weight  *float64             `yaml:"weight"`
	Choices map[string]choiceDoc `yaml:"choices"`
}

type choiceDoc struct {
	Label string   `yaml:"label"`
	Notch *float64 `yaml:"notch"`
}

type validationDoc struct {
	WeightsMustSumTo *float64 `yaml:"weights_must_sum_to"`
	Tolerance        *float64 `yaml:"tolerance"`
}

// Parse decodes and validates a survey document. YAML and JSON are both
// accepted. The returned error is a *ConfigError for semantic problems.
func Parse(data []byte) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse survey config: %w", err)
	}
	return doc.build()
}

// Load reads and parses the survey document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey config: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded reference survey.
func Default() (*Config, error) {
	return Parse(defaultDocument)
}

func (d *document) build() (*Config, error) {
	if d.Stages == nil {
		return nil, missing("stages")
	}
	cfg := &Config{Version: d.Version}
	if cfg.Version == "" {
		cfg.Version = "unknown"
	}

	if err := d.Stages.buildStage1(cfg); err != nil {
		return nil, err
	}
	if err := d.Stages.buildStage2(cfg); err != nil {
		return nil, err
	}
	if err := d.Stages.buildStage3(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *stagesDoc) buildStage1(cfg *Config) error {
	if s.Stage1 == nil {
		return missing("stages.stage1")
	}
	if s.Stage1.Routing == nil || s.Stage1.Routing.Threshold == nil {
		return missing("stages.stage1.routing.threshold")
	}
	threshold := *s.Stage1.Routing.Threshold
	if threshold < 0 || threshold > 3 {
		return outOfRange("stages.stage1.routing.threshold", float64(threshold), "[0,3]")
	}
	cfg.RoutingThreshold = threshold

	for _, q := range s.Stage1.Questions {
		cfg.Stage1Questions = append(cfg.Stage1Questions, Stage1Question{ID: q.ID, Text: q.Text})
	}
	return nil
}

func (s *stagesDoc) buildStage2(cfg *Config) error {
	if s.Stage2 == nil {
		return missing("stages.stage2")
	}

	a := s.Stage2.RouteA
	if a == nil || a.Calculation == nil || a.Calculation.SectorScores == nil {
		return missing("stages.stage2.routeA.calculation.sector_scores")
	}
	scores, err := unitScores("stages.stage2.routeA.calculation.sector_scores", a.Calculation.SectorScores)
	if err != nil {
		return err
	}
	cfg.RouteA.SectorScores = scores

	b := s.Stage2.RouteB
	if b == nil || b.Calculation == nil {
		return missing("stages.stage2.routeB.calculation")
	}
	calc := b.Calculation
	if calc.CategoryFactors == nil {
		return missing("stages.stage2.routeB.calculation.category_factors")
	}
	if calc.SectorScores == nil {
		return missing("stages.stage2.routeB.calculation.sector_scores")
	}
	if calc.NormalizationDivisor == nil {
		return missing("stages.stage2.routeB.calculation.normalization_divisor")
	}

	factors := make(map[string]float64, len(calc.CategoryFactors))
	for _, k := range sortedKeys(calc.CategoryFactors) {
		v := calc.CategoryFactors[k]
		if !finite(v) || v <= 0 {
			return outOfRange("stages.stage2.routeB.calculation.category_factors."+k, v, "(0,+inf)")
		}
		factors[k] = v
	}
	cfg.RouteB.CategoryFactors = factors

	scores, err = unitScores("stages.stage2.routeB.calculation.sector_scores", calc.SectorScores)
	if err != nil {
		return err
	}
	cfg.RouteB.SectorScores = scores

	divisor := *calc.NormalizationDivisor
	if !finite(divisor) || divisor <= 0 {
		return outOfRange("stages.stage2.routeB.calculation.normalization_divisor", divisor, "(0,+inf)")
	}
	cfg.RouteB.NormalizationDivisor = divisor
	return nil
}

func (s *stagesDoc) buildStage3(cfg *Config) error {
	if s.Stage3 == nil || len(s.Stage3.Questions) == 0 {
		return missing("stages.stage3.questions")
	}

	cfg.WeightTolerance = defaultWeightTolerance
	if v := s.Stage3.Validation; v != nil {
		if v.WeightsMustSumTo != nil && *v.WeightsMustSumTo != 1.0 {
			return &ConfigError{
				Path:   "stages.stage3.validation.weights_must_sum_to",
				Reason: fmt.Sprintf("must be 1.0, got %g", *v.WeightsMustSumTo),
			}
		}
		if v.Tolerance != nil {
			if !finite(*v.Tolerance) || *v.Tolerance < 0 {
				return outOfRange("stages.stage3.validation.tolerance", *v.Tolerance, "[0,+inf)")
			}
			cfg.WeightTolerance = *v.Tolerance
		}
	}

	seen := make(map[int]bool, len(s.Stage3.Questions))
	for i, qd := range s.Stage3.Questions {
		path := fmt.Sprintf("stages.stage3.questions[%d]", i)
		q, err := qd.build(path)
		if err != nil {
			return err
		}
		if seen[q.No] {
			return &ConfigError{Path: path + ".no", Reason: fmt.Sprintf("duplicate question number %d", q.No)}
		}
		seen[q.No] = true
		cfg.Questions = append(cfg.Questions, q)
	}

	if !weights.Valid(cfg.QuestionWeights(), cfg.WeightTolerance) {
		return &ConfigError{
			Path:   "stages.stage3.questions",
			Reason: fmt.Sprintf("weights sum to %.4f, must sum to 1.0 (tolerance %g)", cfg.WeightSum(), cfg.WeightTolerance),
		}
	}
	return nil
}

func (qd questionDoc) build(path string) (Question, error) {
	if qd.No == nil {
		return Question{}, missing(path + ".no")
	}
	no := *qd.No
	if no < minQuestionNo || no > maxQuestionNo {
		return Question{}, outOfRange(path+".no", float64(no), fmt.Sprintf("[%d,%d]", minQuestionNo, maxQuestionNo))
	}
	if qd.Weight == nil {
		return Question{}, missing(path + ".weight")
	}
	w := *qd.Weight
	if !finite(w) || w < 0 || w > 1 {
		return Question{}, outOfRange(path+".weight", w, "[0,1]")
	}
	if len(qd.Choices) == 0 {
		return Question{}, missing(path + ".choices")
	}

	q := Question{No: no, Text: qd.Text, Weight: w, Choices: make(map[string]Choice, len(qd.Choices))}
	for _, key := range sortedKeys(qd.Choices) {
		cd := qd.Choices[key]
		cpath := path + ".choices." + key
		if key == "" {
			return Question{}, &ConfigError{Path: path + ".choices", Reason: "empty choice key"}
		}
		if cd.Notch == nil {
			return Question{}, missing(cpath + ".notch")
		}
		n := *cd.Notch
		if !finite(n) || n < -maxNotch || n > maxNotch {
			return Question{}, outOfRange(cpath+".notch", n, "[-3,3]")
		}
		q.Choices[key] = Choice{Label: cd.Label, Notch: n}
	}
	return q, nil
}

func unitScores(path string, in map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for _, k := range sortedKeys(in) {
		v := in[k]
		if !finite(v) || v < 0 || v > 1 {
			return nil, outOfRange(path+"."+k, v, "[0,1]")
		}
		out[k] = v
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
