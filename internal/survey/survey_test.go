package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `
version: "test-1"
stages:
  stage1:
    routing:
      threshold: 2
  stage2:
    routeA:
      calculation:
        sector_scores:
          "Sector 1": 0.2
    routeB:
      calculation:
        normalization_divisor: 1.2
        category_factors:
          "Category 1": 0.8
        sector_scores:
          "Sector 1": 0.1
  stage3:
    validation:
      tolerance: 0.001
    questions:
      - no: 1
        text: "first"
        weight: 0.6
        choices:
          A: { label: "a", notch: -2 }
          B: { label: "b", notch: 1 }
      - no: 2
        text: "second"
        weight: 0.4
        choices:
          A: { label: "a", notch: 3 }
`

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, 2, cfg.RoutingThreshold)
	assert.Len(t, cfg.Stage1Questions, 3)
	assert.Len(t, cfg.Questions, 10)
	assert.InDelta(t, 1.0, cfg.WeightSum(), 0.001)
	assert.Equal(t, 0.001, cfg.WeightTolerance)

	assert.Equal(t, 0.4, cfg.RouteA.SectorScores["Sector 2"])
	assert.Equal(t, 1.2, cfg.RouteB.NormalizationDivisor)
	assert.Equal(t, 1.2, cfg.RouteB.CategoryFactors["Category 3"])
	assert.Equal(t, 1.0, cfg.RouteB.SectorScores["Sector 10"])

	q4, ok := cfg.Question(4)
	require.True(t, ok)
	assert.Equal(t, 0.13, q4.Weight)
	ch, ok := q4.Choice("F")
	require.True(t, ok)
	assert.Equal(t, 3.0, ch.Notch)
	assert.Equal(t, "Q4 Choice 6", ch.Label)
}

func TestDefaultIsIdempotent(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalDoc))
	require.NoError(t, err)

	assert.Equal(t, "test-1", cfg.Version)
	assert.Equal(t, []float64{0.6, 0.4}, cfg.QuestionWeights())
	assert.Empty(t, cfg.Stage1Questions)

	_, ok := cfg.Question(3)
	assert.False(t, ok)
}

func TestParseJSON(t *testing.T) {
	doc := `{
	  "version": "json-1",
	  "stages": {
	    "stage1": {"routing": {"threshold": 1}},
	    "stage2": {
	      "routeA": {"calculation": {"sector_scores": {"Sector 1": 0.5}}},
	      "routeB": {"calculation": {"normalization_divisor": 1.0, "category_factors": {"Category 1": 1.0}, "sector_scores": {"Sector 1": 0.5}}}
	    },
	    "stage3": {
	      "questions": [
	        {"no": 1, "text": "only", "weight": 1.0, "choices": {"A": {"label": "a", "notch": 1}}}
	      ]
	    }
	  }
	}`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "json-1", cfg.Version)
	assert.Equal(t, 1, cfg.RoutingThreshold)
	assert.Equal(t, defaultWeightTolerance, cfg.WeightTolerance)
}

func TestParseVersionDefaultsToUnknown(t *testing.T) {
	cfg, err := Parse([]byte(strings.Replace(minimalDoc, `version: "test-1"`, "", 1)))
	require.NoError(t, err)
	assert.Equal(t, "unknown", cfg.Version)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		path     string
	}{
		{"missing threshold", "threshold: 2", "rule: none", "stages.stage1.routing.threshold"},
		{"threshold too high", "threshold: 2", "threshold: 4", "stages.stage1.routing.threshold"},
		{"negative threshold", "threshold: 2", "threshold: -1", "stages.stage1.routing.threshold"},
		{"missing route A scores", `sector_scores:
          "Sector 1": 0.2`, `other: 1`, "stages.stage2.routeA.calculation.sector_scores"},
		{"route A score above one", `"Sector 1": 0.2`, `"Sector 1": 1.2`, `stages.stage2.routeA.calculation.sector_scores.Sector 1`},
		{"route B score negative", `"Sector 1": 0.1`, `"Sector 1": -0.1`, `stages.stage2.routeB.calculation.sector_scores.Sector 1`},
		{"zero category factor", `"Category 1": 0.8`, `"Category 1": 0`, `stages.stage2.routeB.calculation.category_factors.Category 1`},
		{"missing divisor", "normalization_divisor: 1.2", "", "stages.stage2.routeB.calculation.normalization_divisor"},
		{"zero divisor", "normalization_divisor: 1.2", "normalization_divisor: 0", "stages.stage2.routeB.calculation.normalization_divisor"},
		{"question number too high", "no: 2", "no: 11", "stages.stage3.questions[1].no"},
		{"question number zero", "no: 1", "no: 0", "stages.stage3.questions[0].no"},
		{"duplicate question number", "no: 2", "no: 1", "stages.stage3.questions[1].no"},
		{"weight above one", "weight: 0.6", "weight: 1.6", "stages.stage3.questions[0].weight"},
		{"notch out of range", `notch: -2`, `notch: -4`, "stages.stage3.questions[0].choices.A.notch"},
		{"weights do not sum to one", "weight: 0.4", "weight: 0.3", "stages.stage3.questions"},
		{"negative tolerance", "tolerance: 0.001", "tolerance: -1", "stages.stage3.validation.tolerance"},
		{"sum target not one", "tolerance: 0.001", "weights_must_sum_to: 100", "stages.stage3.validation.weights_must_sum_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, minimalDoc, tt.old)
			doc := strings.Replace(minimalDoc, tt.old, tt.new, 1)

			_, err := Parse([]byte(doc))
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "expected *ConfigError, got %T: %v", err, err)
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}

func TestParseMissingSections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"empty document", "", "stages"},
		{"no stage1", "stages: {stage2: {}}", "stages.stage1"},
		{"no stage2", "stages: {stage1: {routing: {threshold: 2}}}", "stages.stage2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.path, cerr.Path)
			assert.Contains(t, cerr.Error(), "missing required section")
		})
	}
}

func TestParseToleranceAllowsSmallDrift(t *testing.T) {
	doc := strings.Replace(minimalDoc, "tolerance: 0.001", "tolerance: 0.05", 1)
	doc = strings.Replace(doc, "weight: 0.4", "weight: 0.37", 1)
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.InDelta(t, 0.97, cfg.WeightSum(), 1e-9)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("stages: [unterminated"))
	require.Error(t, err)
	var cerr *ConfigError
	assert.False(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "parse survey config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalDoc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Questions, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read survey config")
}

func TestPublicQuestionsHideNotches(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	pub := cfg.PublicQuestions()
	require.Len(t, pub, 10)
	assert.Equal(t, 1, pub[0].No)
	require.Len(t, pub[0].Choices, 3)
	assert.Equal(t, PublicChoice{Key: "A", Label: "Q1 Choice 1"}, pub[0].Choices[0])
	assert.Equal(t, "J", pub[9].Choices[9].Key)
}
