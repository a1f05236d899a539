package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Rating/internal/events"
	"github.com/MikeSquared-Agency/Rating/internal/metrics"
	"github.com/MikeSquared-Agency/Rating/internal/rating"
	"github.com/MikeSquared-Agency/Rating/internal/survey"
)

// Evaluation is the outcome of one submission. Stage fields stay nil when
// the submission did not reach that stage.
type Evaluation struct {
	CounterpartyID string            `json:"counterparty_id"`
	Name           string            `json:"name,omitempty"`
	SurveyVersion  string            `json:"survey_version"`
	Route          rating.Route      `json:"route,omitempty"`
	Base           *rating.BaseScore `json:"base,omitempty"`
	BaseRating     *int              `json:"base_rating,omitempty"`
	WeightedNotch  *float64          `json:"weighted_notch,omitempty"`
	FinalRating    *int              `json:"final_rating,omitempty"`
	Warnings       []Problem         `json:"warnings,omitempty"`
	Problems       []Problem         `json:"problems,omitempty"`

	// Adjustment carries notch values and is never serialized.
	Adjustment *rating.Adjustment `json:"-"`
}

// Result returns the engine result once all three stages are known.
func (e *Evaluation) Result() (rating.Result, bool) {
	if e.Adjustment == nil {
		return rating.Result{}, false
	}
	return e.Adjustment.Result(), true
}

type Rater struct {
	survey    *survey.Config
	tolerance float64
	logger    *slog.Logger

	metrics  *metrics.Recorder
	events   events.Client
	subjects events.Subjects
	runID    string
	now      func() time.Time
}

type Option func(*Rater)

func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Rater) { r.metrics = m }
}

func WithEvents(c events.Client, s events.Subjects) Option {
	return func(r *Rater) {
		r.events = c
		r.subjects = s
	}
}

// WithRunID tags published events with the id of the batch run.
func WithRunID(id string) Option {
	return func(r *Rater) { r.runID = id }
}

func WithClock(now func() time.Time) Option {
	return func(r *Rater) { r.now = now }
}

// NewRater builds a Rater over a loaded survey. tolerance applies to stage 2
// row weights.
func NewRater(cfg *survey.Config, tolerance float64, logger *slog.Logger, opts ...Option) *Rater {
	r := &Rater{
		survey:    cfg,
		tolerance: tolerance,
		logger:    logger,
		subjects:  events.NewSubjects(""),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Evaluate validates each stage present in sub and runs the engine over the
// valid ones. The final rating is always derived from the base rating of the
// stage 2 answers in the same submission. When any stage is invalid the
// evaluation is still returned, together with a *ValidationError.
func (r *Rater) Evaluate(ctx context.Context, sub Submission) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ev := &Evaluation{
		CounterpartyID: sub.CounterpartyID,
		Name:           sub.Name,
		SurveyVersion:  r.survey.Version,
	}
	var ps problems

	if sub.Stage1 != nil {
		if err := ValidateStage1(sub.Stage1); err != nil {
			ps = append(ps, problemsOf(err)...)
		} else {
			ev.Route = sub.Stage1.Answer().Route(r.survey.RoutingThreshold)
			r.metrics.Route(string(ev.Route))
		}
	}

	if sub.Stage2 != nil {
		if err := ValidateStage2(sub.Stage2, r.tolerance); err != nil {
			ps = append(ps, problemsOf(err)...)
		} else {
			r.scoreStage2(ev, sub.Stage2)
		}
	}

	if sub.Stage3 != nil {
		switch err := ValidateStage3(r.survey, sub.Stage3); {
		case err != nil:
			ps = append(ps, problemsOf(err)...)
		case ev.BaseRating == nil:
			ps.add(StageThree, "a valid stage 2 breakdown is required before stage 3")
		default:
			adj := r.adjust(ev, *ev.BaseRating, sub.Stage3.Answers)
			ev.Adjustment = &adj
		}
	}

	ev.Problems = ps
	r.publish(ev)

	if len(ps) > 0 {
		verr := &ValidationError{Problems: ps}
		for _, stage := range verr.Stages() {
			r.metrics.Rejected(stage)
		}
		r.logger.Warn("submission rejected",
			"counterparty_id", sub.CounterpartyID,
			"problems", len(ps),
			"error", verr,
		)
		return ev, verr
	}

	r.logger.Debug("submission evaluated",
		"counterparty_id", sub.CounterpartyID,
		"route", ev.Route,
		"base_rating", derefInt(ev.BaseRating),
		"final_rating", derefInt(ev.FinalRating),
		"warnings", len(ev.Warnings),
	)
	return ev, nil
}

func (r *Rater) scoreStage2(ev *Evaluation, in *Stage2Input) {
	exposure, err := in.Exposure()
	if err != nil {
		// Unreachable after ValidateStage2.
		ev.Warnings = append(ev.Warnings, Problem{Stage: StageTwo, Message: err.Error()})
		return
	}

	base := rating.ScoreExposure(r.survey, exposure)
	ev.Base = &base
	ev.BaseRating = &base.Rating

	if ev.Route != "" && ev.Route != base.Route {
		ev.Warnings = append(ev.Warnings, Problem{
			Stage:   StageTwo,
			Message: fmt.Sprintf("option %d is scored by route %s but stage 1 selected route %s", in.Option, base.Route, ev.Route),
		})
	}
	for _, lf := range base.Warnings {
		ev.Warnings = append(ev.Warnings, lookupWarning(lf))
	}

	r.metrics.BaseRating(string(base.Route), base.Rating)
	r.metrics.LookupFailures(string(rating.Stage2), len(base.Warnings))
}

func (r *Rater) adjust(ev *Evaluation, base int, answers []rating.Stage3Answer) rating.Adjustment {
	adj := rating.FinalRating(r.survey, base, answers)
	ev.WeightedNotch = &adj.WeightedNotch
	ev.FinalRating = &adj.FinalRating
	for _, lf := range adj.Skipped {
		ev.Warnings = append(ev.Warnings, lookupWarning(lf))
	}

	r.metrics.FinalRating(adj.FinalRating)
	r.metrics.LookupFailures(string(rating.Stage3), len(adj.Skipped))
	return adj
}

// Rescore re-runs stage 3 against a previously computed base rating.
func (r *Rater) Rescore(base int, answers []rating.Stage3Answer) (rating.Adjustment, error) {
	if base < rating.MinRating || base > rating.MaxRating {
		return rating.Adjustment{}, fmt.Errorf("base rating %d out of range [%d,%d]", base, rating.MinRating, rating.MaxRating)
	}
	if err := ValidateStage3(r.survey, &Stage3Input{Answers: answers}); err != nil {
		r.metrics.Rejected(StageThree)
		return rating.Adjustment{}, err
	}
	adj := rating.FinalRating(r.survey, base, answers)
	r.metrics.FinalRating(adj.FinalRating)
	return adj, nil
}

// EvaluateAll evaluates subs concurrently, at most parallelism at a time,
// and returns the evaluations in input order. Validation failures stay on
// the individual evaluations; only cancellation fails the batch.
func (r *Rater) EvaluateAll(ctx context.Context, subs []Submission, parallelism int) ([]*Evaluation, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	out := make([]*Evaluation, len(subs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range subs {
		g.Go(func() error {
			ev, err := r.Evaluate(ctx, subs[i])
			var verr *ValidationError
			if err != nil && !errors.As(err, &verr) {
				return fmt.Errorf("evaluate submission %d: %w", i, err)
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Rater) publish(ev *Evaluation) {
	if r.events == nil {
		return
	}
	ts := r.now().UTC()

	if len(ev.Problems) > 0 {
		verr := &ValidationError{Problems: ev.Problems}
		msgs := make([]string, len(ev.Problems))
		for i, p := range ev.Problems {
			msgs[i] = p.Stage + ": " + p.Message
		}
		r.send(r.subjects.Rejected(ev.CounterpartyID), events.SubmissionRejectedEvent{
			RunID:          r.runID,
			CounterpartyID: ev.CounterpartyID,
			Stages:         verr.Stages(),
			Problems:       msgs,
			Timestamp:      ts,
		})
	}

	if ev.Route == "" && ev.BaseRating == nil {
		return
	}
	r.send(r.subjects.Computed(ev.CounterpartyID), events.RatingComputedEvent{
		RunID:          r.runID,
		CounterpartyID: ev.CounterpartyID,
		Name:           ev.Name,
		SurveyVersion:  ev.SurveyVersion,
		Route:          string(ev.Route),
		BaseRating:     ev.BaseRating,
		WeightedNotch:  ev.WeightedNotch,
		FinalRating:    ev.FinalRating,
		Warnings:       len(ev.Warnings),
		Timestamp:      ts,
	})
}

func (r *Rater) send(subject string, data interface{}) {
	if err := r.events.Publish(subject, data); err != nil {
		r.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

func problemsOf(err error) []Problem {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return []Problem{{Message: err.Error()}}
}

func lookupWarning(lf rating.LookupFailure) Problem {
	msg := fmt.Sprintf("line %d: unknown %s %q", lf.Line, lf.Field, lf.Value)
	if lf.Stage == rating.Stage3 {
		msg = fmt.Sprintf("answer %d: unknown %s %q, skipped", lf.Line, lf.Field, lf.Value)
	}
	return Problem{Stage: string(lf.Stage), Message: msg}
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
