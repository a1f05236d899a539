// Package metrics counts rating outcomes with Prometheus collectors.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the rating counters on a private registry. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	routes         *prometheus.CounterVec
	baseRatings    *prometheus.CounterVec
	finalRatings   *prometheus.CounterVec
	lookupFailures *prometheus.CounterVec
	rejected       *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_routes_total",
			Help: "Stage 1 routing decisions by route.",
		}, []string{"route"}),
		baseRatings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_base_ratings_total",
			Help: "Stage 2 base ratings by route and rating.",
		}, []string{"route", "rating"}),
		finalRatings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_final_ratings_total",
			Help: "Final ratings after the stage 3 adjustment.",
		}, []string{"rating"}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_lookup_failures_total",
			Help: "Submitted labels the survey configuration did not recognise.",
		}, []string{"stage"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_submissions_rejected_total",
			Help: "Submissions rejected by shape validation, by stage.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.routes, r.baseRatings, r.finalRatings, r.lookupFailures, r.rejected)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Route(route string) {
	if r == nil {
		return
	}
	r.routes.WithLabelValues(route).Inc()
}

func (r *Recorder) BaseRating(route string, rating int) {
	if r == nil {
		return
	}
	r.baseRatings.WithLabelValues(route, strconv.Itoa(rating)).Inc()
}

func (r *Recorder) FinalRating(rating int) {
	if r == nil {
		return
	}
	r.finalRatings.WithLabelValues(strconv.Itoa(rating)).Inc()
}

func (r *Recorder) LookupFailures(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.lookupFailures.WithLabelValues(stage).Add(float64(n))
}

func (r *Recorder) Rejected(stage string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(stage).Inc()
}

// WriteTextfile writes the current counters to path in the text exposition
// format read by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
