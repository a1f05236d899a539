package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Rating/internal/events"
	"github.com/MikeSquared-Agency/Rating/internal/intake"
	"github.com/MikeSquared-Agency/Rating/internal/metrics"
)

type rateOutput struct {
	RunID         string               `json:"run_id"`
	SurveyVersion string               `json:"survey_version"`
	Rated         int                  `json:"rated"`
	Rejected      int                  `json:"rejected"`
	Evaluations   []*intake.Evaluation `json:"evaluations"`
}

func (a *app) newRateCmd() *cobra.Command {
	var (
		file            string
		parallelism     int
		metricsTextfile string
		eventsURL       string
	)

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate a batch of submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if file == "" {
				return errors.New("a submissions file is required (-f)")
			}
			if parallelism <= 0 {
				parallelism = a.cfg.Batch.Parallelism
			}
			if metricsTextfile == "" {
				metricsTextfile = a.cfg.Metrics.TextfilePath
			}
			if eventsURL == "" {
				eventsURL = a.cfg.Events.URL
			}

			subs, err := intake.LoadSubmissions(file)
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			logger := a.logger.With("run_id", runID)
			rec := metrics.NewRecorder()
			opts := []intake.Option{intake.WithMetrics(rec), intake.WithRunID(runID)}

			if eventsURL != "" {
				subjects := events.NewSubjects(a.cfg.Events.SubjectPrefix)
				nc, err := events.NewNATSClient(ctx, eventsURL, subjects, logger)
				if err != nil {
					logger.Warn("failed to connect to nats, running without events", "error", err)
				} else {
					defer nc.Close()
					opts = append(opts, intake.WithEvents(nc, subjects))
					logger.Info("connected to nats", "url", eventsURL)
				}
			}

			rater := intake.NewRater(a.survey, a.cfg.Scoring.RowWeightTolerance, logger, opts...)
			evs, err := rater.EvaluateAll(ctx, subs, parallelism)
			if err != nil {
				return fmt.Errorf("rate submissions: %w", err)
			}

			out := rateOutput{RunID: runID, SurveyVersion: a.survey.Version, Evaluations: evs}
			for _, ev := range evs {
				if len(ev.Problems) > 0 {
					out.Rejected++
				} else {
					out.Rated++
				}
			}
			logger.Info("batch rated", "submissions", len(subs), "rated", out.Rated, "rejected", out.Rejected)

			if err := rec.WriteTextfile(metricsTextfile); err != nil {
				logger.Error("failed to write metrics", "path", metricsTextfile, "error", err)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "submissions file (YAML or JSON)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "concurrent evaluations (default from config)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	cmd.Flags().StringVar(&eventsURL, "events-url", "", "NATS URL for rating events")
	return cmd
}
