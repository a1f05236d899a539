package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Rating/internal/rating"
)

func (a *app) newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the survey definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "survey version:    %s\n", a.survey.Version)
			fmt.Fprintf(out, "routing threshold: %d\n", a.survey.RoutingThreshold)
			fmt.Fprintf(out, "route A sectors:   %d\n", len(a.survey.RouteA.SectorScores))
			fmt.Fprintf(out, "route B sectors:   %d (categories %d, divisor %g)\n",
				len(a.survey.RouteB.SectorScores), len(a.survey.RouteB.CategoryFactors), a.survey.RouteB.NormalizationDivisor)
			fmt.Fprintf(out, "stage 3 questions: %d (weights sum %.4f)\n", len(a.survey.Questions), a.survey.WeightSum())
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func (a *app) newRouteCmd() *cobra.Command {
	var q1, q2, q3 bool
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Print the stage 2 route for a set of stage 1 answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route := rating.DetermineRoute(q1, q2, q3, a.survey.RoutingThreshold)
			fmt.Fprintln(cmd.OutOrStdout(), route)
			return nil
		},
	}
	cmd.Flags().BoolVar(&q1, "q1", false, "stage 1 question 1 answered yes")
	cmd.Flags().BoolVar(&q2, "q2", false, "stage 1 question 2 answered yes")
	cmd.Flags().BoolVar(&q3, "q3", false, "stage 1 question 3 answered yes")
	return cmd
}

func (a *app) newQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the stage 3 questionnaire without scoring data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), a.survey.PublicQuestions())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
