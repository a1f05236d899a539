package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Rating/internal/config"
	"github.com/MikeSquared-Agency/Rating/internal/survey"
)

// app carries state shared by every subcommand once the persistent pre-run
// has loaded configuration.
type app struct {
	configPath string
	surveyPath string
	logLevel   string

	cfg    *config.Config
	survey *survey.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rating",
		Short: "Counterparty risk rating from a three-stage questionnaire",
		Long: `rating routes a counterparty through the stage 1 questions, scores its
stage 2 exposure breakdown into a base rating and adjusts that rating with
the weighted notches of the stage 3 answers.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "process config file (YAML)")
	root.PersistentFlags().StringVar(&a.surveyPath, "survey", "", "survey definition file (default is the embedded reference survey)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.newCheckConfigCmd(),
		a.newRouteCmd(),
		a.newQuestionsCmd(),
		a.newRateCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.surveyPath != "" {
		cfg.Survey.Path = a.surveyPath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())

	if cfg.Survey.Path == "" {
		a.survey, err = survey.Default()
	} else {
		a.survey, err = survey.Load(cfg.Survey.Path)
	}
	if err != nil {
		a.logger.Error("failed to load survey", "path", cfg.Survey.Path, "error", err)
		return err
	}
	a.logger.Debug("survey loaded", "version", a.survey.Version, "questions", len(a.survey.Questions))
	return nil
}
