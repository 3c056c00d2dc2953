package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Priyansh6747/Nutrilio/internal/analysis"
	"github.com/Priyansh6747/Nutrilio/internal/cli"
	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/config"
	"github.com/Priyansh6747/Nutrilio/internal/forecast"
	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// analysisRun is what a report command does once the engine and options are ready.
type analysisRun func(ctx context.Context, engine *analysis.Engine, opts analysis.Options, out io.Writer, format string) error

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Full habit forecast and nutrition report",
		Long: `Forecast the coming week of eating habits from your daily logs, analyze
this week's nutrient gaps, and recommend meals from your history.

Examples:
  # Report through the latest logged day
  nutrilio report

  # Report for a muscle gain goal ending on a specific day
  nutrilio report --goal muscle_gain --end 2024-05-31

  # Machine-readable output
  nutrilio report --output json`,
		RunE: analysisCommand(func(ctx context.Context, engine *analysis.Engine, opts analysis.Options, out io.Writer, format string) error {
			report, err := engine.Run(ctx, opts)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(out, report)
			}
			_, err = fmt.Fprintln(out, analysis.NewCLIFormatter().FormatReport(report))
			return err
		}),
	}
	addAnalysisFlags(cmd)
	return cmd
}

func habitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Forecast habit trends, anomalies and the habit score",
		RunE: analysisCommand(func(ctx context.Context, engine *analysis.Engine, opts analysis.Options, out io.Writer, format string) error {
			report, err := engine.HabitReport(ctx, opts)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(out, report)
			}
			_, err = fmt.Fprintln(out, analysis.NewCLIFormatter().FormatHabits(report))
			return err
		}),
	}
	addAnalysisFlags(cmd)
	return cmd
}

func gapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Show nutrient gaps for the week ending on the analysis day",
		RunE: analysisCommand(func(ctx context.Context, engine *analysis.Engine, opts analysis.Options, out io.Writer, format string) error {
			plan, err := engine.NutritionPlan(ctx, opts)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(out, plan.Gaps)
			}
			_, err = fmt.Fprintln(out, analysis.NewCLIFormatter().FormatGaps(plan))
			return err
		}),
	}
	addAnalysisFlags(cmd)
	return cmd
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend past meals that close this week's nutrient gaps",
		RunE: analysisCommand(func(ctx context.Context, engine *analysis.Engine, opts analysis.Options, out io.Writer, format string) error {
			plan, err := engine.NutritionPlan(ctx, opts)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(out, plan.Recommendations)
			}
			_, err = fmt.Fprintln(out, analysis.NewCLIFormatter().FormatRecommendations(plan.Recommendations))
			return err
		}),
	}
	addAnalysisFlags(cmd)
	cmd.Flags().Int("top", 0, "number of meals to recommend (default from config)")
	cmd.Flags().Int("exclude-days", -1, "skip meals eaten in the last N days (default from config)")
	return cmd
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("goal", "", "dietary goal (weight_loss, muscle_gain, maintenance, weight_gain)")
	cmd.Flags().String("end", "", "last day to analyze, YYYY-MM-DD (default: latest logged day)")
	cmd.Flags().StringP("output", "o", outputStyled, "output format (styled, json)")
	cmd.Flags().Bool("quiet", false, "hide progress output")
}

// analysisCommand wires config, storage, engine and flag parsing around run.
func analysisCommand(run analysisRun) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := validateOutput(format); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts, err := optionsFromFlags(cmd, cfg)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet && format == outputStyled {
			opts.ProgressFunc = progressPrinter(cmd.ErrOrStderr())
		}

		handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Analysis")
		ctx, cancel := handler.HandleInterrupts(cmd.Context(), "")
		defer cancel()

		store, err := initStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("Failed to close database", "error", closeErr)
			}
		}()

		oracle, closeOracle, err := newOracle(cfg)
		if err != nil {
			return err
		}
		defer closeOracle()

		engine, err := analysis.NewEngine(analysis.Deps{
			Store:  store,
			Oracle: oracle,
		})
		if err != nil {
			return fmt.Errorf("failed to create analysis engine: %w", err)
		}

		slog.Debug("Starting analysis",
			"command", cmd.Name(),
			"goal", opts.Goal,
			"database", store.Path())

		err = run(ctx, engine, opts, cmd.OutOrStdout(), format)
		switch {
		case err == nil:
			return nil
		case handler.WasInterrupted():
			return nil
		case errors.Is(err, common.ErrEmptyRecords):
			return common.NewUserError("No daily logs found. Import some with: nutrilio import <file>", err)
		default:
			return fmt.Errorf("analysis failed: %w", err)
		}
	}
}

// optionsFromFlags layers command-line overrides on top of configured defaults.
func optionsFromFlags(cmd *cobra.Command, cfg *config.Config) (analysis.Options, error) {
	opts := analysis.OptionsFromConfig(cfg)

	if goal, _ := cmd.Flags().GetString("goal"); goal != "" {
		opts.Goal = model.ParseGoal(goal)
	}

	endStr, _ := cmd.Flags().GetString("end")
	end, err := parseDay(endStr)
	if err != nil {
		return opts, err
	}
	opts.End = end

	if f := cmd.Flags().Lookup("top"); f != nil && f.Changed {
		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			return opts, common.NewUserError("--top must be positive", nil)
		}
		opts.TopN = top
	}
	if f := cmd.Flags().Lookup("exclude-days"); f != nil && f.Changed {
		days, _ := cmd.Flags().GetInt("exclude-days")
		opts.ExcludeRecentDays = days
	}

	if err := opts.Validate(); err != nil {
		return opts, common.NewUserError("invalid analysis options", err)
	}
	return opts, nil
}

// newOracle picks the hosted forecaster when an endpoint is configured and
// the local sampling forecaster otherwise. The returned func releases it.
func newOracle(cfg *config.Config) (forecast.Oracle, func(), error) {
	f := cfg.Forecast
	if f.Endpoint == "" {
		return forecast.SamplingOracle{Samples: f.Samples, Seed: uint64(f.Seed)}, func() {}, nil
	}

	remote, err := forecast.NewRemoteOracle(forecast.RemoteConfig{
		Endpoint:          f.Endpoint,
		APIKey:            f.APIKey,
		Samples:           f.Samples,
		RequestsPerMinute: f.RequestsPerMinute,
		Timeout:           f.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create forecast client: %w", err)
	}
	slog.Debug("Using remote forecaster", "endpoint", f.Endpoint)
	return remote, remote.Close, nil
}

// progressPrinter renders pipeline progress on a single terminal line. Both
// pipelines report concurrently during a full run.
func progressPrinter(w io.Writer) analysis.ProgressFunc {
	var mu sync.Mutex
	return func(stage string, percent int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\r%-40s %3d%%", stage, percent)
		if percent == 100 {
			fmt.Fprintln(w)
		}
	}
}
