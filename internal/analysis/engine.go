package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/forecast"
	"github.com/Priyansh6747/Nutrilio/internal/habit"
	"github.com/Priyansh6747/Nutrilio/internal/insight"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/nutrition"
	"github.com/Priyansh6747/Nutrilio/internal/service"
)

// macroTargets are split out of Options.Targets as GapInput.MacrosTarget.
var macroTargets = map[string]bool{
	model.KeyProtein: true,
	model.KeyCarbs:   true,
	model.KeyFat:     true,
	model.KeyFiber:   true,
}

// Run produces both the habit report and the nutrition plan.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	end, err := e.resolveEnd(ctx, opts.End)
	if err != nil {
		return nil, err
	}
	opts.End = end

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: e.now(),
		Goal:        opts.Goal,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		habits, err := e.HabitReport(gctx, opts)
		if err != nil {
			return err
		}
		report.Habits = habits
		return nil
	})
	g.Go(func() error {
		plan, err := e.NutritionPlan(gctx, opts)
		if err != nil {
			return err
		}
		report.Nutrition = plan
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.progress("Report complete", 100)
	e.logger.Info("analysis complete",
		"report_id", report.ID,
		"end", end.Format(model.DateLayout),
		"goal", opts.Goal)

	return report, nil
}

// HabitReport forecasts the user's feature matrix and derives trend insights.
func (e *Engine) HabitReport(ctx context.Context, opts Options) (*HabitReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.progress("Loading daily records", 10)
	days, err := e.loadHistory(ctx, opts.End, opts.HistoryDays)
	if err != nil {
		return nil, err
	}

	streak := habit.MealStreak(days)
	habit.ApplyStreak(days, streak)

	opts.progress("Building features", 25)
	build := features.Options{WindowDays: opts.WindowDays, ContextLength: opts.ContextLength}
	recent, _, err := e.builder.Build(days, build)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature matrix: %w", err)
	}
	build.Normalize = true
	normalized, params, err := e.builder.Build(days, build)
	if err != nil {
		return nil, fmt.Errorf("failed to build normalized feature matrix: %w", err)
	}

	opts.progress("Forecasting", 40)
	result, err := e.forecast(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}
	result = result.Denormalize(params)

	opts.progress("Deriving insights", 80)
	ie, err := insight.NewEngine(result.Matrix(forecast.StatMedian), recent, insight.Options{
		Now:              e.now,
		ThresholdPercent: opts.ThresholdPercent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insights: %w", err)
	}

	return &HabitReport{
		HistoryStart: days[0].Date,
		HistoryEnd:   days[len(days)-1].Date,
		Insights:     ie.BuildReport(),
		Forecast:     result,
		Streak:       streak,
		DaysLogged:   len(days),
		Features:     normalized.Schema.Len(),
	}, nil
}

// forecast runs the oracle over every column under the caller's retry and
// timeout policy.
func (e *Engine) forecast(ctx context.Context, m *features.Matrix, opts Options) (*forecast.Result, error) {
	runner := forecast.NewRunner(e.deps.Oracle, opts.Concurrency)

	var result *forecast.Result
	err := common.WithRetry(ctx, func() error {
		fctx := ctx
		if opts.ForecastTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, opts.ForecastTimeout)
			defer cancel()
		}
		r, err := runner.Run(fctx, m, opts.Horizon)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, common.RetryOptions{MaxAttempts: max(opts.RetryAttempts, 1)})
	if err != nil {
		return nil, fmt.Errorf("failed to forecast features: %w", err)
	}
	return result, nil
}

// NutritionPlan compares the trailing week's intake with targets and ranks
// historical meals against the gaps.
func (e *Engine) NutritionPlan(ctx context.Context, opts Options) (*NutritionPlan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.progress("Loading intake", 15)
	days, err := e.loadHistory(ctx, opts.End, opts.HistoryDays)
	if err != nil {
		return nil, err
	}
	end := days[len(days)-1].Date

	raw, _, err := e.builder.Build(days, features.Options{WindowDays: opts.WindowDays})
	if err != nil {
		return nil, fmt.Errorf("failed to build feature matrix: %w", err)
	}

	weekly := nutrition.WeeklyActual(days, end)
	macros, micros := splitTargets(opts.Targets)

	opts.progress("Analyzing nutrient gaps", 50)
	gaps := nutrition.NewGapAnalyzer(opts.TopN).Analyze(nutrition.GapInput{
		MacrosTarget: macros,
		MicrosTarget: micros,
		WeeklyActual: weekly,
		Patterns:     nutrition.VariabilityPatterns(raw),
		Goal:         opts.Goal,
		TDEE:         opts.TDEE,
	})

	opts.progress("Loading meals", 60)
	meals, err := e.deps.Store.GetMeals(ctx, service.MealFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}

	opts.progress("Ranking meals", 70)
	rec, err := nutrition.NewRecommender(opts.TopN, opts.Concurrency).Recommend(ctx, nutrition.RecommendInput{
		Now:               e.now(),
		Gaps:              gaps.NutrientGaps,
		Priorities:        gaps.PriorityNutrients,
		Goal:              opts.Goal,
		Meals:             meals,
		TDEE:              opts.TDEE,
		ExcludeRecentDays: opts.ExcludeRecentDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recommend meals: %w", err)
	}

	return &NutritionPlan{
		WeeklyActual:    weekly,
		Gaps:            gaps,
		Recommendations: rec,
		WeekEnding:      end.Format(model.DateLayout),
	}, nil
}

// resolveEnd defaults a zero end to the latest logged day.
func (e *Engine) resolveEnd(ctx context.Context, end time.Time) (time.Time, error) {
	if !end.IsZero() {
		return model.TruncateDay(end), nil
	}
	latest, err := e.deps.Store.GetLatestRecordDate(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return time.Time{}, fmt.Errorf("%w: nothing has been logged yet", common.ErrEmptyRecords)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find latest record: %w", err)
	}
	return latest, nil
}

// loadHistory returns a gap-free run of days ending at end. The run starts at
// the first logged day inside the window so a short history is not padded
// with empty days.
func (e *Engine) loadHistory(ctx context.Context, end time.Time, historyDays int) ([]model.DailyRecord, error) {
	end, err := e.resolveEnd(ctx, end)
	if err != nil {
		return nil, err
	}
	start := end.AddDate(0, 0, -(historyDays - 1))

	records, err := e.deps.Store.GetDailyRecords(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: nothing logged between %s and %s", common.ErrEmptyRecords,
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}

	habit.Sort(records)
	if first := model.TruncateDay(records[0].Date); first.After(start) {
		start = first
	}

	days := habit.FillGaps(records, start, end)
	e.logger.Debug("history loaded",
		"logged", len(records),
		"days", len(days),
		"start", start.Format(model.DateLayout),
		"end", end.Format(model.DateLayout))
	return days, nil
}

func splitTargets(targets map[string]float64) (macros, micros map[string]float64) {
	macros = make(map[string]float64)
	micros = make(map[string]float64)
	for k, v := range targets {
		if macroTargets[k] {
			macros[k] = v
		} else {
			micros[k] = v
		}
	}
	return macros, micros
}
