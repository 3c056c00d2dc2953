package analysis

import (
	"fmt"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/config"
	"github.com/Priyansh6747/Nutrilio/internal/forecast"
	"github.com/Priyansh6747/Nutrilio/internal/habit"
	"github.com/Priyansh6747/Nutrilio/internal/insight"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/nutrition"
)

// Pipeline defaults.
const (
	DefaultHistoryDays   = 60
	DefaultContextLength = 30
	DefaultHorizon       = 7
	DefaultTDEE          = 2000.0
)

// ProgressFunc receives a stage description and an overall percentage.
type ProgressFunc func(stage string, percent int)

// Options configures one analysis run.
type Options struct {
	// End is the last day analyzed. Zero means the latest logged day.
	End time.Time
	// Targets maps nutrient keys to daily targets.
	Targets      map[string]float64
	ProgressFunc ProgressFunc
	Goal         model.Goal
	// HistoryDays bounds how far back records are loaded.
	HistoryDays int
	// ContextLength is the number of trailing days handed to the forecaster.
	ContextLength     int
	Horizon           int
	WindowDays        int
	TopN              int
	ExcludeRecentDays int
	Concurrency       int
	RetryAttempts     int
	ThresholdPercent  float64
	TDEE              float64
	ForecastTimeout   time.Duration
}

// DefaultOptions returns options with every pipeline default filled in.
func DefaultOptions() Options {
	return Options{
		Goal:              model.GoalMaintenance,
		HistoryDays:       DefaultHistoryDays,
		ContextLength:     DefaultContextLength,
		Horizon:           DefaultHorizon,
		WindowDays:        7,
		TopN:              nutrition.DefaultTopN,
		ExcludeRecentDays: nutrition.DefaultExcludeRecentDays,
		Concurrency:       forecast.DefaultConcurrency,
		RetryAttempts:     1,
		ThresholdPercent:  insight.DefaultThresholdPercent,
		TDEE:              DefaultTDEE,
	}
}

// OptionsFromConfig maps loaded configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	a := cfg.Analysis
	opts.Targets = a.Targets
	opts.Goal = model.ParseGoal(a.Goal)
	opts.HistoryDays = a.HistoryDays
	opts.ContextLength = a.ContextLength
	opts.Horizon = a.Horizon
	opts.WindowDays = a.WindowDays
	opts.TopN = a.TopN
	opts.ExcludeRecentDays = a.ExcludeRecentDays
	opts.ThresholdPercent = a.ThresholdPercent
	opts.TDEE = a.TDEE
	opts.Concurrency = cfg.Forecast.Concurrency
	opts.RetryAttempts = cfg.Forecast.RetryAttempts
	opts.ForecastTimeout = cfg.Forecast.Timeout
	return opts
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.HistoryDays <= 0:
		return fmt.Errorf("%w: history days must be positive", common.ErrInvalidConfig)
	case o.ContextLength < 0:
		return fmt.Errorf("%w: context length must not be negative", common.ErrInvalidConfig)
	case o.Horizon <= 0:
		return fmt.Errorf("%w: horizon must be positive", common.ErrInvalidConfig)
	case o.WindowDays < 0:
		return fmt.Errorf("%w: window days must not be negative", common.ErrInvalidConfig)
	case o.ExcludeRecentDays < 0:
		return fmt.Errorf("%w: exclude recent days must not be negative", common.ErrInvalidConfig)
	case o.ThresholdPercent < 0:
		return fmt.Errorf("%w: threshold percent must not be negative", common.ErrInvalidConfig)
	case o.TDEE <= 0:
		return fmt.Errorf("%w: tdee must be positive", common.ErrInvalidConfig)
	}
	return nil
}

func (o Options) progress(stage string, percent int) {
	if o.ProgressFunc != nil {
		o.ProgressFunc(stage, percent)
	}
}

// HabitReport is the forecast-driven habit analysis.
type HabitReport struct {
	HistoryStart time.Time          `json:"history_start"`
	HistoryEnd   time.Time          `json:"history_end"`
	Insights     *insight.Report    `json:"insights"`
	Forecast     *forecast.Result   `json:"-"`
	Streak       habit.StreakResult `json:"streak"`
	DaysLogged   int                `json:"days_logged"`
	Features     int                `json:"features"`
}

// NutritionPlan is the gap analysis with meal recommendations.
type NutritionPlan struct {
	WeeklyActual    map[string]float64        `json:"weekly_actual"`
	Recommendations *nutrition.Recommendation `json:"recommendations"`
	WeekEnding      string                    `json:"week_ending"`
	Gaps            nutrition.GapAnalysis     `json:"gap_analysis"`
}

// Report bundles both pipelines under one identifier.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Habits      *HabitReport   `json:"habits,omitempty"`
	Nutrition   *NutritionPlan `json:"nutrition,omitempty"`
	ID          string         `json:"id"`
	Goal        model.Goal     `json:"goal"`
}
