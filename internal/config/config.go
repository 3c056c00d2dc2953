package config

import (
	"fmt"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/spf13/viper"
)

// Config is the typed view of the viper configuration.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
	Forecast ForecastConfig
}

// DatabaseConfig locates the SQLite log store.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// AnalysisConfig holds report and recommendation defaults.
type AnalysisConfig struct {
	Targets           map[string]float64
	Goal              string
	HistoryDays       int
	ContextLength     int
	Horizon           int
	WindowDays        int
	TopN              int
	ExcludeRecentDays int
	ThresholdPercent  float64
	TDEE              float64
}

// ForecastConfig selects the forecaster and tunes the caller-side retry policy.
// An empty Endpoint selects the local sampling forecaster.
type ForecastConfig struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	Seed              int64
	Samples           int
	Concurrency       int
	RetryAttempts     int
	RequestsPerMinute int
}

// SetDefaults registers default values for every key Load reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/nutrilio/nutrilio.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("analysis.goal", "maintenance")
	v.SetDefault("analysis.history_days", 60)
	v.SetDefault("analysis.context_length", 30)
	v.SetDefault("analysis.horizon", 7)
	v.SetDefault("analysis.window_days", 7)
	v.SetDefault("analysis.top_n", 5)
	v.SetDefault("analysis.exclude_recent_days", 3)
	v.SetDefault("analysis.threshold_percent", 5.0)
	v.SetDefault("analysis.tdee", 2000.0)
	v.SetDefault("analysis.targets", map[string]any{
		"protein_g":   50,
		"carbs_g":     275,
		"fat_g":       78,
		"fiber_g":     28,
		"calcium_mg":  1000,
		"iron_mg":     18,
		"vitaminC_mg": 90,
		"sodium_mg":   2300,
	})

	v.SetDefault("forecast.samples", 20)
	v.SetDefault("forecast.seed", 42)
	v.SetDefault("forecast.concurrency", 4)
	v.SetDefault("forecast.retry_attempts", 1)
	v.SetDefault("forecast.timeout", "30s")
	v.SetDefault("forecast.endpoint", "")
	v.SetDefault("forecast.requests_per_minute", 60)
}

// Load reads the configuration from v, applying defaults for unset keys.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Analysis: AnalysisConfig{
			Goal:              v.GetString("analysis.goal"),
			HistoryDays:       v.GetInt("analysis.history_days"),
			ContextLength:     v.GetInt("analysis.context_length"),
			Horizon:           v.GetInt("analysis.horizon"),
			WindowDays:        v.GetInt("analysis.window_days"),
			TopN:              v.GetInt("analysis.top_n"),
			ExcludeRecentDays: v.GetInt("analysis.exclude_recent_days"),
			ThresholdPercent:  v.GetFloat64("analysis.threshold_percent"),
			TDEE:              v.GetFloat64("analysis.tdee"),
			Targets:           loadTargets(v),
		},
		Forecast: ForecastConfig{
			Endpoint:          v.GetString("forecast.endpoint"),
			APIKey:            v.GetString("forecast.api_key"),
			Samples:           v.GetInt("forecast.samples"),
			Seed:              v.GetInt64("forecast.seed"),
			Concurrency:       v.GetInt("forecast.concurrency"),
			RetryAttempts:     v.GetInt("forecast.retry_attempts"),
			RequestsPerMinute: v.GetInt("forecast.requests_per_minute"),
			Timeout:           v.GetDuration("forecast.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Viper lower-cases nested map keys, so vitaminC_mg is restored here.
func loadTargets(v *viper.Viper) map[string]float64 {
	raw := v.GetStringMap("analysis.targets")
	targets := make(map[string]float64, len(raw))
	for k, val := range raw {
		if k == "vitaminc_mg" {
			k = "vitaminC_mg"
		}
		switch n := val.(type) {
		case float64:
			targets[k] = n
		case int:
			targets[k] = float64(n)
		case int64:
			targets[k] = float64(n)
		}
	}
	return targets
}

// Validate checks that every numeric setting is in range.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrMissingConfig)
	}
	a := c.Analysis
	switch {
	case a.HistoryDays <= 0:
		return fmt.Errorf("%w: analysis.history_days must be positive", common.ErrInvalidConfig)
	case a.ContextLength < 0:
		return fmt.Errorf("%w: analysis.context_length must not be negative", common.ErrInvalidConfig)
	case a.Horizon <= 0:
		return fmt.Errorf("%w: analysis.horizon must be positive", common.ErrInvalidConfig)
	case a.WindowDays <= 0:
		return fmt.Errorf("%w: analysis.window_days must be positive", common.ErrInvalidConfig)
	case a.TopN <= 0:
		return fmt.Errorf("%w: analysis.top_n must be positive", common.ErrInvalidConfig)
	case a.ExcludeRecentDays < 0:
		return fmt.Errorf("%w: analysis.exclude_recent_days must not be negative", common.ErrInvalidConfig)
	case a.ThresholdPercent < 0:
		return fmt.Errorf("%w: analysis.threshold_percent must not be negative", common.ErrInvalidConfig)
	case a.TDEE <= 0:
		return fmt.Errorf("%w: analysis.tdee must be positive", common.ErrInvalidConfig)
	}
	f := c.Forecast
	switch {
	case f.Samples <= 0:
		return fmt.Errorf("%w: forecast.samples must be positive", common.ErrInvalidConfig)
	case f.Concurrency <= 0:
		return fmt.Errorf("%w: forecast.concurrency must be positive", common.ErrInvalidConfig)
	case f.RetryAttempts <= 0:
		return fmt.Errorf("%w: forecast.retry_attempts must be positive", common.ErrInvalidConfig)
	case f.RequestsPerMinute < 0:
		return fmt.Errorf("%w: forecast.requests_per_minute must not be negative", common.ErrInvalidConfig)
	}
	return nil
}
