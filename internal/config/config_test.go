package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share/nutrilio/nutrilio.db"), cfg.Database.Path)
	assert.Equal(t, "maintenance", cfg.Analysis.Goal)
	assert.Equal(t, 7, cfg.Analysis.Horizon)
	assert.Equal(t, 30, cfg.Analysis.ContextLength)
	assert.InDelta(t, 5.0, cfg.Analysis.ThresholdPercent, 1e-9)
	assert.Equal(t, 20, cfg.Forecast.Samples)
	assert.Equal(t, 1, cfg.Forecast.RetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.Forecast.Timeout)
	assert.Empty(t, cfg.Forecast.Endpoint, "local forecaster by default")
	assert.Equal(t, 60, cfg.Forecast.RequestsPerMinute)
	assert.InDelta(t, 90.0, cfg.Analysis.Targets["vitaminC_mg"], 1e-9)
	assert.InDelta(t, 50.0, cfg.Analysis.Targets["protein_g"], 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	v.Set("database.path", "/tmp/test.db")
	v.Set("analysis.goal", "muscle_gain")
	v.Set("analysis.horizon", 14)
	v.Set("forecast.samples", 50)
	v.Set("forecast.endpoint", "http://localhost:8080/forecast")
	v.Set("forecast.api_key", "secret")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "muscle_gain", cfg.Analysis.Goal)
	assert.Equal(t, 14, cfg.Analysis.Horizon)
	assert.Equal(t, 50, cfg.Forecast.Samples)
	assert.Equal(t, "http://localhost:8080/forecast", cfg.Forecast.Endpoint)
	assert.Equal(t, "secret", cfg.Forecast.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero horizon", "analysis.horizon", 0},
		{"negative context", "analysis.context_length", -1},
		{"zero window", "analysis.window_days", 0},
		{"zero tdee", "analysis.tdee", 0},
		{"zero samples", "forecast.samples", 0},
		{"zero retry attempts", "forecast.retry_attempts", 0},
		{"negative rate limit", "forecast.requests_per_minute", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("NUTRILIO_TEST_DIR", "/data")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/nutrilio.db", filepath.Join(home, "nutrilio.db")},
		{"$NUTRILIO_TEST_DIR/nutrilio.db", "/data/nutrilio.db"},
		{"/abs/path.db", "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
