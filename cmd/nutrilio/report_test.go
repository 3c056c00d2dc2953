package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/config"
	"github.com/Priyansh6747/Nutrilio/internal/forecast"
	"github.com/Priyansh6747/Nutrilio/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	return cfg
}

func TestOptionsFromFlags(t *testing.T) {
	tests := []struct {
		check   func(t *testing.T, goal model.Goal, end time.Time, topN, exclude int)
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "config defaults",
			check: func(t *testing.T, goal model.Goal, end time.Time, topN, exclude int) {
				assert.Equal(t, model.GoalMaintenance, goal)
				assert.True(t, end.IsZero())
				assert.Equal(t, 5, topN)
				assert.Equal(t, 3, exclude)
			},
		},
		{
			name: "overrides",
			args: []string{"--goal", "Weight-Loss", "--end", "2024-05-31", "--top", "2", "--exclude-days", "0"},
			check: func(t *testing.T, goal model.Goal, end time.Time, topN, exclude int) {
				assert.Equal(t, model.GoalWeightLoss, goal)
				assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), end)
				assert.Equal(t, 2, topN)
				assert.Equal(t, 0, exclude)
			},
		},
		{name: "bad end date", args: []string{"--end", "31-05-2024"}, wantErr: true},
		{name: "zero top", args: []string{"--top", "0"}, wantErr: true},
		{name: "negative exclusion", args: []string{"--exclude-days", "-2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := recommendCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			opts, err := optionsFromFlags(cmd, testConfig(t))
			if tt.wantErr {
				require.Error(t, err)
				var userErr *common.UserError
				assert.ErrorAs(t, err, &userErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts.Goal, opts.End, opts.TopN, opts.ExcludeRecentDays)
		})
	}
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, validateOutput(outputStyled))
	assert.NoError(t, validateOutput(outputJSON))
	assert.Error(t, validateOutput("yaml"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"score": 88}))
	assert.Equal(t, "{\n  \"score\": 88\n}\n", buf.String())
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	progress := progressPrinter(&buf)
	progress("Forecasting", 40)
	progress("Report complete", 100)

	out := buf.String()
	assert.Contains(t, out, "Forecasting")
	assert.Contains(t, out, " 40%")
	assert.True(t, strings.HasSuffix(out, "100%\n"))
}

func TestNewOracle(t *testing.T) {
	cfg := testConfig(t)

	oracle, release, err := newOracle(cfg)
	require.NoError(t, err)
	release()
	assert.IsType(t, forecast.SamplingOracle{}, oracle)

	cfg.Forecast.Endpoint = "http://localhost:8080/forecast"
	oracle, release, err = newOracle(cfg)
	require.NoError(t, err)
	defer release()
	assert.IsType(t, &forecast.RemoteOracle{}, oracle)
}
