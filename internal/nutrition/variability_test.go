package nutrition

import (
	"testing"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVariability(t *testing.T) {
	assert.Equal(t, VariabilityLow, ClassifyVariability(0))
	assert.Equal(t, VariabilityLow, ClassifyVariability(0.149))
	assert.Equal(t, VariabilityMedium, ClassifyVariability(0.15))
	assert.Equal(t, VariabilityMedium, ClassifyVariability(0.299))
	assert.Equal(t, VariabilityHigh, ClassifyVariability(0.30))
}

func dailyRecords(start time.Time, calories ...float64) []model.DailyRecord {
	out := make([]model.DailyRecord, len(calories))
	for i, c := range calories {
		out[i] = model.NewDailyRecord(start.AddDate(0, 0, i), map[string]float64{
			model.KeyCalories: c,
			model.KeyProtein:  100,
		})
	}
	return out
}

func TestWeeklyActual(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	recs := dailyRecords(start, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000)

	actual := WeeklyActual(recs, start.AddDate(0, 0, 9).Add(15*time.Hour))
	assert.InDelta(t, 700.0, actual[model.KeyCalories], 1e-9)
	assert.InDelta(t, 100.0, actual[model.KeyProtein], 1e-9)

	gapped := WeeklyActual([]model.DailyRecord{recs[0], recs[2]}, start.AddDate(0, 0, 6))
	assert.InDelta(t, 400.0/7, gapped[model.KeyCalories], 1e-9, "missing days inside the window count as zero")

	assert.Empty(t, WeeklyActual(nil, start))
}

func TestWeeklyActual_ShortHistory(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		end         time.Time
		name        string
		recs        []model.DailyRecord
		want        float64
		wantProtein float64
	}{
		{name: "single day", recs: dailyRecords(start, 1800), end: start, want: 1800, wantProtein: 100},
		{name: "three days", recs: dailyRecords(start, 1800, 2000, 2200), end: start.AddDate(0, 0, 2), want: 2000, wantProtein: 100},
		{name: "unlogged last day", recs: dailyRecords(start, 1800, 2000, 2200), end: start.AddDate(0, 0, 3), want: 1500, wantProtein: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := WeeklyActual(tt.recs, tt.end)
			assert.InDelta(t, tt.want, actual[model.KeyCalories], 1e-9)
			assert.InDelta(t, tt.wantProtein, actual[model.KeyProtein], 1e-9)
		})
	}
}

func TestVariabilityPatterns(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	recs := dailyRecords(start, 5000, 1000, 3000, 1000, 3000, 1000, 3000, 1000)

	m, _, err := features.NewBuilder().Build(recs, features.Options{})
	require.NoError(t, err)

	patterns := VariabilityPatterns(m)
	assert.Equal(t, VariabilityHigh, patterns["calories_variability"])
	assert.Equal(t, VariabilityLow, patterns["protein_g_variability"])
	assert.NotContains(t, patterns, "protein_to_calories_variability", "only base columns are classified")

	assert.Empty(t, VariabilityPatterns(nil))
}

func TestVariabilityPatterns_Unknown(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	week := make([]model.DailyRecord, 7)
	for i := range week {
		week[i] = model.NewDailyRecord(start.AddDate(0, 0, i), map[string]float64{
			model.KeyCalories: 2000 + float64(i),
			model.KeyIron:     0,
		})
	}
	m, _, err := features.NewBuilder().Build(week, features.Options{})
	require.NoError(t, err)

	patterns := VariabilityPatterns(m)
	assert.Equal(t, VariabilityUnknown, patterns["iron_mg_variability"], "never eaten")
	assert.Equal(t, VariabilityLow, patterns["calories_variability"])

	single, _, err := features.NewBuilder().Build(dailyRecords(start, 2000), features.Options{})
	require.NoError(t, err)

	patterns = VariabilityPatterns(single)
	assert.Equal(t, VariabilityUnknown, patterns["calories_variability"], "one day has no spread")
	assert.Equal(t, VariabilityUnknown, patterns["protein_g_variability"])
}
