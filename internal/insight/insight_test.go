package insight

import (
	"testing"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	historyStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fixedNow     = time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
)

type column struct {
	name   string
	values []float64
}

func matrix(t *testing.T, start time.Time, cols ...column) *features.Matrix {
	t.Helper()
	require.NotEmpty(t, cols)
	descs := make([]features.Descriptor, len(cols))
	for i, c := range cols {
		descs[i] = features.Descriptor{Name: c.name, Kind: features.KindBase}
	}
	schema := features.NewSchema(descs...)

	n := len(cols[0].values)
	m := &features.Matrix{Schema: schema, Dates: make([]time.Time, n), Rows: make([][]float64, n)}
	for i := 0; i < n; i++ {
		m.Dates[i] = start.AddDate(0, 0, i)
		row := make([]float64, len(cols))
		for j, c := range cols {
			require.Len(t, c.values, n)
			row[j] = c.values[i]
		}
		m.Rows[i] = row
	}
	return m
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newEngine(t *testing.T, forecast, recent *features.Matrix, opts Options) *Engine {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	e, err := NewEngine(forecast, recent, opts)
	require.NoError(t, err)
	return e
}

func TestClassifyTrendBoundary(t *testing.T) {
	tests := []struct {
		change float64
		want   Trend
	}{
		{5.0, TrendUp},
		{4.99, TrendStable},
		{-4.99, TrendStable},
		{-5.0, TrendDown},
		{0, TrendStable},
		{42, TrendUp},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTrend(tt.change, 5.0), "change %v", tt.change)
	}
}

func TestClassifyAnomalyBoundary(t *testing.T) {
	tests := []struct {
		want    Severity
		z       float64
		flagged bool
	}{
		{z: 2.5, flagged: false},
		{z: 2.51, want: SeverityMedium, flagged: true},
		{z: 3.0, want: SeverityMedium, flagged: true},
		{z: 3.01, want: SeverityHigh, flagged: true},
		{z: -2.6, want: SeverityMedium, flagged: true},
		{z: -3.5, want: SeverityHigh, flagged: true},
	}
	for _, tt := range tests {
		severity, ok := ClassifyAnomaly(tt.z)
		assert.Equal(t, tt.flagged, ok, "z %v", tt.z)
		assert.Equal(t, tt.want, severity, "z %v", tt.z)
	}
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 20.0, PercentChange(100, 120), 1e-9)
	assert.InDelta(t, -50.0, PercentChange(-10, -15), 1e-9)
	assert.Zero(t, PercentChange(0, 0))
	assert.Equal(t, 100.0, PercentChange(0, 3))
	assert.Equal(t, -100.0, PercentChange(1e-9, -3))
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		feature string
		trend   Trend
		want    Direction
	}{
		{model.KeyProtein, TrendUp, DirectionImproving},
		{model.KeyProtein, TrendDown, DirectionDeclining},
		{model.KeySugar, TrendDown, DirectionImproving},
		{"macro_balance", TrendUp, DirectionConcerning},
		{model.KeyCalories, TrendUp, DirectionChanging},
		{model.KeyFat, TrendDown, DirectionChanging},
		{"combined_intensity", TrendUp, DirectionNeutral},
		{model.KeySugar, TrendStable, DirectionStable},
		{"unknown", TrendStable, DirectionStable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.feature, tt.trend), "%s %s", tt.feature, tt.trend)
	}
}

func TestScoreFromCounts(t *testing.T) {
	s := ScoreFromCounts(3, 2, 4, 1)
	assert.Equal(t, 36, s.Score)
	assert.Equal(t, "F", s.Grade)
	assert.Equal(t, "Significant improvements needed", s.Description)

	s = ScoreFromCounts(0, 0, 0, 5)
	assert.Equal(t, 100, s.Score, "clamped to 100")
	assert.Equal(t, "A", s.Grade)

	s = ScoreFromCounts(0, 0, 20, 0)
	assert.Zero(t, s.Score, "clamped to 0")

	assert.Equal(t, "B", Grade(80))
	assert.Equal(t, "C", Grade(79))
	assert.Equal(t, "D", Grade(60))
	assert.Equal(t, "F", Grade(59))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		want  string
		trend TrendInsight
	}{
		{
			trend: TrendInsight{Feature: model.KeyProtein, Trend: TrendUp, Direction: DirectionImproving, PercentChange: 12},
			want:  "✓ Protein G moderately up ↑ (+12.0%)",
		},
		{
			trend: TrendInsight{Feature: model.KeySugar, Trend: TrendUp, Direction: DirectionConcerning, PercentChange: 30},
			want:  "⚠ Sugar G significantly up ↑ (+30.0%)",
		},
		{
			trend: TrendInsight{Feature: model.KeyWaterIntake, Trend: TrendDown, Direction: DirectionDeclining, PercentChange: -7.3},
			want:  "! Water Intake Ml slightly down ↓ (-7.3%)",
		},
		{
			trend: TrendInsight{Feature: model.KeyCalories, Trend: TrendUp, Direction: DirectionChanging, PercentChange: 6},
			want:  "Calories slightly up ↑ (+6.0%)",
		},
		{
			trend: TrendInsight{Feature: model.KeyMealCount, Trend: TrendStable, Direction: DirectionStable, PercentChange: 1},
			want:  "Meal Count remaining steady",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.trend))
	}
}

func TestSummary(t *testing.T) {
	macros := []TrendInsight{
		{Feature: model.KeyProtein, Direction: DirectionImproving},
		{Feature: model.KeyFiber, Direction: DirectionImproving},
		{Feature: model.KeyCarbs, Direction: DirectionImproving},
		{Feature: model.KeyCalories, Direction: DirectionChanging},
	}
	engagement := map[string]EngagementMetric{EngagementHydration: {Status: TrendDown}}

	assert.Equal(t,
		"Overall: protein g, fiber g showing improvement; hydration down; 2 areas need attention.",
		Summary(macros, engagement, []string{"a", "b"}))

	assert.Equal(t,
		"Overall: nutrition patterns stable; no major concerns.",
		Summary(nil, nil, nil))
}

func TestComputeTrend(t *testing.T) {
	recent := matrix(t, historyStart,
		column{model.KeyProtein, append([]float64{500, 500, 500}, repeat(100, 7)...)},
		column{model.KeyCalories, repeat(2000, 10)},
	)
	forecast := matrix(t, historyStart.AddDate(0, 0, 10),
		column{model.KeyProtein, repeat(120, 3)},
		column{model.KeyCalories, repeat(2050, 3)},
	)
	e := newEngine(t, forecast, recent, Options{})

	tr, ok := e.ComputeTrend(model.KeyProtein)
	require.True(t, ok)
	assert.Equal(t, TrendUp, tr.Trend)
	assert.Equal(t, DirectionImproving, tr.Direction)
	assert.InDelta(t, 20.0, tr.PercentChange, 1e-9, "only the last seven history rows count")
	assert.InDelta(t, 100.0, tr.RecentMean, 1e-9)
	assert.InDelta(t, 120.0, tr.ForecastMean, 1e-9)
	assert.Zero(t, tr.RecentStd)

	tr, ok = e.ComputeTrend(model.KeyCalories)
	require.True(t, ok)
	assert.Equal(t, TrendStable, tr.Trend, "2.5 percent is below the default threshold")

	_, ok = e.ComputeTrend(model.KeyFiber)
	assert.False(t, ok, "absent feature is skipped")
}

func TestFocusFiltering(t *testing.T) {
	recent := matrix(t, historyStart, column{model.KeyProtein, repeat(1, 7)}, column{"only_recent", repeat(1, 7)})
	forecast := matrix(t, historyStart.AddDate(0, 0, 7), column{model.KeyProtein, repeat(1, 2)}, column{"only_forecast", repeat(1, 2)})

	e := newEngine(t, forecast, recent, Options{FocusFeatures: []string{model.KeyProtein, "only_recent", "only_forecast"}})
	assert.Equal(t, []string{model.KeyProtein}, e.Focus())
}

func TestNewEngineErrors(t *testing.T) {
	m := matrix(t, historyStart, column{model.KeyProtein, repeat(1, 3)})

	_, err := NewEngine(nil, m, Options{})
	assert.ErrorIs(t, err, common.ErrEmptyRecords)
	_, err = NewEngine(m, &features.Matrix{Schema: features.NewSchema()}, Options{})
	assert.ErrorIs(t, err, common.ErrEmptyRecords)
	_, err = NewEngine(m, m, Options{ThresholdPercent: -1})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestAnomalies(t *testing.T) {
	recent := matrix(t, historyStart,
		column{model.KeyProtein, []float64{90, 110, 90, 110, 90, 110, 100}},
		column{model.KeyFiber, repeat(25, 7)},
	)
	forecastStart := historyStart.AddDate(0, 0, 7)
	forecast := matrix(t, forecastStart,
		column{model.KeyProtein, []float64{125, 125.1, 130.1, 70}},
		column{model.KeyFiber, []float64{90, 90, 90, 90}},
	)
	e := newEngine(t, forecast, recent, Options{FocusFeatures: []string{model.KeyProtein, model.KeyFiber}})

	anomalies := e.Anomalies()
	require.Len(t, anomalies, 3, "z=2.5 is not flagged and zero-spread fiber is skipped")

	assert.Equal(t, SeverityMedium, anomalies[0].Severity)
	assert.Equal(t, "spike", anomalies[0].Direction)
	assert.Equal(t, 2, anomalies[0].DayOffset)
	assert.Equal(t, forecastStart.AddDate(0, 0, 1).Format(model.DateLayout), anomalies[0].DateKey)
	assert.InDelta(t, 100.0, anomalies[0].Expected, 1e-9)

	assert.Equal(t, SeverityHigh, anomalies[1].Severity)

	assert.Equal(t, SeverityMedium, anomalies[2].Severity)
	assert.Equal(t, "drop", anomalies[2].Direction)
	assert.InDelta(t, -3.0, anomalies[2].ZScore, 1e-9)
}

func TestRiskFlags(t *testing.T) {
	recent := matrix(t, historyStart,
		column{model.KeyMealCount, repeat(3, 7)},
		column{model.KeyWaterIntake, repeat(2000, 7)},
		column{model.KeyProtein, repeat(80, 7)},
		column{"macro_balance", repeat(0.1, 7)},
		column{model.KeyCurrentStreak, repeat(10, 7)},
	)
	forecast := matrix(t, historyStart.AddDate(0, 0, 7),
		column{model.KeyMealCount, repeat(1, 3)},
		column{model.KeyWaterIntake, repeat(1000, 3)},
		column{model.KeyProtein, repeat(40, 3)},
		column{"macro_balance", repeat(0.5, 3)},
		column{model.KeyCurrentStreak, repeat(2, 3)},
	)
	e := newEngine(t, forecast, recent, Options{})

	assert.Equal(t, []string{RiskLowMeals, RiskLowWater, RiskLowProtein, RiskImbalance, RiskStreakDecay}, e.RiskFlags())

	healthy := newEngine(t, recent, recent, Options{})
	assert.Empty(t, healthy.RiskFlags())
	assert.NotNil(t, healthy.RiskFlags())
}

func TestEngagement(t *testing.T) {
	recent := matrix(t, historyStart,
		column{model.KeyMealCount, repeat(3, 7)},
		column{model.KeyWaterIntake, repeat(2000, 7)},
	)
	forecast := matrix(t, historyStart.AddDate(0, 0, 7),
		column{model.KeyMealCount, []float64{3.1, 3.1}},
		column{model.KeyWaterIntake, []float64{1500.4, 1500.4}},
	)
	e := newEngine(t, forecast, recent, Options{})

	eng := e.Engagement()
	require.Len(t, eng, 2)
	assert.NotContains(t, eng, EngagementStreak)

	meals := eng[EngagementMealFrequency]
	assert.Equal(t, TrendStable, meals.Status)
	assert.Equal(t, "avg_meals_per_day", meals.Label)
	assert.InDelta(t, 3.1, meals.Value, 1e-9)

	water := eng[EngagementHydration]
	assert.Equal(t, TrendDown, water.Status)
	assert.InDelta(t, 1500.0, water.Value, 1e-9)
	assert.Equal(t, "! Water Intake Ml significantly down ↓ (-25.0%)", water.Description)

	raw, err := json.Marshal(water)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"down","description":"! Water Intake Ml significantly down ↓ (-25.0%)","avg_ml_per_day":1500}`, string(raw))
}

func TestBuildReport(t *testing.T) {
	recent := matrix(t, historyStart,
		column{model.KeyCalories, repeat(2000, 7)},
		column{model.KeyProtein, repeat(100, 7)},
		column{model.KeyFiber, repeat(30, 7)},
		column{model.KeyWaterIntake, repeat(2000, 7)},
	)
	forecastStart := historyStart.AddDate(0, 0, 7)
	forecast := matrix(t, forecastStart,
		column{model.KeyCalories, repeat(2000, 7)},
		column{model.KeyProtein, repeat(120, 7)},
		column{model.KeyFiber, repeat(20, 7)},
		column{model.KeyWaterIntake, repeat(2000, 7)},
	)
	report := newEngine(t, forecast, recent, Options{}).BuildReport()

	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Equal(t, Period{Start: "2024-06-08", End: "2024-06-14", Days: 7}, report.ForecastPeriod)
	require.Len(t, report.MacroTrends, 3)
	assert.Equal(t, "Overall: protein g showing improvement; fiber g declining; hydration stable; no major concerns.", report.Summary)
	assert.Equal(t, OverallScore{Score: 98, Grade: "A", Description: "Excellent habits - keep it up!"}, report.OverallScore)
	assert.Empty(t, report.Anomalies)
	assert.NotNil(t, report.Anomalies)
	assert.Empty(t, report.RiskFlags)
}
