package insight

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// RecentDays is the trailing history window every comparison is made against.
const RecentDays = 7

// DefaultThresholdPercent is the smallest percent change reported as a trend.
const DefaultThresholdPercent = 5.0

// Z-score bounds for anomaly severity.
const (
	anomalyZ     = 2.5
	anomalyHighZ = 3.0
)

// DefaultFocus lists the features analyzed when Options.FocusFeatures is empty.
var DefaultFocus = []string{
	model.KeyCalories,
	model.KeyProtein,
	model.KeyCarbs,
	model.KeyFat,
	model.KeyFiber,
	model.KeyMealCount,
	model.KeyWaterIntake,
	model.KeyCurrentStreak,
	"protein_to_calories",
	"macro_balance",
}

// MacroFeatures are summarized in Report.MacroTrends.
var MacroFeatures = []string{
	model.KeyCalories,
	model.KeyProtein,
	model.KeyCarbs,
	model.KeyFat,
	model.KeyFiber,
}

// Options tunes an Engine.
type Options struct {
	Now              func() time.Time
	FocusFeatures    []string
	ThresholdPercent float64
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.ThresholdPercent < 0 || math.IsNaN(o.ThresholdPercent) {
		return fmt.Errorf("%w: threshold percent must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// Engine derives insights from a forecast and the history preceding it.
// Both matrices must be on the original (denormalized) scale.
type Engine struct {
	now       func() time.Time
	logger    *slog.Logger
	forecast  map[string][]float64
	recent    map[string][]float64
	dates     []time.Time
	focus     []string
	threshold float64
	days      int
}

// NewEngine prepares an engine over forecast and recent. Focus features
// missing from either matrix are dropped.
func NewEngine(forecast, recent *features.Matrix, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if forecast == nil || forecast.Len() == 0 {
		return nil, fmt.Errorf("%w: forecast has no rows", common.ErrEmptyRecords)
	}
	if recent == nil || recent.Len() == 0 {
		return nil, fmt.Errorf("%w: recent history has no rows", common.ErrEmptyRecords)
	}

	focus := opts.FocusFeatures
	if len(focus) == 0 {
		focus = DefaultFocus
	}
	threshold := opts.ThresholdPercent
	if threshold == 0 {
		threshold = DefaultThresholdPercent
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		now:       now,
		logger:    slog.Default(),
		forecast:  make(map[string][]float64, len(focus)),
		recent:    make(map[string][]float64, len(focus)),
		dates:     forecast.Dates,
		threshold: threshold,
		days:      forecast.Len(),
	}
	for _, f := range focus {
		fc, ok := forecast.Column(f)
		if !ok {
			continue
		}
		rc, ok := recent.Column(f)
		if !ok {
			continue
		}
		e.focus = append(e.focus, f)
		e.forecast[f] = fc
		e.recent[f] = stats.Tail(rc, RecentDays)
	}

	e.logger.Debug("insight engine ready",
		"focus_features", len(e.focus),
		"recent_days", recent.Len(),
		"forecast_days", forecast.Len())

	return e, nil
}

// Focus returns the features the engine will analyze.
func (e *Engine) Focus() []string {
	return append([]string(nil), e.focus...)
}

func (e *Engine) inFocus(feature string) bool {
	_, ok := e.forecast[feature]
	return ok
}

// ComputeTrend compares the last RecentDays of history with the whole
// forecast for feature. ok is false when feature is not in focus.
func (e *Engine) ComputeTrend(feature string) (TrendInsight, bool) {
	if !e.inFocus(feature) {
		return TrendInsight{}, false
	}
	recent := e.recent[feature]
	forecast := e.forecast[feature]

	recentMean := stats.Mean(recent)
	forecastMean := stats.Mean(forecast)
	change := PercentChange(recentMean, forecastMean)
	trend := ClassifyTrend(change, e.threshold)

	return TrendInsight{
		Feature:       feature,
		Trend:         trend,
		Direction:     Interpret(feature, trend),
		PercentChange: stats.Round(change, 1),
		RecentMean:    stats.Round(recentMean, 2),
		ForecastMean:  stats.Round(forecastMean, 2),
		RecentStd:     stats.Round(stats.SampleStd(recent), 2),
		ForecastStd:   stats.Round(stats.SampleStd(forecast), 2),
	}, true
}

// PercentChange returns the change from recent to forecast as a percentage
// of |recent|. A near-zero baseline yields 0 or ±100 by the forecast's sign.
func PercentChange(recent, forecast float64) float64 {
	if math.Abs(recent) < stats.Epsilon {
		switch {
		case math.Abs(forecast) < stats.Epsilon:
			return 0
		case forecast > 0:
			return 100
		default:
			return -100
		}
	}
	return (forecast - recent) / math.Abs(recent) * 100
}

// MacroTrends returns described trends for the macro features in focus.
func (e *Engine) MacroTrends() []TrendInsight {
	trends := make([]TrendInsight, 0, len(MacroFeatures))
	for _, f := range MacroFeatures {
		t, ok := e.ComputeTrend(f)
		if !ok {
			continue
		}
		t.Description = Describe(t)
		trends = append(trends, t)
	}
	e.logger.Debug("macro trends summarized", "count", len(trends))
	return trends
}

// Engagement reports meal frequency, hydration and streak momentum for
// whichever of them are in focus.
func (e *Engine) Engagement() map[string]EngagementMetric {
	categories := []struct {
		key     string
		feature string
		label   string
		places  int
	}{
		{EngagementMealFrequency, model.KeyMealCount, "avg_meals_per_day", 1},
		{EngagementHydration, model.KeyWaterIntake, "avg_ml_per_day", 0},
		{EngagementStreak, model.KeyCurrentStreak, "projected_streak", 0},
	}

	out := make(map[string]EngagementMetric, len(categories))
	for _, c := range categories {
		t, ok := e.ComputeTrend(c.feature)
		if !ok {
			continue
		}
		out[c.key] = EngagementMetric{
			Status:      t.Trend,
			Description: Describe(t),
			Label:       c.label,
			Value:       stats.Round(t.ForecastMean, c.places),
		}
	}
	return out
}

// Anomalies flags forecast days whose z-score against the recent baseline
// exceeds 2.5. Features with no recent spread are skipped.
func (e *Engine) Anomalies() []Anomaly {
	var anomalies []Anomaly
	for _, f := range e.focus {
		recent := e.recent[f]
		mean := stats.Mean(recent)
		std := stats.SampleStd(recent)
		if std < stats.Epsilon {
			continue
		}
		for day, value := range e.forecast[f] {
			z := (value - mean) / std
			severity, ok := ClassifyAnomaly(z)
			if !ok {
				continue
			}
			direction := "drop"
			if z > 0 {
				direction = "spike"
			}
			a := Anomaly{
				Feature:   f,
				Severity:  severity,
				Direction: direction,
				ZScore:    stats.Round(z, 2),
				Value:     stats.Round(value, 2),
				Expected:  stats.Round(mean, 2),
				DayOffset: day + 1,
			}
			if day < len(e.dates) {
				a.Date = e.dates[day]
				a.DateKey = a.Date.Format(model.DateLayout)
			}
			anomalies = append(anomalies, a)
		}
	}
	e.logger.Debug("anomaly scan complete", "count", len(anomalies))
	return anomalies
}

// Risk flag messages.
const (
	RiskLowMeals    = "⚠ Low meal frequency predicted - consider meal planning"
	RiskLowWater    = "💧 Low hydration forecast - set reminders to drink water"
	RiskLowProtein  = "🥩 Protein intake may be insufficient - consider protein-rich meals"
	RiskImbalance   = "⚖️ Macro distribution may be imbalanced - aim for variety"
	RiskStreakDecay = "📉 Tracking streak may decline - stay consistent!"
)

// RiskFlags applies the fixed forecast rule set.
func (e *Engine) RiskFlags() []string {
	rules := []struct {
		feature string
		flag    string
		risky   func(mean float64) bool
	}{
		{model.KeyMealCount, RiskLowMeals, func(m float64) bool { return m < 1.5 }},
		{model.KeyWaterIntake, RiskLowWater, func(m float64) bool { return m < 1500 }},
		{model.KeyProtein, RiskLowProtein, func(m float64) bool { return m < 50 }},
		{"macro_balance", RiskImbalance, func(m float64) bool { return m > 0.4 }},
	}

	flags := []string{}
	for _, r := range rules {
		if !e.inFocus(r.feature) {
			continue
		}
		if r.risky(stats.Mean(e.forecast[r.feature])) {
			flags = append(flags, r.flag)
		}
	}
	if t, ok := e.ComputeTrend(model.KeyCurrentStreak); ok && t.Trend == TrendDown {
		flags = append(flags, RiskStreakDecay)
	}
	return flags
}

// BuildReport runs every analysis and assembles the report.
func (e *Engine) BuildReport() *Report {
	macros := e.MacroTrends()
	engagement := e.Engagement()
	anomalies := e.Anomalies()
	flags := e.RiskFlags()

	report := &Report{
		GeneratedAt:    e.now(),
		ForecastPeriod: e.period(),
		Summary:        Summary(macros, engagement, flags),
		OverallScore:   Score(macros, flags),
		MacroTrends:    macros,
		Engagement:     engagement,
		Anomalies:      anomalies,
		RiskFlags:      flags,
	}
	if report.Anomalies == nil {
		report.Anomalies = []Anomaly{}
	}

	e.logger.Info("insight report generated",
		"score", report.OverallScore.Score,
		"grade", report.OverallScore.Grade,
		"risk_flags", len(flags),
		"anomalies", len(anomalies))

	return report
}

func (e *Engine) period() Period {
	p := Period{Days: e.days}
	if len(e.dates) > 0 {
		p.Start = e.dates[0].Format(model.DateLayout)
		p.End = e.dates[len(e.dates)-1].Format(model.DateLayout)
	}
	return p
}
