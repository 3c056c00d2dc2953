// Package insight compares a forecast against recent history and turns the
// difference into labeled trends, anomalies, risk flags and a habit score.
package insight

import (
	"time"

	"github.com/goccy/go-json"
)

// Trend is the raw movement of a feature between history and forecast.
type Trend string

// Trend values.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Direction is the sentiment of a trend for a particular feature.
type Direction string

// Direction values.
const (
	DirectionImproving  Direction = "improving"
	DirectionDeclining  Direction = "declining"
	DirectionConcerning Direction = "concerning"
	DirectionChanging   Direction = "changing"
	DirectionNeutral    Direction = "neutral"
	DirectionStable     Direction = "stable"
)

// Severity grades an anomaly.
type Severity string

// Severity values.
const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// TrendInsight describes how one feature is expected to move.
type TrendInsight struct {
	Feature       string    `json:"feature"`
	Trend         Trend     `json:"trend"`
	Direction     Direction `json:"direction"`
	Description   string    `json:"description,omitempty"`
	PercentChange float64   `json:"percent_change"`
	RecentMean    float64   `json:"recent_mean"`
	ForecastMean  float64   `json:"forecast_mean"`
	RecentStd     float64   `json:"recent_std"`
	ForecastStd   float64   `json:"forecast_std"`
}

// Anomaly is a forecast day that deviates sharply from the recent baseline.
type Anomaly struct {
	Date      time.Time `json:"-"`
	Feature   string    `json:"feature"`
	DateKey   string    `json:"date"`
	Severity  Severity  `json:"severity"`
	Direction string    `json:"direction"`
	ZScore    float64   `json:"z_score"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	DayOffset int       `json:"day_offset"`
}

// EngagementMetric summarizes one engagement category. Label names the
// averaged quantity, for example avg_meals_per_day.
type EngagementMetric struct {
	Status      Trend
	Description string
	Label       string
	Value       float64
}

// MarshalJSON flattens the metric so the averaged value appears under its label.
func (m EngagementMetric) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"status":      m.Status,
		"description": m.Description,
		m.Label:       m.Value,
	})
}

// Engagement category keys.
const (
	EngagementMealFrequency = "meal_frequency"
	EngagementHydration     = "hydration"
	EngagementStreak        = "streak"
)

// OverallScore is the 0..100 habit health score and its letter grade.
type OverallScore struct {
	Grade       string `json:"grade"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

// Period is the span of forecast days covered by a report.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// Report is the complete habit insight output.
type Report struct {
	GeneratedAt    time.Time                   `json:"generated_at"`
	Engagement     map[string]EngagementMetric `json:"engagement"`
	ForecastPeriod Period                      `json:"forecast_period"`
	Summary        string                      `json:"summary"`
	MacroTrends    []TrendInsight              `json:"macro_trends"`
	Anomalies      []Anomaly                   `json:"anomalies"`
	RiskFlags      []string                    `json:"risk_flags"`
	OverallScore   OverallScore                `json:"overall_score"`
}
