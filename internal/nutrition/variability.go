package nutrition

import (
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// Variability levels.
const (
	VariabilityLow     = "low"
	VariabilityMedium  = "medium"
	VariabilityHigh    = "high"
	VariabilityUnknown = "unknown"
)

const variabilitySuffix = "_variability"

// WeekDays is the trailing window summarized as "weekly" intake.
const WeekDays = 7

// ClassifyVariability buckets a coefficient of variation:
// below 15% is low, below 30% medium, otherwise high.
func ClassifyVariability(cv float64) string {
	switch {
	case cv < 0.15:
		return VariabilityLow
	case cv < 0.30:
		return VariabilityMedium
	default:
		return VariabilityHigh
	}
}

// VariabilityPatterns classifies the day-to-day spread of every base column
// over the last WeekDays rows of m. Keys are "<nutrient>_variability".
// A column with fewer than two days or a zero mean is "unknown".
func VariabilityPatterns(m *features.Matrix) map[string]string {
	patterns := make(map[string]string)
	if m == nil || m.Len() == 0 {
		return patterns
	}
	week := m.Tail(WeekDays)
	for j := 0; j < week.Schema.Len(); j++ {
		d := week.Schema.Descriptor(j)
		if d.Kind != features.KindBase {
			continue
		}
		col := week.ColumnAt(j)
		mean := stats.Mean(col)
		if len(col) < 2 || mean == 0 {
			patterns[d.Name+variabilitySuffix] = VariabilityUnknown
			continue
		}
		patterns[d.Name+variabilitySuffix] = ClassifyVariability(stats.SampleStd(col) / mean)
	}
	return patterns
}

// WeeklyActual averages each key over the records dated within the WeekDays
// ending on end (inclusive). The window starts no earlier than the first
// record, so a short history is averaged over the days it covers. Days
// inside the covered window without a record count as zero.
func WeeklyActual(records []model.DailyRecord, end time.Time) map[string]float64 {
	end = model.TruncateDay(end)
	start := end.AddDate(0, 0, -(WeekDays - 1))

	first := time.Time{}
	for _, r := range records {
		day := model.TruncateDay(r.Date)
		if day.After(end) {
			continue
		}
		if first.IsZero() || day.Before(first) {
			first = day
		}
	}
	if first.IsZero() {
		return map[string]float64{}
	}
	if first.After(start) {
		start = first
	}
	days := float64(int(end.Sub(start).Hours()/24) + 1)

	sums := make(map[string]float64)
	for _, r := range records {
		day := model.TruncateDay(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		for k, v := range r.Values {
			sums[k] += v
		}
	}
	for k := range sums {
		sums[k] /= days
	}
	return sums
}
