package nutrition

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// DefaultTopN is the number of priority nutrients or recommended meals
// returned when none is configured.
const DefaultTopN = 5

// GapInput is everything the analyzer needs for one user.
type GapInput struct {
	MacrosTarget map[string]float64
	MicrosTarget map[string]float64
	WeeklyActual map[string]float64
	Patterns     map[string]string
	Goal         model.Goal
	TDEE         float64
}

// SummaryStats condenses a gap analysis.
type SummaryStats struct {
	Goal                     model.Goal `json:"goal"`
	CalorieAdherencePct      float64    `json:"calorie_adherence_pct"`
	TotalNutrientsTracked    int        `json:"total_nutrients_tracked"`
	NutrientsDeficient       int        `json:"nutrients_deficient"`
	NutrientsExcessive       int        `json:"nutrients_excessive"`
	HighVariabilityNutrients int        `json:"high_variability_nutrients"`
	TopPriorityCount         int        `json:"top_priority_count"`
}

// GapAnalysis is the output of GapAnalyzer.Analyze. Positive gaps are
// deficiencies and negative gaps are excesses.
type GapAnalysis struct {
	NutrientGaps      map[string]float64 `json:"nutrient_gaps"`
	VariabilityFlags  map[string]string  `json:"variability_flags"`
	PriorityNutrients []string           `json:"priority_nutrients"`
	CriticalWarnings  []string           `json:"critical_warnings"`
	SummaryStats      SummaryStats       `json:"summary_stats"`
}

// threshold bounds a nutrient's safe weekly-average range. A zero bound is unchecked.
type threshold struct {
	key  string
	name string
	min  float64
	max  float64
}

var criticalThresholds = []threshold{
	{key: model.KeyIron, name: "Iron", min: 8, max: 45},
	{key: model.KeySodium, name: "Sodium", min: 500, max: 2300},
	{key: KeyVitaminA, name: "Vitamin A", min: 0.3, max: 3.0},
	{key: model.KeyCalcium, name: "Calcium", min: 800, max: 2500},
	{key: KeySaturatedFat, name: "Saturated Fat", max: 20},
}

// GapAnalyzer compares actual intake with targets.
type GapAnalyzer struct {
	logger *slog.Logger
	topN   int
}

// NewGapAnalyzer creates an analyzer returning up to topN priorities.
// A non-positive topN uses DefaultTopN.
func NewGapAnalyzer(topN int) *GapAnalyzer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &GapAnalyzer{topN: topN, logger: slog.Default()}
}

// Analyze computes gaps, priorities, variability flags, critical warnings
// and summary statistics. It never fails; missing actuals count as zero.
func (a *GapAnalyzer) Analyze(in GapInput) GapAnalysis {
	gaps := ComputeGaps(in.MacrosTarget, in.MicrosTarget, in.WeeklyActual, in.TDEE)
	priorities := a.RankPriorities(gaps, in.Goal)
	flags := ExtractVariability(in.Patterns)
	warnings := CriticalWarnings(in.WeeklyActual)

	summary := SummaryStats{
		Goal:                  in.Goal,
		TotalNutrientsTracked: len(gaps),
		TopPriorityCount:      len(priorities),
	}
	if in.TDEE > 0 {
		summary.CalorieAdherencePct = stats.Round(in.WeeklyActual[model.KeyCalories]/in.TDEE*100, 1)
	}
	for _, gap := range gaps {
		switch {
		case gap > 0:
			summary.NutrientsDeficient++
		case gap < 0:
			summary.NutrientsExcessive++
		}
	}
	for _, level := range in.Patterns {
		if level == VariabilityHigh {
			summary.HighVariabilityNutrients++
		}
	}

	a.logger.Debug("nutrient gaps analyzed",
		"goal", in.Goal,
		"tracked", len(gaps),
		"deficient", summary.NutrientsDeficient,
		"warnings", len(warnings))

	return GapAnalysis{
		NutrientGaps:      gaps,
		PriorityNutrients: priorities,
		VariabilityFlags:  flags,
		CriticalWarnings:  warnings,
		SummaryStats:      summary,
	}
}

// ComputeGaps returns target minus actual, rounded to two places, for every
// macro and micro target plus calories against tdee.
func ComputeGaps(macros, micros, actual map[string]float64, tdee float64) map[string]float64 {
	targets := make(map[string]float64, len(macros)+len(micros)+1)
	for k, v := range macros {
		targets[k] = v
	}
	for k, v := range micros {
		targets[k] = v
	}
	targets[model.KeyCalories] = tdee

	gaps := make(map[string]float64, len(targets))
	for k, target := range targets {
		gaps[k] = stats.Round(target-actual[k], 2)
	}
	return gaps
}

// RankPriorities orders deficiencies by |gap| times the goal weight and
// keeps the top N. Equal scores are ordered by nutrient name.
func (a *GapAnalyzer) RankPriorities(gaps map[string]float64, goal model.Goal) []string {
	type scored struct {
		nutrient string
		score    float64
	}
	candidates := make([]scored, 0, len(gaps))
	for n, gap := range gaps {
		if gap <= 0 {
			continue
		}
		candidates = append(candidates, scored{n, gap * GapPriorityWeights.Weight(goal, n)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].nutrient < candidates[j].nutrient
	})

	n := min(a.topN, len(candidates))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].nutrient
	}
	return out
}

// ExtractVariability keeps the "<nutrient>_variability" entries of patterns,
// keyed by nutrient.
func ExtractVariability(patterns map[string]string) map[string]string {
	flags := make(map[string]string)
	for k, v := range patterns {
		if nutrient, ok := strings.CutSuffix(k, variabilitySuffix); ok {
			flags[nutrient] = v
		}
	}
	return flags
}

// CriticalWarnings checks weekly actuals against the fixed safety table.
// A nutrient may be reported both low and high.
func CriticalWarnings(actual map[string]float64) []string {
	warnings := []string{}
	for _, t := range criticalThresholds {
		v := actual[t.key]
		if t.min > 0 && v < t.min {
			warnings = append(warnings, fmt.Sprintf("⚠️ %s critically low: %.1f (minimum: %s)",
				t.name, v, strconv.FormatFloat(t.min, 'g', -1, 64)))
		}
		if t.max > 0 && v > t.max {
			warnings = append(warnings, fmt.Sprintf("⚠️ %s critically high: %.1f (maximum: %s)",
				t.name, v, strconv.FormatFloat(t.max, 'g', -1, 64)))
		}
	}
	return warnings
}
