package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/insight"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/nutrition"
)

// CLIFormatter renders reports for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// FormatReport renders every section of a report.
func (f *CLIFormatter) FormatReport(report *Report) string {
	if report == nil {
		return f.styles.Error.Render("No report available")
	}

	sections := []string{f.formatHeader(report)}
	if report.Habits != nil {
		sections = append(sections, f.FormatHabits(report.Habits))
	}
	if report.Nutrition != nil {
		sections = append(sections,
			f.FormatGaps(report.Nutrition),
			f.FormatRecommendations(report.Nutrition.Recommendations))
	}

	return strings.Join(sections, "\n\n")
}

// formatHeader creates the report header section.
func (f *CLIFormatter) formatHeader(report *Report) string {
	title := f.styles.Title.Render("🥗 Nutrition & Habit Report")

	goal := f.styles.Subtitle.Render("Goal: " + report.Goal.Display())
	generated := f.styles.Subtle.Render(fmt.Sprintf("Generated: %s  (report %s)",
		report.GeneratedAt.Format(time.RFC3339), report.ID))

	return fmt.Sprintf("%s\n%s\n%s", title, goal, generated)
}

// FormatHabits renders the forecast-driven habit insights.
func (f *CLIFormatter) FormatHabits(h *HabitReport) string {
	if h == nil || h.Insights == nil {
		return f.styles.Error.Render("No habit report available")
	}
	r := h.Insights

	period := f.styles.Subtitle.Render(fmt.Sprintf("History: %s to %s (%d days, %d features)  Forecast: %s to %s",
		h.HistoryStart.Format("Jan 2, 2006"), h.HistoryEnd.Format("Jan 2, 2006"),
		h.DaysLogged, h.Features, r.ForecastPeriod.Start, r.ForecastPeriod.End))

	sections := []string{
		period,
		f.formatScore(r.OverallScore),
		f.styles.Normal.Render(r.Summary),
		f.formatTrends(r.MacroTrends),
		f.formatEngagement(r.Engagement, h),
	}
	if len(r.Anomalies) > 0 {
		sections = append(sections, f.formatAnomalies(r.Anomalies))
	}
	if len(r.RiskFlags) > 0 {
		sections = append(sections, f.formatRiskFlags(r.RiskFlags))
	}

	return strings.Join(sections, "\n\n")
}

// formatScore creates a visual representation of the overall score.
func (f *CLIFormatter) formatScore(score insight.OverallScore) string {
	style := f.styles.ForScore(score.Score)
	text := fmt.Sprintf("Overall: %d/100 (%s) %s", score.Score, score.Grade, score.Description)
	bar := f.styles.RenderProgressBar(float64(score.Score)/100, 30)
	return fmt.Sprintf("%s\n%s", style.Render(text), style.Render(bar))
}

func (f *CLIFormatter) formatTrends(trends []insight.TrendInsight) string {
	if len(trends) == 0 {
		return f.styles.Subtle.Render("No macro trends available")
	}

	lines := make([]string, 0, len(trends))
	for _, t := range trends {
		desc := t.Description
		if desc == "" {
			desc = insight.Describe(t)
		}
		line := fmt.Sprintf("%-10s %s", string(t.Direction), desc)
		lines = append(lines, f.styles.ForDirection(t.Direction).Render(line))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), "Macro Trends", f.styles.TrendBox)
}

func (f *CLIFormatter) formatEngagement(metrics map[string]insight.EngagementMetric, h *HabitReport) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		m := metrics[k]
		lines = append(lines, fmt.Sprintf("%-14s %-6s %s = %g (%s)",
			model.DisplayName(k), m.Status, m.Label, m.Value, m.Description))
	}
	lines = append(lines, f.styles.Subtle.Render(fmt.Sprintf("Meal streak: current %d, longest %d",
		h.Streak.Current, h.Streak.Longest)))
	return f.styles.RenderBox(strings.Join(lines, "\n"), "Engagement", f.styles.Box)
}

func (f *CLIFormatter) formatAnomalies(anomalies []insight.Anomaly) string {
	lines := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		line := fmt.Sprintf("%s %s %s on %s: %.1f vs %.1f expected (z=%.2f)",
			f.getSeverityIcon(a.Severity), model.DisplayName(a.Feature), a.Direction,
			a.DateKey, a.Value, a.Expected, a.ZScore)
		lines = append(lines, f.styles.ForSeverity(a.Severity).Render(line))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), "Anomalies", f.styles.WarningBox)
}

func (f *CLIFormatter) formatRiskFlags(flags []string) string {
	lines := make([]string, 0, len(flags))
	for _, flag := range flags {
		lines = append(lines, f.styles.Warning.Render("⚠️  "+flag))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), "Risks", f.styles.WarningBox)
}

func (f *CLIFormatter) getSeverityIcon(severity insight.Severity) string {
	switch severity {
	case insight.SeverityHigh:
		return "🔴"
	case insight.SeverityMedium:
		return "🟡"
	default:
		return "⚪"
	}
}

// FormatGaps renders the nutrient gap analysis.
func (f *CLIFormatter) FormatGaps(p *NutritionPlan) string {
	if p == nil {
		return f.styles.Error.Render("No nutrition plan available")
	}
	g := p.Gaps
	s := g.SummaryStats

	title := f.styles.Subtitle.Render(fmt.Sprintf("Week ending %s: %d tracked, %d deficient, %d excessive, calories at %.1f%% of TDEE",
		p.WeekEnding, s.TotalNutrientsTracked, s.NutrientsDeficient, s.NutrientsExcessive, s.CalorieAdherencePct))

	var priorities []string
	for i, n := range g.PriorityNutrients {
		priorities = append(priorities, fmt.Sprintf("%d. %-14s short by %.2f (averaging %.2f)",
			i+1, model.DisplayName(n), g.NutrientGaps[n], p.WeeklyActual[n]))
	}
	if len(priorities) == 0 {
		priorities = append(priorities, f.styles.Success.Render("✅ No deficiencies found"))
	}

	sections := []string{
		title,
		f.styles.RenderBox(strings.Join(priorities, "\n"), "Priority Nutrients", f.styles.Box),
	}

	if len(g.CriticalWarnings) > 0 {
		var warnings []string
		for _, w := range g.CriticalWarnings {
			warnings = append(warnings, f.styles.High.Render("❗ "+w))
		}
		sections = append(sections, f.styles.RenderBox(strings.Join(warnings, "\n"), "Critical", f.styles.WarningBox))
	}

	if len(g.VariabilityFlags) > 0 {
		keys := make([]string, 0, len(g.VariabilityFlags))
		for k := range g.VariabilityFlags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var flags []string
		for _, k := range keys {
			level := g.VariabilityFlags[k]
			style := f.styles.Subtle
			if level == nutrition.VariabilityHigh {
				style = f.styles.Warning
			}
			flags = append(flags, style.Render(fmt.Sprintf("%-14s %s", model.DisplayName(k), level)))
		}
		sections = append(sections, f.styles.RenderBox(strings.Join(flags, "\n"), "Day-to-day Variability", f.styles.Box))
	}

	return strings.Join(sections, "\n")
}

// FormatRecommendations renders the ranked meals and their gap coverage.
func (f *CLIFormatter) FormatRecommendations(rec *nutrition.Recommendation) string {
	if rec == nil {
		return f.styles.Error.Render("No recommendations available")
	}
	if len(rec.RecommendedMeals) == 0 {
		msg := rec.Metadata.Error
		if msg == "" {
			msg = "No meals close the current gaps"
		}
		return f.styles.Subtle.Render(msg)
	}

	var blocks []string
	for i, m := range rec.RecommendedMeals {
		var key []string
		for _, n := range m.KeyNutrients {
			key = append(key, fmt.Sprintf("%s %.1f", model.DisplayName(n.Name), n.Amount))
		}
		block := fmt.Sprintf("%s  %s\n%s\n%s\n%s",
			f.styles.Score.Render(fmt.Sprintf("%d. %s", i+1, m.Name)),
			f.styles.Subtle.Render(fmt.Sprintf("score %.3f", m.Score)),
			m.Reason,
			f.styles.Info.Render(m.GoalAlignment),
			f.styles.Subtle.Render(strings.Join(key, ", ")))
		blocks = append(blocks, block)
	}

	coverage := f.styles.Success.Render(fmt.Sprintf("Gap coverage: %.1f%% across priority nutrients",
		rec.Coverage[nutrition.TotalCoverageKey]))
	meta := f.styles.Subtle.Render(fmt.Sprintf("%d meals analyzed, %d scored, %d returned",
		rec.Metadata.TotalMealsAnalyzed, rec.Metadata.MealsWithPositiveScore, rec.Metadata.RecommendationsReturned))

	return f.styles.RenderBox(strings.Join(blocks, "\n\n"), "Recommended Meals", f.styles.MealBox) +
		"\n" + coverage + "\n" + meta
}
