package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/Priyansh6747/Nutrilio/internal/model"
)

// Describe renders a trend as a one-line sentence such as
// "✓ Protein G moderately up ↑ (+12.0%)".
func Describe(t TrendInsight) string {
	name := model.DisplayName(t.Feature)
	if t.Trend == TrendStable {
		return name + " remaining steady"
	}

	arrow := "↓"
	if t.Trend == TrendUp {
		arrow = "↑"
	}

	var magnitude string
	switch change := math.Abs(t.PercentChange); {
	case change < 10:
		magnitude = "slightly"
	case change < 25:
		magnitude = "moderately"
	default:
		magnitude = "significantly"
	}

	text := fmt.Sprintf("%s %s %s %s (%+.1f%%)", name, magnitude, t.Trend, arrow, t.PercentChange)
	if glyph := sentimentGlyph(t.Direction); glyph != "" {
		text = glyph + " " + text
	}
	return text
}

func sentimentGlyph(d Direction) string {
	switch d {
	case DirectionImproving:
		return "✓"
	case DirectionDeclining:
		return "!"
	case DirectionConcerning:
		return "⚠"
	default:
		return ""
	}
}

// Summary builds the one-sentence executive summary.
func Summary(macros []TrendInsight, engagement map[string]EngagementMetric, flags []string) string {
	var improving, declining []string
	for _, t := range macros {
		switch t.Direction {
		case DirectionImproving:
			improving = append(improving, strings.ReplaceAll(t.Feature, "_", " "))
		case DirectionDeclining:
			declining = append(declining, strings.ReplaceAll(t.Feature, "_", " "))
		}
	}

	var parts []string
	if len(improving) > 0 {
		parts = append(parts, strings.Join(firstN(improving, 2), ", ")+" showing improvement")
	}
	if len(declining) > 0 {
		parts = append(parts, strings.Join(firstN(declining, 2), ", ")+" declining")
	}
	if len(improving) == 0 && len(declining) == 0 {
		parts = append(parts, "nutrition patterns stable")
	}

	if h, ok := engagement[EngagementHydration]; ok {
		parts = append(parts, "hydration "+string(h.Status))
	}

	if len(flags) > 0 {
		parts = append(parts, fmt.Sprintf("%d areas need attention", len(flags)))
	} else {
		parts = append(parts, "no major concerns")
	}

	return "Overall: " + strings.Join(parts, "; ") + "."
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Score points.
const (
	baseScore         = 100
	penaltyDeclining  = 5
	penaltyConcerning = 10
	penaltyRiskFlag   = 8
	bonusImproving    = 3
)

var gradeDescriptions = map[string]string{
	"A": "Excellent habits - keep it up!",
	"B": "Good habits with room for improvement",
	"C": "Average habits - focus on consistency",
	"D": "Habits need attention - review recommendations",
	"F": "Significant improvements needed",
}

// Score grades the macro trends and risk flags of a report.
func Score(macros []TrendInsight, flags []string) OverallScore {
	var declining, concerning, improving int
	for _, t := range macros {
		switch t.Direction {
		case DirectionDeclining:
			declining++
		case DirectionConcerning:
			concerning++
		case DirectionImproving:
			improving++
		}
	}
	return ScoreFromCounts(declining, concerning, len(flags), improving)
}

// ScoreFromCounts applies the point table and clamps the result to [0, 100].
func ScoreFromCounts(declining, concerning, riskFlags, improving int) OverallScore {
	score := baseScore -
		declining*penaltyDeclining -
		concerning*penaltyConcerning -
		riskFlags*penaltyRiskFlag +
		improving*bonusImproving
	score = max(0, min(100, score))

	grade := Grade(score)
	return OverallScore{
		Score:       score,
		Grade:       grade,
		Description: gradeDescriptions[grade],
	}
}

// Grade maps a 0..100 score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
