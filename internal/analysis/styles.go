package analysis

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Priyansh6747/Nutrilio/internal/cli"
	"github.com/Priyansh6747/Nutrilio/internal/insight"
)

// Styles contains all styling definitions for report formatting.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	// Report-specific styles
	Box        lipgloss.Style
	Score      lipgloss.Style
	High       lipgloss.Style
	Medium     lipgloss.Style
	TrendBox   lipgloss.Style
	MealBox    lipgloss.Style
	WarningBox lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	s.Score = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.PrimaryColor)

	s.High = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.ErrorColor)

	s.Medium = lipgloss.NewStyle().
		Foreground(cli.WarningColor)

	s.TrendBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.InfoColor).
		Padding(0, 1).
		MarginTop(1)

	s.MealBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SuccessColor).
		Padding(0, 1).
		MarginTop(1)

	s.WarningBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(cli.WarningColor).
		Padding(0, 1).
		MarginTop(1)

	return s
}

// WithWidth returns a new Styles instance adjusted for the given terminal width.
func (s *Styles) WithWidth(width int) *Styles {
	newStyles := *s

	if width > 0 && width < 100 {
		newStyles.Box = s.Box.Width(width - 4)
		newStyles.TrendBox = s.TrendBox.Width(width - 4)
		newStyles.MealBox = s.MealBox.Width(width - 4)
		newStyles.WarningBox = s.WarningBox.Width(width - 4)
	}

	return &newStyles
}

// ForSeverity returns the style for an anomaly severity.
func (s *Styles) ForSeverity(severity insight.Severity) lipgloss.Style {
	switch severity {
	case insight.SeverityHigh:
		return s.High
	case insight.SeverityMedium:
		return s.Medium
	default:
		return s.Normal
	}
}

// ForDirection returns the style for a trend direction.
func (s *Styles) ForDirection(d insight.Direction) lipgloss.Style {
	switch d {
	case insight.DirectionImproving:
		return s.Success
	case insight.DirectionDeclining:
		return s.Error
	case insight.DirectionConcerning:
		return s.Warning
	case insight.DirectionStable:
		return s.Subtle
	default:
		return s.Normal
	}
}

// ForScore returns the style for an overall score out of 100.
func (s *Styles) ForScore(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return s.Success
	case score >= 60:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderProgressBar creates an unstyled bar of the given width filled to progress (0..1).
func (s *Styles) RenderProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 30
	}

	filled := int(float64(width) * progress)
	filled = min(max(filled, 0), width)

	return repeatChar("█", filled) + repeatChar("░", width-filled)
}

// RenderBox renders content in a styled box with optional title.
func (s *Styles) RenderBox(content string, title string, style lipgloss.Style) string {
	if title != "" {
		// lipgloss v1.1.0 has no border titles.
		titleStyled := s.Info.Bold(true).Render(" " + title + " ")
		return style.Render(titleStyled + "\n" + content)
	}
	return style.Render(content)
}

// repeatChar repeats a character n times.
func repeatChar(char string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(char, n)
}
