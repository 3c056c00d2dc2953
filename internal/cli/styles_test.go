package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"Source", "Meals"},
		[][]string{
			{"week-21.json", "14"},
			{"short"},
		},
	)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "Source")
	assert.Contains(t, out, "week-21.json")
	assert.Contains(t, out, "short")

	idx := strings.Index(lines[0], "Meals")
	require.Positive(t, idx)
	assert.Equal(t, idx, strings.Index(out[strings.Index(out, "week-21.json"):], "14"),
		"columns are padded to the widest cell")
}

func TestFormatMessages(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		icon   string
	}{
		{name: "success", render: FormatSuccess, icon: SuccessIcon},
		{name: "error", render: FormatError, icon: ErrorIcon},
		{name: "warning", render: FormatWarning, icon: WarningIcon},
		{name: "info", render: FormatInfo, icon: InfoIcon},
		{name: "title", render: FormatTitle, icon: LeafIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("imported 3 days")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "imported 3 days")
		})
	}
}

func TestRenderFields(t *testing.T) {
	out := RenderFields([][2]string{
		{"Database", "/tmp/nutrilio.db"},
		{"Current version", "2"},
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Database:")
	assert.Contains(t, lines[1], "Current version:")
	assert.Equal(t, strings.Index(lines[0], "/tmp/nutrilio.db"), strings.Index(lines[1], "2"),
		"values line up after the widest label")
}

func TestRenderBox(t *testing.T) {
	out := RenderBox(FolderIcon+" Status", "all good")
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "all good")
	assert.Contains(t, out, "╭", "rounded border")
}
