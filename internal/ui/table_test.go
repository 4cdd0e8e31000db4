package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestTable_ColumnWidths(t *testing.T) {
	table := &Table{
		Headers: []string{"Construct", "Measures", "Gap"},
		Rows: [][]string{
			{"coordination", "Heart rate synchrony", "yes"},
			{"trust", "Trust survey", ""},
		},
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 12, widths[0]) // "coordination"
	assert.Equal(t, 20, widths[1]) // "Heart rate synchrony"
	assert.Equal(t, 3, widths[2])  // header wins
}

func TestTable_ColumnWidths_Unicode(t *testing.T) {
	table := &Table{Headers: []string{"Label"}, Rows: [][]string{{"Kohäsion–Maß"}}}
	assert.Equal(t, 12, table.ColumnWidths()[0])
}

func TestTable_ColumnWidths_MaxWidth(t *testing.T) {
	table := &Table{
		Headers:  []string{"ID", "Description"},
		Rows:     [][]string{{"a", "This is a very long description that should be truncated"}},
		MaxWidth: 20,
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 2, widths[0])
	assert.Equal(t, 20, widths[1])
}

func TestTable_Render(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	table := &Table{
		Headers: []string{"Kind", "Count"},
		Rows:    [][]string{{"measures", "5"}, {"constructs", "5"}},
	}

	out := table.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Kind")
	assert.Contains(t, lines[1], "─")
	assert.Contains(t, lines[3], "constructs")
}

func TestTable_Render_Empty(t *testing.T) {
	assert.Empty(t, (&Table{}).Render())
}

func TestTable_Render_Truncation(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	table := &Table{
		Headers:  []string{"Label"},
		Rows:     [][]string{{"Überlappende Sprechzeiten"}},
		MaxWidth: 8,
	}

	out := table.Render()
	assert.Contains(t, out, "Überlap…")
}

func TestTable_Render_RowsHaveFewerColumns(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	table := &Table{
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"only one"}},
	}
	assert.NotPanics(t, func() { table.Render() })
}

func TestFit(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdef", 4, "abc…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fit(tt.in, tt.width), "fit(%q, %d)", tt.in, tt.width)
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcd", padRight("abcd", 2))
	assert.Equal(t, "äb  ", padRight("äb", 4))
}
