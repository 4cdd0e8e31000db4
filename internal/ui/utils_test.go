package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyles(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	defer lipgloss.SetColorProfile(termenv.Ascii)

	out := StyleGap.Render("gap")
	assert.Contains(t, out, "gap")
	assert.NotEqual(t, "gap", out, "Style should add ANSI codes when forced")
	assert.NotEqual(t, "x", Icon("x", StyleSuccess))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
		{"unbounded", 0, "unbounded"},
		{"Kohäsionsmaß", 8, "Kohäs..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.maxLen))
	}
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", WrapText("one two three", 8))
	assert.Equal(t, "keep\nlines", WrapText("keep\nlines", 20))
	assert.Equal(t, "as is", WrapText("as is", 0))
}

func TestPanel(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := NewPanel("Evidence", "r = 0.42").WithWidth(30).Render()
	assert.Contains(t, out, "Evidence")
	assert.Contains(t, out, "r = 0.42")
	assert.Contains(t, out, "╭")

	assert.Contains(t, RenderWarningPanel("", "careful"), "careful")
}

func TestRenderPageHeader(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	var buf bytes.Buffer
	RenderPageHeader(&buf, "Coverage", "3 measures")
	assert.Contains(t, buf.String(), "Coverage")
	assert.Contains(t, buf.String(), "3 measures")
}
