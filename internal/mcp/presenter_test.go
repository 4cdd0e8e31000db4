package mcp

import (
	"strings"
	"testing"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

func TestFormatSearch_Empty(t *testing.T) {
	if got := FormatSearch(nil); got != "No constructs found." {
		t.Errorf("expected 'No constructs found.', got %q", got)
	}
	if got := FormatSearch(&app.SearchResult{Query: "x"}); got != "No constructs found." {
		t.Errorf("expected 'No constructs found.', got %q", got)
	}
}

func TestFormatSearch_WithResults(t *testing.T) {
	result := FormatSearch(&app.SearchResult{
		Query: "timing of actions",
		Results: []search.ConstructResult{{
			Construct:   ontology.Ref{IRI: "http://x/coordination", Label: "coordination"},
			Description: "Orchestrating the sequence of actions.",
			Score:       0.8,
			Measures: []search.MeasureSummary{
				{Label: "Heart rate synchrony", Modalities: []string{"ECG"}, Techniques: []string{"CRQA"}, Levels: []string{"team"}},
			},
		}},
	})
	for _, want := range []string{
		`## Constructs for "timing of actions"`,
		"1. **coordination** ████░ 0.800",
		"Heart rate synchrony (ECG; CRQA; team level)",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in:\n%s", want, result)
		}
	}
}

func TestFormatPaths_Truncated(t *testing.T) {
	result := FormatPaths(&app.PathsResult{
		From:      ontology.Ref{Label: "a"},
		To:        ontology.Ref{Label: "b"},
		MaxHops:   2,
		Paths:     []reasoner.Path{},
		Truncated: true,
		Reason:    "expansion budget exhausted",
	})
	if !strings.Contains(result, "No paths found.") {
		t.Error("expected empty marker")
	}
	if !strings.Contains(result, "> **Truncated**: expansion budget exhausted") {
		t.Errorf("expected truncation note in:\n%s", result)
	}
}

func TestFormatList_Empty(t *testing.T) {
	if got := FormatList("Measures", nil); got != "No measures found." {
		t.Errorf("got %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	v := 0.5
	tests := []struct {
		metric string
		v      *float64
		want   string
	}{
		{"r", &v, "r = 0.5"},
		{"", &v, "0.5"},
		{"d", nil, "no value"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.metric, tt.v); got != tt.want {
			t.Errorf("formatValue(%q) = %q, want %q", tt.metric, got, tt.want)
		}
	}
}

func TestScoreToBar(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "░░░░░"},
		{0.05, "█░░░░"},
		{1, "█████"},
		{-0.3, "░░░░░"},
	}
	for _, tt := range tests {
		if got := scoreToBar(tt.score); got != tt.want {
			t.Errorf("scoreToBar(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
