package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
)

func openFixture(t *testing.T) *app.Context {
	t.Helper()
	fs := afero.NewMemMapFs()
	ontologytest.Write(t, fs)
	cfg := config.Default()
	cfg.Graph.Paths = []string{ontologytest.Path}
	cfg.Embedding.Artifact = filepath.Join(t.TempDir(), "missing.db")
	a, err := app.Open(context.Background(), fs, cfg, app.OpenOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return a
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	result, err := HandleSearch(context.Background(), nil, SearchParams{Query: "  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected error for missing query")
	}
}

func TestHandleSearch_NoIndex(t *testing.T) {
	a := openFixture(t)
	result, err := HandleSearch(context.Background(), a, SearchParams{Query: "coordination"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "index") {
		t.Errorf("expected missing index error, got %q", result.Error)
	}
}

func TestHandlePaths(t *testing.T) {
	a := openFixture(t)

	result, err := HandlePaths(context.Background(), a, PathsParams{From: "coordination", To: "team performance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
	if !strings.Contains(result.Content, "coordination -> team performance") {
		t.Errorf("expected path in content, got %q", result.Content)
	}

	negative := -2
	result, _ = HandlePaths(context.Background(), a, PathsParams{From: "coordination", To: "trust", MaxHops: &negative})
	if result.Error == "" {
		t.Error("expected error for negative max_hops")
	}

	result, _ = HandlePaths(context.Background(), a, PathsParams{From: "coordination"})
	if result.Error == "" {
		t.Error("expected error for missing to")
	}
}

func TestHandleCoverage(t *testing.T) {
	a := openFixture(t)

	result, err := HandleCoverage(context.Background(), a, CoverageParams{Measures: []string{"Speech overlap", "unknown measure"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"## Coverage of 1 measures", "shared mental models", "### Gaps", "unknown measure"} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("expected %q in content:\n%s", want, result.Content)
		}
	}

	result, _ = HandleCoverage(context.Background(), a, CoverageParams{})
	if result.Error == "" {
		t.Error("expected error for empty measure set")
	}
}

func TestHandleEvidence(t *testing.T) {
	a := openFixture(t)

	result, err := HandleEvidence(context.Background(), a, EvidenceParams{A: "coordination", B: "team performance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Action != "pair" {
		t.Errorf("expected default action 'pair', got %q", result.Action)
	}
	if !strings.Contains(result.Content, "r = 0.42 [0.21, 0.6]") {
		t.Errorf("expected effect size in content:\n%s", result.Content)
	}

	result, _ = HandleEvidence(context.Background(), a, EvidenceParams{Action: EvidenceActionConstruct, Construct: "shared mental models"})
	if !strings.Contains(result.Content, "### Class-Level Relationships") {
		t.Errorf("expected relationships in content:\n%s", result.Content)
	}

	result, _ = HandleEvidence(context.Background(), a, EvidenceParams{Action: "bogus"})
	if result.Error == "" {
		t.Error("expected error for invalid action")
	}

	result, _ = HandleEvidence(context.Background(), a, EvidenceParams{Action: EvidenceActionConstruct})
	if result.Error == "" {
		t.Error("expected error for missing construct")
	}
}

func TestHandleOntology(t *testing.T) {
	a := openFixture(t)

	tests := []struct {
		name        string
		params      OntologyParams
		wantContent string
		wantErr     bool
	}{
		{name: "facets", params: OntologyParams{Action: OntologyActionFacets}, wantContent: "### Modalities"},
		{name: "stats", params: OntologyParams{Action: OntologyActionStats}, wantContent: "| Measures | 5 |"},
		{name: "list", params: OntologyParams{Action: OntologyActionList, Kind: "techniques"}, wantContent: "CRQA"},
		{name: "list without kind", params: OntologyParams{Action: OntologyActionList}, wantErr: true},
		{name: "list unknown kind", params: OntologyParams{Action: OntologyActionList, Kind: "rocks"}, wantErr: true},
		{name: "invalid action", params: OntologyParams{Action: "drop"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleOntology(context.Background(), a, tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr {
				if result.Error == "" {
					t.Error("expected tool error")
				}
				return
			}
			if !strings.Contains(result.Content, tt.wantContent) {
				t.Errorf("expected %q in content:\n%s", tt.wantContent, result.Content)
			}
		})
	}
}
