package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

var title = cases.Title(language.English)

// FormatSearch converts a SearchResult into token-efficient Markdown.
// Structure: one section per construct -> measures -> evidence
func FormatSearch(result *app.SearchResult) string {
	if result == nil || len(result.Results) == 0 {
		return "No constructs found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Constructs for %q\n\n", result.Query))
	for i, r := range result.Results {
		sb.WriteString(fmt.Sprintf("%d. **%s** %s %.3f\n", i+1, r.Construct.Label, scoreToBar(r.Score), r.Score))
		sb.WriteString(fmt.Sprintf("   `%s`\n", r.Construct.IRI))
		if r.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", truncate(r.Description, 150)))
		}
		for _, m := range r.Measures {
			sb.WriteString(fmt.Sprintf("   - %s%s\n", m.Label, measureFacets(m)))
		}
		if n := len(r.Effects) + len(r.Relationships); n > 0 {
			sb.WriteString(fmt.Sprintf("   - evidence: %d effect sizes, %d class-level relationships\n", len(r.Effects), len(r.Relationships)))
		}
	}
	return strings.TrimSpace(sb.String())
}

func measureFacets(m search.MeasureSummary) string {
	var parts []string
	if len(m.Modalities) > 0 {
		parts = append(parts, strings.Join(m.Modalities, ", "))
	}
	if len(m.Techniques) > 0 {
		parts = append(parts, strings.Join(m.Techniques, ", "))
	}
	if len(m.Levels) > 0 {
		parts = append(parts, strings.Join(m.Levels, ", ")+" level")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

// FormatPaths lists each path with the evidence behind every hop.
func FormatPaths(result *app.PathsResult) string {
	if result == nil {
		return "No paths found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Paths: %s -> %s (max %d hops)\n\n", result.From.Label, result.To.Label, result.MaxHops))
	if len(result.Paths) == 0 {
		sb.WriteString("No paths found.\n")
	}
	for i, p := range result.Paths {
		sb.WriteString(fmt.Sprintf("%d. %s (%d hops)\n", i+1, p, p.Hops()))
		for _, st := range p.Steps {
			for _, rel := range st.Evidence {
				sb.WriteString(fmt.Sprintf("   - %s via %s %q\n", st.Construct.Label, relationName(rel.Kind), rel.Via.Label))
			}
		}
	}
	if result.Truncated {
		sb.WriteString(fmt.Sprintf("\n> **Truncated**: %s\n", result.Reason))
	}
	return strings.TrimSpace(sb.String())
}

func relationName(k reasoner.RelationKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// FormatCoverage shows the constructs a measure set covers and its gaps.
func FormatCoverage(report reasoner.CoverageReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Coverage of %d measures\n\n", len(report.Measures)))
	for _, c := range report.Constructs {
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", c.Construct.Label, joinLabels(c.Measures)))
	}
	if len(report.Constructs) == 0 {
		sb.WriteString("No constructs covered.\n")
	}
	if len(report.Gaps) > 0 {
		sb.WriteString("\n### Gaps\n")
		sb.WriteString("Covered by a single measure:\n")
		for _, g := range report.Gaps {
			sb.WriteString(fmt.Sprintf("- %s\n", g.Label))
		}
	}
	if len(report.Unresolved) > 0 {
		sb.WriteString("\n### Unresolved\n")
		for _, u := range report.Unresolved {
			sb.WriteString(fmt.Sprintf("- %q\n", u))
		}
	}
	return strings.TrimSpace(sb.String())
}

// FormatEvidence puts the explanation first and the records after.
func FormatEvidence(result *app.EvidenceResult) string {
	if result == nil {
		return "No evidence found."
	}

	var sb strings.Builder
	sum := result.Summary
	sb.WriteString(fmt.Sprintf("## Evidence: %s and %s\n\n", sum.A.Label, sum.B.Label))
	sb.WriteString(strings.TrimSpace(result.Explanation))
	sb.WriteString("\n\n")
	writeEffects(&sb, sum.Effects)
	writeRelationships(&sb, sum.Relationships)
	return strings.TrimSpace(sb.String())
}

// FormatConstructEvidence lists the measures and records of one construct.
func FormatConstructEvidence(result *app.ConstructEvidence) string {
	if result == nil {
		return "No evidence found."
	}

	var sb strings.Builder
	c := result.Construct
	sb.WriteString(fmt.Sprintf("## %s\n`%s`\n\n", c.Label, c.IRI))
	if c.Description != "" {
		sb.WriteString(c.Description + "\n\n")
	}
	if len(c.Broader) > 0 {
		sb.WriteString(fmt.Sprintf("**Broader**: %s\n\n", joinLabels(c.Broader)))
	}
	if len(result.Measures) > 0 {
		sb.WriteString("### Measures\n")
		for _, m := range result.Measures {
			sb.WriteString(fmt.Sprintf("- %s\n", m.Label))
		}
		sb.WriteString("\n")
	}
	writeEffects(&sb, result.Effects)
	writeRelationships(&sb, result.Relationships)
	if len(result.Effects) == 0 && len(result.Relationships) == 0 {
		sb.WriteString("No effect sizes or class-level relationships recorded.\n")
	}
	return strings.TrimSpace(sb.String())
}

func writeEffects(sb *strings.Builder, effects []ontology.EffectSize) {
	if len(effects) == 0 {
		return
	}
	sb.WriteString("### Effect Sizes\n")
	for _, e := range effects {
		sb.WriteString(fmt.Sprintf("- %s -> %s: %s%s", joinLabels(e.Independent), joinLabels(e.Dependent), formatValue(e.Metric, e.Value), formatCI(e.LowerCI, e.UpperCI)))
		if e.TeamN != nil {
			sb.WriteString(fmt.Sprintf(", %d teams", *e.TeamN))
		}
		if e.Study != nil {
			sb.WriteString(fmt.Sprintf(" (%s)", e.Study.Label))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeRelationships(sb *strings.Builder, rels []ontology.ClassRelationship) {
	if len(rels) == 0 {
		return
	}
	sb.WriteString("### Class-Level Relationships\n")
	for _, r := range rels {
		sb.WriteString(fmt.Sprintf("- %s -> %s: %s%s", joinLabels(r.Source), joinLabels(r.Target), formatValue(r.Metric, r.Value), formatCI(r.LowerCI, r.UpperCI)))
		if r.MetaAnalysis != nil {
			sb.WriteString(fmt.Sprintf(" (%s)", r.MetaAnalysis.Label))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// FormatFacets lists facet values with their measure counts.
func FormatFacets(f search.Facets) string {
	var sb strings.Builder
	groups := []struct {
		name   string
		values []search.FacetValue
	}{
		{"modalities", f.Modalities},
		{"levels", f.Levels},
		{"techniques", f.Techniques},
		{"populations", f.Populations},
	}
	for _, g := range groups {
		if len(g.values) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s (%d)\n", title.String(g.name), len(g.values)))
		for _, v := range g.values {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", v.Label, v.Count))
		}
		sb.WriteString("\n")
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "No facets found."
	}
	return out
}

// FormatStats renders the entity counts as a compact table.
func FormatStats(s ontology.Stats) string {
	rows := []struct {
		name  string
		count int
	}{
		{"triples", s.Triples},
		{"classes", s.Classes},
		{"properties", s.Properties},
		{"constructs", s.Constructs},
		{"measures", s.Measures},
		{"studies", s.Studies},
		{"effect sizes", s.Effects},
	}
	var sb strings.Builder
	sb.WriteString("| Kind | Count |\n|---|---|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", title.String(r.name), r.count))
	}
	return strings.TrimSpace(sb.String())
}

// FormatList lists references of one kind.
func FormatList(kind string, refs []ontology.Ref) string {
	if len(refs) == 0 {
		return fmt.Sprintf("No %s found.", strings.ToLower(kind))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s (%d)\n", title.String(strings.ToLower(kind)), len(refs)))
	for _, r := range refs {
		sb.WriteString(fmt.Sprintf("- %s `%s`\n", r.Label, r.IRI))
	}
	return strings.TrimSpace(sb.String())
}

// FormatError formats an error message for MCP responses.
func FormatError(message string) string {
	return fmt.Sprintf("**Error**: %s", message)
}

// === Helper Functions ===

func joinLabels(refs []ontology.Ref) string {
	labels := make([]string, len(refs))
	for i, r := range refs {
		labels[i] = r.Label
	}
	return strings.Join(labels, ", ")
}

func formatValue(metric string, v *float64) string {
	if v == nil {
		return "no value"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if metric != "" {
		return metric + " = " + s
	}
	return s
}

func formatCI(lo, hi *float64) string {
	if lo == nil || hi == nil {
		return ""
	}
	return fmt.Sprintf(" [%s, %s]", strconv.FormatFloat(*lo, 'f', -1, 64), strconv.FormatFloat(*hi, 'f', -1, 64))
}

// truncate shortens a string to maxLen and adds ellipsis
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// scoreToBar converts a 0-1 score to a visual bar
func scoreToBar(score float64) string {
	bars := int(score * 5)
	if bars < 1 && score > 0 {
		bars = 1
	}
	if bars > 5 {
		bars = 5
	}
	if bars < 0 {
		bars = 0
	}
	return strings.Repeat("█", bars) + strings.Repeat("░", 5-bars)
}
