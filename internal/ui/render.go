package ui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/merge"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

// RenderSearch prints ranked constructs with their measures.
func RenderSearch(w io.Writer, res *app.SearchResult) {
	if len(res.Results) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No constructs found."))
		return
	}
	for i, r := range res.Results {
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, StyleConstruct.Render(r.Construct.Label), StyleSubtle.Render(fmt.Sprintf("%.3f", r.Score)))
		fmt.Fprintf(w, "    %s\n", StyleIRI.Render(r.Construct.IRI))
		if r.Description != "" {
			fmt.Fprintf(w, "    %s\n", Truncate(r.Description, 100))
		}
		for _, m := range r.Measures {
			fmt.Fprintf(w, "    %s %s %s\n", StyleMeasure.Render("•"), m.Label, StyleSubtle.Render(measureFacets(m)))
		}
		if len(r.Effects)+len(r.Relationships) > 0 {
			fmt.Fprintf(w, "    %s\n", StyleEvidence.Render(fmt.Sprintf("%d effect sizes, %d class-level relationships", len(r.Effects), len(r.Relationships))))
		}
	}
}

func measureFacets(m search.MeasureSummary) string {
	var parts []string
	for _, group := range [][]string{m.Modalities, m.Techniques, m.Levels} {
		if len(group) > 0 {
			parts = append(parts, strings.Join(group, ", "))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

// RenderPaths prints each path and the relation behind each hop.
func RenderPaths(w io.Writer, res *app.PathsResult) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		StyleConstruct.Render(res.From.Label), StyleSubtle.Render("->"), StyleConstruct.Render(res.To.Label),
		StyleSubtle.Render(fmt.Sprintf("(max %d hops)", res.MaxHops)))
	if len(res.Paths) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No paths found."))
	}
	for i, p := range res.Paths {
		fmt.Fprintf(w, "%2d. %s\n", i+1, p)
		for _, st := range p.Steps {
			for _, rel := range st.Evidence {
				fmt.Fprintf(w, "    %s %s\n", StyleEvidence.Render(strings.ReplaceAll(string(rel.Kind), "_", " ")), rel.Via.Label)
			}
		}
	}
	if res.Truncated {
		fmt.Fprintln(w, StyleWarning.Render("truncated: "+res.Reason))
	}
}

// RenderCoverage prints a construct table for a measure set.
func RenderCoverage(w io.Writer, report reasoner.CoverageReport) {
	gaps := make(map[string]bool, len(report.Gaps))
	for _, g := range report.Gaps {
		gaps[g.IRI] = true
	}
	t := &Table{Headers: []string{"Construct", "Measures", "Gap"}, MaxWidth: 60}
	for _, c := range report.Constructs {
		gap := ""
		if gaps[c.Construct.IRI] {
			gap = StyleGap.Render("yes")
		}
		t.Rows = append(t.Rows, []string{c.Construct.Label, labels(c.Measures), gap})
	}
	fmt.Fprintf(w, "%s\n\n", StyleTitle.Render(fmt.Sprintf("%d measures cover %d constructs, %d gaps", len(report.Measures), len(report.Constructs), len(report.Gaps))))
	fmt.Fprint(w, t.Render())
	if len(report.Unresolved) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", StyleWarning.Render("unresolved:"), strings.Join(report.Unresolved, ", "))
	}
}

// RenderEvidence prints the explanation in a panel followed by the records.
func RenderEvidence(w io.Writer, res *app.EvidenceResult) {
	sum := res.Summary
	fmt.Fprintln(w, RenderInfoPanel(sum.A.Label+" and "+sum.B.Label, WrapText(strings.TrimSpace(res.Explanation), 80)))
	renderEffects(w, sum.Effects)
	renderRelationships(w, sum.Relationships)
}

// RenderConstructEvidence prints one construct's measures and evidence.
func RenderConstructEvidence(w io.Writer, res *app.ConstructEvidence) {
	c := res.Construct
	fmt.Fprintf(w, "%s  %s\n", StyleConstruct.Render(c.Label), StyleIRI.Render(c.IRI))
	if c.Description != "" {
		fmt.Fprintln(w, WrapText(c.Description, 80))
	}
	if len(c.Broader) > 0 {
		fmt.Fprintf(w, "%s %s\n", StyleSubtle.Render("broader:"), labels(c.Broader))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleSectionTitle.Render("Measures"))
	for _, m := range res.Measures {
		fmt.Fprintf(w, "  %s %s\n", StyleMeasure.Render("•"), m.Label)
	}
	renderEffects(w, res.Effects)
	renderRelationships(w, res.Relationships)
}

func renderEffects(w io.Writer, effects []ontology.EffectSize) {
	if len(effects) == 0 {
		return
	}
	t := &Table{Headers: []string{"Independent", "Dependent", "Value", "95% CI", "Study"}, MaxWidth: 40}
	for _, e := range effects {
		study := ""
		if e.Study != nil {
			study = e.Study.Label
		}
		t.Rows = append(t.Rows, []string{labels(e.Independent), labels(e.Dependent), value(e.Metric, e.Value), interval(e.LowerCI, e.UpperCI), study})
	}
	fmt.Fprintf(w, "\n%s\n%s", StyleSectionTitle.Render("Effect sizes"), t.Render())
}

func renderRelationships(w io.Writer, rels []ontology.ClassRelationship) {
	if len(rels) == 0 {
		return
	}
	t := &Table{Headers: []string{"Source", "Target", "Value", "95% CI", "Meta-analysis"}, MaxWidth: 40}
	for _, r := range rels {
		meta := ""
		if r.MetaAnalysis != nil {
			meta = r.MetaAnalysis.Label
		}
		t.Rows = append(t.Rows, []string{labels(r.Source), labels(r.Target), value(r.Metric, r.Value), interval(r.LowerCI, r.UpperCI), meta})
	}
	fmt.Fprintf(w, "\n%s\n%s", StyleSectionTitle.Render("Class-level relationships"), t.Render())
}

// RenderStats prints the entity counts.
func RenderStats(w io.Writer, s ontology.Stats) {
	t := &Table{Headers: []string{"Kind", "Count"}}
	for _, r := range []struct {
		name string
		n    int
	}{
		{"triples", s.Triples},
		{"classes", s.Classes},
		{"properties", s.Properties},
		{"constructs", s.Constructs},
		{"measures", s.Measures},
		{"studies", s.Studies},
		{"effect sizes", s.Effects},
	} {
		t.Rows = append(t.Rows, []string{r.name, strconv.Itoa(r.n)})
	}
	fmt.Fprint(w, t.Render())
}

// RenderFacets prints each facet's values with measure counts.
func RenderFacets(w io.Writer, f search.Facets) {
	for _, g := range []struct {
		name   string
		values []search.FacetValue
	}{
		{"Modalities", f.Modalities},
		{"Levels", f.Levels},
		{"Techniques", f.Techniques},
		{"Populations", f.Populations},
	} {
		if len(g.values) == 0 {
			continue
		}
		t := &Table{Headers: []string{"Value", "Measures"}, MaxWidth: 50}
		for _, v := range g.values {
			t.Rows = append(t.Rows, []string{v.Label, strconv.Itoa(v.Count)})
		}
		fmt.Fprintf(w, "%s\n%s\n", StyleSectionTitle.Render(g.name), t.Render())
	}
}

// RenderRefs prints labels next to their IRIs.
func RenderRefs(w io.Writer, refs []ontology.Ref) {
	if len(refs) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("Nothing found."))
		return
	}
	t := &Table{Headers: []string{"Label", "IRI"}, MaxWidth: 70}
	for _, r := range refs {
		t.Rows = append(t.Rows, []string{r.Label, r.IRI})
	}
	fmt.Fprint(w, t.Render())
}

// RenderInspect prints the graph overview.
func RenderInspect(w io.Writer, res app.InspectResult) {
	RenderPageHeader(w, "Graph overview", fmt.Sprintf("%d triples", res.Stats.Triples))
	RenderStats(w, res.Stats)
	for _, g := range []struct {
		name   string
		counts []app.Count
	}{
		{"Classes by instance count", res.Classes},
		{"Measure predicates", res.MeasurePredicates},
	} {
		t := &Table{Headers: []string{"Name", "Count"}, MaxWidth: 60}
		for _, c := range g.counts {
			t.Rows = append(t.Rows, []string{c.Name, strconv.Itoa(c.Count)})
		}
		fmt.Fprintf(w, "\n%s\n%s", StyleSectionTitle.Render(g.name), t.Render())
	}
}

// RenderBindings prints pattern bindings with variables as columns.
func RenderBindings(w io.Writer, rows []map[string]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No results."))
		return
	}
	vars := make([]string, 0, len(rows[0]))
	for v := range rows[0] {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	t := &Table{Headers: vars, MaxWidth: 60}
	for _, row := range rows {
		cells := make([]string, len(vars))
		for i, v := range vars {
			cells[i] = row[v]
		}
		t.Rows = append(t.Rows, cells)
	}
	fmt.Fprint(w, t.Render())
	fmt.Fprintln(w, StyleSubtle.Render(fmt.Sprintf("%d rows", len(rows))))
}

// RenderMergeReport summarizes a merge run.
func RenderMergeReport(w io.Writer, r *merge.Report) {
	fmt.Fprintf(w, "%s %s -> %s (%s mode)\n", StyleSuccess.Render("merged"), r.Input, r.Output, r.Mode)
	fmt.Fprintf(w, "  rows %d, applied %d, skipped %d, triples %d\n", r.Rows, r.Applied, len(r.Skipped), r.Triples)
	for _, section := range []struct {
		name   string
		counts map[string]int
	}{
		{"created", r.Created},
		{"evidence", r.Evidence},
	} {
		if len(section.counts) == 0 {
			continue
		}
		keys := make([]string, 0, len(section.counts))
		for k := range section.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s %d", k, section.counts[k])
		}
		fmt.Fprintf(w, "  %s: %s\n", section.name, strings.Join(parts, ", "))
	}
	for _, n := range r.NewNodes {
		fmt.Fprintf(w, "  %s %s %q\n", StyleSuccess.Render("new"), n.Kind, n.Label)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  %s %s\n", StyleWarning.Render("skipped"), s)
	}
	for _, c := range r.Collisions {
		fmt.Fprintf(w, "  %s %v\n", StyleWarning.Render("collision"), c)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  %s %v\n", StyleWarning.Render("violation"), v)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", StyleWarning.Render("warning"), msg)
	}
}

func labels(refs []ontology.Ref) string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Label
	}
	return strings.Join(out, ", ")
}

func value(metric string, v *float64) string {
	if v == nil {
		return "-"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if metric != "" {
		return metric + "=" + s
	}
	return s
}

func interval(lo, hi *float64) string {
	if lo == nil || hi == nil {
		return ""
	}
	return "[" + strconv.FormatFloat(*lo, 'f', -1, 64) + ", " + strconv.FormatFloat(*hi, 'f', -1, 64) + "]"
}
