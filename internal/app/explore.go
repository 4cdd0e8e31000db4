package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

// SearchResult is the canonical response of a semantic search, used by the
// CLI, MCP and HTTP surfaces alike.
type SearchResult struct {
	Query   string                   `json:"query" yaml:"query"`
	K       int                      `json:"k" yaml:"k"`
	Filters search.Filters           `json:"filters" yaml:"filters"`
	Results []search.ConstructResult `json:"results" yaml:"results"`
}

// Search runs a semantic search. k == 0 uses the configured default.
func (c *Context) Search(ctx context.Context, text string, k int, f search.Filters) (*SearchResult, error) {
	if c.Engine == nil {
		return nil, ErrNoIndex
	}
	if k == 0 {
		k = c.Cfg.Search.DefaultK
	}
	results, err := c.Engine.Search(ctx, text, k, f)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Query: strings.TrimSpace(text), K: k, Filters: f, Results: results}, nil
}

// PathsResult lists the paths between two constructs.
type PathsResult struct {
	From    ontology.Ref    `json:"from" yaml:"from"`
	To      ontology.Ref    `json:"to" yaml:"to"`
	MaxHops int             `json:"max_hops" yaml:"max_hops"`
	Paths   []reasoner.Path `json:"paths" yaml:"paths"`
	// Truncated is set when the search budget or deadline ran out; Paths
	// holds what was found before.
	Truncated bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Paths finds the paths from a to b. maxHops < 0 uses the configured
// default.
func (c *Context) Paths(ctx context.Context, a, b string, maxHops int) (*PathsResult, error) {
	if maxHops < 0 {
		maxHops = c.Cfg.Reasoner.MaxHops
	}
	from, err := c.Reasoner.Resolver().Resolve(a, ontology.KindConstruct)
	if err != nil {
		return nil, err
	}
	to, err := c.Reasoner.Resolver().Resolve(b, ontology.KindConstruct)
	if err != nil {
		return nil, err
	}
	if c.Cfg.Reasoner.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Cfg.Reasoner.Timeout)
		defer cancel()
	}
	paths, err := c.Reasoner.PathsBetween(ctx, from.IRI, to.IRI, maxHops, reasoner.Budget{MaxExpansions: c.Cfg.Reasoner.MaxExpansions})
	res := &PathsResult{
		From:    ontology.Ref{IRI: from.IRI, Label: from.Label},
		To:      ontology.Ref{IRI: to.IRI, Label: to.Label},
		MaxHops: maxHops,
		Paths:   paths,
	}
	switch {
	case err == nil:
	case errors.Is(err, reasoner.ErrBudgetExhausted), errors.Is(err, context.DeadlineExceeded):
		res.Truncated = true
		res.Reason = err.Error()
	default:
		return nil, err
	}
	if res.Paths == nil {
		res.Paths = []reasoner.Path{}
	}
	return res, nil
}

// Coverage reports which constructs a measure set covers.
func (c *Context) Coverage(measureRefs []string) (reasoner.CoverageReport, error) {
	return c.Reasoner.Coverage(measureRefs)
}

// EvidenceResult is the evidence between two constructs with its prose
// explanation.
type EvidenceResult struct {
	Summary     reasoner.EvidenceSummary `json:"summary" yaml:"summary"`
	Explanation string                   `json:"explanation" yaml:"explanation"`
}

// Evidence aggregates and explains the evidence between a and b. An
// explainer failure keeps the summary and falls back to the plain text.
func (c *Context) Evidence(ctx context.Context, a, b string) (*EvidenceResult, error) {
	sum, err := c.Reasoner.AggregateEvidence(ctx, a, b)
	if err != nil {
		return nil, err
	}
	text, err := c.Explainer.Explain(ctx, sum)
	if err != nil {
		slog.Warn("explainer failed, using plain text", "error", err)
		text, err = reasoner.TextExplainer{}.Explain(ctx, sum)
		if err != nil {
			return nil, err
		}
	}
	return &EvidenceResult{Summary: sum, Explanation: text}, nil
}

// ConstructEvidence is every record touching one construct.
type ConstructEvidence struct {
	Construct     ontology.Construct           `json:"construct" yaml:"construct"`
	Measures      []ontology.Ref               `json:"measures" yaml:"measures"`
	Effects       []ontology.EffectSize        `json:"effects" yaml:"effects"`
	Relationships []ontology.ClassRelationship `json:"relationships" yaml:"relationships"`
}

// EvidenceForConstruct resolves a construct by IRI or label and lists its
// measures and evidence.
func (c *Context) EvidenceForConstruct(ref string) (*ConstructEvidence, error) {
	node, err := c.Reasoner.Resolver().Resolve(ref, ontology.KindConstruct)
	if err != nil {
		return nil, err
	}
	con, err := c.View.Construct(node.IRI)
	if err != nil {
		return nil, err
	}
	effects, rels := c.View.EvidenceFor(node.IRI)
	out := &ConstructEvidence{
		Construct:     con,
		Measures:      []ontology.Ref{},
		Effects:       effects,
		Relationships: rels,
	}
	for _, m := range c.View.MeasuresOf(node.IRI) {
		out.Measures = append(out.Measures, m.Ref)
	}
	if out.Effects == nil {
		out.Effects = []ontology.EffectSize{}
	}
	if out.Relationships == nil {
		out.Relationships = []ontology.ClassRelationship{}
	}
	return out, nil
}

// Facets lists the filterable values.
func (c *Context) Facets() search.Facets {
	return search.CollectFacets(c.View)
}

// Stats counts the main entity kinds.
func (c *Context) Stats() ontology.Stats {
	return c.View.Stats()
}

// ListKinds maps the names accepted by List to kinds.
var ListKinds = map[string]ontology.Kind{
	"constructs":   ontology.KindConstruct,
	"measures":     ontology.KindMeasure,
	"modalities":   ontology.KindModality,
	"techniques":   ontology.KindTechnique,
	"levels":       ontology.KindLevel,
	"publications": ontology.KindPublication,
	"effects":      ontology.KindEffectSize,
}

// ListKindNames returns the keys of ListKinds, sorted.
func ListKindNames() []string {
	names := make([]string, 0, len(ListKinds))
	for n := range ListKinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns the individuals of a kind whose label or local name
// contains like, case-insensitively. Results are sorted by label.
func (c *Context) List(kind, like string) ([]ontology.Ref, error) {
	k, ok := ListKinds[strings.ToLower(kind)]
	if !ok {
		return nil, apperr.InvalidArgument("unknown kind %q (one of %s)", kind, strings.Join(ListKindNames(), ", "))
	}
	like = strings.ToLower(strings.TrimSpace(like))
	normLike := identity.Normalize(like)
	out := []ontology.Ref{}
	for _, r := range c.View.Individuals(k) {
		if like != "" &&
			!strings.Contains(strings.ToLower(r.Label), like) &&
			!strings.Contains(strings.ToLower(graph.LocalName(r.IRI)), like) &&
			(normLike == "" || !strings.Contains(identity.Normalize(r.Label), normLike)) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Label), strings.ToLower(out[j].Label)
		if li != lj {
			return li < lj
		}
		return out[i].IRI < out[j].IRI
	})
	return out, nil
}

// Count is a name with a frequency.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// InspectResult describes the shape of the loaded graph.
type InspectResult struct {
	Stats             ontology.Stats `json:"stats" yaml:"stats"`
	Classes           []Count        `json:"classes" yaml:"classes"`
	MeasurePredicates []Count        `json:"measure_predicates" yaml:"measure_predicates"`
}

// Inspect counts the top rdf:type classes and the predicates used on
// measures. top < 1 means 25.
func (c *Context) Inspect(top int) InspectResult {
	if top < 1 {
		top = 25
	}
	classes := map[string]int{}
	for _, t := range c.Store.Find(graph.Term{}, graph.IRI(graph.RDFType), graph.Term{}) {
		classes[c.Store.Compact(t.O.Value)]++
	}
	preds := map[string]int{}
	for _, m := range c.View.Individuals(ontology.KindMeasure) {
		for _, t := range c.Store.Find(graph.IRI(m.IRI), graph.Term{}, graph.Term{}) {
			preds[c.Store.Compact(t.P.Value)]++
		}
	}
	return InspectResult{
		Stats:             c.View.Stats(),
		Classes:           topCounts(classes, top),
		MeasurePredicates: topCounts(preds, top),
	}
}

func topCounts(m map[string]int, top int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}

// Select evaluates a basic graph pattern and returns the bindings with
// compacted values.
func (c *Context) Select(q string) ([]map[string]string, error) {
	bindings, err := c.Store.Query(q)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(bindings))
	for i, b := range bindings {
		row := make(map[string]string, len(b))
		for k, t := range b {
			if t.IsIRI() {
				row[k] = c.Store.Compact(t.Value)
			} else {
				row[k] = t.Value
			}
		}
		out[i] = row
	}
	return out, nil
}
