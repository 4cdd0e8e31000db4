// Package search answers natural-language questions with the constructs
// whose embeddings lie closest to the query, enriched with their measures
// and evidence.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	embindex "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/embedding"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/metrics"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// DefaultOversample is how many candidates per requested result are pulled
// from the index before filtering.
const DefaultOversample = 2

// Options tune the engine.
type Options struct {
	Oversample int
}

// MeasureSummary is a measure as shown next to a search result.
type MeasureSummary struct {
	IRI        string   `json:"iri" yaml:"iri"`
	Label      string   `json:"label" yaml:"label"`
	Modalities []string `json:"modalities" yaml:"modalities"`
	Techniques []string `json:"techniques" yaml:"techniques"`
	Levels     []string `json:"levels" yaml:"levels"`
}

// ConstructResult is one ranked construct.
type ConstructResult struct {
	Construct     ontology.Ref                 `json:"construct" yaml:"construct"`
	Description   string                       `json:"description,omitempty" yaml:"description,omitempty"`
	Score         float64                      `json:"score" yaml:"score"`
	Measures      []MeasureSummary             `json:"measures" yaml:"measures"`
	Effects       []ontology.EffectSize        `json:"effects" yaml:"effects"`
	Relationships []ontology.ClassRelationship `json:"relationships" yaml:"relationships"`
}

// Engine runs searches against a frozen view and a built index. It is safe
// for concurrent use.
type Engine struct {
	view     *ontology.View
	index    *embindex.Index
	embedder embedding.Embedder
	opts     Options
}

// NewEngine wires an engine.
func NewEngine(view *ontology.View, index *embindex.Index, emb embedding.Embedder, opts Options) *Engine {
	if opts.Oversample < 1 {
		opts.Oversample = DefaultOversample
	}
	return &Engine{view: view, index: index, embedder: emb, opts: opts}
}

// Search returns up to k constructs for text. An empty result is not an
// error.
func (e *Engine) Search(ctx context.Context, text string, k int, f Filters) (results []ConstructResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveSince(metrics.SearchDuration, start)
		switch {
		case err != nil:
			metrics.SearchTotal.WithLabelValues("error").Inc()
		case len(results) == 0:
			metrics.SearchTotal.WithLabelValues("empty").Inc()
		default:
			metrics.SearchTotal.WithLabelValues("hit").Inc()
		}
	}()

	text = identity.CleanLabel(text)
	if text == "" {
		return nil, apperr.InvalidArgument("query text is empty")
	}
	if k < 1 {
		return nil, apperr.InvalidArgument("k must be at least 1, got %d", k)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	vec, err := embindex.EmbedQuery(ctx, e.embedder, text)
	if err != nil {
		return nil, err
	}
	candidates := min(k, e.index.Len()) * e.opts.Oversample
	if candidates < 1 {
		return []ConstructResult{}, nil
	}
	hits, err := e.index.Query(vec, candidates)
	if err != nil {
		return nil, err
	}

	cf := compile(f)
	results = make([]ConstructResult, 0, min(k, len(hits)))
	for _, h := range hits {
		if len(results) == k {
			break
		}
		c, err := e.view.Construct(h.IRI)
		if apperr.IsNotFound(err) {
			slog.Warn("indexed construct missing from graph", "iri", h.IRI)
			continue
		}
		if err != nil {
			return nil, err
		}
		res, ok := e.result(c, h.Score, cf)
		if ok {
			results = append(results, res)
		}
	}
	slog.Debug("search", "query", text, "k", k, "candidates", len(hits), "results", len(results), "filters", f.String())
	return results, nil
}

func (e *Engine) result(c ontology.Construct, score float64, cf compiledFilters) (ConstructResult, bool) {
	var measures []MeasureSummary
	for _, m := range e.view.MeasuresOf(c.IRI) {
		if !cf.measure(m) {
			continue
		}
		measures = append(measures, summarize(m))
	}
	if !cf.f.facetsEmpty() && len(measures) == 0 {
		return ConstructResult{}, false
	}

	effects, rels := e.view.EvidenceFor(c.IRI)
	kept := effects[:0]
	for _, ef := range effects {
		if cf.effect(ef) {
			kept = append(kept, ef)
		}
	}
	return ConstructResult{
		Construct:     c.Ref,
		Description:   c.Description,
		Score:         score,
		Measures:      measures,
		Effects:       kept,
		Relationships: rels,
	}, true
}

func summarize(m ontology.Measure) MeasureSummary {
	return MeasureSummary{
		IRI:        m.IRI,
		Label:      m.Label,
		Modalities: labels(m.Modalities),
		Techniques: labels(m.Techniques),
		Levels:     labels(m.Levels),
	}
}

func labels(refs []ontology.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Label
	}
	return out
}
