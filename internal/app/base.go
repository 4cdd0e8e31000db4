// Package app is the application layer shared by the CLI, the MCP server
// and the HTTP API. It loads the graph and the embedding index once and
// exposes the read operations over them; the adapters only translate
// arguments and render results.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/spf13/afero"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	embindex "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/embedding"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/llm"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/metrics"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/prompts"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

// ErrNoIndex is returned by Search when no embedding artifact was loaded.
var ErrNoIndex = errors.New("embedding index not loaded (run `explainer index build`)")

// Context holds the frozen graph and everything derived from it. All
// fields are read-only after Open, so one Context serves concurrent
// requests.
type Context struct {
	Cfg       config.Config
	Sources   []string
	Store     *graph.Store
	View      *ontology.View
	Reasoner  *reasoner.Reasoner
	Explainer reasoner.Explainer

	// Index, Embedder and Engine are nil when no artifact was loaded.
	Index    *embindex.Index
	Embedder embedding.Embedder
	Engine   *search.Engine
}

// OpenOptions selects what Open must load.
type OpenOptions struct {
	// RequireIndex makes a missing embedding artifact an error even when
	// embedding.optional is set.
	RequireIndex bool
	// Serving makes a missing artifact an error unless embedding.optional
	// is set.
	Serving bool
	// SkipIndex never touches the artifact or the embedding provider.
	SkipIndex bool
}

// embedderFactory is swapped in tests.
var embedderFactory = llm.NewEmbeddingModel

// chatModelFactory is swapped in tests.
var chatModelFactory = llm.NewChatModel

// LoadGraph reads the configured graph files. A missing file is a load
// error unless it is listed in graph.optional, in which case it is skipped
// with a warning. The returned store is frozen.
func LoadGraph(fs afero.Fs, cfg config.Config) (*graph.Store, []string, error) {
	if len(cfg.Graph.Paths) == 0 {
		return nil, nil, apperr.InvalidArgument("no graph files configured")
	}
	var present []string
	for _, p := range cfg.Graph.Paths {
		ok, err := afero.Exists(fs, p)
		if err != nil {
			return nil, nil, apperr.NewLoadError(p, err)
		}
		if !ok {
			if !cfg.Graph.IsOptional(p) {
				return nil, nil, apperr.NewLoadError(p, os.ErrNotExist)
			}
			slog.Warn("optional graph file not found, skipping", "path", p)
			continue
		}
		present = append(present, p)
	}
	if len(present) == 0 {
		return nil, nil, apperr.NewLoadError(cfg.Graph.Paths[0], os.ErrNotExist)
	}
	store, err := graph.Load(fs, present...)
	if err != nil {
		return nil, nil, err
	}
	cfg.Graph.Vocabulary().Bind(store)
	store.Freeze()
	metrics.GraphTriples.Set(float64(store.Len()))
	return store, present, nil
}

// Open loads the graph, the embedding index and the explainer.
func Open(ctx context.Context, fs afero.Fs, cfg config.Config, opts OpenOptions) (*Context, error) {
	store, sources, err := LoadGraph(fs, cfg)
	if err != nil {
		return nil, err
	}
	view := ontology.NewView(store, cfg.Graph.Vocabulary())
	c := &Context{
		Cfg:       cfg,
		Sources:   sources,
		Store:     store,
		View:      view,
		Reasoner:  reasoner.New(view),
		Explainer: reasoner.TextExplainer{},
	}
	slog.Debug("graph loaded", "files", len(sources), "triples", store.Len())

	if !opts.SkipIndex {
		required := opts.RequireIndex || (opts.Serving && !cfg.Embedding.Optional)
		if err := c.openIndex(ctx, required); err != nil {
			return nil, err
		}
	}
	if err := c.openExplainer(ctx, fs); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) openIndex(ctx context.Context, required bool) error {
	path := c.Cfg.Embedding.Artifact
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		slog.Warn("embedding artifact not found, semantic search disabled", "path", path)
		return nil
	}
	ix, err := embindex.Open(path)
	if err != nil {
		return err
	}
	emb, err := c.NewEmbedder(ctx)
	if err != nil {
		return err
	}
	if stale := ix.Stale(c.View.Constructs()); len(stale) > 0 {
		slog.Warn("embedding index is stale, rebuild it", "path", path, "stale", len(stale))
	}
	if orphans := ix.Orphans(c.View.Constructs()); len(orphans) > 0 {
		slog.Warn("embedding index has constructs missing from the graph", "path", path, "orphans", len(orphans))
	}
	metrics.IndexVectors.Set(float64(ix.Len()))
	c.Index = ix
	c.Embedder = emb
	c.Engine = search.NewEngine(c.View, ix, emb, search.Options{Oversample: c.Cfg.Search.Oversample})
	return nil
}

// NewEmbedder builds the configured embedding function.
func (c *Context) NewEmbedder(ctx context.Context) (embedding.Embedder, error) {
	llmCfg, err := config.EmbeddingLLMConfig(c.Cfg.Embedding)
	if err != nil {
		return nil, err
	}
	emb, err := embedderFactory(ctx, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return emb, nil
}

// EmbeddingModelName is the model recorded in artifacts built with the
// current settings.
func (c *Context) EmbeddingModelName() string {
	llmCfg, err := config.EmbeddingLLMConfig(c.Cfg.Embedding)
	if err != nil {
		return c.Cfg.Embedding.Model
	}
	return llmCfg.EmbeddingModelName()
}

func (c *Context) openExplainer(ctx context.Context, fs afero.Fs) error {
	llmCfg, ok, err := config.ExplainLLMConfig(c.Cfg.Explain)
	if err != nil || !ok {
		return err
	}
	prompt, err := prompts.GetPrompt(fs, prompts.KeyExplainEvidence, c.Cfg.Explain.PromptsDir)
	if err != nil {
		return err
	}
	chat, err := chatModelFactory(ctx, llmCfg)
	if err != nil {
		return fmt.Errorf("create explain model: %w", err)
	}
	c.Explainer = reasoner.LLMExplainer{Model: chat, Prompt: prompt}
	slog.Debug("llm explainer enabled", "provider", llmCfg.Provider, "model", llmCfg.Model)
	return nil
}
