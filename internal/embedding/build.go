package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// DefaultTimeout bounds the single embedding call of a build.
const DefaultTimeout = 2 * time.Minute

// BuildOptions configures Build.
type BuildOptions struct {
	Model   string
	Timeout time.Duration
}

// Build embeds every construct in one batched call. Any failure, including
// a timeout, aborts the build; there is no retry.
func Build(ctx context.Context, constructs []ontology.Construct, emb embedding.Embedder, opts BuildOptions) (*Index, error) {
	if len(constructs) == 0 {
		return nil, fmt.Errorf("build index: no constructs to embed")
	}
	texts := make([]string, len(constructs))
	for i, c := range constructs {
		texts[i] = Text(c)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	vecs, err := emb.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("build index: embed %d constructs: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("build index: embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	dims := len(vecs[0])
	if dims == 0 {
		return nil, fmt.Errorf("build index: embedder returned empty vectors")
	}
	entries := make([]Entry, len(constructs))
	for i, c := range constructs {
		if len(vecs[i]) != dims {
			return nil, fmt.Errorf("build index: vector for %s has %d dimensions, want %d", c.IRI, len(vecs[i]), dims)
		}
		entries[i] = Entry{IRI: c.IRI, Label: c.Label, LabelHash: TextHash(texts[i]), Vector: ToFloat32(vecs[i])}
	}
	slog.Info("embedding index built", "constructs", len(entries), "dimensions", dims, "model", opts.Model, "elapsed", time.Since(start))
	return newIndex(opts.Model, dims, entries), nil
}

// EmbedQuery embeds one query text.
func EmbedQuery(ctx context.Context, emb embedding.Embedder, text string) ([]float32, error) {
	vecs, err := emb.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: no embedding returned")
	}
	return ToFloat32(vecs[0]), nil
}

// ToFloat32 narrows an eino vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
