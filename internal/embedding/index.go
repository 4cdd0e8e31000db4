// Package embedding holds construct vectors and answers nearest-neighbour
// queries over them.
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// Entry is the vector of one construct.
type Entry struct {
	IRI       string
	Label     string
	LabelHash string
	Vector    []float32
}

// Hit is one query result.
type Hit struct {
	IRI   string  `json:"iri"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Index is an immutable set of construct vectors keyed by IRI.
type Index struct {
	model   string
	dims    int
	entries []Entry // sorted by IRI
	byIRI   map[string]int
}

func newIndex(model string, dims int, entries []Entry) *Index {
	sort.Slice(entries, func(i, j int) bool { return entries[i].IRI < entries[j].IRI })
	by := make(map[string]int, len(entries))
	for i, e := range entries {
		by[e.IRI] = i
	}
	return &Index{model: model, dims: dims, entries: entries, byIRI: by}
}

// Model names the embedding model the vectors came from.
func (ix *Index) Model() string { return ix.model }

// Dimensions is the vector size.
func (ix *Index) Dimensions() int { return ix.dims }

// Len is the number of vectors.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns a copy of the entries sorted by IRI.
func (ix *Index) Entries() []Entry { return append([]Entry(nil), ix.entries...) }

// Query returns up to k constructs by descending cosine similarity; ties are
// broken by IRI. It returns min(k, Len()) hits; callers needing exactly k
// use QueryExact.
func (ix *Index) Query(vec []float32, k int) ([]Hit, error) {
	if k < 1 {
		return nil, apperr.InvalidArgument("k must be at least 1, got %d", k)
	}
	if len(vec) != ix.dims {
		return nil, apperr.InvalidArgument("query vector has %d dimensions, index has %d", len(vec), ix.dims)
	}
	hits := make([]Hit, len(ix.entries))
	for i, e := range ix.entries {
		hits[i] = Hit{IRI: e.IRI, Label: e.Label, Score: CosineSimilarity(vec, e.Vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].IRI < hits[j].IRI
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// QueryExact is Query that fails when fewer than k vectors exist.
func (ix *Index) QueryExact(vec []float32, k int) ([]Hit, error) {
	if k > len(ix.entries) {
		return nil, apperr.InvalidArgument("k=%d exceeds index size %d", k, len(ix.entries))
	}
	return ix.Query(vec, k)
}

// Stale lists, sorted, the constructs whose text changed since their vector
// was computed or that have no vector.
func (ix *Index) Stale(constructs []ontology.Construct) []string {
	var out []string
	for _, c := range constructs {
		i, ok := ix.byIRI[c.IRI]
		if !ok || ix.entries[i].LabelHash != TextHash(Text(c)) {
			out = append(out, c.IRI)
		}
	}
	sort.Strings(out)
	return out
}

// Orphans lists indexed IRIs that are no longer constructs.
func (ix *Index) Orphans(constructs []ontology.Construct) []string {
	live := make(map[string]bool, len(constructs))
	for _, c := range constructs {
		live[c.IRI] = true
	}
	var out []string
	for _, e := range ix.entries {
		if !live[e.IRI] {
			out = append(out, e.IRI)
		}
	}
	return out
}

// Text is what gets embedded for a construct: its label, plus its
// description when present.
func Text(c ontology.Construct) string {
	if c.Description == "" {
		return c.Label
	}
	return c.Label + " - " + c.Description
}

// TextHash fingerprints embedded text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CosineSimilarity returns a value between -1 and 1, or 0 when either
// vector is empty, zero or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
