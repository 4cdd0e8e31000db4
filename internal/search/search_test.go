package search

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	embindex "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/embedding"
	fx "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
)

// labelEmbedder maps a text to the vector of the longest label it starts
// with, so construct texts and short queries share coordinates.
type labelEmbedder map[string][]float64

func (m labelEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		best := ""
		for label := range m {
			if strings.HasPrefix(t, label) && len(label) > len(best) {
				best = label
			}
		}
		if best == "" {
			out[i] = []float64{0, 0, 0, 0.01}
			continue
		}
		out[i] = m[best]
	}
	return out, nil
}

var vectors = labelEmbedder{
	"shared mental models": {1, 0, 0, 0},
	"coordination":         {0.8, 0.6, 0, 0},
	"team performance":     {0, 1, 0, 0},
	"communication":        {0, 0.6, 0.8, 0},
	"trust":                {0, 0, 0, 1},
	"team cognition":       {0.9, 0.1, 0, 0},
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	view := fx.View(t)
	ix, err := embindex.Build(context.Background(), view.Constructs(), vectors, embindex.BuildOptions{Model: "test"})
	require.NoError(t, err)
	return NewEngine(view, ix, vectors, Options{})
}

func iris(rs []ConstructResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Construct.IRI
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func TestSearchTopTwo(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Search(context.Background(), "  team   cognition ", 2, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{fx.SharedMentalModels, fx.Coordination}, iris(res))
	assert.Greater(t, res[0].Score, res[1].Score)

	smm := res[0]
	require.Len(t, smm.Measures, 2)
	assert.Equal(t, "Speech overlap", smm.Measures[0].Label)
	assert.Equal(t, []string{"audio"}, smm.Measures[0].Modalities)
	assert.Equal(t, []string{"CRQA"}, smm.Measures[0].Techniques)
	assert.Equal(t, []string{"team"}, smm.Measures[0].Levels)
	require.Len(t, smm.Relationships, 1)
	assert.Equal(t, fx.ClassRel1, smm.Relationships[0].IRI)

	coord := res[1]
	require.Len(t, coord.Effects, 1)
	assert.Equal(t, fx.Effect1, coord.Effects[0].IRI)

	again, err := e.Search(context.Background(), "team cognition", 2, Filters{})
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestSearchFacetFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "modality by label, case folded",
			filters: Filters{Modalities: []string{"ecg"}},
			want:    []string{fx.Coordination},
		},
		{
			name:    "modality by IRI",
			filters: Filters{Modalities: []string{fx.ModalityECG}},
			want:    []string{fx.Coordination},
		},
		{
			name:    "all facets must hold on one measure",
			filters: Filters{Levels: []string{"team"}, Techniques: []string{"correlation"}},
			want:    []string{fx.TeamPerformance, fx.Communication},
		},
		{
			name:    "set membership",
			filters: Filters{Modalities: []string{"ECG", "survey"}},
			want:    []string{fx.SharedMentalModels, fx.Coordination},
		},
		{
			name:    "nothing matches",
			filters: Filters{Modalities: []string{"EEG"}},
			want:    []string{},
		},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Search(context.Background(), "team cognition", 2, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, iris(res))
		})
	}
}

func TestSearchAttachesOnlyMatchingMeasures(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Search(context.Background(), "team cognition", 1, Filters{Modalities: []string{"survey"}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, fx.SharedMentalModels, res[0].Construct.IRI)
	require.Len(t, res[0].Measures, 1)
	assert.Equal(t, fx.MentalModelSurv, res[0].Measures[0].IRI)
}

func TestSearchEvidenceFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		effects int
	}{
		{"no filter", Filters{}, 1},
		{"p-value required", Filters{MaxPValue: ptr(0.05)}, 0},
		{"effect above minimum", Filters{MinEffect: ptr(0.4)}, 1},
		{"effect below minimum", Filters{MinEffect: ptr(0.5)}, 0},
		{"effect in range", Filters{MinEffect: ptr(0.3), MaxEffect: ptr(0.45)}, 1},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Search(context.Background(), "coordination", 1, tt.filters)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, fx.Coordination, res[0].Construct.IRI)
			assert.Len(t, res[0].Effects, tt.effects)
		})
	}
}

func TestSearchInvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		k       int
		filters Filters
	}{
		{"empty text", "   ", 2, Filters{}},
		{"zero k", "trust", 0, Filters{}},
		{"p-value above one", "trust", 2, Filters{MaxPValue: ptr(2)}},
		{"blank facet value", "trust", 2, Filters{Modalities: []string{""}}},
		{"inverted effect range", "trust", 2, Filters{MinEffect: ptr(0.5), MaxEffect: ptr(0.1)}},
	}
	e := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Search(context.Background(), tt.text, tt.k, tt.filters)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
}

func TestSearchHugeK(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Search(context.Background(), "trust", math.MaxInt, Filters{})
	require.NoError(t, err)
	assert.Len(t, res, e.index.Len())
	assert.Equal(t, fx.Trust, res[0].Construct.IRI)
}

// recordingEmbedder remembers the texts it was asked to embed.
type recordingEmbedder struct {
	labelEmbedder
	texts []string
}

func (r *recordingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	r.texts = append(r.texts, texts...)
	return r.labelEmbedder.EmbedStrings(ctx, texts, opts...)
}

func TestSearchCleansQueryText(t *testing.T) {
	view := fx.View(t)
	ix, err := embindex.Build(context.Background(), view.Constructs(), vectors, embindex.BuildOptions{Model: "test"})
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "  team   cognition ", want: "team cognition"},
		{raw: "team\u2013cognition", want: "team-cognition"},
		{raw: "heart rate synchony", want: "heart rate synchrony"},
		{raw: "Shared Mental Models", want: "Shared Mental Models"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := &recordingEmbedder{labelEmbedder: vectors}
			e := NewEngine(view, ix, rec, Options{})
			_, err := e.Search(context.Background(), tt.raw, 1, Filters{})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, rec.texts)
		})
	}
}

func TestFacets(t *testing.T) {
	f := newTestEngine(t).Facets()

	require.Len(t, f.Modalities, 3)
	assert.Equal(t, FacetValue{IRI: fx.ModalityAudio, Label: "audio", Count: 2}, f.Modalities[0])
	assert.Equal(t, FacetValue{IRI: fx.ModalitySurvey, Label: "survey", Count: 2}, f.Modalities[1])
	assert.Equal(t, FacetValue{IRI: fx.ModalityECG, Label: "ECG", Count: 1}, f.Modalities[2])

	require.Len(t, f.Levels, 2)
	assert.Equal(t, "team", f.Levels[0].Label)
	assert.Equal(t, 4, f.Levels[0].Count)

	require.Len(t, f.Techniques, 2)
	assert.Equal(t, "correlation", f.Techniques[0].Label)
	assert.Equal(t, 3, f.Techniques[0].Count)

	assert.Equal(t, []FacetValue{{Label: "surgical teams", Count: 1}}, f.Populations)
}
