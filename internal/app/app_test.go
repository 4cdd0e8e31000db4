package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	embindex "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/embedding"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/llm"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

func testConfig(t *testing.T) (afero.Fs, config.Config) {
	t.Helper()
	fs := afero.NewMemMapFs()
	ontologytest.Write(t, fs)
	cfg := config.Default()
	cfg.Graph.Paths = []string{ontologytest.Path, "fixture/instances.ttl"}
	cfg.Graph.Optional = []string{"fixture/instances.ttl"}
	cfg.Embedding.Artifact = filepath.Join(t.TempDir(), "constructs.embeddings.db")
	return fs, cfg
}

func openTest(t *testing.T) *Context {
	t.Helper()
	fs, cfg := testConfig(t)
	c, err := Open(context.Background(), fs, cfg, OpenOptions{SkipIndex: true})
	require.NoError(t, err)
	return c
}

func TestLoadGraphMissingFiles(t *testing.T) {
	fs, cfg := testConfig(t)
	store, sources, err := LoadGraph(fs, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ontologytest.Path}, sources)
	assert.True(t, store.Frozen())

	tests := []struct {
		name     string
		paths    []string
		optional []string
		wantPath string
	}{
		{name: "required file missing", paths: []string{ontologytest.Path, "extra.ttl"}, wantPath: "extra.ttl"},
		{name: "all missing", paths: []string{"nope.ttl", "also-nope.ttl"}, wantPath: "nope.ttl"},
		{name: "all optional and missing", paths: []string{"nope.ttl"}, optional: []string{"nope.ttl"}, wantPath: "nope.ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Graph.Paths = tt.paths
			c.Graph.Optional = tt.optional
			_, _, err := LoadGraph(fs, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrLoad)
			var le *apperr.LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.wantPath, le.Path)
		})
	}
}

func TestOpenWithoutArtifact(t *testing.T) {
	fs, cfg := testConfig(t)
	c, err := Open(context.Background(), fs, cfg, OpenOptions{})
	require.NoError(t, err)
	assert.Nil(t, c.Engine)

	_, err = c.Search(context.Background(), "cohesion", 2, search.Filters{})
	assert.ErrorIs(t, err, ErrNoIndex)

	_, err = Open(context.Background(), fs, cfg, OpenOptions{RequireIndex: true})
	assert.ErrorIs(t, err, apperr.ErrLoad)

	_, err = Open(context.Background(), fs, cfg, OpenOptions{Serving: true})
	assert.ErrorIs(t, err, apperr.ErrLoad)

	cfg.Embedding.Optional = true
	c, err = Open(context.Background(), fs, cfg, OpenOptions{Serving: true})
	require.NoError(t, err)
	assert.Nil(t, c.Engine)
}

func TestSearchWithArtifact(t *testing.T) {
	fs, cfg := testConfig(t)
	base := openTest(t)
	ix, err := embindex.Build(context.Background(), base.View.Constructs(), llm.NewHashingEmbedder(llm.DefaultHashingDimensions), embindex.BuildOptions{Model: base.EmbeddingModelName()})
	require.NoError(t, err)
	require.NoError(t, embindex.Save(ix, cfg.Embedding.Artifact))

	c, err := Open(context.Background(), fs, cfg, OpenOptions{RequireIndex: true})
	require.NoError(t, err)
	require.NotNil(t, c.Engine)

	res, err := c.Search(context.Background(), "shared mental models", 0, search.Filters{})
	require.NoError(t, err)
	assert.Equal(t, cfg.Search.DefaultK, res.K)
	assert.NotEmpty(t, res.Results)
	assert.LessOrEqual(t, len(res.Results), res.K)

	_, err = c.Search(context.Background(), "   ", 2, search.Filters{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPaths(t *testing.T) {
	c := openTest(t)

	res, err := c.Paths(context.Background(), "Shared Mental Model ", "team performance", -1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.MaxHops)
	assert.Equal(t, ontologytest.SharedMentalModels, res.From.IRI)
	require.NotEmpty(t, res.Paths)
	assert.Equal(t, 1, res.Paths[0].Hops())
	assert.False(t, res.Truncated)

	res, err = c.Paths(context.Background(), ontologytest.SharedMentalModels, ontologytest.TeamPerformance, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.NotNil(t, res.Paths)

	c.Cfg.Reasoner.MaxExpansions = 1
	res, err = c.Paths(context.Background(), ontologytest.SharedMentalModels, ontologytest.TeamPerformance, 3)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Paths, 1)

	_, err = c.Paths(context.Background(), "no such construct", ontologytest.Trust, 2)
	assert.True(t, apperr.IsNotFound(err))
}

func TestEvidenceForConstruct(t *testing.T) {
	c := openTest(t)

	ev, err := c.EvidenceForConstruct("Coordination")
	require.NoError(t, err)
	assert.Equal(t, ontologytest.Coordination, ev.Construct.IRI)
	assert.Len(t, ev.Measures, 2)
	require.Len(t, ev.Effects, 1)
	assert.Equal(t, ontologytest.Effect1, ev.Effects[0].IRI)
	assert.Empty(t, ev.Relationships)

	ev, err = c.EvidenceForConstruct("trust")
	require.NoError(t, err)
	assert.NotNil(t, ev.Effects)
	assert.Empty(t, ev.Effects)
}

type stubChat struct {
	reply string
	err   error
}

func (s *stubChat) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChat) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEvidenceExplainer(t *testing.T) {
	orig := chatModelFactory
	t.Cleanup(func() { chatModelFactory = orig })

	chat := &stubChat{reply: "  They are related.  "}
	chatModelFactory = func(ctx context.Context, cfg llm.Config) (model.BaseChatModel, error) {
		return chat, nil
	}

	fs, cfg := testConfig(t)
	cfg.Explain.Provider = "ollama"
	c, err := Open(context.Background(), fs, cfg, OpenOptions{SkipIndex: true})
	require.NoError(t, err)
	require.IsType(t, reasoner.LLMExplainer{}, c.Explainer)

	res, err := c.Evidence(context.Background(), "shared mental models", "team performance")
	require.NoError(t, err)
	assert.True(t, res.Summary.Direct)
	assert.Equal(t, "They are related.", res.Explanation)

	chat.err = errors.New("model offline")
	res, err = c.Evidence(context.Background(), "shared mental models", "team performance")
	require.NoError(t, err)
	assert.Contains(t, res.Explanation, "linked directly")
}

func TestExplainerCustomPrompt(t *testing.T) {
	orig := chatModelFactory
	t.Cleanup(func() { chatModelFactory = orig })
	chatModelFactory = func(ctx context.Context, cfg llm.Config) (model.BaseChatModel, error) {
		return &stubChat{reply: "ok"}, nil
	}

	fs, cfg := testConfig(t)
	cfg.Explain.Provider = "ollama"
	cfg.Explain.PromptsDir = "prompts"
	require.NoError(t, afero.WriteFile(fs, "prompts/explain_evidence_prompt.txt", []byte("Relate {{.A}} to {{.B}}.\n{{.Facts}}"), 0o644))

	c, err := Open(context.Background(), fs, cfg, OpenOptions{SkipIndex: true})
	require.NoError(t, err)
	x, ok := c.Explainer.(reasoner.LLMExplainer)
	require.True(t, ok)
	assert.Equal(t, "Relate {{.A}} to {{.B}}.\n{{.Facts}}", x.Prompt)

	require.NoError(t, afero.WriteFile(fs, "prompts/explain_evidence_prompt.txt", []byte("{{.A"), 0o644))
	_, err = Open(context.Background(), fs, cfg, OpenOptions{SkipIndex: true})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	c := openTest(t)

	tests := []struct {
		kind, like string
		want       []string
		wantErr    bool
	}{
		{kind: "modalities", want: []string{ontologytest.ModalityAudio, ontologytest.ModalityECG, ontologytest.ModalitySurvey}},
		{kind: "Modalities", like: "ec", want: []string{ontologytest.ModalityECG}},
		{kind: "techniques", like: "crqa", want: []string{ontologytest.TechCRQA}},
		{kind: "measures", like: "zzz", want: []string{}},
		{kind: "rocks", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.like, func(t *testing.T) {
			refs, err := c.List(tt.kind, tt.like)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			got := make([]string, len(refs))
			for i, r := range refs {
				got[i] = r.IRI
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInspectAndSelect(t *testing.T) {
	c := openTest(t)

	in := c.Inspect(0)
	require.NotEmpty(t, in.Classes)
	counts := map[string]int{}
	for _, cl := range in.Classes {
		counts[cl.Name] = cl.Count
	}
	assert.Equal(t, 5, counts["meas:Measure"])
	assert.Equal(t, 5, in.Stats.Measures)

	preds := map[string]int{}
	for _, p := range in.MeasurePredicates {
		preds[p.Name] = p.Count
	}
	assert.Equal(t, 6, preds["meas:measuresConstruct"])

	rows, err := c.Select("?m meas:includesModality inst:modality_ecg")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "inst:measure_heart_rate_synchrony", rows[0]["m"])

	_, err = c.Select("?m nope:thing ?x")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
