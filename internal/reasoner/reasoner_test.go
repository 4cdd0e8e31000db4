package reasoner

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	fx "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
)

func route(p Path) []string {
	out := []string{p.Start.IRI}
	for _, st := range p.Steps {
		out = append(out, st.Construct.IRI)
	}
	return out
}

func routes(ps []Path) [][]string {
	out := make([][]string, len(ps))
	for i, p := range ps {
		out[i] = route(p)
	}
	return out
}

func TestAdjacency(t *testing.T) {
	r := New(fx.View(t))

	assert.Equal(t, []string{fx.Coordination, fx.TeamPerformance}, r.Neighbors(fx.SharedMentalModels))
	assert.Empty(t, r.Neighbors(fx.Trust))

	rels := r.Relations(fx.SharedMentalModels, fx.Coordination)
	require.Len(t, rels, 1)
	assert.Equal(t, RelSharedMeasure, rels[0].Kind)
	assert.Equal(t, fx.SpeechOverlap, rels[0].Via.IRI)

	rels = r.Relations(fx.TeamPerformance, fx.Coordination)
	require.Len(t, rels, 1)
	assert.Equal(t, RelEffectSize, rels[0].Kind)
	assert.Equal(t, fx.Coordination, rels[0].From, "direction follows the independent variable")
	assert.Equal(t, fx.TeamPerformance, rels[0].To)
}

func TestPathsBetweenHopBounds(t *testing.T) {
	direct := []string{fx.SharedMentalModels, fx.TeamPerformance}
	viaCoordination := []string{fx.SharedMentalModels, fx.Coordination, fx.TeamPerformance}

	tests := []struct {
		name    string
		maxHops int
		want    [][]string
	}{
		{"zero hops", 0, [][]string{}},
		{"direct edges only", 1, [][]string{direct}},
		{"two hops", 2, [][]string{direct, viaCoordination}},
		{"default", DefaultMaxHops, [][]string{direct, viaCoordination}},
	}
	r := New(fx.View(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := r.PathsBetween(context.Background(), fx.SharedMentalModels, fx.TeamPerformance, tt.maxHops, Budget{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, routes(paths))
			for _, p := range paths {
				assert.LessOrEqual(t, p.Hops(), tt.maxHops)
			}
		})
	}
}

func TestPathsBetweenEvidenceAndLabels(t *testing.T) {
	r := New(fx.View(t))
	paths, err := r.PathsBetween(context.Background(), "Shared Mental Model ", "team performance", 1, Budget{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	p := paths[0]
	assert.Equal(t, "shared mental models", p.Start.Label)
	assert.Equal(t, fx.TeamPerformance, p.End().IRI)
	require.Len(t, p.Steps[0].Evidence, 1)
	assert.Equal(t, RelClassLevel, p.Steps[0].Evidence[0].Kind)
	assert.Equal(t, fx.ClassRel1, p.Steps[0].Evidence[0].Via.IRI)
	assert.Equal(t, "shared mental models -> team performance", p.String())
}

func TestPathsBetweenEdgeCases(t *testing.T) {
	r := New(fx.View(t))
	ctx := context.Background()

	paths, err := r.PathsBetween(ctx, fx.SharedMentalModels, fx.Trust, 3, Budget{})
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = r.PathsBetween(ctx, fx.Coordination, fx.Coordination, 3, Budget{})
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = r.PathsBetween(ctx, fx.SharedMentalModels, fx.TeamPerformance, -1, Budget{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = r.PathsBetween(ctx, "psychological safety", fx.TeamPerformance, 2, Budget{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPathsBetweenBudget(t *testing.T) {
	r := New(fx.View(t))

	paths, err := r.PathsBetween(context.Background(), fx.SharedMentalModels, fx.TeamPerformance, 2, Budget{MaxExpansions: 1})
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, [][]string{{fx.SharedMentalModels, fx.TeamPerformance}}, routes(paths))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths, err = r.PathsBetween(ctx, fx.SharedMentalModels, fx.TeamPerformance, 2, Budget{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}

func TestCoverage(t *testing.T) {
	r := New(fx.View(t))
	report, err := r.Coverage([]string{"Speech overlap", fx.HeartRateSync, "task score", "speech  overlap", "", "pupil dilation"})
	require.NoError(t, err)

	var measures []string
	for _, m := range report.Measures {
		measures = append(measures, m.IRI)
	}
	assert.Equal(t, []string{fx.HeartRateSync, fx.SpeechOverlap, fx.TaskScore}, measures)

	require.Len(t, report.Constructs, 3)
	assert.Equal(t, fx.Coordination, report.Constructs[0].Construct.IRI)
	assert.Len(t, report.Constructs[0].Measures, 2)

	var gaps []string
	for _, g := range report.Gaps {
		gaps = append(gaps, g.IRI)
	}
	assert.Equal(t, []string{fx.SharedMentalModels, fx.TeamPerformance}, gaps)
	assert.Equal(t, []string{"pupil dilation"}, report.Unresolved)

	_, err = r.Coverage(nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestAggregateEvidence(t *testing.T) {
	r := New(fx.View(t))
	ctx := context.Background()

	sum, err := r.AggregateEvidence(ctx, fx.SharedMentalModels, fx.TeamPerformance)
	require.NoError(t, err)
	assert.True(t, sum.Direct)
	assert.Nil(t, sum.Path)
	require.Len(t, sum.Relationships, 1)
	assert.Equal(t, 0.31, *sum.Relationships[0].Value)
	assert.Empty(t, sum.Effects)

	sum, err = r.AggregateEvidence(ctx, fx.TeamPerformance, fx.Coordination)
	require.NoError(t, err)
	assert.True(t, sum.Direct)
	require.Len(t, sum.Effects, 1)
	assert.Equal(t, fx.Effect1, sum.Effects[0].IRI)
	assert.Equal(t, 0.21, *sum.Effects[0].LowerCI)

	sum, err = r.AggregateEvidence(ctx, fx.SharedMentalModels, fx.Coordination)
	require.NoError(t, err)
	assert.False(t, sum.Direct)
	require.NotNil(t, sum.Path)
	assert.Equal(t, 1, sum.Path.Hops())
	assert.True(t, sum.Empty())

	sum, err = r.AggregateEvidence(ctx, fx.Trust, fx.SharedMentalModels)
	require.NoError(t, err)
	assert.Nil(t, sum.Path)
	assert.True(t, sum.Empty())
}

// MockChatModel implements model.BaseChatModel for testing
type MockChatModel struct {
	Response *schema.Message
	Err      error
	Prompt   string
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if len(input) > 0 {
		m.Prompt = input[0].Content
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func TestExplainers(t *testing.T) {
	r := New(fx.View(t))
	ctx := context.Background()
	sum, err := r.AggregateEvidence(ctx, fx.Coordination, fx.TeamPerformance)
	require.NoError(t, err)

	text, err := TextExplainer{}.Explain(ctx, sum)
	require.NoError(t, err)
	assert.Contains(t, text, "coordination and team performance are linked directly.")
	assert.Contains(t, text, "r = 0.42 Heart rate synchrony on Task score [0.21, 0.6]")

	mock := &MockChatModel{Response: &schema.Message{Role: schema.Assistant, Content: "  Coordination predicts performance.\n"}}
	out, err := LLMExplainer{Model: mock}.Explain(ctx, sum)
	require.NoError(t, err)
	assert.Equal(t, "Coordination predicts performance.", out)
	assert.Contains(t, mock.Prompt, "r = 0.42")

	_, err = LLMExplainer{Model: &MockChatModel{Err: errors.New("rate limited")}}.Explain(ctx, sum)
	assert.ErrorContains(t, err, "rate limited")

	none, err := r.AggregateEvidence(ctx, fx.Trust, fx.Coordination)
	require.NoError(t, err)
	text, err = TextExplainer{}.Explain(ctx, none)
	require.NoError(t, err)
	assert.Equal(t, "No relationship between trust and coordination was found.\n", text)
}
