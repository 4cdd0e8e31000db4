package embedding

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// MockEmbedder implements embedding.Embedder for testing. Texts found in
// ByText get that vector; everything else gets Default.
type MockEmbedder struct {
	ByText  map[string][]float64
	Default []float64
	Err     error
	Calls   int
	Delay   time.Duration
}

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.Calls++
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := m.ByText[t]; ok {
			out[i] = v
		} else {
			out[i] = m.Default
		}
	}
	return out, nil
}

func constructs() []ontology.Construct {
	mk := func(iri, label string) ontology.Construct {
		return ontology.Construct{Ref: ontology.Ref{IRI: "urn:c:" + iri, Label: label}}
	}
	return []ontology.Construct{
		mk("smm", "shared mental models"),
		mk("coord", "coordination"),
		mk("trust", "trust"),
		mk("trust2", "trust twin"),
	}
}

func mockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		ByText: map[string][]float64{
			"shared mental models": {1, 0, 0},
			"coordination":         {0.8, 0.6, 0},
			"trust":                {0, 0, 1},
			"trust twin":           {0, 0, 1},
			"team cognition":       {0.9, 0.1, 0},
		},
		Default: []float64{0, 1, 0},
	}
}

func buildTestIndex(t *testing.T) (*Index, *MockEmbedder) {
	t.Helper()
	m := mockEmbedder()
	ix, err := Build(context.Background(), constructs(), m, BuildOptions{Model: "mock"})
	require.NoError(t, err)
	return ix, m
}

func TestBuildSingleBatchedCall(t *testing.T) {
	ix, m := buildTestIndex(t)
	assert.Equal(t, 1, m.Calls)
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, 3, ix.Dimensions())
	assert.Equal(t, "mock", ix.Model())
}

func TestBuildFailures(t *testing.T) {
	ctx := context.Background()

	_, err := Build(ctx, constructs(), &MockEmbedder{Err: errors.New("provider down")}, BuildOptions{})
	assert.ErrorContains(t, err, "provider down")

	_, err = Build(ctx, nil, mockEmbedder(), BuildOptions{})
	assert.Error(t, err)

	slow := mockEmbedder()
	slow.Delay = time.Second
	_, err = Build(ctx, constructs(), slow, BuildOptions{Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, slow.Calls, "no retry")

	ragged := mockEmbedder()
	ragged.ByText["trust"] = []float64{1, 2}
	_, err = Build(ctx, constructs(), ragged, BuildOptions{})
	assert.ErrorContains(t, err, "dimensions")
}

func TestQueryTopK(t *testing.T) {
	ix, m := buildTestIndex(t)
	vec, err := EmbedQuery(context.Background(), m, "team cognition")
	require.NoError(t, err)

	hits, err := ix.Query(vec, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "urn:c:smm", hits[0].IRI)
	assert.Equal(t, "urn:c:coord", hits[1].IRI)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	again, err := ix.Query(vec, 2)
	require.NoError(t, err)
	assert.Equal(t, hits, again)
}

func TestQueryTiesAndBounds(t *testing.T) {
	ix, _ := buildTestIndex(t)

	hits, err := ix.Query([]float32{0, 0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "urn:c:trust", hits[0].IRI)
	assert.Equal(t, "urn:c:trust2", hits[1].IRI)
	assert.Equal(t, hits[0].Score, hits[1].Score)

	hits, err = ix.Query([]float32{0, 0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	_, err = ix.QueryExact([]float32{0, 0, 1}, 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = ix.Query([]float32{0, 0, 1}, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = ix.Query([]float32{0, 1}, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestStaleAndOrphans(t *testing.T) {
	ix, _ := buildTestIndex(t)
	cs := constructs()
	assert.Empty(t, ix.Stale(cs))

	cs[1].Label = "team coordination"
	cs = append(cs, ontology.Construct{Ref: ontology.Ref{IRI: "urn:c:new", Label: "new"}})
	assert.Equal(t, []string{"urn:c:coord", "urn:c:new"}, ix.Stale(cs))
	assert.Equal(t, []string{"urn:c:trust2"}, ix.Orphans(cs[:3]))
}

func TestArtifactRoundTrip(t *testing.T) {
	ix, _ := buildTestIndex(t)
	path := filepath.Join(t.TempDir(), "index", "constructs.db")
	require.NoError(t, Save(ix, path))

	loaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, ix.Entries(), loaded.Entries())
	assert.Equal(t, "mock", loaded.Model())
	assert.Equal(t, 3, loaded.Dimensions())

	// overwriting replaces the artifact in place
	require.NoError(t, Save(ix, path))
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestArtifactRejectsUnknownVersion(t *testing.T) {
	ix, _ := buildTestIndex(t)
	path := filepath.Join(t.TempDir(), "constructs.db")
	require.NoError(t, Save(ix, path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE meta SET value = '99' WHERE key = 'schema_version'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrLoad)
	assert.ErrorContains(t, err, "schema version 99")

	_, err = Open(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, apperr.ErrLoad)
}

func TestCodec(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	buf := float32SliceToBytes(in)
	assert.Len(t, buf, 16)
	assert.Equal(t, []byte{0, 0, 0xc0, 0x3f}, buf[4:8])
	assert.Equal(t, in, bytesToFloat32Slice(buf))
}
