package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
)

func newTestServer(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	fs := afero.NewMemMapFs()
	ontologytest.Write(t, fs)
	cfg := config.Default()
	cfg.Graph.Paths = []string{ontologytest.Path}
	cfg.Embedding.Artifact = filepath.Join(t.TempDir(), "missing.db")
	a, err := app.Open(context.Background(), fs, cfg, app.OpenOptions{})
	require.NoError(t, err)
	return New(a, cfg.Server, "test", origins).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleStats(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats["measures"])
	assert.Equal(t, 1, stats["effects"])
}

func TestHandleInfo(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, []string{ontologytest.Path}, info.Sources)
	assert.False(t, info.Index)
	assert.Equal(t, "text", info.Explain)
	assert.Positive(t, info.Triples)
}

func TestHandleSearchWithoutIndex(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/search", `{"query":"coordination","k":3}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePaths(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "default hops", target: "/api/paths?from=coordination&to=team+performance", status: http.StatusOK},
		{name: "explicit hops", target: "/api/paths?from=coordination&to=trust&max_hops=2", status: http.StatusOK},
		{name: "missing to", target: "/api/paths?from=coordination", status: http.StatusBadRequest},
		{name: "bad hops", target: "/api/paths?from=coordination&to=trust&max_hops=two", status: http.StatusBadRequest},
		{name: "negative hops", target: "/api/paths?from=coordination&to=trust&max_hops=-1", status: http.StatusBadRequest},
		{name: "unknown construct", target: "/api/paths?from=cohesion&to=trust", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodGet, "/api/paths?from=coordination&to=team+performance", "")
	var res app.PathsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, ontologytest.Coordination, res.From.IRI)
	assert.NotEmpty(t, res.Paths)
}

func TestHandleCoverage(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/coverage", `{"measures":["Speech overlap","Task score","nope"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report reasoner.CoverageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Measures, 2)
	assert.Equal(t, []string{"nope"}, report.Unresolved)

	rec = do(t, h, http.MethodPost, "/api/coverage", `{"measures":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvidence(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/evidence?a=coordination&b=team+performance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res app.EvidenceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Summary.Effects)
	assert.NotEmpty(t, res.Explanation)

	rec = do(t, h, http.MethodGet, "/api/evidence?a=coordination", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleConstructEvidence(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/constructs/evidence?construct=shared+mental+models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res app.ConstructEvidence
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Measures, 2)
	assert.Len(t, res.Relationships, 1)
}

func TestHandleList(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/list/techniques?like=crqa", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ontologytest.TechCRQA)

	rec = do(t, h, http.MethodGet, "/api/list/rocks", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/healthz", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GET /healthz")
}
