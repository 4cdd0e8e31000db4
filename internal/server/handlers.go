package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]string{"status": "ok"})
}

// handleInfo
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := InfoResponse{
		Version:  s.version,
		Sources:  s.app.Sources,
		Triples:  s.app.Store.Len(),
		Index:    s.app.Index != nil,
		Explain:  "text",
		MaxHops:  s.app.Cfg.Reasoner.MaxHops,
		DefaultK: s.app.Cfg.Search.DefaultK,
	}
	if s.app.Index != nil {
		info.Vectors = s.app.Index.Len()
		info.Model = s.app.Index.Model()
	}
	if _, ok := s.app.Explainer.(reasoner.LLMExplainer); ok {
		info.Explain = "llm"
	}
	writeAPIJSON(w, info)
}

// handleStats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, s.app.Stats())
}

// handleFacets
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, s.app.Facets())
}

// handleList
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	refs, err := s.app.List(r.PathValue("kind"), r.URL.Query().Get("like"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, refs)
}

// handleSearch
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}
	res, err := s.app.Search(r.Context(), req.Query, req.K, req.Filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

// handlePaths
func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, r, apperr.InvalidArgument("from and to are required"))
		return
	}
	maxHops := -1
	if v := q.Get("max_hops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, apperr.InvalidArgument("max_hops %q is not an integer", v))
			return
		}
		if n < 0 {
			writeError(w, r, apperr.InvalidArgument("max_hops must not be negative, got %d", n))
			return
		}
		maxHops = n
	}
	res, err := s.app.Paths(r.Context(), from, to, maxHops)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

// handleCoverage
func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	var req CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}
	report, err := s.app.Coverage(req.Measures)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, report)
}

// handleEvidence
func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	if a == "" || b == "" {
		writeError(w, r, apperr.InvalidArgument("a and b are required"))
		return
	}
	res, err := s.app.Evidence(r.Context(), a, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

// handleConstructEvidence
func (s *Server) handleConstructEvidence(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("construct")
	if ref == "" {
		writeError(w, r, apperr.InvalidArgument("construct is required"))
		return
	}
	res, err := s.app.EvidenceForConstruct(ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNoIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func writeAPIJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
