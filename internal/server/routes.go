package server

import (
	"net/http"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/metrics"
)

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/facets", s.handleFacets)
	mux.HandleFunc("GET /api/list/{kind}", s.handleList)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/paths", s.handlePaths)
	mux.HandleFunc("POST /api/coverage", s.handleCoverage)
	mux.HandleFunc("GET /api/evidence", s.handleEvidence)
	mux.HandleFunc("GET /api/constructs/evidence", s.handleConstructEvidence)
	mux.Handle("GET /metrics", metrics.Handler())

	return s.requestID(s.instrument(s.corsMiddleware(mux)))
}
