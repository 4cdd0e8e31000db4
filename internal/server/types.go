package server

import "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"

// SearchRequest is the payload for /api/search
type SearchRequest struct {
	Query   string         `json:"query"`
	K       int            `json:"k"`
	Filters search.Filters `json:"filters"`
}

// CoverageRequest is the payload for /api/coverage
type CoverageRequest struct {
	Measures []string `json:"measures"`
}

// InfoResponse describes the loaded data.
type InfoResponse struct {
	Version  string   `json:"version"`
	Sources  []string `json:"sources"`
	Triples  int      `json:"triples"`
	Index    bool     `json:"index"`
	Vectors  int      `json:"vectors,omitempty"`
	Model    string   `json:"model,omitempty"`
	Explain  string   `json:"explainer"`
	MaxHops  int      `json:"max_hops"`
	DefaultK int      `json:"default_k"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
