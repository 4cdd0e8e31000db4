package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/app"
)

// ToolResult is the response of every explainer tool. Error carries
// user-facing failures so the MCP layer can mark the result as an error
// without failing the call.
type ToolResult struct {
	Action  string `json:"action"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

const (
	maxQueryLength = 1000
	maxK           = 100
)

func failed(action string, err error) *ToolResult {
	return &ToolResult{Action: action, Error: err.Error()}
}

// HandleSearch runs a semantic search and formats the ranked constructs.
func HandleSearch(ctx context.Context, a *app.Context, params SearchParams) (*ToolResult, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return &ToolResult{Action: "search", Error: "query is required"}, nil
	}
	if len(query) > maxQueryLength {
		query = query[:maxQueryLength]
	}
	k := params.K
	if k > maxK {
		k = maxK
	}
	res, err := a.Search(ctx, query, k, params.Filters)
	if err != nil {
		return failed("search", err), nil
	}
	return &ToolResult{Action: "search", Content: FormatSearch(res)}, nil
}

// HandlePaths lists the paths between two constructs.
func HandlePaths(ctx context.Context, a *app.Context, params PathsParams) (*ToolResult, error) {
	if strings.TrimSpace(params.From) == "" || strings.TrimSpace(params.To) == "" {
		return &ToolResult{Action: "paths", Error: "from and to are required"}, nil
	}
	maxHops := -1
	if params.MaxHops != nil {
		if *params.MaxHops < 0 {
			return &ToolResult{Action: "paths", Error: fmt.Sprintf("max_hops must not be negative, got %d", *params.MaxHops)}, nil
		}
		maxHops = *params.MaxHops
	}
	res, err := a.Paths(ctx, params.From, params.To, maxHops)
	if err != nil {
		return failed("paths", err), nil
	}
	return &ToolResult{Action: "paths", Content: FormatPaths(res)}, nil
}

// HandleCoverage reports the constructs covered by a measure set.
func HandleCoverage(_ context.Context, a *app.Context, params CoverageParams) (*ToolResult, error) {
	report, err := a.Coverage(params.Measures)
	if err != nil {
		return failed("coverage", err), nil
	}
	return &ToolResult{Action: "coverage", Content: FormatCoverage(report)}, nil
}

// HandleEvidence routes to the pair or construct evidence lookups.
func HandleEvidence(ctx context.Context, a *app.Context, params EvidenceParams) (*ToolResult, error) {
	action := params.Action
	if action == "" {
		action = EvidenceActionPair
	}
	if !action.IsValid() {
		return &ToolResult{
			Action: string(action),
			Error:  fmt.Sprintf("invalid action %q, must be one of: pair, construct", action),
		}, nil
	}

	switch action {
	case EvidenceActionConstruct:
		if strings.TrimSpace(params.Construct) == "" {
			return &ToolResult{Action: string(action), Error: "construct is required for construct action"}, nil
		}
		res, err := a.EvidenceForConstruct(params.Construct)
		if err != nil {
			return failed(string(action), err), nil
		}
		return &ToolResult{Action: string(action), Content: FormatConstructEvidence(res)}, nil
	default:
		if strings.TrimSpace(params.A) == "" || strings.TrimSpace(params.B) == "" {
			return &ToolResult{Action: string(action), Error: "a and b are required for pair action"}, nil
		}
		res, err := a.Evidence(ctx, params.A, params.B)
		if err != nil {
			return failed(string(action), err), nil
		}
		return &ToolResult{Action: string(action), Content: FormatEvidence(res)}, nil
	}
}

// HandleOntology is the unified handler for facets, stats and list.
func HandleOntology(_ context.Context, a *app.Context, params OntologyParams) (*ToolResult, error) {
	if !params.Action.IsValid() {
		return &ToolResult{
			Action: string(params.Action),
			Error:  fmt.Sprintf("invalid action %q, must be one of: facets, stats, list", params.Action),
		}, nil
	}

	switch params.Action {
	case OntologyActionFacets:
		return &ToolResult{Action: "facets", Content: FormatFacets(a.Facets())}, nil
	case OntologyActionStats:
		return &ToolResult{Action: "stats", Content: FormatStats(a.Stats())}, nil
	default:
		if params.Kind == "" {
			return &ToolResult{
				Action: "list",
				Error:  "kind is required for list action, one of: " + strings.Join(app.ListKindNames(), ", "),
			}, nil
		}
		refs, err := a.List(params.Kind, params.Like)
		if err != nil {
			return failed("list", err), nil
		}
		return &ToolResult{Action: "list", Content: FormatList(params.Kind, refs)}, nil
	}
}
