// Package mcp provides the tool parameters, handlers and Markdown presenters
// of the explainer's MCP server.
package mcp

import "github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"

// === Action Constants ===

// OntologyAction defines the valid actions for the unified ontology tool.
type OntologyAction string

const (
	OntologyActionFacets OntologyAction = "facets"
	OntologyActionStats  OntologyAction = "stats"
	OntologyActionList   OntologyAction = "list"
)

// ValidOntologyActions returns all valid ontology actions.
func ValidOntologyActions() []OntologyAction {
	return []OntologyAction{OntologyActionFacets, OntologyActionStats, OntologyActionList}
}

// IsValid checks if the action is a valid ontology action.
func (a OntologyAction) IsValid() bool {
	switch a {
	case OntologyActionFacets, OntologyActionStats, OntologyActionList:
		return true
	}
	return false
}

// EvidenceAction defines the valid actions for the evidence tool.
type EvidenceAction string

const (
	EvidenceActionPair      EvidenceAction = "pair"
	EvidenceActionConstruct EvidenceAction = "construct"
)

// IsValid checks if the action is a valid evidence action.
func (a EvidenceAction) IsValid() bool {
	return a == EvidenceActionPair || a == EvidenceActionConstruct
}

// === Tool Parameters ===

// SearchParams defines the parameters for the search tool.
type SearchParams struct {
	// Query is free text describing a construct.
	// Required.
	Query string `json:"query"`

	// K is the number of constructs to return.
	// Optional (default: search.default_k)
	K int `json:"k,omitempty"`

	// Filters restrict the measures attached to each result.
	// Optional.
	Filters search.Filters `json:"filters,omitempty"`
}

// PathsParams defines the parameters for the paths tool.
type PathsParams struct {
	From string `json:"from"` // Required: construct IRI or label
	To   string `json:"to"`   // Required: construct IRI or label

	// MaxHops bounds path length.
	// Optional (default: reasoner.max_hops)
	MaxHops *int `json:"max_hops,omitempty"`
}

// CoverageParams defines the parameters for the coverage tool.
type CoverageParams struct {
	Measures []string `json:"measures"` // Required: measure IRIs, ids or labels
}

// EvidenceParams defines the parameters for the evidence tool.
type EvidenceParams struct {
	// Action specifies which operation to perform.
	// Optional. One of: pair (default), construct
	Action EvidenceAction `json:"action,omitempty"`

	// A and B name the two constructs.
	// Required for: pair
	A string `json:"a,omitempty"`
	B string `json:"b,omitempty"`

	// Construct names the construct whose records are listed.
	// Required for: construct
	Construct string `json:"construct,omitempty"`
}

// OntologyParams defines the parameters for the unified ontology tool.
// Consolidates: facets, stats, list
type OntologyParams struct {
	// Action specifies which operation to perform.
	// Required. One of: facets, stats, list
	Action OntologyAction `json:"action"`

	// Kind is the entity kind to list (constructs, measures, modalities, ...).
	// Required for: list
	Kind string `json:"kind,omitempty"`

	// Like keeps labels containing this text, case-insensitively.
	// Optional for: list
	Like string `json:"like,omitempty"`
}
