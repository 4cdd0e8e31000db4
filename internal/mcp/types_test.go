package mcp

import "testing"

func TestOntologyAction_IsValid(t *testing.T) {
	tests := []struct {
		action OntologyAction
		want   bool
	}{
		{OntologyActionFacets, true},
		{OntologyActionStats, true},
		{OntologyActionList, true},
		{"invalid", false},
		{"", false},
		{"LIST", false}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.want {
				t.Errorf("OntologyAction(%q).IsValid() = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestValidOntologyActions(t *testing.T) {
	for _, a := range ValidOntologyActions() {
		if !a.IsValid() {
			t.Errorf("ValidOntologyActions() returned invalid action %q", a)
		}
	}
}

func TestEvidenceAction_IsValid(t *testing.T) {
	tests := []struct {
		action EvidenceAction
		want   bool
	}{
		{EvidenceActionPair, true},
		{EvidenceActionConstruct, true},
		{"paths", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.want {
				t.Errorf("EvidenceAction(%q).IsValid() = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}
