package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

var validate = validator.New()

// Filters narrow search results. Each facet is a set; a construct passes
// when at least one of its measures matches every non-empty facet. Values
// match an individual's IRI or its normalized label.
type Filters struct {
	Levels     []string `json:"levelOfAnalysis,omitempty" yaml:"levelOfAnalysis,omitempty" validate:"dive,required"`
	Modalities []string `json:"modality,omitempty" yaml:"modality,omitempty" validate:"dive,required"`
	Techniques []string `json:"technique,omitempty" yaml:"technique,omitempty" validate:"dive,required"`

	// evidence filters apply to attached effect sizes only
	MaxPValue *float64 `json:"maxPValue,omitempty" yaml:"maxPValue,omitempty" validate:"omitempty,gte=0,lte=1"`
	MinEffect *float64 `json:"minEffect,omitempty" yaml:"minEffect,omitempty"`
	MaxEffect *float64 `json:"maxEffect,omitempty" yaml:"maxEffect,omitempty"`
}

// Validate reports malformed filters as InvalidArgument.
func (f Filters) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return apperr.InvalidArgument("filter %s fails %q", v.Namespace(), v.Tag())
		}
		return apperr.InvalidArgument("filters: %v", err)
	}
	if f.MinEffect != nil && f.MaxEffect != nil && *f.MinEffect > *f.MaxEffect {
		return apperr.InvalidArgument("effect range [%g, %g] is empty", *f.MinEffect, *f.MaxEffect)
	}
	return nil
}

// facetsEmpty reports whether no facet filter is set.
func (f Filters) facetsEmpty() bool {
	return len(f.Levels) == 0 && len(f.Modalities) == 0 && len(f.Techniques) == 0
}

type facetSet map[string]bool

func newFacetSet(values []string) facetSet {
	if len(values) == 0 {
		return nil
	}
	s := facetSet{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		s[v] = true
		s[identity.Normalize(v)] = true
	}
	return s
}

// matches reports whether any ref is in the set; a nil set matches all.
func (s facetSet) matches(refs []ontology.Ref) bool {
	if s == nil {
		return true
	}
	for _, r := range refs {
		if s[r.IRI] || s[identity.Normalize(r.Label)] || s[identity.Normalize(graph.LocalName(r.IRI))] {
			return true
		}
	}
	return false
}

type compiledFilters struct {
	levels, modalities, techniques facetSet
	f                              Filters
}

func compile(f Filters) compiledFilters {
	return compiledFilters{
		levels:     newFacetSet(f.Levels),
		modalities: newFacetSet(f.Modalities),
		techniques: newFacetSet(f.Techniques),
		f:          f,
	}
}

func (c compiledFilters) measure(m ontology.Measure) bool {
	return c.levels.matches(m.Levels) && c.modalities.matches(m.Modalities) && c.techniques.matches(m.Techniques)
}

func (c compiledFilters) effect(e ontology.EffectSize) bool {
	if c.f.MaxPValue != nil && (e.PValue == nil || *e.PValue > *c.f.MaxPValue) {
		return false
	}
	if c.f.MinEffect != nil && (e.Value == nil || *e.Value < *c.f.MinEffect) {
		return false
	}
	if c.f.MaxEffect != nil && (e.Value == nil || *e.Value > *c.f.MaxEffect) {
		return false
	}
	return true
}

func (f Filters) String() string {
	var parts []string
	add := func(name string, vs []string) {
		if len(vs) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(vs, "|")))
		}
	}
	add("level", f.Levels)
	add("modality", f.Modalities)
	add("technique", f.Techniques)
	return strings.Join(parts, " ")
}
