package search

import (
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// FacetValue is one filterable value and how many measures (or studies,
// for populations) carry it.
type FacetValue struct {
	IRI   string `json:"iri,omitempty" yaml:"iri,omitempty"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Facets lists the values a search can be filtered by.
type Facets struct {
	Modalities  []FacetValue `json:"modalities" yaml:"modalities"`
	Levels      []FacetValue `json:"levels" yaml:"levels"`
	Techniques  []FacetValue `json:"techniques" yaml:"techniques"`
	Populations []FacetValue `json:"populations" yaml:"populations"`
}

// Facets counts facet values over the engine's graph.
func (e *Engine) Facets() Facets { return CollectFacets(e.view) }

// CollectFacets counts facet values over view. Values no measure uses are
// still listed with a zero count.
func CollectFacets(view *ontology.View) Facets {
	measures := view.Measures()
	count := func(k ontology.Kind, pick func(ontology.Measure) []ontology.Ref) []FacetValue {
		n := map[string]int{}
		for _, m := range measures {
			for _, r := range pick(m) {
				n[r.IRI]++
			}
		}
		var out []FacetValue
		for _, r := range view.Individuals(k) {
			out = append(out, FacetValue{IRI: r.IRI, Label: r.Label, Count: n[r.IRI]})
		}
		sortFacets(out)
		return out
	}

	pops := map[string]int{}
	for _, s := range view.Studies() {
		if s.Population != "" {
			pops[s.Population]++
		}
	}
	var populations []FacetValue
	for p, n := range pops {
		populations = append(populations, FacetValue{Label: p, Count: n})
	}
	sortFacets(populations)

	return Facets{
		Modalities:  count(ontology.KindModality, func(m ontology.Measure) []ontology.Ref { return m.Modalities }),
		Levels:      count(ontology.KindLevel, func(m ontology.Measure) []ontology.Ref { return m.Levels }),
		Techniques:  count(ontology.KindTechnique, func(m ontology.Measure) []ontology.Ref { return m.Techniques }),
		Populations: populations,
	}
}

// most used first, then by label
func sortFacets(vs []FacetValue) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Count != vs[j].Count {
			return vs[i].Count > vs[j].Count
		}
		if vs[i].Label != vs[j].Label {
			return vs[i].Label < vs[j].Label
		}
		return vs[i].IRI < vs[j].IRI
	})
}
