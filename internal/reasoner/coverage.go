package reasoner

import (
	"sort"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// ConstructCoverage lists the measures of a set that cover one construct.
type ConstructCoverage struct {
	Construct ontology.Ref   `json:"construct" yaml:"construct"`
	Measures  []ontology.Ref `json:"measures" yaml:"measures"`
}

// CoverageReport is the bottom-up view of a measure set.
type CoverageReport struct {
	Measures   []ontology.Ref      `json:"measures" yaml:"measures"`
	Constructs []ConstructCoverage `json:"constructs" yaml:"constructs"`
	// Gaps are constructs covered by exactly one measure of the set.
	Gaps       []ontology.Ref `json:"gaps" yaml:"gaps"`
	Unresolved []string       `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// Coverage resolves each measure reference (IRI, id or label) and reports
// which constructs the set covers. References that resolve to nothing are
// listed in Unresolved rather than failing the call.
func (r *Reasoner) Coverage(measureRefs []string) (CoverageReport, error) {
	if len(measureRefs) == 0 {
		return CoverageReport{}, apperr.InvalidArgument("measure set is empty")
	}
	report := CoverageReport{Measures: []ontology.Ref{}, Constructs: []ConstructCoverage{}, Gaps: []ontology.Ref{}}
	seen := map[string]bool{}
	byConstruct := map[string][]ontology.Ref{}
	for _, raw := range measureRefs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ref, err := r.resolver.Resolve(raw, ontology.KindMeasure)
		if apperr.IsNotFound(err) {
			report.Unresolved = append(report.Unresolved, raw)
			continue
		}
		if err != nil {
			return CoverageReport{}, err
		}
		if seen[ref.IRI] {
			continue
		}
		seen[ref.IRI] = true
		m, err := r.view.Measure(ref.IRI)
		if err != nil {
			return CoverageReport{}, err
		}
		report.Measures = append(report.Measures, m.Ref)
		for _, c := range m.Constructs {
			byConstruct[c.IRI] = append(byConstruct[c.IRI], m.Ref)
		}
	}
	sort.Slice(report.Measures, func(i, j int) bool { return report.Measures[i].IRI < report.Measures[j].IRI })

	iris := make([]string, 0, len(byConstruct))
	for iri := range byConstruct {
		iris = append(iris, iri)
	}
	sort.Strings(iris)
	for _, iri := range iris {
		ms := byConstruct[iri]
		sort.Slice(ms, func(i, j int) bool { return ms[i].IRI < ms[j].IRI })
		c := r.constructRef(iri)
		report.Constructs = append(report.Constructs, ConstructCoverage{Construct: c, Measures: ms})
		if len(ms) == 1 {
			report.Gaps = append(report.Gaps, c)
		}
	}
	return report, nil
}

func (r *Reasoner) constructRef(iri string) ontology.Ref {
	if ref, ok := r.refs[iri]; ok {
		return ref
	}
	return ontology.Ref{IRI: iri, Label: iri, Kind: ontology.KindConstruct}
}
