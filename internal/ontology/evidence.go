package ontology

import (
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
)

// EffectSize is one statistical result from a primary study.
type EffectSize struct {
	Ref               `yaml:",inline"`
	Study             *Ref     `json:"study,omitempty" yaml:"study,omitempty"`
	Independent       []Ref    `json:"independent" yaml:"independent"`
	Dependent         []Ref    `json:"dependent" yaml:"dependent"`
	Value             *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Metric            string   `json:"metric,omitempty" yaml:"metric,omitempty"`
	LowerCI           *float64 `json:"lower_ci,omitempty" yaml:"lower_ci,omitempty"`
	UpperCI           *float64 `json:"upper_ci,omitempty" yaml:"upper_ci,omitempty"`
	PValue            *float64 `json:"p_value,omitempty" yaml:"p_value,omitempty"`
	StandardError     *float64 `json:"standard_error,omitempty" yaml:"standard_error,omitempty"`
	IndividualN       *int64   `json:"individual_n,omitempty" yaml:"individual_n,omitempty"`
	TeamN             *int64   `json:"team_n,omitempty" yaml:"team_n,omitempty"`
	AnalysisLevel     string   `json:"analysis_level,omitempty" yaml:"analysis_level,omitempty"`
	PerturbationPhase string   `json:"perturbation_phase,omitempty" yaml:"perturbation_phase,omitempty"`
	Notes             string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ClassRelationship is a meta-analytic summary between two constructs.
type ClassRelationship struct {
	Ref          `yaml:",inline"`
	MetaAnalysis *Ref     `json:"meta_analysis,omitempty" yaml:"meta_analysis,omitempty"`
	Source       []Ref    `json:"source" yaml:"source"`
	Target       []Ref    `json:"target" yaml:"target"`
	Value        *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Metric       string   `json:"metric,omitempty" yaml:"metric,omitempty"`
	LowerCI      *float64 `json:"lower_ci,omitempty" yaml:"lower_ci,omitempty"`
	UpperCI      *float64 `json:"upper_ci,omitempty" yaml:"upper_ci,omitempty"`
}

// Study is a primary study or meta-analysis.
type Study struct {
	Ref         `yaml:",inline"`
	Meta        bool   `json:"meta_analysis" yaml:"meta_analysis"`
	Population  string `json:"population,omitempty" yaml:"population,omitempty"`
	Publication *Ref   `json:"publication,omitempty" yaml:"publication,omitempty"`
	Aggregates  []Ref  `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
}

// Publication is a bibliographic source.
type Publication struct {
	Ref         `yaml:",inline"`
	DOI         string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Year        *int64 `json:"year,omitempty" yaml:"year,omitempty"`
	FirstAuthor string `json:"first_author,omitempty" yaml:"first_author,omitempty"`
}

func (v *View) firstIncoming(t graph.Term, p Predicate, k Kind) *Ref {
	subs := v.store.Subjects(v.vocab.P(p), t)
	if len(subs) == 0 {
		return nil
	}
	r := v.Ref(subs[0], k)
	return &r
}

// EffectSizes returns every effect size, sorted by IRI.
func (v *View) EffectSizes() []EffectSize {
	terms := v.typed(v.vocab.Class(KindEffectSize))
	out := make([]EffectSize, 0, len(terms))
	for _, t := range terms {
		out = append(out, v.effectSize(t))
	}
	return out
}

// EffectSize returns one effect size or a not-found error.
func (v *View) EffectSize(iri string) (EffectSize, error) {
	if !v.IsKind(iri, KindEffectSize) {
		return EffectSize{}, apperr.NotFound("effect size", iri)
	}
	return v.effectSize(graph.IRI(iri)), nil
}

func (v *View) effectSize(t graph.Term) EffectSize {
	return EffectSize{
		Ref:               v.Ref(t, KindEffectSize),
		Study:             v.firstIncoming(t, PredReportsEffectSize, KindPrimaryStudy),
		Independent:       v.refs(v.store.Objects(t, v.vocab.P(PredIndependentVariable)), KindMeasure),
		Dependent:         v.refs(v.store.Objects(t, v.vocab.P(PredDependentVariable)), KindMeasure),
		Value:             v.float(t, PredEffectValue),
		Metric:            v.literal(t, PredEffectMetric),
		LowerCI:           v.float(t, PredLowerCI),
		UpperCI:           v.float(t, PredUpperCI),
		PValue:            v.float(t, PredPValue),
		StandardError:     v.float(t, PredStandardError),
		IndividualN:       v.int(t, PredIndividualN),
		TeamN:             v.int(t, PredTeamN),
		AnalysisLevel:     v.literal(t, PredAnalysisLevel),
		PerturbationPhase: v.literal(t, PredPerturbationPhase),
		Notes:             v.literal(t, PredNotes),
	}
}

// ClassRelationships returns every class-level relationship, sorted by IRI.
func (v *View) ClassRelationships() []ClassRelationship {
	terms := v.typed(v.vocab.Class(KindClassRelationship))
	out := make([]ClassRelationship, 0, len(terms))
	for _, t := range terms {
		out = append(out, v.classRelationship(t))
	}
	return out
}

func (v *View) classRelationship(t graph.Term) ClassRelationship {
	return ClassRelationship{
		Ref:          v.Ref(t, KindClassRelationship),
		MetaAnalysis: v.firstIncoming(t, PredSummarizesRelationship, KindMetaAnalysis),
		Source:       v.refs(v.store.Objects(t, v.vocab.P(PredSourceConstruct)), KindConstruct),
		Target:       v.refs(v.store.Objects(t, v.vocab.P(PredTargetConstruct)), KindConstruct),
		Value:        v.float(t, PredEffectValue),
		Metric:       v.literal(t, PredEffectMetric),
		LowerCI:      v.float(t, PredLowerCI),
		UpperCI:      v.float(t, PredUpperCI),
	}
}

// Studies returns primary studies and meta-analyses, sorted by IRI.
func (v *View) Studies() []Study {
	seen := map[graph.Term]bool{}
	var out []Study
	add := func(class string, meta bool) {
		for _, t := range v.typed(class) {
			if seen[t] {
				continue
			}
			seen[t] = true
			k := KindPrimaryStudy
			if meta {
				k = KindMetaAnalysis
			}
			out = append(out, Study{
				Ref:         v.Ref(t, k),
				Meta:        meta,
				Population:  v.literal(t, PredStudyPopulation),
				Publication: v.firstIncoming(t, PredReportsStudy, KindPublication),
				Aggregates:  v.refs(v.store.Objects(t, v.vocab.P(PredAggregatesStudy)), KindPrimaryStudy),
			})
		}
	}
	add(v.vocab.Class(KindMetaAnalysis), true)
	add(v.vocab.Class(KindPrimaryStudy), false)
	add(v.vocab.StudyClass(), false)
	sortRefs(out, func(s Study) string { return s.IRI })
	return out
}

// Publications returns every publication, sorted by IRI.
func (v *View) Publications() []Publication {
	terms := v.typed(v.vocab.Class(KindPublication))
	out := make([]Publication, 0, len(terms))
	for _, t := range terms {
		out = append(out, Publication{
			Ref:         v.Ref(t, KindPublication),
			DOI:         v.literal(t, PredDOI),
			Year:        v.int(t, PredPubYear),
			FirstAuthor: v.literal(t, PredFirstAuthor),
		})
	}
	return out
}

// EvidenceFor returns the effect sizes whose independent or dependent
// measure operationalizes the construct, and the class-level relationships
// naming it as source or target.
func (v *View) EvidenceFor(constructIRI string) ([]EffectSize, []ClassRelationship) {
	c := graph.IRI(constructIRI)
	seen := map[graph.Term]bool{}
	var effects []EffectSize
	for _, m := range v.store.Subjects(v.vocab.P(PredMeasuresConstruct), c) {
		for _, p := range []Predicate{PredIndependentVariable, PredDependentVariable} {
			for _, s := range v.store.Subjects(v.vocab.P(p), m) {
				if !seen[s] && v.IsKind(s.Value, KindEffectSize) {
					seen[s] = true
					effects = append(effects, v.effectSize(s))
				}
			}
		}
	}
	var rels []ClassRelationship
	for _, p := range []Predicate{PredSourceConstruct, PredTargetConstruct} {
		for _, s := range v.store.Subjects(v.vocab.P(p), c) {
			if !seen[s] && v.IsKind(s.Value, KindClassRelationship) {
				seen[s] = true
				rels = append(rels, v.classRelationship(s))
			}
		}
	}
	sortRefs(effects, func(e EffectSize) string { return e.IRI })
	sortRefs(rels, func(r ClassRelationship) string { return r.IRI })
	return effects, rels
}
