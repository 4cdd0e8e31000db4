package ontology

import (
	"fmt"
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
)

// Ref identifies one individual.
type Ref struct {
	IRI   string `json:"iri" yaml:"iri"`
	Label string `json:"label" yaml:"label"`
	Kind  Kind   `json:"-" yaml:"-"`
}

// Construct is a theoretical concept.
type Construct struct {
	Ref         `yaml:",inline"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Broader     []Ref  `json:"broader,omitempty" yaml:"broader,omitempty"`
	Narrower    []Ref  `json:"narrower,omitempty" yaml:"narrower,omitempty"`
}

// Measure is an operationalization of one or more constructs.
type Measure struct {
	Ref         `yaml:",inline"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Constructs  []Ref  `json:"constructs" yaml:"constructs"`
	Modalities  []Ref  `json:"modalities" yaml:"modalities"`
	Techniques  []Ref  `json:"techniques" yaml:"techniques"`
	Levels      []Ref  `json:"levels" yaml:"levels"`
}

// View reads typed entities out of a store. It holds no state beyond the
// store and vocabulary and is safe for concurrent use on a frozen store.
type View struct {
	store *graph.Store
	vocab Vocabulary
}

// NewView binds the vocabulary prefixes and wraps the store.
func NewView(s *graph.Store, v Vocabulary) *View {
	if !s.Frozen() {
		v.Bind(s)
	}
	return &View{store: s, vocab: v}
}

func (v *View) Store() *graph.Store     { return v.store }
func (v *View) Vocabulary() Vocabulary { return v.vocab }

// Ref builds a reference with the node's label.
func (v *View) Ref(t graph.Term, k Kind) Ref {
	return Ref{IRI: t.Value, Label: v.store.Label(t), Kind: k}
}

func (v *View) refs(ts []graph.Term, k Kind) []Ref {
	out := make([]Ref, 0, len(ts))
	for _, t := range ts {
		if t.IsResource() {
			out = append(out, v.Ref(t, k))
		}
	}
	return out
}

func (v *View) literal(t graph.Term, p Predicate) string {
	if o, ok := v.store.Object(t, v.vocab.P(p)); ok {
		return o.Value
	}
	return ""
}

func (v *View) float(t graph.Term, p Predicate) *float64 {
	if o, ok := v.store.Object(t, v.vocab.P(p)); ok {
		if f, ok := o.Float(); ok {
			return &f
		}
	}
	return nil
}

func (v *View) int(t graph.Term, p Predicate) *int64 {
	if o, ok := v.store.Object(t, v.vocab.P(p)); ok {
		if n, ok := o.Int(); ok {
			return &n
		}
	}
	return nil
}

// typed returns every subject typed with the kind's class or one of its
// subclasses.
func (v *View) typed(class string) []graph.Term {
	seen := map[graph.Term]bool{}
	for _, c := range v.store.SubclassesOf(class) {
		for _, s := range v.store.Subjects(graph.IRI(graph.RDFType), c) {
			seen[s] = true
		}
	}
	out := make([]graph.Term, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// Individuals lists every node of kind, sorted by IRI.
func (v *View) Individuals(k Kind) []Ref {
	if k == KindConstruct {
		cs := v.constructTerms()
		return v.refs(cs, k)
	}
	return v.refs(v.typed(v.vocab.Class(k)), k)
}

// constructTerms returns individuals typed as constructs plus the strict
// subclasses of the Construct class; the source ontologies use both forms.
func (v *View) constructTerms() []graph.Term {
	root := v.vocab.Class(KindConstruct)
	seen := map[graph.Term]bool{}
	for _, t := range v.typed(root) {
		seen[t] = true
	}
	for _, c := range v.store.SubclassesOf(root) {
		if c.Value != root {
			seen[c] = true
		}
	}
	out := make([]graph.Term, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// IsKind reports whether iri is a node of kind.
func (v *View) IsKind(iri string, k Kind) bool {
	t := graph.IRI(iri)
	if k == KindConstruct {
		root := v.vocab.Class(KindConstruct)
		for _, c := range v.store.SubclassesOf(root) {
			if c == t && c.Value != root {
				return true
			}
			if v.store.Has(t, graph.IRI(graph.RDFType), c) {
				return true
			}
		}
		return false
	}
	for _, c := range v.store.SubclassesOf(v.vocab.Class(k)) {
		if v.store.Has(t, graph.IRI(graph.RDFType), c) {
			return true
		}
	}
	return false
}

// Constructs returns every construct, sorted by IRI.
func (v *View) Constructs() []Construct {
	terms := v.constructTerms()
	out := make([]Construct, 0, len(terms))
	for _, t := range terms {
		out = append(out, v.construct(t))
	}
	return out
}

// Construct returns one construct or a not-found error.
func (v *View) Construct(iri string) (Construct, error) {
	if !v.IsKind(iri, KindConstruct) {
		return Construct{}, apperr.NotFound("construct", iri)
	}
	return v.construct(graph.IRI(iri)), nil
}

func (v *View) construct(t graph.Term) Construct {
	return Construct{
		Ref:         v.Ref(t, KindConstruct),
		Description: v.literal(t, PredHasDescription),
		Broader:     v.refs(v.store.Objects(t, v.vocab.P(PredBroader)), KindConstruct),
		Narrower:    v.refs(v.store.Objects(t, v.vocab.P(PredNarrower)), KindConstruct),
	}
}

// Measures returns every measure, sorted by IRI.
func (v *View) Measures() []Measure {
	terms := v.typed(v.vocab.Class(KindMeasure))
	out := make([]Measure, 0, len(terms))
	for _, t := range terms {
		out = append(out, v.measure(t))
	}
	return out
}

// Measure returns one measure or a not-found error.
func (v *View) Measure(iri string) (Measure, error) {
	if !v.IsKind(iri, KindMeasure) {
		return Measure{}, apperr.NotFound("measure", iri)
	}
	return v.measure(graph.IRI(iri)), nil
}

func (v *View) measure(t graph.Term) Measure {
	return Measure{
		Ref:         v.Ref(t, KindMeasure),
		Description: v.literal(t, PredHasDescription),
		Constructs:  v.refs(v.store.Objects(t, v.vocab.P(PredMeasuresConstruct)), KindConstruct),
		Modalities:  v.refs(v.store.Objects(t, v.vocab.P(PredIncludesModality)), KindModality),
		Techniques:  v.refs(v.store.Objects(t, v.vocab.P(PredUsesTechnique)), KindTechnique),
		Levels:      v.refs(v.store.Objects(t, v.vocab.P(PredHasLevel)), KindLevel),
	}
}

// MeasuresOf returns the measures linked to a construct.
func (v *View) MeasuresOf(constructIRI string) []Measure {
	subs := v.store.Subjects(v.vocab.P(PredMeasuresConstruct), graph.IRI(constructIRI))
	out := make([]Measure, 0, len(subs))
	for _, s := range subs {
		out = append(out, v.measure(s))
	}
	return out
}

// Violation is a broken data-model invariant.
type Violation struct {
	Subject string `json:"subject"`
	Rule    string `json:"rule"`
}

func (x Violation) String() string { return fmt.Sprintf("%s: %s", x.Subject, x.Rule) }

// CheckInvariants reports measures missing a construct, modality or
// technique link and evidence records without exactly one endpoint on
// each side.
func (v *View) CheckInvariants() []Violation {
	var out []Violation
	for _, m := range v.Measures() {
		if len(m.Constructs) == 0 {
			out = append(out, Violation{m.IRI, "measure has no construct"})
		}
		if len(m.Modalities) == 0 {
			out = append(out, Violation{m.IRI, "measure has no modality"})
		}
		if len(m.Techniques) == 0 {
			out = append(out, Violation{m.IRI, "measure has no analytic technique"})
		}
	}
	exactlyOne := func(t graph.Term, p Predicate, rule string) {
		if n := len(v.store.Objects(t, v.vocab.P(p))); n != 1 {
			out = append(out, Violation{t.Value, fmt.Sprintf("%s (found %d)", rule, n)})
		}
	}
	for _, t := range v.typed(v.vocab.Class(KindEffectSize)) {
		exactlyOne(t, PredIndependentVariable, "effect size needs exactly one independent variable")
		exactlyOne(t, PredDependentVariable, "effect size needs exactly one dependent variable")
	}
	for _, t := range v.typed(v.vocab.Class(KindClassRelationship)) {
		exactlyOne(t, PredSourceConstruct, "class-level relationship needs exactly one source construct")
		exactlyOne(t, PredTargetConstruct, "class-level relationship needs exactly one target construct")
	}
	return out
}

// Stats summarizes graph size.
type Stats struct {
	Triples    int `json:"total_triples"`
	Classes    int `json:"classes"`
	Properties int `json:"properties"`
	Constructs int `json:"constructs"`
	Measures   int `json:"measures"`
	Studies    int `json:"studies"`
	Effects    int `json:"effects"`
}

// Stats counts the main entity kinds.
func (v *View) Stats() Stats {
	s := v.store
	typ := graph.IRI(graph.RDFType)
	props := len(s.Subjects(typ, graph.IRI(graph.NamespaceOWL+"ObjectProperty"))) +
		len(s.Subjects(typ, graph.IRI(graph.NamespaceOWL+"DatatypeProperty")))
	studies := map[string]bool{}
	for _, k := range []string{v.vocab.StudyClass(), v.vocab.Class(KindPrimaryStudy), v.vocab.Class(KindMetaAnalysis)} {
		for _, t := range v.typed(k) {
			studies[t.Value] = true
		}
	}
	return Stats{
		Triples:    s.Len(),
		Classes:    len(s.Subjects(typ, graph.IRI(graph.OWLClass))),
		Properties: props,
		Constructs: len(v.constructTerms()),
		Measures:   len(v.typed(v.vocab.Class(KindMeasure))),
		Studies:    len(studies),
		Effects:    len(v.typed(v.vocab.Class(KindEffectSize))),
	}
}
