package reasoner

import (
	"context"
	"errors"
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// EvidenceSummary gathers the quantitative records relating two
// constructs. Values and intervals are passed through as recorded.
type EvidenceSummary struct {
	A             ontology.Ref                 `json:"a" yaml:"a"`
	B             ontology.Ref                 `json:"b" yaml:"b"`
	Direct        bool                         `json:"direct" yaml:"direct"`
	Path          *Path                        `json:"path,omitempty" yaml:"path,omitempty"`
	Effects       []ontology.EffectSize        `json:"effects" yaml:"effects"`
	Relationships []ontology.ClassRelationship `json:"relationships" yaml:"relationships"`
}

// Empty reports whether no record links the pair.
func (s EvidenceSummary) Empty() bool {
	return len(s.Effects) == 0 && len(s.Relationships) == 0
}

// AggregateEvidence collects the effect sizes and class-level
// relationships between a and b. When none link them directly, the
// records along the shortest path within DefaultMaxHops are used instead.
func (r *Reasoner) AggregateEvidence(ctx context.Context, a, b string) (EvidenceSummary, error) {
	from, err := r.resolver.Resolve(a, ontology.KindConstruct)
	if err != nil {
		return EvidenceSummary{}, err
	}
	to, err := r.resolver.Resolve(b, ontology.KindConstruct)
	if err != nil {
		return EvidenceSummary{}, err
	}
	sum := EvidenceSummary{
		A:             r.constructRef(from.IRI),
		B:             r.constructRef(to.IRI),
		Effects:       []ontology.EffectSize{},
		Relationships: []ontology.ClassRelationship{},
	}
	if from.IRI == to.IRI {
		return sum, nil
	}

	acc := newAccumulator()
	acc.add(r, from.IRI, to.IRI)
	if !acc.empty() {
		sum.Direct = true
		acc.into(r, &sum)
		return sum, nil
	}

	paths, err := r.PathsBetween(ctx, from.IRI, to.IRI, DefaultMaxHops, Budget{})
	if err != nil && !errors.Is(err, ErrBudgetExhausted) {
		return EvidenceSummary{}, err
	}
	if len(paths) == 0 {
		return sum, nil
	}
	p := paths[0]
	sum.Path = &p
	prev := p.Start.IRI
	for _, st := range p.Steps {
		acc.add(r, prev, st.Construct.IRI)
		prev = st.Construct.IRI
	}
	acc.into(r, &sum)
	return sum, nil
}

type accumulator struct {
	effects map[string]bool
	rels    map[string]bool
}

func newAccumulator() *accumulator {
	return &accumulator{effects: map[string]bool{}, rels: map[string]bool{}}
}

func (a *accumulator) add(r *Reasoner, x, y string) {
	for _, rel := range r.adj[x][y] {
		switch rel.Kind {
		case RelEffectSize:
			a.effects[rel.Via.IRI] = true
		case RelClassLevel:
			a.rels[rel.Via.IRI] = true
		}
	}
}

func (a *accumulator) empty() bool { return len(a.effects) == 0 && len(a.rels) == 0 }

func (a *accumulator) into(r *Reasoner, sum *EvidenceSummary) {
	for _, iri := range sortedSet(a.effects) {
		if e, err := r.view.EffectSize(iri); err == nil {
			sum.Effects = append(sum.Effects, e)
		}
	}
	if len(a.rels) == 0 {
		return
	}
	for _, rel := range r.view.ClassRelationships() {
		if a.rels[rel.IRI] {
			sum.Relationships = append(sum.Relationships, rel)
		}
	}
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
