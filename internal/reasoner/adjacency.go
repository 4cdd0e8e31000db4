// Package reasoner infers relationships between constructs: bounded path
// search, measure-set coverage and evidence aggregation.
package reasoner

import (
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// RelationKind says why two constructs are adjacent.
type RelationKind string

const (
	// RelClassLevel is a meta-analytic class-level relationship.
	RelClassLevel RelationKind = "class_level_relationship"
	// RelSharedMeasure means one measure operationalizes both constructs.
	RelSharedMeasure RelationKind = "shared_measure"
	// RelEffectSize is an effect size whose independent variable measures
	// one construct and whose dependent variable measures the other.
	RelEffectSize RelationKind = "effect_size"
)

// Relation is one piece of evidence linking two constructs. From and To
// keep the direction of the underlying record; shared measures have none
// and are stored with From < To.
type Relation struct {
	Kind RelationKind `json:"kind" yaml:"kind"`
	Via  ontology.Ref `json:"via" yaml:"via"`
	From string       `json:"from" yaml:"from"`
	To   string       `json:"to" yaml:"to"`
}

// Reasoner answers relationship questions over a frozen view. It is safe
// for concurrent use.
type Reasoner struct {
	view     *ontology.View
	resolver *identity.Resolver
	refs     map[string]ontology.Ref
	adj      map[string]map[string][]Relation
	sorted   map[string][]string
}

// New indexes the construct adjacency of view.
func New(view *ontology.View) *Reasoner {
	r := &Reasoner{
		view:     view,
		resolver: identity.NewResolver(view),
		refs:     map[string]ontology.Ref{},
		adj:      map[string]map[string][]Relation{},
		sorted:   map[string][]string{},
	}
	for _, c := range view.Constructs() {
		r.refs[c.IRI] = c.Ref
	}
	r.index()
	return r
}

// Resolver exposes the read-path resolver the reasoner uses.
func (r *Reasoner) Resolver() *identity.Resolver { return r.resolver }

func (r *Reasoner) index() {
	for _, rel := range r.view.ClassRelationships() {
		for _, s := range rel.Source {
			for _, t := range rel.Target {
				r.link(Relation{Kind: RelClassLevel, Via: rel.Ref, From: s.IRI, To: t.IRI})
			}
		}
	}

	measuresByIRI := map[string]ontology.Measure{}
	for _, m := range r.view.Measures() {
		measuresByIRI[m.IRI] = m
		for i, a := range m.Constructs {
			for _, b := range m.Constructs[i+1:] {
				from, to := a.IRI, b.IRI
				if to < from {
					from, to = to, from
				}
				r.link(Relation{Kind: RelSharedMeasure, Via: m.Ref, From: from, To: to})
			}
		}
	}

	for _, e := range r.view.EffectSizes() {
		for _, iv := range e.Independent {
			for _, dv := range e.Dependent {
				for _, a := range measuresByIRI[iv.IRI].Constructs {
					for _, b := range measuresByIRI[dv.IRI].Constructs {
						r.link(Relation{Kind: RelEffectSize, Via: e.Ref, From: a.IRI, To: b.IRI})
					}
				}
			}
		}
	}

	for a, m := range r.adj {
		ns := make([]string, 0, len(m))
		for b, rels := range m {
			ns = append(ns, b)
			sort.Slice(rels, func(i, j int) bool { return relationLess(rels[i], rels[j]) })
			m[b] = dedupe(rels)
		}
		sort.Strings(ns)
		r.sorted[a] = ns
	}
}

// link records rel under both endpoints; self links are dropped.
func (r *Reasoner) link(rel Relation) {
	if rel.From == rel.To {
		return
	}
	if _, ok := r.refs[rel.From]; !ok {
		return
	}
	if _, ok := r.refs[rel.To]; !ok {
		return
	}
	for _, pair := range [][2]string{{rel.From, rel.To}, {rel.To, rel.From}} {
		m := r.adj[pair[0]]
		if m == nil {
			m = map[string][]Relation{}
			r.adj[pair[0]] = m
		}
		m[pair[1]] = append(m[pair[1]], rel)
	}
}

// Neighbors lists the constructs adjacent to iri, sorted by IRI.
func (r *Reasoner) Neighbors(iri string) []string {
	return append([]string(nil), r.sorted[iri]...)
}

// Relations returns the evidence linking a and b in either direction.
func (r *Reasoner) Relations(a, b string) []Relation {
	return append([]Relation(nil), r.adj[a][b]...)
}

func relationLess(a, b Relation) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Via.IRI != b.Via.IRI {
		return a.Via.IRI < b.Via.IRI
	}
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}

func dedupe(rels []Relation) []Relation {
	out := rels[:0]
	for i, rel := range rels {
		if i > 0 && rel == rels[i-1] {
			continue
		}
		out = append(out, rel)
	}
	return out
}
