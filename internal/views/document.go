// Package views builds the network documents behind the global, query and
// set commands and writes them as JSON or YAML artifacts.
package views

import (
	"sort"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// Group is the role a node plays in a view.
type Group string

const (
	GroupQuery     Group = "Query"
	GroupConstruct Group = "Construct"
	GroupMeasure   Group = "Measure"
	GroupModality  Group = "Modality"
	GroupTechnique Group = "Technique"
	GroupLevel     Group = "Level"
	GroupInfo      Group = "Info"
)

// Node is one vertex of a view.
type Node struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Group Group    `json:"group" yaml:"group"`
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	// Gap marks a construct covered by a single measure of the set.
	Gap bool `json:"gap,omitempty" yaml:"gap,omitempty"`
}

// Edge is one labeled, directed link.
type Edge struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Label string `json:"label" yaml:"label"`
}

// Document is a complete view artifact. Nodes and edges are sorted so
// equal inputs give byte-identical files.
type Document struct {
	Kind  string `json:"kind" yaml:"kind"`
	Title string `json:"title" yaml:"title"`
	// Source lists the graph files the view was built from.
	Source []string `json:"source,omitempty" yaml:"source,omitempty"`
	Nodes  []Node   `json:"nodes" yaml:"nodes"`
	Edges  []Edge   `json:"edges" yaml:"edges"`
	// Detail carries the structured result the view was drawn from.
	Detail any `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// builder accumulates nodes and edges without duplicates.
type builder struct {
	nodes map[string]Node
	edges map[Edge]bool
}

func newBuilder() *builder {
	return &builder{nodes: map[string]Node{}, edges: map[Edge]bool{}}
}

// node adds n unless a node with its ID exists. The first group wins.
func (b *builder) node(n Node) {
	if _, ok := b.nodes[n.ID]; ok {
		return
	}
	b.nodes[n.ID] = n
}

func (b *builder) ref(r ontology.Ref, g Group) {
	b.node(Node{ID: r.IRI, Label: r.Label, Group: g})
}

func (b *builder) edge(from, to, label string) {
	b.edges[Edge{From: from, To: to, Label: label}] = true
}

// measure adds m with its construct, modality and technique links.
func (b *builder) measure(m ontology.Measure) {
	b.ref(m.Ref, GroupMeasure)
	for _, c := range m.Constructs {
		b.ref(c, GroupConstruct)
		b.edge(m.IRI, c.IRI, "measuresConstruct")
	}
	for _, mo := range m.Modalities {
		b.ref(mo, GroupModality)
		b.edge(m.IRI, mo.IRI, "includesModality")
	}
	for _, t := range m.Techniques {
		b.ref(t, GroupTechnique)
		b.edge(m.IRI, t.IRI, "usesAnalyticTechnique")
	}
}

func (b *builder) document(kind, title string) Document {
	doc := Document{Kind: kind, Title: title, Nodes: make([]Node, 0, len(b.nodes)), Edges: make([]Edge, 0, len(b.edges))}
	for _, n := range b.nodes {
		doc.Nodes = append(doc.Nodes, n)
	}
	for e := range b.edges {
		doc.Edges = append(doc.Edges, e)
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	sort.Slice(doc.Edges, func(i, j int) bool {
		a, c := doc.Edges[i], doc.Edges[j]
		if a.From != c.From {
			return a.From < c.From
		}
		if a.To != c.To {
			return a.To < c.To
		}
		return a.Label < c.Label
	})
	return doc
}
