package views

import (
	"fmt"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/reasoner"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/search"
)

// DefaultMaxMeasures caps the global view.
const DefaultMaxMeasures = 400

// Global draws measures with their constructs, modalities and techniques.
// At most maxMeasures measures are included, in IRI order; maxMeasures < 1
// means DefaultMaxMeasures.
func Global(view *ontology.View, maxMeasures int) Document {
	if maxMeasures < 1 {
		maxMeasures = DefaultMaxMeasures
	}
	measures := view.Measures()
	total := len(measures)
	if len(measures) > maxMeasures {
		measures = measures[:maxMeasures]
	}
	b := newBuilder()
	for _, m := range measures {
		b.measure(m)
	}
	title := fmt.Sprintf("%d measures", len(measures))
	if total > len(measures) {
		title = fmt.Sprintf("%d of %d measures", len(measures), total)
	}
	doc := b.document("global", title)
	doc.Detail = view.Stats()
	return doc
}

// QueryNodeID is the ID of the query node in a query view.
func QueryNodeID(text string) string {
	r := []rune(text)
	if len(r) > 60 {
		r = r[:60]
	}
	return "query:" + string(r)
}

// Query draws a search: the query node, the matched constructs with their
// scores and the measures attached to each.
func Query(text string, k int, results []search.ConstructResult) Document {
	b := newBuilder()
	qid := QueryNodeID(text)
	b.node(Node{ID: qid, Label: "Query: " + text, Group: GroupQuery})
	if len(results) == 0 {
		b.node(Node{ID: "note:none", Label: "No construct matches found", Group: GroupInfo})
		b.edge(qid, "note:none", "0 results")
	}
	for _, r := range results {
		score := r.Score
		b.node(Node{ID: r.Construct.IRI, Label: r.Construct.Label, Group: GroupConstruct, Score: &score})
		b.edge(qid, r.Construct.IRI, "matchesConstruct")
		for _, m := range r.Measures {
			b.node(Node{ID: m.IRI, Label: m.Label, Group: GroupMeasure})
			b.edge(r.Construct.IRI, m.IRI, "measuredBy")
		}
	}
	doc := b.document("query", fmt.Sprintf("%q top %d", text, k))
	doc.Detail = results
	return doc
}

// Set draws the coverage of a measure set. Constructs in report.Gaps are
// flagged.
func Set(view *ontology.View, report reasoner.CoverageReport) (Document, error) {
	b := newBuilder()
	gaps := map[string]bool{}
	for _, g := range report.Gaps {
		gaps[g.IRI] = true
	}
	for _, c := range report.Constructs {
		b.node(Node{ID: c.Construct.IRI, Label: c.Construct.Label, Group: GroupConstruct, Gap: gaps[c.Construct.IRI]})
	}
	for _, ref := range report.Measures {
		m, err := view.Measure(ref.IRI)
		if err != nil {
			return Document{}, err
		}
		b.measure(m)
	}
	title := fmt.Sprintf("%d measures, %d constructs, %d gaps", len(report.Measures), len(report.Constructs), len(report.Gaps))
	doc := b.document("set", title)
	doc.Detail = report
	return doc, nil
}
