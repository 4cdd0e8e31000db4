package identity

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// NodeRef is a resolved individual.
type NodeRef struct {
	IRI   string        `json:"iri"`
	Label string        `json:"label"`
	Key   string        `json:"key"`
	Kind  ontology.Kind `json:"-"`
}

// Collision records a key shared by more than one individual. Chosen is the
// lexically smallest IRI, which every lookup of the key returns.
type Collision struct {
	Kind   ontology.Kind `json:"-"`
	Key    string        `json:"key"`
	IRIs   []string      `json:"iris"`
	Chosen string        `json:"chosen"`
}

// Resolver maps labels to existing individuals. It never mutates the store.
type Resolver struct {
	view  *ontology.View
	index map[ontology.Kind]map[string][]string
}

// NewResolver indexes every typed individual of the view by the key of its
// label and the key of its IRI local name.
func NewResolver(view *ontology.View) *Resolver {
	r := &Resolver{view: view, index: map[ontology.Kind]map[string][]string{}}
	for _, k := range ontology.Kinds() {
		for _, ref := range view.Individuals(k) {
			r.addKeys(k, ref.IRI, ref.Label)
		}
	}
	for _, c := range r.Collisions() {
		slog.Warn("identity collision", "kind", c.Kind.String(), "key", c.Key, "iris", c.IRIs, "chosen", c.Chosen)
	}
	return r
}

func (r *Resolver) addKeys(k ontology.Kind, iri, label string) {
	keys := []string{Normalize(label), KeyFromLocalName(graph.LocalName(iri), k.LocalPrefix())}
	for _, key := range keys {
		if key != "" {
			r.add(k, key, iri)
		}
	}
}

func (r *Resolver) add(k ontology.Kind, key, iri string) {
	m := r.index[k]
	if m == nil {
		m = map[string][]string{}
		r.index[k] = m
	}
	list := m[key]
	i := sort.SearchStrings(list, iri)
	if i < len(list) && list[i] == iri {
		return
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = iri
	m[key] = list
}

// Resolve returns the individual of kind whose key matches raw. raw may
// also be a full or prefixed IRI of such an individual. A miss is apperr.ErrNotFound.
func (r *Resolver) Resolve(raw string, k ontology.Kind) (NodeRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NodeRef{}, apperr.InvalidArgument("empty %s reference", k)
	}
	if strings.Contains(raw, "://") && r.view.IsKind(raw, k) {
		return r.ref(raw, k, Normalize(r.view.Store().Label(graph.IRI(raw)))), nil
	}
	if iri, err := r.view.Store().Expand(raw); err == nil && r.view.IsKind(iri, k) {
		return r.ref(iri, k, Normalize(r.view.Store().Label(graph.IRI(iri)))), nil
	}
	key := Normalize(raw)
	if iris := r.index[k][key]; len(iris) > 0 {
		return r.ref(iris[0], k, key), nil
	}
	return NodeRef{}, apperr.NotFound(k.String(), raw)
}

// Candidates lists every individual of kind raw could denote, sorted. More
// than one entry means the key is ambiguous.
func (r *Resolver) Candidates(raw string, k ontology.Kind) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, "://") && r.view.IsKind(raw, k) {
		return []string{raw}
	}
	return append([]string(nil), r.index[k][Normalize(raw)]...)
}

func (r *Resolver) ref(iri string, k ontology.Kind, key string) NodeRef {
	return NodeRef{IRI: iri, Label: r.view.Store().Label(graph.IRI(iri)), Key: key, Kind: k}
}

// Collisions lists every key shared by two or more individuals of a kind,
// ordered by kind then key.
func (r *Resolver) Collisions() []Collision {
	var out []Collision
	for _, k := range ontology.Kinds() {
		keys := make([]string, 0, len(r.index[k]))
		for key, iris := range r.index[k] {
			if len(iris) > 1 {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			iris := append([]string(nil), r.index[k][key]...)
			out = append(out, Collision{Kind: k, Key: key, IRIs: iris, Chosen: iris[0]})
		}
	}
	return out
}

// Writer resolves labels and creates missing individuals. Only the merge
// pipeline holds one.
type Writer struct {
	r       *Resolver
	store   *graph.Store
	vocab   ontology.Vocabulary
	created []NodeRef
}

// NewWriter wraps a mutable store. It fails if the store is frozen.
func NewWriter(view *ontology.View) (*Writer, error) {
	if view.Store().Frozen() {
		return nil, fmt.Errorf("identity writer: %w", graph.ErrFrozen)
	}
	return &Writer{r: NewResolver(view), store: view.Store(), vocab: view.Vocabulary()}, nil
}

// Resolve is the read path of the writer's index.
func (w *Writer) Resolve(raw string, k ontology.Kind) (NodeRef, error) {
	return w.r.Resolve(raw, k)
}

// Candidates is Resolver.Candidates over the writer's index.
func (w *Writer) Candidates(raw string, k ontology.Kind) []string { return w.r.Candidates(raw, k) }

// Collisions reports keys shared by several existing individuals.
func (w *Writer) Collisions() []Collision { return w.r.Collisions() }

// Created lists the individuals minted so far, in creation order.
func (w *Writer) Created() []NodeRef { return append([]NodeRef(nil), w.created...) }

// ResolveOrCreate returns the individual labeled raw, creating it when
// absent. The bool reports creation.
func (w *Writer) ResolveOrCreate(raw string, k ontology.Kind) (NodeRef, bool, error) {
	return w.ResolveOrCreateKeyed(raw, raw, k)
}

// ResolveOrCreateKeyed identifies the individual by id and labels a new one
// with label. Measures use their workbook id here so renamed labels keep
// their identity.
func (w *Writer) ResolveOrCreateKeyed(id, label string, k ontology.Kind) (NodeRef, bool, error) {
	if strings.TrimSpace(id) == "" {
		id = label
	}
	if ref, err := w.r.Resolve(id, k); err == nil {
		return ref, false, nil
	} else if !apperr.IsNotFound(err) {
		return NodeRef{}, false, err
	}

	key := Normalize(id)
	slug := Slug(key)
	if slug == "" {
		return NodeRef{}, false, apperr.InvalidArgument("%s %q has no usable characters", k, id)
	}
	iri := w.vocab.InstanceIRI(k, slug)
	display := CleanLabel(label)
	if display == "" {
		display = CleanLabel(id)
	}
	if w.store.HasSubject(graph.IRI(iri)) && !w.r.view.IsKind(iri, k) {
		return NodeRef{}, false, apperr.InvalidArgument("%s IRI %s already names another node", k, iri)
	}
	if _, _, err := w.store.UpsertIndividual(w.vocab.Class(k), iri, display); err != nil {
		return NodeRef{}, false, fmt.Errorf("create %s %q: %w", k, display, err)
	}
	if k == ontology.KindModality {
		if bucket := ModalityBucket(display); bucket != "" {
			if _, err := w.store.AddEdge(graph.IRI(iri), w.vocab.P(ontology.PredBroader), w.vocab.MeasTerm(bucket)); err != nil {
				return NodeRef{}, false, err
			}
		}
	}
	w.r.addKeys(k, iri, display)
	if key != Normalize(display) {
		w.r.add(k, key, iri)
	}
	ref := NodeRef{IRI: iri, Label: display, Key: key, Kind: k}
	w.created = append(w.created, ref)
	slog.Debug("individual created", "kind", k.String(), "iri", iri)
	return ref, true, nil
}
