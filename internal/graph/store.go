package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

// ErrFrozen is returned by mutations on a store that has been frozen for
// concurrent reads.
var ErrFrozen = errors.New("graph store is frozen")

type index map[Term]map[Term]map[Term]struct{}

func (ix index) add(a, b, c Term) bool {
	l2, ok := ix[a]
	if !ok {
		l2 = make(map[Term]map[Term]struct{})
		ix[a] = l2
	}
	l3, ok := l2[b]
	if !ok {
		l3 = make(map[Term]struct{})
		l2[b] = l3
	}
	if _, ok := l3[c]; ok {
		return false
	}
	l3[c] = struct{}{}
	return true
}

func (ix index) remove(a, b, c Term) {
	l2, ok := ix[a]
	if !ok {
		return
	}
	l3, ok := l2[b]
	if !ok {
		return
	}
	delete(l3, c)
	if len(l3) == 0 {
		delete(l2, b)
	}
	if len(l2) == 0 {
		delete(ix, a)
	}
}

// Store is an in-memory directed, labeled multigraph with three indexes.
// It is safe for concurrent readers once no more mutations happen; call
// Freeze after loading to enforce that.
type Store struct {
	spo, pos, osp index
	size          int
	prefixes      map[string]string
	frozen        bool
}

// New returns an empty store with the core prefixes bound.
func New() *Store {
	s := &Store{
		spo:      make(index),
		pos:      make(index),
		osp:      make(index),
		prefixes: make(map[string]string),
	}
	s.Bind("rdf", NamespaceRDF)
	s.Bind("rdfs", NamespaceRDFS)
	s.Bind("owl", NamespaceOWL)
	s.Bind("xsd", NamespaceXSD)
	s.Bind("skos", NamespaceSKOS)
	return s
}

// Bind registers a namespace prefix used by Query and serialization.
func (s *Store) Bind(prefix, namespace string) {
	s.prefixes[prefix] = namespace
}

// Prefixes returns a copy of the prefix table.
func (s *Store) Prefixes() map[string]string {
	out := make(map[string]string, len(s.prefixes))
	for k, v := range s.prefixes {
		out[k] = v
	}
	return out
}

// Expand turns a prefixed name into a full IRI.
func (s *Store) Expand(curie string) (string, error) {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok {
		return "", apperr.InvalidArgument("%q is not a prefixed name", curie)
	}
	ns, ok := s.prefixes[prefix]
	if !ok {
		return "", apperr.InvalidArgument("unknown prefix %q in %q", prefix, curie)
	}
	return ns + local, nil
}

// Compact renders an IRI with the longest matching bound prefix, or the
// IRI unchanged when none matches.
func (s *Store) Compact(iri string) string {
	best, bestNS := "", ""
	for p, ns := range s.prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = p, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + iri[len(bestNS):]
}

// Len returns the number of distinct triples.
func (s *Store) Len() int { return s.size }

// Freeze makes the store read-only.
func (s *Store) Freeze() { s.frozen = true }

// Frozen reports whether Freeze was called.
func (s *Store) Frozen() bool { return s.frozen }

func (s *Store) add(t Triple) bool {
	if !s.spo.add(t.S, t.P, t.O) {
		return false
	}
	s.pos.add(t.P, t.O, t.S)
	s.osp.add(t.O, t.S, t.P)
	s.size++
	return true
}

func (s *Store) remove(t Triple) {
	if !s.Has(t.S, t.P, t.O) {
		return
	}
	s.spo.remove(t.S, t.P, t.O)
	s.pos.remove(t.P, t.O, t.S)
	s.osp.remove(t.O, t.S, t.P)
	s.size--
}

// Has reports whether the exact triple exists.
func (s *Store) Has(subj, pred, obj Term) bool {
	_, ok := s.spo[subj][pred][obj]
	return ok
}

// HasSubject reports whether the term appears as a subject of any triple.
func (s *Store) HasSubject(subj Term) bool {
	return len(s.spo[subj]) > 0
}

// Find returns all triples matching the given terms; a zero Term matches
// anything. Results are sorted.
func (s *Store) Find(subj, pred, obj Term) []Triple {
	var out []Triple
	switch {
	case !subj.IsZero():
		for p, objs := range s.spo[subj] {
			if !pred.IsZero() && p != pred {
				continue
			}
			for o := range objs {
				if obj.IsZero() || o == obj {
					out = append(out, Triple{subj, p, o})
				}
			}
		}
	case !pred.IsZero():
		for o, subjs := range s.pos[pred] {
			if !obj.IsZero() && o != obj {
				continue
			}
			for sub := range subjs {
				out = append(out, Triple{sub, pred, o})
			}
		}
	case !obj.IsZero():
		for sub, preds := range s.osp[obj] {
			for p := range preds {
				out = append(out, Triple{sub, p, obj})
			}
		}
	default:
		for sub, preds := range s.spo {
			for p, objs := range preds {
				for o := range objs {
					out = append(out, Triple{sub, p, o})
				}
			}
		}
	}
	sortTriples(out)
	return out
}

// Triples returns every triple in sorted order.
func (s *Store) Triples() []Triple {
	return s.Find(Term{}, Term{}, Term{})
}

// Objects returns the sorted objects of subj/pred.
func (s *Store) Objects(subj, pred Term) []Term {
	objs := s.spo[subj][pred]
	out := make([]Term, 0, len(objs))
	for o := range objs {
		out = append(out, o)
	}
	sortTerms(out)
	return out
}

// Object returns the first object of subj/pred in sort order.
func (s *Store) Object(subj, pred Term) (Term, bool) {
	objs := s.Objects(subj, pred)
	if len(objs) == 0 {
		return Term{}, false
	}
	return objs[0], true
}

// Subjects returns the sorted subjects having pred/obj.
func (s *Store) Subjects(pred, obj Term) []Term {
	subs := s.pos[pred][obj]
	out := make([]Term, 0, len(subs))
	for sub := range subs {
		out = append(out, sub)
	}
	sortTerms(out)
	return out
}

// Edge is one direct connection of a node.
type Edge struct {
	Predicate Term
	Node      Term
}

// Neighbors returns the outgoing edges of node, optionally restricted to
// the given predicates. Literal objects are excluded.
func (s *Store) Neighbors(node Term, predicates ...Term) []Edge {
	var out []Edge
	for p, objs := range s.spo[node] {
		if !predicateAllowed(p, predicates) {
			continue
		}
		for o := range objs {
			if o.IsResource() {
				out = append(out, Edge{Predicate: p, Node: o})
			}
		}
	}
	sortEdges(out)
	return out
}

// Incoming returns the edges pointing at node.
func (s *Store) Incoming(node Term, predicates ...Term) []Edge {
	var out []Edge
	for sub, preds := range s.osp[node] {
		for p := range preds {
			if predicateAllowed(p, predicates) {
				out = append(out, Edge{Predicate: p, Node: sub})
			}
		}
	}
	sortEdges(out)
	return out
}

func predicateAllowed(p Term, filter []Term) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == p {
			return true
		}
	}
	return false
}

// Label returns the rdfs:label of node, falling back to its local name.
func (s *Store) Label(node Term) string {
	if l, ok := s.Object(node, IRI(RDFSLabel)); ok {
		return l.Value
	}
	return LocalName(node.Value)
}

// Types returns the rdf:type objects of node.
func (s *Store) Types(node Term) []Term {
	return s.Objects(node, IRI(RDFType))
}

// IsA reports whether node has rdf:type class.
func (s *Store) IsA(node Term, class string) bool {
	return s.Has(node, IRI(RDFType), IRI(class))
}

// SubclassesOf returns class and every class reachable through inverse
// rdfs:subClassOf, sorted.
func (s *Store) SubclassesOf(class string) []Term {
	root := IRI(class)
	seen := map[Term]bool{root: true}
	queue := []Term{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sub := range s.Subjects(IRI(RDFSSubClass), cur) {
			if !seen[sub] {
				seen[sub] = true
				queue = append(queue, sub)
			}
		}
	}
	out := make([]Term, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sortTerms(out)
	return out
}

func (s *Store) checkWritable() error {
	if s.frozen {
		return ErrFrozen
	}
	return nil
}

// AddEdge adds subj -pred-> obj. It reports whether the edge is new;
// adding an existing edge is a no-op.
func (s *Store) AddEdge(subj, pred, obj Term) (bool, error) {
	if err := s.checkWritable(); err != nil {
		return false, err
	}
	if !subj.IsResource() {
		return false, apperr.InvalidArgument("edge subject %s is not a resource", subj)
	}
	if !pred.IsIRI() {
		return false, apperr.InvalidArgument("edge predicate %s is not an IRI", pred)
	}
	if obj.IsZero() {
		return false, apperr.InvalidArgument("edge object for %s %s is empty", subj, pred)
	}
	return s.add(Triple{subj, pred, obj}), nil
}

// UpsertIndividual ensures iri exists with rdf:type class and, when label
// is non-empty and the node has none yet, an rdfs:label. Calling it twice
// with the same arguments returns the same node and adds nothing.
func (s *Store) UpsertIndividual(class, iri, label string) (Term, bool, error) {
	if err := s.checkWritable(); err != nil {
		return Term{}, false, err
	}
	if iri == "" || class == "" {
		return Term{}, false, apperr.InvalidArgument("individual iri and class are required")
	}
	node := IRI(iri)
	created := !s.HasSubject(node)
	s.add(Triple{node, IRI(RDFType), IRI(class)})
	if label != "" {
		if _, ok := s.Object(node, IRI(RDFSLabel)); !ok {
			s.add(Triple{node, IRI(RDFSLabel), Literal(label)})
		}
	}
	return node, created, nil
}

// SetLiteral replaces every value of a functional data property. It
// reports whether the graph changed.
func (s *Store) SetLiteral(subj, pred, lit Term) (bool, error) {
	if !lit.IsLiteral() {
		return false, apperr.InvalidArgument("%s is not a literal", lit)
	}
	return s.SetObject(subj, pred, lit)
}

// SetObject makes obj the only value of pred on subj.
func (s *Store) SetObject(subj, pred, obj Term) (bool, error) {
	if err := s.checkWritable(); err != nil {
		return false, err
	}
	existing := s.Objects(subj, pred)
	if len(existing) == 1 && existing[0] == obj {
		return false, nil
	}
	for _, o := range existing {
		s.remove(Triple{subj, pred, o})
	}
	return s.AddEdge(subj, pred, obj)
}

// Merge copies every triple and prefix of other into s.
func (s *Store) Merge(other *Store) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	for p, ns := range other.prefixes {
		if _, ok := s.prefixes[p]; !ok {
			s.prefixes[p] = ns
		}
	}
	for sub, preds := range other.spo {
		for p, objs := range preds {
			for o := range objs {
				s.add(Triple{sub, p, o})
			}
		}
	}
	return nil
}

// Clone returns an unfrozen deep copy.
func (s *Store) Clone() *Store {
	c := New()
	c.prefixes = s.Prefixes()
	if err := c.Merge(s); err != nil {
		panic(fmt.Sprintf("clone: %v", err))
	}
	return c
}

func sortTerms(ts []Term) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Compare(ts[j]) < 0 })
}

func sortTriples(ts []Triple) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Compare(ts[j]) < 0 })
}

func sortEdges(es []Edge) {
	sort.Slice(es, func(i, j int) bool {
		if c := es[i].Predicate.Compare(es[j].Predicate); c != 0 {
			return c < 0
		}
		return es[i].Node.Compare(es[j].Node) < 0
	})
}
