package graph

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strings"
)

var safeLocal = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// WriteTurtle serializes the store deterministically: used prefixes sorted
// by name, subjects sorted, rdf:type first, then predicates and objects in
// sort order. Equal graphs produce byte-identical output.
func (s *Store) WriteTurtle(w io.Writer) error {
	triples := s.Triples()
	names := make([]string, 0, len(s.prefixes))
	for p := range s.prefixes {
		names = append(names, p)
	}
	sort.Strings(names)

	used := map[string]bool{}
	compact := func(iri string) string {
		best, bestLen := "", -1
		for _, p := range names {
			ns := s.prefixes[p]
			if ns == "" || len(ns) <= bestLen || !strings.HasPrefix(iri, ns) {
				continue
			}
			if safeLocal.MatchString(iri[len(ns):]) {
				best, bestLen = p, len(ns)
			}
		}
		if bestLen < 0 {
			return "<" + iri + ">"
		}
		used[best] = true
		return best + ":" + iri[bestLen:]
	}
	render := func(t Term) string {
		switch t.Kind {
		case KindIRI:
			return compact(t.Value)
		case KindLiteral:
			out := `"` + escapeLiteral(t.Value) + `"`
			if t.Lang != "" {
				return out + "@" + t.Lang
			}
			if t.Datatype != "" {
				return out + "^^" + compact(t.Datatype)
			}
			return out
		default:
			return t.String()
		}
	}

	var body strings.Builder
	for i := 0; i < len(triples); {
		subj := triples[i].S
		j := i
		for j < len(triples) && triples[j].S == subj {
			j++
		}
		group := triples[i:j]
		sort.SliceStable(group, func(a, b int) bool {
			ta, tb := group[a].P.Value == RDFType, group[b].P.Value == RDFType
			if ta != tb {
				return ta
			}
			return group[a].Compare(group[b]) < 0
		})
		body.WriteString(render(subj))
		for k := 0; k < len(group); {
			pred := group[k].P
			var objs []string
			for k < len(group) && group[k].P == pred {
				objs = append(objs, render(group[k].O))
				k++
			}
			p := "a"
			if pred.Value != RDFType {
				p = render(pred)
			}
			body.WriteString("\n    " + p + " " + strings.Join(objs, ", "))
			if k < len(group) {
				body.WriteString(" ;")
			}
		}
		body.WriteString(" .\n\n")
		i = j
	}

	bw := bufio.NewWriter(w)
	for _, p := range names {
		if used[p] {
			if _, err := bw.WriteString("@prefix " + p + ": <" + s.prefixes[p] + "> .\n"); err != nil {
				return err
			}
		}
	}
	if len(used) > 0 {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString(body.String()); err != nil {
		return err
	}
	return bw.Flush()
}
