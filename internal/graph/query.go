package graph

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

// Node is one position of a triple pattern: either a variable or a term.
type Node struct {
	Var  string
	Term Term
}

// V returns a variable node. A leading '?' is optional.
func V(name string) Node { return Node{Var: strings.TrimPrefix(name, "?")} }

// T returns a constant node.
func T(t Term) Node { return Node{Term: t} }

func (n Node) isVar() bool { return n.Var != "" }

// Pattern is a triple pattern; any position may be a variable.
type Pattern struct {
	S, P, O Node
}

// Binding maps variable names (without '?') to terms.
type Binding map[string]Term

// Match evaluates a basic graph pattern and returns every solution.
// Solutions are sorted by their values in order of first variable
// appearance, so the result is stable for a given snapshot.
func (s *Store) Match(patterns ...Pattern) []Binding {
	solutions := []Binding{{}}
	for _, pat := range patterns {
		var next []Binding
		for _, b := range solutions {
			subj := resolve(pat.S, b)
			pred := resolve(pat.P, b)
			obj := resolve(pat.O, b)
			for _, t := range s.Find(subj, pred, obj) {
				nb, ok := extend(b, pat, t)
				if ok {
					next = append(next, nb)
				}
			}
		}
		solutions = next
		if len(solutions) == 0 {
			return nil
		}
	}
	vars := variableOrder(patterns)
	sort.SliceStable(solutions, func(i, j int) bool {
		for _, v := range vars {
			if c := solutions[i][v].Compare(solutions[j][v]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return solutions
}

func resolve(n Node, b Binding) Term {
	if !n.isVar() {
		return n.Term
	}
	return b[n.Var]
}

func extend(b Binding, pat Pattern, t Triple) (Binding, bool) {
	nb := make(Binding, len(b)+3)
	for k, v := range b {
		nb[k] = v
	}
	for _, pair := range [3]struct {
		n Node
		v Term
	}{{pat.S, t.S}, {pat.P, t.P}, {pat.O, t.O}} {
		if !pair.n.isVar() {
			continue
		}
		if cur, ok := nb[pair.n.Var]; ok && cur != pair.v {
			return nil, false
		}
		nb[pair.n.Var] = pair.v
	}
	return nb, true
}

func variableOrder(patterns []Pattern) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		for _, n := range []Node{p.S, p.P, p.O} {
			if n.isVar() && !seen[n.Var] {
				seen[n.Var] = true
				out = append(out, n.Var)
			}
		}
	}
	return out
}

// Query parses and evaluates a pattern query such as
//
//	PREFIX ex: <http://example.org/>
//	?m meas:measuresConstruct ?c . ?c rdfs:label ?label
//
// Terms may be ?vars, <iris>, prefixed names, "literals" (with optional
// @lang or ^^datatype) or the keyword 'a'. Malformed input and unknown
// prefixes fail with an invalid argument error.
func (s *Store) Query(q string) ([]Binding, error) {
	patterns, err := s.ParseQuery(q)
	if err != nil {
		return nil, err
	}
	return s.Match(patterns...), nil
}

// ParseQuery turns query text into triple patterns.
func (s *Store) ParseQuery(q string) ([]Pattern, error) {
	toks, err := tokenize(q)
	if err != nil {
		return nil, err
	}
	prefixes := s.Prefixes()
	var (
		patterns []Pattern
		cur      []Node
	)
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if strings.EqualFold(tok, "PREFIX") || tok == "@prefix" {
			if i+2 >= len(toks) {
				return nil, apperr.InvalidArgument("incomplete PREFIX declaration in query %q", q)
			}
			name := strings.TrimSuffix(toks[i+1], ":")
			ns := toks[i+2]
			if !strings.HasPrefix(ns, "<") || !strings.HasSuffix(ns, ">") {
				return nil, apperr.InvalidArgument("PREFIX %s needs an <iri>", name)
			}
			prefixes[name] = ns[1 : len(ns)-1]
			i += 2
			if i+1 < len(toks) && toks[i+1] == "." {
				i++
			}
			continue
		}
		if tok == "." {
			if len(cur) != 0 {
				return nil, apperr.InvalidArgument("incomplete triple pattern before '.' in query %q", q)
			}
			continue
		}
		n, err := parseNode(tok, prefixes)
		if err != nil {
			return nil, err
		}
		cur = append(cur, n)
		if len(cur) == 3 {
			if !cur[1].isVar() && !cur[1].Term.IsIRI() {
				return nil, apperr.InvalidArgument("predicate %q must be an IRI or variable", toks[i-1])
			}
			patterns = append(patterns, Pattern{S: cur[0], P: cur[1], O: cur[2]})
			cur = nil
		}
	}
	if len(cur) != 0 {
		return nil, apperr.InvalidArgument("incomplete triple pattern at end of query %q", q)
	}
	if len(patterns) == 0 {
		return nil, apperr.InvalidArgument("query %q has no triple patterns", q)
	}
	return patterns, nil
}

func parseNode(tok string, prefixes map[string]string) (Node, error) {
	switch {
	case strings.HasPrefix(tok, "?") || strings.HasPrefix(tok, "$"):
		if len(tok) == 1 {
			return Node{}, apperr.InvalidArgument("empty variable name")
		}
		return V(tok[1:]), nil
	case tok == "a":
		return T(IRI(RDFType)), nil
	case strings.HasPrefix(tok, "<"):
		if !strings.HasSuffix(tok, ">") {
			return Node{}, apperr.InvalidArgument("unterminated IRI %q", tok)
		}
		return T(IRI(tok[1 : len(tok)-1])), nil
	case strings.HasPrefix(tok, `"`):
		return parseLiteralToken(tok, prefixes)
	case strings.HasPrefix(tok, "_:"):
		return T(Blank(tok[2:])), nil
	default:
		iri, err := expandWith(tok, prefixes)
		if err != nil {
			return Node{}, err
		}
		return T(IRI(iri)), nil
	}
}

func parseLiteralToken(tok string, prefixes map[string]string) (Node, error) {
	end := strings.LastIndexByte(tok, '"')
	if end <= 0 {
		return Node{}, apperr.InvalidArgument("unterminated literal %s", tok)
	}
	val := unescapeLiteral(tok[1:end])
	rest := tok[end+1:]
	switch {
	case rest == "":
		return T(Literal(val)), nil
	case strings.HasPrefix(rest, "@"):
		return T(LangLiteral(val, rest[1:])), nil
	case strings.HasPrefix(rest, "^^"):
		dt := rest[2:]
		if strings.HasPrefix(dt, "<") && strings.HasSuffix(dt, ">") {
			return T(TypedLiteral(val, dt[1:len(dt)-1])), nil
		}
		iri, err := expandWith(dt, prefixes)
		if err != nil {
			return Node{}, err
		}
		return T(TypedLiteral(val, iri)), nil
	default:
		return Node{}, apperr.InvalidArgument("unexpected literal suffix %q", rest)
	}
}

func expandWith(curie string, prefixes map[string]string) (string, error) {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok {
		return "", apperr.InvalidArgument("unexpected token %q", curie)
	}
	ns, ok := prefixes[prefix]
	if !ok {
		return "", apperr.InvalidArgument("unknown prefix %q in %q", prefix, curie)
	}
	return ns + local, nil
}

func tokenize(q string) ([]string, error) {
	var toks []string
	rs := []rune(q)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '.' && (i+1 == len(rs) || unicode.IsSpace(rs[i+1])):
			toks = append(toks, ".")
			i++
		case r == '<':
			j := i
			for j < len(rs) && rs[j] != '>' {
				j++
			}
			if j == len(rs) {
				return nil, apperr.InvalidArgument("unterminated IRI in query %q", q)
			}
			toks = append(toks, string(rs[i:j+1]))
			i = j + 1
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, apperr.InvalidArgument("unterminated literal in query %q", q)
			}
			j++
			for j < len(rs) && !unicode.IsSpace(rs[j]) && !(rs[j] == '.' && (j+1 == len(rs) || unicode.IsSpace(rs[j+1]))) {
				if rs[j] == '<' {
					for j < len(rs) && rs[j] != '>' {
						j++
					}
				}
				j++
			}
			toks = append(toks, string(rs[i:min(j, len(rs))]))
			i = j
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) {
				if rs[j] == '.' && (j+1 == len(rs) || unicode.IsSpace(rs[j+1])) {
					break
				}
				j++
			}
			toks = append(toks, string(rs[i:j]))
			i = j
		}
	}
	return toks, nil
}

func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
