// Package graph holds the merged ontology/instance graph in memory and
// exposes triple lookups, basic graph pattern queries and the idempotent
// mutation API used by the merge pipeline.
package graph

import (
	"strconv"
	"strings"
)

// Core namespaces every store understands.
const (
	NamespaceRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NamespaceOWL  = "http://www.w3.org/2002/07/owl#"
	NamespaceXSD  = "http://www.w3.org/2001/XMLSchema#"
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"

	RDFType       = NamespaceRDF + "type"
	RDFLangString = NamespaceRDF + "langString"
	RDFSLabel     = NamespaceRDFS + "label"
	RDFSSubClass  = NamespaceRDFS + "subClassOf"
	OWLClass      = NamespaceOWL + "Class"

	XSDString  = NamespaceXSD + "string"
	XSDInteger = NamespaceXSD + "integer"
	XSDFloat   = NamespaceXSD + "float"
	XSDDouble  = NamespaceXSD + "double"
	XSDDecimal = NamespaceXSD + "decimal"
)

// Kind distinguishes IRIs, blank nodes and literals.
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlank
	KindLiteral
)

// Term is a node or edge label. The zero Term is a wildcard in lookups.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string // literals only; empty for plain strings
	Lang     string // literals only
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank returns a blank node term.
func Blank(id string) Term { return Term{Kind: KindBlank, Value: id} }

// Literal returns a plain string literal.
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

// TypedLiteral returns a literal with a datatype IRI. xsd:string is stored
// as a plain literal so both spellings compare equal.
func TypedLiteral(v, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: strings.ToLower(lang)}
}

// FloatLiteral returns an xsd:float literal.
func FloatLiteral(f float64) Term {
	return TypedLiteral(strconv.FormatFloat(f, 'g', -1, 64), XSDFloat)
}

// IntLiteral returns an xsd:integer literal.
func IntLiteral(n int64) Term {
	return TypedLiteral(strconv.FormatInt(n, 10), XSDInteger)
}

func (t Term) IsZero() bool     { return t.Kind == 0 }
func (t Term) IsIRI() bool      { return t.Kind == KindIRI }
func (t Term) IsLiteral() bool  { return t.Kind == KindLiteral }
func (t Term) IsResource() bool { return t.Kind == KindIRI || t.Kind == KindBlank }

// Float parses a numeric literal.
func (t Term) Float() (float64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int parses an integer literal, accepting integral floats such as "12.0".
func (t Term) Int() (int64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	v := strings.TrimSpace(t.Value)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// String renders the term in N-Triples form.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return "*"
	}
}

// Compare orders terms by kind, value, datatype, then language.
func (t Term) Compare(o Term) int {
	if t.Kind != o.Kind {
		if t.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if c := strings.Compare(t.Value, o.Value); c != 0 {
		return c
	}
	if c := strings.Compare(t.Datatype, o.Datatype); c != 0 {
		return c
	}
	return strings.Compare(t.Lang, o.Lang)
}

// LocalName returns the fragment after the last '#' or '/'.
func LocalName(iri string) string {
	if i := strings.LastIndexByte(iri, '#'); i >= 0 {
		return iri[i+1:]
	}
	if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// Triple is a single directed, labeled edge.
type Triple struct {
	S, P, O Term
}

// Compare orders triples by subject, predicate, object.
func (t Triple) Compare(o Triple) int {
	if c := t.S.Compare(o.S); c != 0 {
		return c
	}
	if c := t.P.Compare(o.P); c != 0 {
		return c
	}
	return t.O.Compare(o.O)
}

func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
