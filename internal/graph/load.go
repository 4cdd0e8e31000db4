package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knakk/rdf"
	"github.com/spf13/afero"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

var prefixDecl = regexp.MustCompile(`(?mi)^\s*@?prefix\s+([A-Za-z][\w.-]*)?:\s*<([^>]*)>`)

// FormatForPath picks a serialization format from the file extension.
// Unknown extensions are read as Turtle.
func FormatForPath(path string) rdf.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nt":
		return rdf.NTriples
	case ".rdf", ".owl", ".xml":
		return rdf.RDFXML
	default:
		return rdf.Turtle
	}
}

// Load reads every path and merges them into one store. Any unreadable or
// unparseable file aborts the load with an *apperr.LoadError naming it.
func Load(fs afero.Fs, paths ...string) (*Store, error) {
	s := New()
	for _, p := range paths {
		if err := s.LoadFile(fs, p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadFile parses one file into the store.
func (s *Store) LoadFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return apperr.NewLoadError(path, err)
	}
	before := s.Len()
	if err := s.Read(bytes.NewReader(data), FormatForPath(path), path); err != nil {
		return err
	}
	slog.Debug("graph file loaded", "path", path, "triples", s.Len()-before)
	return nil
}

// Read decodes triples from r. name identifies the input in errors and
// scopes blank node identifiers so blanks from different inputs never merge.
// A label that already carries a scope keeps it, so a written graph reads
// back with the same blank nodes.
func (s *Store) Read(r io.Reader, format rdf.Format, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return apperr.NewLoadError(name, err)
	}
	if format == rdf.Turtle {
		for _, m := range prefixDecl.FindAllSubmatch(data, -1) {
			if _, bound := s.prefixes[string(m[1])]; !bound {
				s.Bind(string(m[1]), string(m[2]))
			}
		}
	}

	scope := blankScope(name)
	dec := rdf.NewTripleDecoder(bytes.NewReader(data), format)
	var batch []Triple
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperr.NewLoadError(name, fmt.Errorf("parse: %w", err))
		}
		t, err := fromRDF(tr, scope)
		if err != nil {
			return apperr.NewLoadError(name, err)
		}
		batch = append(batch, t)
	}
	for _, t := range batch {
		s.add(t)
	}
	return nil
}

// blankScopeSep separates the input scope from the original blank label.
// Sanitized scopes never contain '-'.
const blankScopeSep = "--"

func blankScope(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		if isScopeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + blankScopeSep
}

func isScopeRune(r rune) bool {
	return r < 128 && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

// isScopedBlank reports whether id was produced by a previous scoped load.
func isScopedBlank(id string) bool {
	i := strings.Index(id, blankScopeSep)
	if i <= 0 {
		return false
	}
	for _, r := range id[:i] {
		if !isScopeRune(r) {
			return false
		}
	}
	return true
}

func scopedBlank(scope, id string) string {
	if isScopedBlank(id) {
		return id
	}
	return scope + id
}

func fromRDF(t rdf.Triple, scope string) (Triple, error) {
	subj, err := termFromRDF(t.Subj, scope)
	if err != nil {
		return Triple{}, err
	}
	pred, err := termFromRDF(t.Pred, scope)
	if err != nil {
		return Triple{}, err
	}
	obj, err := termFromRDF(t.Obj, scope)
	if err != nil {
		return Triple{}, err
	}
	return Triple{S: subj, P: pred, O: obj}, nil
}

func termFromRDF(t rdf.Term, scope string) (Term, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return IRI(v.String()), nil
	case rdf.Blank:
		return Blank(scopedBlank(scope, strings.TrimPrefix(v.String(), "_:"))), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return LangLiteral(v.String(), lang), nil
		}
		dt := v.DataType.String()
		if dt == RDFLangString {
			dt = ""
		}
		return TypedLiteral(v.String(), dt), nil
	default:
		return Term{}, fmt.Errorf("unsupported term %v", t)
	}
}
