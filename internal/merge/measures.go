package merge

import (
	"errors"
	"fmt"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// rowError is a failure attributable to one input row.
type rowError struct {
	column string
	err    error
}

func (e *rowError) Error() string { return e.err.Error() }
func (e *rowError) Unwrap() error { return e.err }

func missing(column, what string) *rowError {
	return &rowError{column: column, err: apperr.InvalidArgument("missing required %s", what)}
}

// measureRow is a validated row with every reference checked, ready to be
// written.
type measureRow struct {
	id, label   string
	description string
	source      string
	constructs  []identity.NodeRef
	newCons     []string
	modalities  []string
	techniques  []string
	levels      []string
}

// planMeasure validates row i and resolves its constructs without touching
// the graph. Nothing is written for a row that fails here.
func (p *pipeline) planMeasure(t *Table, cols Columns, i int) (*measureRow, error) {
	cell := func(f Field) string { return t.Cell(i, cols.Col(f)) }
	r := &measureRow{
		id:          cell(FieldID),
		label:       cell(FieldLabel),
		description: cell(FieldDescription),
		source:      cell(FieldSource),
		modalities:  identity.SplitMulti(cell(FieldModality)),
		techniques:  identity.SplitMulti(cell(FieldTechnique)),
		levels:      identity.SplitMulti(cell(FieldLevel)),
	}
	if r.id == "" && r.label == "" {
		return nil, missing(FieldLabel.Name, "measure label or id")
	}

	var consCell, consCol string
	for _, c := range cols.constructs {
		if v := t.Cell(i, c); v != "" {
			consCell, consCol = v, cols.Header(c)
			break
		}
	}
	constructs := identity.SplitMulti(consCell)
	if len(constructs) == 0 {
		return nil, missing(FieldConstruct.Name, "construct")
	}
	if len(r.modalities) == 0 {
		return nil, missing(cols.Header(cols.Col(FieldModality)), "modality")
	}
	if len(r.techniques) == 0 {
		return nil, missing(cols.Header(cols.Col(FieldTechnique)), "analytic technique")
	}
	if len(r.levels) == 0 {
		return nil, missing(cols.Header(cols.Col(FieldLevel)), "level of analysis")
	}

	for _, label := range constructs {
		ref, err := p.writer.Resolve(label, ontology.KindConstruct)
		switch {
		case err == nil:
			r.constructs = append(r.constructs, ref)
		case apperr.IsNotFound(err) && p.opts.AllowNewConstructs:
			r.newCons = append(r.newCons, label)
		case apperr.IsNotFound(err):
			return nil, &rowError{column: consCol, err: &apperr.UnresolvedConstruct{Label: label, Key: identity.Normalize(label)}}
		default:
			return nil, &rowError{column: consCol, err: err}
		}
	}

	for _, group := range []struct {
		col    string
		values []string
	}{
		{cols.Header(cols.Col(FieldModality)), r.modalities},
		{cols.Header(cols.Col(FieldTechnique)), r.techniques},
		{cols.Header(cols.Col(FieldLevel)), r.levels},
		{consCol, r.newCons},
	} {
		for _, v := range group.values {
			if identity.Slug(identity.Normalize(v)) == "" {
				return nil, &rowError{column: group.col, err: apperr.InvalidArgument("value %q has no usable characters", v)}
			}
		}
	}
	if identity.Slug(identity.Normalize(firstNonEmpty(r.id, r.label))) == "" {
		return nil, &rowError{column: FieldLabel.Name, err: apperr.InvalidArgument("measure %q has no usable characters", firstNonEmpty(r.id, r.label))}
	}
	return r, nil
}

// applyMeasure writes a planned row. Errors here leave the graph partially
// updated and are fatal.
func (p *pipeline) applyMeasure(r *measureRow) error {
	vocab := p.view.Vocabulary()
	store := p.view.Store()

	m, _, err := p.create(r.id, firstNonEmpty(r.label, r.id), ontology.KindMeasure)
	if err != nil {
		return err
	}
	node := graph.IRI(m.IRI)
	if r.description != "" {
		if _, err := store.SetLiteral(node, vocab.P(ontology.PredHasDescription), graph.Literal(r.description)); err != nil {
			return fmt.Errorf("set description of %s: %w", m.IRI, err)
		}
	}
	if r.source != "" {
		if _, err := store.SetLiteral(node, vocab.P(ontology.PredHasSource), graph.Literal(r.source)); err != nil {
			return fmt.Errorf("set source of %s: %w", m.IRI, err)
		}
	}

	constructs := r.constructs
	for _, label := range r.newCons {
		ref, _, err := p.create(label, label, ontology.KindConstruct)
		if err != nil {
			return err
		}
		constructs = append(constructs, ref)
	}
	links := []struct {
		pred   ontology.Predicate
		kind   ontology.Kind
		values []string
	}{
		{ontology.PredIncludesModality, ontology.KindModality, r.modalities},
		{ontology.PredUsesTechnique, ontology.KindTechnique, r.techniques},
		{ontology.PredHasLevel, ontology.KindLevel, r.levels},
	}
	for _, c := range constructs {
		if _, err := store.AddEdge(node, vocab.P(ontology.PredMeasuresConstruct), graph.IRI(c.IRI)); err != nil {
			return err
		}
	}
	for _, l := range links {
		for _, v := range l.values {
			ref, _, err := p.create(v, v, l.kind)
			if err != nil {
				return err
			}
			if _, err := store.AddEdge(node, vocab.P(l.pred), graph.IRI(ref.IRI)); err != nil {
				return err
			}
		}
	}
	return nil
}

// create resolves or mints an individual and counts creations.
func (p *pipeline) create(id, label string, k ontology.Kind) (identity.NodeRef, bool, error) {
	ref, created, err := p.writer.ResolveOrCreateKeyed(id, label, k)
	if err != nil {
		return identity.NodeRef{}, false, fmt.Errorf("%s %q: %w", k, label, err)
	}
	if created {
		p.report.Created[k.String()]++
	}
	return ref, created, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func asRowError(err error) (*rowError, bool) {
	var re *rowError
	ok := errors.As(err, &re)
	return re, ok
}
