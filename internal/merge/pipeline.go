package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/metrics"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

type pipeline struct {
	fs     afero.Fs
	opts   Options
	base   *graph.Store
	view   *ontology.View
	writer *identity.Writer
	report *Report

	workbook *Workbook
}

// Run executes the merge. It fails closed: the output is written only when
// every stage succeeds. The returned report is non-nil even on error.
func Run(ctx context.Context, fs afero.Fs, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	p := &pipeline{fs: fs, opts: opts, report: newReport(opts)}
	if err := opts.Validate(); err != nil {
		return p.report, &StageError{Stage: StageLoadBase, Err: err}
	}

	steps := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageLoadBase, p.loadBase},
		{StageLoadPrior, p.loadPrior},
		{StageParse, p.mergeMeasures},
		{StageEvidence, p.mergeEvidence},
		{StageValidate, p.validate},
		{StageSerialize, p.serialize},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return p.report, &StageError{Stage: s.stage, Err: err}
		}
		if err := s.run(ctx); err != nil {
			var se *StageError
			if errors.As(err, &se) {
				return p.report, se
			}
			return p.report, &StageError{Stage: s.stage, Err: err}
		}
	}
	slog.Info("merge complete",
		"input", opts.Input, "output", opts.Output, "rows", p.report.Rows,
		"applied", p.report.Applied, "skipped", len(p.report.Skipped), "triples", p.report.Triples)
	return p.report, nil
}

func (p *pipeline) loadBase(context.Context) error {
	base, err := graph.Load(p.fs, p.opts.BasePaths...)
	if err != nil {
		var le *apperr.LoadError
		if errors.As(err, &le) {
			return &StageError{Stage: StageLoadBase, Path: le.Path, Err: err}
		}
		return err
	}
	p.base = base
	work := base.Clone()
	vocab := p.opts.Vocabulary()
	vocab.Bind(work)
	p.view = ontology.NewView(work, vocab)
	return nil
}

func (p *pipeline) loadPrior(context.Context) error {
	path := p.opts.PriorPath
	if path != "" {
		exists, err := afero.Exists(p.fs, path)
		if err != nil {
			return &StageError{Stage: StageLoadPrior, Path: path, Err: err}
		}
		if !exists {
			p.report.warn("prior instances %s not found; starting from the base graph", path)
			slog.Warn("prior instances not found", "path", path)
		} else if err := p.view.Store().LoadFile(p.fs, path); err != nil {
			return &StageError{Stage: StageLoadPrior, Path: path, Err: err}
		}
	}

	w, err := identity.NewWriter(p.view)
	if err != nil {
		return err
	}
	p.writer = w
	p.report.Collisions = w.Collisions()
	return nil
}

// rowFailed applies the mode policy to a failed row: strict aborts, lenient
// records the row and continues.
func (p *pipeline) rowFailed(stage Stage, t *Table, i int, err error) error {
	column := ""
	if re, ok := asRowError(err); ok {
		column = re.column
	}
	if p.opts.Mode == Strict {
		return &StageError{Stage: stage, Path: t.Source, Sheet: t.Sheet, Row: t.RowNumber(i), Column: column, Err: err}
	}
	issue := RowIssue{Sheet: t.Sheet, Row: t.RowNumber(i), Column: column, Reason: err.Error()}
	p.report.Skipped = append(p.report.Skipped, issue)
	metrics.MergeRows.WithLabelValues(t.Sheet, "skipped").Inc()
	slog.Warn("row skipped", "sheet", t.Sheet, "row", issue.Row, "column", column, "error", err)
	return nil
}

func (p *pipeline) readWorkbook() (*Workbook, error) {
	wb, err := ReadWorkbook(p.fs, p.opts.Input, p.opts.Sheet)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Path: p.opts.Input, Err: err}
	}
	return wb, nil
}

func (p *pipeline) mergeMeasures(ctx context.Context) error {
	wb, err := p.readWorkbook()
	if err != nil {
		return err
	}
	p.workbook = wb
	t, ok := wb.Sheet(p.opts.Sheet)
	if !ok {
		return &StageError{Stage: StageParse, Path: p.opts.Input, Err: apperr.InvalidArgument("workbook has no sheet %q (sheets: %v)", p.opts.Sheet, wb.SheetNames())}
	}
	cols, err := detectMeasureColumns(t, p.opts.Columns)
	if err != nil {
		return &StageError{Stage: StageParse, Path: p.opts.Input, Sheet: t.Sheet, Err: err}
	}

	for i := range t.Rows {
		if t.blank(i) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.report.Rows++
		row, err := p.planMeasure(t, cols, i)
		if err != nil {
			if err := p.rowFailed(StageResolve, t, i, err); err != nil {
				return err
			}
			continue
		}
		if err := p.applyMeasure(row); err != nil {
			return &StageError{Stage: StageMerge, Path: t.Source, Sheet: t.Sheet, Row: t.RowNumber(i), Err: err}
		}
		p.report.Applied++
		metrics.MergeRows.WithLabelValues(t.Sheet, "applied").Inc()
	}
	return nil
}

func (p *pipeline) mergeEvidence(ctx context.Context) error {
	if !p.opts.Evidence {
		return nil
	}
	for _, sheet := range evidenceSheets {
		t, ok := p.workbook.Sheet(sheet.name)
		if !ok {
			p.report.warn("evidence sheet %s not present", sheet.name)
			continue
		}
		cols, err := detectColumns(t, sheet.fields, p.opts.Columns)
		if err == nil {
			err = requireFields(t, cols, sheet.fields)
		}
		if err != nil {
			return &StageError{Stage: StageParse, Path: t.Source, Sheet: t.Sheet, Err: err}
		}
		for i := range t.Rows {
			if t.blank(i) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			apply, err := sheet.plan(p, t, cols, i)
			if err != nil {
				if err := p.rowFailed(StageEvidence, t, i, err); err != nil {
					return err
				}
				continue
			}
			if err := apply(); err != nil {
				return &StageError{Stage: StageEvidence, Path: t.Source, Sheet: t.Sheet, Row: t.RowNumber(i), Err: err}
			}
			p.report.Evidence[sheet.name]++
			metrics.MergeRows.WithLabelValues(t.Sheet, "applied").Inc()
		}
	}
	return nil
}

func requireFields(t *Table, cols Columns, fields []Field) error {
	for _, f := range fields {
		if f.Required && cols.Col(f) < 0 {
			return &ColumnError{Sheet: t.Sheet, Field: f.Name}
		}
	}
	return nil
}

// validate checks the merged graph's invariants. Violations are reported;
// strict mode refuses to write a graph that has any.
func (p *pipeline) validate(context.Context) error {
	for _, ref := range p.writer.Created() {
		p.report.NewNodes = append(p.report.NewNodes, NewNode{Kind: ref.Kind.String(), IRI: ref.IRI, Label: ref.Label})
	}
	p.report.Violations = p.view.CheckInvariants()
	for _, v := range p.report.Violations {
		slog.Warn("invariant violated", "subject", v.Subject, "rule", v.Rule)
	}
	if p.opts.Mode == Strict && len(p.report.Violations) > 0 {
		return fmt.Errorf("%d invariant violations, first: %s", len(p.report.Violations), p.report.Violations[0])
	}
	return nil
}

func (p *pipeline) serialize(context.Context) error {
	out := p.view.Store()
	if p.opts.InstancesOnly {
		out = instancesOnly(out, p.base)
	}
	var buf bytes.Buffer
	if err := out.WriteTurtle(&buf); err != nil {
		return &StageError{Stage: StageSerialize, Path: p.opts.Output, Err: err}
	}
	if err := writeAtomic(p.fs, p.opts.Output, buf.Bytes()); err != nil {
		return &StageError{Stage: StageSerialize, Path: p.opts.Output, Err: err}
	}
	p.report.Triples = out.Len()
	return nil
}

// instancesOnly copies the triples of work that base does not have.
func instancesOnly(work, base *graph.Store) *graph.Store {
	out := graph.New()
	for prefix, ns := range work.Prefixes() {
		out.Bind(prefix, ns)
	}
	for _, t := range work.Triples() {
		if !base.Has(t.S, t.P, t.O) {
			_, _ = out.AddEdge(t.S, t.P, t.O)
		}
	}
	return out
}

// writeAtomic writes data beside path and renames it into place.
func writeAtomic(fs afero.Fs, path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := afero.TempFile(fs, dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
