package merge

import (
	"fmt"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageLoadBase  Stage = "load-base"
	StageLoadPrior Stage = "load-prior"
	StageParse     Stage = "parse"
	StageResolve   Stage = "resolve"
	StageMerge     Stage = "merge"
	StageEvidence  Stage = "evidence"
	StageValidate  Stage = "validate"
	StageSerialize Stage = "serialize"
)

// StageError is a fatal pipeline failure. Row and Column are set when a
// single input row caused it.
type StageError struct {
	Stage  Stage
	Path   string
	Sheet  string
	Row    int
	Column string
	Err    error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Sheet != "" {
		fmt.Fprintf(&b, " sheet %s", e.Sheet)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StageError) Unwrap() error { return e.Err }

// RowIssue is a row the lenient mode skipped.
type RowIssue struct {
	Sheet  string `json:"sheet" yaml:"sheet"`
	Row    int    `json:"row" yaml:"row"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

func (r RowIssue) String() string {
	if r.Column == "" {
		return fmt.Sprintf("%s row %d: %s", r.Sheet, r.Row, r.Reason)
	}
	return fmt.Sprintf("%s row %d column %s: %s", r.Sheet, r.Row, r.Column, r.Reason)
}

// Report summarizes a merge run.
type Report struct {
	Input      string               `json:"input" yaml:"input"`
	Output     string               `json:"output" yaml:"output"`
	Mode       Mode                 `json:"mode" yaml:"mode"`
	Rows       int                  `json:"rows" yaml:"rows"`
	Applied    int                  `json:"applied" yaml:"applied"`
	Skipped    []RowIssue           `json:"skipped" yaml:"skipped"`
	Created    map[string]int       `json:"created" yaml:"created"`
	NewNodes   []NewNode            `json:"new_nodes,omitempty" yaml:"new_nodes,omitempty"`
	Evidence   map[string]int       `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Warnings   []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Collisions []identity.Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
	Violations []ontology.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Triples    int                  `json:"triples" yaml:"triples"`
}

// NewNode is an individual minted by the run.
type NewNode struct {
	Kind  string `json:"kind" yaml:"kind"`
	IRI   string `json:"iri" yaml:"iri"`
	Label string `json:"label" yaml:"label"`
}

func newReport(o Options) *Report {
	return &Report{
		Input:    o.Input,
		Output:   o.Output,
		Mode:     o.Mode,
		Skipped:  []RowIssue{},
		Created:  map[string]int{},
		Evidence: map[string]int{},
	}
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
