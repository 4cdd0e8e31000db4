// Package merge ingests a measure workbook into the ontology graph: load
// the base and prior graphs, parse the rows, resolve identities, merge and
// serialize the result deterministically.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// Mode decides what happens to a row that cannot be merged.
type Mode string

const (
	// Lenient skips the row and records it in the report.
	Lenient Mode = "lenient"
	// Strict aborts the whole merge.
	Strict Mode = "strict"
)

// DefaultSheet is the worksheet read when none is named.
const DefaultSheet = "measures"

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("namespace", func(fl validator.FieldLevel) bool {
		ns := fl.Field().String()
		return ns == "" || (strings.Contains(ns, "://") && strings.ContainsAny(ns[len(ns)-1:], "#/"))
	})
}

// Options configures one merge run.
type Options struct {
	// BasePaths are the schema graphs, e.g. teamMeasurement.ttl and
	// evidence.ttl.
	BasePaths []string `validate:"required,min=1,dive,required"`
	// PriorPath is an optional earlier instance graph. A missing file is a
	// warning.
	PriorPath string
	// Input is the workbook (.xlsx) or a .csv export of the measures sheet.
	Input  string `validate:"required"`
	Output string `validate:"required"`
	Sheet  string
	Mode   Mode `validate:"omitempty,oneof=strict lenient"`

	MeasNS string `validate:"namespace"`
	EvidNS string `validate:"namespace"`
	InstNS string `validate:"namespace"`

	// Columns maps a field name (see Field) to a header, overriding
	// detection.
	Columns map[string]string
	// AllowNewConstructs lets rows mint constructs missing from the base
	// graph instead of failing with UnresolvedConstruct.
	AllowNewConstructs bool
	// Evidence merges the publications, studies, effects and
	// class_relationships sheets when the workbook has them.
	Evidence bool
	// InstancesOnly drops the base graph's triples from the output.
	InstancesOnly bool
}

func (o Options) withDefaults() Options {
	if o.Sheet == "" {
		o.Sheet = DefaultSheet
	}
	if o.Mode == "" {
		o.Mode = Lenient
	}
	def := ontology.DefaultVocabulary()
	if o.MeasNS == "" {
		o.MeasNS = def.Meas
	}
	if o.EvidNS == "" {
		o.EvidNS = def.Evid
	}
	if o.InstNS == "" {
		o.InstNS = def.Inst
	}
	return o
}

// Vocabulary returns the namespaces the run writes with.
func (o Options) Vocabulary() ontology.Vocabulary {
	o = o.withDefaults()
	return ontology.Vocabulary{Meas: o.MeasNS, Evid: o.EvidNS, Inst: o.InstNS}
}

// Validate checks the options before any input is read.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var msgs []string
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value: %v)", e.Field(), e.Tag(), e.Value()))
			}
			return apperr.InvalidArgument("merge options: %s", strings.Join(msgs, "; "))
		}
		return apperr.InvalidArgument("merge options: %v", err)
	}
	for field := range o.Columns {
		if _, ok := fieldByName(field); !ok {
			return apperr.InvalidArgument("merge options: unknown column field %q", field)
		}
	}
	return nil
}
