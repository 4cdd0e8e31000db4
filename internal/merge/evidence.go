package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

type evidenceSheet struct {
	name   string
	fields []Field
	plan   func(p *pipeline, t *Table, cols Columns, i int) (func() error, error)
}

// Evidence sheets are merged in dependency order.
var evidenceSheets = []evidenceSheet{
	{
		name: "publications",
		fields: []Field{
			{Name: "publication_id", Required: true, Synonyms: []string{"publicationID", "pub_id"}},
			{Name: "DOI", Synonyms: []string{"hasDOI", "doi"}},
			{Name: "pubYear", Synonyms: []string{"hasPubYear", "year"}},
			{Name: "firstAuthor", Synonyms: []string{"hasFirstAuthor", "author"}},
			{Name: "title", Synonyms: []string{"label", "name"}},
		},
		plan: planPublication,
	},
	{
		name: "studies",
		fields: []Field{
			{Name: "study_id", Required: true, Synonyms: []string{"studyID"}},
			{Name: "publication_id", Synonyms: []string{"publicationID", "pub_id"}},
			{Name: "studyType", Synonyms: []string{"study_type", "type"}},
			{Name: "hasStudyPopulation", Synonyms: []string{"population", "studyPopulation"}},
			{Name: "aggregatesStudy", Synonyms: []string{"aggregates", "aggregated_studies"}},
			{Name: "label", Synonyms: []string{"name", "title"}},
		},
		plan: planStudy,
	},
	{
		name: "effects",
		fields: []Field{
			{Name: "effect_id", Required: true, Synonyms: []string{"effectID"}},
			{Name: "study_id", Required: true, Synonyms: []string{"studyID"}},
			{Name: "independentVariable", Required: true, Synonyms: []string{"indepdentVariable", "iv", "hasIndependentVariable"}},
			{Name: "dependentVariable", Required: true, Synonyms: []string{"dv", "hasDependentVariable"}},
			{Name: "hasEffectSizeValue", Synonyms: []string{"effectSize", "value"}},
			{Name: "usesEffectSizeMetric", Synonyms: []string{"metric"}},
			{Name: "hasPValue", Synonyms: []string{"pValue", "p"}},
			{Name: "hasLowerCI", Synonyms: []string{"lowerCI"}},
			{Name: "hasUpperCI", Synonyms: []string{"upperCI"}},
			{Name: "hasStandardError", Synonyms: []string{"standardError", "se"}},
			{Name: "individualSampleSize", Synonyms: []string{"hasIndividualSampleSize"}},
			{Name: "teamSampleSize", Synonyms: []string{"hasTeamSampleSize"}},
			{Name: "analysisLevel", Synonyms: []string{"hasAnalysisLevel"}},
			{Name: "perturbationPhase", Synonyms: []string{"hasPerturbationPhase"}},
			{Name: "notes", Synonyms: []string{"hasNotes"}},
		},
		plan: planEffect,
	},
	{
		name: "class_relationships",
		fields: []Field{
			{Name: "relationship_id", Required: true, Synonyms: []string{"relationshipID", "clr_id"}},
			{Name: "meta_analysis_id", Synonyms: []string{"study_id", "metaAnalysis"}},
			{Name: "sourceConstruct", Required: true, Synonyms: []string{"source", "hasSourceConstruct"}},
			{Name: "targetConstruct", Required: true, Synonyms: []string{"target", "hasTargetConstruct"}},
			{Name: "hasEffectSizeValue", Synonyms: []string{"effectSize", "value"}},
			{Name: "usesEffectSizeMetric", Synonyms: []string{"metric"}},
			{Name: "hasLowerCI", Synonyms: []string{"lowerCI"}},
			{Name: "hasUpperCI", Synonyms: []string{"upperCI"}},
		},
		plan: planClassRelationship,
	},
}

// rowReader reads typed cells of one row by field name.
type rowReader struct {
	t    *Table
	cols Columns
	i    int
}

func (r rowReader) str(name string) string {
	return r.t.Cell(r.i, r.cols.Col(Field{Name: name}))
}

func (r rowReader) float(name string) (*float64, error) {
	s := r.str(name)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &rowError{column: name, err: apperr.InvalidArgument("%q is not a number", s)}
	}
	return &f, nil
}

func (r rowReader) int(name string) (*int64, error) {
	f, err := r.float(name)
	if err != nil || f == nil {
		return nil, err
	}
	n := int64(*f)
	if float64(n) != *f {
		return nil, &rowError{column: name, err: apperr.InvalidArgument("%g is not a whole number", *f)}
	}
	return &n, nil
}

func (r rowReader) required(name string) (string, error) {
	v := r.str(name)
	if v == "" {
		return "", missing(name, name)
	}
	return v, nil
}

// literals collects optional typed values, failing on the first bad cell.
type literals struct {
	r    rowReader
	vals map[ontology.Predicate]graph.Term
	err  error
}

func (l *literals) float(p ontology.Predicate, name string) {
	if l.err != nil {
		return
	}
	f, err := l.r.float(name)
	if err != nil {
		l.err = err
		return
	}
	if f != nil {
		l.vals[p] = graph.FloatLiteral(*f)
	}
}

func (l *literals) int(p ontology.Predicate, name string) {
	if l.err != nil {
		return
	}
	n, err := l.r.int(name)
	if err != nil {
		l.err = err
		return
	}
	if n != nil {
		l.vals[p] = graph.IntLiteral(*n)
	}
}

func (l *literals) str(p ontology.Predicate, name string) {
	if v := l.r.str(name); v != "" {
		l.vals[p] = graph.Literal(v)
	}
}

func (p *pipeline) setLiterals(iri string, vals map[ontology.Predicate]graph.Term) error {
	vocab := p.view.Vocabulary()
	for pred, lit := range vals {
		if _, err := p.view.Store().SetLiteral(graph.IRI(iri), vocab.P(pred), lit); err != nil {
			return fmt.Errorf("set %s: %w", iri, err)
		}
	}
	return nil
}

func (p *pipeline) replaceEdge(s string, pred ontology.Predicate, o string) error {
	_, err := p.view.Store().SetObject(graph.IRI(s), p.view.Vocabulary().P(pred), graph.IRI(o))
	return err
}

func (p *pipeline) edge(s string, pred ontology.Predicate, o string) error {
	_, err := p.view.Store().AddEdge(graph.IRI(s), p.view.Vocabulary().P(pred), graph.IRI(o))
	return err
}

// exactlyOne resolves raw to a single existing individual of one of kinds.
func (p *pipeline) exactlyOne(raw, column string, kinds ...ontology.Kind) (string, error) {
	var found []string
	for _, k := range kinds {
		found = append(found, p.writer.Candidates(raw, k)...)
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", &rowError{column: column, err: apperr.NotFound(kinds[0].String(), raw)}
	default:
		return "", &rowError{column: column, err: apperr.InvalidArgument("%q is ambiguous: %s", raw, strings.Join(found, ", "))}
	}
}

func planPublication(p *pipeline, t *Table, cols Columns, i int) (func() error, error) {
	r := rowReader{t, cols, i}
	id, err := r.required("publication_id")
	if err != nil {
		return nil, err
	}
	lits := &literals{r: r, vals: map[ontology.Predicate]graph.Term{}}
	lits.str(ontology.PredDOI, "DOI")
	lits.int(ontology.PredPubYear, "pubYear")
	lits.str(ontology.PredFirstAuthor, "firstAuthor")
	if lits.err != nil {
		return nil, lits.err
	}
	label := firstNonEmpty(r.str("title"), strings.TrimSpace(r.str("firstAuthor")+" "+r.str("pubYear")), id)
	return func() error {
		ref, _, err := p.create(id, label, ontology.KindPublication)
		if err != nil {
			return err
		}
		return p.setLiterals(ref.IRI, lits.vals)
	}, nil
}

func planStudy(p *pipeline, t *Table, cols Columns, i int) (func() error, error) {
	r := rowReader{t, cols, i}
	id, err := r.required("study_id")
	if err != nil {
		return nil, err
	}
	kind := ontology.KindPrimaryStudy
	other := ontology.KindMetaAnalysis
	switch identity.Normalize(r.str("studyType")) {
	case "", "primary", "primary study":
	case "meta analysis", "metaanalysis":
		kind, other = ontology.KindMetaAnalysis, ontology.KindPrimaryStudy
	default:
		return nil, &rowError{column: "studyType", err: apperr.InvalidArgument("unknown study type %q", r.str("studyType"))}
	}
	if len(p.writer.Candidates(id, other)) > 0 {
		return nil, &rowError{column: "studyType", err: apperr.InvalidArgument("study %q is already recorded as a %s", id, other)}
	}
	var pub string
	if raw := r.str("publication_id"); raw != "" {
		if pub, err = p.exactlyOne(raw, "publication_id", ontology.KindPublication); err != nil {
			return nil, err
		}
	}
	var aggregates []string
	for _, raw := range identity.SplitMulti(r.str("aggregatesStudy")) {
		s, err := p.exactlyOne(raw, "aggregatesStudy", ontology.KindPrimaryStudy, ontology.KindMetaAnalysis)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, s)
	}
	lits := &literals{r: r, vals: map[ontology.Predicate]graph.Term{}}
	lits.str(ontology.PredStudyPopulation, "hasStudyPopulation")

	return func() error {
		ref, _, err := p.create(id, firstNonEmpty(r.str("label"), id), kind)
		if err != nil {
			return err
		}
		if pub != "" {
			if err := p.edge(pub, ontology.PredReportsStudy, ref.IRI); err != nil {
				return err
			}
		}
		for _, s := range aggregates {
			if err := p.edge(ref.IRI, ontology.PredAggregatesStudy, s); err != nil {
				return err
			}
		}
		return p.setLiterals(ref.IRI, lits.vals)
	}, nil
}

func planEffect(p *pipeline, t *Table, cols Columns, i int) (func() error, error) {
	r := rowReader{t, cols, i}
	id, err := r.required("effect_id")
	if err != nil {
		return nil, err
	}
	ivs, err := r.required("independentVariable")
	if err != nil {
		return nil, err
	}
	dvs, err := r.required("dependentVariable")
	if err != nil {
		return nil, err
	}
	studyRaw, err := r.required("study_id")
	if err != nil {
		return nil, err
	}
	iv, err := p.exactlyOne(ivs, "independentVariable", ontology.KindMeasure)
	if err != nil {
		return nil, err
	}
	dv, err := p.exactlyOne(dvs, "dependentVariable", ontology.KindMeasure)
	if err != nil {
		return nil, err
	}
	study, err := p.exactlyOne(studyRaw, "study_id", ontology.KindPrimaryStudy, ontology.KindMetaAnalysis)
	if err != nil {
		return nil, err
	}

	lits := &literals{r: r, vals: map[ontology.Predicate]graph.Term{}}
	lits.float(ontology.PredEffectValue, "hasEffectSizeValue")
	lits.str(ontology.PredEffectMetric, "usesEffectSizeMetric")
	lits.float(ontology.PredPValue, "hasPValue")
	lits.float(ontology.PredLowerCI, "hasLowerCI")
	lits.float(ontology.PredUpperCI, "hasUpperCI")
	lits.float(ontology.PredStandardError, "hasStandardError")
	lits.int(ontology.PredIndividualN, "individualSampleSize")
	lits.int(ontology.PredTeamN, "teamSampleSize")
	lits.str(ontology.PredAnalysisLevel, "analysisLevel")
	lits.str(ontology.PredPerturbationPhase, "perturbationPhase")
	lits.str(ontology.PredNotes, "notes")
	if lits.err != nil {
		return nil, lits.err
	}

	return func() error {
		ref, _, err := p.create(id, id, ontology.KindEffectSize)
		if err != nil {
			return err
		}
		if err := p.replaceEdge(ref.IRI, ontology.PredIndependentVariable, iv); err != nil {
			return err
		}
		if err := p.replaceEdge(ref.IRI, ontology.PredDependentVariable, dv); err != nil {
			return err
		}
		if err := p.edge(study, ontology.PredReportsEffectSize, ref.IRI); err != nil {
			return err
		}
		return p.setLiterals(ref.IRI, lits.vals)
	}, nil
}

func planClassRelationship(p *pipeline, t *Table, cols Columns, i int) (func() error, error) {
	r := rowReader{t, cols, i}
	id, err := r.required("relationship_id")
	if err != nil {
		return nil, err
	}
	var ends [2]string
	for j, name := range []string{"sourceConstruct", "targetConstruct"} {
		raw, err := r.required(name)
		if err != nil {
			return nil, err
		}
		ref, err := p.writer.Resolve(raw, ontology.KindConstruct)
		if apperr.IsNotFound(err) {
			return nil, &rowError{column: name, err: &apperr.UnresolvedConstruct{Label: raw, Key: identity.Normalize(raw)}}
		}
		if err != nil {
			return nil, &rowError{column: name, err: err}
		}
		ends[j] = ref.IRI
	}
	var meta string
	if raw := r.str("meta_analysis_id"); raw != "" {
		if meta, err = p.exactlyOne(raw, "meta_analysis_id", ontology.KindMetaAnalysis); err != nil {
			return nil, err
		}
	}
	lits := &literals{r: r, vals: map[ontology.Predicate]graph.Term{}}
	lits.float(ontology.PredEffectValue, "hasEffectSizeValue")
	lits.str(ontology.PredEffectMetric, "usesEffectSizeMetric")
	lits.float(ontology.PredLowerCI, "hasLowerCI")
	lits.float(ontology.PredUpperCI, "hasUpperCI")
	if lits.err != nil {
		return nil, lits.err
	}

	return func() error {
		ref, _, err := p.create(id, id, ontology.KindClassRelationship)
		if err != nil {
			return err
		}
		if err := p.replaceEdge(ref.IRI, ontology.PredSourceConstruct, ends[0]); err != nil {
			return err
		}
		if err := p.replaceEdge(ref.IRI, ontology.PredTargetConstruct, ends[1]); err != nil {
			return err
		}
		if meta != "" {
			if err := p.edge(meta, ontology.PredSummarizesRelationship, ref.IRI); err != nil {
				return err
			}
		}
		return p.setLiterals(ref.IRI, lits.vals)
	}, nil
}
