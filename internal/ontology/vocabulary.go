// Package ontology names the fixed set of classes and properties of the
// team-measurement ontology and provides typed read views over a graph
// store.
package ontology

import (
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
)

// Default namespaces.
const (
	DefaultMeasNS = "http://example.org/ontology/teamMeasurement#"
	DefaultEvidNS = "http://example.org/ontology/evidence#"
	DefaultInstNS = "http://example.org/ontology/instances#"
)

// Kind enumerates the entity types the core knows about.
type Kind int

const (
	KindConstruct Kind = iota + 1
	KindMeasure
	KindModality
	KindTechnique
	KindLevel
	KindPublication
	KindPrimaryStudy
	KindMetaAnalysis
	KindEffectSize
	KindClassRelationship
)

type nsID int

const (
	nsMeas nsID = iota
	nsEvid
	nsRDFS
	nsSKOS
)

var kindTable = map[Kind]struct {
	ns     nsID
	class  string
	prefix string
	name   string
}{
	KindConstruct:         {nsMeas, "Construct", "construct_", "construct"},
	KindMeasure:           {nsMeas, "Measure", "measure_", "measure"},
	KindModality:          {nsMeas, "Modality", "modality_", "modality"},
	KindTechnique:         {nsMeas, "analyticTechnique", "tech_", "analytic technique"},
	KindLevel:             {nsMeas, "levelOfAnalysis", "level_", "level of analysis"},
	KindPublication:       {nsEvid, "Publication", "pub_", "publication"},
	KindPrimaryStudy:      {nsEvid, "primaryStudy", "study_", "primary study"},
	KindMetaAnalysis:      {nsEvid, "metaAnalysis", "study_", "meta-analysis"},
	KindEffectSize:        {nsEvid, "EffectSize", "effect_", "effect size"},
	KindClassRelationship: {nsEvid, "ClassLevelRelationship", "clr_", "class-level relationship"},
}

// String returns a human name for the kind.
func (k Kind) String() string {
	if e, ok := kindTable[k]; ok {
		return e.name
	}
	return "unknown"
}

// LocalPrefix is the instance IRI prefix minted for the kind.
func (k Kind) LocalPrefix() string { return kindTable[k].prefix }

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindConstruct, KindMeasure, KindModality, KindTechnique, KindLevel,
		KindPublication, KindPrimaryStudy, KindMetaAnalysis, KindEffectSize, KindClassRelationship,
	}
}

// Predicate enumerates the properties the core reads or writes.
type Predicate int

const (
	PredLabel Predicate = iota + 1
	PredBroader
	PredNarrower
	PredMeasuresConstruct
	PredIncludesModality
	PredUsesTechnique
	PredHasLevel
	PredHasDescription
	PredHasSource
	PredReportsStudy
	PredReportsEffectSize
	PredAggregatesStudy
	PredSummarizesRelationship
	PredIndependentVariable
	PredDependentVariable
	PredSourceConstruct
	PredTargetConstruct
	PredEffectValue
	PredEffectMetric
	PredLowerCI
	PredUpperCI
	PredPValue
	PredStandardError
	PredIndividualN
	PredTeamN
	PredAnalysisLevel
	PredPerturbationPhase
	PredNotes
	PredDOI
	PredPubYear
	PredFirstAuthor
	PredStudyPopulation
)

var predicateTable = map[Predicate]struct {
	ns    nsID
	local string
}{
	PredLabel:                  {nsRDFS, "label"},
	PredBroader:                {nsSKOS, "broader"},
	PredNarrower:               {nsSKOS, "narrower"},
	PredMeasuresConstruct:      {nsMeas, "measuresConstruct"},
	PredIncludesModality:       {nsMeas, "includesModality"},
	PredUsesTechnique:          {nsMeas, "usesAnalyticTechnique"},
	PredHasLevel:               {nsMeas, "hasLevelOfAnalysis"},
	PredHasDescription:         {nsMeas, "hasDescription"},
	PredHasSource:              {nsMeas, "hasSource"},
	PredReportsStudy:           {nsEvid, "reportsStudy"},
	PredReportsEffectSize:      {nsEvid, "reportsEffectSize"},
	PredAggregatesStudy:        {nsEvid, "aggregatesStudy"},
	PredSummarizesRelationship: {nsEvid, "summarizesRelationship"},
	PredIndependentVariable:    {nsEvid, "hasIndependentVariable"},
	PredDependentVariable:      {nsEvid, "hasDependentVariable"},
	PredSourceConstruct:        {nsEvid, "hasSourceConstruct"},
	PredTargetConstruct:        {nsEvid, "hasTargetConstruct"},
	PredEffectValue:            {nsEvid, "hasEffectSizeValue"},
	PredEffectMetric:           {nsEvid, "usesEffectSizeMetric"},
	PredLowerCI:                {nsEvid, "hasLowerCI"},
	PredUpperCI:                {nsEvid, "hasUpperCI"},
	PredPValue:                 {nsEvid, "hasPValue"},
	PredStandardError:          {nsEvid, "hasStandardError"},
	PredIndividualN:            {nsEvid, "hasIndividualSampleSize"},
	PredTeamN:                  {nsEvid, "hasTeamSampleSize"},
	PredAnalysisLevel:          {nsEvid, "hasAnalysisLevel"},
	PredPerturbationPhase:      {nsEvid, "hasPerturbationPhase"},
	PredNotes:                  {nsEvid, "hasNotes"},
	PredDOI:                    {nsEvid, "hasDOI"},
	PredPubYear:                {nsEvid, "hasPubYear"},
	PredFirstAuthor:            {nsEvid, "hasFirstAuthor"},
	PredStudyPopulation:        {nsEvid, "hasStudyPopulation"},
}

// Vocabulary resolves classes and properties against configurable
// namespaces.
type Vocabulary struct {
	Meas string
	Evid string
	Inst string
}

// DefaultVocabulary uses the namespaces of the published ontology files.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Meas: DefaultMeasNS, Evid: DefaultEvidNS, Inst: DefaultInstNS}
}

func (v Vocabulary) ns(id nsID) string {
	switch id {
	case nsMeas:
		return v.Meas
	case nsEvid:
		return v.Evid
	case nsSKOS:
		return graph.NamespaceSKOS
	default:
		return graph.NamespaceRDFS
	}
}

// Class returns the class IRI of kind.
func (v Vocabulary) Class(k Kind) string {
	e := kindTable[k]
	return v.ns(e.ns) + e.class
}

// StudyClass is the abstract study class.
func (v Vocabulary) StudyClass() string { return v.Evid + "Study" }

// P returns the IRI term of a predicate.
func (v Vocabulary) P(p Predicate) graph.Term {
	e := predicateTable[p]
	return graph.IRI(v.ns(e.ns) + e.local)
}

// MeasTerm returns a term in the schema namespace.
func (v Vocabulary) MeasTerm(local string) graph.Term { return graph.IRI(v.Meas + local) }

// InstanceIRI mints the instance IRI for kind and slug.
func (v Vocabulary) InstanceIRI(k Kind, slug string) string {
	return v.Inst + k.LocalPrefix() + slug
}

// Bind registers the vocabulary prefixes on a store.
func (v Vocabulary) Bind(s *graph.Store) {
	s.Bind("meas", v.Meas)
	s.Bind("evid", v.Evid)
	s.Bind("inst", v.Inst)
}
