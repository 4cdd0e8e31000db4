// Package ontologytest provides a small team-measurement graph for tests.
package ontologytest

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// Path is where Write places the fixture.
const Path = "fixture/base.ttl"

// Instance IRIs used by the fixture.
const (
	SharedMentalModels = ontology.DefaultInstNS + "construct_shared_mental_models"
	Coordination       = ontology.DefaultInstNS + "construct_coordination"
	TeamPerformance    = ontology.DefaultInstNS + "construct_team_performance"
	Trust              = ontology.DefaultInstNS + "construct_trust"
	Communication      = ontology.DefaultMeasNS + "communication"

	SpeechOverlap    = ontology.DefaultInstNS + "measure_speech_overlap"
	HeartRateSync    = ontology.DefaultInstNS + "measure_heart_rate_synchrony"
	MentalModelSurv  = ontology.DefaultInstNS + "measure_team_mental_model_survey"
	TaskScore        = ontology.DefaultInstNS + "measure_task_score"
	TurnTakingRate   = ontology.DefaultInstNS + "measure_turn_taking_rate"
	ModalityAudio    = ontology.DefaultInstNS + "modality_audio"
	ModalityECG      = ontology.DefaultInstNS + "modality_ecg"
	ModalitySurvey   = ontology.DefaultInstNS + "modality_survey"
	TechCRQA         = ontology.DefaultInstNS + "tech_crqa"
	TechCorrelation  = ontology.DefaultInstNS + "tech_correlation"
	LevelTeam        = ontology.DefaultInstNS + "level_team"
	LevelIndividual  = ontology.DefaultInstNS + "level_individual"
	Effect1          = ontology.DefaultInstNS + "effect_e1"
	ClassRel1        = ontology.DefaultInstNS + "clr_r1"
	Study1           = ontology.DefaultInstNS + "study_s1"
	Meta1            = ontology.DefaultInstNS + "study_m1"
	Publication1     = ontology.DefaultInstNS + "pub_p1"
)

// Turtle is the fixture graph. Shared mental models and coordination share
// the speech overlap measure; coordination reaches team performance through
// an effect size; shared mental models reaches team performance through a
// class-level relationship; trust is isolated. The measure class carries an
// anonymous owl:Restriction.
const Turtle = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix skos: <http://www.w3.org/2004/02/skos/core#> .
@prefix meas: <http://example.org/ontology/teamMeasurement#> .
@prefix evid: <http://example.org/ontology/evidence#> .
@prefix inst: <http://example.org/ontology/instances#> .

meas:Construct a owl:Class .
meas:Measure a owl:Class ;
    rdfs:subClassOf [ a owl:Restriction ;
        owl:onProperty meas:measuresConstruct ;
        owl:minCardinality 1 ] .
meas:Modality a owl:Class .
meas:analyticTechnique a owl:Class .
meas:levelOfAnalysis a owl:Class .
evid:EffectSize a owl:Class .
evid:ClassLevelRelationship a owl:Class .
evid:primaryStudy a owl:Class ; rdfs:subClassOf evid:Study .
evid:metaAnalysis a owl:Class ; rdfs:subClassOf evid:Study .
meas:measuresConstruct a owl:ObjectProperty .
meas:hasDescription a owl:DatatypeProperty .

meas:communication a owl:Class ;
    rdfs:subClassOf meas:Construct ;
    rdfs:label "communication" .

inst:construct_shared_mental_models a meas:Construct ;
    rdfs:label "shared mental models" ;
    meas:hasDescription "Overlapping knowledge structures held by team members about the task and the team." .
inst:construct_coordination a meas:Construct ;
    rdfs:label "coordination" ;
    meas:hasDescription "Orchestrating the sequence and timing of interdependent actions." ;
    skos:broader meas:communication .
inst:construct_team_performance a meas:Construct ;
    rdfs:label "team performance" .
inst:construct_trust a meas:Construct ;
    rdfs:label "trust" .

inst:modality_audio a meas:Modality ; rdfs:label "audio" ; skos:broader meas:communication .
inst:modality_ecg a meas:Modality ; rdfs:label "ECG" .
inst:modality_survey a meas:Modality ; rdfs:label "survey" .
inst:tech_crqa a meas:analyticTechnique ; rdfs:label "CRQA" .
inst:tech_correlation a meas:analyticTechnique ; rdfs:label "correlation" .
inst:level_team a meas:levelOfAnalysis ; rdfs:label "team" .
inst:level_individual a meas:levelOfAnalysis ; rdfs:label "individual" .

inst:measure_speech_overlap a meas:Measure ;
    rdfs:label "Speech overlap" ;
    meas:hasDescription "Proportion of overlapping speech between teammates." ;
    meas:measuresConstruct inst:construct_shared_mental_models, inst:construct_coordination ;
    meas:includesModality inst:modality_audio ;
    meas:usesAnalyticTechnique inst:tech_crqa ;
    meas:hasLevelOfAnalysis inst:level_team .
inst:measure_heart_rate_synchrony a meas:Measure ;
    rdfs:label "Heart rate synchrony" ;
    meas:measuresConstruct inst:construct_coordination ;
    meas:includesModality inst:modality_ecg ;
    meas:usesAnalyticTechnique inst:tech_crqa ;
    meas:hasLevelOfAnalysis inst:level_team .
inst:measure_team_mental_model_survey a meas:Measure ;
    rdfs:label "Team mental model survey" ;
    meas:measuresConstruct inst:construct_shared_mental_models ;
    meas:includesModality inst:modality_survey ;
    meas:usesAnalyticTechnique inst:tech_correlation ;
    meas:hasLevelOfAnalysis inst:level_individual .
inst:measure_task_score a meas:Measure ;
    rdfs:label "Task score" ;
    meas:measuresConstruct inst:construct_team_performance ;
    meas:includesModality inst:modality_survey ;
    meas:usesAnalyticTechnique inst:tech_correlation ;
    meas:hasLevelOfAnalysis inst:level_team .
inst:measure_turn_taking_rate a meas:Measure ;
    rdfs:label "Turn taking rate" ;
    meas:measuresConstruct meas:communication ;
    meas:includesModality inst:modality_audio ;
    meas:usesAnalyticTechnique inst:tech_correlation ;
    meas:hasLevelOfAnalysis inst:level_team .

inst:pub_p1 a evid:Publication ;
    rdfs:label "Smith 2020" ;
    evid:hasDOI "10.1000/xyz" ;
    evid:hasPubYear "2020"^^xsd:integer ;
    evid:hasFirstAuthor "Smith" ;
    evid:reportsStudy inst:study_s1, inst:study_m1 .
inst:study_s1 a evid:primaryStudy ;
    rdfs:label "Surgical team study" ;
    evid:hasStudyPopulation "surgical teams" ;
    evid:reportsEffectSize inst:effect_e1 .
inst:study_m1 a evid:metaAnalysis ;
    rdfs:label "Cognition meta-analysis" ;
    evid:aggregatesStudy inst:study_s1 ;
    evid:summarizesRelationship inst:clr_r1 .
inst:effect_e1 a evid:EffectSize ;
    evid:hasIndependentVariable inst:measure_heart_rate_synchrony ;
    evid:hasDependentVariable inst:measure_task_score ;
    evid:hasEffectSizeValue "0.42"^^xsd:float ;
    evid:usesEffectSizeMetric "r" ;
    evid:hasLowerCI "0.21"^^xsd:float ;
    evid:hasUpperCI "0.6"^^xsd:float ;
    evid:hasTeamSampleSize "48"^^xsd:integer .
inst:clr_r1 a evid:ClassLevelRelationship ;
    evid:hasSourceConstruct inst:construct_shared_mental_models ;
    evid:hasTargetConstruct inst:construct_team_performance ;
    evid:hasEffectSizeValue "0.31"^^xsd:float ;
    evid:usesEffectSizeMetric "rho" .
`

// Write stores the fixture at Path on fs.
func Write(t testing.TB, fs afero.Fs) {
	t.Helper()
	if err := afero.WriteFile(fs, Path, []byte(Turtle), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

// Store loads and freezes the fixture graph.
func Store(t testing.TB) *graph.Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	Write(t, fs)
	s, err := graph.Load(fs, Path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	s.Freeze()
	return s
}

// View wraps the fixture store with the default vocabulary.
func View(t testing.TB) *ontology.View {
	t.Helper()
	fs := afero.NewMemMapFs()
	Write(t, fs)
	s, err := graph.Load(fs, Path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	v := ontology.NewView(s, ontology.DefaultVocabulary())
	s.Freeze()
	return v
}
