package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/graph"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/identity"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology/ontologytest"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Shared Mental Model ", "shared mental model"},
		{"shared mental models", "shared mental model"},
		{"Cross–level", "cross level"},
		{"network_anlaysis", "network analysis"},
		{"Team's  strategies", "team strategy"},
		{"Recurrence analysis", "recurrence analysis"},
		{"Process loss", "process loss"},
		{"Consensus status", "consensus status"},
		{"ＥＣＧ", "ecg"},
		{"time-series", "time series"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.Normalize(tt.in))
			assert.Equal(t, tt.want, identity.Normalize(identity.Normalize(tt.in)), "idempotent")
		})
	}
}

func TestSlugAndSplit(t *testing.T) {
	assert.Equal(t, "shared_mental_model", identity.Slug("shared mental model"))
	assert.Equal(t, "crqa", identity.Slug("--CRQA--"))
	assert.Equal(t, []string{"audio", "video"}, identity.SplitMulti(" audio, ,video ;"))
	assert.Empty(t, identity.SplitMulti(""))
	assert.Equal(t, "DSA - recurrence analysis", identity.CleanLabel("  DSA – recurrence   anlaysis "))
}

func TestModalityBucket(t *testing.T) {
	tests := map[string]string{
		"EEG":                "physiology",
		"Post-task survey":   "survey",
		"Video observation":  "observation",
		"Speech transcripts": "communication",
		"Movement traces":    "behavior",
		"Task outcome":       "taskOutcome",
		"Mystery":            "",
	}
	for in, want := range tests {
		assert.Equalf(t, want, identity.ModalityBucket(in), "label %q", in)
	}
}

func TestResolveScenario(t *testing.T) {
	r := identity.NewResolver(ontologytest.View(t))

	ref, err := r.Resolve("Shared Mental Model ", ontology.KindConstruct)
	require.NoError(t, err)
	assert.Equal(t, ontologytest.SharedMentalModels, ref.IRI)
	assert.Equal(t, "shared mental models", ref.Label)

	ref, err = r.Resolve(ontologytest.Communication, ontology.KindConstruct)
	require.NoError(t, err)
	assert.Equal(t, ontologytest.Communication, ref.IRI)

	ref, err = r.Resolve("inst:construct_trust", ontology.KindConstruct)
	require.NoError(t, err)
	assert.Equal(t, ontologytest.Trust, ref.IRI)

	_, err = r.Resolve("inst:modality_audio", ontology.KindConstruct)
	assert.True(t, apperr.IsNotFound(err), "a prefixed IRI of another kind does not resolve")

	ref, err = r.Resolve("ecg", ontology.KindModality)
	require.NoError(t, err)
	assert.Equal(t, ontologytest.ModalityECG, ref.IRI)

	_, err = r.Resolve("team cohesion", ontology.KindConstruct)
	assert.True(t, apperr.IsNotFound(err))

	_, err = r.Resolve("audio", ontology.KindConstruct)
	assert.True(t, apperr.IsNotFound(err), "kinds are resolved separately")

	_, err = r.Resolve("  ", ontology.KindMeasure)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestWriterStableIdentity(t *testing.T) {
	s := graph.New()
	view := ontology.NewView(s, ontology.DefaultVocabulary())
	w, err := identity.NewWriter(view)
	require.NoError(t, err)

	first, created, err := w.ResolveOrCreate("Heart-rate variability", ontology.KindModality)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ontology.DefaultInstNS+"modality_heart_rate_variability", first.IRI)
	size := s.Len()

	for _, label := range []string{"heart rate variability", "Heart Rate Variabilities", "heart_rate_variability"} {
		again, created, err := w.ResolveOrCreate(label, ontology.KindModality)
		require.NoError(t, err)
		assert.False(t, created, label)
		assert.Equal(t, first.IRI, again.IRI, label)
	}
	assert.Equal(t, size, s.Len())
	assert.True(t, s.Has(graph.IRI(first.IRI), graph.IRI(graph.NamespaceSKOS+"broader"), graph.IRI(ontology.DefaultMeasNS+"physiology")))

	// a fresh writer over the same graph finds the same individual
	w2, err := identity.NewWriter(view)
	require.NoError(t, err)
	again, created, err := w2.ResolveOrCreate("HEART RATE VARIABILITY", ontology.KindModality)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.IRI, again.IRI)
	assert.Len(t, w.Created(), 1)
}

func TestWriterKeyedMeasure(t *testing.T) {
	s := graph.New()
	w, err := identity.NewWriter(ontology.NewView(s, ontology.DefaultVocabulary()))
	require.NoError(t, err)

	m, created, err := w.ResolveOrCreateKeyed("M-12", "Speech overlap", ontology.KindMeasure)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ontology.DefaultInstNS+"measure_m_12", m.IRI)
	assert.Equal(t, "Speech overlap", s.Label(graph.IRI(m.IRI)))

	renamed, created, err := w.ResolveOrCreateKeyed("M-12", "Speech overlap ratio", ontology.KindMeasure)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.IRI, renamed.IRI)
}

func TestWriterRejectsFrozenStore(t *testing.T) {
	_, err := identity.NewWriter(ontologytest.View(t))
	assert.ErrorIs(t, err, graph.ErrFrozen)
}

func TestCollisionsPickSmallestIRI(t *testing.T) {
	s := graph.New()
	vocab := ontology.DefaultVocabulary()
	class := vocab.Class(ontology.KindTechnique)
	_, _, err := s.UpsertIndividual(class, ontology.DefaultInstNS+"tech_b", "Cross correlation")
	require.NoError(t, err)
	_, _, err = s.UpsertIndividual(class, ontology.DefaultInstNS+"tech_a", "cross-correlation")
	require.NoError(t, err)

	r := identity.NewResolver(ontology.NewView(s, vocab))
	ref, err := r.Resolve("Cross Correlation", ontology.KindTechnique)
	require.NoError(t, err)
	assert.Equal(t, ontology.DefaultInstNS+"tech_a", ref.IRI)

	cs := r.Collisions()
	require.Len(t, cs, 1)
	assert.Equal(t, "cross correlation", cs[0].Key)
	assert.Equal(t, ontology.DefaultInstNS+"tech_a", cs[0].Chosen)
	assert.Len(t, cs[0].IRIs, 2)
}
