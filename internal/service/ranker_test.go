package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

func ids(values ...string) []domain.SymptomID {
	out := make([]domain.SymptomID, len(values))
	for i, v := range values {
		out[i] = domain.SymptomID(v)
	}
	return out
}

func TestMatchSymptoms(t *testing.T) {
	tests := []struct {
		name            string
		requested       domain.SymptomSet
		disease         domain.Disease
		expectedMatched int
		expectedPrimary int
	}{
		{
			name:      "Primary only",
			requested: domain.NewSymptomSet("fever", "cough"),
			disease: domain.Disease{
				PrimarySymptoms: ids("fever", "cough", "sore_throat"),
			},
			expectedMatched: 2,
			expectedPrimary: 2,
		},
		{
			name:      "Mixed roles",
			requested: domain.NewSymptomSet("fever", "rash", "fatigue"),
			disease: domain.Disease{
				PrimarySymptoms: ids("fever"),
				EarlySymptoms:   ids("fatigue"),
				LateSymptoms:    ids("rash"),
			},
			expectedMatched: 3,
			expectedPrimary: 1,
		},
		{
			name:      "Overlapping collections count once",
			requested: domain.NewSymptomSet("fever", "cough"),
			disease: domain.Disease{
				PrimarySymptoms: ids("fever"),
				EarlySymptoms:   ids("fever", "cough"),
				LateSymptoms:    ids("cough", "fever"),
			},
			expectedMatched: 2,
			expectedPrimary: 1,
		},
		{
			name:      "Duplicate primary entries count once",
			requested: domain.NewSymptomSet("fever"),
			disease: domain.Disease{
				PrimarySymptoms: ids("fever", "fever"),
			},
			expectedMatched: 1,
			expectedPrimary: 1,
		},
		{
			name:      "No overlap",
			requested: domain.NewSymptomSet("headache"),
			disease: domain.Disease{
				PrimarySymptoms: ids("fever"),
				EarlySymptoms:   ids("cough"),
			},
			expectedMatched: 0,
			expectedPrimary: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := MatchSymptoms(tt.requested, &tt.disease)
			assert.Equal(t, tt.expectedMatched, match.Matched)
			assert.Equal(t, tt.expectedPrimary, match.Primary)
			assert.Equal(t, tt.expectedMatched > 0, match.IsMatch())
		})
	}
}

func TestRankDiseases_CommonCold(t *testing.T) {
	diseases := []domain.Disease{
		{
			ID:              "common_cold",
			Name:            "Common Cold",
			Severity:        domain.DiseaseMild,
			Contagious:      true,
			PrimarySymptoms: ids("fever", "cough", "sore throat"),
			EarlySymptoms:   []domain.SymptomID{},
			LateSymptoms:    []domain.SymptomID{},
		},
	}

	requested := domain.NewSymptomSet("fever", "cough")
	match := MatchSymptoms(requested, &diseases[0])
	assert.Equal(t, 2, match.Matched)
	assert.Equal(t, 2, match.Primary)
	assert.InDelta(t, 3.0, WeightedScore(match), 1e-9)

	results := RankDiseases(requested, diseases)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, domain.DiseaseID("common_cold"), r.DiseaseID)
	assert.Equal(t, "Common Cold", r.Name)
	assert.Equal(t, 2, r.MatchedSymptomCount)
	assert.Equal(t, 2, r.PrimaryMatchedCount)
	assert.Equal(t, 100.0, r.MatchRate)
	assert.True(t, r.Contagious)
	assert.False(t, r.Adjusted)
}

func TestRankDiseases_WeightingAndNormalization(t *testing.T) {
	requested := domain.NewSymptomSet("a", "b", "c", "d")
	diseases := []domain.Disease{
		{ID: "secondary_only", Name: "S", EarlySymptoms: ids("a"), LateSymptoms: ids("b")},
		{ID: "primary_one", Name: "P", PrimarySymptoms: ids("a")},
		{ID: "mixed", Name: "M", PrimarySymptoms: ids("a"), EarlySymptoms: ids("b")},
	}

	results := RankDiseases(requested, diseases)
	require.Len(t, results, 3)

	// mixed: 1.5 + 1.0 = 2.5 / 4 = 62.5
	// secondary_only: 2.0 / 4 = 50
	// primary_one: 1.5 / 4 = 37.5
	assert.Equal(t, domain.DiseaseID("mixed"), results[0].DiseaseID)
	assert.InDelta(t, 62.5, results[0].MatchRate, 1e-9)
	assert.Equal(t, domain.DiseaseID("secondary_only"), results[1].DiseaseID)
	assert.InDelta(t, 50.0, results[1].MatchRate, 1e-9)
	assert.Equal(t, domain.DiseaseID("primary_one"), results[2].DiseaseID)
	assert.InDelta(t, 37.5, results[2].MatchRate, 1e-9)
}

func TestRankDiseases_NoMatches(t *testing.T) {
	diseases := []domain.Disease{
		{ID: "d1", Name: "D1", PrimarySymptoms: ids("fever")},
		{ID: "d2", Name: "D2"},
	}

	results := RankDiseases(domain.NewSymptomSet("rash"), diseases)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	assert.Empty(t, RankDiseases(domain.NewSymptomSet(), diseases))
	assert.Empty(t, RankDiseases(domain.NewSymptomSet("fever"), nil))
}

func TestRankDiseases_SkipsDiseasesWithoutSymptoms(t *testing.T) {
	diseases := []domain.Disease{
		{ID: "empty", Name: "No symptoms"},
		{ID: "flu", Name: "Flu", PrimarySymptoms: ids("fever")},
	}

	results := RankDiseases(domain.NewSymptomSet("fever"), diseases)
	require.Len(t, results, 1)
	assert.Equal(t, domain.DiseaseID("flu"), results[0].DiseaseID)
}

func TestRankDiseases_StableTieBreak(t *testing.T) {
	requested := domain.NewSymptomSet("fever", "cough")
	first := domain.Disease{ID: "first", Name: "First", PrimarySymptoms: ids("fever")}
	second := domain.Disease{ID: "second", Name: "Second", PrimarySymptoms: ids("cough")}
	higher := domain.Disease{ID: "higher", Name: "Higher", PrimarySymptoms: ids("fever", "cough")}

	t.Run("Catalog_Order", func(t *testing.T) {
		results := RankDiseases(requested, []domain.Disease{first, second, higher})
		require.Len(t, results, 3)
		assert.Equal(t, domain.DiseaseID("higher"), results[0].DiseaseID)
		assert.Equal(t, domain.DiseaseID("first"), results[1].DiseaseID)
		assert.Equal(t, domain.DiseaseID("second"), results[2].DiseaseID)
		assert.Equal(t, results[1].MatchRate, results[2].MatchRate)
	})

	t.Run("Reversed_Catalog_Order", func(t *testing.T) {
		results := RankDiseases(requested, []domain.Disease{second, first, higher})
		require.Len(t, results, 3)
		assert.Equal(t, domain.DiseaseID("second"), results[1].DiseaseID)
		assert.Equal(t, domain.DiseaseID("first"), results[2].DiseaseID)
	})
}

func TestRankDiseases_Truncation(t *testing.T) {
	requestedIDs := make([]domain.SymptomID, 20)
	for i := range requestedIDs {
		requestedIDs[i] = domain.SymptomID(fmt.Sprintf("s%02d", i))
	}
	requested := domain.NewSymptomSet(requestedIDs...)

	// disease i matches i+1 secondary symptoms: rate = 5 * (i+1)
	diseases := make([]domain.Disease, 15)
	for i := range diseases {
		diseases[i] = domain.Disease{
			ID:            domain.DiseaseID(fmt.Sprintf("d%02d", i)),
			Name:          fmt.Sprintf("Disease %d", i),
			EarlySymptoms: append([]domain.SymptomID(nil), requestedIDs[:i+1]...),
		}
	}

	results := RankDiseases(requested, diseases)
	require.Len(t, results, MaxCandidates)

	for rank, r := range results {
		expectedIndex := 14 - rank
		assert.Equal(t, domain.DiseaseID(fmt.Sprintf("d%02d", expectedIndex)), r.DiseaseID)
		assert.InDelta(t, float64(5*(expectedIndex+1)), r.MatchRate, 1e-9)
	}
}

func TestRankDiseases_Invariants(t *testing.T) {
	requested := domain.NewSymptomSet("fever", "cough", "headache")
	diseases := []domain.Disease{
		{ID: "a", Name: "A", PrimarySymptoms: ids("fever", "cough", "headache")},
		{ID: "b", Name: "B", EarlySymptoms: ids("cough")},
		{ID: "c", Name: "C", PrimarySymptoms: ids("headache"), LateSymptoms: ids("fever")},
		{ID: "d", Name: "D", LateSymptoms: ids("headache")},
	}

	results := RankDiseases(requested, diseases)
	require.NotEmpty(t, results)

	for i, r := range results {
		assert.GreaterOrEqual(t, r.MatchRate, 0.0)
		assert.LessOrEqual(t, r.MatchRate, MaxMatchRate)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].MatchRate, r.MatchRate)
		}
	}

	again := RankDiseases(requested, diseases)
	assert.Equal(t, results, again)
}

func TestMatchRate_ZeroRequested(t *testing.T) {
	assert.Equal(t, 0.0, MatchRate(SymptomMatch{Matched: 1, Primary: 1}, 0))
}
