package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

func intPtr(v int) *int { return &v }

func baseCandidates() []domain.MatchResult {
	return []domain.MatchResult{
		{DiseaseID: "cold", Name: "Common Cold", Description: "Viral infection of the upper airway", MatchRate: 80},
		{DiseaseID: "hfmd", Name: "小儿手足口病", Description: "常见于儿童的病毒感染", MatchRate: 60},
		{DiseaseID: "osteo", Name: "Osteoarthritis", Description: "Degenerative joint disease common in the elderly", MatchRate: 55},
		{DiseaseID: "prostatitis", Name: "Prostatitis", Description: "Inflammation of the prostate gland", MatchRate: 50},
		{DiseaseID: "mastitis", Name: "Mastitis", Description: "Inflammation of breast tissue", MatchRate: 45},
		{DiseaseID: "asthma", Name: "Asthma exacerbation", Description: "Acute worsening of asthma", MatchRate: 40},
	}
}

func rateOf(t *testing.T, results []domain.MatchResult, id domain.DiseaseID) domain.MatchResult {
	t.Helper()
	for _, r := range results {
		if r.DiseaseID == id {
			return r
		}
	}
	t.Fatalf("candidate %s not found", id)
	return domain.MatchResult{}
}

func TestPatientFactorAdjuster_NoFactors(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())
	input := baseCandidates()

	for name, patient := range map[string]*domain.PatientInfo{
		"nil":          nil,
		"empty":        {},
		"contact only": {Contact: &domain.ContactInfo{Phone: "13800000000"}},
	} {
		t.Run(name, func(t *testing.T) {
			result := adjuster.Adjust(input, patient)
			assert.Equal(t, domain.AdjustmentSkipped, result.Status)
			assert.Equal(t, input, result.Candidates)
			for _, c := range result.Candidates {
				assert.False(t, c.Adjusted)
			}
		})
	}
}

func TestPatientFactorAdjuster_Rules(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())

	tests := []struct {
		name     string
		patient  *domain.PatientInfo
		target   domain.DiseaseID
		expected float64
	}{
		{"Pediatric age", &domain.PatientInfo{Age: intPtr(6)}, "hfmd", 65},
		{"Geriatric age", &domain.PatientInfo{Age: intPtr(72)}, "osteo", 60},
		{"Male sex", &domain.PatientInfo{Sex: domain.SexMale}, "prostatitis", 55},
		{"Female sex", &domain.PatientInfo{Sex: domain.SexFemale}, "mastitis", 50},
		{"History", &domain.PatientInfo{MedicalHistory: []string{"ASTHMA"}}, "asthma", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseCandidates()
			result := adjuster.Adjust(input, tt.patient)
			require.Equal(t, domain.AdjustmentApplied, result.Status)

			target := rateOf(t, result.Candidates, tt.target)
			assert.InDelta(t, tt.expected, target.MatchRate, 1e-9)
			assert.True(t, target.Adjusted)

			// additive rules never lower a rate
			for _, base := range input {
				adjusted := rateOf(t, result.Candidates, base.DiseaseID)
				assert.GreaterOrEqual(t, adjusted.MatchRate, base.MatchRate)
				if adjusted.DiseaseID != tt.target {
					assert.False(t, adjusted.Adjusted, "unexpected adjustment of %s", adjusted.DiseaseID)
				}
			}

			assert.Equal(t, baseCandidates(), input, "input must not be mutated")
		})
	}
}

func TestPatientFactorAdjuster_AgeBoundaries(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())

	for _, age := range []int{18, 30, 65} {
		result := adjuster.Adjust(baseCandidates(), &domain.PatientInfo{Age: intPtr(age)})
		require.Equal(t, domain.AdjustmentApplied, result.Status)
		for _, c := range result.Candidates {
			assert.False(t, c.Adjusted, "age %d must not adjust %s", age, c.DiseaseID)
		}
	}
}

func TestPatientFactorAdjuster_FemaleDoesNotMatchMaleMarkers(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())
	candidates := []domain.MatchResult{
		{DiseaseID: "female_only", Name: "Female pattern hair loss", Description: "Hair thinning in women", MatchRate: 40},
	}

	result := adjuster.Adjust(candidates, &domain.PatientInfo{Sex: domain.SexMale})
	require.Equal(t, domain.AdjustmentApplied, result.Status)
	assert.False(t, result.Candidates[0].Adjusted)
	assert.Equal(t, 40.0, result.Candidates[0].MatchRate)
}

func TestPatientFactorAdjuster_HistoryAppliesOnce(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())
	candidates := []domain.MatchResult{
		{DiseaseID: "asthma", Name: "Asthma exacerbation", Description: "Acute worsening of asthma with wheezing", MatchRate: 40},
	}

	result := adjuster.Adjust(candidates, &domain.PatientInfo{
		MedicalHistory: []string{"asthma", "wheezing", "Acute"},
	})
	require.Equal(t, domain.AdjustmentApplied, result.Status)
	assert.InDelta(t, 50.0, result.Candidates[0].MatchRate, 1e-9)
}

func TestPatientFactorAdjuster_ClampAndResort(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())
	candidates := []domain.MatchResult{
		{DiseaseID: "top", Name: "Influenza", MatchRate: 100},
		{DiseaseID: "near", Name: "Bronchitis", Description: "bronchitis in a smoker", MatchRate: 95},
		{DiseaseID: "low", Name: "Chronic bronchitis", MatchRate: 30},
	}

	result := adjuster.Adjust(candidates, &domain.PatientInfo{
		Age:            intPtr(40),
		MedicalHistory: []string{"bronchitis"},
	})
	require.Equal(t, domain.AdjustmentApplied, result.Status)
	require.Len(t, result.Candidates, 3)

	// near is clamped to 100 and ties with top; the stable sort keeps top first.
	assert.Equal(t, domain.DiseaseID("top"), result.Candidates[0].DiseaseID)
	assert.Equal(t, domain.DiseaseID("near"), result.Candidates[1].DiseaseID)
	assert.Equal(t, 100.0, result.Candidates[1].MatchRate)
	assert.True(t, result.Candidates[1].Adjusted)
	assert.False(t, result.Candidates[0].Adjusted)
	assert.InDelta(t, 40.0, result.Candidates[2].MatchRate, 1e-9)

	for _, c := range result.Candidates {
		assert.LessOrEqual(t, c.MatchRate, MaxMatchRate)
	}
}

func TestPatientFactorAdjuster_Resorts(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())
	candidates := []domain.MatchResult{
		{DiseaseID: "first", Name: "Gastritis", MatchRate: 50},
		{DiseaseID: "second", Name: "Peptic ulcer", Description: "ulcer of the stomach lining", MatchRate: 45},
	}

	result := adjuster.Adjust(candidates, &domain.PatientInfo{MedicalHistory: []string{"ulcer"}})
	require.Equal(t, domain.AdjustmentApplied, result.Status)
	assert.Equal(t, domain.DiseaseID("second"), result.Candidates[0].DiseaseID)
	assert.Equal(t, domain.DiseaseID("first"), candidates[0].DiseaseID)
}

func TestPatientFactorAdjuster_Failure(t *testing.T) {
	adjuster := NewPatientFactorAdjuster(DefaultAffinityMarkers())

	result := adjuster.Adjust(baseCandidates(), &domain.PatientInfo{Age: intPtr(-1)})
	assert.True(t, result.Failed())
	assert.Nil(t, result.Candidates)
	assert.Contains(t, result.Reason, "age must be non-negative")
}

func TestAffinityMarkersFromConfig(t *testing.T) {
	markers := AffinityMarkersFromConfig(domain.AffinityMarkersConfig{
		Pediatric: []string{"  Kids  ", ""},
	})

	assert.Equal(t, []string{"kids"}, markers.Pediatric)
	assert.Equal(t, DefaultAffinityMarkers().Geriatric, markers.Geriatric)

	adjuster := NewPatientFactorAdjuster(markers)
	result := adjuster.Adjust([]domain.MatchResult{
		{DiseaseID: "x", Name: "Kids croup", MatchRate: 20},
	}, &domain.PatientInfo{Age: intPtr(4)})
	require.Equal(t, domain.AdjustmentApplied, result.Status)
	assert.InDelta(t, 25.0, result.Candidates[0].MatchRate, 1e-9)
}
