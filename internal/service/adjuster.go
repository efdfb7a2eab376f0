package service

import (
	"fmt"
	"strings"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Patient-factor bonuses, added to the match rate before clamping.
const (
	AgeAffinityBonus      = 5.0
	SexAffinityBonus      = 5.0
	HistoryRelevanceBonus = 10.0

	PediatricAgeLimit = 18 // age strictly below
	GeriatricAgeFloor = 65 // age strictly above
)

// PatientFactorAdjuster re-weights a ranked candidate list using patient
// attributes. It holds only immutable configuration and is safe for
// concurrent use.
type PatientFactorAdjuster struct {
	markers AffinityMarkers
}

// NewPatientFactorAdjuster creates an adjuster with the given marker table.
func NewPatientFactorAdjuster(markers AffinityMarkers) *PatientFactorAdjuster {
	return &PatientFactorAdjuster{markers: markers}
}

// Adjust returns a new, re-sorted candidate list. The input slice is never
// modified. Absent patient factors yield AdjustmentSkipped with an
// unchanged copy; invalid patient info or a fault during scoring yields
// AdjustmentFailed.
func (a *PatientFactorAdjuster) Adjust(candidates []domain.MatchResult, patient *domain.PatientInfo) (result domain.AdjustmentResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.AdjustmentResult{
				Status: domain.AdjustmentFailed,
				Reason: fmt.Sprintf("adjustment panicked: %v", r),
			}
		}
	}()

	adjusted := make([]domain.MatchResult, len(candidates))
	copy(adjusted, candidates)

	if !patient.HasFactors() {
		return domain.AdjustmentResult{Status: domain.AdjustmentSkipped, Candidates: adjusted}
	}
	if err := patient.Validate(); err != nil {
		return domain.AdjustmentResult{Status: domain.AdjustmentFailed, Reason: err.Error()}
	}

	history := normalizeMarkers(patient.MedicalHistory)

	for i := range adjusted {
		bonus := a.bonusFor(&adjusted[i], patient, history)
		if bonus == 0 {
			continue
		}
		newRate := clampRate(adjusted[i].MatchRate + bonus)
		if newRate != adjusted[i].MatchRate {
			adjusted[i].MatchRate = newRate
			adjusted[i].Adjusted = true
		}
	}

	sortByMatchRate(adjusted)

	return domain.AdjustmentResult{Status: domain.AdjustmentApplied, Candidates: adjusted}
}

func (a *PatientFactorAdjuster) bonusFor(c *domain.MatchResult, patient *domain.PatientInfo, history []string) float64 {
	text := strings.ToLower(c.Name + "\n" + c.Description)
	var bonus float64

	if patient.Age != nil {
		age := *patient.Age
		if age < PediatricAgeLimit && containsAny(text, a.markers.Pediatric) {
			bonus += AgeAffinityBonus
		}
		if age > GeriatricAgeFloor && containsAny(text, a.markers.Geriatric) {
			bonus += AgeAffinityBonus
		}
	}

	switch patient.Sex {
	case domain.SexMale:
		if containsAny(text, a.markers.Male) {
			bonus += SexAffinityBonus
		}
	case domain.SexFemale:
		if containsAny(text, a.markers.Female) {
			bonus += SexAffinityBonus
		}
	}

	// History relevance applies at most once.
	if containsAny(text, history) {
		bonus += HistoryRelevanceBonus
	}

	return bonus
}
