package service

import (
	"math"
	"sort"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Scoring parameters. The primary/secondary ratio is fixed, not learned.
const (
	PrimarySymptomWeight   = 1.5
	SecondarySymptomWeight = 1.0
	MaxCandidates          = 10
	MaxMatchRate           = 100.0
)

// RankDiseases scores every eligible disease against requested and returns
// at most MaxCandidates results, highest match rate first. Equal rates keep
// the order of diseases. requested must be non-empty.
func RankDiseases(requested domain.SymptomSet, diseases []domain.Disease) []domain.MatchResult {
	total := requested.Len()
	if total == 0 {
		return []domain.MatchResult{}
	}

	results := make([]domain.MatchResult, 0, len(diseases))
	for i := range diseases {
		d := &diseases[i]
		if !d.HasSymptoms() {
			continue
		}

		match := MatchSymptoms(requested, d)
		if !match.IsMatch() {
			continue
		}

		results = append(results, domain.MatchResult{
			DiseaseID:           d.ID,
			Name:                d.Name,
			Description:         d.Description,
			BodyPart:            d.BodyPart,
			Severity:            d.Severity,
			Contagious:          d.Contagious,
			MatchedSymptomCount: match.Matched,
			PrimaryMatchedCount: match.Primary,
			MatchRate:           MatchRate(match, total),
		})
	}

	sortByMatchRate(results)

	if len(results) > MaxCandidates {
		results = results[:MaxCandidates]
	}
	return results
}

// WeightedScore applies the primary/secondary weights to a match.
func WeightedScore(m SymptomMatch) float64 {
	return float64(m.Primary)*PrimarySymptomWeight + float64(m.Matched-m.Primary)*SecondarySymptomWeight
}

// MatchRate normalizes the weighted score by the number of distinct
// requested symptoms into [0, MaxMatchRate].
func MatchRate(m SymptomMatch, totalRequested int) float64 {
	if totalRequested <= 0 {
		return 0
	}
	return clampRate(WeightedScore(m) / float64(totalRequested) * 100)
}

func clampRate(rate float64) float64 {
	return math.Max(0, math.Min(rate, MaxMatchRate))
}

func sortByMatchRate(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchRate > results[j].MatchRate
	})
}
