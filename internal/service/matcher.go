package service

import (
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// SymptomMatch is the overlap between a requested symptom set and one
// disease.
type SymptomMatch struct {
	Matched int
	Primary int
}

// IsMatch is false when the disease shares no symptom with the request.
func (m SymptomMatch) IsMatch() bool {
	return m.Matched > 0
}

// MatchSymptoms computes the overlap of requested with the union of the
// disease's primary, early and late symptoms (Matched) and with its
// primary symptoms only (Primary). Overlapping collections count once.
func MatchSymptoms(requested domain.SymptomSet, d *domain.Disease) SymptomMatch {
	seen := make(map[domain.SymptomID]struct{}, len(d.PrimarySymptoms)+len(d.EarlySymptoms)+len(d.LateSymptoms))
	var match SymptomMatch

	for _, id := range d.PrimarySymptoms {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if requested.Contains(id) {
			match.Matched++
			match.Primary++
		}
	}

	for _, group := range [][]domain.SymptomID{d.EarlySymptoms, d.LateSymptoms} {
		for _, id := range group {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if requested.Contains(id) {
				match.Matched++
			}
		}
	}

	return match
}
