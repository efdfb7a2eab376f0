// Package domain contains the core entities of the symptom diagnosis engine:
// catalog records (symptoms, diseases), the transient request/outcome types
// produced per diagnosis, and the interfaces of the external collaborators
// (catalogs, notifier) the engine consumes.
package domain

import (
	"errors"
	"strings"
)

// SymptomID identifies a symptom record in the symptom catalog.
type SymptomID string

// DiseaseID identifies a disease record in the disease catalog.
type DiseaseID string

// SymptomSeverity is the severity level of an individual symptom.
type SymptomSeverity string

const (
	SymptomMild     SymptomSeverity = "mild"
	SymptomModerate SymptomSeverity = "moderate"
	SymptomSevere   SymptomSeverity = "severe"
)

// DiseaseSeverity is the severity level of a disease.
type DiseaseSeverity string

const (
	DiseaseMild     DiseaseSeverity = "mild"
	DiseaseModerate DiseaseSeverity = "moderate"
	DiseaseSevere   DiseaseSeverity = "severe"
	DiseaseCritical DiseaseSeverity = "critical"
)

// Sex is the patient sex used by patient-factor adjustment.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Validation errors for catalog data and patient input
var (
	ErrNotFound              = errors.New("not found")
	ErrEmptySymptomSet       = errors.New("symptom identifier set is empty")
	ErrCatalogUnavailable    = errors.New("catalog unavailable")
	ErrInvalidPatientInfo    = errors.New("invalid patient info")
	ErrInvalidSeverity       = errors.New("invalid severity level")
	ErrInvalidSex            = errors.New("invalid sex")
	ErrInvalidCatalogRecord  = errors.New("invalid catalog record")
	ErrDuplicateCatalogEntry = errors.New("duplicate catalog entry")
)

// IsValid reports whether s is one of the enumerated symptom severities.
func (s SymptomSeverity) IsValid() bool {
	switch s {
	case SymptomMild, SymptomModerate, SymptomSevere:
		return true
	default:
		return false
	}
}

func (s SymptomSeverity) String() string {
	return string(s)
}

// IsValid reports whether s is one of the enumerated disease severities.
func (s DiseaseSeverity) IsValid() bool {
	switch s {
	case DiseaseMild, DiseaseModerate, DiseaseSevere, DiseaseCritical:
		return true
	default:
		return false
	}
}

func (s DiseaseSeverity) String() string {
	return string(s)
}

// ParseSex normalizes free-form input ("M", "Female", "") into a Sex value.
// Empty input maps to SexUnknown.
func ParseSex(value string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	case "", "unknown":
		return SexUnknown, nil
	default:
		return SexUnknown, ErrInvalidSex
	}
}

// IsKnown is true for male and female.
func (s Sex) IsKnown() bool {
	return s == SexMale || s == SexFemale
}

// Symptom is a catalog symptom record. It is read-only for the duration of
// a diagnosis request.
type Symptom struct {
	ID                 SymptomID       `json:"id" yaml:"id"`
	Name               string          `json:"name" yaml:"name"`
	Description        string          `json:"description" yaml:"description"`
	BodyPart           string          `json:"body_part" yaml:"body_part"`
	SeverityLevel      SymptomSeverity `json:"severity_level" yaml:"severity_level"`
	DurationInfo       string          `json:"duration_info,omitempty" yaml:"duration_info"`
	PossibleCauses     []string        `json:"possible_causes,omitempty" yaml:"possible_causes"`
	WhenToSeekHelp     string          `json:"when_to_seek_help,omitempty" yaml:"when_to_seek_help"`
	RelatedDiseases    []string        `json:"related_diseases,omitempty" yaml:"related_diseases"`
	AssociatedSymptoms []string        `json:"associated_symptoms,omitempty" yaml:"associated_symptoms"`
}

// Validate checks the fields required for a symptom to enter a catalog.
func (s *Symptom) Validate() error {
	if s.ID == "" {
		return NewValidationError("id", "symptom id is required", s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "symptom name is required", s.Name)
	}
	if s.SeverityLevel != "" && !s.SeverityLevel.IsValid() {
		return NewValidationError("severity_level", ErrInvalidSeverity.Error(), s.SeverityLevel)
	}
	return nil
}

// Disease is a catalog disease record. The three symptom collections are
// disjoint by role but may overlap by content.
type Disease struct {
	ID                DiseaseID       `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description" yaml:"description"`
	BodyPart          string          `json:"body_part" yaml:"body_part"`
	Contagious        bool            `json:"contagious" yaml:"contagious"`
	Severity          DiseaseSeverity `json:"severity" yaml:"severity"`
	SusceptibleGroups []string        `json:"susceptible_groups,omitempty" yaml:"susceptible_groups"`
	PrimarySymptoms   []SymptomID     `json:"primary_symptoms" yaml:"primary_symptoms"`
	EarlySymptoms     []SymptomID     `json:"early_symptoms" yaml:"early_symptoms"`
	LateSymptoms      []SymptomID     `json:"late_symptoms" yaml:"late_symptoms"`
	Complications     string          `json:"complications,omitempty" yaml:"complications"`
	Prevention        string          `json:"prevention,omitempty" yaml:"prevention"`
	TreatmentApproach string          `json:"treatment_approach,omitempty" yaml:"treatment_approach"`
	DiagnosisMethods  []string        `json:"diagnosis_methods,omitempty" yaml:"diagnosis_methods"`
}

// HasSymptoms reports whether the disease is eligible for matching.
func (d *Disease) HasSymptoms() bool {
	return len(d.PrimarySymptoms)+len(d.EarlySymptoms)+len(d.LateSymptoms) > 0
}

// Validate checks the fields required for a disease to enter a catalog.
// A disease without symptoms is valid; it is just never matched.
func (d *Disease) Validate() error {
	if d.ID == "" {
		return NewValidationError("id", "disease id is required", d.ID)
	}
	if strings.TrimSpace(d.Name) == "" {
		return NewValidationError("name", "disease name is required", d.Name)
	}
	if d.Severity != "" && !d.Severity.IsValid() {
		return NewValidationError("severity", ErrInvalidSeverity.Error(), d.Severity)
	}
	return nil
}

// SymptomSet is an unordered set of symptom identifiers.
type SymptomSet map[SymptomID]struct{}

// NewSymptomSet builds a set from ids, dropping duplicates and empty ids.
func NewSymptomSet(ids ...SymptomID) SymptomSet {
	set := make(SymptomSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s SymptomSet) Contains(id SymptomID) bool {
	_, ok := s[id]
	return ok
}

// Len is the number of distinct identifiers.
func (s SymptomSet) Len() int {
	return len(s)
}

// DedupeSymptomIDs returns ids without duplicates or empty values,
// preserving first-seen order.
func DedupeSymptomIDs(ids []SymptomID) []SymptomID {
	seen := make(map[SymptomID]struct{}, len(ids))
	out := make([]SymptomID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
