package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ContactInfo identifies who should be reached when a case is emergent.
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsEmpty is true when no contact channel is present.
func (c *ContactInfo) IsEmpty() bool {
	return c == nil || (c.Phone == "" && c.Email == "" && c.Name == "")
}

// PatientInfo carries the optional, non-symptom attributes of a patient.
type PatientInfo struct {
	Age            *int         `json:"age,omitempty"`
	Sex            Sex          `json:"sex,omitempty"`
	MedicalHistory []string     `json:"medical_history,omitempty"`
	Contact        *ContactInfo `json:"contact_info,omitempty"`
}

// HasFactors reports whether any attribute used by patient-factor
// adjustment is present. Contact info is not an adjustment factor.
func (p *PatientInfo) HasFactors() bool {
	if p == nil {
		return false
	}
	return p.Age != nil || p.Sex.IsKnown() || len(p.MedicalHistory) > 0
}

// Validate rejects attribute values the adjuster cannot interpret.
func (p *PatientInfo) Validate() error {
	if p == nil {
		return nil
	}
	if p.Age != nil && *p.Age < 0 {
		return fmt.Errorf("%w: age must be non-negative, got %d", ErrInvalidPatientInfo, *p.Age)
	}
	switch p.Sex {
	case "", SexMale, SexFemale, SexUnknown:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSex, p.Sex)
	}
	return nil
}

// DiagnosisRequest is the transient input of one diagnosis.
type DiagnosisRequest struct {
	SymptomIDs []SymptomID  `json:"symptom_ids"`
	Patient    *PatientInfo `json:"patient_info,omitempty"`
	RequestID  string       `json:"-"`
}

// MatchResult is one ranked candidate disease. Constructed fresh per
// request and never cached.
type MatchResult struct {
	DiseaseID           DiseaseID       `json:"disease_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	BodyPart            string          `json:"body_part"`
	Severity            DiseaseSeverity `json:"severity"`
	Contagious          bool            `json:"contagious"`
	MatchedSymptomCount int             `json:"matched_symptoms"`
	PrimaryMatchedCount int             `json:"primary_matched_symptoms"`
	MatchRate           float64         `json:"match_rate"`
	Adjusted            bool            `json:"adjusted"`
}

// DiagnosisOutcome is the structured result of one diagnosis request.
type DiagnosisOutcome struct {
	Symptoms                 []Symptom          `json:"symptoms"`
	Candidates               []MatchResult      `json:"possible_diseases"`
	EmergencyDetected        bool               `json:"emergency_detected"`
	Advisory                 *EmergencyAdvisory `json:"emergency_advice,omitempty"`
	AlertSent                bool               `json:"emergency_alert_sent"`
	AdvancedAnalysis         bool               `json:"advanced_analysis"`
	PatientFactorsConsidered bool               `json:"patient_factors_considered"`
	AdjustmentFailure        string             `json:"adjustment_failure,omitempty"`
	AnalysisTime             time.Duration      `json:"-"`
}

// MarshalJSON reports AnalysisTime as fractional seconds.
func (o DiagnosisOutcome) MarshalJSON() ([]byte, error) {
	type outcome DiagnosisOutcome
	return json.Marshal(struct {
		outcome
		AnalysisTime float64 `json:"analysis_time"`
	}{outcome(o), o.AnalysisTime.Seconds()})
}

// TopCandidate returns the highest ranked candidate, if any.
func (o *DiagnosisOutcome) TopCandidate() (MatchResult, bool) {
	if o == nil || len(o.Candidates) == 0 {
		return MatchResult{}, false
	}
	return o.Candidates[0], true
}

// AdjustmentStatus tells the caller what the patient-factor adjuster did.
type AdjustmentStatus string

const (
	AdjustmentApplied AdjustmentStatus = "applied"
	AdjustmentSkipped AdjustmentStatus = "skipped"
	AdjustmentFailed  AdjustmentStatus = "failed"
)

// AdjustmentResult is the explicit outcome of patient-factor adjustment.
// On failure Candidates is nil and Reason explains the fault; the caller
// collapses it to the base ranking.
type AdjustmentResult struct {
	Status     AdjustmentStatus
	Candidates []MatchResult
	Reason     string
}

// Failed reports whether the adjustment must be discarded.
func (r AdjustmentResult) Failed() bool {
	return r.Status == AdjustmentFailed
}
