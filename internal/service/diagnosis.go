package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// DiagnosisService runs the symptom diagnosis workflow: resolve symptoms,
// rank diseases, optionally adjust for patient factors, classify the
// emergency and dispatch an alert.
type DiagnosisService struct {
	logger     *logrus.Logger
	diseases   domain.DiseaseCatalog
	symptoms   domain.SymptomCatalog
	adjuster   *PatientFactorAdjuster
	classifier *EmergencyClassifier
	notifier   domain.Notifier
}

// NewDiagnosisService creates a new diagnosis service. notifier may be nil,
// in which case emergent cases are classified but no alert is dispatched.
func NewDiagnosisService(
	logger *logrus.Logger,
	diseases domain.DiseaseCatalog,
	symptoms domain.SymptomCatalog,
	adjuster *PatientFactorAdjuster,
	classifier *EmergencyClassifier,
	notifier domain.Notifier,
) *DiagnosisService {
	if adjuster == nil {
		adjuster = NewPatientFactorAdjuster(DefaultAffinityMarkers())
	}
	if classifier == nil {
		classifier = NewEmergencyClassifier(domain.DefaultEmergencyContacts())
	}
	return &DiagnosisService{
		logger:     logger,
		diseases:   diseases,
		symptoms:   symptoms,
		adjuster:   adjuster,
		classifier: classifier,
		notifier:   notifier,
	}
}

// Diagnose ranks candidate diseases for the requested symptoms without
// patient-factor adjustment.
func (s *DiagnosisService) Diagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error) {
	return s.run(ctx, req, false)
}

// AdvancedDiagnose is Diagnose plus patient-factor adjustment when the
// request carries patient factors. A failed adjustment never fails the
// diagnosis: the base ranking is returned with AdvancedAnalysis unset.
func (s *DiagnosisService) AdvancedDiagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error) {
	return s.run(ctx, req, true)
}

// ClassifyEmergency classifies an already resolved symptom set.
func (s *DiagnosisService) ClassifyEmergency(symptoms []domain.Symptom) (bool, *domain.EmergencyAdvisory) {
	return s.classifier.Classify(symptoms)
}

// ScreenText classifies free text, e.g. a chat message, against the
// emergency keyword table.
func (s *DiagnosisService) ScreenText(text string) (bool, *domain.EmergencyAdvisory) {
	return s.classifier.ScreenText(text)
}

// EmergencyContacts returns the public emergency numbers used in advisories.
func (s *DiagnosisService) EmergencyContacts() domain.EmergencyContacts {
	return s.classifier.Contacts()
}

// DiseasesByIDs returns the catalog records for ids in request order.
func (s *DiagnosisService) DiseasesByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error) {
	if len(ids) == 0 {
		return nil, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "disease_ids must be a non-empty array", nil, "")
	}
	diseases, err := s.diseases.FindByIDs(ctx, ids)
	if err != nil {
		return nil, catalogError("finding diseases", err, "")
	}
	return diseases, nil
}

// SymptomsByIDs returns the catalog records for ids in request order.
func (s *DiagnosisService) SymptomsByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error) {
	ids = domain.DedupeSymptomIDs(ids)
	if len(ids) == 0 {
		return nil, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "symptom_ids must be a non-empty array", nil, "")
	}
	symptoms, err := s.symptoms.FindByIDs(ctx, ids)
	if err != nil {
		return nil, catalogError("finding symptoms", err, "")
	}
	return symptoms, nil
}

func (s *DiagnosisService) run(ctx context.Context, req *domain.DiagnosisRequest, advanced bool) (*domain.DiagnosisOutcome, error) {
	startTime := time.Now()

	requestID := ""
	if req != nil {
		requestID = req.RequestID
	}

	var ids []domain.SymptomID
	if req != nil {
		ids = domain.DedupeSymptomIDs(req.SymptomIDs)
	}
	if len(ids) == 0 {
		return nil, domain.NewDiagnosisError(domain.ErrCodeInvalidSymptoms,
			"symptom_ids must be a non-empty array", domain.ErrEmptySymptomSet, requestID)
	}

	log := s.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"symptom_count": len(ids),
		"advanced":      advanced,
	})
	log.Debug("Starting diagnosis")

	symptoms, err := s.symptoms.FindByIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Error("Symptom lookup failed")
		return nil, catalogError("finding symptoms", err, requestID)
	}

	outcome := &domain.DiagnosisOutcome{
		Symptoms:   symptoms,
		Candidates: []domain.MatchResult{},
	}

	if len(symptoms) == 0 {
		log.Info("No requested symptom resolved, returning empty diagnosis")
		outcome.AnalysisTime = time.Since(startTime)
		return outcome, nil
	}

	// Unknown ids stay in the denominator.
	requested := domain.NewSymptomSet(ids...)

	diseases, err := s.diseases.FindAll(ctx)
	if err != nil {
		log.WithError(err).Error("Disease lookup failed")
		return nil, catalogError("finding diseases", err, requestID)
	}

	outcome.Candidates = RankDiseases(requested, diseases)

	if advanced && req.Patient.HasFactors() {
		s.applyPatientFactors(outcome, req.Patient, log)
	}

	outcome.EmergencyDetected, outcome.Advisory = s.classifier.Classify(symptoms)
	if outcome.EmergencyDetected {
		outcome.AlertSent = s.dispatchAlert(ctx, req, outcome, log)
	}

	outcome.AnalysisTime = time.Since(startTime)

	fields := logrus.Fields{
		"resolved_symptoms": len(symptoms),
		"candidates":        len(outcome.Candidates),
		"emergency":         outcome.EmergencyDetected,
		"alert_sent":        outcome.AlertSent,
		"analysis_time":     outcome.AnalysisTime,
	}
	if top, ok := outcome.TopCandidate(); ok {
		fields["top_disease"] = top.DiseaseID
		fields["top_match_rate"] = top.MatchRate
	}
	log.WithFields(fields).Info("Diagnosis completed")

	return outcome, nil
}

func (s *DiagnosisService) applyPatientFactors(outcome *domain.DiagnosisOutcome, patient *domain.PatientInfo, log *logrus.Entry) {
	result := s.adjuster.Adjust(outcome.Candidates, patient)

	switch result.Status {
	case domain.AdjustmentApplied:
		outcome.Candidates = result.Candidates
		outcome.AdvancedAnalysis = true
		outcome.PatientFactorsConsidered = true
	case domain.AdjustmentFailed:
		outcome.AdjustmentFailure = result.Reason
		log.WithField("reason", result.Reason).Warn("Patient-factor adjustment failed, using base ranking")
	}
}

func (s *DiagnosisService) dispatchAlert(ctx context.Context, req *domain.DiagnosisRequest, outcome *domain.DiagnosisOutcome, log *logrus.Entry) bool {
	if s.notifier == nil || req.Patient == nil || req.Patient.Contact.IsEmpty() {
		return false
	}

	names := make([]string, 0, len(outcome.Symptoms))
	for i := range outcome.Symptoms {
		names = append(names, outcome.Symptoms[i].Name)
	}

	alert := &domain.EmergencyAlert{
		ID:               uuid.NewString(),
		RequestID:        req.RequestID,
		Contact:          *req.Patient.Contact,
		Symptoms:         names,
		Category:         outcome.Advisory.Category,
		EmergencyContact: outcome.Advisory.EmergencyContact,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.notifier.NotifyEmergency(ctx, alert); err != nil {
		log.WithError(err).WithField("alert_id", alert.ID).Error("Failed to send emergency alert")
		return false
	}

	log.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"category": alert.Category,
	}).Warn("Emergency alert sent")
	return true
}

func catalogError(op string, err error, requestID string) error {
	return domain.NewDiagnosisError(domain.ErrCodeCatalogUnavailable, "catalog lookup failed",
		fmt.Errorf("%s: %w: %w", op, domain.ErrCatalogUnavailable, err), requestID)
}
