package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
	"github.com/symptom-diagnosis-mcp-server/internal/middleware"
)

type contactInfoRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type patientInfoRequest struct {
	Age            *int                `json:"age"`
	Sex            string              `json:"sex"`
	Gender         string              `json:"gender"`
	MedicalHistory []string            `json:"medical_history"`
	ContactInfo    *contactInfoRequest `json:"contact_info"`
}

type diagnoseRequest struct {
	SymptomIDs  []domain.SymptomID  `json:"symptom_ids"`
	PatientInfo *patientInfoRequest `json:"patient_info"`
}

type emergencyCheckRequest struct {
	Text       string             `json:"text"`
	SymptomIDs []domain.SymptomID `json:"symptom_ids"`
}

type emergencyCheckResponse struct {
	EmergencyDetected bool                      `json:"emergency_detected"`
	Advisory          *domain.EmergencyAdvisory `json:"emergency_advice,omitempty"`
	Contacts          domain.EmergencyContacts  `json:"emergency_contacts"`
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// toPatientInfo converts the request form. Unrecognized sex values are kept
// as given so the adjuster rejects them when other factors are present.
func (p *patientInfoRequest) toPatientInfo() *domain.PatientInfo {
	if p == nil {
		return nil
	}

	raw := p.Sex
	if raw == "" {
		raw = p.Gender
	}
	sex, err := domain.ParseSex(raw)
	if err != nil {
		sex = domain.Sex(strings.ToLower(strings.TrimSpace(raw)))
	}

	info := &domain.PatientInfo{
		Age:            p.Age,
		Sex:            sex,
		MedicalHistory: p.MedicalHistory,
	}
	if p.ContactInfo != nil {
		info.Contact = &domain.ContactInfo{
			Name:  p.ContactInfo.Name,
			Phone: p.ContactInfo.Phone,
			Email: p.ContactInfo.Email,
		}
	}
	return info
}

func (s *Server) handleDiagnose(c *gin.Context) {
	var body diagnoseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "malformed request body", err, requestID(c)))
		return
	}

	req := &domain.DiagnosisRequest{
		SymptomIDs: body.SymptomIDs,
		Patient:    body.PatientInfo.toPatientInfo(),
		RequestID:  requestID(c),
	}

	var (
		outcome *domain.DiagnosisOutcome
		err     error
	)
	if req.Patient != nil {
		outcome, err = s.diagnosis.AdvancedDiagnose(c.Request.Context(), req)
	} else {
		outcome, err = s.diagnosis.Diagnose(c.Request.Context(), req)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleEmergencyCheck(c *gin.Context) {
	var body emergencyCheckRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "malformed request body", err, requestID(c)))
		return
	}

	text := strings.TrimSpace(body.Text)
	if text == "" && len(body.SymptomIDs) == 0 {
		s.writeError(c, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "text or symptom_ids is required", nil, requestID(c)))
		return
	}

	resp := emergencyCheckResponse{Contacts: s.diagnosis.EmergencyContacts()}

	if len(body.SymptomIDs) > 0 {
		symptoms, err := s.diagnosis.SymptomsByIDs(c.Request.Context(), body.SymptomIDs)
		if err != nil {
			s.writeError(c, err)
			return
		}
		resp.EmergencyDetected, resp.Advisory = s.diagnosis.ClassifyEmergency(symptoms)
	}

	if !resp.EmergencyDetected && text != "" {
		resp.EmergencyDetected, resp.Advisory = s.diagnosis.ScreenText(text)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEmergencyContacts(c *gin.Context) {
	c.JSON(http.StatusOK, s.diagnosis.EmergencyContacts())
}

func (s *Server) handleDiseasesBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "malformed request body", err, requestID(c)))
		return
	}

	ids := make([]domain.DiseaseID, len(body.IDs))
	for i, id := range body.IDs {
		ids[i] = domain.DiseaseID(id)
	}

	diseases, err := s.diagnosis.DiseasesByIDs(c.Request.Context(), ids)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diseases": diseases})
}

func (s *Server) handleSymptomsBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, domain.NewDiagnosisError(domain.ErrCodeInvalidInput, "malformed request body", err, requestID(c)))
		return
	}

	ids := make([]domain.SymptomID, len(body.IDs))
	for i, id := range body.IDs {
		ids[i] = domain.SymptomID(id)
	}

	symptoms, err := s.diagnosis.SymptomsByIDs(c.Request.Context(), ids)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symptoms": symptoms})
}

// writeError maps service errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var dxErr *domain.DiagnosisError
	if !errors.As(err, &dxErr) {
		dxErr = domain.NewDiagnosisError(domain.ErrCodeInternalServer, "internal server error", err, requestID(c))
	}
	if dxErr.RequestID == "" {
		dxErr.RequestID = requestID(c)
	}

	status := http.StatusInternalServerError
	switch dxErr.Code {
	case domain.ErrCodeInvalidSymptoms, domain.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeCatalogUnavailable:
		status = http.StatusServiceUnavailable
	}

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": dxErr.RequestID,
		"code":       dxErr.Code,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
		// internal details stay in the log
		dxErr = &domain.DiagnosisError{
			Code:      dxErr.Code,
			Message:   dxErr.Message,
			Timestamp: dxErr.Timestamp,
			RequestID: dxErr.RequestID,
		}
	} else {
		entry.Debug("Request rejected")
	}

	c.JSON(status, gin.H{"error": dxErr})
}

func requestID(c *gin.Context) string {
	return c.GetString(middleware.CorrelationIDKey)
}
