package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Tool names
const (
	ToolDiagnose       = "diagnose_symptoms"
	ToolCheckEmergency = "check_emergency"
	ToolGetDiseases    = "get_diseases"
	ToolGetSymptoms    = "get_symptoms"
	ToolListAlerts     = "list_emergency_alerts"
	ToolExportAlerts   = "export_emergency_alerts"
)

const (
	defaultAlertListLimit = 20
	maxAlertListLimit     = 200
)

// ContactInfoParams is how a caller can be reached in an emergency.
type ContactInfoParams struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PatientInfoParams carries optional patient factors.
type PatientInfoParams struct {
	Age            *int               `json:"age,omitempty" jsonschema:"age in whole years"`
	Sex            string             `json:"sex,omitempty" jsonschema:"male, female or unknown"`
	MedicalHistory []string           `json:"medical_history,omitempty" jsonschema:"known conditions, free text"`
	ContactInfo    *ContactInfoParams `json:"contact_info,omitempty" jsonschema:"who to notify if the case is emergent"`
}

// DiagnoseParams defines parameters for the diagnose_symptoms tool
type DiagnoseParams struct {
	SymptomIDs  []string           `json:"symptom_ids" jsonschema:"catalog symptom ids"`
	PatientInfo *PatientInfoParams `json:"patient_info,omitempty"`
}

// CheckEmergencyParams defines parameters for the check_emergency tool
type CheckEmergencyParams struct {
	Text       string   `json:"text,omitempty" jsonschema:"free-text description of the situation"`
	SymptomIDs []string `json:"symptom_ids,omitempty" jsonschema:"catalog symptom ids"`
}

// CheckEmergencyResult defines the result of check_emergency
type CheckEmergencyResult struct {
	EmergencyDetected bool                      `json:"emergency_detected"`
	Advisory          *domain.EmergencyAdvisory `json:"emergency_advice,omitempty"`
	Contacts          domain.EmergencyContacts  `json:"emergency_contacts"`
}

// LookupParams defines parameters for the id lookup tools
type LookupParams struct {
	IDs []string `json:"ids" jsonschema:"ids to look up"`
}

// ListAlertsParams defines parameters for list_emergency_alerts
type ListAlertsParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"page size, default 20"`
	Offset int `json:"offset,omitempty"`
}

// ListAlertsResult defines the result of list_emergency_alerts
type ListAlertsResult struct {
	Total  int64              `json:"total"`
	Alerts []*alertlog.Record `json:"alerts"`
}

// ExportAlertsResult defines the result of export_emergency_alerts
type ExportAlertsResult struct {
	FilePath string `json:"file_path"`
	Count    int64  `json:"count"`
}

func (p *PatientInfoParams) toPatientInfo() *domain.PatientInfo {
	if p == nil {
		return nil
	}

	sex, err := domain.ParseSex(p.Sex)
	if err != nil {
		sex = domain.Sex(strings.ToLower(strings.TrimSpace(p.Sex)))
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

func symptomIDs(values []string) []domain.SymptomID {
	ids := make([]domain.SymptomID, len(values))
	for i, v := range values {
		ids[i] = domain.SymptomID(v)
	}
	return ids
}

func (s *Server) handleDiagnose(ctx context.Context, req *mcp.CallToolRequest, params DiagnoseParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolDiagnose).Info("Tool invoked")

	dxReq := &domain.DiagnosisRequest{
		SymptomIDs: symptomIDs(params.SymptomIDs),
		Patient:    params.PatientInfo.toPatientInfo(),
	}

	var (
		outcome *domain.DiagnosisOutcome
		err     error
	)
	if dxReq.Patient != nil {
		outcome, err = s.diagnosis.AdvancedDiagnose(ctx, dxReq)
	} else {
		outcome, err = s.diagnosis.Diagnose(ctx, dxReq)
	}
	if err != nil {
		return s.createErrorResult("Diagnosis failed", err), nil, nil
	}

	return s.createJSONResult(summarizeOutcome(outcome), outcome), nil, nil
}

func (s *Server) handleCheckEmergency(ctx context.Context, req *mcp.CallToolRequest, params CheckEmergencyParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolCheckEmergency).Info("Tool invoked")

	text := strings.TrimSpace(params.Text)
	if text == "" && len(params.SymptomIDs) == 0 {
		return s.createErrorResult("Missing required parameter", errors.New("text or symptom_ids is required")), nil, nil
	}

	result := CheckEmergencyResult{Contacts: s.diagnosis.EmergencyContacts()}

	if len(params.SymptomIDs) > 0 {
		symptoms, err := s.diagnosis.SymptomsByIDs(ctx, symptomIDs(params.SymptomIDs))
		if err != nil {
			return s.createErrorResult("Symptom lookup failed", err), nil, nil
		}
		result.EmergencyDetected, result.Advisory = s.diagnosis.ClassifyEmergency(symptoms)
	}
	if !result.EmergencyDetected && text != "" {
		result.EmergencyDetected, result.Advisory = s.diagnosis.ScreenText(text)
	}

	summary := "No emergency signs detected."
	if result.EmergencyDetected {
		summary = result.Advisory.Advice
	}
	return s.createJSONResult(summary, result), nil, nil
}

func (s *Server) handleGetDiseases(ctx context.Context, req *mcp.CallToolRequest, params LookupParams) (*mcp.CallToolResult, any, error) {
	ids := make([]domain.DiseaseID, len(params.IDs))
	for i, id := range params.IDs {
		ids[i] = domain.DiseaseID(id)
	}

	diseases, err := s.diagnosis.DiseasesByIDs(ctx, ids)
	if err != nil {
		return s.createErrorResult("Disease lookup failed", err), nil, nil
	}
	return s.createJSONResult(fmt.Sprintf("Found %d of %d diseases.", len(diseases), len(ids)), diseases), nil, nil
}

func (s *Server) handleGetSymptoms(ctx context.Context, req *mcp.CallToolRequest, params LookupParams) (*mcp.CallToolResult, any, error) {
	symptoms, err := s.diagnosis.SymptomsByIDs(ctx, symptomIDs(params.IDs))
	if err != nil {
		return s.createErrorResult("Symptom lookup failed", err), nil, nil
	}
	return s.createJSONResult(fmt.Sprintf("Found %d symptoms.", len(symptoms)), symptoms), nil, nil
}

func (s *Server) handleListAlerts(ctx context.Context, req *mcp.CallToolRequest, params ListAlertsParams) (*mcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultAlertListLimit
	}
	if limit > maxAlertListLimit {
		limit = maxAlertListLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := s.alerts.List(ctx, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list alerts")
		return s.createErrorResult("Failed to list alerts", err), nil, nil
	}
	total, err := s.alerts.Count(ctx)
	if err != nil {
		return s.createErrorResult("Failed to count alerts", err), nil, nil
	}
	if records == nil {
		records = []*alertlog.Record{}
	}

	result := ListAlertsResult{Total: total, Alerts: records}
	return s.createJSONResult(fmt.Sprintf("%d of %d alerts.", len(records), total), result), nil, nil
}

func (s *Server) handleExportAlerts(ctx context.Context, req *mcp.CallToolRequest, params struct{}) (*mcp.CallToolResult, any, error) {
	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		return s.createErrorResult("Failed to create export directory", err), nil, nil
	}

	filename := fmt.Sprintf("alerts_export_%s.json", time.Now().Format("20060102_150405"))
	filePath := filepath.Join(s.exportDir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return s.createErrorResult("Failed to create export file", err), nil, nil
	}
	defer file.Close()

	if err := s.alerts.ExportJSON(ctx, file); err != nil {
		s.logger.WithError(err).Error("Failed to export alerts")
		return s.createErrorResult("Failed to export alerts", err), nil, nil
	}

	count, _ := s.alerts.Count(ctx)
	result := ExportAlertsResult{FilePath: filePath, Count: count}
	return s.createJSONResult(fmt.Sprintf("Exported %d alerts to %s", count, filePath), result), nil, nil
}

func summarizeOutcome(outcome *domain.DiagnosisOutcome) string {
	var b strings.Builder
	top, ok := outcome.TopCandidate()
	if !ok {
		b.WriteString("No matching diseases found.")
	} else {
		fmt.Fprintf(&b, "%d candidate diseases; top match %s (%.1f%%).", len(outcome.Candidates), top.Name, top.MatchRate)
	}
	if outcome.EmergencyDetected {
		b.WriteString(" EMERGENCY: ")
		b.WriteString(outcome.Advisory.Advice)
	}
	return b.String()
}

// createJSONResult returns a summary line followed by the JSON payload.
func (s *Server) createJSONResult(summary string, payload any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return s.createErrorResult("Failed to encode result", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)

	var dxErr *domain.DiagnosisError
	switch {
	case errors.As(err, &dxErr) && dxErr.Code == domain.ErrCodeCatalogUnavailable:
		s.logger.WithError(err).Error("Tool call failed")
		errorText += fmt.Sprintf(" - %s: %s", dxErr.Code, dxErr.Message)
	case errors.As(err, &dxErr):
		errorText += fmt.Sprintf(" - %s: %s", dxErr.Code, dxErr.Message)
	case err != nil:
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
