// Package mcp exposes the diagnosis service as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "symptom-diagnosis-mcp-server"
	ServerVersion = "v1.0.0"
)

// DiagnosisService is the subset of the diagnosis service the tools call.
type DiagnosisService interface {
	Diagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error)
	AdvancedDiagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error)
	ClassifyEmergency(symptoms []domain.Symptom) (bool, *domain.EmergencyAdvisory)
	ScreenText(text string) (bool, *domain.EmergencyAdvisory)
	EmergencyContacts() domain.EmergencyContacts
	DiseasesByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error)
	SymptomsByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error)
}

// Server is the diagnosis MCP server.
type Server struct {
	mcpServer *mcp.Server
	diagnosis DiagnosisService
	alerts    alertlog.Store
	exportDir string
	logger    *logrus.Logger
}

// NewServer creates the MCP server and registers its tools. alerts may be
// nil, in which case the alert log tools are not registered.
func NewServer(diagnosis DiagnosisService, alerts alertlog.Store, exportDir string, logger *logrus.Logger) *Server {
	serverInfo := &mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}

	server := &Server{
		mcpServer: mcp.NewServer(serverInfo, nil),
		diagnosis: diagnosis,
		alerts:    alerts,
		exportDir: exportDir,
		logger:    logger,
	}
	server.registerTools()

	return server
}

// Run serves the protocol over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves the protocol over the given transport.
func (s *Server) RunTransport(ctx context.Context, transport mcp.Transport) error {
	s.logger.WithField("server", ServerName).Info("Starting MCP server")
	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolDiagnose,
		Description: "Rank candidate diseases for a set of symptom ids. Optional patient info (age, sex, medical history) adjusts the ranking; contact info enables emergency alerts.",
	}, s.handleDiagnose)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolCheckEmergency,
		Description: "Check symptom ids and/or free text for emergency signs and return first-aid advice with the numbers to call.",
	}, s.handleCheckEmergency)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetDiseases,
		Description: "Look up disease records by id.",
	}, s.handleGetDiseases)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetSymptoms,
		Description: "Look up symptom records by id.",
	}, s.handleGetSymptoms)

	registered := 4
	if s.alerts != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        ToolListAlerts,
			Description: "List recorded emergency alerts, newest first.",
		}, s.handleListAlerts)

		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        ToolExportAlerts,
			Description: "Export the emergency alert log as a JSON file.",
		}, s.handleExportAlerts)
		registered += 2
	}

	s.logger.WithField("tool_count", registered).Info("Registered MCP tools")
}
