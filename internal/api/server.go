package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
	"github.com/symptom-diagnosis-mcp-server/internal/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// DiagnosisService is the subset of the diagnosis service exposed over HTTP.
type DiagnosisService interface {
	Diagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error)
	AdvancedDiagnose(ctx context.Context, req *domain.DiagnosisRequest) (*domain.DiagnosisOutcome, error)
	ClassifyEmergency(symptoms []domain.Symptom) (bool, *domain.EmergencyAdvisory)
	ScreenText(text string) (bool, *domain.EmergencyAdvisory)
	EmergencyContacts() domain.EmergencyContacts
	DiseasesByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error)
	SymptomsByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error)
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	diagnosis     DiagnosisService
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, diagnosis DiagnosisService, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RequestTimeout(cfg.Server.WriteTimeout))

	server := &Server{
		configManager: configManager,
		diagnosis:     diagnosis,
		logger:        logger,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/diagnose", s.handleDiagnose)
		v1.POST("/emergency-check", s.handleEmergencyCheck)
		v1.GET("/emergency-contacts", s.handleEmergencyContacts)
		v1.POST("/diseases/batch", s.handleDiseasesBatch)
		v1.POST("/symptoms/batch", s.handleSymptomsBatch)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
