// Package main provides the MCP entry point for the symptom diagnosis server.
// It requires no external databases: the catalog is served from the seed
// file and alerts are logged to SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/symptom-diagnosis-mcp-server/internal/config"
	"github.com/symptom-diagnosis-mcp-server/internal/mcp"
	"github.com/symptom-diagnosis-mcp-server/internal/setup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	logger, err := config.NewLogger(cfg.Logging())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cli := setup.NewCLI("lite", logger)
		if err := cli.Run(ctx, os.Args[2:]); err != nil {
			logger.WithError(err).Fatal("Setup failed")
		}
		return
	}

	logger.WithField("data_dir", cfg.DataDir).Info("Starting symptom diagnosis MCP server")

	server, err := mcp.NewLiteServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("MCP server stopped")
}
