package setup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/config"
	"github.com/symptom-diagnosis-mcp-server/internal/database"
)

// CLI provides command-line interface for setup operations.
type CLI struct {
	ServerType string // "lite" or "full"
	Out        io.Writer

	// ConfigPath overrides the Claude Desktop config location.
	ConfigPath string
	// Manager supplies the full server configuration; loaded on demand.
	Manager *config.Manager

	reader *bufio.Reader
	logger *logrus.Logger
}

// NewCLI creates a new setup CLI instance.
func NewCLI(serverType string, logger *logrus.Logger) *CLI {
	return &CLI{
		ServerType: serverType,
		Out:        os.Stdout,
		reader:     bufio.NewReader(os.Stdin),
		logger:     logger,
	}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "claude-desktop":
		return c.setupClaudeDesktop(args[1:])
	case "status":
		return c.showStatus()
	case "check-seed":
		return c.checkSeed(args[1:])
	case "export-alerts":
		return c.exportAlerts(ctx, args[1:])
	case "migrate":
		return c.migrate(ctx, args[1:])
	case "import-catalog":
		return c.importCatalog(ctx, args[1:])
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.Out, "Unknown command: %s\n\n", args[0])
		c.showHelp()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// showHelp displays usage information.
func (c *CLI) showHelp() error {
	help := `
Symptom Diagnosis Server Setup

Usage:
  <binary> setup <command> [options]

Commands:
  claude-desktop  Register the MCP server with Claude Desktop
                  [--binary PATH] [--data-dir DIR] [--seed FILE] [--auto]
  status          Show current setup status
  check-seed      Validate a catalog seed file [FILE]
  export-alerts   Export the emergency alert log as JSON [--out FILE]
  migrate         Run database migrations [up|down|version] (full server)
  import-catalog  Load a seed file into the Postgres catalog [FILE] (full server)
`
	fmt.Fprintln(c.Out, help)
	return nil
}

func (c *CLI) claudeConfigPath() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return GetClaudeDesktopConfigPath()
}

func (c *CLI) manager() (*config.Manager, error) {
	if c.Manager != nil {
		return c.Manager, nil
	}
	m, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	c.Manager = m
	return m, nil
}

// setupClaudeDesktop configures Claude Desktop integration.
func (c *CLI) setupClaudeDesktop(args []string) error {
	var opts SetupOptions

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--binary", "-b":
			if i+1 < len(args) {
				opts.BinaryPath = args[i+1]
				i++
			}
		case "--data-dir", "-d":
			if i+1 < len(args) {
				opts.DataDir = args[i+1]
				i++
			}
		case "--seed", "-s":
			if i+1 < len(args) {
				opts.SeedFile = args[i+1]
				i++
			}
		case "--auto", "-y":
			opts.AutoConfirm = true
		}
	}

	if opts.BinaryPath == "" {
		if execPath, err := os.Executable(); err == nil {
			opts.BinaryPath = execPath
		}
	}

	configPath, err := c.claudeConfigPath()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.Out, "Claude Desktop Configuration")
	fmt.Fprintln(c.Out, "============================")
	fmt.Fprintf(c.Out, "Config file: %s\n", configPath)
	fmt.Fprintf(c.Out, "Server binary: %s\n", opts.BinaryPath)
	if opts.DataDir != "" {
		fmt.Fprintf(c.Out, "Data directory: %s\n", opts.DataDir)
	}
	fmt.Fprintln(c.Out)

	if !opts.AutoConfirm {
		fmt.Fprint(c.Out, "Proceed with configuration? [Y/n]: ")
		response, _ := c.reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			fmt.Fprintln(c.Out, "Configuration cancelled.")
			return nil
		}
	}

	if err := ConfigureClaudeDesktop(configPath, opts); err != nil {
		return fmt.Errorf("failed to configure Claude Desktop: %w", err)
	}

	fmt.Fprintln(c.Out, "✓ Claude Desktop configured successfully!")
	fmt.Fprintln(c.Out, "Restart Claude Desktop to load the new configuration.")
	return nil
}

// showStatus displays the current setup status.
func (c *CLI) showStatus() error {
	configPath, err := c.claudeConfigPath()
	if err != nil {
		return err
	}
	status := GetStatus(configPath)

	fmt.Fprintln(c.Out, "Symptom Diagnosis Server Status")
	fmt.Fprintln(c.Out, "===============================")
	fmt.Fprintf(c.Out, "Claude Desktop config: %s\n", status.ClaudeDesktopPath)
	if status.ClaudeDesktopConfigured {
		fmt.Fprintf(c.Out, "  Status: ✓ Configured (%s)\n", status.ServerPath)
	} else {
		fmt.Fprintln(c.Out, "  Status: ✗ Not configured")
	}
	fmt.Fprintf(c.Out, "Data directory: %s\n", status.DataDir)
	if status.AlertLogPresent {
		fmt.Fprintln(c.Out, "  Alert log: ✓ Present")
	} else {
		fmt.Fprintln(c.Out, "  Alert log: - Not created yet")
	}

	if len(status.Issues) > 0 {
		fmt.Fprintln(c.Out, "Issues:")
		for _, issue := range status.Issues {
			fmt.Fprintf(c.Out, "  ⚠ %s\n", issue)
		}
	}
	return nil
}

func (c *CLI) checkSeed(args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if c.ServerType == "lite" {
		path = config.LoadLiteConfig().SeedFile
	} else {
		m, err := c.manager()
		if err != nil {
			return err
		}
		path = m.GetCatalogConfig().SeedFile
	}

	report, err := CheckSeed(path)
	if err != nil {
		fmt.Fprintf(c.Out, "✗ %s is invalid:\n%v\n", path, err)
		return err
	}

	fmt.Fprintf(c.Out, "✓ %s: %d symptoms, %d diseases (version %q)\n",
		report.Path, report.Symptoms, report.Diseases, report.Version)
	if len(report.Unresolved) > 0 {
		fmt.Fprintln(c.Out, "References to unknown symptoms (they never match):")
		for _, ref := range report.Unresolved {
			fmt.Fprintf(c.Out, "  - %s\n", ref)
		}
	}
	return nil
}

func (c *CLI) exportAlerts(ctx context.Context, args []string) error {
	outPath := ""
	for i := 0; i < len(args); i++ {
		if (args[i] == "--out" || args[i] == "-o") && i+1 < len(args) {
			outPath = args[i+1]
			i++
		}
	}

	var w io.Writer = c.Out
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer file.Close()
		w = file
	}

	var count int64
	var err error
	if c.ServerType == "lite" {
		count, err = ExportAlerts(ctx, config.LoadLiteConfig().AlertLog(), w)
	} else {
		m, mErr := c.manager()
		if mErr != nil {
			return mErr
		}
		count, err = ExportAlerts(ctx, m.AlertLogConfig(), w)
	}
	if err != nil {
		return fmt.Errorf("failed to export alerts: %w", err)
	}

	if outPath != "" {
		fmt.Fprintf(c.Out, "Exported %d alerts to %s\n", count, outPath)
	}
	return nil
}

func (c *CLI) migrate(ctx context.Context, args []string) error {
	if c.ServerType == "lite" {
		return fmt.Errorf("migrate requires the full server configuration")
	}
	m, err := c.manager()
	if err != nil {
		return err
	}

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	version, err := Migrate(ctx, m.GetDatabaseURL(), m.GetDatabaseConfig().MigrationsPath, direction, c.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Schema version: %d\n", version)
	return nil
}

func (c *CLI) importCatalog(ctx context.Context, args []string) error {
	if c.ServerType == "lite" {
		return fmt.Errorf("import-catalog requires the full server configuration")
	}
	m, err := c.manager()
	if err != nil {
		return err
	}

	path := m.GetCatalogConfig().SeedFile
	if len(args) > 0 {
		path = args[0]
	}

	result, err := ImportCatalog(ctx, database.ConfigFromDomain(*m.GetDatabaseConfig()), path, c.logger)
	if err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}
	fmt.Fprintf(c.Out, "Imported %d symptoms and %d diseases from %s\n", result.Symptoms, result.Diseases, path)
	return nil
}
