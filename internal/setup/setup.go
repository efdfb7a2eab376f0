// Package setup provides setup and administration utilities for the symptom
// diagnosis servers.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key under which the server is registered with MCP
// clients.
const ServerName = "symptom-diagnosis"

// DataDirEnv names the data directory for the MCP server.
const DataDirEnv = "SYMPTOM_DX_DATA_DIR"

// ClaudeDesktopConfig represents the Claude Desktop configuration file structure.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// SetupOptions contains options for the setup process.
type SetupOptions struct {
	BinaryPath  string // Path to the server binary
	DataDir     string // Data directory for the alert log
	SeedFile    string // Catalog seed file
	AutoConfirm bool   // Skip confirmation prompts
}

// GetClaudeDesktopConfigPath returns the path to Claude Desktop's config file.
func GetClaudeDesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClaudeDesktopConfig loads the existing Claude Desktop configuration.
// A missing file yields an empty configuration.
func LoadClaudeDesktopConfig(configPath string) (*ClaudeDesktopConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &ClaudeDesktopConfig{
				MCPServers: make(map[string]MCPServerConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ClaudeDesktopConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.MCPServers == nil {
		config.MCPServers = make(map[string]MCPServerConfig)
	}

	return &config, nil
}

// SaveClaudeDesktopConfig saves the configuration to the Claude Desktop config file.
func SaveClaudeDesktopConfig(configPath string, config *ClaudeDesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigureClaudeDesktop registers the MCP server in the Claude Desktop
// config file at configPath, keeping every other server entry.
func ConfigureClaudeDesktop(configPath string, opts SetupOptions) error {
	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		return err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath, err = findBinary()
		if err != nil {
			return fmt.Errorf("could not find server binary: %w", err)
		}
	}

	serverConfig := MCPServerConfig{
		Command: binaryPath,
		Env:     make(map[string]string),
	}
	if opts.DataDir != "" {
		serverConfig.Env[DataDirEnv] = opts.DataDir
	}
	if opts.SeedFile != "" {
		serverConfig.Env["SYMPTOM_DX_SEED_FILE"] = opts.SeedFile
	}

	config.MCPServers[ServerName] = serverConfig

	return SaveClaudeDesktopConfig(configPath, config)
}

// findBinary attempts to find the server binary in common locations.
func findBinary() (string, error) {
	const binaryName = "mcp-server"

	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	locations := []string{
		"./" + binaryName,
		"./build/" + binaryName,
		filepath.Join(os.Getenv("HOME"), ".local", "bin", binaryName),
		"/usr/local/bin/" + binaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, err := filepath.Abs(loc)
			if err != nil {
				return loc, nil
			}
			return absPath, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", binaryName)
}

// Status represents the current setup status.
type Status struct {
	ClaudeDesktopConfigured bool
	ClaudeDesktopPath       string
	ServerPath              string
	DataDir                 string
	AlertLogPresent         bool
	Issues                  []string
}

// GetStatus inspects the Claude Desktop config at configPath and the data
// directory it names.
func GetStatus(configPath string) *Status {
	status := &Status{
		ClaudeDesktopPath: configPath,
		Issues:            []string{},
	}

	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not load Claude Desktop config: %v", err))
	} else if serverConfig, ok := config.MCPServers[ServerName]; ok {
		status.ClaudeDesktopConfigured = true
		status.ServerPath = serverConfig.Command
		status.DataDir = serverConfig.Env[DataDirEnv]

		if _, err := os.Stat(serverConfig.Command); os.IsNotExist(err) {
			status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found at: %s", serverConfig.Command))
		}
	}

	if status.DataDir == "" {
		status.DataDir = GetDefaultDataDir()
	}

	if _, err := os.Stat(status.DataDir); os.IsNotExist(err) {
		status.Issues = append(status.Issues, fmt.Sprintf("Data directory will be created on first run: %s", status.DataDir))
	} else if _, err := os.Stat(filepath.Join(status.DataDir, "alerts.db")); err == nil {
		status.AlertLogPresent = true
	}

	return status
}

// GetDefaultDataDir returns the default data directory path.
func GetDefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".symptom-dx")
}
