package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-diagnosis-mcp-server/internal/alertlog"
	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

const seedFixture = "../../config/catalog.seed.yaml"

func newTestCLI(t *testing.T, serverType string) (*CLI, *bytes.Buffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()

	var out bytes.Buffer
	cli := NewCLI(serverType, logger)
	cli.Out = &out
	cli.ConfigPath = filepath.Join(t.TempDir(), "Claude", "claude_desktop_config.json")
	return cli, &out
}

func TestConfigureClaudeDesktop_PreservesOtherServers(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	existing := &ClaudeDesktopConfig{MCPServers: map[string]MCPServerConfig{
		"other": {Command: "/usr/bin/other"},
	}}
	require.NoError(t, SaveClaudeDesktopConfig(configPath, existing))

	err := ConfigureClaudeDesktop(configPath, SetupOptions{
		BinaryPath: "/opt/bin/mcp-server",
		DataDir:    "/var/lib/symptom-dx",
	})
	require.NoError(t, err)

	config, err := LoadClaudeDesktopConfig(configPath)
	require.NoError(t, err)
	assert.Contains(t, config.MCPServers, "other")

	server, ok := config.MCPServers[ServerName]
	require.True(t, ok)
	assert.Equal(t, "/opt/bin/mcp-server", server.Command)
	assert.Equal(t, "/var/lib/symptom-dx", server.Env[DataDirEnv])
}

func TestLoadClaudeDesktopConfig(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadClaudeDesktopConfig(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, config.MCPServers)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0644))
	_, err = LoadClaudeDesktopConfig(broken)
	assert.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "claude_desktop_config.json")
	dataDir := filepath.Join(dir, "data")

	status := GetStatus(configPath)
	assert.False(t, status.ClaudeDesktopConfigured)

	require.NoError(t, ConfigureClaudeDesktop(configPath, SetupOptions{
		BinaryPath: filepath.Join(dir, "missing-binary"),
		DataDir:    dataDir,
	}))
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "alerts.db"), nil, 0644))

	status = GetStatus(configPath)
	assert.True(t, status.ClaudeDesktopConfigured)
	assert.Equal(t, dataDir, status.DataDir)
	assert.True(t, status.AlertLogPresent)
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "Server binary not found")
}

func TestCheckSeed(t *testing.T) {
	report, err := CheckSeed(seedFixture)
	require.NoError(t, err)
	assert.Greater(t, report.Symptoms, 0)
	assert.Greater(t, report.Diseases, 0)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "test"
symptoms:
  - id: fever
    name: Fever
diseases:
  - id: flu
    name: Influenza
    primary_symptoms: [fever, myalgia]
`), 0644))

	report, err = CheckSeed(path)
	require.NoError(t, err)
	assert.Equal(t, "test", report.Version)
	assert.Equal(t, []string{"flu: myalgia"}, report.Unresolved)

	require.NoError(t, os.WriteFile(path, []byte(`
symptoms:
  - id: fever
    name: Fever
  - id: fever
    name: Fever again
`), 0644))
	_, err = CheckSeed(path)
	assert.ErrorIs(t, err, domain.ErrDuplicateCatalogEntry)
}

func TestExportAlerts(t *testing.T) {
	ctx := context.Background()
	cfg := domain.AlertLogConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "alerts.db")}

	store, err := alertlog.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, alertlog.NewRecord(&domain.EmergencyAlert{
		ID:        "a1",
		Category:  domain.EmergencyBreathing,
		CreatedAt: time.Now().UTC(),
	}, nil)))
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	count, err := ExportAlerts(ctx, cfg, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var export alertlog.Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	require.Len(t, export.Alerts, 1)
	assert.Equal(t, domain.EmergencyBreathing, export.Alerts[0].Category)

	_, err = ExportAlerts(ctx, domain.AlertLogConfig{}, &buf)
	assert.Error(t, err)
}

func TestCLI_ClaudeDesktop(t *testing.T) {
	cli, out := newTestCLI(t, "lite")

	err := cli.Run(context.Background(), []string{"claude-desktop", "--binary", "/opt/bin/mcp-server", "--seed", "/etc/seed.yaml", "--auto"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "configured successfully")

	config, err := LoadClaudeDesktopConfig(cli.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "/etc/seed.yaml", config.MCPServers[ServerName].Env["SYMPTOM_DX_SEED_FILE"])

	out.Reset()
	require.NoError(t, cli.Run(context.Background(), []string{"status"}))
	assert.Contains(t, out.String(), "✓ Configured")
}

func TestCLI_CheckSeed(t *testing.T) {
	cli, out := newTestCLI(t, "lite")

	require.NoError(t, cli.Run(context.Background(), []string{"check-seed", seedFixture}))
	assert.Contains(t, out.String(), "✓")

	err := cli.Run(context.Background(), []string{"check-seed", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestCLI_ExportAlertsLite(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(DataDirEnv, dataDir)

	store, err := alertlog.NewSQLiteStore(filepath.Join(dataDir, "alerts.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cli, out := newTestCLI(t, "lite")
	outFile := filepath.Join(t.TempDir(), "alerts.json")

	require.NoError(t, cli.Run(context.Background(), []string{"export-alerts", "--out", outFile}))
	assert.Contains(t, out.String(), "Exported 0 alerts")
	assert.FileExists(t, outFile)
}

func TestCLI_Errors(t *testing.T) {
	cli, out := newTestCLI(t, "lite")
	ctx := context.Background()

	assert.Error(t, cli.Run(ctx, []string{"bogus"}))
	assert.Contains(t, out.String(), "Unknown command")

	assert.Error(t, cli.Run(ctx, []string{"migrate"}))
	assert.Error(t, cli.Run(ctx, []string{"import-catalog"}))

	out.Reset()
	require.NoError(t, cli.Run(ctx, nil))
	assert.Contains(t, out.String(), "Commands:")
}
