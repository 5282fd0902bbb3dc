package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "is_test: true\n")
	t.Setenv("CIVICREPORT_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Storage.Dir)
	assert.Equal(t, "issue_tickets.csv", cfg.Storage.File)
	assert.Equal(t, 7, cfg.Triage.OverdueThresholdDays)
	assert.Equal(t, 15*time.Minute, cfg.Triage.ScanInterval.Std())
	assert.Equal(t, "microsoft/resnet-50", cfg.Classifier.ImageModel)
	assert.Equal(t, "distilbert-base-uncased", cfg.Classifier.TextModel)
	assert.Equal(t, "geoapi", cfg.Geocoder.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout.Std())
	assert.True(t, cfg.IsTest)
}

func TestNewConfig_YAMLValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
  log_level: debug
storage:
  dir: /var/lib/civicreport
triage:
  overdue_threshold_days: 14
geocoder:
  timeout: 5s
`)
	t.Setenv("CIVICREPORT_CONFIG_FILE", path)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "/var/lib/civicreport", cfg.Storage.Dir)
	assert.Equal(t, 14, cfg.Triage.OverdueThresholdDays)
	assert.Equal(t, 5*time.Second, cfg.Geocoder.Timeout.Std())
	// Unset fields still get defaults
	assert.Equal(t, "issue_tickets.csv", cfg.Storage.File)
}

func TestNewConfig_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: \"9090\"\n")
	t.Setenv("CIVICREPORT_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("STORAGE_DIR", "/tmp/tickets")
	t.Setenv("TRIAGE_OVERDUE_THRESHOLD_DAYS", "3")
	t.Setenv("GEOCODER_TIMEOUT", "2s")
	t.Setenv("SERVER_CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "/tmp/tickets", cfg.Storage.Dir)
	assert.Equal(t, 3, cfg.Triage.OverdueThresholdDays)
	assert.Equal(t, 2*time.Second, cfg.Geocoder.Timeout.Std())
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
}

func TestNewConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CIVICREPORT_CONFIG_FILE", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(wd) }()
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.Storage.Dir)
}

func TestStorageConfig_Path(t *testing.T) {
	s := StorageConfig{Dir: "data", File: "issue_tickets.csv"}
	assert.Equal(t, filepath.Join("data", "issue_tickets.csv"), s.Path())
}
