// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
data:
  dir: "/tmp/git-hyper"
  database_path: "/tmp/git-hyper/database.db"

ssh:
  dir: "/tmp/ssh"
  host: "github.com"
  user: "git"

probe:
  timeout: "5s"

backup:
  dir: "/tmp/backups"
  keep: 3

logging:
  level: "debug"
`
	writeFile(t, configPath, configContent)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/git-hyper", cfg.Data.Dir)
	assert.Equal(t, "/tmp/git-hyper/database.db", cfg.Data.DatabasePath)
	assert.Equal(t, "/tmp/ssh", cfg.SSH.Dir)
	assert.Equal(t, "github.com", cfg.SSH.Host)
	assert.Equal(t, "git", cfg.SSH.User)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "/tmp/backups", cfg.Backup.Dir)
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "github.com", cfg.SSH.Host)
	assert.Equal(t, "git", cfg.SSH.User)
	assert.Equal(t, 10*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 5, cfg.Backup.Keep)
	assert.NotEmpty(t, cfg.Data.DatabasePath)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("GIT_HYPER_TEST_DIR", "/custom/data")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
data:
  dir: "${GIT_HYPER_TEST_DIR}"
  database_path: "${GIT_HYPER_TEST_DIR}/database.db"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/custom/data", cfg.Data.Dir)
	assert.Equal(t, "/custom/data/database.db", cfg.Data.DatabasePath)
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
probe:
  timeout: "not-a-duration"
`)

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing durations")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
logging:
  level: "verbose"
`)

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_InvalidKeepCount(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
backup:
  keep: 0
`)

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup.keep")
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv("GIT_HYPER_CONFIG", "/etc/git-hyper.yaml")
	assert.Equal(t, "/etc/git-hyper.yaml", DefaultPath())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
