// ABOUTME: Configuration loading and parsing for git-hyper
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete git-hyper configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	SSH     SSHConfig     `yaml:"ssh"`
	Probe   ProbeConfig   `yaml:"probe"`
	Backup  BackupConfig  `yaml:"backup"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds data directory and database configuration.
type DataConfig struct {
	Dir          string `yaml:"dir"`
	DatabasePath string `yaml:"database_path"`
}

// SSHConfig holds SSH directory and target host configuration.
type SSHConfig struct {
	Dir  string `yaml:"dir"`
	Host string `yaml:"host"`
	User string `yaml:"user"`
}

// ProbeConfig holds the GitHub connectivity probe configuration.
type ProbeConfig struct {
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// BackupConfig holds backup archive configuration.
type BackupConfig struct {
	Dir  string `yaml:"dir"`
	Keep int    `yaml:"keep"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultPath returns the path to the config file.
// Priority: GIT_HYPER_CONFIG env var > XDG_CONFIG_HOME/git-hyper/config.yaml > ~/.config/git-hyper/config.yaml
func DefaultPath() string {
	if envPath := os.Getenv("GIT_HYPER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "git-hyper", "config.yaml")
}

// Default returns the configuration used when no config file exists.
// Paths mirror the original layout: data under ~/.git-hyper, keys and the
// ssh config under ~/.ssh, backups under ~/.git-hyper-backups.
func Default() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".git-hyper")
	return &Config{
		Data: DataConfig{
			Dir:          dataDir,
			DatabasePath: filepath.Join(dataDir, "database.db"),
		},
		SSH: SSHConfig{
			Dir:  filepath.Join(homeDir, ".ssh"),
			Host: "github.com",
			User: "git",
		},
		Probe: ProbeConfig{
			Timeout:    10 * time.Second,
			TimeoutRaw: "10s",
		},
		Backup: BackupConfig{
			Dir:  filepath.Join(homeDir, ".git-hyper-backups"),
			Keep: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "git-hyper.log"),
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config merged over the defaults. A missing file is not an error: the
// defaults are returned as-is. Environment variables in the format
// ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.DatabasePath == "" {
		return fmt.Errorf("data.database_path is required")
	}
	if c.SSH.Dir == "" {
		return fmt.Errorf("ssh.dir is required")
	}
	if c.SSH.Host == "" {
		return fmt.Errorf("ssh.host is required")
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup.keep must be at least 1")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	if cfg.Probe.TimeoutRaw != "" {
		timeout, err := time.ParseDuration(cfg.Probe.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing probe timeout %q: %w", cfg.Probe.TimeoutRaw, err)
		}
		cfg.Probe.Timeout = timeout
	}
	return nil
}
