// Package config loads and persists the adopters CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Marker is the filename whose presence in a repository signals
	// adoption.
	Marker string `yaml:"marker,omitempty"`
	// HomeRepo is the "owner/name" repository where submission issues
	// are filed and where the registry lives.
	HomeRepo string `yaml:"home_repo,omitempty"`
	// SubmissionLabel marks issues as manual adoption requests.
	SubmissionLabel string `yaml:"submission_label,omitempty"`
	// RegistryPath is the persisted registry file.
	RegistryPath string `yaml:"registry_path,omitempty"`

	// PaceMS is the fixed delay between successive external calls in
	// the fetch and housekeeping loops.
	PaceMS int `yaml:"pace_ms,omitempty"`
	// Retries is the number of additional attempts after a failed call.
	Retries *int `yaml:"retries,omitempty"`
	// BaseDelayMS is the exponential backoff base.
	BaseDelayMS int `yaml:"base_delay_ms,omitempty"`
	// TimeoutSeconds bounds each individual external call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// Celebration overrides the daily announcement window.
	Celebration *CelebrationOverrides `yaml:"celebration,omitempty"`
}

// CelebrationOverrides customizes the UTC hour window for the daily
// report's announcement schedule.
type CelebrationOverrides struct {
	StartHour *int `yaml:"start_hour,omitempty"`
	EndHour   *int `yaml:"end_hour,omitempty"`
}

// Default values applied when the config file leaves a field unset.
const (
	DefaultMarker          = "ADOPTERS.md"
	DefaultSubmissionLabel = "adopter-submission"
	DefaultRegistryPath    = "adopters.json"
	DefaultPaceMS          = 500
	DefaultRetries         = 5
	DefaultBaseDelayMS     = 1000
	DefaultTimeoutSeconds  = 30
	DefaultCelebStartHour  = 8
	DefaultCelebEndHour    = 20
)

// DefaultConfigDir returns the default config directory.
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".adopters"
	}
	return filepath.Join(configDir, "adopters")
}

// ConfigPath returns the path to the global config file.
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the
// current directory.
func LocalConfigPath() string {
	return ".adopters.yaml"
}

// Load loads the configuration from disk. It first loads the global
// config from the XDG config directory, then merges any local
// .adopters.yaml on top (local values take precedence), then fills in
// defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// mergeConfig merges local config on top of global config. Local
// values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	pick := func(localVal, globalVal string) string {
		if localVal != "" {
			return localVal
		}
		return globalVal
	}
	pickInt := func(localVal, globalVal int) int {
		if localVal != 0 {
			return localVal
		}
		return globalVal
	}

	result.Marker = pick(local.Marker, global.Marker)
	result.HomeRepo = pick(local.HomeRepo, global.HomeRepo)
	result.SubmissionLabel = pick(local.SubmissionLabel, global.SubmissionLabel)
	result.RegistryPath = pick(local.RegistryPath, global.RegistryPath)
	result.PaceMS = pickInt(local.PaceMS, global.PaceMS)
	result.BaseDelayMS = pickInt(local.BaseDelayMS, global.BaseDelayMS)
	result.TimeoutSeconds = pickInt(local.TimeoutSeconds, global.TimeoutSeconds)

	result.Retries = global.Retries
	if local.Retries != nil {
		result.Retries = local.Retries
	}

	result.Celebration = mergeCelebration(global.Celebration, local.Celebration)
	return result
}

func mergeCelebration(global, local *CelebrationOverrides) *CelebrationOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &CelebrationOverrides{}
	if global != nil {
		result.StartHour = global.StartHour
		result.EndHour = global.EndHour
	}
	if local != nil {
		if local.StartHour != nil {
			result.StartHour = local.StartHour
		}
		if local.EndHour != nil {
			result.EndHour = local.EndHour
		}
	}
	return result
}

func applyDefaults(cfg *Config) {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.SubmissionLabel == "" {
		cfg.SubmissionLabel = DefaultSubmissionLabel
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = DefaultRegistryPath
	}
	if cfg.PaceMS == 0 {
		cfg.PaceMS = DefaultPaceMS
	}
	if cfg.BaseDelayMS == 0 {
		cfg.BaseDelayMS = DefaultBaseDelayMS
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// GetRetries returns the retry budget, using the default when unset.
func (c *Config) GetRetries() int {
	if c.Retries != nil {
		return *c.Retries
	}
	return DefaultRetries
}

// CelebrationWindow returns the effective UTC hour window for the
// daily report.
func (c *Config) CelebrationWindow() (start, end int) {
	start, end = DefaultCelebStartHour, DefaultCelebEndHour
	if c.Celebration != nil {
		if c.Celebration.StartHour != nil {
			start = *c.Celebration.StartHour
		}
		if c.Celebration.EndHour != nil {
			end = *c.Celebration.EndHour
		}
	}
	return start, end
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN
// environment variable. Following 12-factor app practice, tokens are
// only read from the environment, never from config files.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	configDir := DefaultConfigDir()
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ToYAML returns the config as a YAML string.
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// MinimalConfig returns a minimal config template with comments.
func MinimalConfig() string {
	return `# Adopters configuration file
# See: adopters config defaults  (for all available options)

# Repository where submission issues are filed (required for update)
# home_repo: my-org/my-project

# Marker filename that signals adoption
marker: ADOPTERS.md

# Registry output file
registry_path: adopters.json

# Label on manual submission issues
# submission_label: adopter-submission
`
}
