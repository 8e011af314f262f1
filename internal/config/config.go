// Package config loads, defaults, and validates the litbuilder configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Compiler CompilerConfig `yaml:"compiler"`
	Build    BuildConfig    `yaml:"build"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// SourceConfig describes where literate source documents live.
type SourceConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// CompilerConfig describes the external literate-document compiler.
// The engine is a black box: litbuilder runs the command and expects exactly
// one artifact in the artifact directory, named after the source document.
type CompilerConfig struct {
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args,omitempty"`
	ArtifactDir string   `yaml:"artifact_dir,omitempty"` // empty: per-run staging dir
	ArtifactExt string   `yaml:"artifact_ext,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
}

// BuildConfig holds compile pipeline behavior switches.
type BuildConfig struct {
	Incremental *bool `yaml:"incremental,omitempty"`
	VerifyLinks bool  `yaml:"verify_links"`
}

// HistoryConfig configures the compile-run history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables history
	Keep int    `yaml:"keep,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce      string `yaml:"debounce,omitempty"`
	SweepInterval string `yaml:"sweep_interval,omitempty"` // "0" disables the periodic sweep
	HTTPAddr      string `yaml:"http_addr,omitempty"`      // empty disables the status server
}

// NotifyConfig configures the optional NATS run-event publisher.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	// Retries is the number of publish retries after the first failure;
	// zero publishes once. RetryBackoff selects fixed, linear, or
	// exponential growth between attempts.
	Retries      int    `yaml:"retries,omitempty"`
	RetryBackoff string `yaml:"retry_backoff,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it for debugging
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// IncrementalEnabled reports whether unchanged sources may skip recompilation.
func (c *Config) IncrementalEnabled() bool {
	if c.Build.Incremental == nil {
		return true
	}
	return *c.Build.Incremental
}

// CompilerTimeout returns the parsed compiler timeout.
func (c *Config) CompilerTimeout() time.Duration {
	return parseDurationOr(c.Compiler.Timeout, DefaultCompilerTimeout)
}

// WatchDebounce returns the parsed watch debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	return parseDurationOr(c.Watch.Debounce, DefaultWatchDebounce)
}

// SweepInterval returns the parsed periodic sweep interval; zero disables it.
func (c *Config) SweepInterval() time.Duration {
	return parseDurationOr(c.Watch.SweepInterval, 0)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Source: SourceConfig{
			Dir:        "docs",
			Extensions: []string{".md"},
		},
		Compiler: CompilerConfig{
			Command:     "mdweave",
			Args:        []string{"--out", "{artifact_dir}", "{source}"},
			ArtifactExt: ".md",
			Timeout:     "2m",
		},
		Build: BuildConfig{
			VerifyLinks: true,
		},
		History: HistoryConfig{
			Path: ".litbuilder/history.db",
			Keep: DefaultHistoryKeep,
		},
		Watch: WatchConfig{
			Debounce:      "2s",
			SweepInterval: "30m",
		},
		Notify: NotifyConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "litbuilder.runs",
			Retries: 2,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
