package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate validates the complete configuration structure.
func Validate(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateCompiler(); err != nil {
		return err
	}
	if err := cv.validateHistory(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	if cv.config.Source.Dir == "" {
		return errors.New("source.dir cannot be empty")
	}
	for _, ext := range cv.config.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("source.extensions entries must start with a dot: %s", ext)
		}
	}
	return nil
}

func (cv *configurationValidator) validateCompiler() error {
	if cv.config.Compiler.Command == "" {
		return errors.New("compiler.command must be configured")
	}
	if ext := cv.config.Compiler.ArtifactExt; !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("compiler.artifact_ext must start with a dot: %s", ext)
	}
	if raw := cv.config.Compiler.Timeout; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid compiler.timeout: %s: %w", raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("compiler.timeout must be positive: %s", raw)
		}
	}
	if dir := cv.config.Compiler.ArtifactDir; dir != "" {
		// Keep relative paths relative; just reject obvious mistakes.
		if filepath.Clean(dir) == "." && dir != "." {
			return fmt.Errorf("invalid compiler.artifact_dir: %s", dir)
		}
	}
	return nil
}

func (cv *configurationValidator) validateHistory() error {
	if cv.config.History.Keep < 0 {
		return fmt.Errorf("history.keep cannot be negative: %d", cv.config.History.Keep)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if raw := cv.config.Watch.Debounce; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce: %s: %w", raw, err)
		}
		if d < 0 {
			return fmt.Errorf("watch.debounce cannot be negative: %s", raw)
		}
	}
	if raw := cv.config.Watch.SweepInterval; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid watch.sweep_interval: %s: %w", raw, err)
		}
		if d < 0 {
			return fmt.Errorf("watch.sweep_interval cannot be negative: %s", raw)
		}
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	if !cv.config.Notify.Enabled {
		return nil
	}
	if cv.config.Notify.URL == "" {
		return errors.New("notify.url must be configured when notify.enabled is true")
	}
	if cv.config.Notify.Subject == "" {
		return errors.New("notify.subject cannot be empty when notify.enabled is true")
	}
	return nil
}
