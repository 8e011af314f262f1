package config

import "time"

// Default values applied to fields the config file leaves unset.
const (
	DefaultSourceDir       = "docs"
	DefaultArtifactExt     = ".md"
	DefaultCompilerTimeout = 2 * time.Minute
	DefaultWatchDebounce   = 2 * time.Second
	DefaultHistoryKeep     = 500
	DefaultNotifySubject   = "litbuilder.runs"
)

func (c *Config) applyDefaults() {
	if c.Source.Dir == "" {
		c.Source.Dir = DefaultSourceDir
	}
	if len(c.Source.Extensions) == 0 {
		c.Source.Extensions = []string{".md"}
	}
	if c.Compiler.ArtifactExt == "" {
		c.Compiler.ArtifactExt = DefaultArtifactExt
	}
	if c.History.Keep <= 0 {
		c.History.Keep = DefaultHistoryKeep
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
}
