package logger

import (
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level  Level
	Format string // "console" or "json"
	Caller bool   // Include caller information

	explicitLevel bool
}

// ConfigFromEnv creates a logger configuration from environment variables
func ConfigFromEnv() *Config {
	cfg := &Config{
		Level:  InfoLevel,
		Format: "console",
	}

	if levelStr := os.Getenv("OUTREACH_LOG_LEVEL"); levelStr != "" {
		cfg.Level = LevelFromString(levelStr)
		cfg.explicitLevel = true
	}
	if format := os.Getenv("OUTREACH_LOG_FORMAT"); format != "" {
		cfg.Format = strings.ToLower(format)
	}
	cfg.Caller = os.Getenv("OUTREACH_LOG_CALLER") == "true"

	return cfg
}

// IsDevelopment returns true if the logger is configured for development mode
func (c *Config) IsDevelopment() bool {
	return c.Format != "json"
}
