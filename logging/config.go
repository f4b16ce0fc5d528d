package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Environment types
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// GetConfigFromEnv creates a logger configuration based on environment variables.
//
// Debug-level output is on by default outside production. The AUTOSAVE_DEBUG
// variable force-enables ("true"/"1") or silences ("false"/"0") debug logging
// regardless of environment.
func GetConfigFromEnv() Config {
	config := DefaultConfig

	// Get log level from environment
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = strings.ToLower(level)
	}

	// Get log format from environment
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = strings.ToLower(format)
	}

	// Get environment
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = strings.ToLower(env)
	}

	// Get add source setting
	if addSource := os.Getenv("LOG_ADD_SOURCE"); addSource != "" {
		config.AddSource = strings.ToLower(addSource) == "true"
	}

	// Environment-specific defaults
	switch config.Environment {
	case EnvProduction:
		// Production: JSON format, INFO level, no source info for performance
		if config.Format == "" {
			config.Format = "json"
		}
		if config.Level == "" {
			config.Level = "info"
		}
		config.AddSource = false

	case EnvTest:
		// Test: Text format for readability, DEBUG level
		if config.Format == "" {
			config.Format = "text"
		}
		config.Level = "debug"
		config.AddSource = false

	case EnvDevelopment:
		// Development: Text format for readability, DEBUG level, source info
		if config.Format == "" {
			config.Format = "text"
		}
		config.Level = "debug"
		config.AddSource = true
	}

	// Explicit override beats environment defaults
	switch strings.ToLower(os.Getenv("AUTOSAVE_DEBUG")) {
	case "true", "1":
		config.Level = "debug"
	case "false", "0":
		config.Level = "warn"
	}

	return config
}

// DynamicLevelVar allows changing log level at runtime
type DynamicLevelVar struct {
	*slog.LevelVar
}

// NewDynamicLevelVar creates a new dynamic level variable
func NewDynamicLevelVar(initialLevel slog.Level) *DynamicLevelVar {
	levelVar := &slog.LevelVar{}
	levelVar.Set(initialLevel)
	return &DynamicLevelVar{LevelVar: levelVar}
}

// SetFromString sets the level from a string representation
func (d *DynamicLevelVar) SetFromString(level string) bool {
	switch strings.ToLower(level) {
	case "debug":
		d.Set(slog.LevelDebug)
	case "info":
		d.Set(slog.LevelInfo)
	case "warn", "warning":
		d.Set(slog.LevelWarn)
	case "error":
		d.Set(slog.LevelError)
	default:
		return false
	}
	return true
}

// NewLoggerWithDynamicLevel creates a logger with dynamic level support
func NewLoggerWithDynamicLevel(config Config) (*Logger, *DynamicLevelVar) {
	levelVar := NewDynamicLevelVar(slog.LevelInfo)

	opts := &slog.HandlerOptions{
		Level:     levelVar.LevelVar,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "text" || config.Environment == "dev" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := &Logger{Logger: slog.New(handler)}
	return logger, levelVar
}
