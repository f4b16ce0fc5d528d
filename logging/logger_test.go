package logging

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/errors"
)

func TestLogger(t *testing.T) {
	// Test different environments
	configs := []Config{
		{Level: "debug", Format: "text", Environment: EnvDevelopment, AddSource: true},
		{Level: "info", Format: "json", Environment: EnvProduction, AddSource: false},
	}

	for _, config := range configs {
		t.Run("Environment_"+config.Environment, func(t *testing.T) {
			logger := NewLogger(config)

			// Test basic logging
			logger.Debug("Debug message", slog.String("key", "value"))
			logger.Info("Info message", slog.Int("count", 42))
			logger.Warn("Warning message", slog.Bool("enabled", true))

			// Test error logging
			testErr := errors.New(errors.OpSave, fmt.Errorf("transport error"))
			logger.LogError(context.Background(), testErr, "Operation failed")

			// Test child loggers
			childLogger := logger.WithComponent(Component("test"))
			childLogger.Info("Child logger message")

			// Test operation logging
			err := logger.LogOperation(
				context.Background(),
				Operation("test_op"),
				Component("test_component"),
				func() error {
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLogOperation_PropagatesError(t *testing.T) {
	logger := NewLogger(Config{Level: "error", Format: "text", Environment: EnvTest})

	wantErr := errors.NewTransportError(errors.OpSave, fmt.Errorf("down"))
	err := logger.LogOperation(context.Background(), Operation("save"), Component("manager"), func() error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}

func TestGetConfigFromEnv_DebugFlag(t *testing.T) {
	t.Setenv("ENVIRONMENT", EnvProduction)
	t.Setenv("AUTOSAVE_DEBUG", "true")

	config := GetConfigFromEnv()
	if config.Level != "debug" {
		t.Errorf("AUTOSAVE_DEBUG=true should force debug level, got %q", config.Level)
	}

	t.Setenv("AUTOSAVE_DEBUG", "0")
	config = GetConfigFromEnv()
	if config.Level != "warn" {
		t.Errorf("AUTOSAVE_DEBUG=0 should silence to warn, got %q", config.Level)
	}
}

func TestDynamicLevelVar(t *testing.T) {
	levelVar := NewDynamicLevelVar(slog.LevelInfo)

	if !levelVar.SetFromString("debug") {
		t.Error("expected debug to be accepted")
	}
	if levelVar.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", levelVar.Level())
	}
	if levelVar.SetFromString("bogus") {
		t.Error("expected bogus level to be rejected")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	// Must not panic and must drop output silently.
	logger.Info("should go nowhere", slog.String("k", "v"))
	logger.LogError(context.Background(), fmt.Errorf("x"), "dropped")
}
