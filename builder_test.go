package autosave

import (
	"context"
	"testing"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

func TestManagerBuilder_RequiresTransportAndSource(t *testing.T) {
	if _, err := NewManagerBuilder().WithSource(newMapSource(nil)).Build(); err == nil {
		t.Fatal("expected error when transport is missing")
	}
	if _, err := NewManagerBuilder().WithTransport(&recordingTransport{}).Build(); err == nil {
		t.Fatal("expected error when source is missing")
	}
}

func TestManagerBuilder_RejectsInvalidDebounce(t *testing.T) {
	_, err := NewManagerBuilder().
		WithTransport(&recordingTransport{}).
		WithSource(newMapSource(nil)).
		WithDebounceInterval(-time.Second).
		Build()
	if err == nil {
		t.Fatal("expected error for negative debounce interval")
	}
}

func TestManagerBuilder_BuildsWorkingManager(t *testing.T) {
	inner := &recordingTransport{}
	mgr, err := NewManagerBuilder().
		WithTransport(inner).
		WithSource(newMapSource(map[string]any{"name": "Ada"})).
		WithDebounceInterval(time.Second).
		WithLogger(logging.Discard()).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Set("name", "Grace"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	result, err := mgr.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected successful save, got %+v", result)
	}
	if inner.calls() != 1 {
		t.Fatalf("expected 1 transport call, got %d", inner.calls())
	}
}

func TestManagerBuilder_Reset(t *testing.T) {
	b := NewManagerBuilder().
		WithTransport(&recordingTransport{}).
		WithSource(newMapSource(nil))
	b.Reset()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected reset builder to fail validation")
	}
}

func TestNewManager_FunctionalOptions(t *testing.T) {
	mgr, err := NewManager(
		WithNullTransport(),
		WithSource(newMapSource(map[string]any{"name": "Ada"})),
		WithDebounceInterval(time.Second),
		WithManagerLogger(logging.Discard()),
	)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Set("name", "Grace"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	result, err := mgr.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected null transport to accept the save, got %+v", result)
	}
}

func TestNewManager_MissingTransport(t *testing.T) {
	_, err := NewManager(WithSource(newMapSource(nil)))
	if err == nil {
		t.Fatal("expected error when transport is missing")
	}
}
