package autosave

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
debounce_ms: 500
retry:
  max_retries: 2
  base_delay_ms: 100
  max_delay_ms: 2000
  backoff_factor: 2.0
cache:
  enabled: true
  ttl_seconds: 60
  max_entries: 32
history:
  max_depth: 50
  hotkeys: true
key_map:
  profile.firstName: first_name
  profile.lastName: last_name
`

func TestLoadConfigBytes_YAML(t *testing.T) {
	cfg, err := LoadConfigBytes([]byte(sampleYAML), "yaml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DebounceMS != 500 {
		t.Fatalf("expected debounce 500, got %d", cfg.DebounceMS)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.Retry.MaxRetries)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxEntries != 32 {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
	if len(cfg.KeyMap) != 2 {
		t.Fatalf("expected 2 key mappings, got %d", len(cfg.KeyMap))
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("expected at least one manager option")
	}
}

func TestLoadConfigBytes_JSON(t *testing.T) {
	data := []byte(`{"debounce_ms": 250, "retry": {"max_retries": 1}}`)
	cfg, err := LoadConfigBytes(data, "json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DebounceMS != 250 {
		t.Fatalf("expected debounce 250, got %d", cfg.DebounceMS)
	}
}

func TestLoadConfigBytes_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		data   string
		format string
	}{
		{"negative retries", `{"retry": {"max_retries": -1}}`, "json"},
		{"colliding key map", `{"key_map": {"a": "x", "b": "x"}}`, "json"},
		{"bad format", `debounce_ms: 1`, "toml"},
		{"malformed yaml", "debounce_ms: [", "yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfigBytes([]byte(tc.data), tc.format); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadConfigFile_DetectsFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autosave.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DebounceMS != 500 {
		t.Fatalf("expected debounce 500, got %d", cfg.DebounceMS)
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
