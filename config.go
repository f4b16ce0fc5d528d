package autosave

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
	"github.com/c0deZ3R0/go-autosave-kit/history"
	"github.com/c0deZ3R0/go-autosave-kit/keymap"
)

// FileConfig is the on-disk configuration for an autosave Manager,
// loadable from YAML or JSON. It covers the declarative parts of the
// engine; behavior hooks (gate, selector, transport) stay in code.
type FileConfig struct {
	// DebounceMS is the quiet period in milliseconds before a save fires.
	DebounceMS int `json:"debounce_ms" yaml:"debounce_ms" validate:"omitempty,min=1"`

	Retry struct {
		MaxRetries    int     `json:"max_retries" yaml:"max_retries" validate:"min=0"`
		BaseDelayMS   int     `json:"base_delay_ms" yaml:"base_delay_ms" validate:"omitempty,min=1"`
		MaxDelayMS    int     `json:"max_delay_ms" yaml:"max_delay_ms" validate:"omitempty,min=1"`
		BackoffFactor float64 `json:"backoff_factor" yaml:"backoff_factor" validate:"omitempty,min=1"`
	} `json:"retry" yaml:"retry"`

	Cache struct {
		Enabled    bool `json:"enabled" yaml:"enabled"`
		TTLSeconds int  `json:"ttl_seconds" yaml:"ttl_seconds" validate:"min=0"`
		MaxEntries int  `json:"max_entries" yaml:"max_entries" validate:"min=0"`
	} `json:"cache" yaml:"cache"`

	History struct {
		MaxDepth          int  `json:"max_depth" yaml:"max_depth" validate:"min=0"`
		Hotkeys           bool `json:"hotkeys" yaml:"hotkeys"`
		AllowWhileEditing bool `json:"allow_while_editing" yaml:"allow_while_editing"`
	} `json:"history" yaml:"history"`

	// KeyMap maps field paths to wire key names.
	KeyMap map[string]string `json:"key_map,omitempty" yaml:"key_map,omitempty"`
}

// LoadConfigFile reads a FileConfig from a YAML or JSON file, picking the
// format from the extension.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, saveErrors.NewConfigError(saveErrors.OpSave,
			fmt.Errorf("read config file %s: %w", path, err))
	}
	return LoadConfigBytes(data, detectFormat(path))
}

// LoadConfigBytes parses a FileConfig from raw bytes in the given format
// ("yaml" or "json").
func LoadConfigBytes(data []byte, format string) (*FileConfig, error) {
	var cfg FileConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, saveErrors.NewConfigError(saveErrors.OpSave,
				fmt.Errorf("parse YAML config: %w", err))
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, saveErrors.NewConfigError(saveErrors.OpSave,
				fmt.Errorf("parse JSON config: %w", err))
		}
	default:
		return nil, saveErrors.NewConfigError(saveErrors.OpSave,
			fmt.Errorf("unsupported config format: %s", format))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and key-map consistency.
func (c *FileConfig) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return saveErrors.NewConfigError(saveErrors.OpSave,
			fmt.Errorf("invalid config: %w", err))
	}
	if len(c.KeyMap) > 0 {
		km, err := keymap.FromStrings(c.KeyMap)
		if err != nil {
			return saveErrors.NewConfigError(saveErrors.OpSave,
				fmt.Errorf("invalid key map: %w", err))
		}
		if err := km.Validate(); err != nil {
			return saveErrors.NewConfigError(saveErrors.OpSave,
				fmt.Errorf("invalid key map: %w", err))
		}
	}
	return nil
}

// Options converts the file config into functional manager options, ready
// to be combined with the code-level hooks:
//
//	opts, _ := cfg.Options()
//	mgr, err := autosave.NewManager(append(opts,
//	    autosave.WithTransport(t),
//	    autosave.WithSource(src),
//	)...)
func (c *FileConfig) Options() ([]ManagerOption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []ManagerOption

	if c.DebounceMS > 0 {
		opts = append(opts, WithDebounceInterval(time.Duration(c.DebounceMS)*time.Millisecond))
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = c.Retry.MaxRetries
	if c.Retry.BaseDelayMS > 0 {
		retry.BaseDelay = time.Duration(c.Retry.BaseDelayMS) * time.Millisecond
	}
	if c.Retry.MaxDelayMS > 0 {
		retry.MaxDelay = time.Duration(c.Retry.MaxDelayMS) * time.Millisecond
	}
	if c.Retry.BackoffFactor >= 1 {
		retry.BackoffFactor = c.Retry.BackoffFactor
	}
	opts = append(opts, WithRetryConfig(retry))

	if c.Cache.Enabled {
		opts = append(opts, WithCacheConfig(CacheConfig{
			TTL:        time.Duration(c.Cache.TTLSeconds) * time.Second,
			MaxEntries: c.Cache.MaxEntries,
		}))
	}

	opts = append(opts, WithHistoryDepth(c.History.MaxDepth))
	opts = append(opts, WithHotkeys(historyHotkeys(c.History.Hotkeys, c.History.AllowWhileEditing)))

	if len(c.KeyMap) > 0 {
		km, err := keymap.FromStrings(c.KeyMap)
		if err != nil {
			return nil, saveErrors.NewConfigError(saveErrors.OpSave,
				fmt.Errorf("invalid key map: %w", err))
		}
		opts = append(opts, WithKeyMap(km, nil))
	}

	return opts, nil
}

func historyHotkeys(enable, allowWhileEditing bool) history.HotkeyPolicy {
	return history.HotkeyPolicy{Enable: enable, AllowWhileEditing: allowWhileEditing}
}

// detectFormat determines file format from extension.
func detectFormat(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "yaml"
	}
	switch strings.ToLower(path[idx+1:]) {
	case "yml", "yaml":
		return "yaml"
	case "json":
		return "json"
	default:
		return "yaml"
	}
}
