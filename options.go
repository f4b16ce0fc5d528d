package autosave

import (
	"errors"
	"time"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
	"github.com/c0deZ3R0/go-autosave-kit/history"
	"github.com/c0deZ3R0/go-autosave-kit/journal"
	"github.com/c0deZ3R0/go-autosave-kit/keymap"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

// ManagerOption is a functional option for configuring a Manager via NewManager.
type ManagerOption func(*ManagerBuilder) error

// NewManager constructs a Manager using functional options on top of the
// existing builder. It keeps the builder for advanced use while offering a
// concise, discoverable API.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	b := NewManagerBuilder()

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, saveErrors.NewWithComponent(
				saveErrors.OpSave,
				"autosave",
				err,
			)
		}
	}

	if b.transport == nil {
		return nil, saveErrors.NewConfigError(
			saveErrors.OpSave,
			errors.New("transport is required (use WithTransport(...) or WithNullTransport())"),
		)
	}
	if b.source == nil {
		return nil, saveErrors.NewConfigError(
			saveErrors.OpSave,
			errors.New("value source is required (use WithSource(...))"),
		)
	}

	return b.Build()
}

// WithTransport sets a pre-built Transport.
func WithTransport(t Transport) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithTransport(t)
		return nil
	}
}

// WithNullTransport configures a no-op transport for local-only scenarios.
// Use this when you only need dirty tracking and undo/redo without a wire.
func WithNullTransport() ManagerOption {
	return WithTransport(&nullTransport{})
}

// WithSource sets the live value source.
func WithSource(s ValueSource) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithSource(s)
		return nil
	}
}

// WithDebounceInterval sets the quiet period before a save fires.
func WithDebounceInterval(d time.Duration) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithDebounceInterval(d)
		return nil
	}
}

// WithRetryConfig sets the backoff configuration.
func WithRetryConfig(cfg RetryConfig) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithRetry(cfg)
		return nil
	}
}

// WithCacheConfig enables duplicate-payload suppression.
func WithCacheConfig(cfg CacheConfig) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithCache(cfg)
		return nil
	}
}

// WithShouldSave sets the save-gate predicate.
func WithShouldSave(fn ShouldSaveFunc) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithShouldSave(fn)
		return nil
	}
}

// WithSelectPayload sets the payload selector.
func WithSelectPayload(fn SelectPayloadFunc) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithSelectPayload(fn)
		return nil
	}
}

// WithValidator sets the pre-transport payload validator.
func WithValidator(fn ValidatorFunc) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithValidator(fn)
		return nil
	}
}

// WithOnSaved sets the settled-outcome callback.
func WithOnSaved(fn OnSavedFunc) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithOnSaved(fn)
		return nil
	}
}

// WithKeyMap sets the wire-shape key mapping applied before transport.
func WithKeyMap(km *keymap.KeyMap, opts *keymap.Options) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithKeyMap(km, opts)
		return nil
	}
}

// WithHistoryDepth bounds the undo stack.
func WithHistoryDepth(depth int) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithHistoryDepth(depth)
		return nil
	}
}

// WithHotkeys sets the keyboard undo/redo policy.
func WithHotkeys(policy history.HotkeyPolicy) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithHotkeys(policy)
		return nil
	}
}

// WithJournal sets the save-attempt journal.
func WithJournal(j journal.Journal) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithJournal(j)
		return nil
	}
}

// WithClock injects a clock, primarily for tests.
func WithClock(c Clock) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithClock(c)
		return nil
	}
}

// WithManagerLogger sets a custom logger for the Manager.
func WithManagerLogger(logger *logging.Logger) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithLogger(logger)
		return nil
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) ManagerOption {
	return func(b *ManagerBuilder) error {
		b.WithMetrics(m)
		return nil
	}
}
