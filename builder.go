package autosave

import (
	"context"
	"fmt"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/history"
	"github.com/c0deZ3R0/go-autosave-kit/journal"
	"github.com/c0deZ3R0/go-autosave-kit/keymap"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

// ManagerBuilder provides a fluent interface for constructing Manager instances.
type ManagerBuilder struct {
	transport Transport
	source    ValueSource
	options   *ManagerOptions
}

// ManagerOptions holds the tunable behavior of a Manager.
type ManagerOptions struct {
	// DebounceInterval is how long the engine waits after the last
	// mutation before attempting a save.
	DebounceInterval time.Duration

	// Retry configures the exponential backoff wrapped around the
	// transport.
	Retry RetryConfig

	// Cache, when non-nil, enables duplicate-payload suppression in front
	// of the retry layer.
	Cache *CacheConfig

	// ShouldSave gates each debounced cycle. Nil means always save when
	// dirty fields exist.
	ShouldSave ShouldSaveFunc

	// SelectPayload builds the payload from live values and dirty paths.
	// Nil means snapshot exactly the dirty fields.
	SelectPayload SelectPayloadFunc

	// Validator checks the payload before transport. Nil disables
	// validation.
	Validator ValidatorFunc

	// OnSaved observes every settled outcome. Nil disables the callback.
	OnSaved OnSavedFunc

	// KeyMap, when non-nil, rewrites payload keys into wire shape just
	// before transport. Baseline bookkeeping stays in field space.
	KeyMap *keymap.KeyMap

	// KeyMapOptions tunes KeyMap application; nil means keymap defaults.
	KeyMapOptions *keymap.Options

	// HistoryDepth bounds the undo stack. Zero means unbounded.
	HistoryDepth int

	// Hotkeys controls keyboard-driven undo/redo.
	Hotkeys history.HotkeyPolicy

	// Journal, when non-nil, receives an Attempt record per settled save.
	Journal journal.Journal

	// Clock drives debounce timers and backoff waits. Nil means wall time.
	Clock Clock

	// Logger receives structured engine logs. Nil means the process
	// default logger.
	Logger *logging.Logger

	// Metrics receives operational counters. Nil means no-op.
	Metrics MetricsCollector
}

// NewManagerBuilder creates a new builder with default options.
func NewManagerBuilder() *ManagerBuilder {
	return &ManagerBuilder{
		options: &ManagerOptions{
			DebounceInterval: 2 * time.Second,
			Retry:            DefaultRetryConfig(),
			Hotkeys:          history.HotkeyPolicy{Enable: true},
		},
	}
}

// WithTransport sets the Transport the manager saves through.
func (b *ManagerBuilder) WithTransport(t Transport) *ManagerBuilder {
	b.transport = t
	return b
}

// WithSource sets the live value source.
func (b *ManagerBuilder) WithSource(s ValueSource) *ManagerBuilder {
	b.source = s
	return b
}

// WithDebounceInterval sets the quiet period before a save fires.
func (b *ManagerBuilder) WithDebounceInterval(d time.Duration) *ManagerBuilder {
	b.options.DebounceInterval = d
	return b
}

// WithRetry sets the backoff configuration.
func (b *ManagerBuilder) WithRetry(cfg RetryConfig) *ManagerBuilder {
	b.options.Retry = cfg
	return b
}

// WithCache enables duplicate-payload suppression.
func (b *ManagerBuilder) WithCache(cfg CacheConfig) *ManagerBuilder {
	b.options.Cache = &cfg
	return b
}

// WithShouldSave sets the save-gate predicate.
func (b *ManagerBuilder) WithShouldSave(fn ShouldSaveFunc) *ManagerBuilder {
	b.options.ShouldSave = fn
	return b
}

// WithSelectPayload sets the payload selector.
func (b *ManagerBuilder) WithSelectPayload(fn SelectPayloadFunc) *ManagerBuilder {
	b.options.SelectPayload = fn
	return b
}

// WithValidator sets the pre-transport payload validator.
func (b *ManagerBuilder) WithValidator(fn ValidatorFunc) *ManagerBuilder {
	b.options.Validator = fn
	return b
}

// WithOnSaved sets the settled-outcome callback.
func (b *ManagerBuilder) WithOnSaved(fn OnSavedFunc) *ManagerBuilder {
	b.options.OnSaved = fn
	return b
}

// WithKeyMap sets the wire-shape key mapping applied before transport.
func (b *ManagerBuilder) WithKeyMap(km *keymap.KeyMap, opts *keymap.Options) *ManagerBuilder {
	b.options.KeyMap = km
	b.options.KeyMapOptions = opts
	return b
}

// WithHistoryDepth bounds the undo stack.
func (b *ManagerBuilder) WithHistoryDepth(depth int) *ManagerBuilder {
	b.options.HistoryDepth = depth
	return b
}

// WithHotkeys sets the keyboard undo/redo policy.
func (b *ManagerBuilder) WithHotkeys(policy history.HotkeyPolicy) *ManagerBuilder {
	b.options.Hotkeys = policy
	return b
}

// WithJournal sets the save-attempt journal.
func (b *ManagerBuilder) WithJournal(j journal.Journal) *ManagerBuilder {
	b.options.Journal = j
	return b
}

// WithClock injects a clock, primarily for tests.
func (b *ManagerBuilder) WithClock(c Clock) *ManagerBuilder {
	b.options.Clock = c
	return b
}

// WithLogger sets a custom logger for the Manager.
func (b *ManagerBuilder) WithLogger(l *logging.Logger) *ManagerBuilder {
	b.options.Logger = l
	return b
}

// WithMetrics sets the metrics collector.
func (b *ManagerBuilder) WithMetrics(m MetricsCollector) *ManagerBuilder {
	b.options.Metrics = m
	return b
}

// Build creates a new Manager instance with the configured options.
func (b *ManagerBuilder) Build() (*Manager, error) {
	if b.transport == nil {
		return nil, fmt.Errorf("Transport is required")
	}
	if b.source == nil {
		return nil, fmt.Errorf("ValueSource is required")
	}
	if b.options.DebounceInterval <= 0 {
		return nil, fmt.Errorf("DebounceInterval must be positive, got %v", b.options.DebounceInterval)
	}
	if b.options.KeyMap != nil {
		if err := b.options.KeyMap.Validate(); err != nil {
			return nil, fmt.Errorf("invalid key map: %w", err)
		}
	}
	return newManager(b.transport, b.source, b.options), nil
}

// Reset clears the builder, allowing reuse.
func (b *ManagerBuilder) Reset() *ManagerBuilder {
	b.transport = nil
	b.source = nil
	b.options = &ManagerOptions{
		DebounceInterval: 2 * time.Second,
		Retry:            DefaultRetryConfig(),
		Hotkeys:          history.HotkeyPolicy{Enable: true},
	}
	return b
}

// nullTransport is a no-op transport for local-only scenarios.
type nullTransport struct{}

func (n *nullTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	return Success(""), nil
}
