package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
	"github.com/c0deZ3R0/go-autosave-kit/history"
	"github.com/c0deZ3R0/go-autosave-kit/journal"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
	"github.com/c0deZ3R0/go-autosave-kit/snapshot"
)

// ErrManagerClosed is returned by operations on a closed Manager.
var ErrManagerClosed = errors.New("autosave: manager closed")

// Manager is the autosave engine. It watches field mutations, debounces
// them into save cycles, runs the configured transport pipeline, and keeps
// the baseline snapshot, pending set, and undo history consistent with
// every settled outcome.
//
// At most one save cycle is in flight at a time. A debounce window that
// fires while a save is running re-arms once that save settles, so
// mutations are never dropped, only coalesced.
type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond

	transport Transport // the wrapped pipeline, not the raw inner transport
	source    ValueSource
	opts      *ManagerOptions
	clock     Clock
	logger    *logging.Logger
	metrics   MetricsCollector

	baseline *snapshot.Baseline
	pending  *snapshot.PendingSet
	history  *history.History

	timer      Timer
	timerGen   uint64
	timerStop  chan struct{}
	saving     bool
	rearm      bool
	cancelSave context.CancelFunc
	lastResult *SaveResult
	closed     bool
}

func newManager(inner Transport, source ValueSource, opts *ManagerOptions) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("manager")
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewNoOpMetricsCollector()
	}

	pipeline := newRetryTransport(inner, opts.Retry, clock, logger, metrics)
	if opts.Cache != nil {
		pipeline = newCachingTransport(pipeline, *opts.Cache, clock, logger)
	}

	m := &Manager{
		transport: pipeline,
		source:    source,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		baseline:  snapshot.New(source.Snapshot()),
		pending:   snapshot.NewPendingSet(nil),
	}
	m.cond = sync.NewCond(&m.mu)
	m.history = history.New(history.Config{
		Writer:   m.applyHistoryValue,
		MaxDepth: opts.HistoryDepth,
		Hotkeys:  opts.Hotkeys,
	})

	logger.Debug("autosave manager created",
		"debounce_interval", opts.DebounceInterval,
		"max_retries", opts.Retry.MaxRetries,
		"cache_enabled", opts.Cache != nil,
	)
	return m
}

// Set writes one field value, records it as an undoable edit, marks the
// path dirty, and re-arms the debounce window.
func (m *Manager) Set(path string, value any) error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	prev, _ := fieldpath.Get(m.source.Snapshot(), path)
	if err := m.source.Set(path, value); err != nil {
		return saveErrors.NewWithComponent(saveErrors.OpSave, "manager",
			fmt.Errorf("set %q: %w", path, err))
	}
	m.history.Record(history.Patch{Name: path, Prev: prev, Next: value})
	m.noteMutation(path)
	return nil
}

// Apply writes several field values as one atomic edit: a single undo
// reverts all of them together.
func (m *Manager) Apply(changes map[string]any) error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	if len(changes) == 0 {
		return nil
	}
	before := m.source.Snapshot()
	patches := make([]history.Patch, 0, len(changes))
	paths := make([]string, 0, len(changes))
	for path, value := range changes {
		prev, _ := fieldpath.Get(before, path)
		if err := m.source.Set(path, value); err != nil {
			return saveErrors.NewWithComponent(saveErrors.OpSave, "manager",
				fmt.Errorf("set %q: %w", path, err))
		}
		patches = append(patches, history.Patch{Name: path, Prev: prev, Next: value})
		paths = append(paths, path)
	}
	m.history.Record(patches...)
	m.noteMutation(paths...)
	return nil
}

// MarkDirty flags externally-mutated paths for the next save cycle without
// recording undo history. Paths whose live value matches the baseline are
// dropped from the pending set instead.
func (m *Manager) MarkDirty(paths ...string) {
	if m.isClosed() || len(paths) == 0 {
		return
	}
	m.noteMutation(paths...)
}

// noteMutation reconciles the pending set against the live values and
// re-arms the debounce window while anything is still dirty.
func (m *Manager) noteMutation(paths ...string) {
	values := m.source.Snapshot()
	m.mu.Lock()
	baseline := m.baseline
	m.mu.Unlock()

	for _, p := range paths {
		cur, _ := fieldpath.Get(values, p)
		m.pending.Reconcile(baseline, p, cur)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending.Len() > 0 {
		m.armLocked()
	}
}

// armLocked starts or restarts the debounce timer. Caller holds mu.
func (m *Manager) armLocked() {
	if m.closed {
		return
	}
	if m.saving {
		m.rearm = true
		return
	}
	m.disarmLocked()
	gen := m.timerGen
	stop := make(chan struct{})
	t := m.clock.NewTimer(m.opts.DebounceInterval)
	m.timer = t
	m.timerStop = stop
	go m.waitForTimer(gen, t, stop)
}

// disarmLocked stops the pending debounce timer and releases its waiting
// goroutine. Caller holds mu.
func (m *Manager) disarmLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.timerStop != nil {
		close(m.timerStop)
		m.timerStop = nil
	}
	m.timerGen++
}

func (m *Manager) waitForTimer(gen uint64, t Timer, stop <-chan struct{}) {
	select {
	case <-t.C():
	case <-stop:
		return
	}
	m.mu.Lock()
	if m.closed || gen != m.timerGen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.timerStop = nil
	m.mu.Unlock()
	m.runSave(context.Background(), "debounce")
}

// runSave executes one full save cycle: gate, select, validate, transport,
// settle. It returns nil when the cycle was skipped.
func (m *Manager) runSave(ctx context.Context, trigger string) *SaveResult {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	if m.saving {
		m.rearm = true
		m.mu.Unlock()
		return nil
	}
	dirty := m.pending.Paths()
	if len(dirty) == 0 {
		m.mu.Unlock()
		return nil
	}
	m.saving = true
	saveCtx, cancel := context.WithCancel(ctx)
	m.cancelSave = cancel
	baseline := m.baseline
	last := m.lastResult
	m.mu.Unlock()

	defer cancel()

	m.metrics.RecordPendingFields(len(dirty))
	values := m.source.Snapshot()
	state := &SaveState{
		Values:          values,
		DirtyPaths:      dirty,
		BaselineVersion: baseline.Version(),
		LastResult:      last,
	}

	if m.opts.ShouldSave != nil && !m.opts.ShouldSave(state) {
		m.logger.Debug("save gated off", "trigger", trigger, "dirty_fields", len(dirty))
		m.metrics.RecordSave("skipped")
		m.settle(nil, nil, nil, nil, trigger, 0)
		return nil
	}

	selectPayload := m.opts.SelectPayload
	if selectPayload == nil {
		selectPayload = DefaultSelectPayload
	}
	payload := selectPayload(values, dirty)

	sc := &SaveContext{Timestamp: m.clock.Now(), AttemptID: uuid.NewString()}

	if m.opts.Validator != nil {
		if err := m.opts.Validator(payload); err != nil {
			result := Failure(saveErrors.NewValidationError(saveErrors.OpValidate, err))
			m.logger.Warn("payload rejected by validator",
				"trigger", trigger,
				"attempt_id", sc.AttemptID,
				"error", err,
			)
			m.settle(result, nil, dirty, sc, trigger, 0)
			return result
		}
	}

	wire := payload
	if m.opts.KeyMap != nil {
		wire = m.opts.KeyMap.Apply(payload, m.opts.KeyMapOptions)
	}

	m.logger.Debug("starting save",
		"trigger", trigger,
		"attempt_id", sc.AttemptID,
		"dirty_fields", len(dirty),
	)

	start := m.clock.Now()
	result, err := m.transport.Save(saveCtx, wire, sc)
	duration := m.clock.Now().Sub(start)
	if err != nil {
		result = Failure(saveErrors.NewTransportError(saveErrors.OpSave, err))
	}
	if result == nil {
		result = Failure(saveErrors.NewTransportError(saveErrors.OpSave,
			fmt.Errorf("transport returned no result")))
	}
	m.metrics.RecordSaveDuration(duration)

	m.settle(result, payload, dirty, sc, trigger, duration.Nanoseconds())
	return result
}

// settle folds one finished cycle back into manager state: adopt the sent
// payload into the baseline on success, recompute the pending set, record
// the attempt, and re-arm the debounce window if mutations piled up while
// the save was in flight.
func (m *Manager) settle(result *SaveResult, payload Payload, dirty []string, sc *SaveContext, trigger string, durationNS int64) {
	m.mu.Lock()
	m.saving = false
	m.cancelSave = nil
	if result != nil {
		m.lastResult = result
		if result.OK {
			m.baseline.MergePayload(payload)
			values := m.source.Snapshot()
			for _, p := range dirty {
				cur, _ := fieldpath.Get(values, p)
				m.pending.Reconcile(m.baseline, p, cur)
			}
		}
	}
	rearm := result != nil && (m.rearm || m.pending.Len() > 0)
	m.rearm = false
	m.cond.Broadcast()
	if rearm {
		m.armLocked()
	}
	m.mu.Unlock()

	if result == nil {
		return
	}

	switch {
	case result.OK:
		m.metrics.RecordSave("success")
		m.logger.Info("save settled",
			"trigger", trigger,
			"attempt_id", sc.AttemptID,
			"version", result.Version,
			"fields", len(dirty),
		)
	case saveErrors.IsCanceled(result.Err):
		m.metrics.RecordSave("canceled")
		m.logger.Info("save canceled", "trigger", trigger, "attempt_id", sc.AttemptID)
	default:
		m.metrics.RecordSave("failure")
		m.metrics.RecordSaveError(string(saveErrors.CodeOf(result.Err)))
		m.logger.LogError(context.Background(), result.Err, "save failed")
	}

	if m.opts.Journal != nil {
		attempt := journal.Attempt{
			ID:         sc.AttemptID,
			Time:       sc.Timestamp,
			Trigger:    trigger,
			Paths:      dirty,
			OK:         result.OK,
			Version:    result.Version,
			DurationNS: durationNS,
		}
		if result.Err != nil {
			attempt.Error = result.Err.Error()
			attempt.Code = string(saveErrors.CodeOf(result.Err))
		}
		if err := m.opts.Journal.Record(context.Background(), attempt); err != nil {
			m.logger.Warn("journal record failed", "attempt_id", sc.AttemptID, "error", err)
		}
	}

	if m.opts.OnSaved != nil {
		m.opts.OnSaved(result)
	}
}

// Flush waits for any in-flight save to settle, then runs a synchronous
// save of everything still dirty, bypassing the debounce window. It
// returns a nil result when nothing was dirty.
func (m *Manager) Flush(ctx context.Context) (*SaveResult, error) {
	unblock := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.cond.Broadcast()
		case <-unblock:
		}
	}()
	defer close(unblock)

	m.mu.Lock()
	for m.saving && !m.closed {
		if err := ctx.Err(); err != nil {
			m.mu.Unlock()
			return nil, saveErrors.NewCanceledError(saveErrors.OpFlush, err)
		}
		m.cond.Wait()
	}
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		return nil, saveErrors.NewCanceledError(saveErrors.OpFlush, err)
	}
	m.disarmLocked()
	m.mu.Unlock()

	return m.runSave(ctx, "flush"), nil
}

// Abort cancels the in-flight save, if any. A pending debounce window is
// left untouched. Dirty state is preserved, so the window re-arms once
// the canceled save settles.
func (m *Manager) Abort() {
	m.mu.Lock()
	cancel := m.cancelSave
	if cancel != nil {
		m.rearm = false
	}
	m.mu.Unlock()

	if cancel != nil {
		m.logger.Debug("aborting in-flight save")
		cancel()
	}
}

// Reset adopts values as the new baseline and discards all pending state
// and undo history. Use it after loading a fresh record.
func (m *Manager) Reset(values map[string]any) {
	m.mu.Lock()
	m.baseline.Replace(values)
	version := m.baseline.Version()
	m.disarmLocked()
	m.rearm = false
	m.mu.Unlock()

	m.pending.Clear()
	m.history.Clear()
	m.logger.Debug("baseline reset", "version", version)
}

// Undo reverts the most recent edit transaction and marks the touched
// paths dirty again.
func (m *Manager) Undo() error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	_, err := m.history.Undo()
	return err
}

// Redo re-applies the most recently undone edit transaction.
func (m *Manager) Redo() error {
	if m.isClosed() {
		return ErrManagerClosed
	}
	_, err := m.history.Redo()
	return err
}

// CanUndo reports whether an undoable edit exists.
func (m *Manager) CanUndo() bool { return m.history.CanUndo() }

// CanRedo reports whether a redoable edit exists.
func (m *Manager) CanRedo() bool { return m.history.CanRedo() }

// HandleKey routes a keyboard chord to undo/redo per the configured hotkey
// policy, reporting whether the chord was consumed.
func (m *Manager) HandleKey(chord string, editing bool) (bool, error) {
	if m.isClosed() {
		return false, ErrManagerClosed
	}
	return m.history.HandleKey(chord, editing)
}

// applyHistoryValue is the history writer: it pushes undo/redo values back
// into the live source and re-dirties the touched path, without recording a
// new history entry.
func (m *Manager) applyHistoryValue(path string, value any) error {
	if err := m.source.Set(path, value); err != nil {
		return err
	}
	m.noteMutation(path)
	return nil
}

// HasChanges reports whether any field diverges from the baseline.
func (m *Manager) HasChanges() bool { return m.pending.Len() > 0 }

// DirtyPaths returns the paths currently diverging from the baseline, in
// sorted order.
func (m *Manager) DirtyPaths() []string { return m.pending.Paths() }

// BaselineVersion returns the current baseline version.
func (m *Manager) BaselineVersion() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline.Version()
}

// BaselineValues returns a deep copy of the baseline snapshot.
func (m *Manager) BaselineValues() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline.Values()
}

// LastResult returns the most recent settled save outcome, or nil.
func (m *Manager) LastResult() *SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastResult
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close cancels any in-flight save, waits for it to settle, and rejects
// further operations. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.disarmLocked()
	cancel := m.cancelSave
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	m.mu.Lock()
	for m.saving {
		m.cond.Wait()
	}
	m.mu.Unlock()

	m.logger.Debug("autosave manager closed")
	return nil
}

// DefaultSelectPayload snapshots exactly the dirty fields into a nested
// payload, preserving their position in the value tree.
func DefaultSelectPayload(values map[string]any, dirty []string) Payload {
	out := make(Payload)
	for _, p := range dirty {
		if v, ok := fieldpath.Get(values, p); ok {
			fieldpath.Set(out, p, v)
		}
	}
	return out
}
