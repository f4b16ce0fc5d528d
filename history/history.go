// Package history records reversible patches grouped into transactions and
// replays them for linear undo/redo.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNothingToUndo is returned when the past stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned when the future stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Patch is one field-level change: the path plus its before/after values.
type Patch struct {
	Name string `json:"name"`
	Prev any    `json:"prev_value"`
	Next any    `json:"next_value"`
}

// Entry is an ordered group of patches undone and redone atomically.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Patches []Patch   `json:"patches"`
}

// Writer applies a single value back to the live value source.
type Writer func(path string, value any) error

// Config configures a History.
type Config struct {
	// Writer receives every value written during undo/redo. Required.
	Writer Writer

	// MaxDepth bounds the past stack; 0 means unbounded. The oldest entry
	// is dropped when the bound is exceeded.
	MaxDepth int

	// Hotkeys gates keyboard-shortcut handling via HandleKey.
	Hotkeys HotkeyPolicy
}

// HotkeyPolicy controls whether undo/redo shortcuts are honored, and whether
// they stay active while an editable input holds focus.
type HotkeyPolicy struct {
	Enable            bool
	AllowWhileEditing bool
}

// History is a linear undo stack: new edits invalidate the redo side. It is
// safe for concurrent use.
type History struct {
	mu     sync.Mutex
	writer Writer
	cfg    Config
	past   []Entry
	future []Entry
}

// New creates a History. A nil writer makes undo/redo no-ops that still
// maintain the stacks, which is occasionally useful in tests.
func New(cfg Config) *History {
	writer := cfg.Writer
	if writer == nil {
		writer = func(string, any) error { return nil }
	}
	return &History{writer: writer, cfg: cfg}
}

// Record commits one transaction of patches: pushed onto the past stack,
// clearing any redo history. Empty transactions are ignored.
func (h *History) Record(patches ...Patch) *Entry {
	if len(patches) == 0 {
		return nil
	}

	entry := Entry{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Patches: append([]Patch(nil), patches...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.past = append(h.past, entry)
	h.future = nil

	if h.cfg.MaxDepth > 0 && len(h.past) > h.cfg.MaxDepth {
		h.past = h.past[len(h.past)-h.cfg.MaxDepth:]
	}

	return &entry
}

// Undo pops the most recent transaction, writes each patch's previous value
// back in reverse order, and moves the entry onto the redo stack.
func (h *History) Undo() (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.past) == 0 {
		return nil, ErrNothingToUndo
	}

	entry := h.past[len(h.past)-1]
	for i := len(entry.Patches) - 1; i >= 0; i-- {
		p := entry.Patches[i]
		if err := h.writer(p.Name, p.Prev); err != nil {
			return nil, err
		}
	}

	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, entry)
	return &entry, nil
}

// Redo pops the most recent undone transaction, writes each patch's next
// value forward, and moves the entry back onto the past stack.
func (h *History) Redo() (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.future) == 0 {
		return nil, ErrNothingToRedo
	}

	entry := h.future[len(h.future)-1]
	for _, p := range entry.Patches {
		if err := h.writer(p.Name, p.Next); err != nil {
			return nil, err
		}
	}

	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, entry)
	return &entry, nil
}

// CanUndo reports whether the past stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0
}

// CanRedo reports whether the future stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0
}

// Depths returns the past and future stack sizes.
func (h *History) Depths() (past, future int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past), len(h.future)
}

// Clear drops both stacks, e.g. after an explicit baseline reset.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.past = nil
	h.future = nil
}

// HandleKey maps a keyboard chord to undo/redo, honoring the configured
// hotkey policy. editing indicates an editable input currently holds focus.
// It reports whether the chord was consumed.
func (h *History) HandleKey(chord string, editing bool) (bool, error) {
	policy := h.cfg.Hotkeys
	if !policy.Enable {
		return false, nil
	}
	if editing && !policy.AllowWhileEditing {
		return false, nil
	}

	switch chord {
	case "ctrl+z", "cmd+z":
		_, err := h.Undo()
		if errors.Is(err, ErrNothingToUndo) {
			return true, nil
		}
		return true, err
	case "ctrl+y", "ctrl+shift+z", "cmd+shift+z":
		_, err := h.Redo()
		if errors.Is(err, ErrNothingToRedo) {
			return true, nil
		}
		return true, err
	}
	return false, nil
}
