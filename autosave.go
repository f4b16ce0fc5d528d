// Package autosave provides a client-side autosave orchestration engine for
// continuously-mutating structured records. It decides when to persist
// changes, what subset to send, how to retry and recover from transport
// failures, and how to undo/redo edits, without ever blocking the caller's
// input loop. Storage backends and wire transports are pluggable behind the
// Transport contract.
package autosave

import (
	"context"
	"time"
)

// Payload is the data handed to a transport for one save attempt: a mapping
// from field name to value. It is produced fresh per attempt and must be
// treated as immutable once handed over.
type Payload = map[string]any

// SaveContext carries ancillary per-attempt data. Cancellation rides on the
// context.Context passed alongside it.
type SaveContext struct {
	// Timestamp is when this attempt started.
	Timestamp time.Time

	// RetryCount starts at 0 and is incremented for every retry of the
	// same logical save.
	RetryCount int

	// AttemptID identifies the logical save this attempt belongs to.
	AttemptID string
}

// withAttempt returns a copy describing retry attempt n of the same logical
// save, leaving the receiver untouched.
func (sc *SaveContext) withAttempt(n int, now time.Time) *SaveContext {
	out := &SaveContext{Timestamp: now, RetryCount: n}
	if sc != nil {
		out.AttemptID = sc.AttemptID
		out.RetryCount = sc.RetryCount + n
	}
	return out
}

// SaveResult is the settled outcome of a save: either OK with optional
// version metadata, or a failure carrying the error. Exactly one variant is
// populated.
type SaveResult struct {
	OK       bool           `json:"ok"`
	Version  string         `json:"version,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Err      error          `json:"-"`
}

// Success builds an OK result.
func Success(version string) *SaveResult {
	return &SaveResult{OK: true, Version: version}
}

// Failure builds a failed result.
func Failure(err error) *SaveResult {
	return &SaveResult{OK: false, Err: err}
}

// Transport is the abstract persistence capability the engine calls to
// actually save data. Any implementation is interchangeable: an HTTP client,
// a local store, a composed pipeline. Returning an error and returning a
// result with OK == false are equivalent failure signals.
type Transport interface {
	Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error)

// Save implements Transport.
func (f TransportFunc) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	return f(ctx, payload, sc)
}

// ValueSource supplies the live field values and the mutation entry point
// used by undo/redo. It is implemented by the caller's form-state layer.
type ValueSource interface {
	// Snapshot returns the current field values. The manager treats the
	// returned structure as read-only.
	Snapshot() map[string]any

	// Set writes one field value back into the live state, addressed by
	// dot/bracket path notation.
	Set(path string, value any) error
}

// SaveState is the view handed to the save-gate predicate when a debounce
// window settles.
type SaveState struct {
	// Values is the live snapshot at gate-evaluation time.
	Values map[string]any

	// DirtyPaths are the field paths marked dirty since the baseline, in
	// sorted order.
	DirtyPaths []string

	// BaselineVersion identifies the snapshot the dirty markers compare
	// against.
	BaselineVersion uint64

	// LastResult is the previous settled save outcome, if any.
	LastResult *SaveResult
}

// ShouldSaveFunc is the save-gate predicate evaluated when the debounce
// timer fires. Returning false skips the cycle without side effects.
type ShouldSaveFunc func(state *SaveState) bool

// SelectPayloadFunc builds the payload for one save attempt from the live
// values and the dirty path set. The default selector snapshots exactly the
// dirty fields.
type SelectPayloadFunc func(values map[string]any, dirty []string) Payload

// ValidatorFunc checks a candidate payload before transport. A non-nil
// error short-circuits the cycle; the failure is reported through the same
// completion channel as transport errors.
type ValidatorFunc func(payload Payload) error

// OnSavedFunc receives every settled save outcome: success, validation
// failure, transport exhaustion, or cancellation.
type OnSavedFunc func(result *SaveResult)
