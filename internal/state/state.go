package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Direction is one of the two sync directions of an editor pair
type Direction int

const (
	// ToTree carries text edits into the rich surface
	ToTree Direction = iota
	// ToLinear carries tree edits into the text surface
	ToLinear
)

func (d Direction) String() string {
	switch d {
	case ToTree:
		return "linear->tree"
	case ToLinear:
		return "tree->linear"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Source names the surface an update comes from
func (d Direction) Source() Source {
	if d == ToTree {
		return FromLinear
	}
	return FromTree
}

// Phase of one sync direction: idle -> debouncing -> applying -> idle
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseApplying   Phase = "applying"
)

// Source is the surface with an outstanding debounced update
type Source string

const (
	SourceNone Source = "none"
	FromLinear Source = "linear"
	FromTree   Source = "tree"
)

// Outcome is the result of one sync attempt
type Outcome string

const (
	// OutcomeApplied means the target surface was replaced
	OutcomeApplied Outcome = "applied"
	// OutcomeUnchanged means the result matched the target and no replace was needed
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped means the attempt was abandoned before it started
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the attempt failed and the surfaces may have diverged
	OutcomeFailed Outcome = "failed"
)

// DirectionState is the state and counters of one sync direction
type DirectionState struct {
	Phase     Phase     `json:"phase"`
	Applied   int       `json:"applied"`
	Unchanged int       `json:"unchanged"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	LastError string    `json:"last_error,omitempty"`
	LastSync  time.Time `json:"last_sync,omitempty"`
}

// Attempts is the total number of finished sync attempts
func (d DirectionState) Attempts() int {
	return d.Applied + d.Unchanged + d.Skipped + d.Failed
}

// Snapshot is a point-in-time copy of an editor pair's sync state
type Snapshot struct {
	ID         string         `json:"id"`
	Pending    Source         `json:"pending"`
	Suppressed bool           `json:"suppressed"`
	Closed     bool           `json:"closed"`
	ToTree     DirectionState `json:"to_tree"`
	ToLinear   DirectionState `json:"to_linear"`
	TextHash   string         `json:"text_hash,omitempty"`
}

// Direction returns the state of one direction
func (s Snapshot) Direction(d Direction) DirectionState {
	if d == ToTree {
		return s.ToTree
	}
	return s.ToLinear
}

// Idle reports whether nothing is pending or in flight
func (s Snapshot) Idle() bool {
	return s.Pending == SourceNone && !s.Suppressed &&
		s.ToTree.Phase == PhaseIdle && s.ToLinear.Phase == PhaseIdle
}

// JSON renders the snapshot for display
func (s Snapshot) JSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	return string(data), nil
}

// Tracker records the sync state of one editor pair. It is in-memory only.
type Tracker struct {
	mu       sync.Mutex
	id       string
	pending  Source
	dirs     [2]DirectionState
	textHash string
	closed   bool
}

// NewTracker creates an idle tracker for the pair identified by id
func NewTracker(id string) *Tracker {
	t := &Tracker{id: id, pending: SourceNone}
	t.dirs[ToTree].Phase = PhaseIdle
	t.dirs[ToLinear].Phase = PhaseIdle
	return t
}

// Debouncing marks d as waiting for its quiet period
func (t *Tracker) Debouncing(d Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[d].Phase = PhaseDebouncing
	t.pending = d.Source()
}

// Applying marks d as in flight
func (t *Tracker) Applying(d Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[d].Phase = PhaseApplying
	t.settlePendingLocked(d)
}

// Cancel returns d to idle without recording an attempt
func (t *Tracker) Cancel(d Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirs[d].Phase = PhaseIdle
	t.settlePendingLocked(d)
}

// Finish records the outcome of an attempt and returns d to idle. text is
// the content both surfaces agree on after a successful attempt.
func (t *Tracker) Finish(d Direction, outcome Outcome, err error, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ds := &t.dirs[d]
	// A newer edit may already have restarted the debounce
	if ds.Phase == PhaseApplying {
		ds.Phase = PhaseIdle
	}
	switch outcome {
	case OutcomeApplied:
		ds.Applied++
	case OutcomeUnchanged:
		ds.Unchanged++
	case OutcomeSkipped:
		ds.Skipped++
	case OutcomeFailed:
		ds.Failed++
	}
	if err != nil {
		ds.LastError = err.Error()
	}
	if outcome == OutcomeApplied || outcome == OutcomeUnchanged {
		ds.LastSync = time.Now()
		t.textHash = Hash(text)
	}
}

// Close marks the pair disposed and clears any pending or in-flight state
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.pending = SourceNone
	t.dirs[ToTree].Phase = PhaseIdle
	t.dirs[ToLinear].Phase = PhaseIdle
}

// Snapshot copies the current state
func (t *Tracker) Snapshot(suppressed bool) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:         t.id,
		Pending:    t.pending,
		Suppressed: suppressed,
		Closed:     t.closed,
		ToTree:     t.dirs[ToTree],
		ToLinear:   t.dirs[ToLinear],
		TextHash:   t.textHash,
	}
}

func (t *Tracker) settlePendingLocked(d Direction) {
	if t.pending != d.Source() {
		return
	}
	t.pending = SourceNone
	other := ToLinear
	if d == ToLinear {
		other = ToTree
	}
	if t.dirs[other].Phase == PhaseDebouncing {
		t.pending = other.Source()
	}
}

// Hash computes the SHA256 hash of synced text
func Hash(text string) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(text)))
}
