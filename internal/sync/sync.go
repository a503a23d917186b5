// Package sync keeps a text surface and a rich surface showing the same
// document. Edits on either side are debounced, transcoded and pushed into
// the other side with the caret carried over.
package sync

import (
	gosync "sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gerunddev/duomark/internal/config"
	"github.com/gerunddev/duomark/internal/cursor"
	"github.com/gerunddev/duomark/internal/debounce"
	"github.com/gerunddev/duomark/internal/doctree"
	"github.com/gerunddev/duomark/internal/logger"
	"github.com/gerunddev/duomark/internal/state"
	"github.com/gerunddev/duomark/internal/surface"
	"github.com/gerunddev/duomark/internal/transcode"
)

// Event describes one finished sync attempt
type Event struct {
	PairID    string
	Direction state.Direction
	Kind      state.Outcome
	Err       error
	Duration  time.Duration
	// Size is the target's new length: runes for text, positions for a tree
	Size int
}

// Option configures a Syncer
type Option func(*Syncer)

// WithDelay sets the debounce quiet period
func WithDelay(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStrategy sets how the text caret is carried across a replace
func WithStrategy(strategy cursor.Strategy) Option {
	return func(s *Syncer) {
		s.strategy = strategy
	}
}

// WithExecutor runs every sync attempt through exec, for example to move it
// onto a UI-owned goroutine. By default attempts run on the timer goroutine.
func WithExecutor(exec func(func())) Option {
	return func(s *Syncer) {
		s.exec = exec
	}
}

// WithObserver receives an Event after every attempt. It is called without
// any Syncer lock held.
func WithObserver(fn func(Event)) Option {
	return func(s *Syncer) {
		s.observer = fn
	}
}

// Syncer mediates between one text surface and one rich surface
type Syncer struct {
	id       string
	text     surface.TextSurface
	rich     surface.RichSurface
	tc       transcode.Transcoder
	delay    time.Duration
	strategy cursor.Strategy
	log      *logger.Logger
	exec     func(func())
	observer func(Event)

	sched   *debounce.Scheduler
	tracker *state.Tracker

	// mu serializes the apply critical sections
	mu gosync.Mutex
	// suppressed holds the direction being applied plus one, or zero. While
	// it is set the target surface is being written programmatically. Change
	// notifications read it without taking mu.
	suppressed atomic.Int32
	closed     atomic.Bool

	unsubscribe []func()
	closeOnce   gosync.Once
}

// NewSyncer wires text and rich together and subscribes to both
func NewSyncer(text surface.TextSurface, rich surface.RichSurface, tc transcode.Transcoder, opts ...Option) *Syncer {
	s := &Syncer{
		id:       uuid.NewString(),
		text:     text,
		rich:     rich,
		tc:       tc,
		delay:    config.DefaultDebounce,
		strategy: cursor.StrategyFraction,
		log:      logger.Discard(),
		sched:    debounce.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = state.NewTracker(s.id)
	s.log = s.log.With("pair", s.id[:8])

	s.unsubscribe = append(s.unsubscribe,
		text.OnUserEdit(s.OnLinearChanged),
		rich.OnUserEdit(s.OnTreeChanged),
	)
	return s
}

// ID identifies the editor pair
func (s *Syncer) ID() string {
	return s.id
}

// Suppressed reports whether a programmatic update is in flight
func (s *Syncer) Suppressed() bool {
	return s.suppressed.Load() != 0
}

// Snapshot returns the current sync state
func (s *Syncer) Snapshot() state.Snapshot {
	return s.tracker.Snapshot(s.Suppressed())
}

// OnLinearChanged schedules a text to tree sync for a user edit of the text
// surface. A later call within the quiet period replaces this one. Calls made
// while the text surface itself is being written are ignored.
func (s *Syncer) OnLinearChanged(text string) {
	if s.closed.Load() || s.writing(state.ToLinear) {
		return
	}
	s.schedule(state.ToTree, func() { s.applyToTree(text) })
}

// OnTreeChanged schedules a tree to text sync for a user edit of the rich
// surface
func (s *Syncer) OnTreeChanged(tree *doctree.Node) {
	if s.closed.Load() || s.writing(state.ToTree) {
		return
	}
	s.schedule(state.ToLinear, func() { s.applyToLinear(tree) })
}

// writing reports whether an apply in direction d, and so a write to d's
// target surface, is in flight
func (s *Syncer) writing(d state.Direction) bool {
	return s.suppressed.Load() == int32(d)+1
}

func (s *Syncer) schedule(d state.Direction, apply func()) {
	s.tracker.Debouncing(d)
	ok := s.sched.Schedule(d.String(), s.delay, func() {
		s.run(apply)
	})
	if !ok {
		s.tracker.Cancel(d)
		return
	}
	s.log.SyncScheduled(d.String(), s.delay)
}

func (s *Syncer) run(fn func()) {
	if s.exec != nil {
		s.exec(fn)
		return
	}
	fn()
}

// Flush runs any pending sync immediately instead of waiting for its quiet
// period. It reports whether anything ran. While an update is being applied
// Flush does nothing and pending timers keep running.
func (s *Syncer) Flush() bool {
	if s.Suppressed() {
		return false
	}
	toTree := s.sched.Flush(state.ToTree.String())
	toLinear := s.sched.Flush(state.ToLinear.String())
	return toTree || toLinear
}

// Close disposes the pair: pending syncs are cancelled, both surfaces are
// unsubscribed and the suppression flag is cleared. Nothing syncs after
// Close returns. Close is idempotent.
func (s *Syncer) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		pending := s.sched.Pending(state.ToTree.String()) || s.sched.Pending(state.ToLinear.String())
		s.sched.Stop()
		for _, unsubscribe := range s.unsubscribe {
			unsubscribe()
		}

		// Wait out an attempt that is already inside its critical section
		s.mu.Lock()
		s.suppressed.Store(0)
		s.mu.Unlock()

		s.tracker.Close()
		s.log.Disposed(pending)
	})
}

// applyToTree parses text and replaces the rich surface's content with it,
// carrying the selection over as fractions of the content size
func (s *Syncer) applyToTree(text string) {
	s.apply(state.ToTree, func() attempt {
		return s.syncTree(text)
	})
}

// applyToLinear serializes tree and replaces the text surface's content with
// it, moving the caret without scrolling
func (s *Syncer) applyToLinear(tree *doctree.Node) {
	s.apply(state.ToLinear, func() attempt {
		return s.syncText(tree)
	})
}

// attempt is what a critical section reports back
type attempt struct {
	outcome state.Outcome
	size    int
	// agreed is the text both surfaces hold after success
	agreed string
	err    error
}

func (s *Syncer) apply(d state.Direction, critical func() attempt) {
	if s.closed.Load() {
		s.tracker.Cancel(d)
		s.log.SyncSkipped(d.String(), "disposed")
		return
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		s.tracker.Cancel(d)
		s.log.SyncSkipped(d.String(), "disposed")
		return
	}
	if !s.suppressed.CompareAndSwap(0, int32(d)+1) {
		s.mu.Unlock()
		s.tracker.Cancel(d)
		s.finish(Event{Direction: d, Kind: state.OutcomeSkipped}, "", "sync in flight")
		return
	}

	s.tracker.Applying(d)
	start := time.Now()
	res := critical()
	s.mu.Unlock()

	s.finish(Event{
		Direction: d,
		Kind:      res.outcome,
		Err:       res.err,
		Duration:  time.Since(start),
		Size:      res.size,
	}, res.agreed, "")
}

func (s *Syncer) finish(ev Event, agreed, reason string) {
	ev.PairID = s.id
	s.tracker.Finish(ev.Direction, ev.Kind, ev.Err, agreed)

	switch ev.Kind {
	case state.OutcomeApplied:
		s.log.SyncApplied(ev.Direction.String(), ev.Size, ev.Duration)
	case state.OutcomeUnchanged:
		s.log.SyncSkipped(ev.Direction.String(), "unchanged")
	case state.OutcomeSkipped:
		s.log.SyncSkipped(ev.Direction.String(), reason)
	case state.OutcomeFailed:
		s.log.SyncFailed(ev.Direction.String(), ev.Err)
	}

	if s.observer != nil {
		s.observer(ev)
	}
}

// release clears the suppression flag and converts a panic or error into a
// failed attempt. It is deferred by both critical sections.
func (s *Syncer) release(d state.Direction, res *attempt) {
	defer s.suppressed.Store(0)
	recoverSync(d, &res.err, recover())
	if res.err != nil {
		res.outcome = state.OutcomeFailed
		res.agreed = ""
	}
}

// syncTree is the text to tree critical section. The caller has set the
// suppression flag.
func (s *Syncer) syncTree(text string) (res attempt) {
	defer s.release(state.ToTree, &res)

	from, to := s.rich.Selection()
	rel := cursor.Capture(cursor.Range{From: from, To: to}, s.rich.ContentSize())

	tree, err := s.tc.Parse(text)
	if err != nil {
		return attempt{err: &SyncError{Direction: state.ToTree, Op: "parse", Err: err}}
	}
	if err := s.rich.ReplaceAllContent(tree); err != nil {
		return attempt{err: &SyncError{Direction: state.ToTree, Op: "replace tree", Err: err}}
	}

	size := s.rich.ContentSize()
	sel := rel.Apply(size)
	if err := s.rich.SetSelection(sel.From, sel.To); err != nil {
		return attempt{size: size, err: &SyncError{Direction: state.ToTree, Op: "set selection", Err: err}}
	}
	return attempt{outcome: state.OutcomeApplied, size: size, agreed: text}
}

// syncText is the tree to text critical section
func (s *Syncer) syncText(tree *doctree.Node) (res attempt) {
	defer s.release(state.ToLinear, &res)

	oldText := s.text.Text()
	offset := s.text.CursorOffset()

	newText, err := s.tc.Serialize(tree)
	if err != nil {
		return attempt{err: &SyncError{Direction: state.ToLinear, Op: "serialize", Err: err}}
	}

	size := utf8.RuneCountInString(newText)
	if newText == oldText {
		return attempt{outcome: state.OutcomeUnchanged, size: size, agreed: newText}
	}

	if err := s.text.ReplaceAllText(newText); err != nil {
		return attempt{err: &SyncError{Direction: state.ToLinear, Op: "replace text", Err: err}}
	}

	caret := cursor.Translate(s.strategy, oldText, newText, offset)
	if err := s.text.SetCursorOffset(caret, false); err != nil {
		return attempt{size: size, err: &SyncError{Direction: state.ToLinear, Op: "set cursor", Err: err}}
	}
	return attempt{outcome: state.OutcomeApplied, size: size, agreed: newText}
}
