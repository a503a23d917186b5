// Package surface defines the two editing surfaces the sync core mediates
// between, along with in-memory and file-backed implementations.
//
// A surface reports user edits to its subscribers and accepts programmatic
// replacement of its whole content. Programmatic replacement never produces
// a user-edit notification.
package surface

import (
	"slices"
	"sync"

	"github.com/gerunddev/duomark/internal/doctree"
)

// TextSurface is a plain-text editor holding linear markdown and a caret
// expressed as a rune offset
type TextSurface interface {
	Text() string
	ReplaceAllText(text string) error
	CursorOffset() int
	SetCursorOffset(offset int, scrollIntoView bool) error
	OnUserEdit(fn func(text string)) (unsubscribe func())
}

// RichSurface is a structured editor holding a document tree and a selection
// in tree position space
type RichSurface interface {
	Tree() *doctree.Node
	ReplaceAllContent(tree *doctree.Node) error
	Selection() (from, to int)
	ContentSize() int
	SetSelection(from, to int) error
	OnUserEdit(fn func(tree *doctree.Node)) (unsubscribe func())
}

// listeners is a set of subscriber callbacks. Callbacks are invoked without
// the lock held so they may call back into the surface.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[T]) notify(v T) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	// Subscription order
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
