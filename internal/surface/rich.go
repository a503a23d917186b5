package surface

import (
	"sync"

	"github.com/gerunddev/duomark/internal/doctree"
)

// RichBuffer is an in-memory RichSurface holding a document tree and a
// selection in tree position space
type RichBuffer struct {
	mu       sync.Mutex
	tree     *doctree.Node
	from, to int
	replaces int

	edits listeners[*doctree.Node]
}

// NewRichBuffer creates a buffer holding tree. A nil tree is an empty doc.
func NewRichBuffer(tree *doctree.Node) *RichBuffer {
	if tree == nil {
		tree = doctree.Doc()
	}
	return &RichBuffer{tree: tree.Clone()}
}

// Tree returns a copy of the current document
func (b *RichBuffer) Tree() *doctree.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree.Clone()
}

// ReplaceAllContent swaps the whole document without notifying subscribers.
// The selection is clamped to the new content size.
func (b *RichBuffer) ReplaceAllContent(tree *doctree.Node) error {
	if err := doctree.Validate(tree); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tree = tree.Clone()
	b.clampSelectionLocked()
	b.replaces++
	return nil
}

// Selection returns the current selection ends
func (b *RichBuffer) Selection() (from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.from, b.to
}

// ContentSize returns the document size in tree position space
func (b *RichBuffer) ContentSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree.ContentSize()
}

// SetSelection sets the selection, ordering and clamping its ends
func (b *RichBuffer) SetSelection(from, to int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if from > to {
		from, to = to, from
	}
	b.from, b.to = from, to
	b.clampSelectionLocked()
	return nil
}

// OnUserEdit subscribes to user edits
func (b *RichBuffer) OnUserEdit(fn func(tree *doctree.Node)) func() {
	return b.edits.add(fn)
}

// Edit replaces the document as the user would and notifies subscribers
func (b *RichBuffer) Edit(tree *doctree.Node) {
	if tree == nil {
		tree = doctree.Doc()
	}
	b.mu.Lock()
	b.tree = tree.Clone()
	b.clampSelectionLocked()
	b.mu.Unlock()

	b.edits.notify(tree.Clone())
}

// Replaces counts programmatic replacements
func (b *RichBuffer) Replaces() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaces
}

// Subscribers returns the number of live subscriptions
func (b *RichBuffer) Subscribers() int {
	return b.edits.len()
}

func (b *RichBuffer) clampSelectionLocked() {
	size := b.tree.ContentSize()
	b.from = clamp(b.from, 0, size)
	b.to = clamp(b.to, 0, size)
}
