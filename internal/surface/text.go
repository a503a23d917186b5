package surface

import (
	"sync"
	"unicode/utf8"
)

// TextBuffer is an in-memory TextSurface. Edit simulates the user typing;
// ReplaceAllText is the programmatic path and stays silent.
type TextBuffer struct {
	mu       sync.Mutex
	text     string
	caret    int
	replaces int
	scrolls  []bool

	edits listeners[string]
}

// NewTextBuffer creates a buffer holding text with the caret at the start
func NewTextBuffer(text string) *TextBuffer {
	return &TextBuffer{text: text}
}

// Text returns the current content
func (b *TextBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Len returns the content length in runes
func (b *TextBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return utf8.RuneCountInString(b.text)
}

// ReplaceAllText swaps the whole content without notifying subscribers.
// The caret is clamped to the new length.
func (b *TextBuffer) ReplaceAllText(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.text = text
	b.caret = clamp(b.caret, 0, utf8.RuneCountInString(text))
	b.replaces++
	return nil
}

// CursorOffset returns the caret as a rune offset
func (b *TextBuffer) CursorOffset() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caret
}

// SetCursorOffset moves the caret, clamped to the content. Each call records
// whether the view was asked to scroll.
func (b *TextBuffer) SetCursorOffset(offset int, scrollIntoView bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.caret = clamp(offset, 0, utf8.RuneCountInString(b.text))
	b.scrolls = append(b.scrolls, scrollIntoView)
	return nil
}

// OnUserEdit subscribes to user edits
func (b *TextBuffer) OnUserEdit(fn func(text string)) func() {
	return b.edits.add(fn)
}

// Edit replaces the content as the user would, placing the caret and
// notifying subscribers
func (b *TextBuffer) Edit(text string, caret int) {
	b.mu.Lock()
	b.text = text
	b.caret = clamp(caret, 0, utf8.RuneCountInString(text))
	b.mu.Unlock()

	b.edits.notify(text)
}

// Replaces counts programmatic replacements
func (b *TextBuffer) Replaces() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replaces
}

// ScrollRequests returns the scrollIntoView flag of every SetCursorOffset call
func (b *TextBuffer) ScrollRequests() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.scrolls...)
}

// Subscribers returns the number of live subscriptions
func (b *TextBuffer) Subscribers() int {
	return b.edits.len()
}

// LineColumn returns the one-based line and column of the caret
func (b *TextBuffer) LineColumn() (line, col int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return LineColumn(b.text, b.caret)
}

// LineColumn returns the one-based line and column of a rune offset in text
func LineColumn(text string, offset int) (line, col int) {
	line, col = 1, 1
	i := 0
	for _, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i++
	}
	return line, col
}
