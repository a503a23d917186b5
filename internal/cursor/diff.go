package cursor

import (
	"strings"
	"unicode/utf8"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Translate carries a rune offset in oldText to the corresponding offset in
// newText using the given strategy
func Translate(strategy Strategy, oldText, newText string, offset int) int {
	if strategy == StrategyDiff {
		return DiffOffset(oldText, newText, offset)
	}
	return MapOffset(offset, utf8.RuneCountInString(oldText), utf8.RuneCountInString(newText))
}

// DiffOffset follows a caret through a line-level diff of oldText and
// newText. Lines removed or added above the caret shift it, a caret on a
// replaced line lands at the start of the replacement, and the column is
// kept when the caret's own line survives.
func DiffOffset(oldText, newText string, offset int) int {
	newLen := utf8.RuneCountInString(newText)
	if oldText == newText {
		return clamp(offset, 0, newLen)
	}

	line, col := lineCol(oldText, clamp(offset, 0, utf8.RuneCountInString(oldText)))
	edits := lineEdits(myers.ComputeEdits(span.URIFromPath("buffer"), oldText, newText))

	for _, e := range edits {
		if e.start <= line && line < e.end {
			// The caret's line was replaced
			return offsetOf(newText, e.start+shiftBefore(edits, e.start, false), 0)
		}
	}
	return offsetOf(newText, line+shiftBefore(edits, line, true), col)
}

// lineEdit is a diff hunk in zero-based old-text line coordinates: lines
// [start, end) are removed and inserted lines take their place
type lineEdit struct {
	start    int
	end      int
	inserted int
}

func lineEdits(edits []gotextdiff.TextEdit) []lineEdit {
	out := make([]lineEdit, 0, len(edits))
	for _, edit := range edits {
		out = append(out, lineEdit{
			start:    edit.Span.Start().Line() - 1,
			end:      edit.Span.End().Line() - 1,
			inserted: countLines(edit.NewText),
		})
	}
	return out
}

// shiftBefore sums the line delta of every hunk that ends at or before line.
// Pure insertions exactly at line are included only when inclusive is set.
func shiftBefore(edits []lineEdit, line int, inclusive bool) int {
	delta := 0
	for _, e := range edits {
		if e.end > line {
			continue
		}
		if !inclusive && e.start == line && e.end == line {
			continue
		}
		delta += e.inserted - (e.end - e.start)
	}
	return delta
}

// lineCol returns the zero-based line and rune column of a rune offset
func lineCol(text string, offset int) (int, int) {
	line, col := 0, 0
	i := 0
	for _, r := range text {
		if i == offset {
			break
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
		i++
	}
	return line, col
}

// offsetOf returns the rune offset of line/col in text, clamping the column
// to the line length and the line to the document
func offsetOf(text string, line, col int) int {
	if line < 0 {
		return 0
	}
	lines := strings.SplitAfter(text, "\n")
	offset := 0
	for i, l := range lines {
		length := utf8.RuneCountInString(strings.TrimSuffix(l, "\n"))
		if i == line {
			return offset + clamp(col, 0, length)
		}
		offset += utf8.RuneCountInString(l)
	}
	return offset
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
