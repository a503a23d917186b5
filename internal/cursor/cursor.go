// Package cursor translates caret and selection positions across a full
// content replacement, where absolute offsets into the old content no longer
// mean anything.
package cursor

import (
	"fmt"
	"math"
)

// Strategy selects how a text caret is carried across a replacement
type Strategy string

const (
	// StrategyFraction keeps the caret at the same relative position
	StrategyFraction Strategy = "fraction"
	// StrategyDiff follows the caret through a line diff of old and new text
	StrategyDiff Strategy = "diff"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFraction, StrategyDiff:
		return Strategy(s), nil
	case "":
		return StrategyFraction, nil
	}
	return "", fmt.Errorf("invalid cursor strategy '%s': must be one of: fraction, diff", s)
}

// Range is a selection in a surface's own coordinate space
type Range struct {
	From int
	To   int
}

// Collapsed reports whether the range is a single caret position
func (r Range) Collapsed() bool {
	return r.From == r.To
}

// Fraction expresses offset as a proportion of size. An empty document maps
// every offset to 0.
func Fraction(offset, size int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(clamp(offset, 0, size)) / float64(size)
}

// Resolve turns a fraction back into an absolute offset within [0, size]
func Resolve(fraction float64, size int) int {
	if size <= 0 || math.IsNaN(fraction) {
		return 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	return clamp(int(math.Round(fraction*float64(size))), 0, size)
}

// RelativeRange is a selection captured as fractions of the content size
type RelativeRange struct {
	From float64
	To   float64
}

// Capture records a range relative to the size of the content it lives in
func Capture(r Range, size int) RelativeRange {
	return RelativeRange{From: Fraction(r.From, size), To: Fraction(r.To, size)}
}

// Apply resolves a captured range against new content. The ends are ordered
// so that From never exceeds To.
func (rr RelativeRange) Apply(size int) Range {
	from, to := Resolve(rr.From, size), Resolve(rr.To, size)
	if from > to {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// MapRange carries a range from content of oldSize to content of newSize
func MapRange(r Range, oldSize, newSize int) Range {
	return Capture(r, oldSize).Apply(newSize)
}

// MapOffset carries a single offset from content of oldSize to newSize
func MapOffset(offset, oldSize, newSize int) int {
	return Resolve(Fraction(offset, oldSize), newSize)
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
