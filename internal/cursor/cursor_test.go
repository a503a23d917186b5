package cursor

import (
	"math"
	"testing"
)

func TestFraction(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		size   int
		want   float64
	}{
		{name: "middle", offset: 5, size: 10, want: 0.5},
		{name: "start", offset: 0, size: 10, want: 0},
		{name: "end", offset: 10, size: 10, want: 1},
		{name: "empty document", offset: 0, size: 0, want: 0},
		{name: "offset past end", offset: 15, size: 10, want: 1},
		{name: "negative offset", offset: -3, size: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fraction(tt.offset, tt.size); got != tt.want {
				t.Errorf("Fraction(%d, %d) = %v, want %v", tt.offset, tt.size, got, tt.want)
			}
		})
	}
}

func TestMapOffsetHalfway(t *testing.T) {
	// Caret at 5 of 10 lands at 10 of 20
	if got := MapOffset(5, 10, 20); got != 10 {
		t.Errorf("MapOffset(5, 10, 20) = %d, want 10", got)
	}
}

func TestResolveAlwaysInBounds(t *testing.T) {
	fractions := []float64{0, 0.001, 0.25, 0.333, 0.5, 0.999, 1, -0.5, 1.5, math.Inf(1), math.Inf(-1), math.NaN()}

	for size := 0; size <= 64; size++ {
		for _, from := range fractions {
			for _, to := range fractions {
				r := RelativeRange{From: from, To: to}.Apply(size)
				if r.From < 0 || r.From > size || r.To < 0 || r.To > size {
					t.Fatalf("Apply(%v, %v) against size %d = %+v, out of bounds", from, to, size, r)
				}
				if r.From > r.To {
					t.Fatalf("Apply(%v, %v) against size %d = %+v, ends out of order", from, to, size, r)
				}
			}
		}
	}
}

func TestMapRange(t *testing.T) {
	tests := []struct {
		name    string
		r       Range
		oldSize int
		newSize int
		want    Range
	}{
		{name: "collapsed grows", r: Range{From: 5, To: 5}, oldSize: 10, newSize: 20, want: Range{From: 10, To: 10}},
		{name: "range shrinks", r: Range{From: 2, To: 8}, oldSize: 10, newSize: 5, want: Range{From: 1, To: 4}},
		{name: "from empty", r: Range{From: 0, To: 0}, oldSize: 0, newSize: 30, want: Range{From: 0, To: 0}},
		{name: "to empty", r: Range{From: 3, To: 9}, oldSize: 10, newSize: 0, want: Range{From: 0, To: 0}},
		{name: "rounds half up", r: Range{From: 1, To: 1}, oldSize: 4, newSize: 10, want: Range{From: 3, To: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapRange(tt.r, tt.oldSize, tt.newSize)
			if got != tt.want {
				t.Errorf("MapRange() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRangeCollapsed(t *testing.T) {
	if !(Range{From: 3, To: 3}).Collapsed() {
		t.Error("equal ends should be collapsed")
	}
	if (Range{From: 3, To: 4}).Collapsed() {
		t.Error("distinct ends should not be collapsed")
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{input: "fraction", want: StrategyFraction},
		{input: "diff", want: StrategyDiff},
		{input: "", want: StrategyFraction},
		{input: "nearest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
