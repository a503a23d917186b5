package diff

import (
	"strings"
	"testing"

	"github.com/gerunddev/duomark/internal/transcode"
)

func TestRoundtripReport(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantDrift bool
	}{
		{name: "settled", input: "# Title\n\nHello\n", wantDrift: false},
		{name: "setext heading", input: "Title\n=====\n\n* a\n* b\n", wantDrift: true},
	}

	md := transcode.NewMarkdown()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Roundtrip(md, "note.md", tt.input)
			if err != nil {
				t.Fatalf("Roundtrip() error = %v", err)
			}
			if r.Drift() != tt.wantDrift {
				t.Errorf("Drift() = %v, want %v (normalized %q)", r.Drift(), tt.wantDrift, r.Normalized)
			}
			if !r.Stable {
				t.Error("expected the normalized text to parse back to the same tree")
			}
			if tt.wantDrift && !strings.Contains(r.Unified, "+# Title") {
				t.Errorf("Unified diff missing normalized heading:\n%s", r.Unified)
			}
			if !tt.wantDrift && r.Unified != "" {
				t.Errorf("Unified = %q, want empty", r.Unified)
			}
		})
	}
}

func TestRoundtripParseFailure(t *testing.T) {
	_, err := Roundtrip(transcode.NewMarkdown(), "bad.md", "---\nkey: [\n---\n")
	if err == nil {
		t.Fatal("expected error for malformed front matter")
	}
	if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error %q should name the document", err)
	}
}

func TestUnified(t *testing.T) {
	out := Unified("a", "b", "one\ntwo\n", "one\n2\n")
	for _, want := range []string{"--- a", "+++ b", "-two", "+2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Unified() missing %q:\n%s", want, out)
		}
	}
	if Unified("a", "b", "same", "same") != "" {
		t.Error("Unified() of equal texts should be empty")
	}
}

func TestRenderFallsBackToSource(t *testing.T) {
	out := Render("-a\n+b\n", "notty", 80)
	if !strings.Contains(out, "a") || !strings.Contains(out, "b") {
		t.Errorf("Render() lost content: %q", out)
	}
}
