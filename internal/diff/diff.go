package diff

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/duomark/internal/doctree"
	"github.com/gerunddev/duomark/internal/transcode"
)

// Report describes how a document changes across one parse and serialize
// cycle
type Report struct {
	Name       string
	Original   string
	Normalized string
	// Unified is the unified diff from Original to Normalized, empty when
	// they are identical
	Unified string
	// Stable reports whether parsing the normalized text gives back the
	// same tree as parsing the original
	Stable bool
	Tree   *doctree.Node
}

// Drift reports whether serialization changed the text at all
func (r *Report) Drift() bool {
	return r.Original != r.Normalized
}

// Roundtrip parses text, serializes the tree and parses the result again
func Roundtrip(tc transcode.Transcoder, name, text string) (*Report, error) {
	tree, err := tc.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	normalized, err := tc.Serialize(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	again, err := tc.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to reparse %s: %w", name, err)
	}

	return &Report{
		Name:       name,
		Original:   text,
		Normalized: normalized,
		Unified:    Unified(name, name+" (normalized)", text, normalized),
		Stable:     doctree.Equal(tree, again),
		Tree:       tree,
	}, nil
}

// Unified returns a unified diff of two texts, or "" when they are equal
func Unified(oldName, newName, oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(oldName), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified(oldName, newName, oldText, edits))
}

// Render renders a unified diff for the terminal. style is a glamour style
// name or "auto". Rendering failures fall back to the plain fenced diff.
func Render(unified, style string, width int) string {
	// Wrap in markdown diff code fence
	diffMarkdown := fmt.Sprintf("```diff\n%s```\n", unified)
	return RenderMarkdown(diffMarkdown, style, width)
}

// RenderMarkdown renders markdown for the terminal, returning the source
// unchanged if glamour cannot render it
func RenderMarkdown(markdown, style string, width int) string {
	renderer, err := NewRenderer(style, width)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return rendered
}

// NewRenderer builds a glamour renderer for a style name
func NewRenderer(style string, width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = 120
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	return glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
}
