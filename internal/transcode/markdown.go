package transcode

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/duomark/internal/doctree"
)

// Markdown is the goldmark-backed Transcoder. It is safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a markdown transcoder with GFM strikethrough and task
// list support
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.TaskList,
			),
		),
	}
}

// Parse converts markdown text into a document tree
func (m *Markdown) Parse(text string) (tree *doctree.Node, err error) {
	defer recoverInto(&err, func(cause error) error { return &ParseError{Err: cause} })

	frontMatter, body, err := splitFrontMatter(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	source := []byte(body)
	root := m.md.Parser().Parse(gtext.NewReader(source))

	b := &treeBuilder{source: source}
	doc := doctree.Doc(b.blocks(root)...)
	if frontMatter != "" {
		doc.WithAttr(doctree.AttrFrontMatter, frontMatter)
	}
	return doc, nil
}

// splitFrontMatter separates a leading YAML mapping delimited by --- lines
// from the markdown body. A block that is not a mapping is left in the body.
func splitFrontMatter(text string) (frontMatter, body string, err error) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return "", text, nil
	}

	rest := normalized[len("---\n"):]
	off := 0
	for off <= len(rest) {
		end := strings.IndexByte(rest[off:], '\n')
		next := len(rest)
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}

		if trimmed := strings.TrimRight(line, " \t"); trimmed == "---" || trimmed == "..." {
			raw := rest[:off]
			if strings.TrimSpace(raw) == "" {
				return "", text, nil
			}

			var node yaml.Node
			if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
				return "", "", fmt.Errorf("invalid front matter: %w", err)
			}
			if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
				return "", text, nil
			}

			out, err := yaml.Marshal(node.Content[0])
			if err != nil {
				return "", "", fmt.Errorf("failed to normalize front matter: %w", err)
			}
			return string(out), rest[next:], nil
		}

		if end < 0 {
			break
		}
		off = next
	}

	// No closing delimiter: the leading --- is an ordinary thematic break
	return "", text, nil
}

// treeBuilder walks a goldmark AST into a doctree
type treeBuilder struct {
	source    []byte
	inHeading bool
}

func (b *treeBuilder) blocks(parent ast.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := b.block(c); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (b *treeBuilder) block(n ast.Node) *doctree.Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		children := b.inlines(n)
		// Link reference definitions leave a paragraph with no lines behind
		if len(children) == 0 && (n.Lines() == nil || n.Lines().Len() == 0) {
			return nil
		}
		return doctree.Paragraph(children...)

	case *ast.Heading:
		b.inHeading = true
		children := b.inlines(n)
		b.inHeading = false
		return doctree.Heading(n.Level, children...)

	case *ast.ThematicBreak:
		return doctree.New(doctree.KindHorizontalRule)

	case *ast.FencedCodeBlock:
		return doctree.CodeBlock(string(n.Language(b.source)), b.lines(n))

	case *ast.CodeBlock:
		return doctree.CodeBlock("", b.lines(n))

	case *ast.Blockquote:
		return doctree.New(doctree.KindBlockquote, b.blocks(n)...)

	case *ast.List:
		if n.IsOrdered() {
			return doctree.New(doctree.KindOrderedList, b.blocks(n)...).
				WithAttr(doctree.AttrStart, strconv.Itoa(n.Start))
		}
		return doctree.New(doctree.KindBulletList, b.blocks(n)...)

	case *ast.ListItem:
		item := doctree.New(doctree.KindListItem, b.blocks(n)...)
		if first := n.FirstChild(); first != nil {
			if box, ok := first.FirstChild().(*extast.TaskCheckBox); ok {
				item.WithAttr(doctree.AttrChecked, strconv.FormatBool(box.IsChecked))
			}
		}
		return item

	case *ast.HTMLBlock:
		raw := b.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(b.source))
		}
		raw = strings.TrimRight(raw, "\n")
		if raw == "" {
			return nil
		}
		return doctree.Paragraph(doctree.Text(raw))
	}

	// Blocks without a tree counterpart degrade to their source text
	if n.Type() == ast.TypeBlock && n.Lines() != nil && n.Lines().Len() > 0 {
		raw := strings.TrimRight(b.lines(n), "\n")
		if raw != "" {
			return doctree.Paragraph(doctree.Text(raw))
		}
	}
	return nil
}

// lines returns the raw source lines of a block without the final newline
func (b *treeBuilder) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.source))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func (b *treeBuilder) inlines(parent ast.Node) []*doctree.Node {
	var out []*doctree.Node
	b.collectInlines(parent, nil, &out)
	return normalizeInlines(out)
}

func (b *treeBuilder) collectInlines(parent ast.Node, marks []doctree.Mark, out *[]*doctree.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			value := unescape(n.Segment.Value(b.source))
			switch {
			case n.HardLineBreak():
				*out = append(*out, textNode(value, marks))
				*out = append(*out, &doctree.Node{Kind: doctree.KindHardBreak, Marks: copyMarks(marks)})
				continue
			case n.SoftLineBreak() && b.inHeading:
				value += " "
			case n.SoftLineBreak():
				value += "\n"
			}
			*out = append(*out, textNode(value, marks))

		case *ast.String:
			*out = append(*out, textNode(string(n.Value), marks))

		case *ast.CodeSpan:
			*out = append(*out, textNode(b.codeSpan(n), withMark(marks, doctree.Mark{Type: doctree.MarkCode})))

		case *ast.Emphasis:
			t := doctree.MarkEm
			if n.Level >= 2 {
				t = doctree.MarkStrong
			}
			b.collectInlines(n, withMark(marks, doctree.Mark{Type: t}), out)

		case *extast.Strikethrough:
			b.collectInlines(n, withMark(marks, doctree.Mark{Type: doctree.MarkStrike}), out)

		case *ast.Link:
			b.collectInlines(n, withMark(marks, linkMark(string(n.Destination), string(n.Title))), out)

		case *ast.AutoLink:
			*out = append(*out, textNode(string(n.Label(b.source)), withMark(marks, linkMark(string(n.URL(b.source)), ""))))

		case *ast.Image:
			img := &doctree.Node{Kind: doctree.KindImage, Marks: copyMarks(marks)}
			img.WithAttr(doctree.AttrSrc, string(n.Destination))
			img.WithAttr(doctree.AttrAlt, b.plainText(n))
			if len(n.Title) > 0 {
				img.WithAttr(doctree.AttrTitle, string(n.Title))
			}
			*out = append(*out, img)

		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				buf.Write(seg.Value(b.source))
			}
			*out = append(*out, textNode(buf.String(), marks))

		case *extast.TaskCheckBox:
			// recorded on the enclosing list item

		default:
			b.collectInlines(n, marks, out)
		}
	}
}

func (b *treeBuilder) codeSpan(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(b.source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
	}
	return buf.String()
}

// plainText flattens the inline content of n, used for image alt text
func (b *treeBuilder) plainText(n ast.Node) string {
	var out []*doctree.Node
	b.collectInlines(n, nil, &out)
	var sb strings.Builder
	for _, c := range out {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// unescape resolves backslash escapes and entity references in one pass so
// that an escaped ampersand is never reinterpreted as an entity
func unescape(v []byte) string {
	var out bytes.Buffer
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\\' && i+1 < len(v) && util.IsPunct(v[i+1]) {
			out.WriteByte(v[i+1])
			i++
			continue
		}
		if c == '&' {
			if end := bytes.IndexByte(v[i:], ';'); end > 0 && end <= 32 {
				candidate := v[i : i+end+1]
				resolved := util.ResolveNumericReferences(util.ResolveEntityNames(candidate))
				if !bytes.Equal(resolved, candidate) {
					out.Write(resolved)
					i += end
					continue
				}
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}

func linkMark(href, title string) doctree.Mark {
	m := doctree.Mark{Type: doctree.MarkLink, Attrs: map[string]string{doctree.AttrHref: href}}
	if title != "" {
		m.Attrs[doctree.AttrTitle] = title
	}
	return m
}

func textNode(text string, marks []doctree.Mark) *doctree.Node {
	return doctree.Text(text, copyMarks(marks)...)
}

func withMark(marks []doctree.Mark, m doctree.Mark) []doctree.Mark {
	out := make([]doctree.Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

func copyMarks(marks []doctree.Mark) []doctree.Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]doctree.Mark, len(marks))
	copy(out, marks)
	return out
}

var markRank = map[doctree.MarkType]int{
	doctree.MarkLink:   0,
	doctree.MarkStrong: 1,
	doctree.MarkEm:     2,
	doctree.MarkStrike: 3,
	doctree.MarkCode:   4,
}

// canonicalMarks orders marks outermost first and drops duplicate types
func canonicalMarks(marks []doctree.Mark) []doctree.Mark {
	if len(marks) == 0 {
		return nil
	}
	seen := make(map[doctree.MarkType]bool, len(marks))
	out := make([]doctree.Mark, 0, len(marks))
	for _, m := range marks {
		if seen[m.Type] {
			continue
		}
		seen[m.Type] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return markRank[out[i].Type] < markRank[out[j].Type]
	})
	return out
}

func sameMark(a, b doctree.Mark) bool {
	if a.Type != b.Type || len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if b.Attrs[k] != v {
			return false
		}
	}
	return true
}

func sameMarks(a, b []doctree.Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameMark(a[i], b[i]) {
			return false
		}
	}
	return true
}

// normalizeInlines canonicalizes marks, drops empty text and merges adjacent
// text nodes that carry the same marks
func normalizeInlines(nodes []*doctree.Node) []*doctree.Node {
	var out []*doctree.Node
	for _, n := range nodes {
		n.Marks = canonicalMarks(n.Marks)
		if n.Kind == doctree.KindText {
			if n.Text == "" {
				continue
			}
			if len(out) > 0 {
				prev := out[len(out)-1]
				if prev.Kind == doctree.KindText && sameMarks(prev.Marks, n.Marks) {
					prev.Text += n.Text
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}
