package transcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/gerunddev/duomark/internal/doctree"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *doctree.Node
	}{
		{
			name:  "heading and paragraph",
			input: "# Title\n\nHello",
			want:  doctree.Doc(doctree.Heading(1, doctree.Text("Title")), doctree.Paragraph(doctree.Text("Hello"))),
		},
		{
			name:  "setext heading",
			input: "Title\n=====",
			want:  doctree.Doc(doctree.Heading(1, doctree.Text("Title"))),
		},
		{
			name:  "emphasis marks",
			input: "a *b* **c**",
			want: doctree.Doc(doctree.Paragraph(
				doctree.Text("a "),
				doctree.Text("b", doctree.Mark{Type: doctree.MarkEm}),
				doctree.Text(" "),
				doctree.Text("c", doctree.Mark{Type: doctree.MarkStrong}),
			)),
		},
		{
			name:  "escaped punctuation",
			input: `\*not em\*`,
			want:  doctree.Doc(doctree.Paragraph(doctree.Text("*not em*"))),
		},
		{
			name:  "entity reference",
			input: "fish &amp; chips",
			want:  doctree.Doc(doctree.Paragraph(doctree.Text("fish & chips"))),
		},
		{
			name:  "soft break stays in text",
			input: "one\ntwo",
			want:  doctree.Doc(doctree.Paragraph(doctree.Text("one\ntwo"))),
		},
		{
			name:  "hard break",
			input: "one\\\ntwo",
			want: doctree.Doc(doctree.Paragraph(
				doctree.Text("one"),
				doctree.New(doctree.KindHardBreak),
				doctree.Text("two"),
			)),
		},
		{
			name:  "fenced code",
			input: "```go\nfmt.Println()\n```",
			want:  doctree.Doc(doctree.CodeBlock("go", "fmt.Println()")),
		},
		{
			name:  "ordered list start",
			input: "3. x\n4. y",
			want: doctree.Doc(doctree.New(doctree.KindOrderedList,
				doctree.New(doctree.KindListItem, doctree.Paragraph(doctree.Text("x"))),
				doctree.New(doctree.KindListItem, doctree.Paragraph(doctree.Text("y"))),
			).WithAttr(doctree.AttrStart, "3")),
		},
		{
			name:  "task list",
			input: "- [ ] todo\n- [x] done",
			want: doctree.Doc(doctree.New(doctree.KindBulletList,
				doctree.New(doctree.KindListItem, doctree.Paragraph(doctree.Text("todo"))).WithAttr(doctree.AttrChecked, "false"),
				doctree.New(doctree.KindListItem, doctree.Paragraph(doctree.Text("done"))).WithAttr(doctree.AttrChecked, "true"),
			)),
		},
		{
			name:  "empty input",
			input: "",
			want:  doctree.Doc(),
		},
	}

	md := NewMarkdown()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := md.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !doctree.Equal(got, tt.want) {
				t.Errorf("Parse() tree mismatch.\n\nExpected:\n%s\nGot:\n%s",
					doctree.Outline(tt.want), doctree.Outline(got))
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "heading and paragraph", input: "# Title\n\nHello", want: "# Title\n\nHello\n"},
		{name: "emphasis", input: "Some *em* and **strong** text", want: "Some *em* and **strong** text\n"},
		{name: "bullet list", input: "* a\n* b", want: "- a\n- b\n"},
		{name: "ordered list", input: "3. x\n4. y", want: "3. x\n4. y\n"},
		{name: "task list", input: "- [ ] todo\n- [x] done", want: "- [ ] todo\n- [x] done\n"},
		{name: "code block", input: "```go\nfmt.Println()\n```", want: "```go\nfmt.Println()\n```\n"},
		{name: "blockquote", input: "> quote", want: "> quote\n"},
		{name: "code span", input: "use `go test`", want: "use `go test`\n"},
		{name: "link with title", input: `[site](https://example.com "Home")`, want: "[site](https://example.com \"Home\")\n"},
		{name: "escapes underscore", input: "snake_case", want: "snake\\_case\n"},
		{name: "escapes list-like text", input: `1\. not a list`, want: "1\\. not a list\n"},
		{name: "setext normalized", input: "Sub\n---", want: "## Sub\n"},
		{name: "leading rule", input: "***\n\ntext", want: "***\n\ntext\n"},
		{name: "empty document", input: "", want: ""},
	}

	md := NewMarkdown()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := md.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := md.Serialize(tree)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

// roundtripCorpus holds settled documents used to check that parsing is
// stable across a serialize cycle
var roundtripCorpus = map[string]string{
	"heading":     "# Title\n\nHello",
	"inline":      "Some *em*, **strong**, ~~gone~~ and `code` here.",
	"nested list": "- a\n  - b\n  - c\n- d",
	"ordered":     "3. three\n4. four",
	"tasks":       "- [ ] todo\n- [x] done",
	"quote list":  "> - q1\n> - q2",
	"code":        "Intro\n\n```go\nfunc main() {\n\n}\n```",
	"rule":        "a\n\n---\n\nb",
	"hard break":  "line one\\\nline two",
	"image":       `![alt text](img.png "Pic")`,
	"link":        `[site](https://example.com "Home") and <https://go.dev>`,
	"escapes":     "1\\. not a list\n\n\\# not heading\n\nAT&T costs 5 \\* 3",
	"two lists":   "- a\n\n* b",
	"reference":   "[ref]: http://x\n\n[ref]",
	"ref middle":  "intro\n\n[a]: /one \"One\"\n\nsee [a] and [b][a]",
	"frontmatter": "---\ntitle: Hello\ntags: [a, b]\n---\n\n# Hi\n\nBody",
	"mixed":       "## Notes\n\n> **Bold** quote\n\n1. first\n2. second\n\n   more\n\n***\n\nEnd",
}

func TestRoundtripStable(t *testing.T) {
	md := NewMarkdown()
	for name, doc := range roundtripCorpus {
		t.Run(name, func(t *testing.T) {
			first, err := md.Parse(doc)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			text, err := md.Serialize(first)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			second, err := md.Parse(text)
			if err != nil {
				t.Fatalf("Parse() of serialized text error = %v", err)
			}
			if !doctree.Equal(first, second) {
				t.Errorf("tree changed across roundtrip.\n\nSerialized:\n%s\nFirst:\n%s\nSecond:\n%s",
					text, doctree.Outline(first), doctree.Outline(second))
			}

			again, err := md.Serialize(second)
			if err != nil {
				t.Fatalf("second Serialize() error = %v", err)
			}
			if again != text {
				t.Errorf("serialization is not idempotent:\n%q\n%q", text, again)
			}
		})
	}
}

func TestReferenceDefinitionLeavesNoBlock(t *testing.T) {
	md := NewMarkdown()

	tree, err := md.Parse("[ref]: http://x\n\n[ref]")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("top-level blocks = %d, want 1:\n%s", len(tree.Children), doctree.Outline(tree))
	}
	// paragraph of the 3-rune link text
	if got := tree.ContentSize(); got != 5 {
		t.Errorf("ContentSize() = %d, want 5", got)
	}
	link := tree.Children[0].Children[0]
	if !link.HasMark(doctree.MarkLink) {
		t.Errorf("expected a link mark on %q", link.Text)
	}
}

func TestFrontMatter(t *testing.T) {
	md := NewMarkdown()

	tree, err := md.Parse("---\ntitle: Hello\n---\n\n# Hi\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if fm := tree.Attr(doctree.AttrFrontMatter); !strings.Contains(fm, "title: Hello") {
		t.Errorf("front matter = %q, want it to contain title", fm)
	}
	if len(tree.Children) != 1 || tree.Children[0].Kind != doctree.KindHeading {
		t.Fatalf("expected a single heading in the body, got:\n%s", doctree.Outline(tree))
	}

	out, err := md.Serialize(tree)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if out != "---\ntitle: Hello\n---\n\n# Hi\n" {
		t.Errorf("Serialize() = %q", out)
	}
}

func TestFrontMatterNotMapping(t *testing.T) {
	md := NewMarkdown()

	tree, err := md.Parse("---\njust words\n---\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tree.Attr(doctree.AttrFrontMatter) != "" {
		t.Error("scalar block should not be treated as front matter")
	}
}

func TestParseFailure(t *testing.T) {
	md := NewMarkdown()

	_, err := md.Parse("---\ntitle: [unclosed\n---\n\nbody")
	if err == nil {
		t.Fatal("expected parse failure for malformed front matter")
	}
	if !errors.Is(err, ErrParse) {
		t.Errorf("error %v should match ErrParse", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error %v should be a *ParseError", err)
	}
}

func TestSerializeFailure(t *testing.T) {
	md := NewMarkdown()

	tests := []struct {
		name string
		tree *doctree.Node
	}{
		{name: "nil tree", tree: nil},
		{name: "paragraph root", tree: doctree.Paragraph(doctree.Text("x"))},
		{name: "unknown kind", tree: doctree.Doc(doctree.New(doctree.Kind("table")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := md.Serialize(tt.tree)
			if !errors.Is(err, ErrSerialize) {
				t.Errorf("Serialize() error = %v, want ErrSerialize", err)
			}
		})
	}
}

func TestSerializeEditedTree(t *testing.T) {
	md := NewMarkdown()

	tree := doctree.Doc(
		doctree.Heading(2, doctree.Text("Plan")),
		doctree.Paragraph(
			doctree.Text("see "),
			doctree.Text("docs", doctree.Mark{Type: doctree.MarkLink, Attrs: map[string]string{doctree.AttrHref: "https://x.dev/a b"}}),
		),
		doctree.CodeBlock("", "a ``` b"),
	)

	got, err := md.Serialize(tree)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	want := "## Plan\n\nsee [docs](<https://x.dev/a b>)\n\n````\na ``` b\n````\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestFuncAdapter(t *testing.T) {
	boom := errors.New("boom")
	tc := Func{
		ParseFunc: func(string) (*doctree.Node, error) { return nil, boom },
		SerializeFunc: func(*doctree.Node) (string, error) {
			panic("broken serializer")
		},
	}

	_, err := tc.Parse("x")
	if !errors.Is(err, ErrParse) || !errors.Is(err, boom) {
		t.Errorf("Parse() error = %v, want ParseError wrapping boom", err)
	}

	_, err = tc.Serialize(doctree.Doc())
	if !errors.Is(err, ErrSerialize) {
		t.Errorf("Serialize() error = %v, want recovered SerializeError", err)
	}

	var empty Func
	if _, err := empty.Parse("x"); !errors.Is(err, ErrParse) {
		t.Errorf("unconfigured Parse() error = %v", err)
	}
}
