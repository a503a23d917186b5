package doctree

import (
	"strings"
	"testing"
)

func TestContentSize(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want int
	}{
		{
			name: "nil tree",
			node: nil,
			want: 0,
		},
		{
			name: "empty doc",
			node: Doc(),
			want: 0,
		},
		{
			name: "single paragraph",
			node: Doc(Paragraph(Text("Hello"))),
			want: 7,
		},
		{
			name: "heading and paragraph",
			node: Doc(Heading(1, Text("Title")), Paragraph(Text("Hello"))),
			want: 14,
		},
		{
			name: "atoms count one",
			node: Doc(Paragraph(Text("a"), New(KindHardBreak), Text("b")), New(KindHorizontalRule)),
			want: 6,
		},
		{
			name: "multibyte runes",
			node: Doc(Paragraph(Text("héllo"))),
			want: 7,
		},
		{
			name: "nested list",
			node: Doc(New(KindBulletList, New(KindListItem, Paragraph(Text("x"))))),
			want: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.ContentSize(); got != tt.want {
				t.Errorf("ContentSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := Doc(Heading(2, Text("T")), Paragraph(Text("bold", Mark{Type: MarkStrong})))
	b := a.Clone()

	if !Equal(a, b) {
		t.Fatal("clone should be equal to original")
	}

	b.Children[0].WithAttr(AttrLevel, "3")
	if Equal(a, b) {
		t.Error("trees with different attrs should not be equal")
	}

	c := a.Clone()
	c.Children[1].Children[0].Marks = nil
	if Equal(a, c) {
		t.Error("trees with different marks should not be equal")
	}

	if !Equal(nil, nil) {
		t.Error("nil trees should be equal")
	}
	if Equal(a, nil) {
		t.Error("tree and nil should not be equal")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Doc(Paragraph(Text("x", Mark{Type: MarkLink, Attrs: map[string]string{AttrHref: "u"}})))
	b := a.Clone()
	b.Children[0].Children[0].Marks[0].Attrs[AttrHref] = "changed"

	if a.Children[0].Children[0].Marks[0].Attrs[AttrHref] != "u" {
		t.Error("mutating clone changed the original")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr bool
	}{
		{name: "valid", node: Doc(Paragraph(Text("ok"))), wantErr: false},
		{name: "nil", node: nil, wantErr: true},
		{name: "wrong root", node: Paragraph(Text("x")), wantErr: true},
		{name: "unknown kind", node: Doc(New(Kind("table"))), wantErr: true},
		{name: "nested doc", node: Doc(Doc()), wantErr: true},
		{name: "text with children", node: Doc(&Node{Kind: KindText, Children: []*Node{Text("x")}}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.node)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLevelClamp(t *testing.T) {
	if got := Heading(9).Level(); got != 6 {
		t.Errorf("Level() = %d, want 6", got)
	}
	if got := New(KindHeading).Level(); got != 1 {
		t.Errorf("Level() = %d, want 1 for missing attr", got)
	}
}

func TestOutline(t *testing.T) {
	out := Outline(Doc(Heading(1, Text("Title"))))

	for _, want := range []string{"doc [7]", "  heading level=1 [7]", `    text "Title" [5]`} {
		if !strings.Contains(out, want) {
			t.Errorf("Outline() missing %q:\n%s", want, out)
		}
	}
}
