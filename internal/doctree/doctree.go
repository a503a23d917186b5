// Package doctree models the structured form of a markdown document: an
// ordered, rooted tree of block and inline nodes with a position space used
// for selection arithmetic.
package doctree

import (
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Kind identifies the type of a node
type Kind string

const (
	KindDoc            Kind = "doc"
	KindParagraph      Kind = "paragraph"
	KindHeading        Kind = "heading"
	KindBlockquote     Kind = "blockquote"
	KindBulletList     Kind = "bullet_list"
	KindOrderedList    Kind = "ordered_list"
	KindListItem       Kind = "list_item"
	KindCodeBlock      Kind = "code_block"
	KindHorizontalRule Kind = "horizontal_rule"
	KindHardBreak      Kind = "hard_break"
	KindImage          Kind = "image"
	KindText           Kind = "text"
)

// Attribute keys
const (
	AttrLevel       = "level"
	AttrStart       = "start"
	AttrChecked     = "checked"
	AttrLanguage    = "language"
	AttrSrc         = "src"
	AttrAlt         = "alt"
	AttrTitle       = "title"
	AttrHref        = "href"
	AttrFrontMatter = "frontmatter"
)

var knownKinds = map[Kind]bool{
	KindDoc:            true,
	KindParagraph:      true,
	KindHeading:        true,
	KindBlockquote:     true,
	KindBulletList:     true,
	KindOrderedList:    true,
	KindListItem:       true,
	KindCodeBlock:      true,
	KindHorizontalRule: true,
	KindHardBreak:      true,
	KindImage:          true,
	KindText:           true,
}

// MarkType identifies an inline formatting mark carried by text nodes
type MarkType string

const (
	MarkEm     MarkType = "em"
	MarkStrong MarkType = "strong"
	MarkCode   MarkType = "code"
	MarkStrike MarkType = "strike"
	MarkLink   MarkType = "link"
)

// Mark is an inline formatting annotation on a text node
type Mark struct {
	Type  MarkType
	Attrs map[string]string
}

// Node is a single element of a document tree. Text nodes carry a payload
// and marks, every other kind carries children.
type Node struct {
	Kind     Kind
	Attrs    map[string]string
	Marks    []Mark
	Text     string
	Children []*Node
}

// New creates a node of the given kind with children
func New(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// Doc creates a root document node
func Doc(children ...*Node) *Node {
	return New(KindDoc, children...)
}

// Paragraph creates a paragraph node
func Paragraph(children ...*Node) *Node {
	return New(KindParagraph, children...)
}

// Heading creates a heading node of the given level
func Heading(level int, children ...*Node) *Node {
	return New(KindHeading, children...).WithAttr(AttrLevel, strconv.Itoa(level))
}

// CodeBlock creates a fenced code block holding its source as a single text child
func CodeBlock(language, code string) *Node {
	n := New(KindCodeBlock)
	if language != "" {
		n.WithAttr(AttrLanguage, language)
	}
	if code != "" {
		n.Children = []*Node{Text(code)}
	}
	return n
}

// Text creates a text node with optional marks
func Text(text string, marks ...Mark) *Node {
	return &Node{Kind: KindText, Text: text, Marks: marks}
}

// WithAttr sets an attribute and returns the node for chaining
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// Attr returns an attribute value or "" if unset
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// IntAttr returns an attribute parsed as an integer, or def if unset or invalid
func (n *Node) IntAttr(key string, def int) int {
	v, err := strconv.Atoi(n.Attr(key))
	if err != nil {
		return def
	}
	return v
}

// Level returns the heading level clamped to 1..6
func (n *Node) Level() int {
	level := n.IntAttr(AttrLevel, 1)
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// HasMark reports whether a text node carries a mark of type t
func (n *Node) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// IsAtom reports whether the node is a leaf occupying a single position
func (n *Node) IsAtom() bool {
	switch n.Kind {
	case KindHorizontalRule, KindHardBreak, KindImage:
		return true
	}
	return false
}

// NodeSize returns the number of positions the node occupies in its parent.
// Text counts runes, atoms count one, everything else counts its content
// plus an opening and a closing slot.
func (n *Node) NodeSize() int {
	if n == nil {
		return 0
	}
	switch {
	case n.Kind == KindText:
		return utf8.RuneCountInString(n.Text)
	case n.IsAtom():
		return 1
	}
	return n.ContentSize() + 2
}

// ContentSize returns the size of the node's content in position space.
// For the root this is the measure selections are expressed against.
func (n *Node) ContentSize() int {
	if n == nil {
		return 0
	}
	if n.Kind == KindText {
		return utf8.RuneCountInString(n.Text)
	}
	size := 0
	for _, c := range n.Children {
		size += c.NodeSize()
	}
	return size
}

// TextContent concatenates all text payloads under the node
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == KindText {
		return n.Text
	}
	var out []byte
	for _, c := range n.Children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	for _, m := range n.Marks {
		c.Marks = append(c.Marks, cloneMark(m))
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

func cloneMark(m Mark) Mark {
	out := Mark{Type: m.Type}
	if m.Attrs != nil {
		out.Attrs = make(map[string]string, len(m.Attrs))
		for k, v := range m.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// Walk visits the node and its descendants depth first. Returning false from
// fn skips the children of the visited node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Validate checks that the tree is rooted at a doc node and only contains
// known kinds with consistent payloads.
func Validate(root *Node) error {
	if root == nil {
		return fmt.Errorf("tree is nil")
	}
	if root.Kind != KindDoc {
		return fmt.Errorf("root must be %q, got %q", KindDoc, root.Kind)
	}
	var err error
	Walk(root, func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		switch {
		case n == nil:
			err = fmt.Errorf("nil node at depth %d", depth)
		case !knownKinds[n.Kind]:
			err = fmt.Errorf("unknown node kind %q at depth %d", n.Kind, depth)
		case depth > 0 && n.Kind == KindDoc:
			err = fmt.Errorf("nested doc node at depth %d", depth)
		case n.Kind == KindText && len(n.Children) > 0:
			err = fmt.Errorf("text node with children at depth %d", depth)
		}
		return err == nil
	})
	return err
}

// Equal reports whether two trees are structurally identical
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Text != b.Text {
		return false
	}
	if !equalAttrs(a.Attrs, b.Attrs) {
		return false
	}
	if len(a.Marks) != len(b.Marks) {
		return false
	}
	for i := range a.Marks {
		if a.Marks[i].Type != b.Marks[i].Type || !equalAttrs(a.Marks[i].Attrs, b.Marks[i].Attrs) {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func equalAttrs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// SortedAttrKeys returns attribute keys in a stable order
func (n *Node) SortedAttrKeys() []string {
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
