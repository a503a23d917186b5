package transcode

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gerunddev/duomark/internal/doctree"
)

// Serialize converts a document tree to normalized markdown: ATX headings,
// fenced code, "-" bullets, "*" emphasis and one blank line between blocks
func (m *Markdown) Serialize(tree *doctree.Node) (text string, err error) {
	defer recoverInto(&err, func(cause error) error { return &SerializeError{Err: cause} })

	if err := doctree.Validate(tree); err != nil {
		return "", &SerializeError{Err: err}
	}

	var sb strings.Builder
	if fm := tree.Attr(doctree.AttrFrontMatter); fm != "" {
		sb.WriteString("---\n")
		sb.WriteString(fm)
		if !strings.HasSuffix(fm, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("---\n")
	}

	body := serializeBlocks(tree.Children)
	if sb.Len() == 0 && (body == "---" || strings.HasPrefix(body, "---\n")) {
		// A leading --- would be read back as a front matter delimiter
		body = "***" + body[3:]
	}
	if body != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// serializeBlocks joins sibling blocks with blank lines
func serializeBlocks(nodes []*doctree.Node) string {
	parts, _ := serializeParts(nodes)
	return strings.Join(parts, "\n\n")
}

// serializeParts renders sibling blocks one by one and reports the kind of
// each part. Consecutive lists alternate their markers so they are not merged
// back into one list.
func serializeParts(nodes []*doctree.Node) ([]string, []doctree.Kind) {
	parts := make([]string, 0, len(nodes))
	kinds := make([]doctree.Kind, 0, len(nodes))
	prevBullet, prevDelim := "", ""

	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		kind := n.Kind
		var out string

		switch {
		case n.Kind == doctree.KindBulletList:
			marker := "-"
			if prevBullet == "-" {
				marker = "*"
			}
			out = serializeList(n, marker, "")
			prevBullet, prevDelim = marker, ""

		case n.Kind == doctree.KindOrderedList:
			delim := "."
			if prevDelim == "." {
				delim = ")"
			}
			out = serializeList(n, "", delim)
			prevBullet, prevDelim = "", delim

		case isInline(n):
			// Stray inline content at block level becomes one paragraph
			j := i
			for j < len(nodes) && isInline(nodes[j]) {
				j++
			}
			out = serializeInlines(nodes[i:j])
			kind = doctree.KindParagraph
			i = j - 1
			prevBullet, prevDelim = "", ""

		default:
			out = serializeBlock(n)
			prevBullet, prevDelim = "", ""
		}

		if out != "" {
			parts = append(parts, out)
			kinds = append(kinds, kind)
		}
	}
	return parts, kinds
}

func isInline(n *doctree.Node) bool {
	switch n.Kind {
	case doctree.KindText, doctree.KindHardBreak, doctree.KindImage:
		return true
	}
	return false
}

func serializeBlock(n *doctree.Node) string {
	switch n.Kind {
	case doctree.KindParagraph:
		return serializeInlines(n.Children)

	case doctree.KindHeading:
		hashes := strings.Repeat("#", n.Level())
		content := strings.ReplaceAll(serializeInlines(n.Children), "\n", " ")
		if content == "" {
			return hashes
		}
		return hashes + " " + content

	case doctree.KindBlockquote:
		inner := serializeBlocks(n.Children)
		if inner == "" {
			return ">"
		}
		return prefixLines(inner, "> ", "> ", ">")

	case doctree.KindCodeBlock:
		return serializeCodeBlock(n)

	case doctree.KindHorizontalRule:
		return "---"

	case doctree.KindListItem:
		return serializeItem(n, "- ")

	case doctree.KindDoc:
		return serializeBlocks(n.Children)
	}
	return ""
}

func serializeList(n *doctree.Node, bullet, delim string) string {
	start := n.IntAttr(doctree.AttrStart, 1)
	lines := make([]string, 0, len(n.Children))
	for i, item := range n.Children {
		marker := bullet + " "
		if delim != "" {
			marker = strconv.Itoa(start+i) + delim + " "
		}
		lines = append(lines, serializeItem(item, marker))
	}
	return strings.Join(lines, "\n")
}

func serializeItem(item *doctree.Node, marker string) string {
	children := item.Children
	if item.Kind != doctree.KindListItem {
		children = []*doctree.Node{item}
	}

	content := serializeItemBlocks(children)
	if checked := item.Attr(doctree.AttrChecked); checked != "" &&
		(len(children) == 0 || children[0].Kind == doctree.KindParagraph) {
		box := "[ ]"
		if checked == "true" {
			box = "[x]"
		}
		content = strings.TrimRight(box+" "+content, " ")
	}

	if content == "" {
		return strings.TrimRight(marker, " ")
	}
	indent := strings.Repeat(" ", utf8.RuneCountInString(marker))
	return prefixLines(content, marker, indent, "")
}

// serializeItemBlocks keeps a nested list directly under the paragraph it
// belongs to
func serializeItemBlocks(nodes []*doctree.Node) string {
	parts, kinds := serializeParts(nodes)

	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			isList := kinds[i] == doctree.KindBulletList || kinds[i] == doctree.KindOrderedList
			if isList && kinds[i-1] == doctree.KindParagraph {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(part)
	}
	return sb.String()
}

// prefixLines prefixes the first line with first, other non-empty lines with
// rest and empty lines with empty
func prefixLines(text, first, rest, empty string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = first + line
		case line == "":
			lines[i] = empty
		default:
			lines[i] = rest + line
		}
	}
	return strings.Join(lines, "\n")
}

func serializeCodeBlock(n *doctree.Node) string {
	code := n.TextContent()
	fence := strings.Repeat("`", max(3, longestRun(code, '`')+1))

	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString(n.Attr(doctree.AttrLanguage))
	sb.WriteString("\n")
	if code != "" {
		sb.WriteString(code)
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	return sb.String()
}

func longestRun(s string, c rune) int {
	best, cur := 0, 0
	for _, r := range s {
		if r == c {
			cur++
			if cur > best {
				best = cur
			}
			continue
		}
		cur = 0
	}
	return best
}

// serializeInlines writes inline nodes, opening and closing mark delimiters
// as the mark set changes between neighbours
func serializeInlines(nodes []*doctree.Node) string {
	var sb strings.Builder
	var open []doctree.Mark
	lineStart := true

	for _, n := range nodes {
		marks := canonicalMarks(n.Marks)

		keep := 0
		for keep < len(open) && keep < len(marks) && sameMark(open[keep], marks[keep]) {
			keep++
		}
		for i := len(open) - 1; i >= keep; i-- {
			sb.WriteString(closeDelimiter(open[i]))
		}
		open = open[:keep]

		for _, m := range marks[keep:] {
			if m.Type == doctree.MarkCode {
				continue
			}
			sb.WriteString(openDelimiter(m))
			open = append(open, m)
			lineStart = false
		}

		switch n.Kind {
		case doctree.KindText:
			if hasMark(marks, doctree.MarkCode) {
				sb.WriteString(codeSpan(n.Text))
				lineStart = false
				continue
			}
			sb.WriteString(escapeText(n.Text, &lineStart))

		case doctree.KindHardBreak:
			sb.WriteString("\\\n")
			lineStart = true

		case doctree.KindImage:
			sb.WriteString("![")
			alt := n.Attr(doctree.AttrAlt)
			noLineStart := false
			sb.WriteString(escapeText(alt, &noLineStart))
			sb.WriteString("](")
			sb.WriteString(destination(n.Attr(doctree.AttrSrc), n.Attr(doctree.AttrTitle)))
			sb.WriteString(")")
			lineStart = false

		default:
			sb.WriteString(escapeText(n.TextContent(), &lineStart))
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString(closeDelimiter(open[i]))
	}
	return sb.String()
}

func hasMark(marks []doctree.Mark, t doctree.MarkType) bool {
	for _, m := range marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

func openDelimiter(m doctree.Mark) string {
	switch m.Type {
	case doctree.MarkEm:
		return "*"
	case doctree.MarkStrong:
		return "**"
	case doctree.MarkStrike:
		return "~~"
	case doctree.MarkLink:
		return "["
	}
	return ""
}

func closeDelimiter(m doctree.Mark) string {
	switch m.Type {
	case doctree.MarkEm:
		return "*"
	case doctree.MarkStrong:
		return "**"
	case doctree.MarkStrike:
		return "~~"
	case doctree.MarkLink:
		return "](" + destination(m.Attrs[doctree.AttrHref], m.Attrs[doctree.AttrTitle]) + ")"
	}
	return ""
}

// destination formats a link or image target with an optional title
func destination(href, title string) string {
	dest := href
	if strings.ContainsAny(href, " ()<>\t") {
		r := strings.NewReplacer("<", `\<`, ">", `\>`)
		dest = "<" + r.Replace(href) + ">"
	}
	if title == "" {
		return dest
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`%s "%s"`, dest, r.Replace(title))
}

func codeSpan(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	pad := ""
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") ||
		(strings.HasPrefix(text, " ") && strings.HasSuffix(text, " ") && strings.TrimSpace(text) != "") {
		pad = " "
	}
	return fence + pad + text + pad + fence
}

const inlineSpecial = "\\`*_[]<&~#"

const lineStartSpecial = "#>+-=|"

// escapeText backslash-escapes characters that would otherwise be read as
// markdown syntax. lineStart tracks whether the next rune begins a line.
func escapeText(text string, lineStart *bool) string {
	var sb strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			sb.WriteRune(r)
			*lineStart = true
			continue
		}

		if *lineStart {
			*lineStart = false
			if strings.ContainsRune(lineStartSpecial, r) {
				sb.WriteByte('\\')
				sb.WriteRune(r)
				continue
			}
			// "1." or "1)" would start an ordered list
			j := i
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			if j > i && j < len(runes) && (runes[j] == '.' || runes[j] == ')') {
				sb.WriteString(string(runes[i:j]))
				sb.WriteByte('\\')
				sb.WriteRune(runes[j])
				i = j
				continue
			}
		}

		if strings.ContainsRune(inlineSpecial, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
