package doctree

import (
	"fmt"
	"strings"
)

// Outline renders an indented, human-readable view of the tree with the
// position-space size of every node
func Outline(root *Node) string {
	var b strings.Builder
	Walk(root, func(n *Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(string(n.Kind))

		for _, k := range n.SortedAttrKeys() {
			if k == AttrFrontMatter {
				b.WriteString(" frontmatter")
				continue
			}
			fmt.Fprintf(&b, " %s=%s", k, n.Attrs[k])
		}

		if n.Kind == KindText {
			for _, m := range n.Marks {
				b.WriteString(" +" + string(m.Type))
			}
			fmt.Fprintf(&b, " %q", truncate(n.Text, 40))
		}

		size := n.NodeSize()
		if n.Kind == KindDoc {
			size = n.ContentSize()
		}
		fmt.Fprintf(&b, " [%d]\n", size)
		return true
	})
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
