package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Render serializes nodes back to markup text.
func Render(nodes []Node) string {
	var b strings.Builder
	renderNodes(&b, nodes, false)
	return b.String()
}

func renderNodes(b *strings.Builder, nodes []Node, rawText bool) {
	for _, n := range nodes {
		renderNode(b, n, rawText)
	}
}

func renderNode(b *strings.Builder, n Node, rawText bool) {
	switch n := n.(type) {
	case *Element:
		b.WriteByte('<')
		b.WriteString(n.Name)
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(a.Key)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Val))
			b.WriteByte('"')
		}
		b.WriteByte('>')
		if isVoid(n.Name) && len(n.Children) == 0 {
			return
		}
		renderNodes(b, n.Children, isRawText(n.Name))
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteByte('>')
	case *Text:
		if rawText {
			b.WriteString(n.Data)
		} else {
			b.WriteString(html.EscapeString(n.Data))
		}
	case *Raw:
		b.WriteString(n.HTML)
	case *Comment:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case *Doctype:
		b.WriteString("<!")
		b.WriteString(n.Data)
		b.WriteByte('>')
	}
}

// Trim drops whitespace-only text nodes and trims the remaining text nodes,
// leaving pre, code, textarea, script and style subtrees untouched. Elements
// are modified in place.
func Trim(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nodes
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			data := strings.TrimSpace(n.Data)
			if data == "" {
				continue
			}
			out = append(out, &Text{Data: data})
		case *Element:
			if !preservesWhitespace(n.Name) {
				n.Children = Trim(n.Children)
			}
			out = append(out, n)
		default:
			out = append(out, n)
		}
	}
	return out
}
