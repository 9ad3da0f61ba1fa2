package transform

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/render/highlight"
)

// Reserved highlighting tags.
const (
	HighlightBlockTag  = "pre-hl"
	HighlightInlineTag = "code-hl"
)

// Highlight replaces <pre-hl> and <code-hl> elements with highlighted code.
type Highlight struct {
	engine *highlight.Engine
	theme  string
}

// NewHighlight returns a highlighter using theme from engine.
func NewHighlight(engine *highlight.Engine, theme string) *Highlight {
	return &Highlight{engine: engine, theme: theme}
}

func (h *Highlight) Name() string { return "highlight" }

func (h *Highlight) Matches(tag string, _ []markup.Attr, _ *Context) bool {
	return tag == HighlightBlockTag || tag == HighlightInlineTag
}

func (h *Highlight) Replace(tag string, attrs []markup.Attr, children []markup.Node, _ *Context) ([]markup.Node, error) {
	text, ok := markup.SoleText(children)
	if !ok {
		return nil, errors.MissingBodyError("must contain only text children").
			WithContext(errors.ContextTag, tag).
			Build()
	}
	code := Deindent(text)

	lang, ok := markup.GetAttr(attrs, "lang")
	if !ok {
		return nil, errors.MissingAttrError("missing lang= attribute").
			WithContext(errors.ContextAttribute, "lang").
			Build()
	}
	lexer, ok := h.engine.Lexer(lang)
	if !ok {
		return nil, errors.TransformError("unknown language "+lang).
			WithContext(errors.ContextReference, lang).
			Build()
	}
	style, ok := h.engine.Theme(h.theme)
	if !ok {
		return nil, errors.TransformError("no such theme "+h.theme).
			WithContext(errors.ContextReference, h.theme).
			Build()
	}

	fragment, err := h.engine.Render(code, lexer, style)
	if err != nil {
		return nil, errors.RenderError(err, "syntax highlighting failed").Build()
	}
	nodes, err := markup.Parse(fragment)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTransform, "invalid generated html").Build()
	}
	root, ok := singlePre(nodes)
	if !ok {
		return nil, errors.TransformError("invalid generated html").Build()
	}

	if bg, ok := highlight.Background(style); ok {
		root.Attrs = append(root.Attrs, markup.Attr{Key: "style", Val: "background: " + bg + ";"})
	}
	root.Name = "pre"
	if tag == HighlightInlineTag {
		root.Name = "code"
	}
	return []markup.Node{root}, nil
}

// singlePre returns the only element of nodes when it is a pre element.
// Whitespace-only text around it is ignored.
func singlePre(nodes []markup.Node) (*markup.Element, bool) {
	var root *markup.Element
	for _, n := range nodes {
		switch n := n.(type) {
		case *markup.Text:
			if strings.TrimSpace(n.Data) != "" {
				return nil, false
			}
		case *markup.Element:
			if root != nil || n.Name != "pre" {
				return nil, false
			}
			root = n
		default:
			return nil, false
		}
	}
	return root, root != nil
}

// Deindent strips one leading newline and trailing whitespace, then removes
// the leading spaces of the first line from every line that starts with them.
func Deindent(text string) string {
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimRightFunc(text, unicode.IsSpace)

	first, _, _ := strings.Cut(text, "\n")
	indent := first[:len(first)-len(strings.TrimLeft(first, " "))]

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(lines, "\n")
}
