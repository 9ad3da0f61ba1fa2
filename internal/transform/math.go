package transform

import (
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/render/katex"
)

// Reserved math tags.
const (
	MathPreludeTag = "katex-prelude"
	MathDisplayTag = "katex"
	MathInlineTag  = "$"
)

// KatexStylesheetURL is formatted with the engine version.
const KatexStylesheetURL = "https://cdn.jsdelivr.net/npm/katex@%s/dist/katex.min.css"

// MathEngine typesets TeX into an HTML fragment.
type MathEngine interface {
	RenderMath(tex string, opts katex.Options) (string, error)
	Version() string
}

// Math renders <katex> and <$> elements and expands <katex-prelude> into
// the matching stylesheet link.
type Math struct {
	engine MathEngine
}

// NewMath returns a math transformer rendering through engine.
func NewMath(engine MathEngine) *Math {
	return &Math{engine: engine}
}

func (m *Math) Name() string { return "math" }

func (m *Math) Matches(tag string, _ []markup.Attr, _ *Context) bool {
	switch tag {
	case MathPreludeTag, MathDisplayTag, MathInlineTag:
		return true
	}
	return false
}

func (m *Math) Replace(tag string, _ []markup.Attr, children []markup.Node, _ *Context) ([]markup.Node, error) {
	if tag == MathPreludeTag {
		return []markup.Node{markup.NewElement("link", []markup.Attr{
			{Key: "rel", Val: "stylesheet"},
			{Key: "href", Val: fmt.Sprintf(KatexStylesheetURL, m.engine.Version())},
		})}, nil
	}

	tex, ok := markup.SoleText(children)
	if !ok {
		return nil, errors.MissingBodyError("malformed body").
			WithContext(errors.ContextTag, tag).
			Build()
	}
	rendered, err := m.engine.RenderMath(tex, katex.Options{
		Output:  "html",
		Trust:   true,
		Display: tag == MathDisplayTag,
	})
	if err != nil {
		return nil, errors.RenderError(err, "math rendering failed").
			WithContext(errors.ContextTag, tag).
			Build()
	}
	return []markup.Node{markup.NewRaw(rendered)}, nil
}
