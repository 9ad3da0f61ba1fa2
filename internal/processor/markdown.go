package processor

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

// Markdown converts the source to HTML and then runs the HTML pipeline over it.
type Markdown struct {
	HTML   HTML
	Engine goldmark.Markdown
}

// NewMarkdown returns a Markdown processor with GitHub flavored Markdown,
// generated heading IDs and raw HTML passthrough enabled.
func NewMarkdown(transformers []transform.Transformer, trim bool, data any) *Markdown {
	return &Markdown{
		HTML:   HTML{Transformers: transformers, Trim: trim, Data: data},
		Engine: NewGoldmark(),
	}
}

// NewGoldmark returns the goldmark instance used by NewMarkdown.
func NewGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

func (m *Markdown) Name() string {
	return fmt.Sprintf("MarkdownProcessor(%s)", transform.Describe(m.HTML.Transformers))
}

func (m *Markdown) Process(res resource.Resource, sourcePath string, reg *resource.Registry) ([]byte, error) {
	src, err := readSource(sourcePath, reg)
	if err != nil {
		return nil, err
	}
	engine := m.Engine
	if engine == nil {
		engine = NewGoldmark()
	}
	var buf bytes.Buffer
	if err := engine.Convert(src, &buf); err != nil {
		return nil, errors.ParseError(err, "failed to convert markdown").
			WithContext(errors.ContextPath, sourcePath).
			Build()
	}
	return m.HTML.transform(buf.String(), res, sourcePath, reg)
}
