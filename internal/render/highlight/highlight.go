// Package highlight wraps the chroma lexer and style registries used for
// syntax-highlighted code blocks.
package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "monokai"

// Engine holds the syntax definitions and themes. It is immutable after New
// and safe for concurrent use.
type Engine struct {
	lexers    *chroma.LexerRegistry
	styles    map[string]*chroma.Style
	formatter *chromahtml.Formatter
}

// New returns an engine backed by chroma's built-in lexers and styles.
func New() *Engine {
	return &Engine{
		lexers:    lexers.GlobalLexerRegistry,
		styles:    styles.Registry,
		formatter: chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4)),
	}
}

// Lexer finds the syntax definition registered for the file extension ext.
func (e *Engine) Lexer(ext string) (chroma.Lexer, bool) {
	lexer := e.lexers.Match("source." + strings.TrimPrefix(ext, "."))
	if lexer == nil {
		return nil, false
	}
	return chroma.Coalesce(lexer), true
}

// Theme returns the style registered under name.
func (e *Engine) Theme(name string) (*chroma.Style, bool) {
	style, ok := e.styles[name]
	return style, ok
}

// Themes lists the available theme names.
func (e *Engine) Themes() []string {
	names := make([]string, 0, len(e.styles))
	for name := range e.styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render highlights code as an HTML fragment with inline styles. The fragment
// is a single pre element.
func (e *Engine) Render(code string, lexer chroma.Lexer, style *chroma.Style) (string, error) {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var b strings.Builder
	if err := e.formatter.Format(&b, style, it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return b.String(), nil
}

// Background returns the theme background as #rrggbb when the theme sets one.
func Background(style *chroma.Style) (string, bool) {
	bg := style.Get(chroma.Background).Background
	if !bg.IsSet() {
		return "", false
	}
	return fmt.Sprintf("#%02x%02x%02x", bg.Red(), bg.Green(), bg.Blue()), true
}
