// Package site assembles the concrete resources and processing pipeline for a
// project directory from configuration.
package site

import (
	"path"
	"strings"
)

// Kind selects how a page is processed.
type Kind string

const (
	KindHTML     Kind = "html"
	KindMarkdown Kind = "markdown"
	KindStatic   Kind = "static"
)

// Page is the resource registered for every source file.
type Page struct {
	Kind   Kind
	Source string
	ID     string
	Output string
}

// NewPage derives the identifier and output path of a source file.
//
// Documents are identified by their path without extension, with a trailing
// "/index" removed, so about/index.html is "about" and blog/post1.md is
// "blog/post1". Static files are identified by their full path. Markdown
// output lands next to the source with an .html extension.
func NewPage(kind Kind, source string) *Page {
	p := &Page{Kind: kind, Source: source, ID: source, Output: source}
	if kind == KindStatic {
		return p
	}
	stem := strings.TrimSuffix(source, path.Ext(source))
	p.ID = stem
	if trimmed, ok := strings.CutSuffix(stem, "/index"); ok {
		p.ID = trimmed
	}
	if kind == KindMarkdown {
		p.Output = stem + ".html"
	}
	return p
}

func (p *Page) Identifier() string { return p.ID }
func (p *Page) OutputPath() string { return p.Output }
