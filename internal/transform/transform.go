// Package transform walks document trees and applies an ordered list of
// transformers to the elements they claim.
package transform

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// Context is the read-only bundle handed to transformers while one resource
// is processed. Transformers must not mutate it.
type Context struct {
	Resource   resource.Resource
	SourcePath string
	Resources  *resource.Registry
	Data       any
}

// Transformer claims elements and produces their replacement.
type Transformer interface {
	Name() string

	// Matches reports whether the transformer claims an element.
	Matches(tag string, attrs []markup.Attr, ctx *Context) bool

	// Replace returns the nodes spliced in place of a claimed element. It may
	// return zero, one or many nodes and takes ownership of children.
	Replace(tag string, attrs []markup.Attr, children []markup.Node, ctx *Context) ([]markup.Node, error)
}

// Describe joins transformer names for log lines and processor names.
func Describe(transformers []Transformer) string {
	names := make([]string, len(transformers))
	for i, t := range transformers {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

func hasAttrPrefix(attrs []markup.Attr, sigil string) bool {
	for _, a := range attrs {
		if strings.HasPrefix(a.Val, sigil) {
			return true
		}
	}
	return false
}
