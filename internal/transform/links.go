package transform

import (
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

// LinkSigil prefixes attribute values that name a resource identifier.
const LinkSigil = "@"

// Links rewrites @identifier attribute values into paths relative to the
// directory of the resource being processed.
type Links struct{}

// NewLinks returns a link resolver.
func NewLinks() *Links { return &Links{} }

func (l *Links) Name() string { return "links" }

func (l *Links) Matches(_ string, attrs []markup.Attr, _ *Context) bool {
	return hasAttrPrefix(attrs, LinkSigil)
}

func (l *Links) Replace(tag string, attrs []markup.Attr, children []markup.Node, ctx *Context) ([]markup.Node, error) {
	replaced := make([]markup.Attr, len(attrs))
	for i, a := range attrs {
		replaced[i] = a
		if !strings.HasPrefix(a.Val, LinkSigil) {
			continue
		}
		link, err := l.resolve(a.Val, ctx)
		if err != nil {
			return nil, errors.Annotate(err, errors.ContextAttribute, a.Key)
		}
		replaced[i].Val = link
	}
	return []markup.Node{markup.NewElement(tag, replaced, children...)}, nil
}

func (l *Links) resolve(ref string, ctx *Context) (string, error) {
	id := strings.TrimPrefix(ref, LinkSigil)
	if ctx == nil || ctx.Resources == nil {
		return "", errors.InternalError("link resolution requires a resource registry").Build()
	}
	target, ok := ctx.Resources.LookupByIdentifier(id)
	if !ok {
		return "", errors.TransformError("unknown identifier: "+ref).
			WithContext(errors.ContextReference, ref).
			WithContext(errors.ContextPath, ctx.SourcePath).
			Build()
	}
	return RelativeLink(ctx.SourcePath, target.OutputPath())
}

// RelativeLink computes the slash-separated path from the directory holding
// source to target. A source without a parent directory yields target as is.
func RelativeLink(source, target string) (string, error) {
	dir := path.Dir(filepath.ToSlash(source))
	if dir == "." || dir == "" {
		return checkUTF8(target)
	}
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(target))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTransform, "cannot compute relative link").
			WithContext(errors.ContextPath, source).
			WithContext(errors.ContextReference, target).
			Build()
	}
	return checkUTF8(filepath.ToSlash(rel))
}

func checkUTF8(link string) (string, error) {
	if !utf8.ValidString(link) {
		return "", errors.TransformError("relative link is not valid UTF-8").
			WithContext(errors.ContextReference, link).
			Build()
	}
	return link, nil
}
