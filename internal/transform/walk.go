package transform

import (
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

// DefaultMaxDepth bounds element nesting for Walk.
const DefaultMaxDepth = 512

// Walk applies transformers to nodes using DefaultMaxDepth.
func Walk(nodes []markup.Node, transformers []Transformer, ctx *Context) ([]markup.Node, error) {
	return WalkWithLimit(nodes, transformers, ctx, DefaultMaxDepth)
}

// WalkWithLimit rebuilds each level of the tree, replacing every element with
// the output of the first transformer that matches it. Replacement output is
// not matched again at the level it was inserted, but the children of every
// element in the rebuilt level are walked. The input nodes are never modified.
// The first Replace error aborts the walk.
func WalkWithLimit(nodes []markup.Node, transformers []Transformer, ctx *Context, maxDepth int) ([]markup.Node, error) {
	return walkLevel(nodes, transformers, ctx, 0, maxDepth)
}

func walkLevel(nodes []markup.Node, transformers []Transformer, ctx *Context, depth, maxDepth int) ([]markup.Node, error) {
	if len(nodes) == 0 {
		return nodes, nil
	}
	if depth >= maxDepth {
		return nil, errors.TransformError("maximum element nesting depth exceeded").
			WithContext("max_depth", maxDepth).
			Build()
	}

	out := make([]markup.Node, 0, len(nodes))
	for _, n := range nodes {
		el, ok := n.(*markup.Element)
		if !ok {
			out = append(out, n)
			continue
		}
		t := firstMatch(transformers, el, ctx)
		if t == nil {
			out = append(out, el)
			continue
		}
		replacement, err := t.Replace(el.Name, el.Attrs, el.Children, ctx)
		if err != nil {
			err = errors.Annotate(err, errors.ContextTag, el.Name)
			return nil, errors.Annotate(err, errors.ContextTransformer, t.Name())
		}
		out = append(out, replacement...)
	}

	// Elements are copied so a failed walk leaves the input tree untouched.
	for i, n := range out {
		el, ok := n.(*markup.Element)
		if !ok {
			continue
		}
		children, err := walkLevel(el.Children, transformers, ctx, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		cp := *el
		cp.Children = children
		out[i] = &cp
	}
	return out, nil
}

func firstMatch(transformers []Transformer, el *markup.Element, ctx *Context) Transformer {
	for _, t := range transformers {
		if t.Matches(el.Name, el.Attrs, ctx) {
			return t
		}
	}
	return nil
}
