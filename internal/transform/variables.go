package transform

import (
	"maps"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

// VariableSigil prefixes variable tags (<$name/>) and attribute values (class="$name").
const VariableSigil = "$"

// Variables substitutes named values into tags and attribute values.
type Variables struct {
	values map[string]string
}

// NewVariables copies values into a new transformer.
func NewVariables(values map[string]string) *Variables {
	return &Variables{values: maps.Clone(values)}
}

func (v *Variables) Name() string { return "variables" }

func (v *Variables) Matches(tag string, attrs []markup.Attr, _ *Context) bool {
	return strings.HasPrefix(tag, VariableSigil) || hasAttrPrefix(attrs, VariableSigil)
}

func (v *Variables) Replace(tag string, attrs []markup.Attr, children []markup.Node, _ *Context) ([]markup.Node, error) {
	if strings.HasPrefix(tag, VariableSigil) {
		value, err := v.lookup(tag)
		if err != nil {
			return nil, err
		}
		return []markup.Node{markup.NewText(value)}, nil
	}

	replaced := make([]markup.Attr, len(attrs))
	for i, a := range attrs {
		replaced[i] = a
		if !strings.HasPrefix(a.Val, VariableSigil) {
			continue
		}
		value, err := v.lookup(a.Val)
		if err != nil {
			return nil, errors.Annotate(err, errors.ContextAttribute, a.Key)
		}
		replaced[i].Val = value
	}
	return []markup.Node{markup.NewElement(tag, replaced, children...)}, nil
}

func (v *Variables) lookup(ref string) (string, error) {
	value, ok := v.values[strings.TrimPrefix(ref, VariableSigil)]
	if !ok {
		return "", errors.TransformError("unknown variable "+ref).
			WithContext(errors.ContextReference, ref).
			Build()
	}
	return value, nil
}
