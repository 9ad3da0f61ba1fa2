// Package markup holds the document tree the transformation pipeline operates on,
// together with a lenient parser and a serializer for it.
//
// The tree is an owned recursive value: every Element exclusively owns its
// children and no node references its parent or siblings.
package markup

// Node is one entry in a document tree: *Element, *Text, *Raw, *Comment or *Doctype.
type Node interface {
	node()
}

// Attr is a single attribute. Keys may repeat within one element.
type Attr struct {
	Key string
	Val string
}

// Element is a tag with its attributes in source order and its children.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Node
}

// Text is decoded character data.
type Text struct {
	Data string
}

// Raw is pre-rendered markup. It is written verbatim and never parsed or walked.
type Raw struct {
	HTML string
}

// Comment is an HTML comment without its delimiters.
type Comment struct {
	Data string
}

// Doctype is a markup declaration such as "DOCTYPE html".
type Doctype struct {
	Data string
}

func (*Element) node() {}
func (*Text) node()    {}
func (*Raw) node()     {}
func (*Comment) node() {}
func (*Doctype) node() {}

// NewElement builds an element.
func NewElement(name string, attrs []Attr, children ...Node) *Element {
	return &Element{Name: name, Attrs: attrs, Children: children}
}

// NewText builds a text node.
func NewText(data string) *Text {
	return &Text{Data: data}
}

// NewRaw builds a raw markup node.
func NewRaw(html string) *Raw {
	return &Raw{HTML: html}
}

// GetAttr returns the value of the first attribute named key.
func GetAttr(attrs []Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SoleText returns the data of children when it consists of exactly one text node.
func SoleText(children []Node) (string, bool) {
	if len(children) != 1 {
		return "", false
	}
	t, ok := children[0].(*Text)
	if !ok {
		return "", false
	}
	return t.Data, true
}
