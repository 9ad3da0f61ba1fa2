package markup

import (
	"strings"

	"golang.org/x/net/html/atom"
)

func lookup(name string) atom.Atom {
	return atom.Lookup([]byte(strings.ToLower(name)))
}

// isVoid reports elements that never have content or an end tag.
func isVoid(name string) bool {
	switch lookup(name) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return true
	}
	return false
}

// isRawText reports elements whose content is not markup and is never escaped.
func isRawText(name string) bool {
	switch lookup(name) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}

// preservesWhitespace reports elements whose text must survive Trim untouched.
func preservesWhitespace(name string) bool {
	switch lookup(name) {
	case atom.Pre, atom.Code, atom.Textarea, atom.Script, atom.Style:
		return true
	}
	return false
}
