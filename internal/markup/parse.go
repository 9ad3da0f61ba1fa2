package markup

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ParseError describes malformed markup. Line and Column are 1-based.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Parse reads src into a node sequence.
//
// The parser is deliberately lenient about tag names: any run of characters
// other than whitespace, '/', '<' and '>' that starts with a letter or '$' is
// accepted, so sigil tags such as <$title/> and <$> are ordinary elements.
// Elements left open at the end of input are closed implicitly; a closing tag
// closes the nearest open element with the same name.
func Parse(src string) ([]Node, error) {
	p := &parser{src: src}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.root, nil
}

type parser struct {
	src   string
	pos   int
	root  []Node
	stack []*Element
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		var err error
		switch {
		case strings.HasPrefix(rest, "<!--"):
			err = p.parseComment()
		case strings.HasPrefix(rest, "</"):
			err = p.parseEndTag()
		case strings.HasPrefix(rest, "<!"):
			err = p.parseDoctype()
		case len(rest) > 1 && rest[0] == '<' && isTagStart(rest[1]):
			err = p.parseStartTag()
		default:
			p.parseText()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) errorf(at int, format string, args ...any) *ParseError {
	line, col := 1, 1
	for _, r := range p.src[:at] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) appendNode(n Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, n)
}

// appendText merges adjacent text so "a < b" stays a single node.
func (p *parser) appendText(data string) {
	siblings := p.root
	if len(p.stack) > 0 {
		siblings = p.stack[len(p.stack)-1].Children
	}
	if n := len(siblings); n > 0 {
		if prev, ok := siblings[n-1].(*Text); ok {
			prev.Data += data
			return
		}
	}
	p.appendNode(&Text{Data: data})
}

func (p *parser) parseText() {
	start := p.pos
	end := strings.IndexByte(p.src[start+1:], '<')
	if end < 0 {
		p.pos = len(p.src)
	} else {
		p.pos = start + 1 + end
	}
	p.appendText(html.UnescapeString(p.src[start:p.pos]))
}

func (p *parser) parseComment() error {
	start := p.pos
	end := strings.Index(p.src[start+4:], "-->")
	if end < 0 {
		return p.errorf(start, "unterminated comment")
	}
	p.appendNode(&Comment{Data: p.src[start+4 : start+4+end]})
	p.pos = start + 4 + end + 3
	return nil
}

func (p *parser) parseDoctype() error {
	start := p.pos
	end := strings.IndexByte(p.src[start:], '>')
	if end < 0 {
		return p.errorf(start, "unterminated declaration")
	}
	p.appendNode(&Doctype{Data: p.src[start+2 : start+end]})
	p.pos = start + end + 1
	return nil
}

func (p *parser) parseEndTag() error {
	start := p.pos
	end := strings.IndexByte(p.src[start:], '>')
	if end < 0 {
		return p.errorf(start, "unterminated closing tag")
	}
	name := strings.TrimSpace(p.src[start+2 : start+end])
	p.pos = start + end + 1
	if name == "" {
		return p.errorf(start, "empty closing tag")
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		if strings.EqualFold(p.stack[i].Name, name) {
			p.stack = p.stack[:i]
			return nil
		}
	}
	if isVoid(name) {
		return nil
	}
	return p.errorf(start, "unexpected closing tag </%s>", name)
}

func (p *parser) parseStartTag() error {
	start := p.pos
	i := start + 1
	for i < len(p.src) && !isNameEnd(p.src[i]) {
		i++
	}
	el := &Element{Name: p.src[start+1 : i]}

	selfClosing := false
	for {
		i = skipSpace(p.src, i)
		if i >= len(p.src) || p.src[i] == '<' {
			return p.errorf(start, "unterminated tag <%s>", el.Name)
		}
		if p.src[i] == '>' {
			i++
			break
		}
		if strings.HasPrefix(p.src[i:], "/>") {
			selfClosing = true
			i += 2
			break
		}
		if p.src[i] == '/' {
			i++
			continue
		}

		keyStart := i
		for i < len(p.src) && !isAttrNameEnd(p.src[i]) {
			i++
		}
		attr := Attr{Key: p.src[keyStart:i]}
		if attr.Key == "" {
			// A stray '=' or quote where a name was expected.
			attr.Key = p.src[i : i+1]
			i++
		}

		j := skipSpace(p.src, i)
		if j < len(p.src) && p.src[j] == '=' {
			j = skipSpace(p.src, j+1)
			if j >= len(p.src) {
				return p.errorf(start, "unterminated tag <%s>", el.Name)
			}
			if q := p.src[j]; q == '"' || q == '\'' {
				end := strings.IndexByte(p.src[j+1:], q)
				if end < 0 {
					return p.errorf(j, "unterminated attribute value for %q", attr.Key)
				}
				attr.Val = html.UnescapeString(p.src[j+1 : j+1+end])
				i = j + 1 + end + 1
			} else {
				valStart := j
				for j < len(p.src) && !isSpace(p.src[j]) && p.src[j] != '>' {
					j++
				}
				attr.Val = html.UnescapeString(p.src[valStart:j])
				i = j
			}
		}
		el.Attrs = append(el.Attrs, attr)
	}
	p.pos = i
	p.appendNode(el)

	switch {
	case selfClosing || isVoid(el.Name):
		return nil
	case isRawText(el.Name):
		return p.parseRawText(el)
	default:
		p.stack = append(p.stack, el)
		return nil
	}
}

// parseRawText consumes everything up to the matching end tag as a single text child.
func (p *parser) parseRawText(el *Element) error {
	closing := "</" + strings.ToLower(el.Name)
	end := strings.Index(strings.ToLower(p.src[p.pos:]), closing)
	if end < 0 {
		return p.errorf(p.pos, "unterminated <%s> element", el.Name)
	}
	if content := p.src[p.pos : p.pos+end]; content != "" {
		el.Children = append(el.Children, &Text{Data: content})
	}

	tagStart := p.pos + end
	gt := strings.IndexByte(p.src[tagStart:], '>')
	if gt < 0 {
		return p.errorf(tagStart, "unterminated closing tag")
	}
	p.pos = tagStart + gt + 1
	return nil
}

func isTagStart(c byte) bool {
	return c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameEnd(c byte) bool {
	return isSpace(c) || c == '/' || c == '>' || c == '<'
}

func isAttrNameEnd(c byte) bool {
	return isSpace(c) || c == '=' || c == '>' || c == '/' || c == '<' || c == '"' || c == '\''
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}
