package jsliteral

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports the first construct the scanner could not
// interpret. Offset is a byte position into the input.
type SyntaxError struct {
	Offset  int
	Line    int
	Column  int
	Msg     string
	Context string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsliteral: %s at offset %d (line %d, column %d) near %q",
		e.Msg, e.Offset, e.Line, e.Column, e.Context)
}

// Parse decodes exactly one literal. Trailing whitespace, comments,
// and a closing semicolon are permitted; anything else after the
// literal is an error.
func Parse(src []byte) (*Value, error) {
	v, end, err := ParseOne(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, pos: end}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
	}
	if p.pos < len(p.src) {
		return nil, p.errf(p.pos, "unexpected trailing content after literal")
	}
	return v, nil
}

// ParseOne decodes the first complete literal in src and returns the
// byte offset just past it, leaving any remaining content untouched.
// Vendor files carry further script after the assignment, so callers
// extracting an assignment span use this form.
func ParseOne(src []byte) (*Value, int, error) {
	p := &parser{src: src}
	if err := p.skipTrivia(); err != nil {
		return nil, 0, err
	}
	if p.pos >= len(p.src) {
		return nil, 0, p.errf(p.pos, "empty input, expected a literal")
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, 0, err
	}
	return v, p.pos, nil
}

type parser struct {
	src []byte
	pos int
}

func (p *parser) errf(offset int, format string, args ...any) error {
	if offset > len(p.src) {
		offset = len(p.src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	lo, hi := offset-20, offset+20
	if lo < 0 {
		lo = 0
	}
	if hi > len(p.src) {
		hi = len(p.src)
	}
	return &SyntaxError{
		Offset:  offset,
		Line:    line,
		Column:  col,
		Msg:     fmt.Sprintf(format, args...),
		Context: string(p.src[lo:hi]),
	}
}

// skipTrivia consumes whitespace and both comment styles.
func (p *parser) skipTrivia() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			start := p.pos
			p.pos += 2
			for {
				if p.pos+1 >= len(p.src) {
					return p.errf(start, "unterminated block comment")
				}
				if p.src[p.pos] == '*' && p.src[p.pos+1] == '/' {
					p.pos += 2
					break
				}
				p.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) parseValue() (*Value, error) {
	start := p.pos
	c := p.src[p.pos]
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &Value{kind: StringKind, str: s}, nil
	case c == '/':
		// Comments were consumed by skipTrivia, so a slash in value
		// position begins a regex literal.
		return p.parseRegex()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		ident := p.scanIdent()
		switch ident {
		case "true":
			return &Value{kind: BoolKind, b: true}, nil
		case "false":
			return &Value{kind: BoolKind, b: false}, nil
		case "null", "undefined":
			return &Value{kind: NullKind}, nil
		default:
			return nil, p.errf(start, "unexpected identifier %q in value position", ident)
		}
	default:
		return nil, p.errf(start, "unexpected character %q", string(rune(c)))
	}
}

func (p *parser) parseObject() (*Value, error) {
	p.pos++ // '{'
	obj := newObject()
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errf(p.pos, "unterminated object")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return &Value{kind: ObjectKind, obj: obj}, nil
		}

		keyStart := p.pos
		var key string
		switch c := p.src[p.pos]; {
		case c == '"' || c == '\'':
			s, err := p.parseString()
			if err != nil {
				return nil, err
			}
			key = s
		case isIdentStart(c):
			key = p.scanIdent()
		default:
			return nil, p.errf(keyStart, "expected object key, found %q", string(rune(c)))
		}

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errf(p.pos, "expected ':' after object key %q", key)
		}
		p.pos++
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errf(p.pos, "unterminated object, expected value for key %q", key)
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.set(key, v)

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errf(p.pos, "unterminated object")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++ // trailing comma before '}' handled at loop top
		case '}':
			// next iteration closes
		default:
			return nil, p.errf(p.pos, "expected ',' or '}' in object, found %q", string(rune(p.src[p.pos])))
		}
	}
}

func (p *parser) parseArray() (*Value, error) {
	p.pos++ // '['
	var items []*Value
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errf(p.pos, "unterminated array")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return &Value{kind: ArrayKind, arr: items}, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.src) {
			return nil, p.errf(p.pos, "unterminated array")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			// next iteration closes
		default:
			return nil, p.errf(p.pos, "expected ',' or ']' in array, found %q", string(rune(p.src[p.pos])))
		}
	}
}

func (p *parser) parseString() (string, error) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errf(start, "unterminated string")
		}
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", p.errf(start, "unterminated string escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '0':
				b.WriteByte(0)
			case 'u':
				if p.pos+4 > len(p.src) {
					return "", p.errf(p.pos, "truncated \\u escape")
				}
				n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+4]), 16, 32)
				if err != nil {
					return "", p.errf(p.pos, "invalid \\u escape %q", string(p.src[p.pos:p.pos+4]))
				}
				p.pos += 4
				b.WriteRune(rune(n))
			case 'x':
				if p.pos+2 > len(p.src) {
					return "", p.errf(p.pos, "truncated \\x escape")
				}
				n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+2]), 16, 16)
				if err != nil {
					return "", p.errf(p.pos, "invalid \\x escape %q", string(p.src[p.pos:p.pos+2]))
				}
				p.pos += 2
				b.WriteRune(rune(n))
			default:
				// JavaScript passes unknown escapes through verbatim.
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *parser) parseNumber() (*Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	digits := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		return nil, p.errf(start, "malformed number")
	}
	whole := true
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		whole = false
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		whole = false
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		expDigits := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			return nil, p.errf(start, "malformed number exponent")
		}
	}
	text := string(p.src[start:p.pos])
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errf(start, "malformed number %q", text)
	}
	return &Value{kind: NumberKind, num: f, whole: whole}, nil
}

// parseRegex scans /pattern/flags, honoring escapes and character
// classes so an embedded '/' inside [...] does not end the literal.
// The pattern is captured as opaque text and never compiled.
func (p *parser) parseRegex() (*Value, error) {
	start := p.pos
	p.pos++ // '/'
	inClass := false
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, p.errf(start, "unterminated regex literal")
		}
		c := p.src[p.pos]
		switch {
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return nil, p.errf(start, "unterminated regex literal")
			}
			b.WriteByte(c)
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			p.pos++
			flagStart := p.pos
			for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			return &Value{kind: RegexKind, str: b.String(), flags: string(p.src[flagStart:p.pos])}, nil
		case c == '\n':
			return nil, p.errf(start, "unterminated regex literal")
		}
		b.WriteByte(c)
		p.pos++
	}
}

func (p *parser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
