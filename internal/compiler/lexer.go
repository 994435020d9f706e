package compiler

import (
	"strings"
)

// tag is one recognized element: an open tag, its attributes and, once closed, its body.
type tag struct {
	attrs map[string]string

	// start/end delimit the whole element in the source.
	start, end int
	// bodyStart/bodyEnd delimit the inner text (empty for self-closing tags).
	bodyStart, bodyEnd int
}

func (t tag) body(src string) string {
	return src[t.bodyStart:t.bodyEnd]
}

// lexer scans for a single tag shape (<name attr="v">body</name>) in a source string.
// It is not a general XML tokenizer: entities, comments and nesting are not understood.
type lexer struct {
	src  string
	name string
}

// next finds the first complete element at or after pos.
// ok is false when no open tag exists. terminated is false when an open tag
// exists but its attribute list or closing tag never ends.
func (l lexer) next(pos int) (t tag, ok, terminated bool) {
	openStart, attrs, openEnd, selfClosing, found, complete := l.findOpen(pos)
	if !found {
		return tag{}, false, false
	}
	if !complete {
		return tag{start: openStart}, true, false
	}

	t = tag{attrs: attrs, start: openStart, bodyStart: openEnd, bodyEnd: openEnd, end: openEnd}
	if selfClosing {
		return t, true, true
	}

	closeStart, closeEnd, closed := l.findClose(openEnd)
	if !closed {
		return t, true, false
	}
	t.bodyEnd = closeStart
	t.end = closeEnd
	return t, true, true
}

// findOpen locates "<name" followed by a name terminator and parses its attributes.
func (l lexer) findOpen(pos int) (start int, attrs map[string]string, end int, selfClosing, found, complete bool) {
	needle := "<" + l.name
	for pos <= len(l.src) {
		idx := strings.Index(l.src[pos:], needle)
		if idx < 0 {
			return 0, nil, 0, false, false, false
		}
		start = pos + idx
		after := start + len(needle)
		if after < len(l.src) && !isNameTerminator(l.src[after]) {
			// <boltActionX ...> is a different element.
			pos = after
			continue
		}
		attrs, end, selfClosing, complete = parseAttrs(l.src, after)
		return start, attrs, end, selfClosing, true, complete
	}
	return 0, nil, 0, false, false, false
}

// findClose locates "</name>" (whitespace allowed before '>') at or after pos.
func (l lexer) findClose(pos int) (start, end int, ok bool) {
	needle := "</" + l.name
	for pos <= len(l.src) {
		idx := strings.Index(l.src[pos:], needle)
		if idx < 0 {
			return 0, 0, false
		}
		start = pos + idx
		i := start + len(needle)
		for i < len(l.src) && isSpace(l.src[i]) {
			i++
		}
		if i < len(l.src) && l.src[i] == '>' {
			return start, i + 1, true
		}
		pos = start + len(needle)
	}
	return 0, 0, false
}

type attrState int

const (
	stateBeforeName attrState = iota
	stateName
	stateAfterName
	stateBeforeValue
	stateQuoted
	stateBare
)

// parseAttrs reads attributes starting right after the tag name until '>' or "/>".
// The first occurrence of a duplicated attribute wins. complete is false when the
// source ends (or a quote never closes) before the tag does.
func parseAttrs(src string, pos int) (attrs map[string]string, end int, selfClosing, complete bool) {
	attrs = make(map[string]string)
	state := stateBeforeName
	var name strings.Builder
	var value strings.Builder
	var quote byte

	set := func() {
		key := strings.ToLower(name.String())
		if key == "" {
			return
		}
		if _, exists := attrs[key]; !exists {
			attrs[key] = value.String()
		}
		name.Reset()
		value.Reset()
	}

	for i := pos; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateBeforeName, stateAfterName:
			switch {
			case isSpace(c):
			case c == '>':
				set()
				return attrs, i + 1, false, true
			case c == '/' && i+1 < len(src) && src[i+1] == '>':
				set()
				return attrs, i + 2, true, true
			case c == '=' && state == stateAfterName:
				state = stateBeforeValue
			default:
				// A new attribute starts; a previous valueless one is kept as "".
				set()
				name.WriteByte(c)
				state = stateName
			}
		case stateName:
			switch {
			case c == '=':
				state = stateBeforeValue
			case isSpace(c):
				state = stateAfterName
			case c == '>' || (c == '/' && i+1 < len(src) && src[i+1] == '>'):
				state = stateAfterName
				i--
			default:
				name.WriteByte(c)
			}
		case stateBeforeValue:
			switch {
			case isSpace(c):
			case c == '"' || c == '\'':
				quote = c
				state = stateQuoted
			case c == '>':
				set()
				return attrs, i + 1, false, true
			default:
				value.WriteByte(c)
				state = stateBare
			}
		case stateQuoted:
			if c == quote {
				set()
				state = stateBeforeName
				continue
			}
			value.WriteByte(c)
		case stateBare:
			switch {
			case isSpace(c):
				set()
				state = stateBeforeName
			case c == '>':
				set()
				return attrs, i + 1, false, true
			case c == '/' && i+1 < len(src) && src[i+1] == '>':
				set()
				return attrs, i + 2, true, true
			default:
				value.WriteByte(c)
			}
		}
	}
	return attrs, len(src), false, false
}

func isNameTerminator(c byte) bool {
	return isSpace(c) || c == '>' || c == '/'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
