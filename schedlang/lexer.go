package schedlang

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol // one of ( ) [ ] , : @ *
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(line int, src string) *lexer {
	return &lexer{src: []rune(src), line: line}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	c := l.src[l.pos]
	switch {
	case strings.ContainsRune("()[],:@*", c):
		l.pos++
		return token{kind: tokSymbol, text: string(c), line: l.line}, nil

	case c == '"' || c == '\'':
		return l.scanString(c)

	case unicode.IsDigit(c) || c == '-' || c == '.':
		return l.scanNumber()

	case unicode.IsLetter(c) || c == '_':
		start := l.pos
		for l.pos < len(l.src) &&
			(unicode.IsLetter(l.src[l.pos]) ||
				unicode.IsDigit(l.src[l.pos]) ||
				l.src[l.pos] == '_') {
			l.pos++
		}
		return token{
			kind: tokIdent,
			text: string(l.src[start:l.pos]),
			line: l.line,
		}, nil

	default:
		return token{}, configErrorf(l.line, "unexpected character %q", c)
	}
}

func (l *lexer) scanString(quote rune) (token, error) {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, configErrorf(l.line, "unterminated string")
	}
	text := string(l.src[start:l.pos])
	l.pos++ // closing quote
	return token{kind: tokString, text: text, line: l.line}, nil
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	digits := false
	for l.pos < len(l.src) &&
		(unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		if unicode.IsDigit(l.src[l.pos]) {
			digits = true
		}
		l.pos++
	}
	if !digits {
		return token{}, configErrorf(l.line, "malformed number")
	}
	return token{
		kind: tokNumber,
		text: string(l.src[start:l.pos]),
		line: l.line,
	}, nil
}
