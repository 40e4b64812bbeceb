package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenLParen           // (
	TokenRParen           // )
	TokenIdent            // and, page-tags, TODO, :status, active
	TokenRef              // [[...]] reference
	TokenString           // "quoted text"
	TokenError
)

var tokenNames = [...]string{"EOF", "(", ")", "identifier", "reference", "string", "error"}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a query expression.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	switch ch := l.input[l.pos]; {
	case ch == '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ch == ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case ch == '"':
		return l.scanString()
	case strings.HasPrefix(l.input[l.pos:], "[["):
		return l.scanReference()
	default:
		return l.scanIdent()
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if r != ',' && !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentChar(r) {
			break
		}
		l.pos += size
	}
	if l.pos == start {
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += size
		return Token{Type: TokenError, Value: l.input[start:l.pos], Pos: start}
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++
	end := strings.IndexByte(l.input[l.pos:], '"')
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: TokenError, Value: l.input[start:], Pos: start}
	}
	value := l.input[l.pos : l.pos+end]
	l.pos += end + 1
	return Token{Type: TokenString, Value: value, Pos: start}
}

func (l *Lexer) scanReference() Token {
	start := l.pos
	end := strings.Index(l.input[l.pos+2:], "]]")
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: TokenError, Value: l.input[start:], Pos: start}
	}
	value := l.input[l.pos+2 : l.pos+2+end]
	l.pos += end + 4
	return Token{Type: TokenRef, Value: strings.TrimSpace(value), Pos: start}
}

func isIdentChar(r rune) bool {
	switch r {
	case '(', ')', '"', '[', ']', ',':
		return false
	}
	return !unicode.IsSpace(r)
}
