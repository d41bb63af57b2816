package compiler

import (
	"strconv"
	"strings"
)

// Lex converts AGL source into tokens. The slice always ends with EOF.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var tokens []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (lx *lexer) peek(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() byte {
	c := lx.src[lx.pos]
	lx.pos++
	if c == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return c
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		c := lx.peek(0)
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance()
		case c == '/' && lx.peek(1) == '/':
			for lx.pos < len(lx.src) && lx.peek(0) != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (Token, error) {
	lx.skipSpaceAndComments()
	line, col := lx.line, lx.col
	if lx.pos >= len(lx.src) {
		return Token{Type: EOF, Line: line, Col: col}, nil
	}

	c := lx.peek(0)
	switch {
	case c == '{':
		lx.advance()
		return Token{Type: LBRACE, Value: "{", Line: line, Col: col}, nil
	case c == '}':
		lx.advance()
		return Token{Type: RBRACE, Value: "}", Line: line, Col: col}, nil
	case c == ';':
		lx.advance()
		return Token{Type: SEMI, Value: ";", Line: line, Col: col}, nil
	case c == '=' && lx.peek(1) == '=':
		lx.advance()
		lx.advance()
		return Token{Type: EQUALS, Value: "==", Line: line, Col: col}, nil
	case c == '!' && lx.peek(1) == '=':
		lx.advance()
		lx.advance()
		return Token{Type: NOT_EQ, Value: "!=", Line: line, Col: col}, nil
	case isDigit(c):
		return lx.number(line, col)
	case isIdentStart(c):
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentPart(lx.peek(0)) {
			lx.advance()
		}
		return Token{Type: IDENTIFIER, Value: lx.src[start:lx.pos], Line: line, Col: col}, nil
	default:
		return Token{}, errorf(line, col, "unexpected character %q", c)
	}
}

func (lx *lexer) number(line, col int) (Token, error) {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.peek(0)) {
		lx.advance()
	}
	text := lx.src[start:lx.pos]

	var (
		n   uint64
		err error
	)
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") {
		n, err = strconv.ParseUint(lower[2:], 16, 64)
	} else {
		n, err = strconv.ParseUint(text, 10, 64)
	}
	if err != nil {
		return Token{}, errorf(line, col, "invalid number %q", text)
	}
	return Token{Type: NUMBER, Value: text, Num: n, Line: line, Col: col}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
