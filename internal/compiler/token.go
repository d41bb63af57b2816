package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	IDENTIFIER // keyword or bare word
	NUMBER     // decimal or 0x-prefixed hex literal

	LBRACE // {
	RBRACE // }
	EQUALS // ==
	NOT_EQ // !=
	SEMI   // ; (optional statement separator)
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	LBRACE:     "{",
	RBRACE:     "}",
	EQUALS:     "==",
	NOT_EQ:     "!=",
	SEMI:       ";",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexeme with its source position (1-based).
type Token struct {
	Type  TokenType
	Value string
	Num   uint64
	Line  int
	Col   int
}

func (t Token) String() string {
	switch t.Type {
	case IDENTIFIER:
		return fmt.Sprintf("%d:%d IDENTIFIER %q", t.Line, t.Col, t.Value)
	case NUMBER:
		return fmt.Sprintf("%d:%d NUMBER %s", t.Line, t.Col, t.Value)
	default:
		return fmt.Sprintf("%d:%d %s", t.Line, t.Col, t.Type)
	}
}
