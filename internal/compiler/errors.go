package compiler

import "fmt"

// Error is a positioned compile diagnostic. Line and Col are 1-based; zero
// means the position is unknown.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func errorf(line, col int, format string, args ...any) error {
	return &Error{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func errorAt(tok Token, format string, args ...any) error {
	return errorf(tok.Line, tok.Col, format, args...)
}
