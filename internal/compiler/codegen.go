package compiler

import (
	"fmt"
	"strings"
)

type opKind int

const (
	opWrite opKind = iota
	opIfEq
	opIfNe
)

type codeKey struct {
	op    opKind
	width Width
}

// codeTypes maps each operation to its GameShark code-type prefix per target.
var codeTypes = map[Mode]map[codeKey]string{
	ModePSX: {
		{opWrite, Width8}:  "30",
		{opWrite, Width16}: "80",
		{opIfEq, Width8}:   "E0",
		{opIfNe, Width8}:   "E1",
		{opIfEq, Width16}:  "D0",
		{opIfNe, Width16}:  "D1",
	},
	ModeN64: {
		{opWrite, Width8}:  "80",
		{opWrite, Width16}: "81",
		{opIfEq, Width8}:   "D0",
		{opIfNe, Width8}:   "D2",
		{opIfEq, Width16}:  "D1",
		{opIfNe, Width16}:  "D3",
	},
}

// Generate emits one code line per write, preceded by its guard line when the
// write sits inside a conditional block. Lines are joined with "\n" and the
// result has no trailing newline.
func Generate(stmts []Stmt, mode Mode) (string, error) {
	table, ok := codeTypes[mode]
	if !ok {
		return "", fmt.Errorf("unsupported mode %q", string(mode))
	}

	var lines []string
	for _, s := range stmts {
		switch s := s.(type) {
		case *WriteStmt:
			lines = append(lines, codeLine(table[codeKey{opWrite, s.Width}], s.Addr, s.Value))
		case *IfStmt:
			op := opIfEq
			if s.NotEqual {
				op = opIfNe
			}
			guard := codeLine(table[codeKey{op, s.Width}], s.Addr, s.Value)
			for _, w := range s.Body {
				lines = append(lines, guard, codeLine(table[codeKey{opWrite, w.Width}], w.Addr, w.Value))
			}
		default:
			return "", fmt.Errorf("codegen: unhandled statement %T", s)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// codeLine formats "PPAAAAAA VVVV": prefix, low 24 address bits, value.
func codeLine(prefix string, addr uint32, value uint16) string {
	return fmt.Sprintf("%s%06x %04x", prefix, addr&0xFFFFFF, value)
}
