// Package compiler turns AGL source into GameShark patch-code text.
//
// Pipeline: AGL source → Lex → Parse → Generate(mode) → code lines
//
// The batch driver only depends on the Invoker interface; Default is the
// reference implementation.
package compiler

import (
	"fmt"
	"strings"
)

// Mode selects the target console. One mode applies to a whole run.
type Mode string

const (
	ModePSX Mode = "psx"
	ModeN64 Mode = "n64"
)

// Modes lists every supported target in help order.
func Modes() []Mode { return []Mode{ModePSX, ModeN64} }

// ParseMode accepts a mode name case-insensitively.
func ParseMode(raw string) (Mode, error) {
	n := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch n {
	case ModePSX, ModeN64:
		return n, nil
	case "":
		return "", fmt.Errorf("mode is required")
	default:
		return "", fmt.Errorf("unknown mode %q (expected %s)", raw, ModeNames())
	}
}

func (m Mode) String() string { return strings.ToUpper(string(m)) }

// ModeNames joins the mode names with "|" for help and error text.
func ModeNames() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, "|")
}
