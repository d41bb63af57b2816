package batch

import (
	"errors"
	"fmt"
)

var (
	ErrInputRead     = errors.New("input read failed")
	ErrCompile       = errors.New("compile failed")
	ErrOutputWrite   = errors.New("output write failed")
	ErrPathCollision = errors.New("output path collision")
	ErrInvalidConfig = errors.New("invalid batch config")
)

// StageError is the single failure that aborted a run. Kind is one of the
// sentinel errors above; Err is the underlying cause (for ErrCompile, the
// compiler's diagnostic verbatim).
type StageError struct {
	Kind  error
	Index int
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error { return []error{e.Kind, e.Err} }

func stageError(kind error, index int, path string, err error) error {
	return &StageError{Kind: kind, Index: index, Path: path, Err: err}
}
