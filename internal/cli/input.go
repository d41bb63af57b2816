package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"agl/internal/compiler"
)

const (
	ExitSuccess           = 0
	ExitCompileFailure    = 1
	ExitInvalidInvocation = 2
	ExitIOError           = 3
	ExitInternalError     = 4
)

// Config keys shared by flags, env vars (AGL_<KEY>, dashes as underscores)
// and the config file.
const (
	keyMode        = "mode"
	keyConcat      = "concat"
	keyOutputFile  = "output-file"
	keyStrictPaths = "strict-paths"
	keyTrace       = "trace"
	keyRecordDir   = "record-dir"
	keyLogLevel    = "log-level"
)

type TraceConfig struct {
	Enabled bool
	Path    string
}

// Invocation is the fully resolved description of a run. Everything that
// can come from flags, env or a config file has been merged before it is
// built; Execute reads nothing else.
//
// Input paths are kept exactly as given: they appear verbatim in banner lines
// and drive output path derivation.
type Invocation struct {
	Inputs      []string
	Mode        compiler.Mode
	Concat      bool
	OutputFile  string
	StrictPaths bool
	Trace       TraceConfig
	RecordDir   string
	LogLevel    slog.Level
	Version     string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation merges positional inputs with the layered settings in v.
func ParseInvocation(v *viper.Viper, inputs []string, version string) (Invocation, error) {
	if v == nil {
		return Invocation{}, invalidInvocationf("no configuration")
	}
	if len(inputs) == 0 {
		return Invocation{}, invalidInvocationf("at least one input file is required")
	}
	for i, in := range inputs {
		if in == "" {
			return Invocation{}, invalidInvocationf("input %d is empty", i)
		}
	}

	rawMode := v.GetString(keyMode)
	if strings.TrimSpace(rawMode) == "" {
		return Invocation{}, invalidInvocationf("--mode is required")
	}
	mode, err := compiler.ParseMode(rawMode)
	if err != nil {
		return Invocation{}, invalidInvocationf("invalid --mode: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return Invocation{}, invalidInvocationf("invalid --log-level %q", v.GetString(keyLogLevel))
	}

	inv := Invocation{
		Inputs:      append([]string(nil), inputs...),
		Mode:        mode,
		Concat:      v.GetBool(keyConcat),
		OutputFile:  v.GetString(keyOutputFile),
		StrictPaths: v.GetBool(keyStrictPaths),
		RecordDir:   v.GetString(keyRecordDir),
		LogLevel:    level,
		Version:     version,
	}
	if p := v.GetString(keyTrace); p != "" {
		inv.Trace = TraceConfig{Enabled: true, Path: p}
	}
	return inv, nil
}

// ExitCode extracts a semantic exit code from an invocation error.
// Unknown errors map to ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}
