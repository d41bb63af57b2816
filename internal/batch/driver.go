package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"agl/internal/compiler"
	"agl/internal/trace"
)

// Driver runs batches. The zero value is not usable; Compiler is required.
type Driver struct {
	Compiler compiler.Invoker

	// ReadFile defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)

	Logger *slog.Logger
	Trace  trace.Sink
}

// NewDriver returns a Driver using the given compiler and os.ReadFile. Events
// are discarded until Trace is replaced.
func NewDriver(c compiler.Invoker, logger *slog.Logger) *Driver {
	return &Driver{Compiler: c, ReadFile: os.ReadFile, Logger: logger, Trace: trace.NopSink{}}
}

// Run compiles and writes every input of cfg in order.
//
// The first failure stops the run and is returned as a *StageError; files
// written by earlier modules are left in place. The returned Result is never
// nil and always carries the final state and history.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	m := NewMachine()
	res := &Result{}
	log := d.logger()

	abort := func(err error) (*Result, error) {
		_ = m.Abort()
		res.Final = m.Current().State
		res.History = m.History()
		var se *StageError
		reason := "Internal"
		idx := m.Current().Index
		source := ""
		if errors.As(err, &se) {
			reason = reasonFor(se.Kind)
			source = se.Path
		}
		trace.SafeRecord(d.Trace, trace.Event{Kind: trace.EventRunAborted, Index: idx, Source: source, Reason: reason})
		log.DebugContext(ctx, "batch aborted", "index", idx, "error", err)
		return res, err
	}

	cfg, err := d.validate(cfg)
	if err != nil {
		return abort(stageError(ErrInvalidConfig, -1, "", err))
	}

	if cfg.OutputFile != "" && !cfg.Concat {
		msg := fmt.Sprintf("output file %q is ignored because concat is not set", cfg.OutputFile)
		res.Advisories = append(res.Advisories, msg)
		trace.SafeRecord(d.Trace, trace.Event{Kind: trace.EventAdvisory, Index: -1, Output: cfg.OutputFile, Reason: "OutputFileIgnored"})
	}

	_, hazards := Plan(cfg)
	if len(hazards) > 0 {
		if cfg.StrictPaths {
			return abort(collisionError(hazards))
		}
		res.Advisories = append(res.Advisories, hazards...)
		for range hazards {
			trace.SafeRecord(d.Trace, trace.Event{Kind: trace.EventAdvisory, Index: -1, Reason: "PathHazard"})
		}
	}

	for i, path := range cfg.Inputs {
		if err := m.Transition(StateReading, i); err != nil {
			return abort(err)
		}
		mod, err := d.read(i, path)
		if err != nil {
			return abort(err)
		}
		trace.SafeRecord(d.Trace, trace.Event{Kind: trace.EventModuleRead, Index: i, Source: path})

		if err := m.Transition(StateCompiling, i); err != nil {
			return abort(err)
		}
		unit, err := d.compile(i, mod, cfg.Mode)
		if err != nil {
			return abort(err)
		}
		trace.SafeRecord(d.Trace, trace.Event{Kind: trace.EventModuleCompiled, Index: i, Source: path})

		if err := m.Transition(StateResolving, i); err != nil {
			return abort(err)
		}
		target := OutputTarget{
			Path: ResolveOutputPath(path, cfg.Concat, cfg.OutputFile, cfg.Inputs[0]),
			Mode: DecideWriteMode(i, cfg.Concat),
		}

		if err := m.Transition(StateWriting, i); err != nil {
			return abort(err)
		}
		payload := FormatUnit(Banner(cfg.Version, unit.SourcePath), unit.Text, target.Mode)
		if err := WriteUnit(target, payload); err != nil {
			return abort(stageError(ErrOutputWrite, i, target.Path, err))
		}
		res.Writes = append(res.Writes, Write{Index: i, Source: path, Target: target, Bytes: len(payload)})

		kind := trace.EventOutputCreated
		if target.Mode == Append {
			kind = trace.EventOutputAppended
		}
		trace.SafeRecord(d.Trace, trace.Event{Kind: kind, Index: i, Source: path, Output: target.Path})
		log.InfoContext(ctx, "wrote unit", "index", i, "source", path, "output", target.Path, "write_mode", string(target.Mode), "mode", cfg.Mode.String())
	}

	if err := m.Transition(StateDone, -1); err != nil {
		return abort(err)
	}
	res.Final = m.Current().State
	res.History = m.History()
	return res, nil
}

// validate checks cfg and returns it with the mode normalized.
func (d *Driver) validate(cfg Config) (Config, error) {
	var errs []error
	if d.Compiler == nil {
		errs = append(errs, errors.New("compiler is required"))
	}
	if len(cfg.Inputs) == 0 {
		errs = append(errs, errors.New("at least one input is required"))
	}
	for i, in := range cfg.Inputs {
		if in == "" {
			errs = append(errs, fmt.Errorf("inputs[%d] is empty", i))
		}
	}
	if cfg.Version == "" {
		errs = append(errs, errors.New("banner version is required"))
	}
	mode, err := compiler.ParseMode(string(cfg.Mode))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Mode = mode
	return cfg, errors.Join(errs...)
}

func (d *Driver) read(i int, path string) (InputModule, error) {
	readFile := d.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	b, err := readFile(path)
	if err != nil {
		return InputModule{}, stageError(ErrInputRead, i, path, err)
	}
	return InputModule{Path: path, Source: string(b)}, nil
}

func (d *Driver) compile(i int, mod InputModule, mode compiler.Mode) (CompiledUnit, error) {
	text, err := d.Compiler.Compile(mod.Source, mode)
	if err != nil {
		return CompiledUnit{}, stageError(ErrCompile, i, mod.Path, err)
	}
	d.logger().Debug("compiled module", "index", i, "source", mod.Path, "mode", mode.String())
	return CompiledUnit{SourcePath: mod.Path, Text: text}, nil
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reasonFor(kind error) string {
	switch kind {
	case ErrInputRead:
		return "InputRead"
	case ErrCompile:
		return "Compile"
	case ErrOutputWrite:
		return "OutputWrite"
	case ErrPathCollision:
		return "PathCollision"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Internal"
	}
}
