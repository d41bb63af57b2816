package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"agl/internal/batch"
	"agl/internal/compiler"
	"agl/internal/runlog"
	"agl/internal/trace"
)

type CLIResult struct {
	ExitCode  int
	Batch     *batch.Result
	TraceHash string
	RunID     string
}

// ExecuteWithCompiler maps an Invocation onto one batch run.
//
// Responsibilities:
//   - Print advisories to Streams.Out; they never change the exit code.
//   - Write the trace (when enabled) after the run, also when it aborted or
//     the compiler panicked.
//   - Keep the run record current when --record-dir is set (best-effort).
//   - Translate the batch outcome into a semantic exit code, including panics.
func ExecuteWithCompiler(ctx context.Context, inv Invocation, streams Streams, compile compiler.Invoker) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	if compile == nil {
		return res, fmt.Errorf("nil compiler")
	}
	if streams.Out == nil {
		streams.Out = io.Discard
	}
	if streams.Err == nil {
		streams.Err = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(streams.Err, &slog.HandlerOptions{Level: inv.LogLevel}))

	var (
		rec *runlog.Recorder
		run runlog.Run
	)
	if inv.RecordDir != "" {
		if st, err := runlog.NewStore(inv.RecordDir); err == nil {
			rec = &runlog.Recorder{Store: st}
			run, err = rec.Start(runlog.Run{
				Version:    inv.Version,
				Mode:       string(inv.Mode),
				Concat:     inv.Concat,
				OutputFile: inv.OutputFile,
				Inputs:     inv.Inputs,
			})
			if err != nil {
				logger.WarnContext(ctx, "run record not started", "error", err)
				rec = nil
			} else {
				res.RunID = run.RunID
			}
		}
	}

	recorder := trace.NewRecorder()
	driver := batch.NewDriver(compile, logger)
	driver.Trace = recorder

	// finishTrace hashes the recorded events and writes the trace file. A write
	// failure is returned only when the run itself succeeded.
	finishTrace := func(runErr error) error {
		tr := recorder.Trace(string(inv.Mode), inv.Concat)
		if h, err := tr.Hash(); err == nil {
			res.TraceHash = h
		}
		if !inv.Trace.Enabled {
			return nil
		}
		if err := trace.WriteFile(inv.Trace.Path, tr); err != nil {
			if runErr == nil {
				return err
			}
			logger.WarnContext(ctx, "trace not written", "path", inv.Trace.Path, "error", err)
		}
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			execErr = fmt.Errorf("panic: %v", r)
			_ = finishTrace(execErr)
		}
		if rec != nil {
			if err := rec.Finish(run, res.Batch.Outputs(), res.TraceHash, execErr); err != nil {
				logger.WarnContext(ctx, "run record not finished", "run_id", run.RunID, "error", err)
			}
		}
	}()

	br, runErr := driver.Run(ctx, batch.Config{
		Inputs:      inv.Inputs,
		Mode:        inv.Mode,
		Concat:      inv.Concat,
		OutputFile:  inv.OutputFile,
		Version:     inv.Version,
		StrictPaths: inv.StrictPaths,
	})
	res.Batch = br

	for _, msg := range br.Advisories {
		fmt.Fprintln(streams.Out, msg)
	}

	if err := finishTrace(runErr); err != nil {
		res.ExitCode = ExitIOError
		return res, fmt.Errorf("write trace: %w", err)
	}

	res.ExitCode = exitCodeForRun(runErr)
	return res, runErr
}

func exitCodeForRun(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, batch.ErrCompile):
		return ExitCompileFailure
	case errors.Is(err, batch.ErrInvalidConfig):
		return ExitInvalidInvocation
	case errors.Is(err, batch.ErrInputRead), errors.Is(err, batch.ErrOutputWrite), errors.Is(err, batch.ErrPathCollision):
		return ExitIOError
	default:
		return ExitInternalError
	}
}
