package runlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agl/internal/batch"
)

// Recorder writes the run and failure records for one invocation.
type Recorder struct {
	Store *Store

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// NewRunID returns a random UUID. Run IDs are operational identifiers and
// never appear in generated output or traces.
func NewRunID() string {
	return uuid.New().String()
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Start persists run with status running. RunID and StartTime are filled in
// when empty. The stored run is returned so the caller can Finish it.
func (r *Recorder) Start(run Run) (Run, error) {
	if r == nil || r.Store == nil {
		return run, errors.New("Store is required")
	}
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.StartTime.IsZero() {
		run.StartTime = r.now()
	}
	if run.Inputs == nil {
		run.Inputs = []string{}
	}
	run.Status = StatusRunning
	run.EndTime = nil
	return run, r.Store.SaveRun(run)
}

// Finish rewrites run with its terminal status. A non-nil runErr also writes
// failure.json.
func (r *Recorder) Finish(run Run, outputs []string, traceHash string, runErr error) error {
	if r == nil || r.Store == nil {
		return errors.New("Store is required")
	}
	end := r.now()
	run.EndTime = &end
	run.Outputs = outputs
	run.TraceHash = traceHash
	run.Status = StatusSucceeded
	if runErr != nil {
		run.Status = StatusFailed
	}

	var errs []error
	if err := r.Store.SaveRun(run); err != nil {
		errs = append(errs, err)
	}
	if runErr != nil {
		if err := r.Store.SaveFailure(run.RunID, FailureFromError(runErr)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FailureFromError classifies err into the failure taxonomy. Errors that did
// not come out of a batch stage are system failures.
func FailureFromError(err error) Failure {
	if err == nil {
		return Failure{FailureClass: FailureClassSystem, ErrorCode: "NilError", ErrorMessage: "nil error"}
	}

	var se *batch.StageError
	if !errors.As(err, &se) || se == nil {
		return Failure{FailureClass: FailureClassSystem, ErrorCode: "UnknownError", ErrorMessage: err.Error()}
	}

	f := Failure{Path: se.Path, ErrorMessage: err.Error()}
	if se.Index >= 0 {
		idx := se.Index
		f.Index = &idx
	}
	switch {
	case errors.Is(se.Kind, batch.ErrInvalidConfig):
		f.FailureClass, f.ErrorCode = FailureClassInvocation, "InvalidConfig"
	case errors.Is(se.Kind, batch.ErrPathCollision):
		f.FailureClass, f.ErrorCode = FailureClassPlan, "PathCollision"
	case errors.Is(se.Kind, batch.ErrInputRead):
		f.FailureClass, f.ErrorCode = FailureClassInput, "InputRead"
	case errors.Is(se.Kind, batch.ErrCompile):
		f.FailureClass, f.ErrorCode = FailureClassCompile, "CompileError"
	case errors.Is(se.Kind, batch.ErrOutputWrite):
		f.FailureClass, f.ErrorCode = FailureClassOutput, "OutputWrite"
	default:
		f.FailureClass, f.ErrorCode = FailureClassSystem, fmt.Sprintf("Stage(%v)", se.Kind)
	}
	return f
}
