// Package runlog persists a record of every batch run under
// <baseDir>/.agl/runs/<run-id>/.
//
// run.json is written when the run starts and rewritten when it ends;
// failure.json exists only for aborted runs. Records are informational: a run
// never reads them back to change its behavior.
package runlog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run is the persisted metadata of one invocation.
type Run struct {
	RunID      string     `json:"run_id"`
	Version    string     `json:"version"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Mode       string     `json:"mode"`
	Concat     bool       `json:"concat"`
	OutputFile string     `json:"output_file,omitempty"`
	Inputs     []string   `json:"inputs"`
	Outputs    []string   `json:"outputs"`
	Status     RunStatus  `json:"status"`
	TraceHash  string     `json:"trace_hash,omitempty"`
}

func (r Run) Validate() error {
	var errs []error
	if strings.TrimSpace(r.RunID) == "" {
		errs = append(errs, errors.New("run_id is required"))
	}
	if r.StartTime.IsZero() {
		errs = append(errs, errors.New("start_time is required"))
	}
	if strings.TrimSpace(r.Mode) == "" {
		errs = append(errs, errors.New("mode is required"))
	}
	if r.Inputs == nil {
		errs = append(errs, errors.New("inputs must be an array (not null)"))
	}
	switch r.Status {
	case StatusRunning:
		if r.EndTime != nil {
			errs = append(errs, errors.New("end_time must be null while running"))
		}
	case StatusSucceeded, StatusFailed:
		if r.EndTime == nil {
			errs = append(errs, fmt.Errorf("end_time is required for status %q", r.Status))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid status %q", r.Status))
	}
	return errors.Join(errs...)
}

type FailureClass string

const (
	FailureClassInvocation FailureClass = "invocation"
	FailureClassPlan       FailureClass = "plan"
	FailureClassInput      FailureClass = "input"
	FailureClassCompile    FailureClass = "compile"
	FailureClassOutput     FailureClass = "output"
	FailureClassSystem     FailureClass = "system"
)

// Failure is the recorded reason an aborted run stopped.
type Failure struct {
	FailureClass FailureClass `json:"failure_class"`
	Index        *int         `json:"index,omitempty"`
	Path         string       `json:"path,omitempty"`
	ErrorCode    string       `json:"error_code"`
	ErrorMessage string       `json:"error_message"`
}

func (f Failure) Validate() error {
	var errs []error
	switch f.FailureClass {
	case FailureClassInvocation, FailureClassPlan, FailureClassInput, FailureClassCompile, FailureClassOutput, FailureClassSystem:
	default:
		errs = append(errs, fmt.Errorf("invalid failure_class %q", f.FailureClass))
	}
	if f.Index != nil && *f.Index < 0 {
		errs = append(errs, errors.New("index must be >= 0 when provided"))
	}
	if strings.TrimSpace(f.ErrorCode) == "" {
		errs = append(errs, errors.New("error_code is required"))
	}
	if strings.TrimSpace(f.ErrorMessage) == "" {
		errs = append(errs, errors.New("error_message is required"))
	}
	return errors.Join(errs...)
}
