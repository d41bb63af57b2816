// Package trace records the logical decisions of a batch run in a canonical,
// byte-stable form.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// RunTrace is the deterministic record of one batch run.
//
// It holds logical decisions only: which module was read and compiled, where
// its unit went and how the file was opened. No timestamps, error strings or
// run IDs, so identical invocations produce identical bytes.
type RunTrace struct {
	Mode   string
	Concat bool
	Events []Event
}

// EventKind discriminates Event. The string values are part of the canonical
// bytes; do not rename.
type EventKind string

const (
	EventAdvisory       EventKind = "Advisory"
	EventModuleRead     EventKind = "ModuleRead"
	EventModuleCompiled EventKind = "ModuleCompiled"
	EventOutputCreated  EventKind = "OutputCreated"
	EventOutputAppended EventKind = "OutputAppended"
	EventRunAborted     EventKind = "RunAborted"
)

// Event is a single logical step. Index is the module's batch position, or -1
// for run-level events raised before the first module.
type Event struct {
	Kind   EventKind
	Index  int
	Source string
	Output string

	// Reason is a stable code such as "OutputFileIgnored" or "Compile".
	Reason string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *RunTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.Mode == "" {
		return errors.New("mode is required")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.Index < -1 {
			return fmt.Errorf("events[%d].index must be >= -1", i)
		}
		if isModuleEvent(e.Kind) && e.Source == "" {
			return fmt.Errorf("events[%d].source is required for kind %q", i, e.Kind)
		}
	}
	return nil
}

func isModuleEvent(kind EventKind) bool {
	switch kind {
	case EventModuleRead, EventModuleCompiled, EventOutputCreated, EventOutputAppended:
		return true
	default:
		return false
	}
}

// Canonicalize sorts events by (index, kind order). Events with equal keys
// keep their recorded order.
func (t *RunTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return kindOrder(a.Kind) < kindOrder(b.Kind)
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case EventAdvisory:
		return 10
	case EventModuleRead:
		return 20
	case EventModuleCompiled:
		return 30
	case EventOutputCreated, EventOutputAppended:
		return 40
	case EventRunAborted:
		return 50
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical encoding of a canonicalized copy.
func (t RunTrace) CanonicalJSON() ([]byte, error) {
	cp := RunTrace{Mode: t.Mode, Concat: t.Concat}
	cp.Events = make([]Event, len(t.Events))
	copy(cp.Events, t.Events)
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// Hash returns the sha256 hex digest of CanonicalJSON.
func (t RunTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order.
func (t RunTrace) MarshalJSON() ([]byte, error) {
	if t.Mode == "" {
		return nil, errors.New("mode is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"mode":`)
	mb, _ := json.Marshal(t.Mode)
	buf.Write(mb)
	fmt.Fprintf(&buf, `,"concat":%t`, t.Concat)

	buf.WriteString(`,"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)
	fmt.Fprintf(&buf, `,"index":%d`, e.Index)

	writeOptional := func(key, val string) {
		if val == "" {
			return
		}
		vb, _ := json.Marshal(val)
		buf.WriteString(`,"` + key + `":`)
		buf.Write(vb)
	}
	writeOptional("source", e.Source)
	writeOptional("output", e.Output)
	writeOptional("reason", e.Reason)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
