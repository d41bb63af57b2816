package trace

import (
	"sync"

	"agl/internal/fsutil"
)

// Sink is what the batch driver records into.
//
// Record must be inert: it must not panic and has no error to return. The
// caller must assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and swallows panics from a buggy sink.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder is an in-memory collector.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Snapshot returns a copy of all recorded events.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Trace builds a canonical RunTrace from the recorded events.
func (r *Recorder) Trace(mode string, concat bool) RunTrace {
	tr := RunTrace{Mode: mode, Concat: concat}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}

// WriteFile writes the canonical JSON of tr to path atomically, with a
// trailing newline.
func WriteFile(path string, tr RunTrace) error {
	b, err := tr.CanonicalJSON()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, append(b, '\n'), 0o644)
}
