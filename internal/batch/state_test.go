package batch

import (
	"reflect"
	"testing"
)

func TestMachine_FullRunSequence(t *testing.T) {
	m := NewMachine()
	for i := 0; i < 2; i++ {
		for _, s := range []State{StateReading, StateCompiling, StateResolving, StateWriting} {
			if err := m.Transition(s, i); err != nil {
				t.Fatalf("transition %s(%d): %v", s, i, err)
			}
		}
	}
	if err := m.Transition(StateDone, -1); err != nil {
		t.Fatalf("done: %v", err)
	}

	var got []string
	for _, s := range m.History() {
		got = append(got, s.String())
	}
	want := []string{
		"IDLE",
		"READING(0)", "COMPILING(0)", "RESOLVING(0)", "WRITING(0)",
		"READING(1)", "COMPILING(1)", "RESOLVING(1)", "WRITING(1)",
		"DONE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("history mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestMachine_RejectsSkipsAndOutOfOrderIndices(t *testing.T) {
	m := NewMachine()
	if err := m.Transition(StateCompiling, 0); err == nil {
		t.Fatalf("expected Idle -> Compiling to be rejected")
	}
	if err := m.Transition(StateReading, 1); err == nil {
		t.Fatalf("expected Idle -> Reading(1) to be rejected")
	}
	if err := m.Transition(StateReading, 0); err != nil {
		t.Fatalf("reading: %v", err)
	}
	if err := m.Transition(StateDone, -1); err == nil {
		t.Fatalf("expected Reading -> Done to be rejected")
	}
	if m.Current() != (Step{State: StateReading, Index: 0}) {
		t.Fatalf("rejected transitions must not change state, got %v", m.Current())
	}
}

func TestMachine_AbortIsTerminal(t *testing.T) {
	m := NewMachine()
	_ = m.Transition(StateReading, 0)
	_ = m.Transition(StateCompiling, 0)
	if err := m.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if m.Current() != (Step{State: StateAborted, Index: 0}) {
		t.Fatalf("unexpected state after abort: %v", m.Current())
	}
	if err := m.Transition(StateReading, 1); err == nil {
		t.Fatalf("expected no transition out of Aborted")
	}
	if err := m.Abort(); err == nil {
		t.Fatalf("expected abort from Aborted to fail")
	}
}

func TestMachine_AbortBeforeFirstModule(t *testing.T) {
	m := NewMachine()
	if err := m.Abort(); err != nil {
		t.Fatalf("abort from idle: %v", err)
	}
	if !IsTerminal(m.Current().State) || m.Current().Index != -1 {
		t.Fatalf("unexpected state %v", m.Current())
	}
}
