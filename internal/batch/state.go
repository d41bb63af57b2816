package batch

import "fmt"

// State is the driver's position in a run.
//
//	Idle → Reading(i) → Compiling(i) → Resolving(i) → Writing(i) → Reading(i+1) | Done
//
// Any non-terminal state may move to Aborted. Done and Aborted are terminal.
type State string

const (
	StateIdle      State = "IDLE"
	StateReading   State = "READING"
	StateCompiling State = "COMPILING"
	StateResolving State = "RESOLVING"
	StateWriting   State = "WRITING"
	StateDone      State = "DONE"
	StateAborted   State = "ABORTED"
)

// IsTerminal reports whether the state ends the run.
func IsTerminal(s State) bool {
	return s == StateDone || s == StateAborted
}

// Step is one entered state together with the module index it applies to
// (-1 for Idle, Done and an abort before the first module).
type Step struct {
	State State
	Index int
}

func (s Step) String() string {
	if s.Index < 0 {
		return string(s.State)
	}
	return fmt.Sprintf("%s(%d)", s.State, s.Index)
}

// Machine validates state transitions for one run. It is not safe for
// concurrent use; a run has exactly one driver goroutine.
type Machine struct {
	cur     Step
	history []Step
}

func NewMachine() *Machine {
	start := Step{State: StateIdle, Index: -1}
	return &Machine{cur: start, history: []Step{start}}
}

// Current returns the active step.
func (m *Machine) Current() Step { return m.cur }

// History returns a copy of every step entered so far, in order.
func (m *Machine) History() []Step {
	out := make([]Step, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves to (to, index) if that transition is allowed.
func (m *Machine) Transition(to State, index int) error {
	if !isAllowedTransition(m.cur, Step{State: to, Index: index}) {
		return fmt.Errorf("disallowed transition: %s -> %s", m.cur, Step{State: to, Index: index})
	}
	m.cur = Step{State: to, Index: index}
	m.history = append(m.history, m.cur)
	return nil
}

// Abort moves to Aborted from any non-terminal state, keeping the index of
// the module that failed.
func (m *Machine) Abort() error {
	return m.Transition(StateAborted, m.cur.Index)
}

func isAllowedTransition(from, to Step) bool {
	if IsTerminal(from.State) {
		return false
	}
	if to.State == StateAborted {
		return to.Index == from.Index
	}
	switch from.State {
	case StateIdle:
		return to.State == StateReading && to.Index == 0
	case StateReading:
		return to.State == StateCompiling && to.Index == from.Index
	case StateCompiling:
		return to.State == StateResolving && to.Index == from.Index
	case StateResolving:
		return to.State == StateWriting && to.Index == from.Index
	case StateWriting:
		return (to.State == StateReading && to.Index == from.Index+1) || (to.State == StateDone && to.Index == -1)
	default:
		return false
	}
}
