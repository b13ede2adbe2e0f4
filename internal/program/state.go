package program

import "fmt"

// The execution states a running program moves through.
//
// A program starts Idle, enters RunningPhase for each phase in order, and
// finishes in Done. PhaseFailed marks a failed install or pre_build phase
// just before the run ends. BuildDeferred records a failed build phase
// whose status is remembered while post_build still runs.
type State struct {
	kind  stateKind
	phase string
	code  int
}

type stateKind int

const (
	stateIdle stateKind = iota
	stateRunningPhase
	statePhaseFailed
	stateBuildDeferred
	stateDone
)

// The state before any phase has started.
func Idle() State {
	return State{kind: stateIdle}
}

// The state while a phase's commands are executing.
func RunningPhase(phase string) State {
	return State{kind: stateRunningPhase, phase: phase}
}

// The state after a phase failure that ends the run.
func PhaseFailed(phase string, code int) State {
	return State{kind: statePhaseFailed, phase: phase, code: code}
}

// The state after a build-phase failure whose status is deferred until
// post_build has run.
func BuildDeferred(code int) State {
	return State{kind: stateBuildDeferred, code: code}
}

// The terminal state carrying the run's final exit code.
func Done(code int) State {
	return State{kind: stateDone, code: code}
}

// Returns the exit code carried by the state. Zero for states that carry
// none.
func (s State) Code() int {
	return s.code
}

// Whether the state is terminal.
func (s State) Terminal() bool {
	return s.kind == stateDone
}

func (s State) String() string {
	switch s.kind {
	case stateIdle:
		return "idle"
	case stateRunningPhase:
		return fmt.Sprintf("running(%s)", s.phase)
	case statePhaseFailed:
		return fmt.Sprintf("failed(%s, %d)", s.phase, s.code)
	case stateBuildDeferred:
		return fmt.Sprintf("build-deferred(%d)", s.code)
	case stateDone:
		return fmt.Sprintf("done(%d)", s.code)
	default:
		return "unknown"
	}
}
