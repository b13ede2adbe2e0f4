package program

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jzuber4/build-spec-runner/internal/buildspec"
)

// Executes a single command in the build environment.
//
// The returned code is the command's exit status; a non-zero status is
// not an error. The error return is reserved for transport failures
// (the command could not be run at all), which abort the program.
type CommandRunner interface {
	Run(ctx context.Context, command string) (int, error)
}

// A compiled phase program.
//
// Compiling captures the spec's phase commands in their fixed execution
// order. Executing the same program twice against the same runner
// behavior produces the same notices and exit code.
type Program struct {
	phases []phase
	quiet  bool
}

// One phase's ordered commands.
type phase struct {
	name     string
	commands []string
}

// Compiles a build specification into a phase program.
//
// Quiet mode suppresses every notice during execution without altering
// control flow or exit codes.
func Compile(spec *buildspec.BuildSpec, quiet bool) *Program {
	p := &Program{quiet: quiet}
	for _, name := range buildspec.PhaseOrder() {
		p.phases = append(p.phases, phase{name: name, commands: spec.Commands(name)})
	}
	return p
}

// Runs the program to completion against the runner.
//
// Returns the run's final exit code per the service's failure rules:
// install and pre_build failures end the run with their own status and
// later phases never run; a build failure is deferred so post_build still
// runs, and the build status is always the one reported; otherwise
// post_build's own status is the result. A runner error aborts execution
// immediately.
func (p *Program) Execute(ctx context.Context, runner CommandRunner, notifier Notifier) (int, error) {
	if p.quiet {
		notifier = NopNotifier{}
	}

	m := &machine{state: Idle()}

	for _, ph := range p.phases {
		m.transition(RunningPhase(ph.name))
		notifier.PhaseStart(ph.name)

		code, err := runPhase(ctx, runner, notifier, ph)
		if err != nil {
			return 0, err
		}
		notifier.PhaseComplete(ph.name, code)

		m.completePhase(ph.name, code)
		if m.state.Terminal() {
			return m.state.Code(), nil
		}
	}

	// Unreachable while post_build is part of the fixed phase order.
	return 0, fmt.Errorf("program ended in state %s without reaching a terminal state", m.state)
}

// Tracks execution state across phases.
type machine struct {
	state    State
	deferred int // Non-zero once the build phase has failed.
}

// Moves the machine to the given state.
func (m *machine) transition(s State) {
	slog.Debug("state transition", "from", m.state, "to", s)
	m.state = s
}

// Applies the phase-specific continuation policy after a phase has run.
//
// install and pre_build failures are final. A build failure is recorded
// and deferred; execution continues so post_build still runs. After
// post_build the deferred build status, when set, takes precedence over
// post_build's own result.
func (m *machine) completePhase(name string, code int) {
	switch name {
	case buildspec.PhaseInstall, buildspec.PhasePreBuild:
		if code != 0 {
			m.transition(PhaseFailed(name, code))
			m.transition(Done(code))
		}
	case buildspec.PhaseBuild:
		if code != 0 {
			m.deferred = code
			m.transition(BuildDeferred(code))
		}
	case buildspec.PhasePostBuild:
		if m.deferred != 0 {
			m.transition(Done(m.deferred))
		} else {
			m.transition(Done(code))
		}
	}
}

// Runs one phase's commands in order.
//
// The first non-zero exit stops execution of the remaining commands in
// the phase and becomes the phase's status.
func runPhase(ctx context.Context, runner CommandRunner, notifier Notifier, ph phase) (int, error) {
	for _, command := range ph.commands {
		code, err := runner.Run(ctx, command)
		if err != nil {
			return 0, fmt.Errorf("phase %s: %w", ph.name, err)
		}
		if code != 0 {
			notifier.CommandFailed(ph.name, command, code)
			return code, nil
		}
	}
	return 0, nil
}
