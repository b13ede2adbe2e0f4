package program

import "log/slog"

// Receives progress notices from an executing program.
//
// Notices are diagnostic only; they never affect control flow or exit
// codes. Quiet mode installs [NopNotifier] so no notice is ever emitted
// for any phase or command.
type Notifier interface {
	// A phase is about to run its commands.
	PhaseStart(phase string)
	// A command in the phase exited non-zero; the rest of the phase's
	// commands are skipped.
	CommandFailed(phase, command string, code int)
	// A phase finished. Code is the phase's exit status, zero on success.
	PhaseComplete(phase string, code int)
}

// Logs notices through slog.
type LogNotifier struct {
	logger *slog.Logger
}

// Creates a [LogNotifier] emitting through the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PhaseStart(phase string) {
	n.logger.Info("entering phase", "phase", phase)
}

func (n *LogNotifier) CommandFailed(phase, command string, code int) {
	n.logger.Info("command failed", "phase", phase, "command", command, "exit_code", code)
}

func (n *LogNotifier) PhaseComplete(phase string, code int) {
	if code == 0 {
		n.logger.Info("phase complete", "phase", phase)
		return
	}
	n.logger.Info("phase failed", "phase", phase, "exit_code", code)
}

// Discards all notices.
type NopNotifier struct{}

func (NopNotifier) PhaseStart(string) {}

func (NopNotifier) CommandFailed(string, string, int) {}

func (NopNotifier) PhaseComplete(string, int) {}
