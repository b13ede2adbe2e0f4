package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/jzuber4/build-spec-runner/internal"
)

// Represents the root command for the specrun CLI.
var RootCmd struct {
	Quiet   bool       `short:"q" help:"Suppress phase notices and informational output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Run     RunCmd     `cmd:"" default:"withargs" help:"Run a build specification locally."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Carries a build's non-zero exit code out of command execution.
//
// A build whose commands fail is not a CLI error; the process simply
// exits with the build's own status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("build exited with code %d", e.Code)
}

// Parses arguments, configures logging, and runs the selected
// subcommand.
//
// Returns the process exit code and any error that is not simply a
// failed build.
func Execute() (int, error) {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Runs a declarative build specification locally inside a container,\nreproducing the remote build service's phase and failure semantics."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	err := kongCtx.Run()

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code, nil
	}
	if err != nil {
		return 1, err
	}
	return 0, nil
}

// Configures the global logger based on CLI flags.
//
// Flags override the build-time linker defaults. Quiet raises the level
// to warnings only; debug lowers it to everything.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	internal.SetDebug(debug)
	internal.SetQuiet(quiet)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler).With("app", internal.Name))
}
