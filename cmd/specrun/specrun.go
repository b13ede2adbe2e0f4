package main

import (
	"log/slog"
	"os"

	"github.com/jzuber4/build-spec-runner/internal"
	"github.com/jzuber4/build-spec-runner/internal/cli"
)

// The entry point for the specrun CLI.
//
// Initializes logging, displays startup information, and executes the
// root command. The process exits with the build's own status when the
// build ran to completion, or with 1 on any other error.
func main() {
	slog.SetDefault(logger())

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("specrun starting",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	code, err := cli.Execute()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	os.Exit(code)
}

// Creates a logger seeded from build-time linker flags.
//
// The logger is reconfigured after flag parsing via cli.Execute.
func logger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})
	return slog.New(handler).With("app", internal.Name)
}

// Returns the log level derived from build-time linker flags.
func logLevel() slog.Level {
	if internal.IsDebug() {
		return slog.LevelDebug
	}
	if internal.IsQuiet() {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
