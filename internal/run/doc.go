// Package run orchestrates a complete local build run.
//
// A run parses the build specification, assembles the environment,
// acquires one container from the runtime, stages a writable workspace
// from the read-only source mount, executes the compiled phase program,
// and releases the container on every exit path. The run's result is the
// program's final exit code; command failures are never errors.
//
// Container ownership follows a scoped-acquisition discipline: the
// container is created, used for exactly one program execution, and
// unconditionally stopped and destroyed afterwards, including when
// execution itself fails. Cleanup failures are reported as diagnostics
// and never mask the primary result. Two runs never share a container.
package run
