package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Describes a single command execution inside the container.
type ExecOptions struct {
	Command string    // Shell command, passed as "sh -c command".
	Env     []string  // Extra environment assignments for this execution only.
	Workdir string    // Working directory for the command. Empty keeps the spec's.
	Stdout  io.Writer // Sink for the command's standard output. Nil discards.
	Stderr  io.Writer // Sink for the command's standard error. Nil discards.
}

// Runs a shell command inside the container.
//
// Output is streamed to the sinks as it arrives, preserving the real-time
// interleaving of the two streams; nothing is buffered for later replay.
// The returned code is the command's exit status; a non-zero status is
// not an error. The execution is bounded by the context: exceeding a
// deadline kills the process and returns [ErrExecTimeout].
func (c *Container) Exec(ctx context.Context, opts ExecOptions) (int, error) {
	pspec, err := c.buildProcessSpec(ctx, opts.Env, opts.Workdir, "/bin/sh", "-c", opts.Command)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	return c.execProcess(ctx, pspec, opts.Stdout, opts.Stderr)
}

// Builds an OCI process spec for running a command inside the container.
//
// A process spec defines everything needed to start a process: the
// command and arguments, environment variables, working directory, and
// terminal mode. The base values are copied from the container's own OCI
// spec, then env and workdir are overridden if provided.
func (c *Container) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, env)
	}
	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Merges override env vars on top of a base env slice.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Starts a process inside the container's running task, waits for it to
// exit, and returns the exit code.
//
// The process is attached to the task as an additional exec, not as the
// primary process. This requires the task to already be running (started
// by [Container.startTask] during container creation). Nil sinks are
// replaced with io.Discard. A non-zero exit code is not treated as an
// error; the caller decides how to handle it.
func (c *Container) execProcess(ctx context.Context, pspec *specs.Process, stdout, stderr io.Writer) (int, error) {
	task, err := c.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(nil, stdout, stderr),
	))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	return awaitProcess(ctx, process)
}

// Loads the container's running task.
func (c *Container) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	return task, nil
}

// Waits for an exec process to exit and returns the exit code.
//
// The process is started, then the function blocks until it exits or the
// context ends. A context deadline kills the process and surfaces
// [ErrExecTimeout]; other context cancellation is returned as-is. The
// process is always deleted before returning.
func awaitProcess(ctx context.Context, process containerd.Process) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	select {
	case exitStatus := <-statusC:
		process.Delete(ctx)
		code, _, err := exitStatus.Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRuntime, err)
		}
		return int(code), nil

	case <-ctx.Done():
		// Kill with a background context; ctx is already done.
		cleanup := context.Background()
		process.Kill(cleanup, syscall.SIGKILL)
		process.Delete(cleanup)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, ErrExecTimeout
		}
		return 0, ctx.Err()
	}
}

// Copies the read-only source mount into a writable working directory.
//
// This is the program preamble: every build command then runs from the
// writable copy so the mounted project tree is never modified.
func (c *Container) StageWorkspace(ctx context.Context, workdir string) error {
	command := fmt.Sprintf("mkdir -p %s && cp -a %s/. %s", shellQuote(workdir), SourceMount, shellQuote(workdir))
	return c.mustExec(ctx, "workspace staging", command)
}

// Helper method that runs a command inside the container, returning an
// error that includes desc if the process exits with a non-zero code.
func (c *Container) mustExec(ctx context.Context, desc, command string) error {
	code, err := c.Exec(ctx, ExecOptions{Command: command})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%w: %s failed with exit code %d", ErrRuntime, desc, code)
	}
	return nil
}

// Wraps a path in single quotes for safe interpolation into a shell
// command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
