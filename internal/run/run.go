package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jzuber4/build-spec-runner/internal/buildspec"
	"github.com/jzuber4/build-spec-runner/internal/environment"
	"github.com/jzuber4/build-spec-runner/internal/program"
	"github.com/jzuber4/build-spec-runner/internal/runtime"
	"github.com/jzuber4/build-spec-runner/internal/source"
)

const (

	// Default containerd socket address.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for images and containers.
	DefaultContainerdNamespace = "specrun"

	// Generous bound on the whole program execution, matching the remote
	// service's build ceiling. Exceeding it is fatal for the run.
	DefaultExecTimeout = 8 * time.Hour

	// Writable working directory the source tree is staged into. Every
	// build command runs from here.
	workDir = "/codebuild/work"
)

// Holds run configuration. Resolved once at run start; nothing is read
// lazily mid-run.
type Config struct {
	Image               string        // Build image: registry reference or local OCI archive path.
	SpecPath            string        // Spec path, relative to the project root unless absolute. Empty uses buildspec.DefaultFilename.
	ProjectRoot         string        // Project root mounted read-only as the source. Empty uses the current directory.
	ContainerdAddress   string        // Containerd socket address. Empty uses [DefaultContainerdAddress].
	ContainerdNamespace string        // Containerd namespace. Empty uses [DefaultContainerdNamespace].
	Quiet               bool          // Suppress all phase and command notices.
	NoCredentials       bool          // Skip credential retrieval and parameter-store lookups.
	Region              string        // Region to emulate. Empty falls back to the SDK's default chain.
	Profile             string        // Shared-config profile for credential retrieval.
	ExecTimeout         time.Duration // Bound on program execution. Zero uses [DefaultExecTimeout].
	Stdout              io.Writer     // Ordinary output sink. Nil uses os.Stdout.
	Stderr              io.Writer     // Diagnostic output sink. Nil uses os.Stderr.
}

// Fills unset fields with their defaults.
func (cfg *Config) applyDefaults() {
	if cfg.SpecPath == "" {
		cfg.SpecPath = buildspec.DefaultFilename
	}
	if cfg.ContainerdAddress == "" {
		cfg.ContainerdAddress = DefaultContainerdAddress
	}
	if cfg.ContainerdNamespace == "" {
		cfg.ContainerdNamespace = DefaultContainerdNamespace
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = DefaultExecTimeout
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
}

// Executes one complete build run and returns its exit code.
//
// The exit code is the phase program's final status; a non-zero code
// means a command failed, not that the run itself errored. The error
// return covers everything else: an invalid specification, a remote
// lookup failure, a runtime failure, or the execution timeout.
func Run(ctx context.Context, cfg Config) (int, error) {
	cfg.applyDefaults()

	root, err := source.Resolve(cfg.ProjectRoot)
	if err != nil {
		return 0, err
	}

	spec, err := buildspec.Load(source.SpecPath(root, cfg.SpecPath))
	if err != nil {
		return 0, err
	}
	slog.Debug("specification loaded", "spec", spec)

	env, err := assembleEnv(ctx, spec, cfg)
	if err != nil {
		return 0, err
	}

	rt, err := runtime.New(cfg.ContainerdAddress, cfg.ContainerdNamespace)
	if err != nil {
		return 0, err
	}
	defer rt.Close()

	ctr, err := rt.CreateContainer(ctx, runtime.CreateOptions{
		Image:     cfg.Image,
		ID:        containerID(),
		Env:       env,
		SourceDir: root,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRun, err)
	}

	return executeProgram(ctx, cfg, spec, &containerHandle{ctr: ctr})
}

// Assembles the container environment from the spec and the configured
// collaborators.
//
// The AWS collaborators are only constructed when credentials are not
// suppressed, so a no-credentials run makes no remote call at all.
func assembleEnv(ctx context.Context, spec *buildspec.BuildSpec, cfg Config) ([]string, error) {
	opts := environment.Options{
		NoCredentials: cfg.NoCredentials,
		Region:        cfg.Region,
	}

	var deps environment.Deps
	if !cfg.NoCredentials {
		var err error
		deps, err = environment.NewAWSDeps(ctx, cfg.Profile, cfg.Region)
		if err != nil {
			return nil, err
		}
	}

	return environment.Assemble(ctx, spec, deps, opts)
}

// The container operations the driver needs.
//
// Narrow on purpose: tests substitute a fake, and the driver cannot
// reach anything beyond exec and release.
type buildContainer interface {
	Exec(ctx context.Context, opts runtime.ExecOptions) (int, error)
	StageWorkspace(ctx context.Context, workdir string) error
	Stop(ctx context.Context) error
	Destroy(ctx context.Context)
}

// Adapts [runtime.Container] to [buildContainer].
type containerHandle struct {
	ctr *runtime.Container
}

func (h *containerHandle) Exec(ctx context.Context, opts runtime.ExecOptions) (int, error) {
	return h.ctr.Exec(ctx, opts)
}

func (h *containerHandle) StageWorkspace(ctx context.Context, workdir string) error {
	return h.ctr.StageWorkspace(ctx, workdir)
}

func (h *containerHandle) Stop(ctx context.Context) error {
	return h.ctr.Stop(ctx)
}

func (h *containerHandle) Destroy(ctx context.Context) {
	h.ctr.Destroy(ctx)
}

// Stages the workspace and drives the compiled phase program against the
// container, releasing it on every exit path.
//
// Release runs with a background context so that cleanup still happens
// after a timeout. A cleanup failure is logged as a diagnostic and never
// masks the primary result.
func executeProgram(ctx context.Context, cfg Config, spec *buildspec.BuildSpec, ctr buildContainer) (code int, err error) {
	defer func() {
		cleanupCtx := context.Background()
		if stopErr := ctr.Stop(cleanupCtx); stopErr != nil {
			slog.Warn("container stop failed during cleanup", "error", stopErr)
		}
		ctr.Destroy(cleanupCtx)
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.ExecTimeout)
	defer cancel()

	if err := ctr.StageWorkspace(ctx, workDir); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRun, err)
	}

	notifier := program.NewLogNotifier(diagnosticLogger(cfg.Stderr))
	runner := &containerRunner{ctr: ctr, stdout: cfg.Stdout, stderr: cfg.Stderr}

	code, err = program.Compile(spec, cfg.Quiet).Execute(ctx, runner, notifier)
	if err != nil {
		if errors.Is(err, runtime.ErrExecTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: execution exceeded %s", runtime.ErrExecTimeout, cfg.ExecTimeout)
		}
		return 0, err
	}

	return code, nil
}

// Runs phase commands inside the build container.
//
// Commands execute from the staged working directory with output
// streamed straight to the run's sinks.
type containerRunner struct {
	ctr    buildContainer
	stdout io.Writer
	stderr io.Writer
}

func (r *containerRunner) Run(ctx context.Context, command string) (int, error) {
	return r.ctr.Exec(ctx, runtime.ExecOptions{
		Command: command,
		Workdir: workDir,
		Stdout:  r.stdout,
		Stderr:  r.stderr,
	})
}

// Builds the logger phase notices are emitted through.
//
// Notices go to the run's diagnostic sink, not the process logger, so
// they interleave with the build's own stderr output.
func diagnosticLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Returns a unique container ID for this run.
func containerID() string {
	return "specrun-" + uuid.NewString()
}
