package run

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jzuber4/build-spec-runner/internal/buildspec"
	"github.com/jzuber4/build-spec-runner/internal/runtime"
)

// A scripted in-memory container.
//
// Commands are matched against the exits table for their status and
// against the outputs table for bytes written to the stdout sink.
type fakeContainer struct {
	exits    map[string]int
	outputs  map[string]string
	execErr  error
	stageErr error
	stopErr  error

	ran       []string
	staged    bool
	stopped   bool
	destroyed bool
}

func (f *fakeContainer) Exec(_ context.Context, opts runtime.ExecOptions) (int, error) {
	if f.execErr != nil {
		return 0, f.execErr
	}
	f.ran = append(f.ran, opts.Command)
	if out, ok := f.outputs[opts.Command]; ok && opts.Stdout != nil {
		opts.Stdout.Write([]byte(out))
	}
	return f.exits[opts.Command], nil
}

func (f *fakeContainer) StageWorkspace(context.Context, string) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	f.staged = true
	return nil
}

func (f *fakeContainer) Stop(context.Context) error {
	f.stopped = true
	return f.stopErr
}

func (f *fakeContainer) Destroy(context.Context) {
	f.destroyed = true
}

func parseSpec(t *testing.T, doc string) *buildspec.BuildSpec {
	t.Helper()
	spec, err := buildspec.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse test spec: %v", err)
	}
	return spec
}

const scenarioDoc = `version: 0.2
phases:
  install:
    commands:
      - echo install
  pre_build:
    commands:
      - echo pre_build
  build:
    commands:
      - echo build
  post_build:
    commands:
      - echo post_build
`

func testConfig(stdout, stderr *bytes.Buffer) Config {
	cfg := Config{Stdout: stdout, Stderr: stderr}
	cfg.applyDefaults()
	return cfg
}

func TestExecuteProgramStreamsOutputInOrder(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctr := &fakeContainer{
		exits: map[string]int{},
		outputs: map[string]string{
			"echo install":    "install\n",
			"echo pre_build":  "pre_build\n",
			"echo build":      "build\n",
			"echo post_build": "post_build\n",
		},
	}

	code, err := executeProgram(context.Background(), testConfig(&stdout, &stderr), parseSpec(t, scenarioDoc), ctr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	want := "install\npre_build\nbuild\npost_build\n"
	if stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
	if !ctr.staged {
		t.Fatal("workspace was never staged")
	}
}

func TestExecuteProgramInstallFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctr := &fakeContainer{
		exits:   map[string]int{"echo install": 7},
		outputs: map[string]string{"echo build": "build\n", "echo post_build": "post_build\n"},
	}

	code, err := executeProgram(context.Background(), testConfig(&stdout, &stderr), parseSpec(t, scenarioDoc), ctr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}

	if len(ctr.ran) != 1 || ctr.ran[0] != "echo install" {
		t.Fatalf("ran = %v, want only the install command", ctr.ran)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want no output from later phases", stdout.String())
	}
	for _, phase := range []string{"pre_build", "build", "post_build"} {
		if strings.Contains(stderr.String(), "phase="+phase) {
			t.Fatalf("diagnostics mention phase %s which never ran:\n%s", phase, stderr.String())
		}
	}
}

func TestExecuteProgramDeferredBuildFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctr := &fakeContainer{
		exits:   map[string]int{"echo build": 2},
		outputs: map[string]string{"echo post_build": "post_build\n"},
	}

	code, err := executeProgram(context.Background(), testConfig(&stdout, &stderr), parseSpec(t, scenarioDoc), ctr)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if code != 2 {
		t.Fatalf("exit code = %d, want deferred build status 2", code)
	}
	if !strings.Contains(stdout.String(), "post_build\n") {
		t.Fatalf("stdout = %q, want post_build output despite build failure", stdout.String())
	}
}

func TestExecuteProgramQuietMode(t *testing.T) {
	var loudOut, loudErr, quietOut, quietErr bytes.Buffer

	loud := &fakeContainer{exits: map[string]int{"echo build": 2}, outputs: map[string]string{"echo install": "i\n"}}
	loudCode, err := executeProgram(context.Background(), testConfig(&loudOut, &loudErr), parseSpec(t, scenarioDoc), loud)
	if err != nil {
		t.Fatalf("loud run failed: %v", err)
	}

	quietCfg := testConfig(&quietOut, &quietErr)
	quietCfg.Quiet = true
	quiet := &fakeContainer{exits: map[string]int{"echo build": 2}, outputs: map[string]string{"echo install": "i\n"}}
	quietCode, err := executeProgram(context.Background(), quietCfg, parseSpec(t, scenarioDoc), quiet)
	if err != nil {
		t.Fatalf("quiet run failed: %v", err)
	}

	if loudCode != quietCode {
		t.Fatalf("quiet exit code = %d, loud = %d, want identical", quietCode, loudCode)
	}
	if quietOut.String() != loudOut.String() {
		t.Fatalf("quiet stdout = %q, loud stdout = %q, want identical", quietOut.String(), loudOut.String())
	}
	if quietErr.Len() != 0 {
		t.Fatalf("quiet diagnostics = %q, want none", quietErr.String())
	}
	if !strings.Contains(loudErr.String(), "entering phase") {
		t.Fatalf("loud diagnostics missing phase notices:\n%s", loudErr.String())
	}
}

func TestExecuteProgramAlwaysReleasesContainer(t *testing.T) {
	tests := []struct {
		name string
		ctr  *fakeContainer
	}{
		{"success", &fakeContainer{exits: map[string]int{}}},
		{"command failure", &fakeContainer{exits: map[string]int{"echo install": 1}}},
		{"exec error", &fakeContainer{execErr: errors.New("containerd gone")}},
		{"staging error", &fakeContainer{stageErr: errors.New("no space left")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			executeProgram(context.Background(), testConfig(&stdout, &stderr), parseSpec(t, scenarioDoc), tt.ctr)

			if !tt.ctr.stopped {
				t.Fatal("container was not stopped")
			}
			if !tt.ctr.destroyed {
				t.Fatal("container was not destroyed")
			}
		})
	}
}

func TestExecuteProgramCleanupFailureDoesNotMaskResult(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctr := &fakeContainer{
		exits:   map[string]int{"echo build": 3},
		stopErr: errors.New("stop refused"),
	}

	code, err := executeProgram(context.Background(), testConfig(&stdout, &stderr), parseSpec(t, scenarioDoc), ctr)
	if err != nil {
		t.Fatalf("run failed: %v, want cleanup failure to stay diagnostic", err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want the command result 3", code)
	}
	if !ctr.destroyed {
		t.Fatal("destroy skipped after stop failure")
	}
}

func TestExecuteProgramTimeout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cfg := testConfig(&stdout, &stderr)
	cfg.ExecTimeout = time.Nanosecond

	ctr := &fakeContainer{execErr: runtime.ErrExecTimeout}
	_, err := executeProgram(context.Background(), cfg, parseSpec(t, scenarioDoc), ctr)
	if !errors.Is(err, runtime.ErrExecTimeout) {
		t.Fatalf("error = %v, want ErrExecTimeout", err)
	}
	if !ctr.destroyed {
		t.Fatal("container not released after timeout")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.SpecPath != buildspec.DefaultFilename {
		t.Fatalf("SpecPath = %q, want %q", cfg.SpecPath, buildspec.DefaultFilename)
	}
	if cfg.ContainerdAddress != DefaultContainerdAddress {
		t.Fatalf("ContainerdAddress = %q, want %q", cfg.ContainerdAddress, DefaultContainerdAddress)
	}
	if cfg.ContainerdNamespace != DefaultContainerdNamespace {
		t.Fatalf("ContainerdNamespace = %q, want %q", cfg.ContainerdNamespace, DefaultContainerdNamespace)
	}
	if cfg.ExecTimeout != DefaultExecTimeout {
		t.Fatalf("ExecTimeout = %v, want %v", cfg.ExecTimeout, DefaultExecTimeout)
	}
	if cfg.Stdout == nil || cfg.Stderr == nil {
		t.Fatal("output sinks not defaulted")
	}
}

func TestContainerIDUnique(t *testing.T) {
	a, b := containerID(), containerID()
	if a == b {
		t.Fatalf("containerID returned duplicate %q", a)
	}
	if !strings.HasPrefix(a, "specrun-") {
		t.Fatalf("containerID = %q, want specrun- prefix", a)
	}
}
