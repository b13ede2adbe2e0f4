package buildspec

import (
	"fmt"
	"strings"
)

// The only document version this runner understands.
const SupportedVersion = "0.2"

// Default specification filename, resolved relative to the project root.
const DefaultFilename = "buildspec.yml"

// Names of the four fixed build phases, in execution order.
const (
	PhaseInstall   = "install"
	PhasePreBuild  = "pre_build"
	PhaseBuild     = "build"
	PhasePostBuild = "post_build"
)

// Returns the phase names in their fixed execution order.
func PhaseOrder() []string {
	return []string{PhaseInstall, PhasePreBuild, PhaseBuild, PhasePostBuild}
}

// A literal environment variable declared in the env section.
type EnvVar struct {
	Name  string // Environment variable name.
	Value string // Literal value.
}

// A reference to an external parameter-store key, resolved at
// environment-assembly time.
type ParameterRef struct {
	Name string // Environment variable name to assign the resolved value to.
	Key  string // Parameter-store key to look up.
}

// The artifacts section. Parsed for shape validation only; artifact export
// is not implemented and the contents are never consumed for execution.
type Artifacts struct {
	Files        []string // Declared output file patterns.
	DiscardPaths bool     // Whether leading paths are stripped on upload.
}

// A parsed, validated build specification.
//
// Immutable once constructed: accessors return copies, so callers can
// never alter the parsed document.
type BuildSpec struct {
	version    string
	env        []EnvVar
	parameters []ParameterRef
	phases     map[string][]string
	artifacts  *Artifacts
}

// Returns the document version.
func (s *BuildSpec) Version() string {
	return s.version
}

// Returns the declared environment variables in declaration order.
func (s *BuildSpec) Env() []EnvVar {
	out := make([]EnvVar, len(s.env))
	copy(out, s.env)
	return out
}

// Returns the declared parameter-store references in declaration order.
func (s *BuildSpec) Parameters() []ParameterRef {
	out := make([]ParameterRef, len(s.parameters))
	copy(out, s.parameters)
	return out
}

// Returns the ordered commands for a phase.
//
// Every phase name from [PhaseOrder] is always present; a phase that was
// absent from the document yields an empty slice.
func (s *BuildSpec) Commands(phase string) []string {
	commands := s.phases[phase]
	out := make([]string, len(commands))
	copy(out, commands)
	return out
}

// Returns a copy of the artifacts section, or nil when none was declared.
func (s *BuildSpec) Artifacts() *Artifacts {
	if s.artifacts == nil {
		return nil
	}
	files := make([]string, len(s.artifacts.Files))
	copy(files, s.artifacts.Files)
	return &Artifacts{Files: files, DiscardPaths: s.artifacts.DiscardPaths}
}

// Returns a one-line summary suitable for debug logging.
func (s *BuildSpec) String() string {
	counts := make([]string, 0, len(s.phases))
	for _, phase := range PhaseOrder() {
		counts = append(counts, fmt.Sprintf("%s=%d", phase, len(s.phases[phase])))
	}
	return fmt.Sprintf("buildspec v%s env=%d parameters=%d phases[%s]",
		s.version, len(s.env), len(s.parameters), strings.Join(counts, " "))
}
