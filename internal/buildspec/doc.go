// Package buildspec parses declarative build specifications.
//
// A build specification is a YAML document declaring environment
// variables, parameter-store references, four fixed build phases, and an
// artifacts section. [Load] reads a document from disk and returns an
// immutable [BuildSpec] after validating it against the supported schema:
// unknown keys at any level are rejected, only one document version is
// accepted, and every declared section must have content.
//
// Omitting a section and declaring it empty are different things. A
// specification without an env section simply has no variables, but
// "env:" with nothing under it is a format error. The same holds for
// individual phases: an absent phase runs no commands, while a phase key
// declared without a commands list is rejected.
//
// Example usage:
//
//	spec, err := buildspec.Load("buildspec.yml")
//	if err != nil {
//	    return err
//	}
//
//	for _, command := range spec.Commands(buildspec.PhaseBuild) {
//	    fmt.Println(command)
//	}
package buildspec
