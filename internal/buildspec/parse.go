package buildspec

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Reads and validates a build specification from the given path.
//
// All failures surface as [ErrSpecFormat] wrapped with the offending path
// and a human-readable reason, whether the cause is an unreadable file,
// malformed YAML, a schema violation, or a semantic rule such as an
// unsupported version or a declared-but-empty section.
func Load(path string) (*BuildSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecFormat, path, err)
	}

	spec, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecFormat, path, err)
	}

	return spec, nil
}

// Parses a build specification document held in memory.
//
// Identical to [Load] except the error is not annotated with a filename.
func Parse(data []byte) (*BuildSpec, error) {
	spec, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecFormat, err)
	}
	return spec, nil
}

// Parses a build specification document.
//
// The document is decoded into a YAML node tree and walked manually. Node
// walking, rather than struct unmarshalling, is what lets the parser tell
// an absent section apart from one declared with a null value, reject
// unknown keys at every level, and preserve the declaration order of the
// env and parameter-store mappings.
func parse(data []byte) (*BuildSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}

	spec := &BuildSpec{phases: emptyPhases()}
	sawVersion := false
	sawPhases := false

	for key, value := range mappingPairs(doc) {
		switch key {
		case "version":
			version, err := scalarValue(value)
			if err != nil {
				return nil, fmt.Errorf("version: %v", err)
			}
			spec.version = version
			sawVersion = true

		case "env":
			if err := parseEnv(value, spec); err != nil {
				return nil, err
			}

		case "phases":
			if err := parsePhases(value, spec); err != nil {
				return nil, err
			}
			sawPhases = true

		case "artifacts":
			artifacts, err := parseArtifacts(value)
			if err != nil {
				return nil, err
			}
			spec.artifacts = artifacts

		default:
			return nil, fmt.Errorf("unknown key %q", key)
		}
	}

	if !sawVersion {
		return nil, fmt.Errorf("missing version")
	}
	if spec.version != SupportedVersion {
		return nil, fmt.Errorf("unsupported version %q (only %q is supported)", spec.version, SupportedVersion)
	}
	if !sawPhases {
		return nil, fmt.Errorf("missing phases section")
	}

	return spec, nil
}

// Parses the env section: literal variables and parameter-store references.
func parseEnv(node *yaml.Node, spec *BuildSpec) error {
	if err := requireMapping(node, "env section"); err != nil {
		return err
	}

	for key, value := range mappingPairs(node) {
		switch key {
		case "variables":
			if err := requireMapping(value, "env variables"); err != nil {
				return err
			}
			for name, v := range mappingPairs(value) {
				literal, err := stringValue(v)
				if err != nil {
					return fmt.Errorf("env variable %q: %v", name, err)
				}
				spec.env = append(spec.env, EnvVar{Name: name, Value: literal})
			}

		case "parameter-store":
			if err := requireMapping(value, "env parameter-store"); err != nil {
				return err
			}
			for name, v := range mappingPairs(value) {
				paramKey, err := stringValue(v)
				if err != nil {
					return fmt.Errorf("parameter-store entry %q: %v", name, err)
				}
				spec.parameters = append(spec.parameters, ParameterRef{Name: name, Key: paramKey})
			}

		default:
			return fmt.Errorf("unknown key %q in env section", key)
		}
	}

	return nil
}

// Parses the phases section.
//
// Only the four fixed phase names are accepted. A phase key declared
// without a non-empty commands list is an error; phases absent from the
// document keep their default empty command slice.
func parsePhases(node *yaml.Node, spec *BuildSpec) error {
	if err := requireMapping(node, "phases section"); err != nil {
		return err
	}

	for name, value := range mappingPairs(node) {
		if !slices.Contains(PhaseOrder(), name) {
			return fmt.Errorf("unknown phase %q", name)
		}

		if isNull(value) {
			return fmt.Errorf("phase %q has no commands", name)
		}
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("phase %q must be a mapping", name)
		}

		sawCommands := false
		for key, v := range mappingPairs(value) {
			if key != "commands" {
				return fmt.Errorf("unknown key %q in phase %q", key, name)
			}
			commands, err := parseCommands(v, name)
			if err != nil {
				return err
			}
			spec.phases[name] = commands
			sawCommands = true
		}

		if !sawCommands {
			return fmt.Errorf("phase %q has no commands", name)
		}
	}

	return nil
}

// Parses a phase's command list, which must be a non-empty sequence of
// strings.
func parseCommands(node *yaml.Node, phase string) ([]string, error) {
	if isNull(node) || node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("phase %q commands must be a list", phase)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("phase %q commands list is empty", phase)
	}

	commands := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		command, err := stringValue(item)
		if err != nil {
			return nil, fmt.Errorf("phase %q command %d: %v", phase, len(commands)+1, err)
		}
		commands = append(commands, command)
	}
	return commands, nil
}

// Parses the artifacts section just far enough to reject malformed shapes.
func parseArtifacts(node *yaml.Node) (*Artifacts, error) {
	if err := requireMapping(node, "artifacts section"); err != nil {
		return nil, err
	}

	artifacts := &Artifacts{}
	for key, value := range mappingPairs(node) {
		switch key {
		case "files":
			if isNull(value) || value.Kind != yaml.SequenceNode || len(value.Content) == 0 {
				return nil, fmt.Errorf("artifacts files must be a non-empty list")
			}
			for _, item := range value.Content {
				file, err := stringValue(item)
				if err != nil {
					return nil, fmt.Errorf("artifacts file entry: %v", err)
				}
				artifacts.Files = append(artifacts.Files, file)
			}

		case "discard-paths":
			if value.Kind != yaml.ScalarNode || value.Tag != "!!bool" {
				return nil, fmt.Errorf("artifacts discard-paths must be a boolean")
			}
			artifacts.DiscardPaths = value.Value == "true"

		default:
			return nil, fmt.Errorf("unknown key %q in artifacts section", key)
		}
	}

	return artifacts, nil
}

// Returns the phase map with all four fixed phases defaulted to no
// commands.
func emptyPhases() map[string][]string {
	phases := make(map[string][]string, len(PhaseOrder()))
	for _, name := range PhaseOrder() {
		phases[name] = nil
	}
	return phases
}

// Iterates the key/value pairs of a mapping node in declaration order.
func mappingPairs(node *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !yield(node.Content[i].Value, node.Content[i+1]) {
				return
			}
		}
	}
}

// Rejects sections that are declared but hold nothing.
//
// A null value ("env:" with nothing under it) and an empty mapping both
// count as declared-but-empty; section absence is handled by the caller
// never reaching this check.
func requireMapping(node *yaml.Node, what string) error {
	if isNull(node) {
		return fmt.Errorf("%s is declared but empty", what)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s must be a mapping", what)
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("%s is declared but empty", what)
	}
	return nil
}

// Whether the node is an explicit YAML null.
func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// Returns the node's value as a string, requiring a string scalar.
func stringValue(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
		return "", fmt.Errorf("value must be a string")
	}
	return node.Value, nil
}

// Returns the node's scalar value as text, accepting any scalar type.
//
// Used for the version field, where "0.2" may be written either quoted
// or as a bare float.
func scalarValue(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || isNull(node) {
		return "", fmt.Errorf("value must be a scalar")
	}
	return node.Value, nil
}
