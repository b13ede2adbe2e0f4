package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jzuber4/build-spec-runner/internal/paths"
)

// User configuration file contents. Every field is optional and only
// fills flags left unset on the command line.
type userConfig struct {
	Image     string `yaml:"image"`
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	Region    string `yaml:"region"`
	Profile   string `yaml:"profile"`
}

// Loads the user configuration file, if one exists.
//
// A missing file is not an error; unknown keys in an existing file are,
// so typos never silently disappear.
func loadUserConfig() (userConfig, error) {
	data, err := os.ReadFile(paths.ConfigFile())
	if os.IsNotExist(err) {
		return userConfig{}, nil
	}
	if err != nil {
		return userConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg userConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return userConfig{}, fmt.Errorf("parse %s: %w", paths.ConfigFile(), err)
	}

	return cfg, nil
}
