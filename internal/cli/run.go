package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jzuber4/build-spec-runner/internal/paths"
	"github.com/jzuber4/build-spec-runner/internal/run"
)

// Represents the 'specrun run' command.
type RunCmd struct {
	File          string        `short:"f" placeholder:"PATH" help:"Build specification path, relative to the project root. Defaults to buildspec.yml."`
	Image         string        `short:"i" placeholder:"REF" help:"Build image: registry reference or path to a local OCI archive."`
	Root          string        `placeholder:"DIR" help:"Project root mounted read-only as the build source. Defaults to the current directory."`
	NoCredentials bool          `name:"no-credentials" help:"Skip credential retrieval and parameter-store lookups."`
	Region        string        `placeholder:"REGION" help:"Region to emulate inside the build."`
	Profile       string        `placeholder:"NAME" help:"Shared-config profile for credential retrieval."`
	Address       string        `placeholder:"PATH" help:"Containerd socket address."`
	Namespace     string        `placeholder:"NAME" help:"Containerd namespace."`
	Timeout       time.Duration `help:"Bound on build execution. Defaults to the service ceiling."`
}

// Executes the run command.
//
// Configuration is resolved once up front: user configuration file
// values fill any flag left unset, then the run configuration is built
// and handed to the run package. A build whose commands fail surfaces as
// [ExitError] carrying the build's exit code.
func (c *RunCmd) Run(ctx context.Context) error {
	fileCfg, err := loadUserConfig()
	if err != nil {
		return err
	}
	c.applyUserConfig(fileCfg)

	if c.Image == "" {
		return fmt.Errorf("a build image is required: pass --image or set it in %s", paths.ConfigFile())
	}

	code, err := run.Run(ctx, run.Config{
		Image:               c.Image,
		SpecPath:            c.File,
		ProjectRoot:         c.Root,
		ContainerdAddress:   c.Address,
		ContainerdNamespace: c.Namespace,
		Quiet:               RootCmd.Quiet,
		NoCredentials:       c.NoCredentials,
		Region:              c.Region,
		Profile:             c.Profile,
		ExecTimeout:         c.Timeout,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// Fills flags left unset from the user configuration file.
func (c *RunCmd) applyUserConfig(cfg userConfig) {
	if c.Image == "" {
		c.Image = cfg.Image
	}
	if c.Address == "" {
		c.Address = cfg.Address
	}
	if c.Namespace == "" {
		c.Namespace = cfg.Namespace
	}
	if c.Region == "" {
		c.Region = cfg.Region
	}
	if c.Profile == "" {
		c.Profile = cfg.Profile
	}
}
