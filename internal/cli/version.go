package cli

import (
	"context"
	"fmt"

	"github.com/jzuber4/build-spec-runner/internal"
)

// Represents the 'specrun version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
