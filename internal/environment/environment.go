package environment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jzuber4/build-spec-runner/internal/buildspec"
)

// Short-lived session credentials for the build environment.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Obtains short-lived session credentials.
type CredentialProvider interface {
	SessionCredentials(ctx context.Context) (Credentials, error)
}

// Resolves a named, optionally encrypted parameter to its plaintext value.
type ParameterStore interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// Looks up the caller's default region.
type RegionResolver interface {
	Region(ctx context.Context) (string, error)
}

// External collaborators the assembler calls out to.
type Deps struct {
	Credentials CredentialProvider
	Parameters  ParameterStore
	Regions     RegionResolver
}

// Controls environment assembly. Resolved once at run start.
type Options struct {
	// Skip credential retrieval and parameter-store lookups entirely.
	// No remote call is made when set.
	NoCredentials bool
	// Region to emulate. Empty falls back to a best-effort default
	// region lookup through [RegionResolver].
	Region string
}

// Assembles the ordered "NAME=value" environment for a run.
//
// Literal spec variables come first in declaration order. Unless
// credentials are suppressed, one credential retrieval follows, then one
// parameter-store lookup per reference in declaration order. Region
// assignments come last when a region is configured or can be resolved.
// Any remote failure is returned unchanged with nothing assembled.
func Assemble(ctx context.Context, spec *buildspec.BuildSpec, deps Deps, opts Options) ([]string, error) {
	var env []string

	for _, v := range spec.Env() {
		env = append(env, v.Name+"="+v.Value)
	}

	if !opts.NoCredentials {
		creds, err := deps.Credentials.SessionCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
		}
		env = append(env,
			"AWS_ACCESS_KEY_ID="+creds.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY="+creds.SecretAccessKey,
			"AWS_SESSION_TOKEN="+creds.SessionToken,
		)

		for _, ref := range spec.Parameters() {
			value, err := deps.Parameters.Resolve(ctx, ref.Key)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrParameterResolution, ref.Key, err)
			}
			env = append(env, ref.Name+"="+value)
		}
	}

	if region := resolveRegion(ctx, deps.Regions, opts); region != "" {
		env = append(env, "AWS_REGION="+region, "AWS_DEFAULT_REGION="+region)
	}

	return env, nil
}

// Picks the region to emulate.
//
// An explicit override always wins. Otherwise the default region lookup
// is best effort: a failure skips the region assignments rather than
// failing the run.
func resolveRegion(ctx context.Context, resolver RegionResolver, opts Options) string {
	if opts.Region != "" {
		return opts.Region
	}
	if resolver == nil {
		return ""
	}

	region, err := resolver.Region(ctx)
	if err != nil {
		slog.Debug("default region lookup failed", "error", err)
		return ""
	}
	return region
}
