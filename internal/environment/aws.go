package environment

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWS-backed collaborators for a run.
//
// Credentials come from STS session tokens, parameters from SSM with
// decryption, and the default region from the SDK's shared configuration
// chain. All three share one resolved [aws.Config]. The STS call happens
// at most once per run; parameter lookups reuse the cached session.
type AWSDeps struct {
	cfg aws.Config

	once     sync.Once
	creds    Credentials
	credsErr error
}

// Resolves the AWS configuration once and returns the collaborator set
// built on it.
//
// Profile selects a shared-config profile; empty uses the default chain.
// Region, when set, overrides the chain's region. Per the fail-fast
// contract nothing here retries: the SDK's own resolution errors surface
// unchanged.
func NewAWSDeps(ctx context.Context, profile, region string) (Deps, error) {
	var loadOpts []func(*config.LoadOptions) error
	if profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return Deps{}, fmt.Errorf("%w: %v", ErrCredentials, err)
	}

	d := &AWSDeps{cfg: cfg}
	return Deps{
		Credentials: d,
		Parameters:  d,
		Regions:     d,
	}, nil
}

// Obtains short-lived session credentials from STS.
//
// The token is fetched on the first call and cached for the rest of the
// run, so the assembler's credential append and every parameter lookup
// share a single STS request.
func (d *AWSDeps) SessionCredentials(ctx context.Context) (Credentials, error) {
	d.once.Do(func() {
		out, err := sts.NewFromConfig(d.cfg).GetSessionToken(ctx, &sts.GetSessionTokenInput{})
		if err != nil {
			d.credsErr = err
			return
		}
		d.creds = Credentials{
			AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
			SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
			SessionToken:    aws.ToString(out.Credentials.SessionToken),
		}
	})
	return d.creds, d.credsErr
}

// Resolves a parameter from SSM with decryption.
//
// The lookup runs under the session credentials from
// [AWSDeps.SessionCredentials], matching the trust boundary the remote
// service grants builds.
func (d *AWSDeps) Resolve(ctx context.Context, key string) (string, error) {
	creds, err := d.SessionCredentials(ctx)
	if err != nil {
		return "", err
	}

	cfg := d.cfg.Copy()
	cfg.Credentials = credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)

	out, err := ssm.NewFromConfig(cfg).GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}

	return aws.ToString(out.Parameter.Value), nil
}

// Reports the region the SDK's configuration chain resolved.
func (d *AWSDeps) Region(context.Context) (string, error) {
	if d.cfg.Region == "" {
		return "", fmt.Errorf("no region configured")
	}
	return d.cfg.Region, nil
}
