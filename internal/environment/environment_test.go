package environment

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jzuber4/build-spec-runner/internal/buildspec"
)

type fakeCredentials struct {
	creds Credentials
	err   error
	calls int
}

func (f *fakeCredentials) SessionCredentials(context.Context) (Credentials, error) {
	f.calls++
	return f.creds, f.err
}

type fakeParameters struct {
	values  map[string]string
	err     error
	lookups []string
}

func (f *fakeParameters) Resolve(_ context.Context, key string) (string, error) {
	f.lookups = append(f.lookups, key)
	if f.err != nil {
		return "", f.err
	}
	return f.values[key], nil
}

type fakeRegions struct {
	region string
	err    error
}

func (f *fakeRegions) Region(context.Context) (string, error) {
	return f.region, f.err
}

func testSpec(t *testing.T, doc string) *buildspec.BuildSpec {
	t.Helper()
	spec, err := buildspec.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse test spec: %v", err)
	}
	return spec
}

const specDoc = `version: 0.2
env:
  variables:
    FIRST: one
    SECOND: two
  parameter-store:
    TOKEN: /app/token
    SECRET: /app/secret
phases:
  build:
    commands:
      - make
`

func TestAssembleFullOrder(t *testing.T) {
	spec := testSpec(t, specDoc)
	creds := &fakeCredentials{creds: Credentials{
		AccessKeyID:     "AKID",
		SecretAccessKey: "SK",
		SessionToken:    "TOK",
	}}
	params := &fakeParameters{values: map[string]string{
		"/app/token":  "t-value",
		"/app/secret": "s-value",
	}}

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: creds,
		Parameters:  params,
		Regions:     &fakeRegions{region: "us-west-2"},
	}, Options{})
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	want := []string{
		"FIRST=one",
		"SECOND=two",
		"AWS_ACCESS_KEY_ID=AKID",
		"AWS_SECRET_ACCESS_KEY=SK",
		"AWS_SESSION_TOKEN=TOK",
		"TOKEN=t-value",
		"SECRET=s-value",
		"AWS_REGION=us-west-2",
		"AWS_DEFAULT_REGION=us-west-2",
	}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("env = %v\nwant %v", env, want)
	}

	if creds.calls != 1 {
		t.Fatalf("credential calls = %d, want exactly 1", creds.calls)
	}
	if !reflect.DeepEqual(params.lookups, []string{"/app/token", "/app/secret"}) {
		t.Fatalf("lookups = %v, want declaration order", params.lookups)
	}
}

func TestAssembleNoCredentialsSkipsRemoteCalls(t *testing.T) {
	spec := testSpec(t, specDoc)
	creds := &fakeCredentials{}
	params := &fakeParameters{}

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: creds,
		Parameters:  params,
	}, Options{NoCredentials: true})
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	want := []string{"FIRST=one", "SECOND=two"}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("env = %v, want only literal variables %v", env, want)
	}
	if creds.calls != 0 {
		t.Fatalf("credential calls = %d, want 0 when suppressed", creds.calls)
	}
	if len(params.lookups) != 0 {
		t.Fatalf("lookups = %v, want none when suppressed", params.lookups)
	}
}

func TestAssembleCredentialFailureIsFatal(t *testing.T) {
	spec := testSpec(t, specDoc)
	cause := errors.New("sts unavailable")

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: &fakeCredentials{err: cause},
		Parameters:  &fakeParameters{},
	}, Options{})
	if !errors.Is(err, ErrCredentials) {
		t.Fatalf("error = %v, want ErrCredentials", err)
	}
	if env != nil {
		t.Fatalf("env = %v, want nil on failure (no partial environment)", env)
	}
}

func TestAssembleParameterFailureIsFatal(t *testing.T) {
	spec := testSpec(t, specDoc)

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: &fakeCredentials{},
		Parameters:  &fakeParameters{err: errors.New("access denied")},
	}, Options{})
	if !errors.Is(err, ErrParameterResolution) {
		t.Fatalf("error = %v, want ErrParameterResolution", err)
	}
	if env != nil {
		t.Fatalf("env = %v, want nil on failure (no partial environment)", env)
	}
}

func TestAssembleRegionOverrideWins(t *testing.T) {
	spec := testSpec(t, "version: 0.2\nphases:\n  build:\n    commands: [make]\n")

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: &fakeCredentials{},
		Regions:     &fakeRegions{region: "eu-west-1"},
	}, Options{Region: "ap-southeast-1"})
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	want := []string{
		"AWS_ACCESS_KEY_ID=",
		"AWS_SECRET_ACCESS_KEY=",
		"AWS_SESSION_TOKEN=",
		"AWS_REGION=ap-southeast-1",
		"AWS_DEFAULT_REGION=ap-southeast-1",
	}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("env = %v, want %v", env, want)
	}
}

func TestAssembleRegionLookupFailureIsBestEffort(t *testing.T) {
	spec := testSpec(t, "version: 0.2\nphases:\n  build:\n    commands: [make]\n")

	env, err := Assemble(context.Background(), spec, Deps{
		Credentials: &fakeCredentials{},
		Regions:     &fakeRegions{err: errors.New("no region")},
	}, Options{})
	if err != nil {
		t.Fatalf("assemble failed: %v, want region lookup to be best effort", err)
	}

	for _, entry := range env {
		if entry == "AWS_REGION=" || entry == "AWS_DEFAULT_REGION=" {
			t.Fatalf("env = %v contains empty region assignment", env)
		}
	}
}
