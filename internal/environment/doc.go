// Package environment assembles the environment for a build run.
//
// The assembler turns a build specification plus externally supplied
// credentials into a flat, ordered list of "NAME=value" assignments:
// literal variables first in declaration order, then session credentials,
// then parameter-store lookups in declaration order, then region
// settings. Credential retrieval and parameter resolution go through the
// [CredentialProvider] and [ParameterStore] interfaces; the AWS-backed
// implementations live in aws.go and tests substitute fakes.
//
// Suppressing credentials skips the credential and parameter-store calls
// entirely, so no network request is made. Any remote failure is fatal
// and surfaces unchanged; a partial environment is never returned.
package environment
