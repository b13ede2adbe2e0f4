package environment

import "errors"

var (
	ErrCredentials         = errors.New("credential retrieval failed")
	ErrParameterResolution = errors.New("parameter resolution failed")
)
