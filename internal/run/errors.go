package run

import "errors"

var (
	ErrRun = errors.New("build run failed")
)
