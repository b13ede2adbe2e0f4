package buildspec

import "errors"

var (
	ErrSpecFormat = errors.New("invalid build specification")
)
