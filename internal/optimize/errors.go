package optimize

import "errors"

var (
	ErrInvalidSpace     = errors.New("optimize: invalid search space")
	ErrInvalidSettings  = errors.New("optimize: invalid settings")
	ErrUnknownObjective = errors.New("optimize: unknown objective")
)
