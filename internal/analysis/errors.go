package analysis

import "errors"

var (
	ErrInsufficientData = errors.New("analysis: insufficient data")
	ErrUnknownParam     = errors.New("analysis: unknown parameter")
)
