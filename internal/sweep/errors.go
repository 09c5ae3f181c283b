package sweep

import "errors"

var (
	ErrEmptyGrid   = errors.New("sweep: empty grid axis")
	ErrInvalidGrid = errors.New("sweep: invalid grid value")
)
