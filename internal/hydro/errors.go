package hydro

import "errors"

// ErrInvalidParams indicates a parameter set that cannot describe a physical
// cycle (non-positive speed, frequency, area, non-finite values, ...).
var ErrInvalidParams = errors.New("hydro: invalid parameters")
