package program

import "errors"

// ErrUsage is returned for malformed program arguments.
var ErrUsage = errors.New("program: invalid arguments")
