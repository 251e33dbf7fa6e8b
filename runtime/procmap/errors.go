package procmap

import "errors"

// ErrConfiguration is returned for group layouts that cannot be realised on
// the parent communicator.
var ErrConfiguration = errors.New("procmap: configuration error")
