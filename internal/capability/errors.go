package capability

import "errors"

var errPanicked = errors.New("lookup panicked")
