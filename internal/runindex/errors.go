package runindex

import "errors"

// ErrNotFound indicates no run exists with the requested identifier.
var ErrNotFound = errors.New("runindex: run not found")
