package engine

import "errors"

// Sentinel errors for cell execution.
var (
	ErrRunnerFailed   = errors.New("cell runner failed")
	ErrRunnerTimeout  = errors.New("cell runner timed out")
	ErrOutputMismatch = errors.New("runner returned wrong number of outputs")
	ErrNoRunner       = errors.New("generator has no runner")
)
