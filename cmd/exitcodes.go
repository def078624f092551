package cmd

import (
	"errors"

	"github.com/fractalkit/engine/engine"
)

// exitCodeFor maps an engine sentinel error to the documented exit code.
// Errors the engine never surfaces at this boundary (e.g. ErrGlitched,
// ErrNumericalDegenerate) fall through to the generic failure code 1.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrInvalidParams):
		return 2
	case errors.Is(err, engine.ErrPrecisionUnsupported):
		return 3
	case errors.Is(err, engine.ErrWorkerError), errors.Is(err, engine.ErrPoolDisabled):
		return 4
	case errors.Is(err, engine.ErrCancelled):
		return 5
	default:
		return 1
	}
}
