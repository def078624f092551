package engine

import (
	"fmt"

	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
)

// MaxSupportedPrecisionBits bounds how much mantissa a reference-orbit
// computation will request, regardless of the zoom implied precision. Zoom
// levels demanding more are rejected with ErrPrecisionUnsupported rather
// than silently truncated.
const MaxSupportedPrecisionBits = 4096

// admit validates a View against its own invariants, its FractalParams, and
// the precision budget, in that order, returning the first failure. Called
// once by Prepare before any reference orbit is computed or worker
// pool is started.
func admit(v View) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid view: %w", err)
	}
	if err := v.Params.Validate(); err != nil {
		return translateKernelError(err)
	}
	if v.Params.Dim == kernel.Dim2D {
		bits := perturbation.PrecisionForZoom(v.Zoom, 0)
		if bits > MaxSupportedPrecisionBits {
			return fmt.Errorf("%w: zoom %g requires %d precision bits, max supported is %d",
				ErrPrecisionUnsupported, v.Zoom, bits, MaxSupportedPrecisionBits)
		}
	}
	return nil
}

// translateKernelError rewraps a kernel.ErrInvalidParams into the external
// API's own sentinel, preserving the message.
func translateKernelError(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidParams, err)
}
