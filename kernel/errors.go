package kernel

import "errors"

var (
	// ErrInvalidParams means a parameter is outside its permitted range
	// (negative bailout, unknown variant, zero-size tile, ...), returned by
	// FractalParams.Validate.
	ErrInvalidParams = errors.New("kernel: invalid params")

	// ErrNumericalDegenerate documents the condition a DE evaluation's
	// Degenerate flag reports: the raw distance was NaN/Inf and was clamped
	// to maxDistance rather than propagated.
	ErrNumericalDegenerate = errors.New("kernel: numerical degenerate")
)
