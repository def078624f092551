package engine

import "errors"

// Error kinds returned across the external API. Callers should use
// errors.Is against these sentinels; call sites wrap them with
// fmt.Errorf("...: %w", ...) to attach context.
var (
	// ErrInvalidParams means a parameter is outside its permitted range
	// (negative bailout, unknown variant, zero-size tile, ...). Fatal for
	// the submitting call; recoverable by the caller.
	ErrInvalidParams = errors.New("engine: invalid params")

	// ErrPrecisionUnsupported means the requested zoom exceeds the bignum
	// backend's capacity. Fatal per submission.
	ErrPrecisionUnsupported = errors.New("engine: precision unsupported")

	// ErrCancelled is delivered through a job's completion channel. It is
	// not logged as an error by the scheduler.
	ErrCancelled = errors.New("engine: cancelled")

	// ErrGlitched is not a true error: it is the internal status that
	// triggers rebasing. It only escapes to a caller when the rebase retry
	// budget is exhausted for a tile.
	ErrGlitched = errors.New("engine: glitched")

	// ErrWorkerError means a worker kernel panicked. The scheduler fails
	// the job with this error on its first panic and counts a restart for
	// the worker slot; the job is not retried.
	ErrWorkerError = errors.New("engine: worker error")

	// ErrNumericalDegenerate means a DE evaluation produced NaN/Inf. The
	// kernel clamps the value to maxDistance and marks the pixel a miss; it
	// is surfaced only via the degenerate counter, never per-pixel.
	ErrNumericalDegenerate = errors.New("engine: numerical degenerate")

	// ErrPoolDisabled means the worker pool exceeded its bounded restart
	// count and has been permanently disabled.
	ErrPoolDisabled = errors.New("engine: worker pool disabled")

	// ErrUnknownEpoch means a submission referenced a parameter snapshot
	// that is no longer current. The caller must re-prepare.
	ErrUnknownEpoch = errors.New("engine: unknown epoch")

	// ErrHandleDisposed means the handle has already been disposed and can
	// no longer accept submissions.
	ErrHandleDisposed = errors.New("engine: handle disposed")
)
