package scheduler

import "errors"

var (
	// ErrCancelled is returned as a job's Result.Err when it was cancelled
	// before or during Render.
	ErrCancelled = errors.New("scheduler: job cancelled")

	// ErrWorkerError is returned when a job's Render callback panics.
	ErrWorkerError = errors.New("scheduler: worker error")

	// ErrPoolDisabled is returned by Submit once the pool has exceeded its
	// bounded worker-restart budget and stopped accepting new work.
	ErrPoolDisabled = errors.New("scheduler: worker pool disabled")
)
