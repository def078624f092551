// Package scheduler turns submitted tile jobs into pixel data using a fixed
// pool of worker goroutines, a priority queue for pending work, and
// cooperative cancellation checked at row/step boundaries inside each
// kernel loop.
package scheduler

import (
	"sync/atomic"
	"time"
)

// JobState is a tile job's position in its lifecycle.
type JobState string

const (
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateCancelled JobState = "cancelled"
	StateFailed    JobState = "failed"
)

// Job is one unit of scheduled work: compute the pixel data for a tile
// under a given epoch's parameter snapshot.
type Job struct {
	ID       uint64
	Epoch    uint64
	Priority int // lower value is scheduled first

	// Render is the actual per-tile work. It must poll Cancelled
	// periodically (at minimum once per row or per sphere-tracing step) and
	// return promptly once it reports true.
	Render func(cancelled func() bool) (result interface{}, err error)

	submittedAt time.Time
	state       JobState
	seq         uint64 // submission sequence, assigned by Pool.Submit under lock
	statsWorker int    // worker index the DispatchPolicy attributed this job to, for Stats.PerWorker
	cancelled   atomic.Bool
}

// Cancel marks the job cancelled. Safe to call concurrently with Render's
// own reads of its cancelled() closure.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called.
func (j *Job) IsCancelled() bool {
	return j.cancelled.Load()
}

// Result is delivered to a job's completion channel once Render returns or
// the job is cancelled before running.
type Result struct {
	JobID    uint64
	Value    interface{}
	Err      error
	State    JobState
	Queued   time.Duration
	Duration time.Duration
}
