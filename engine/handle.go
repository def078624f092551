package engine

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fractalkit/engine/etrace"
	"github.com/fractalkit/engine/kernel"
	"github.com/fractalkit/engine/perturbation"
	"github.com/fractalkit/engine/scheduler"
)

// Priority orders tile jobs in the scheduler's queue. Lower numeric value
// dequeues first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// PollStatus is the outcome of a non-blocking PollResult call.
type PollStatus int

const (
	PollPending PollStatus = iota
	PollReady
	PollGlitched
	PollFailed
	PollNone
)

// JobHandle identifies a submitted tile job for cancellation.
type JobHandle uint64

// Handle ties the numerical kernels, perturbation engine, raymarcher and
// worker pool together behind Prepare / SubmitTile /
// Cancel / PollResult / QueryStats / Dispose. The
// embedder may create one or many handles; each owns an independent pool
// and reference-orbit cache.
type Handle struct {
	mu       sync.RWMutex
	view     View
	opts     Options
	epoch    uint64
	disposed bool

	pool     *scheduler.Pool
	dispatch *scheduler.RoundRobinDispatch
	orbits   *perturbation.OrbitCache
	trace    *etrace.Trace

	nextJobID atomic.Uint64
}

// Prepare snapshots view and opts, computes the reference orbit for
// 2D views (or validates the DE selection for 3D views), and starts the
// worker pool. Fails with ErrInvalidParams or ErrPrecisionUnsupported
// without allocating a pool.
func Prepare(view View, opts Options) (*Handle, error) {
	if err := admit(view); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if !etrace.IsValidLevel(opts.TraceLevel) {
		return nil, fmt.Errorf("%w: unknown trace level %q", ErrInvalidParams, opts.TraceLevel)
	}

	workers := opts.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}
	if workers < 1 {
		workers = 1
	}

	h := &Handle{
		view:     view,
		opts:     opts,
		dispatch: scheduler.NewRoundRobinDispatch(),
		orbits:   perturbation.NewOrbitCache(4),
		trace:    etrace.New(etrace.Config{Level: etrace.Level(opts.TraceLevel)}),
	}
	h.pool = scheduler.NewPool(workers, h.dispatch, nil)
	h.pool.OnReplace = func(workerID, restarts int) {
		h.trace.RecordReplace(etrace.WorkerReplaceRecord{WorkerID: workerID, Reason: "panic", RestartNum: restarts})
	}

	if referenceOrbitEligible(view) {
		orbit := perturbation.ComputeReferenceOrbit(*view.Center2D, view.Params.MaxIterations, view.Params.Bailout)
		series := perturbation.ComputeSeriesCoeffs(orbit)
		h.orbits.Publish(orbit, series)
	}

	return h, nil
}

// referenceOrbitEligible reports whether view can use the perturbation
// path at all: the reference orbit and delta recurrence both hardcode the
// Mandelbrot z <- z^2 + c update, so every other 2D family (burning ship's
// absolute-value fold, tricorn's conjugation, Julia's fixed C, the
// generalized mandel-power) renders through the direct kernel instead.
func referenceOrbitEligible(view View) bool {
	return view.Params.Dim == kernel.Dim2D && view.Params.Kind == kernel.PlaneMandelbrot && view.Center2D != nil
}

// Epoch returns the handle's live parameter-snapshot epoch. Callers that
// hold tiles queued up across a Reprepare call should re-check this
// before submitting more: a submission against a stale epoch is rejected
// with ErrUnknownEpoch rather than silently rendered against a superseded
// view.
func (h *Handle) Epoch() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.epoch
}

// Reprepare replaces the handle's view and options in place, reusing
// the existing worker pool, and bumps the epoch so that any submission
// still referencing the old epoch is rejected. Outstanding jobs against the
// old view are left to finish or be cancelled by the caller; they are not
// retroactively invalidated.
func Reprepare(h *Handle, view View, opts Options) error {
	if err := admit(view); err != nil {
		return err
	}
	opts = opts.withDefaults()

	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return ErrHandleDisposed
	}
	h.view = view
	h.opts = opts
	h.epoch++
	h.mu.Unlock()

	if referenceOrbitEligible(view) {
		orbit := perturbation.ComputeReferenceOrbit(*view.Center2D, view.Params.MaxIterations, view.Params.Bailout)
		series := perturbation.ComputeSeriesCoeffs(orbit)
		h.orbits.Publish(orbit, series)
	} else {
		h.orbits.Clear()
	}
	return nil
}

// SubmitTile enqueues a single tile at the given priority against
// epoch, the snapshot the caller last observed via Handle.Epoch. A stale
// epoch means the view has since changed via Reprepare and the
// caller must re-fetch tiles for the new view.
func SubmitTile(h *Handle, tile Tile, epoch uint64, priority Priority) (JobHandle, error) {
	return h.submit(tile, epoch, priority)
}

// SubmitBatch enqueues many tiles, preserving order, returning a
// JobHandle per tile in the same order.
func SubmitBatch(h *Handle, tiles []Tile, epoch uint64, priority Priority) ([]JobHandle, error) {
	handles := make([]JobHandle, 0, len(tiles))
	for _, t := range tiles {
		jh, err := h.submit(t, epoch, priority)
		if err != nil {
			return handles, err
		}
		handles = append(handles, jh)
	}
	return handles, nil
}

func (h *Handle) submit(tile Tile, epoch uint64, priority Priority) (JobHandle, error) {
	h.mu.RLock()
	if h.disposed {
		h.mu.RUnlock()
		return 0, ErrHandleDisposed
	}
	if epoch != h.epoch {
		h.mu.RUnlock()
		return 0, ErrUnknownEpoch
	}
	view := h.view
	opts := h.opts
	h.mu.RUnlock()

	id := h.nextJobID.Add(1)

	var render func(cancelled func() bool) (interface{}, error)
	switch view.Params.Dim {
	case kernel.Dim3D:
		render = h.render3D(view, tile, opts)
	default:
		render = h.render2D(view, tile, opts)
	}

	job := &scheduler.Job{
		ID:       id,
		Epoch:    epoch,
		Priority: int(priority),
		Render:   render,
	}
	if err := h.pool.Submit(job); err != nil {
		return 0, translatePoolError(err)
	}
	return JobHandle(id), nil
}

// Cancel cooperatively cancels one outstanding job. Idempotent: a
// job that already completed or was already cancelled is a no-op.
func Cancel(h *Handle, jh JobHandle) {
	h.pool.CancelJob(uint64(jh))
}

// CancelAll cancels every job currently queued or running against h.
func CancelAll(h *Handle) {
	h.pool.CancelAll()
}

// PollResult drains one completed tile result, non-blocking.
func PollResult(h *Handle) (*TileResult, PollStatus, error) {
	select {
	case res, ok := <-h.pool.Results():
		if !ok {
			return nil, PollNone, ErrHandleDisposed
		}
		if res.Err != nil {
			return nil, PollFailed, translatePoolError(res.Err)
		}
		tr, _ := res.Value.(*TileResult)
		if tr != nil && tr.Flags&FlagGlitched != 0 {
			return tr, PollGlitched, nil
		}
		return tr, PollReady, nil
	default:
		return nil, PollPending, nil
	}
}

// Stats mirrors scheduler.Stats plus the glitch/rebase/replace counters
// etrace accumulated for the current view.
type Stats struct {
	scheduler.Stats
	Glitches int
	Rebases  int
	Replaces int
}

// QueryStats returns a snapshot of pool and trace statistics.
func QueryStats(h *Handle) Stats {
	glitches, rebases, replaces := h.trace.Snapshot()
	return Stats{
		Stats:    h.pool.StatsSnapshot(),
		Glitches: len(glitches),
		Rebases:  len(rebases),
		Replaces: len(replaces),
	}
}

// Dispose cancels outstanding jobs and releases the pool and
// reference-orbit cache. The handle cannot be used afterward.
func Dispose(h *Handle) {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	h.mu.Unlock()

	h.pool.CancelAll()
	h.pool.Shutdown()
}

func translatePoolError(err error) error {
	switch err {
	case scheduler.ErrCancelled:
		return ErrCancelled
	case scheduler.ErrWorkerError:
		return ErrWorkerError
	case scheduler.ErrPoolDisabled:
		return ErrPoolDisabled
	default:
		return err
	}
}
