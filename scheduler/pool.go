package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxWorkerRestarts bounds how many times a single worker slot may be
// replaced after a panic; once one slot exceeds it, the whole pool is
// disabled and Submit returns ErrPoolDisabled.
const MaxWorkerRestarts = 3

// Pool runs submitted jobs across a fixed number of worker goroutines,
// pulling from a single shared priority queue (the channel-plus-WaitGroup
// pattern of a per-row job fan-out, generalized to arbitrary priorities).
type Pool struct {
	mu       sync.Mutex
	queue    *jobQueue
	notEmpty *sync.Cond

	numWorkers int
	dispatch   DispatchPolicy

	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup

	nextSeq uint64

	statsMu sync.Mutex
	stats   Stats

	runningMu sync.RWMutex
	running   map[int]*Job

	disabled bool
	log      *logrus.Logger

	// OnReplace, if set, is called whenever a panicking worker is replaced,
	// after the internal restart counters are updated. Callers hook this to
	// forward the event to their own decision trace; the pool itself has no
	// opinion on where replace events go.
	OnReplace func(workerID, restarts int)
}

// NewPool creates a Pool with numWorkers goroutines and starts them
// immediately, each blocking on the shared queue until Shutdown.
func NewPool(numWorkers int, dispatch DispatchPolicy, log *logrus.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logrus.New()
	}
	p := &Pool{
		queue:      newJobQueue(),
		numWorkers: numWorkers,
		dispatch:   dispatch,
		results:    make(chan Result, numWorkers*4),
		done:       make(chan struct{}),
		log:        log,
	}
	p.notEmpty = sync.NewCond(&p.mu)
	p.stats.PerWorker = make([]WorkerStats, numWorkers)
	p.running = make(map[int]*Job, numWorkers)

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	return p
}

// Submit enqueues a job and returns immediately; the result arrives on
// Results(). Submit returns ErrPoolDisabled if the pool has permanently
// failed.
func (p *Pool) Submit(j *Job) error {
	p.mu.Lock()
	if p.disabled {
		p.mu.Unlock()
		return ErrPoolDisabled
	}
	j.submittedAt = time.Now()
	j.state = StateQueued
	p.nextSeq++
	j.seq = p.nextSeq
	j.statsWorker = 0
	if p.dispatch != nil {
		j.statsWorker = p.dispatch.SelectWorker(p.numWorkers)
	}
	p.queue.schedule(j)
	p.mu.Unlock()

	p.statsMu.Lock()
	p.stats.Queued++
	p.statsMu.Unlock()

	p.notEmpty.Signal()
	return nil
}

// Results returns the channel jobs complete onto.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// CancelJob cancels one job by ID, whether it is still queued or already
// running. Returns false if no job with that ID is currently known to the
// pool (it may already have completed).
func (p *Pool) CancelJob(id uint64) bool {
	p.mu.Lock()
	for _, j := range p.queue.jobs {
		if j.ID == id {
			j.Cancel()
			p.mu.Unlock()
			return true
		}
	}
	p.mu.Unlock()

	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	for _, j := range p.running {
		if j.ID == id {
			j.Cancel()
			return true
		}
	}
	return false
}

// CancelAll marks every job currently queued or running as cancelled.
// Running jobs observe this the next time their Render callback polls its
// cancelled closure.
func (p *Pool) CancelAll() {
	p.mu.Lock()
	for _, j := range p.queue.jobs {
		j.Cancel()
	}
	p.mu.Unlock()

	p.runningMu.RLock()
	for _, j := range p.running {
		j.Cancel()
	}
	p.runningMu.RUnlock()
}

// Shutdown stops accepting new work, cancels everything outstanding, and
// waits for workers to drain.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.disabled = true
	p.mu.Unlock()
	p.CancelAll()
	close(p.done)
	p.notEmpty.Broadcast()
	p.wg.Wait()
	close(p.results)
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	restarts := 0
	for {
		j := p.nextJob()
		if j == nil {
			return // Shutdown called, queue drained
		}
		p.runJobWithRecover(id, j, &restarts)
	}
}

func (p *Pool) nextJob() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 {
		select {
		case <-p.done:
			return nil
		default:
		}
		p.notEmpty.Wait()
		select {
		case <-p.done:
			return nil
		default:
		}
	}
	return p.queue.popNext()
}

func (p *Pool) runJobWithRecover(workerID int, j *Job, restarts *int) {
	defer func() {
		if r := recover(); r != nil {
			*restarts++
			p.log.WithFields(logrus.Fields{
				"worker": workerID,
				"job":    j.ID,
				"panic":  r,
			}).Warn("worker recovered from panic")
			p.clearRunning(workerID)
			p.recordReplace(workerID, *restarts)
			if p.OnReplace != nil {
				p.OnReplace(workerID, *restarts)
			}
			if *restarts > MaxWorkerRestarts {
				p.mu.Lock()
				p.disabled = true
				p.mu.Unlock()
				p.log.WithField("worker", workerID).Error("worker exceeded restart budget, pool disabled")
			}
			p.deliver(workerID, j, Result{JobID: j.ID, Err: ErrWorkerError, State: StateFailed})
		}
	}()

	p.setRunning(workerID, j)
	start := time.Now()
	queued := start.Sub(j.submittedAt)

	var res Result
	if j.IsCancelled() {
		res = Result{JobID: j.ID, State: StateCancelled, Err: ErrCancelled, Queued: queued}
	} else {
		value, err := j.Render(j.IsCancelled)
		duration := time.Since(start)
		state := StateCompleted
		switch {
		case j.IsCancelled():
			state = StateCancelled
			err = ErrCancelled
		case err != nil:
			state = StateFailed
		}
		res = Result{JobID: j.ID, Value: value, Err: err, State: state, Queued: queued, Duration: duration}
	}

	p.clearRunning(workerID)
	p.deliver(workerID, j, res)
}

func (p *Pool) deliver(workerID int, j *Job, res Result) {
	p.recordCompletion(res)
	// Completion/failure counts are attributed to the DispatchPolicy's
	// worker index, not the physical goroutine that happened to run the
	// job: the pool itself pulls from one shared queue, so workerID here
	// has no bearing on actual routing (see RoundRobinDispatch).
	switch res.State {
	case StateCompleted:
		p.incCompletedWorker(j.statsWorker)
	case StateFailed:
		p.incFailedWorker(j.statsWorker)
	}
	select {
	case p.results <- res:
	case <-p.done:
	}
}
