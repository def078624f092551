package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func waitResult(t *testing.T, p *Pool, timeout time.Duration) Result {
	t.Helper()
	select {
	case res, ok := <-p.Results():
		if !ok {
			t.Fatal("results channel closed before delivering a result")
		}
		return res
	case <-time.After(timeout):
		t.Fatal("timed out waiting for job result")
	}
	return Result{}
}

func TestPool_CompletesSubmittedJob(t *testing.T) {
	p := NewPool(2, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	j := &Job{ID: 1, Render: func(cancelled func() bool) (interface{}, error) {
		return 42, nil
	}}
	if err := p.Submit(j); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res := waitResult(t, p, time.Second)
	if res.State != StateCompleted {
		t.Errorf("expected StateCompleted, got %v", res.State)
	}
	if res.Value != 42 {
		t.Errorf("expected value 42, got %v", res.Value)
	}
}

func TestPool_OrdersByPriority(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	var order []uint64
	done := make(chan struct{})

	block := make(chan struct{})
	started := make(chan struct{})
	first := &Job{ID: 0, Priority: 100, Render: func(cancelled func() bool) (interface{}, error) {
		close(started)
		<-block
		return nil, nil
	}}
	if err := p.Submit(first); err != nil {
		t.Fatal(err)
	}
	<-started

	low := &Job{ID: 1, Priority: 10, Render: func(cancelled func() bool) (interface{}, error) { return nil, nil }}
	high := &Job{ID: 2, Priority: 1, Render: func(cancelled func() bool) (interface{}, error) { return nil, nil }}
	if err := p.Submit(low); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(high); err != nil {
		t.Fatal(err)
	}

	go func() {
		for i := 0; i < 3; i++ {
			res := waitResult(t, p, time.Second)
			order = append(order, res.JobID)
		}
		close(done)
	}()

	close(block)
	<-done

	if order[0] != 0 {
		t.Fatalf("expected the already-running job to finish first, got order %v", order)
	}
	if order[1] != 2 || order[2] != 1 {
		t.Errorf("expected priority order [2,1] after job 0, got %v", order[1:])
	}
}

func TestPool_CancelAll_CancelsQueuedJob(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	block := make(chan struct{})
	blocker := &Job{ID: 0, Render: func(cancelled func() bool) (interface{}, error) {
		<-block
		return nil, nil
	}}
	if err := p.Submit(blocker); err != nil {
		t.Fatal(err)
	}

	queued := &Job{ID: 1, Render: func(cancelled func() bool) (interface{}, error) {
		return "should not run", nil
	}}
	if err := p.Submit(queued); err != nil {
		t.Fatal(err)
	}

	p.CancelAll()
	close(block)

	seen := map[uint64]Result{}
	for i := 0; i < 2; i++ {
		res := waitResult(t, p, time.Second)
		seen[res.JobID] = res
	}

	if seen[1].State != StateCancelled {
		t.Errorf("expected queued job to be cancelled, got state %v", seen[1].State)
	}
	if !errors.Is(seen[1].Err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", seen[1].Err)
	}
}

func TestPool_CancelJob_CancelsOneQueuedJobWithoutTouchingOthers(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	block := make(chan struct{})
	blocker := &Job{ID: 0, Render: func(cancelled func() bool) (interface{}, error) {
		<-block
		return nil, nil
	}}
	if err := p.Submit(blocker); err != nil {
		t.Fatal(err)
	}

	target := &Job{ID: 1, Render: func(cancelled func() bool) (interface{}, error) { return "should not run", nil }}
	survivor := &Job{ID: 2, Render: func(cancelled func() bool) (interface{}, error) { return "survived", nil }}
	if err := p.Submit(target); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(survivor); err != nil {
		t.Fatal(err)
	}

	if !p.CancelJob(1) {
		t.Fatalf("CancelJob(1) = false, want true for a known queued job")
	}
	close(block)

	seen := map[uint64]Result{}
	for i := 0; i < 3; i++ {
		res := waitResult(t, p, time.Second)
		seen[res.JobID] = res
	}

	if seen[1].State != StateCancelled {
		t.Errorf("job 1 state = %v, want StateCancelled", seen[1].State)
	}
	if seen[2].State != StateCompleted {
		t.Errorf("job 2 state = %v, want StateCompleted (must not be cancelled by CancelJob(1))", seen[2].State)
	}
}

func TestPool_CancelJob_CancelsRunningJob(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	started := make(chan struct{})
	j := &Job{ID: 7, Render: func(cancelled func() bool) (interface{}, error) {
		close(started)
		for !cancelled() {
			time.Sleep(time.Millisecond)
		}
		return nil, nil
	}}
	if err := p.Submit(j); err != nil {
		t.Fatal(err)
	}
	<-started

	if !p.CancelJob(7) {
		t.Fatalf("CancelJob(7) = false, want true for the running job")
	}

	res := waitResult(t, p, time.Second)
	if res.State != StateCancelled {
		t.Errorf("state = %v, want StateCancelled", res.State)
	}
}

func TestPool_CancelJob_ReturnsFalseForUnknownID(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	if p.CancelJob(12345) {
		t.Fatalf("CancelJob(unknown) = true, want false")
	}
}

func TestPool_RecoversFromPanic(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	j := &Job{ID: 0, Render: func(cancelled func() bool) (interface{}, error) {
		panic("kernel blew up")
	}}
	if err := p.Submit(j); err != nil {
		t.Fatal(err)
	}

	res := waitResult(t, p, time.Second)
	if res.State != StateFailed {
		t.Errorf("expected StateFailed, got %v", res.State)
	}
	if !errors.Is(res.Err, ErrWorkerError) {
		t.Errorf("expected ErrWorkerError, got %v", res.Err)
	}

	// The pool must still be usable after a single panic.
	j2 := &Job{ID: 1, Render: func(cancelled func() bool) (interface{}, error) { return "ok", nil }}
	if err := p.Submit(j2); err != nil {
		t.Fatal(err)
	}
	res2 := waitResult(t, p, time.Second)
	if res2.State != StateCompleted {
		t.Errorf("expected pool to keep serving jobs after a panic, got %v", res2.State)
	}
}

func TestPool_RecoversFromPanic_CallsOnReplace(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	var mu sync.Mutex
	var gotWorker, gotRestarts int
	calls := 0
	p.OnReplace = func(workerID, restarts int) {
		mu.Lock()
		defer mu.Unlock()
		gotWorker, gotRestarts = workerID, restarts
		calls++
	}

	j := &Job{ID: 0, Render: func(cancelled func() bool) (interface{}, error) {
		panic("kernel blew up")
	}}
	if err := p.Submit(j); err != nil {
		t.Fatal(err)
	}
	waitResult(t, p, time.Second)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("OnReplace called %d times, want 1", calls)
	}
	if gotWorker != 0 {
		t.Errorf("OnReplace workerID = %d, want 0", gotWorker)
	}
	if gotRestarts != 1 {
		t.Errorf("OnReplace restarts = %d, want 1", gotRestarts)
	}
}

func TestPool_DisablesAfterExceedingRestartBudget(t *testing.T) {
	p := NewPool(1, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	for i := 0; i < MaxWorkerRestarts+2; i++ {
		j := &Job{ID: uint64(i), Render: func(cancelled func() bool) (interface{}, error) {
			panic("boom")
		}}
		if err := p.Submit(j); err != nil {
			break
		}
		waitResult(t, p, time.Second)
	}

	j := &Job{ID: 999, Render: func(cancelled func() bool) (interface{}, error) { return nil, nil }}
	if err := p.Submit(j); !errors.Is(err, ErrPoolDisabled) {
		t.Errorf("expected ErrPoolDisabled after exceeding restart budget, got %v", err)
	}
}

func TestPool_StatsSnapshot_CountsCompletions(t *testing.T) {
	p := NewPool(2, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	for i := 0; i < 5; i++ {
		j := &Job{ID: uint64(i), Render: func(cancelled func() bool) (interface{}, error) { return nil, nil }}
		if err := p.Submit(j); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 5; i++ {
		waitResult(t, p, time.Second)
	}

	stats := p.StatsSnapshot()
	if stats.Completed != 5 {
		t.Errorf("expected 5 completed, got %d", stats.Completed)
	}
}

func TestPool_SubmitAssignsStatsWorkerViaDispatchPolicy(t *testing.T) {
	// Stats.PerWorker attribution comes from the DispatchPolicy's round-robin
	// sequence at submission time, not from whichever physical goroutine
	// later happens to dequeue the job (the pool's queue is a single shared
	// one; see RoundRobinDispatch's doc comment).
	p := NewPool(3, NewRoundRobinDispatch(), nil)
	defer p.Shutdown()

	jobs := make([]*Job, 4)
	for i := range jobs {
		jobs[i] = &Job{ID: uint64(i), Render: func(cancelled func() bool) (interface{}, error) { return nil, nil }}
		if err := p.Submit(jobs[i]); err != nil {
			t.Fatal(err)
		}
	}
	for range jobs {
		waitResult(t, p, time.Second)
	}

	want := []int{1, 2, 0, 1}
	for i, j := range jobs {
		if j.statsWorker != want[i] {
			t.Errorf("job %d statsWorker = %d, want %d", i, j.statsWorker, want[i])
		}
	}
}
