package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// JobFunc is the work executed when a job becomes due. Handlers run on their
// own goroutine; a panic is recovered and logged without affecting other jobs.
type JobFunc func(ctx context.Context)

// NextFunc computes the next fire instant for a recurring job, strictly after
// the given instant. Returning the zero time retires the job.
type NextFunc func(after time.Time) time.Time

type job struct {
	id     string
	fireAt time.Time
	run    JobFunc
	next   NextFunc
	seq    uint64
}

type entry struct {
	fireAt time.Time
	seq    uint64
	id     string
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Timer is a process-local time-ordered job table keyed by a stable string
// id. Submitting under an existing id atomically replaces the previous job,
// which is what makes reminder replanning idempotent.
type Timer struct {
	mu   sync.Mutex
	jobs map[string]*job
	heap entryHeap
	seq  uint64
	wake chan struct{}

	now    func() time.Time
	logger *slog.Logger

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// idleWait bounds the sleep when the table is empty.
const idleWait = time.Minute

// NewTimer constructs a job table. A nil now falls back to time.Now.
func NewTimer(now func() time.Time, logger *slog.Logger) *Timer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timer{
		jobs:   make(map[string]*job),
		wake:   make(chan struct{}, 1),
		now:    now,
		logger: logger,
	}
}

// Submit inserts a one-shot job, replacing any existing job with the same id.
func (t *Timer) Submit(id string, fireAt time.Time, run JobFunc) {
	if id == "" || run == nil {
		return
	}
	t.mu.Lock()
	t.insertLocked(&job{id: id, fireAt: fireAt, run: run})
	t.mu.Unlock()
	t.notify()
}

// SubmitRecurring inserts a recurring job whose fire instants are produced by
// next. When next yields no instant after now, nothing is scheduled.
func (t *Timer) SubmitRecurring(id string, next NextFunc, run JobFunc) {
	if id == "" || run == nil || next == nil {
		return
	}
	fireAt := next(t.now())
	if fireAt.IsZero() {
		return
	}
	t.mu.Lock()
	t.insertLocked(&job{id: id, fireAt: fireAt, run: run, next: next})
	t.mu.Unlock()
	t.notify()
}

// Cancel removes a job if present; absent ids are a no-op.
func (t *Timer) Cancel(id string) {
	t.mu.Lock()
	delete(t.jobs, id)
	t.mu.Unlock()
	t.notify()
}

// Start launches the dispatch loop. Jobs may be submitted before Start; they
// are held until the loop runs.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.running = true
	t.cancel = cancel
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go t.loop(ctx, done)
}

// Stop halts future firings. It waits only for the dispatch loop to exit; a
// handler already executing runs to completion on its own goroutine.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	cancel()
	<-done
}

// JobIDs returns the ids of all pending jobs in lexical order.
func (t *Timer) JobIDs() []string {
	t.mu.Lock()
	ids := make([]string, 0, len(t.jobs))
	for id := range t.jobs {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// NextFire reports the pending fire instant for a job id.
func (t *Timer) NextFire(id string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return j.fireAt, true
}

func (t *Timer) insertLocked(j *job) {
	t.seq++
	j.seq = t.seq
	t.jobs[j.id] = j
	heap.Push(&t.heap, entry{fireAt: j.fireAt, seq: j.seq, id: j.id})
}

func (t *Timer) notify() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Timer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Handlers keep the loop context's values but not its cancellation: a
	// job already executing when Stop is called runs to completion.
	handlerCtx := context.WithoutCancel(ctx)

	for {
		due, wait := t.collectDue()

		for _, j := range due {
			go t.execute(handlerCtx, j)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-t.wake:
			timer.Stop()
		}
	}
}

// collectDue pops due jobs in non-decreasing fireAt order, rescheduling
// recurring ones, and returns how long to sleep until the next job.
func (t *Timer) collectDue() ([]*job, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var due []*job

	for len(t.heap) > 0 {
		top := t.heap[0]
		j, ok := t.jobs[top.id]
		if !ok || j.seq != top.seq {
			// Stale entry left behind by a replace or cancel.
			heap.Pop(&t.heap)
			continue
		}
		if j.fireAt.After(now) {
			break
		}
		heap.Pop(&t.heap)

		if j.next != nil {
			// Reschedule from now, not the scheduled instant, so a stalled
			// process coalesces missed occurrences into a single late fire.
			if nextAt := j.next(now); !nextAt.IsZero() {
				t.seq++
				j.seq = t.seq
				j.fireAt = nextAt
				heap.Push(&t.heap, entry{fireAt: nextAt, seq: j.seq, id: j.id})
			} else {
				delete(t.jobs, j.id)
			}
		} else {
			delete(t.jobs, j.id)
		}

		due = append(due, j)
	}

	wait := idleWait
	if len(t.heap) > 0 {
		if until := t.heap[0].fireAt.Sub(now); until < wait {
			wait = until
		}
		if wait < 0 {
			wait = 0
		}
	}

	return due, wait
}

func (t *Timer) execute(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("job handler panicked", "job_id", j.id, "panic", r)
		}
	}()
	j.run(ctx)
}
