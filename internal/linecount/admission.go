package linecount

import (
	"context"
	"runtime"
	"sync"
)

// Admission limits how many counter invocations run at once. Callers that
// find every slot taken wait in a FIFO queue and are admitted in arrival
// order as slots free up.
type Admission struct {
	mu      sync.Mutex
	limit   int
	running int
	waiters []chan struct{}
}

// NewAdmission creates an Admission with the given limit. A non-positive
// limit selects runtime.NumCPU().
func NewAdmission(limit int) *Admission {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Admission{limit: limit}
}

// Acquire blocks until a slot is available or ctx is done. Every successful
// Acquire must be paired with a Release.
func (a *Admission) Acquire(ctx context.Context) error {
	a.mu.Lock()
	if a.running < a.limit && len(a.waiters) == 0 {
		a.running++
		a.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	a.waiters = append(a.waiters, ch)
	a.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		a.mu.Lock()
		for i, w := range a.waiters {
			if w == ch {
				a.waiters = append(a.waiters[:i], a.waiters[i+1:]...)
				a.mu.Unlock()
				return ctx.Err()
			}
		}
		a.mu.Unlock()
		// The slot was handed over concurrently with cancellation.
		a.Release()
		return ctx.Err()
	}
}

// Release frees a slot, handing it straight to the oldest waiter if any.
func (a *Admission) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.waiters) > 0 {
		next := a.waiters[0]
		a.waiters = a.waiters[1:]
		close(next)
		return
	}
	if a.running > 0 {
		a.running--
	}
}

// Limit returns the maximum number of concurrent slots.
func (a *Admission) Limit() int {
	return a.limit
}

// Running returns the number of slots currently held.
func (a *Admission) Running() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Queued returns the number of callers waiting for a slot.
func (a *Admission) Queued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiters)
}
