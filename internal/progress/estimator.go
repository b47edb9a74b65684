// Package progress estimates completion of a scan and renders it as a
// terminal gauge.
package progress

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Weights of the two phases, in percent.
const (
	DiscoveryWeight = 2
	CountingWeight  = 98
)

// Estimator combines the single-shot discovery signal with the number of
// counted nodes. It is safe for concurrent use.
type Estimator struct {
	total      atomic.Int64
	counted    atomic.Int64
	discovered atomic.Bool

	mu       sync.Mutex
	last     float64
	onUpdate func(pct float64)
}

// NewEstimator creates an Estimator with an unknown total. onUpdate, when
// non-nil, is called with the new percentage after every signal; calls are
// serialized and the reported value never decreases.
func NewEstimator(onUpdate func(pct float64)) *Estimator {
	e := &Estimator{onUpdate: onUpdate}
	e.total.Store(math.MaxInt64)
	return e
}

// SetTotal records the number of nodes that will be counted.
func (e *Estimator) SetTotal(n int) {
	if n <= 0 {
		n = 1
	}
	e.total.Store(int64(n))
	e.notify()
}

// DiscoveryDone marks dependency discovery as finished.
func (e *Estimator) DiscoveryDone() {
	e.discovered.Store(true)
	e.notify()
}

// NodeCounted records one more counted node.
func (e *Estimator) NodeCounted() {
	e.counted.Add(1)
	e.notify()
}

// Percent returns the current estimate, floored to one decimal place and
// clamped to [0, 100].
func (e *Estimator) Percent() float64 {
	var discovery float64
	if e.discovered.Load() {
		discovery = 1
	}
	ratio := float64(e.counted.Load()) / float64(e.total.Load())
	pct := DiscoveryWeight*discovery + CountingWeight*ratio
	pct = math.Floor(pct*10) / 10
	return min(max(pct, 0), 100)
}

// String renders the estimate with two decimals.
func (e *Estimator) String() string {
	return fmt.Sprintf("%.2f", e.Percent())
}

func (e *Estimator) notify() {
	if e.onUpdate == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pct := max(e.Percent(), e.last)
	e.last = pct
	e.onUpdate(pct)
}
