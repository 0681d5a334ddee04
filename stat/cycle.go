package stat

import "sync/atomic"

// WarmCycles is the number of completed GC cycles after which allocation-rate
// EMAs are considered to have accumulated enough samples to be trusted.
const WarmCycles = 3

// Cycle bundles the allocation-rate EMAs and the warm-cycle gate the sizing
// solver reads. Rate samples and IsWarm are read-only snapshots from the
// balancer's point of view; the rest of the GC produces them.
type Cycle struct {
	completed int64

	SmallPageAllocRate  *EMA
	MediumPageAllocRate *EMA
}

// NewCycle constructs a Cycle with fresh, zeroed rate EMAs.
func NewCycle() *Cycle {
	return &Cycle{
		SmallPageAllocRate:  NewEMA(0.3),
		MediumPageAllocRate: NewEMA(0.3),
	}
}

// RecordCycleComplete marks one more GC cycle as finished, advancing the
// warm-up counter.
func (c *Cycle) RecordCycleComplete() {
	atomic.AddInt64(&c.completed, 1)
}

// IsWarm reports whether enough cycles have completed for the rate EMAs to
// be meaningful.
func (c *Cycle) IsWarm() bool {
	return atomic.LoadInt64(&c.completed) >= WarmCycles
}
