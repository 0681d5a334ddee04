// Package balance implements the page cache balancer: the sub-phase that
// converts cached pages of a surplus size class into the deficit class to
// satisfy either a relocation's to-space reservation or the mutator's
// observed allocation-rate ratio.
//
// Balance() must be called from a concurrent GC worker thread and runs to
// completion without cancellation: if the host GC must abort, it does so
// between invocations, never mid-flight.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/region-gc/pagecache/allocator"
	"github.com/region-gc/pagecache/config"
	"github.com/region-gc/pagecache/heap"
	"github.com/region-gc/pagecache/internal/validate"
	"github.com/region-gc/pagecache/page"
	"github.com/region-gc/pagecache/pagetable"
	"github.com/region-gc/pagecache/stat"
)

// Balancer is a transient controller, constructed once per invocation of
// the balancing sub-phase. It is not safe to reuse across invocations and
// holds no state once Balance returns.
type Balancer struct {
	allocator *allocator.Allocator
	table     *pagetable.Table
	heap      *heap.Heap
	cycle     *stat.Cycle
	opts      config.Options
	logger    *slog.Logger

	beforeRelocation bool
	smallSelectedTo  int
	mediumSelectedTo int

	// Populated by needToBalance, consumed by teardown/rebuild.
	availableSmall, availableMedium int
	targetSmall, targetMedium       int
	loanerType, debtorType          page.Class
	loanerCount, debtorCount        int
	loanerList, debtorList          []*page.Page

	start time.Time
}

// New constructs a Balancer for one invocation of the balancing sub-phase.
// smallSelectedTo and mediumSelectedTo are only meaningful (and only
// enforced as a floor) when beforeRelocation is true.
func New(
	alloc *allocator.Allocator,
	table *pagetable.Table,
	h *heap.Heap,
	cycle *stat.Cycle,
	opts config.Options,
	beforeRelocation bool,
	smallSelectedTo, mediumSelectedTo int,
) *Balancer {
	if !opts.BalancePageCache {
		panic("balance.New called with BalancePageCache disabled")
	}

	return &Balancer{
		allocator:        alloc,
		table:            table,
		heap:             h,
		cycle:            cycle,
		opts:             opts,
		logger:           alloc.Logger().With("phase", phaseName(beforeRelocation)),
		beforeRelocation: beforeRelocation,
		smallSelectedTo:  smallSelectedTo,
		mediumSelectedTo: mediumSelectedTo,
		loanerType:       page.ClassSmall,
		debtorType:       page.ClassMedium,
		start:            time.Now(),
	}
}

func phaseName(beforeRelocation bool) string {
	if beforeRelocation {
		return "before-relocation"
	}
	return "after-relocation"
}

// Balance runs the full rebalancing protocol: decide whether to rebalance,
// and if so, tear down the loaner class and rebuild the debtor class. It
// logs its own duration unconditionally on return, mirroring a
// destructor-timed scope in the reference implementation.
func (b *Balancer) Balance(ctx context.Context) {
	defer b.logDuration()

	if !b.cycle.IsWarm() {
		return
	}

	if !b.needToBalance() {
		return
	}

	b.teardown()
	b.rebuild()
}

func (b *Balancer) logDuration() {
	b.logger.Info(fmt.Sprintf("Balance Page Cache %s Relocation (Sub-phase): %.3fms",
		phaseLabel(b.beforeRelocation), float64(time.Since(b.start).Microseconds())/1000.0))
}

func phaseLabel(beforeRelocation bool) string {
	if beforeRelocation {
		return "Before"
	}
	return "After"
}

// needToBalance samples the cache under the allocator lock, runs the sizing
// solver, and - if it decided to balance - loans the surplus pages out of
// the cache into loanerList. The lock is released once this returns.
func (b *Balancer) needToBalance() bool {
	b.allocator.Lock.Lock()
	defer b.allocator.Lock.Unlock()

	b.availableSmall = b.allocator.Cache.CountSmall()
	b.availableMedium = b.allocator.Cache.CountMedium()
	b.targetSmall = b.availableSmall
	b.targetMedium = b.availableMedium

	result := Solve(SolverInput{
		AvailableSmall:      b.availableSmall,
		AvailableMedium:     b.availableMedium,
		BeforeRelocation:    b.beforeRelocation,
		SmallSelectedTo:     b.smallSelectedTo,
		MediumSelectedTo:    b.mediumSelectedTo,
		HeapCapacity:        b.heap.Capacity(),
		MinPageCachePercent: b.opts.MinPageCachePercent,
		SmallSize:           b.opts.SmallPageSize,
		MediumSize:          b.opts.MediumPageSize,
		SmallRate:           b.cycle.SmallPageAllocRate.Avg(),
		MediumRate:          b.cycle.MediumPageAllocRate.Avg(),
	})

	if !result.Feasible {
		b.logger.Debug("will not balance page cache in this GC cycle " +
			"(the lower bound of page cache size exceeds available page cache size)")
		return false
	}

	b.logger.Debug(fmt.Sprintf("Allocation Rate: %.3fMB/s (small), %.3fMB/s (medium)",
		b.cycle.SmallPageAllocRate.Avg()/1024/1024, b.cycle.MediumPageAllocRate.Avg()/1024/1024))

	b.targetSmall = result.TargetSmall
	b.targetMedium = result.TargetMedium

	if !result.DoBalance {
		b.logger.Debug("will not balance page cache in this GC cycle (no page will be transformed)")
		return false
	}

	b.logger.Debug(fmt.Sprintf("Page Cache (Medium Pages): %d->%d", b.availableMedium, b.targetMedium))
	b.logger.Debug(fmt.Sprintf("Page Cache (Small Pages): %d->%d", b.availableSmall, b.targetSmall))

	b.calculateLoanerAndDebtor()
	b.loanerList = b.allocator.Cache.LoanPages(b.loanerCount, b.loanerType)

	return true
}

// calculateLoanerAndDebtor determines which class shrinks (loaner) and
// which grows (debtor). Exactly one of target-small-grows, target-medium-
// grows holds once we reach here, because needToBalance already rejected
// the no-movement case.
func (b *Balancer) calculateLoanerAndDebtor() {
	switch {
	case b.targetSmall > b.availableSmall:
		b.debtorType = page.ClassSmall
		b.debtorCount = b.targetSmall - b.availableSmall
		b.loanerType = page.ClassMedium
		b.loanerCount = b.availableMedium - b.targetMedium

	case b.targetMedium > b.availableMedium:
		b.debtorType = page.ClassMedium
		b.debtorCount = b.targetMedium - b.availableMedium
		b.loanerType = page.ClassSmall
		b.loanerCount = b.availableSmall - b.targetSmall

	default:
		panic("calculateLoanerAndDebtor called with neither class growing")
	}
}

// teardown unmaps every loaner page, then frees its physical memory and
// parks the shell on the detached list. Unmap runs without the allocator
// lock; free+detach re-acquires it per page. Each page's address is
// retired from the page table as part of the same pass, since its virtual
// range is no longer backed by anything once Detach returns.
func (b *Balancer) teardown() {
	for _, p := range b.loanerList {
		b.allocator.Physical.Unmap(p)
		validate.DebugValidate(p)
	}

	for len(b.loanerList) > 0 {
		p := b.loanerList[0]
		b.loanerList = b.loanerList[1:]
		b.table.Remove(p.Addr)
		b.allocator.Detach(p)
	}
}

// rebuild creates debtorCount fresh pages of the debtor class, maps them,
// then publishes them into the page table and the cache. Create holds the
// allocator lock per page; map runs without it; publish uses the heap's
// standard release path.
func (b *Balancer) rebuild() {
	for i := 0; i < b.debtorCount; i++ {
		size := b.debtorPageSize()
		p, err := b.allocator.CreatePage(b.debtorType, size)
		if err != nil {
			// An underlying allocation failure here is fatal - the
			// balancer does not try to recover, because teardown has
			// already freed equivalent physical memory and any shortfall
			// indicates a deeper problem.
			panic(fmt.Sprintf("create_page failed for debtor page %d/%d: %v", i+1, b.debtorCount, err))
		}
		b.allocator.IncreaseUsed(size, false)
		b.debtorList = append(b.debtorList, p)
	}

	for _, p := range b.debtorList {
		if p.Mapped() {
			panic(fmt.Sprintf("page at %#x was mapped before rebuild's map pass", p.Addr))
		}
		b.allocator.MapPage(p)
		validate.DebugValidate(p)
	}

	for len(b.debtorList) > 0 {
		p := b.debtorList[0]
		b.debtorList = b.debtorList[1:]
		validate.DebugValidate(p)
		b.heap.ReleasePage(p, false)
	}
}

func (b *Balancer) debtorPageSize() int {
	if b.debtorType == page.ClassSmall {
		return b.opts.SmallPageSize
	}
	return b.opts.MediumPageSize
}
