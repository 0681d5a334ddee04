// Package allocator implements the global page allocator: the single lock
// that serialises access to the page cache, the detached list, the physical
// memory pool, and page creation.
package allocator

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/region-gc/pagecache/pagecache"
	"github.com/region-gc/pagecache/page"
	"github.com/region-gc/pagecache/physical"
)

// Allocator owns the page cache, the physical memory manager, and the
// detached list of page shells whose physical memory has been freed but
// whose virtual range has not yet been recycled. Lock serialises access to
// all of them, held only for short, bounded intervals.
type Allocator struct {
	Lock sync.Mutex

	Cache    *pagecache.Cache
	Physical *physical.Manager

	detached []*page.Page

	usedBytes      int64
	reclaimedBytes int64
	nextAddr       uintptr
	logger         *slog.Logger
}

// New constructs an Allocator over a fresh cache and a physical memory
// manager with the given ceiling in bytes.
func New(physicalCeiling int) *Allocator {
	return &Allocator{
		Cache:    pagecache.New(true),
		Physical: physical.NewManager(physicalCeiling),
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "page-allocator"),
	}
}

// Logger returns the allocator's structured logger, so collaborators
// constructed with a reference to the allocator (e.g. the balancer) can log
// consistently with it.
func (a *Allocator) Logger() *slog.Logger {
	return a.logger
}

// CreatePage allocates fresh physical memory and a fresh virtual range for a
// page of the given class, under Lock, and returns it unmapped. The lock is
// re-acquired per page by the caller, not held across a whole batch.
func (a *Allocator) CreatePage(class page.Class, size int) (*page.Page, error) {
	a.Lock.Lock()
	defer a.Lock.Unlock()

	addr := a.nextAddr
	a.nextAddr += uintptr(size)

	return a.Physical.CreatePage(class, addr, size)
}

// MapPage maps a page that was just created by CreatePage. Runs without
// Lock, since the page is still balancer-private and not reachable from any
// shared list.
func (a *Allocator) MapPage(p *page.Page) {
	a.Physical.Map(p)
}

// IncreaseUsed bumps the allocator's used-bytes counter. reclaimed controls
// whether the reclaimed-bytes counter is credited as well; debtor pages created by the
// balancer pass reclaimed=false so GC-reclaimed statistics are not charged
// for bytes that were never actually reclaimed.
func (a *Allocator) IncreaseUsed(bytes int, reclaimed bool) {
	atomic.AddInt64(&a.usedBytes, int64(bytes))
	if reclaimed {
		atomic.AddInt64(&a.reclaimedBytes, int64(bytes))
	}
}

// UsedBytes returns the total bytes currently charged as in-use.
func (a *Allocator) UsedBytes() int {
	return int(atomic.LoadInt64(&a.usedBytes))
}

// ReclaimedBytes returns the total bytes credited as reclaimed by the
// collector, as opposed to bytes the balancer rebuilt without reclaiming
// anything.
func (a *Allocator) ReclaimedBytes() int {
	return int(atomic.LoadInt64(&a.reclaimedBytes))
}

// Detach frees an already-unmapped loaner page's physical memory, then parks
// the empty page shell on the detached list. The lock is re-acquired per page
// to bound worst-case hold time.
func (a *Allocator) Detach(p *page.Page) {
	a.Lock.Lock()
	defer a.Lock.Unlock()

	a.Physical.Free(p)
	a.detached = append(a.detached, p)
}

// DetachedCount returns the number of page shells parked on the detached
// list.
func (a *Allocator) DetachedCount() int {
	a.Lock.Lock()
	defer a.Lock.Unlock()
	return len(a.detached)
}

// ReleasePage inserts a page into the cache, available for allocation, and
// credits its bytes back out of the used-bytes counters. reclaimed controls
// whether those bytes are also debited from reclaimedBytes; the balancer's
// rebuild stage passes false since a freshly built debtor page was never
// charged as reclaimed in the first place.
func (a *Allocator) ReleasePage(p *page.Page, reclaimed bool) {
	size := int64(p.Size)
	atomic.AddInt64(&a.usedBytes, -size)
	if reclaimed {
		atomic.AddInt64(&a.reclaimedBytes, -size)
	}
	a.Cache.Release(p)
}
