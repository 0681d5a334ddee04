// Package heap provides the capacity query and release-page entrypoint the
// balancer's rebuild stage calls into.
package heap

import (
	"sync/atomic"

	"github.com/region-gc/pagecache/allocator"
	"github.com/region-gc/pagecache/page"
	"github.com/region-gc/pagecache/pagetable"
)

// Heap is the thin facade the rest of the GC presents to the balancer: a
// capacity figure and a page release path that resets lifecycle metadata,
// publishes into the page table, then hands the page to the allocator's
// cache.
type Heap struct {
	capacity int64

	Table     *pagetable.Table
	Allocator *allocator.Allocator

	resetCounter int64
}

// New constructs a Heap with the given byte capacity, a fresh page table,
// and the given allocator.
func New(capacityBytes int, alloc *allocator.Allocator) *Heap {
	return &Heap{
		capacity:  int64(capacityBytes),
		Table:     pagetable.New(true),
		Allocator: alloc,
	}
}

// Capacity returns the heap's total byte capacity.
func (h *Heap) Capacity() int {
	return int(atomic.LoadInt64(&h.capacity))
}

// ReleasePage resets a page's mutator-visible metadata, publishes it into
// the page table, and releases it into the allocator's cache. This is the
// standard release path; the balancer's rebuild stage calls into it with
// reclaimed=false for freshly built debtor pages.
func (h *Heap) ReleasePage(p *page.Page, reclaimed bool) {
	p.Reset(atomic.AddInt64(&h.resetCounter, 1))
	h.Table.Insert(p)
	h.Allocator.ReleasePage(p, reclaimed)
}
