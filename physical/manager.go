// Package physical manages the physical memory pool backing cached pages:
// mapping, unmapping, freeing, and drawing fresh physical memory for newly
// created pages.
package physical

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/region-gc/pagecache/page"
)

// ErrExhausted is returned by CreatePage when neither the free pool nor the
// ceiling can satisfy the request. This is an underlying allocation failure
// the balancer does not try to recover from.
var ErrExhausted = errors.New("physical memory exhausted")

// Manager tracks a pool of free physical bytes left behind by teardown, plus
// a hard ceiling on how much physical memory may ever be outstanding.
// Counters are atomically updated rather than guarded by a held lock,
// because Map/Unmap/Free run without the allocator lock.
type Manager struct {
	ceiling   int64
	poolFree  int64 // freed-but-not-yet-reused physical bytes
	allocated int64 // physical bytes currently owned by live pages
}

// NewManager constructs a Manager with the given total physical ceiling in
// bytes.
func NewManager(ceiling int) *Manager {
	return &Manager{ceiling: int64(ceiling)}
}

// Allocated returns the number of physical bytes currently owned by pages.
func (m *Manager) Allocated() int {
	return int(atomic.LoadInt64(&m.allocated))
}

// PoolFree returns the number of free physical bytes sitting in the pool,
// available to satisfy the next CreatePage before the ceiling is consulted.
func (m *Manager) PoolFree() int {
	return int(atomic.LoadInt64(&m.poolFree))
}

// CreatePage draws size bytes of physical memory (preferring the free pool,
// falling back to the ceiling) and returns a fresh, unmapped page of the
// given class.
func (m *Manager) CreatePage(class page.Class, addr uintptr, size int) (*page.Page, error) {
	if !m.reserve(size) {
		return nil, errors.Wrapf(ErrExhausted, "requested %d bytes for a %s page", size, class)
	}

	p := page.New(class, addr, size)
	p.SetPhysical(page.NewPhysical(size))
	return p, nil
}

func (m *Manager) reserve(size int) bool {
	for {
		pool := atomic.LoadInt64(&m.poolFree)
		fromPool := int64(size)
		if fromPool > pool {
			fromPool = pool
		}
		needed := int64(size) - fromPool

		// Pooled bytes are still outstanding physical memory, so they count
		// against the ceiling alongside the bytes owned by live pages.
		allocated := atomic.LoadInt64(&m.allocated)
		if allocated+pool+needed > m.ceiling {
			return false
		}

		if !atomic.CompareAndSwapInt64(&m.poolFree, pool, pool-fromPool) {
			continue
		}
		atomic.AddInt64(&m.allocated, int64(size))
		return true
	}
}

// Map marks a page as virtually mapped. Mapping an already-mapped page is a
// programming error.
func (m *Manager) Map(p *page.Page) {
	if p.Mapped() {
		panic(fmt.Sprintf("page at %#x was already mapped", p.Addr))
	}
	p.SetMapped(true)
}

// Unmap drops a page's virtual mapping without touching its physical
// descriptor. Unmapping an unmapped page is a programming error.
func (m *Manager) Unmap(p *page.Page) {
	if !p.Mapped() {
		panic(fmt.Sprintf("page at %#x was not mapped", p.Addr))
	}
	p.SetMapped(false)
}

// Free returns a page's physical memory to the pool and clears its
// descriptor. The page must already be unmapped.
func (m *Manager) Free(p *page.Page) {
	if p.Mapped() {
		panic(fmt.Sprintf("page at %#x was freed while still mapped", p.Addr))
	}
	if !p.Physical().IsBacked() {
		panic(fmt.Sprintf("page at %#x was freed with no physical memory owned", p.Addr))
	}

	size := int64(p.Physical().Bytes())
	atomic.AddInt64(&m.allocated, -size)
	atomic.AddInt64(&m.poolFree, size)
	p.ClearPhysical()
}
