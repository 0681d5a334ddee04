// Package pagetable maps a page's virtual address to its identity.
package pagetable

import (
	"github.com/region-gc/pagecache/internal/syncutil"
	"github.com/region-gc/pagecache/page"
)

// Table is an address -> page index, mutated whenever pages are created,
// destroyed, or reset.
type Table struct {
	mutex syncutil.OptionalRWMutex
	pages map[uintptr]*page.Page
}

// New constructs an empty Table.
func New(useMutex bool) *Table {
	return &Table{
		mutex: syncutil.OptionalRWMutex{UseMutex: useMutex},
		pages: make(map[uintptr]*page.Page),
	}
}

// Insert publishes a page's identity into the table, keyed by its address.
func (t *Table) Insert(p *page.Page) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pages[p.Addr] = p
}

// Remove deletes a page's identity from the table.
func (t *Table) Remove(addr uintptr) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.pages, addr)
}

// Lookup returns the page at addr, if any.
func (t *Table) Lookup(addr uintptr) (*page.Page, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	p, ok := t.pages[addr]
	return p, ok
}

// Len returns the number of entries currently in the table.
func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.pages)
}
