// Package page defines the heap page type shared by the cache, the page
// table, the physical memory manager, and the balancer.
package page

import (
	"github.com/cockroachdb/errors"
)

// Class is a heap page size class. Large pages exist in the page table and
// the cache but are never selected for rebalancing.
type Class int

const (
	ClassSmall Class = iota
	ClassMedium
	ClassLarge
)

func (c Class) String() string {
	switch c {
	case ClassSmall:
		return "small"
	case ClassMedium:
		return "medium"
	case ClassLarge:
		return "large"
	default:
		return "unknown"
	}
}

// Physical is an opaque descriptor for the physical memory backing a page.
// A zero value means the page is not physically backed.
type Physical struct {
	bytes int
}

// NewPhysical constructs a descriptor for a freshly drawn physical memory
// region of the given size. Intended for use only by the physical memory
// manager.
func NewPhysical(bytes int) Physical {
	return Physical{bytes: bytes}
}

// IsBacked reports whether this descriptor currently owns physical memory.
func (p Physical) IsBacked() bool {
	return p.bytes > 0
}

// Bytes returns the size of the backing physical memory, or 0 if unbacked.
func (p Physical) Bytes() int {
	return p.bytes
}

// Page is a contiguous heap region of a fixed size class. A page exclusively
// owns its physical memory; moving a page between lists transfers that
// ownership, it is never duplicated.
type Page struct {
	Class Class
	Addr  uintptr
	Size  int

	phys   Physical
	mapped bool

	// Used/ResetAt are mutator-visible lifecycle metadata, reset each time
	// the page is published back into the cache.
	Used    bool
	ResetAt int64
}

// New constructs a page shell with no physical backing and no mapping. The
// physical memory manager's CreatePage builds on it, attaching physical
// backing before handing the page back unmapped.
func New(class Class, addr uintptr, size int) *Page {
	return &Page{Class: class, Addr: addr, Size: size}
}

// Mapped reports whether the page currently has a virtual mapping.
func (p *Page) Mapped() bool {
	return p.mapped
}

// Physical returns the page's physical memory descriptor.
func (p *Page) Physical() Physical {
	return p.phys
}

// SetPhysical attaches a physical memory descriptor to the page. Intended
// for use only by the physical memory manager.
func (p *Page) SetPhysical(phys Physical) {
	p.phys = phys
}

// ClearPhysical detaches the page's physical memory descriptor. Intended for
// use only by the physical memory manager, after the backing memory has
// been freed.
func (p *Page) ClearPhysical() {
	p.phys = Physical{}
}

// SetMapped is used only by the physical memory manager's Map/Unmap calls.
func (p *Page) SetMapped(mapped bool) {
	p.mapped = mapped
}

// Reset clears mutator-visible metadata before the page re-enters the cache.
func (p *Page) Reset(at int64) {
	p.Used = false
	p.ResetAt = at
}

// Validate enforces the data-model invariant: a page that claims to be
// mapped must be physically backed. A page with physical backing but no
// mapping is only valid transiently (the balancer's own loaner/debtor
// lists hold pages in that state between stages), so this is checked by
// callers at the points where it must hold, not unconditionally on every
// Page in existence.
func (p *Page) Validate() error {
	if p.mapped && !p.phys.IsBacked() {
		return errors.Newf("page at %#x is mapped but has no physical memory", p.Addr)
	}
	return nil
}
