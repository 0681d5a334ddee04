// Package pagecache holds the multiset of ready-to-allocate pages the
// balancer loans from and releases into.
package pagecache

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/region-gc/pagecache/internal/syncutil"
	"github.com/region-gc/pagecache/page"
)

// Cache is a multiset of cached pages partitioned by size class. It makes no
// ordering guarantees to callers about which pages LoanPages returns.
type Cache struct {
	mutex syncutil.OptionalRWMutex

	small  []*page.Page
	medium []*page.Page
	large  []*page.Page
}

// New constructs an empty Cache. useMutex should be false only in
// single-threaded tests.
func New(useMutex bool) *Cache {
	return &Cache{mutex: syncutil.OptionalRWMutex{UseMutex: useMutex}}
}

func (c *Cache) listFor(class page.Class) *[]*page.Page {
	switch class {
	case page.ClassSmall:
		return &c.small
	case page.ClassMedium:
		return &c.medium
	default:
		return &c.large
	}
}

// CountSmall returns the number of cached small pages.
func (c *Cache) CountSmall() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.small)
}

// CountMedium returns the number of cached medium pages.
func (c *Cache) CountMedium() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.medium)
}

// Count returns the number of cached pages of the given class.
func (c *Cache) Count(class page.Class) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(*c.listFor(class))
}

// LoanPages atomically removes up to n cached pages of the given class and
// returns them. Fewer than n may be returned if the cache does not hold
// enough. Callers must not assume anything about which pages come back.
func (c *Cache) LoanPages(n int, class page.Class) []*page.Page {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	list := c.listFor(class)
	if n > len(*list) {
		n = len(*list)
	}

	start := len(*list) - n
	loaned := append([]*page.Page(nil), (*list)[start:]...)
	*list = (*list)[:start]
	return loaned
}

// Release inserts a mapped, physically-backed page into the cache.
func (c *Cache) Release(p *page.Page) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	list := c.listFor(p.Class)
	*list = append(*list, p)
}

// DumpJSON writes a compact summary of cache occupancy.
func (c *Cache) DumpJSON(w *jwriter.Writer) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	obj := w.Object()
	defer obj.End()

	obj.Name("small").Int(len(c.small))
	obj.Name("medium").Int(len(c.medium))
	obj.Name("large").Int(len(c.large))
}
