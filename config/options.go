// Package config holds the process-wide, read-only-during-a-balance
// tunables the balancer and page allocator consume.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/region-gc/pagecache/internal/numeric"
)

// Options are validated once, at construction, and treated as immutable
// afterward.
type Options struct {
	// BalancePageCache is a feature flag; the balancer panics if asked to
	// run while it is false.
	BalancePageCache bool
	// MinPageCachePercent is the percentage of heap capacity reserved for
	// cached pages, 0-100.
	MinPageCachePercent int
	// SmallPageSize and MediumPageSize are the two cached page size
	// classes. MediumPageSize must be a positive integer multiple of
	// SmallPageSize.
	SmallPageSize  int
	MediumPageSize int
}

// New validates o and returns it, or an error describing the first
// violation found.
func New(o Options) (Options, error) {
	if o.MinPageCachePercent < 0 || o.MinPageCachePercent > 100 {
		return Options{}, errors.Newf("MinPageCachePercent must be in [0, 100], got %d", o.MinPageCachePercent)
	}
	if err := numeric.CheckPow2(o.SmallPageSize, "SmallPageSize"); err != nil {
		return Options{}, err
	}
	if err := numeric.CheckMultiple(o.MediumPageSize, o.SmallPageSize, "MediumPageSize"); err != nil {
		return Options{}, err
	}
	return o, nil
}
