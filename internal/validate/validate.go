// Package validate holds the invariant-checking contract shared by the page,
// cache, and balancer types. DebugValidate only panics when the
// debug_pagecache build tag is present, so release builds pay nothing for
// it; see validate_debug.go and validate_prod.go.
package validate

// Validatable is implemented by anything DebugValidate can check.
type Validatable interface {
	Validate() error
}
