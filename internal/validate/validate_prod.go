//go:build !debug_pagecache

package validate

// DebugValidate is a no-op unless the debug_pagecache build tag is present.
func DebugValidate(v Validatable) {
}
