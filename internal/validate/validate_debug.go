//go:build debug_pagecache

package validate

// DebugValidate calls Validate and panics if it returns an error. This is a
// no-op unless the debug_pagecache build tag is present.
func DebugValidate(v Validatable) {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}
