// Package numeric holds the small arithmetic helpers the sizing solver and
// page-size validation lean on.
package numeric

import "github.com/cockroachdb/errors"

// ErrNotPowerOfTwo is returned by CheckPow2 when a value fails the check.
var ErrNotPowerOfTwo = errors.New("value must be a power of two")

// ErrNotMultiple is returned by CheckMultiple when a value fails the check.
var ErrNotMultiple = errors.New("value must be an integer multiple of the base")

// CheckPow2 returns an error unless value is a positive power of two.
func CheckPow2(value int, name string) error {
	if value <= 0 || value&(value-1) != 0 {
		return errors.Wrapf(ErrNotPowerOfTwo, "%s is %d", name, value)
	}
	return nil
}

// CheckMultiple returns an error unless value is a positive integer multiple
// of base.
func CheckMultiple(value, base int, name string) error {
	if base <= 0 || value <= 0 || value%base != 0 {
		return errors.Wrapf(ErrNotMultiple, "%s is %d, base is %d", name, value, base)
	}
	return nil
}

// Max returns the larger of a and b.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
