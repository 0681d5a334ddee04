package balance

import (
	"fmt"

	"github.com/region-gc/pagecache/internal/numeric"
)

// rateEpsilon avoids a division by zero when both allocation rates are zero
// after relocation. This deliberately biases the ratio toward zero (and
// therefore all capacity toward small pages) when both rates are small,
// matching the reference GC's behavior verbatim rather than "fixing" it.
const rateEpsilon = 0.1

// SolverInput is everything the sizing solver needs to produce a target
// small/medium page count pair. It has no dependency on the cache, the
// allocator, or any lock - every field is a plain snapshot value, which is
// what makes the solver itself a pure function and directly property-testable.
type SolverInput struct {
	AvailableSmall  int
	AvailableMedium int

	BeforeRelocation bool
	SmallSelectedTo  int
	MediumSelectedTo int

	HeapCapacity        int
	MinPageCachePercent int
	SmallSize           int
	MediumSize          int

	SmallRate  float64
	MediumRate float64
}

// SolverResult is the sizing solver's output.
type SolverResult struct {
	TargetSmall  int
	TargetMedium int
	// Feasible is false when the reservation floor alone exceeds the
	// available page cache size; in that case TargetSmall/TargetMedium are
	// zero and the balancer must no-op.
	Feasible bool
	// DoBalance is false when the feasible target matches the available
	// counts exactly, i.e. no page would be transformed.
	DoBalance bool
}

// Solve runs the sizing solver: it computes the reservation floor, checks
// feasibility, computes the rate- or relocation-driven optimal pair, and
// projects that pair onto the feasible region if it falls short of the
// floor in either dimension.
func Solve(in SolverInput) SolverResult {
	minimalSmall := calculateMinimalSmall(in)
	minimalMedium := calculateMinimalMedium(in)

	availableTotal := totalSize(in.AvailableSmall, in.AvailableMedium, in.SmallSize, in.MediumSize)

	if totalSize(minimalSmall, minimalMedium, in.SmallSize, in.MediumSize) > availableTotal {
		return SolverResult{Feasible: false}
	}

	optimalMedium := calculateOptimalMedium(in, availableTotal)
	optimalSmall := calculateOptimalSmall(in, availableTotal, optimalMedium)

	mustHold(totalSize(optimalSmall, optimalMedium, in.SmallSize, in.MediumSize) == availableTotal,
		fmt.Sprintf("optimal pair (%d, %d) does not preserve capacity %d", optimalSmall, optimalMedium, availableTotal))

	targetSmall, targetMedium := project(in, availableTotal, optimalSmall, optimalMedium, minimalSmall, minimalMedium)

	mustHold(targetSmall >= minimalSmall && targetMedium >= minimalMedium,
		fmt.Sprintf("target pair (%d, %d) violates reservation floor (%d, %d)", targetSmall, targetMedium, minimalSmall, minimalMedium))
	mustHold(totalSize(targetSmall, targetMedium, in.SmallSize, in.MediumSize) == availableTotal,
		fmt.Sprintf("target pair (%d, %d) does not preserve capacity %d", targetSmall, targetMedium, availableTotal))

	return SolverResult{
		TargetSmall:  targetSmall,
		TargetMedium: targetMedium,
		Feasible:     true,
		DoBalance:    targetMedium != in.AvailableMedium,
	}
}

// project applies the three-case projection onto the feasible region.
func project(in SolverInput, availableTotal, optimalSmall, optimalMedium, minimalSmall, minimalMedium int) (targetSmall, targetMedium int) {
	switch {
	case optimalSmall >= minimalSmall && optimalMedium >= minimalMedium:
		return optimalSmall, optimalMedium

	case optimalMedium < minimalMedium:
		targetMedium = minimalMedium
		targetSmall = maximalSmallForMedium(availableTotal, in.SmallSize, in.MediumSize, targetMedium)
		return targetSmall, targetMedium

	case optimalSmall < minimalSmall:
		// Find the largest medium count whose paired small count still
		// meets the small floor, then recompute small from it so the pair
		// exactly saturates availableTotal. This may raise medium well
		// above minimalMedium - that is intentional, to make full use of
		// the available page cache, not a bug.
		targetMedium = maximalMediumForSmall(availableTotal, in.SmallSize, in.MediumSize, minimalSmall)
		targetSmall = maximalSmallForMedium(availableTotal, in.SmallSize, in.MediumSize, targetMedium)
		return targetSmall, targetMedium

	default:
		panic("unreachable: every (optimalSmall, optimalMedium) pair should take one of the above branches")
	}
}

func calculateMinimalSmall(in SolverInput) int {
	floor := numeric.Max(int(float64(in.HeapCapacity)*float64(in.MinPageCachePercent)/100.0/float64(in.SmallSize)), 1)
	if in.BeforeRelocation {
		floor = numeric.Max(floor, in.SmallSelectedTo)
	}
	return floor
}

func calculateMinimalMedium(in SolverInput) int {
	floor := numeric.Max(int(float64(in.HeapCapacity)*float64(in.MinPageCachePercent)/100.0/float64(in.MediumSize)), 1)
	if in.BeforeRelocation {
		floor = numeric.Max(floor, in.MediumSelectedTo)
	}
	return floor
}

// calculateOptimalMedium computes the rate-matching target medium count.
// Before relocation there is no rate-matching goal, so the cache is left
// unchanged.
func calculateOptimalMedium(in SolverInput, availableTotal int) int {
	if in.BeforeRelocation {
		return in.AvailableMedium
	}

	ratio := in.MediumRate / (in.MediumRate + in.SmallRate + rateEpsilon)
	return int(float64(availableTotal) * ratio / float64(in.MediumSize))
}

func calculateOptimalSmall(in SolverInput, availableTotal, optimalMedium int) int {
	if in.BeforeRelocation {
		return in.AvailableSmall
	}
	return maximalSmallForMedium(availableTotal, in.SmallSize, in.MediumSize, optimalMedium)
}

// maximalSmallForMedium finds the largest small count that, paired with a
// fixed medium count, exactly saturates availableTotal bytes. The division
// is always exact because MediumSize is an integer multiple of SmallSize
// and availableTotal is itself a sum of such terms.
func maximalSmallForMedium(availableTotal, smallSize, mediumSize, medium int) int {
	return (availableTotal - mediumSize*medium) / smallSize
}

// maximalMediumForSmall finds the largest medium count that, paired with a
// fixed small count, fits within availableTotal bytes. Unlike
// maximalSmallForMedium, this division may floor down, which is exactly
// what makes it the "largest value that still fits" rather than an exact
// saturation.
func maximalMediumForSmall(availableTotal, smallSize, mediumSize, small int) int {
	return (availableTotal - smallSize*small) / mediumSize
}

func totalSize(small, medium, smallSize, mediumSize int) int {
	return smallSize*small + mediumSize*medium
}

// mustHold panics unconditionally when cond is false, regardless of build
// tags. This is the Go analogue of the original's release-mode guarantee(),
// used for cross-checks that must never fail if the solver's arithmetic is
// correct - as opposed to internal/validate.DebugValidate, which is the
// analogue of the original's debug-only assert() and compiles away entirely
// in production builds.
func mustHold(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}
