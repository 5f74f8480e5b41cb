package detector

import (
	"math"
	"sort"
)

// Constants from spec section 4.C, pinned to the original implementation's
// literal values where the prose only names the constant.
const (
	minJump           = 25.0
	confidentSurplus  = 25.0
	confidentJump     = minJump + confidentSurplus // 50
	minGap            = 30.0
	singleMarkGap     = 8.0
	multiMarkNearGap  = 6.0
	pageThresholdWhite = 200.0
	pageThresholdBlack = 100.0

	overrideMarkMinFill   = 0.06
	overrideMarkMinGap    = 0.015
	overrideCollapseMinFill = 0.07
	overrideCollapseMinGap  = 0.015
)

// firstLargeGap locates the midpoint of the largest gap in a sorted copy
// of values, using window radius ls = (looseness+1)/2, per spec section
// 4.C's "first large gap" algorithm. If the largest gap found does not
// reach minGapRequired, fallback is returned instead.
func firstLargeGap(values []float64, looseness int, minGapRequired, fallback float64) float64 {
	threshold, jump, ok := firstLargeGapCore(values, looseness)
	if !ok || jump < minGapRequired {
		return fallback
	}
	return threshold
}

func firstLargeGapCore(values []float64, looseness int) (threshold, maxJump float64, ok bool) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	ls := (looseness + 1) / 2
	if ls < 0 {
		ls = 0
	}
	if n < 2*ls+1 {
		return 0, 0, false
	}

	maxJump = -1
	for i := ls; i < n-ls; i++ {
		jump := sorted[i+ls] - sorted[i-ls]
		if jump > maxJump {
			maxJump = jump
			threshold = sorted[i-ls] + jump/2
		}
	}
	return threshold, maxJump, true
}

// globalStdThreshold computes global_std_thresh, spec section 4.C phase 2:
// the first-large-gap threshold over the per-strip standard deviations.
// Detect computes it and discards the result; the per-strip decision in
// phase 3 does not consume it (mirrors the source, where it is computed but
// not wired into the marking decision).
func globalStdThreshold(stdDevs []float64) float64 {
	return firstLargeGap(stdDevs, 2, minJump, pageThresholdWhite)
}

// globalMeanThreshold computes global_thr, spec section 4.C phase 2: the
// first-large-gap threshold over every bubble mean on the sheet, with
// looseness = 4.
func globalMeanThreshold(allMeans []float64) float64 {
	return firstLargeGap(allMeans, 4, minJump, pageThresholdWhite)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
