package detector

import "math"

// stripDecision is the outcome of running spec section 4.C phase 3 on one
// question's bubble strip.
type stripDecision struct {
	MarkedIndices []int
	Intensities   []float64 // core_mean per bubble, in strip order
}

// decideStrip applies the full phase-3 procedure: per-strip threshold,
// initial marking, darkest-wins / near-tie collapsing, and the fill-ratio
// override, returning the indices of bubbles that end up marked.
func decideStrip(features []bubbleFeature, globalThr float64) stripDecision {
	means := make([]float64, len(features))
	for i, f := range features {
		means[i] = f.Mean
	}

	threshold := perStripThreshold(means, globalThr)
	marked := markBelow(means, threshold)
	marked = resolveRunawayOrTies(means, marked)
	marked = applyFillRatioOverride(features, marked)

	return stripDecision{MarkedIndices: marked, Intensities: means}
}

// perStripThreshold implements spec section 4.C phase 3 step 1.
func perStripThreshold(means []float64, globalThr float64) float64 {
	n := len(means)
	if n == 0 {
		return globalThr
	}
	if n < 3 {
		mn, mx := minMax(means)
		if mx-mn < minGap {
			return globalThr
		}
		return mean(means)
	}

	threshold, jump, ok := firstLargeGapCore(means, 2)
	if !ok || jump < confidentJump {
		threshold = globalThr
	}

	mn, mx := minMax(means)
	if threshold >= mx {
		threshold = (mn + mx) / 2
	} else if threshold <= mn {
		threshold = globalThr
	}
	return threshold
}

func markBelow(means []float64, threshold float64) []int {
	var marked []int
	for i, m := range means {
		if m < threshold {
			marked = append(marked, i)
		}
	}
	return marked
}

// resolveRunawayOrTies implements spec section 4.C phase 3 steps 3-4:
// collapsing a threshold runaway (everything marked) down to the single
// darkest bubble when it is clearly darker, and collapsing multiple
// marks down to the single darkest bubble unless several are tied.
func resolveRunawayOrTies(means []float64, marked []int) []int {
	if len(marked) == len(means) && len(means) > 0 {
		darkest, secondDarkest := darkestTwo(means, marked)
		if secondDarkest-darkest.mean >= singleMarkGap {
			return []int{darkest.index}
		}
		return nil
	}

	if len(marked) > 1 {
		darkest, secondDarkest := darkestTwo(means, marked)
		if secondDarkest-darkest.mean >= singleMarkGap {
			return []int{darkest.index}
		}
		var kept []int
		for _, i := range marked {
			if means[i]-darkest.mean <= multiMarkNearGap {
				kept = append(kept, i)
			}
		}
		return kept
	}
	return marked
}

type indexedMean struct {
	index int
	mean  float64
}

// darkestTwo returns the darkest marked bubble and the mean of the second
// darkest (or +Inf if there is only one).
func darkestTwo(means []float64, marked []int) (indexedMean, float64) {
	darkest := indexedMean{index: marked[0], mean: means[marked[0]]}
	second := math.Inf(1)
	for _, i := range marked[1:] {
		m := means[i]
		if m < darkest.mean {
			second = darkest.mean
			darkest = indexedMean{index: i, mean: m}
		} else if m < second {
			second = m
		}
	}
	return darkest, second
}

// applyFillRatioOverride implements spec section 4.C phase 3 step 5.
func applyFillRatioOverride(features []bubbleFeature, marked []int) []int {
	if len(features) < 2 {
		return marked
	}
	topIdx, secondIdx := topTwoFillRatios(features)
	top := features[topIdx].FillRatio
	fillGap := top - features[secondIdx].FillRatio

	switch {
	case len(marked) == 0 && top >= overrideMarkMinFill && fillGap >= overrideMarkMinGap:
		return []int{topIdx}
	case len(marked) >= 2 && top >= overrideCollapseMinFill && fillGap >= overrideCollapseMinGap:
		return []int{topIdx}
	default:
		return marked
	}
}

func topTwoFillRatios(features []bubbleFeature) (top, second int) {
	top, second = 0, 0
	for i, f := range features {
		if f.FillRatio > features[top].FillRatio {
			second = top
			top = i
		} else if i != top && f.FillRatio > features[second].FillRatio {
			second = i
		}
	}
	if top == second && len(features) > 1 {
		second = 1
		if top == 1 {
			second = 0
		}
	}
	return top, second
}

func minMax(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
