package analytics

import (
	"math"
	"slices"

	"canaryAnalytics/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// allFinite reports whether every draw is a real number.
func allFinite(sample []float64) bool {
	if floats.HasNaN(sample) {
		return false
	}
	for _, x := range sample {
		if math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// usableSample draws the floor-clamped posterior of b, or nil when the belief
// is uninitialized or produced non-finite draws.
func usableSample(b *Belief, floor float64) ([]float64, domain.StatusCode) {
	if !b.Initialized() {
		return nil, domain.StatusBeliefUninitialized
	}
	sample, err := b.SamplePosterior(floor)
	if err != nil {
		return nil, domain.StatusBeliefUninitialized
	}
	if len(sample) == 0 || !allFinite(sample) {
		return nil, domain.StatusNonFiniteSample
	}
	return sample, ""
}

// credibleInterval is the central interval of sample at the given level with
// both ends floored at zero. It is nil for degenerate samples.
func credibleInterval(sample []float64, level float64) *domain.Interval {
	if len(sample) == 0 || !allFinite(sample) {
		return nil
	}
	if floats.Max(sample) == floats.Min(sample) {
		return nil
	}

	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	lo := stat.Quantile((1-level)/2, stat.Empirical, sorted, nil)
	hi := stat.Quantile((1+level)/2, stat.Empirical, sorted, nil)

	return &domain.Interval{Lower: math.Max(lo, 0), Upper: math.Max(hi, 0)}
}

// satisfies compares one value against a limit in the metric's preferred direction.
func satisfies(direction domain.PreferredDirection, value, limit float64) bool {
	if direction == domain.DirectionHigher {
		return value >= limit
	}
	return value <= limit
}

func breached(direction domain.PreferredDirection, value, limit float64) bool {
	return !satisfies(direction, value, limit)
}

// fractionSatisfying is the share of draws within an absolute limit.
func fractionSatisfying(direction domain.PreferredDirection, sample []float64, limit float64) float64 {
	hits := 0
	for _, x := range sample {
		if satisfies(direction, x, limit) {
			hits++
		}
	}
	return float64(hits) / float64(len(sample))
}

// fractionSatisfyingRelative compares candidate draws against baseline draws
// scaled by the threshold value, draw by draw.
func fractionSatisfyingRelative(direction domain.PreferredDirection, candidate, baseline []float64, scale float64) float64 {
	limits := slices.Clone(baseline)
	floats.Scale(scale, limits)

	n := min(len(candidate), len(limits))
	if n == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < n; i++ {
		if satisfies(direction, candidate[i], limits[i]) {
			hits++
		}
	}
	return float64(hits) / float64(n)
}
