package analytics

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"
)

// GenRound lazily rounds non-negative weights to integers summing exactly to
// floor(total). Each step renormalizes the remaining weights to the remaining
// total and rounds the head up with probability equal to its fractional part,
// so every output's expectation equals its exact share. Remaining weights that
// are all zero are treated as uniform.
func GenRound(weights []float64, total float64) iter.Seq[int] {
	return func(yield func(int) bool) {
		remaining := math.Max(math.Floor(total), 0)
		for i := range weights {
			rest := weights[i:]
			sum := 0.0
			for _, w := range rest {
				sum += math.Max(w, 0)
			}

			var share float64
			if sum <= 0 {
				share = remaining / float64(len(rest))
			} else {
				share = math.Max(weights[i], 0) / sum * remaining
			}
			share = math.Min(share, remaining)

			rounded := math.Floor(share)
			if rand.Float64() < share-rounded {
				rounded++
			}
			remaining -= rounded

			if !yield(int(rounded)) {
				return
			}
		}
	}
}

// Round collects GenRound into a slice.
func Round(weights []float64, total float64) []int {
	return slices.Collect(GenRound(weights, total))
}
