package analytics

import (
	"math"
	"math/rand/v2"

	"canaryAnalytics/domain"
)

// versionPosterior is the per-draw view of one version used for ranking.
// A nil reward means the version cannot be ranked at all.
type versionPosterior struct {
	id       string
	eligible []bool
	reward   []float64
}

// eligibilityMask draws one satisfaction indicator per posterior draw.
func eligibilityMask(o criterionOutcome, n int) []bool {
	mask := make([]bool, n)
	if !o.thresholded || o.exempt {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	p := o.probability()
	if p == nil || math.IsNaN(*p) {
		return mask
	}
	for i := range mask {
		mask[i] = rand.Float64() < *p
	}
	return mask
}

// versionEligibility is the draw-wise conjunction of every criterion mask.
func versionEligibility(v *Version, n int) []bool {
	eligible := make([]bool, n)
	for i := range eligible {
		eligible[i] = true
	}
	for _, o := range v.outcomes {
		mask := eligibilityMask(o, n)
		for i := range eligible {
			eligible[i] = eligible[i] && mask[i]
		}
	}
	return eligible
}

// rewardSample returns the draws ranked for v, oriented so larger is better.
func (e *Experiment) rewardSample(v *Version, agg *MetricAggregator) []float64 {
	n := e.cfg.PosteriorSampleSize
	if e.reward == nil {
		pseudo := e.cfg.CandidatePseudoReward
		if v.IsBaseline() {
			pseudo = e.cfg.BaselinePseudoReward
		}
		return constantSample(pseudo, n)
	}

	info := e.metrics[e.reward.MetricID]
	var sample []float64
	if info.kind == ratioMetric {
		sample, _ = usableSample(v.belief(e.reward.MetricID), e.cfg.PosteriorFloor)
	} else if val := agg.CounterValue(v.ID, e.reward.MetricID); val != nil && !math.IsNaN(*val) {
		sample = constantSample(*val, n)
	}
	if sample == nil {
		return nil
	}
	if info.declared == domain.DirectionLower {
		for i := range sample {
			sample[i] = -sample[i]
		}
	}
	return sample
}

func constantSample(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// evaluateWinner ranks versions draw by draw. In each draw the eligible version
// with the largest reward wins, ties broken uniformly at random. A draw in
// which nobody is eligible credits no one, so the probabilities may sum to
// less than one and an ineligible baseline cannot be declared the winner.
func evaluateWinner(posts []versionPosterior, n int, confidence float64) ([]float64, domain.WinnerAssessment) {
	wins := make([]int, len(posts))
	if len(posts) == 0 || n <= 0 {
		return make([]float64, len(posts)), domain.WinnerAssessment{}
	}

	for i := 0; i < n; i++ {
		best := -1
		bestReward := math.Inf(-1)
		ties := 0
		for j, p := range posts {
			if p.reward == nil || !p.eligible[i] {
				continue
			}
			r := p.reward[i]
			switch {
			case best == -1 || r > bestReward:
				best, bestReward, ties = j, r, 1
			case r == bestReward:
				ties++
				if rand.IntN(ties) == 0 {
					best = j
				}
			}
		}
		if best >= 0 {
			wins[best]++
		}
	}

	probs := make([]float64, len(posts))
	top := 0
	for j, w := range wins {
		probs[j] = float64(w) / float64(n)
		if probs[j] > probs[top] {
			top = j
		}
	}

	wa := domain.WinnerAssessment{}
	if probs[top] > confidence {
		wa.WinningVersionFound = true
		id := posts[top].id
		wa.CurrentWinner = &id
		wa.WinningProbability = domain.Float(probs[top])
	}
	return probs, wa
}
