package analytics

import (
	"cmp"
	"slices"

	"canaryAnalytics/domain"
)

// allocationInput is what every traffic policy sees. Index 0 is the baseline.
type allocationInput struct {
	versionIDs     []string
	winProbability []float64
	meetsCriteria  []bool
	current        []int
}

// TrafficAllocator turns version assessments into integer splits summing to 100.
type TrafficAllocator struct {
	cfg Config
}

func NewTrafficAllocator(cfg Config) *TrafficAllocator {
	return &TrafficAllocator{cfg: cfg}
}

// Recommend computes a split for every policy.
func (t *TrafficAllocator) Recommend(in allocationInput) map[string]map[string]int {
	out := make(map[string]map[string]int, len(domain.Strategies))
	for _, strategy := range domain.Strategies {
		var proposal []int
		stepLimited := true
		switch strategy {
		case domain.StrategyUniform:
			proposal = uniformSplit(len(in.versionIDs))
			stepLimited = false
		case domain.StrategyProgressive:
			proposal = progressiveSplit(in.winProbability)
		case domain.StrategyTop2:
			proposal = top2Split(in.winProbability)
		}
		out[strategy] = t.constrain(in, proposal, stepLimited)
	}
	return out
}

func uniformSplit(n int) []int {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return Round(weights, 100)
}

// progressiveSplit sends everything to the version most likely to win.
// Ties go to the earliest version, so the baseline keeps traffic on a tie.
func progressiveSplit(winProbability []float64) []int {
	split := make([]int, len(winProbability))
	if len(split) == 0 {
		return split
	}
	best := 0
	for j, p := range winProbability {
		if p > winProbability[best] {
			best = j
		}
	}
	split[best] = 100
	return split
}

// top2Split shares traffic between the two most likely winners in proportion
// to their win probabilities.
func top2Split(winProbability []float64) []int {
	split := make([]int, len(winProbability))
	if len(split) == 0 {
		return split
	}
	if len(split) == 1 {
		split[0] = 100
		return split
	}

	order := make([]int, len(winProbability))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(winProbability[b], winProbability[a])
	})

	first, second := order[0], order[1]
	rounded := Round([]float64{winProbability[first], winProbability[second]}, 100)
	split[first] = rounded[0]
	split[second] = rounded[1]
	return split
}

// constrain applies the operator limits to a proposal. Candidates may grow by
// at most MaxIncrement per iteration (step-limited policies only) and never
// exceed MaxTrafficPercent. A candidate failing a criterion is held at its
// current share: it neither grows nor loses traffic to the proposal. The
// baseline takes whatever remains.
func (t *TrafficAllocator) constrain(in allocationInput, proposal []int, stepLimited bool) map[string]int {
	out := make(map[string]int, len(in.versionIDs))
	if len(in.versionIDs) == 0 {
		return out
	}

	n := len(in.versionIDs)
	held := make([]int, n)
	free := make([]int, n)
	for j := 1; j < n; j++ {
		if !in.meetsCriteria[j] {
			held[j] = max(min(in.current[j], t.cfg.MaxTrafficPercent), 0)
			continue
		}
		share := proposal[j]
		if stepLimited {
			share = min(share, in.current[j]+t.cfg.MaxIncrement)
		}
		free[j] = max(min(share, t.cfg.MaxTrafficPercent), 0)
	}

	held = fitWithin(held, 100)
	heldTotal := 0
	for _, s := range held {
		heldTotal += s
	}
	free = fitWithin(free, 100-heldTotal)

	candidateTotal := 0
	for j := 1; j < n; j++ {
		share := held[j] + free[j]
		out[in.versionIDs[j]] = share
		candidateTotal += share
	}
	out[in.versionIDs[0]] = 100 - candidateTotal
	return out
}

// fitWithin scales shares down so they sum to at most total. No share grows.
func fitWithin(shares []int, total int) []int {
	sum := 0
	for _, s := range shares {
		sum += s
	}
	if sum <= total {
		return shares
	}

	weights := make([]float64, len(shares))
	for i, s := range shares {
		weights[i] = float64(s)
	}
	scaled := Round(weights, float64(max(total, 0)))
	for i := range scaled {
		scaled[i] = min(scaled[i], shares[i])
	}
	return scaled
}

// resolveCurrentSplit returns each version's current share: the request's observed
// split, else the previous recommendation for the chosen strategy, else
// everything on the baseline.
func (e *Experiment) resolveCurrentSplit() []int {
	ids := e.VersionIDs()
	split := make([]int, len(ids))

	source := e.currentSplit
	if len(source) == 0 && e.prev != nil {
		source = e.prev.TrafficSplitRecommendation[e.cfg.Strategy]
	}
	if len(source) == 0 {
		split[0] = 100
		return split
	}
	for j, id := range ids {
		split[j] = max(source[id], 0)
	}
	return split
}
