package analytics

import (
	"testing"

	"canaryAnalytics/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func TestEvaluateWinner_ClearWinner(t *testing.T) {
	const n = 1000
	posts := []versionPosterior{
		{id: "v1", eligible: allTrue(n), reward: constantSample(1, n)},
		{id: "v2", eligible: allTrue(n), reward: constantSample(2, n)},
	}

	probs, wa := evaluateWinner(posts, n, 0.99)
	assert.Equal(t, []float64{0, 1}, probs)
	assert.True(t, wa.WinningVersionFound)
	require.NotNil(t, wa.CurrentWinner)
	assert.Equal(t, "v2", *wa.CurrentWinner)
	assert.Equal(t, 1.0, *wa.WinningProbability)
}

func TestEvaluateWinner_NobodyEligibleCreditsNoOne(t *testing.T) {
	const n = 500
	posts := []versionPosterior{
		{id: "v1", eligible: make([]bool, n), reward: constantSample(1, n)},
		{id: "v2", eligible: make([]bool, n), reward: constantSample(2, n)},
		{id: "v3", eligible: allTrue(n), reward: nil},
	}

	probs, wa := evaluateWinner(posts, n, 0.99)
	assert.Equal(t, []float64{0, 0, 0}, probs)
	assert.False(t, wa.WinningVersionFound)
	assert.Nil(t, wa.CurrentWinner)
}

func TestEvaluateWinner_IneligibleBaselineNeverWins(t *testing.T) {
	const n = 1000
	half := make([]bool, n)
	for i := range n / 2 {
		half[i] = true
	}
	posts := []versionPosterior{
		{id: "v1", eligible: make([]bool, n), reward: constantSample(5, n)},
		{id: "v2", eligible: half, reward: constantSample(1, n)},
	}

	probs, wa := evaluateWinner(posts, n, 0.4)
	assert.Equal(t, []float64{0, 0.5}, probs)
	require.True(t, wa.WinningVersionFound)
	assert.Equal(t, "v2", *wa.CurrentWinner)
}

func TestEvaluateWinner_TiesSplitEvenly(t *testing.T) {
	const n = 10000
	posts := []versionPosterior{
		{id: "v1", eligible: allTrue(n), reward: constantSample(1, n)},
		{id: "v2", eligible: allTrue(n), reward: constantSample(1, n)},
	}

	probs, wa := evaluateWinner(posts, n, 0.99)
	assert.InDelta(t, 0.5, probs[0], 0.05)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-9)
	assert.False(t, wa.WinningVersionFound)
	assert.Nil(t, wa.CurrentWinner)
	assert.Nil(t, wa.WinningProbability)
}

func TestEligibilityMask(t *testing.T) {
	const n = 10000
	thresholded := func(p *float64) criterionOutcome {
		return criterionOutcome{
			thresholded: true,
			assessment: domain.CriterionAssessment{
				ThresholdAssessment: &domain.ThresholdAssessment{ProbabilityOfSatisfyingThreshold: p},
			},
		}
	}

	mask := eligibilityMask(thresholded(domain.Float(0.3)), n)
	hits := 0
	for _, ok := range mask {
		if ok {
			hits++
		}
	}
	assert.InDelta(t, 0.3, float64(hits)/n, 0.03)

	assert.NotContains(t, eligibilityMask(thresholded(nil), n), true)
	assert.NotContains(t, eligibilityMask(criterionOutcome{thresholded: true}, n), true)
	assert.NotContains(t, eligibilityMask(criterionOutcome{}, n), false)
	assert.NotContains(t, eligibilityMask(criterionOutcome{thresholded: true, exempt: true}, n), false)
}
