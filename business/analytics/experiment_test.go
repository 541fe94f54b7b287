package analytics

import (
	"errors"
	"testing"

	"canaryAnalytics/domain"
	"canaryAnalytics/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExperiment_FatalSpecErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.ExperimentIterationRequest)
		reason FatalReason
	}{
		{
			name: "unknown criterion metric",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.Criteria[0].MetricID = "nope"
			},
			reason: ReasonUnknownMetric,
		},
		{
			name: "unknown ratio operand",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.MetricSpecs.RatioMetrics[0].Denominator = "missing_counter"
			},
			reason: ReasonUnknownRatioOperand,
		},
		{
			name: "duplicate counter",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.MetricSpecs.CounterMetrics = append(r.MetricSpecs.CounterMetrics, domain.CounterMetricSpec{ID: "total_latency"})
			},
			reason: ReasonDuplicateMetric,
		},
		{
			name: "ratio shadows counter",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.MetricSpecs.RatioMetrics[0].ID = "total_latency"
				r.Criteria[0].MetricID = "total_latency"
			},
			reason: ReasonDuplicateMetric,
		},
		{
			name: "relative threshold on counter",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.Criteria[0].MetricID = "total_latency"
			},
			reason: ReasonRelativeOnCounter,
		},
		{
			name: "two rewards",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.Criteria[0].IsReward = true
				r.Criteria = append(r.Criteria, domain.Criterion{ID: "r2", MetricID: "mean_latency", IsReward: true})
			},
			reason: ReasonMultipleRewards,
		},
		{
			name: "missing baseline id",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.Baseline.ID = ""
			},
			reason: ReasonMissingVersionID,
		},
		{
			name: "duplicate version",
			mutate: func(r *domain.ExperimentIterationRequest) {
				r.Candidates[0].ID = r.Baseline.ID
			},
			reason: ReasonDuplicateVersion,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := latencyRequest(1.1)
			tc.mutate(&req)

			_, err := NewExperiment(req, nil, testConfig())
			require.Error(t, err)

			var fatal *FatalSpecError
			require.True(t, errors.As(err, &fatal))
			assert.Equal(t, tc.reason, fatal.Reason)
		})
	}
}

func TestNewExperiment_OnlyNeededMetrics(t *testing.T) {
	req := latencyRequest(1.1)
	req.MetricSpecs.CounterMetrics = append(req.MetricSpecs.CounterMetrics,
		domain.CounterMetricSpec{ID: "unused_counter"})

	e, err := NewExperiment(req, nil, testConfig())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"total_latency", domain.RequestCountMetricID}, e.counterIDs())
	assert.Equal(t, []string{"mean_latency"}, e.ratioIDs())
	assert.Equal(t, []string{"reviews-v1", "reviews-v2"}, e.VersionIDs())
	assert.True(t, e.hasRequestCount())

	require.Len(t, e.ratioSpecs, 1)
	assert.Equal(t, "total_latency", e.ratioSpecs[0].Numerator)
}

func TestLoadConfig(t *testing.T) {
	svc := NewAnalyticsService(&fakeMetrics{}, nil, DefaultConfig())

	req := errorCountRequest(1)
	req.AdvancedParameters = &domain.AdvancedParameters{
		WinnerConfidence:     domain.Float(0.9),
		VarianceBoostFactor:  domain.Float(2),
		BaselinePseudoReward: domain.Float(3),
	}
	req.TrafficControl = domain.TrafficControl{Strategy: domain.StrategyTop2, MaxIncrement: intPtr(5)}

	cfg, err := svc.loadConfig(req)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.WinnerConfidence)
	assert.Equal(t, 2.0, cfg.VarianceBoostFactor)
	assert.Equal(t, 3.0, cfg.BaselinePseudoReward)
	assert.Equal(t, DefaultConfig().CandidatePseudoReward, cfg.CandidatePseudoReward)
	assert.Equal(t, domain.StrategyTop2, cfg.Strategy)
	assert.Equal(t, 5, cfg.MaxIncrement)
	assert.Equal(t, DefaultConfig().PosteriorSampleSize, cfg.PosteriorSampleSize)
	assert.Equal(t, 100, cfg.MaxTrafficPercent)

	for _, size := range []int{0, domain.MaxPosteriorSampleSize + 1} {
		req.AdvancedParameters.PosteriorSampleSize = intPtr(size)
		_, err = svc.loadConfig(req)
		var fatal *FatalSpecError
		require.ErrorAs(t, err, &fatal, "size %d", size)
		assert.Equal(t, ReasonInvalidParameters, fatal.Reason)
	}

	req.AdvancedParameters.PosteriorSampleSize = intPtr(domain.MaxPosteriorSampleSize)
	_, err = svc.loadConfig(req)
	assert.NoError(t, err)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.AnalyticsConfig{
		PosteriorSampleSize:   500,
		CredibleIntervalLevel: 0.9,
		WinnerConfidence:      0.95,
		VarianceBoostFactor:   2,
		BaselinePseudoReward:  1,
		CandidatePseudoReward: 3,
		PosteriorFloor:        -1,
	})

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500, cfg.PosteriorSampleSize)
	assert.Equal(t, 3.0, cfg.CandidatePseudoReward)
	assert.Equal(t, -1.0, cfg.PosteriorFloor)
	assert.Equal(t, domain.StrategyProgressive, cfg.Strategy)
	assert.Equal(t, 2, cfg.MaxIncrement)
}
