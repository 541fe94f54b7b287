package analytics

import (
	"context"
	"maps"
	"time"

	"canaryAnalytics/domain"
)

const testSampleSize = 2000

type fakeMetrics struct {
	counters map[string]map[string]domain.CounterDataPoint
	ratios   map[string]map[string]domain.RatioDataPoint
	err      error

	counterCalls int
}

func (f *fakeMetrics) GetCounterMetrics(
	ctx context.Context,
	specs []domain.CounterMetricSpec,
	versions []domain.VersionSpec,
	startTime time.Time,
) (map[string]map[string]domain.CounterDataPoint, error) {
	f.counterCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.counters, nil
}

func (f *fakeMetrics) GetRatioMetrics(
	ctx context.Context,
	specs []domain.RatioMetricSpec,
	counterSpecs []domain.CounterMetricSpec,
	counters map[string]map[string]domain.CounterDataPoint,
	versions []domain.VersionSpec,
	startTime time.Time,
) (map[string]map[string]domain.RatioDataPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ratios, nil
}

type memoryStateRepo struct {
	states map[string]*domain.LastState
	getErr error
}

func newMemoryStateRepo() *memoryStateRepo {
	return &memoryStateRepo{states: map[string]*domain.LastState{}}
}

func (m *memoryStateRepo) GetState(ctx context.Context, name string) (*domain.LastState, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.states[name], nil
}

func (m *memoryStateRepo) SaveState(ctx context.Context, name string, state *domain.LastState) error {
	cp := *state
	m.states[name] = &cp
	return nil
}

func (m *memoryStateRepo) DeleteState(ctx context.Context, name string) error {
	delete(m.states, name)
	return nil
}

func counters(values map[string]map[string]float64) map[string]map[string]domain.CounterDataPoint {
	out := map[string]map[string]domain.CounterDataPoint{}
	now := time.Now()
	for vid, byMetric := range values {
		out[vid] = map[string]domain.CounterDataPoint{}
		for mid, v := range byMetric {
			out[vid][mid] = domain.CounterDataPoint{Value: v, Timestamp: now}
		}
	}
	return out
}

func ratios(values map[string]map[string]float64) map[string]map[string]domain.RatioDataPoint {
	out := map[string]map[string]domain.RatioDataPoint{}
	now := time.Now()
	for vid, byMetric := range values {
		out[vid] = map[string]domain.RatioDataPoint{}
		for mid, v := range byMetric {
			out[vid][mid] = domain.RatioDataPoint{Value: domain.Float(v), Timestamp: now}
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

// errorCountRequest has one counter criterion: error_count must stay at or
// below limit. The request count metric is declared.
func errorCountRequest(limit float64) domain.ExperimentIterationRequest {
	return domain.ExperimentIterationRequest{
		Name:      "reviews-rollout",
		StartTime: time.Now().Add(-10 * time.Minute),
		MetricSpecs: domain.MetricSpecs{
			CounterMetrics: []domain.CounterMetricSpec{
				{ID: "error_count", PreferredDirection: domain.DirectionLower},
				{ID: domain.RequestCountMetricID},
			},
		},
		Criteria: []domain.Criterion{
			{
				ID:        "few-errors",
				MetricID:  "error_count",
				Threshold: &domain.Threshold{Type: domain.ThresholdAbsolute, Value: limit},
			},
		},
		Baseline:   domain.VersionSpec{ID: "reviews-v1", VersionLabels: map[string]string{"destination_workload": "reviews-v1"}},
		Candidates: []domain.VersionSpec{{ID: "reviews-v2", VersionLabels: map[string]string{"destination_workload": "reviews-v2"}}},
		AdvancedParameters: &domain.AdvancedParameters{
			PosteriorSampleSize: intPtr(testSampleSize),
		},
	}
}

// latencyRequest has a relative threshold on mean latency, a ratio of two counters.
func latencyRequest(relative float64) domain.ExperimentIterationRequest {
	req := errorCountRequest(0)
	req.MetricSpecs = domain.MetricSpecs{
		CounterMetrics: []domain.CounterMetricSpec{
			{ID: "total_latency"},
			{ID: domain.RequestCountMetricID},
		},
		RatioMetrics: []domain.RatioMetricSpec{
			{
				ID:                 "mean_latency",
				Numerator:          "total_latency",
				Denominator:        domain.RequestCountMetricID,
				PreferredDirection: domain.DirectionLower,
			},
		},
	}
	req.Criteria = []domain.Criterion{
		{
			ID:        "latency-vs-baseline",
			MetricID:  "mean_latency",
			Threshold: &domain.Threshold{Type: domain.ThresholdRelative, Value: relative},
		},
	}
	return req
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PosteriorSampleSize = testSampleSize
	return cfg
}

func cloneSplit(in map[string]map[string]int) map[string]map[string]int {
	out := map[string]map[string]int{}
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}
