package analytics

import (
	"maps"
	"slices"

	"canaryAnalytics/domain"
)

func newEmptyState() *domain.LastState {
	return &domain.LastState{
		AggregatedCounterMetrics: map[string]map[string]domain.CounterDataPoint{},
		AggregatedRatioMetrics:   map[string]map[string]domain.RatioDataPoint{},
		RatioMaxMins:             map[string]domain.RatioMaxMin{},
	}
}

// pruneState drops entries for versions and metrics that are no longer part of
// the experiment. The input is never modified; a nil input yields nil.
func pruneState(prev *domain.LastState, versionIDs, counterIDs, ratioIDs []string) *domain.LastState {
	if prev == nil {
		return nil
	}
	out := newEmptyState()

	for vid, byMetric := range prev.AggregatedCounterMetrics {
		if !slices.Contains(versionIDs, vid) {
			continue
		}
		out.AggregatedCounterMetrics[vid] = maps.Clone(byMetric)
		maps.DeleteFunc(out.AggregatedCounterMetrics[vid], func(mid string, _ domain.CounterDataPoint) bool {
			return !slices.Contains(counterIDs, mid)
		})
	}
	for vid, byMetric := range prev.AggregatedRatioMetrics {
		if !slices.Contains(versionIDs, vid) {
			continue
		}
		out.AggregatedRatioMetrics[vid] = maps.Clone(byMetric)
		maps.DeleteFunc(out.AggregatedRatioMetrics[vid], func(mid string, _ domain.RatioDataPoint) bool {
			return !slices.Contains(ratioIDs, mid)
		})
	}
	for mid, mm := range prev.RatioMaxMins {
		if slices.Contains(ratioIDs, mid) {
			out.RatioMaxMins[mid] = mm
		}
	}
	if len(prev.TrafficSplitRecommendation) > 0 {
		out.TrafficSplitRecommendation = make(map[string]map[string]int, len(prev.TrafficSplitRecommendation))
		for strategy, split := range prev.TrafficSplitRecommendation {
			out.TrafficSplitRecommendation[strategy] = maps.Clone(split)
		}
	}
	return out
}
