package analytics

import (
	"maps"
	"math"

	"canaryAnalytics/domain"
)

// MetricAggregator holds the authoritative value of every (version, metric)
// pair. It is seeded from the previous iteration's state so metrics missing
// from a new observation keep their old value.
type MetricAggregator struct {
	counters map[string]map[string]domain.CounterDataPoint
	ratios   map[string]map[string]domain.RatioDataPoint
}

func NewMetricAggregator(prev *domain.LastState, versionIDs []string) *MetricAggregator {
	a := &MetricAggregator{
		counters: make(map[string]map[string]domain.CounterDataPoint, len(versionIDs)),
		ratios:   make(map[string]map[string]domain.RatioDataPoint, len(versionIDs)),
	}
	for _, vid := range versionIDs {
		a.counters[vid] = map[string]domain.CounterDataPoint{}
		a.ratios[vid] = map[string]domain.RatioDataPoint{}
		if prev == nil {
			continue
		}
		maps.Copy(a.counters[vid], prev.AggregatedCounterMetrics[vid])
		maps.Copy(a.ratios[vid], prev.AggregatedRatioMetrics[vid])
	}
	return a
}

// AggregateCounterMetrics overwrites the aggregate of every metric present in
// fresh with a finite value. Non-finite values leave the old aggregate untouched.
func (a *MetricAggregator) AggregateCounterMetrics(versionID string, fresh map[string]domain.CounterDataPoint) {
	agg, ok := a.counters[versionID]
	if !ok {
		agg = map[string]domain.CounterDataPoint{}
		a.counters[versionID] = agg
	}
	for metricID, dp := range fresh {
		if !isFinite(dp.Value) {
			continue
		}
		agg[metricID] = dp
	}
}

// AggregateRatioMetrics overwrites the aggregate of every metric with a finite
// fresh value. A null or non-finite fresh ratio leaves the old aggregate untouched.
func (a *MetricAggregator) AggregateRatioMetrics(versionID string, fresh map[string]domain.RatioDataPoint) {
	agg, ok := a.ratios[versionID]
	if !ok {
		agg = map[string]domain.RatioDataPoint{}
		a.ratios[versionID] = agg
	}
	for metricID, dp := range fresh {
		if dp.Value == nil || !isFinite(*dp.Value) {
			continue
		}
		agg[metricID] = dp
	}
}

func (a *MetricAggregator) Counter(versionID, metricID string) (domain.CounterDataPoint, bool) {
	dp, ok := a.counters[versionID][metricID]
	return dp, ok
}

func (a *MetricAggregator) Ratio(versionID, metricID string) (domain.RatioDataPoint, bool) {
	dp, ok := a.ratios[versionID][metricID]
	return dp, ok
}

// CounterValue is the aggregated counter value, or nil when none was ever observed.
func (a *MetricAggregator) CounterValue(versionID, metricID string) *float64 {
	dp, ok := a.Counter(versionID, metricID)
	if !ok {
		return nil
	}
	return domain.Float(dp.Value)
}

func (a *MetricAggregator) RatioValue(versionID, metricID string) *float64 {
	dp, ok := a.Ratio(versionID, metricID)
	if !ok || dp.Value == nil {
		return nil
	}
	return domain.Float(*dp.Value)
}

func (a *MetricAggregator) CounterResults() map[string]map[string]domain.CounterDataPoint {
	out := make(map[string]map[string]domain.CounterDataPoint, len(a.counters))
	for vid, m := range a.counters {
		out[vid] = maps.Clone(m)
	}
	return out
}

func (a *MetricAggregator) RatioResults() map[string]map[string]domain.RatioDataPoint {
	out := make(map[string]map[string]domain.RatioDataPoint, len(a.ratios))
	for vid, m := range a.ratios {
		out[vid] = maps.Clone(m)
	}
	return out
}

// ratioMaxMins seeds each metric's range from the previous state and folds in
// every fresh ratio observation. Metrics never observed anywhere get (nil, nil).
func ratioMaxMins(
	prev map[string]domain.RatioMaxMin,
	fresh map[string]map[string]domain.RatioDataPoint,
	metricIDs []string,
) map[string]domain.RatioMaxMin {
	out := make(map[string]domain.RatioMaxMin, len(metricIDs))
	for _, mid := range metricIDs {
		var lo, hi *float64
		if p, ok := prev[mid]; ok {
			if p.Minimum != nil {
				lo = domain.Float(*p.Minimum)
			}
			if p.Maximum != nil {
				hi = domain.Float(*p.Maximum)
			}
		}
		for _, byMetric := range fresh {
			dp, ok := byMetric[mid]
			if !ok || dp.Value == nil {
				continue
			}
			v := *dp.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if lo == nil || v < *lo {
				lo = domain.Float(v)
			}
			if hi == nil || v > *hi {
				hi = domain.Float(v)
			}
		}
		out[mid] = domain.RatioMaxMin{Minimum: lo, Maximum: hi}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
