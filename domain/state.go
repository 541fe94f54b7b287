package domain

import "time"

// CounterDataPoint always carries a value; absent data is recorded as zero with a status.
type CounterDataPoint struct {
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
	Status    StatusCode `json:"status,omitempty"`
}

// RatioDataPoint has a nil Value when the ratio cannot be computed.
type RatioDataPoint struct {
	Value     *float64   `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
	Status    StatusCode `json:"status,omitempty"`
}

// RatioMaxMin is the running range of a ratio metric over all versions and iterations.
type RatioMaxMin struct {
	Minimum *float64 `json:"minimum"`
	Maximum *float64 `json:"maximum"`
}

// LastState is the only contract carried from one iteration to the next.
// Outer keys of the aggregated maps are version ids, inner keys metric ids.
type LastState struct {
	AggregatedCounterMetrics   map[string]map[string]CounterDataPoint `json:"aggregated_counter_metrics"`
	AggregatedRatioMetrics     map[string]map[string]RatioDataPoint   `json:"aggregated_ratio_metrics"`
	RatioMaxMins               map[string]RatioMaxMin                 `json:"ratio_max_mins"`
	TrafficSplitRecommendation map[string]map[string]int              `json:"traffic_split_recommendation,omitempty"`
}

func Float(v float64) *float64 {
	return &v
}
