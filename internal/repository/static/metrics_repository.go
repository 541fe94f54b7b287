package static

import (
	"context"
	"fmt"
	"os"
	"time"

	"canaryAnalytics/domain"
	"canaryAnalytics/internal/repository/prometheus"

	"gopkg.in/yaml.v3"
)

// Observations is a fixture of already-measured metric values keyed by
// version id then metric id. YAML or JSON.
type Observations struct {
	Counters map[string]map[string]float64  `yaml:"counters"`
	Ratios   map[string]map[string]*float64 `yaml:"ratios"`
}

// MetricsRepository serves a fixed set of observations, for offline runs.
type MetricsRepository struct {
	obs Observations
	now func() time.Time
}

func NewMetricsRepository(obs Observations) *MetricsRepository {
	return &MetricsRepository{obs: obs, now: time.Now}
}

func LoadObservations(path string) (*MetricsRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}
	var obs Observations
	if err := yaml.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("unmarshaling observations: %w", err)
	}
	return NewMetricsRepository(obs), nil
}

// GetCounterMetrics returns the fixture values for the requested specs.
// Versions absent from the fixture are absent from the result.
func (r *MetricsRepository) GetCounterMetrics(
	ctx context.Context,
	specs []domain.CounterMetricSpec,
	versions []domain.VersionSpec,
	startTime time.Time,
) (map[string]map[string]domain.CounterDataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := r.now()
	out := map[string]map[string]domain.CounterDataPoint{}
	for _, v := range versions {
		byMetric, ok := r.obs.Counters[v.ID]
		if !ok {
			continue
		}
		out[v.ID] = map[string]domain.CounterDataPoint{}
		for _, spec := range specs {
			if value, ok := byMetric[spec.ID]; ok {
				out[v.ID][spec.ID] = domain.CounterDataPoint{Value: value, Timestamp: now, Status: domain.StatusAllOK}
			}
		}
	}
	return out, nil
}

// GetRatioMetrics prefers explicit fixture ratios and otherwise derives them
// from the aggregated counters.
func (r *MetricsRepository) GetRatioMetrics(
	ctx context.Context,
	specs []domain.RatioMetricSpec,
	counterSpecs []domain.CounterMetricSpec,
	counters map[string]map[string]domain.CounterDataPoint,
	versions []domain.VersionSpec,
	startTime time.Time,
) (map[string]map[string]domain.RatioDataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := r.now()
	out := prometheus.DeriveRatios(specs, counters, versions, now)
	for _, v := range versions {
		for _, spec := range specs {
			if value, ok := r.obs.Ratios[v.ID][spec.ID]; ok {
				out[v.ID][spec.ID] = domain.RatioDataPoint{Value: value, Timestamp: now, Status: domain.StatusAllOK}
			}
		}
	}
	return out, nil
}
