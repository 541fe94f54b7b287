package prometheus

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/domain"
	"canaryAnalytics/pkg/logger"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"golang.org/x/sync/errgroup"
)

// MetricsRepository answers counter metric queries against a Prometheus
// server. Ratio metrics are derived from the aggregated counters.
type MetricsRepository struct {
	api     promv1.API
	timeout time.Duration
	now     func() time.Time
}

func NewMetricsRepository(address string, timeout time.Duration) (*MetricsRepository, error) {
	client, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("create prometheus client: %w", err)
	}
	return &MetricsRepository{
		api:     promv1.NewAPI(client),
		timeout: timeout,
		now:     time.Now,
	}, nil
}

func (r *MetricsRepository) GetCounterMetrics(
	ctx context.Context,
	specs []domain.CounterMetricSpec,
	versions []domain.VersionSpec,
	startTime time.Time,
) (map[string]map[string]domain.CounterDataPoint, error) {
	now := r.now()
	interval := intervalSince(startTime, now)
	labels := versionLabelNames(versions)

	out := make(map[string]map[string]domain.CounterDataPoint, len(versions))
	for _, v := range versions {
		out[v.ID] = make(map[string]domain.CounterDataPoint, len(specs))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		g.Go(func() error {
			query := expandQuery(spec.QueryTemplate, interval, labels)
			samples, err := r.queryVector(gctx, query, now)
			if err != nil {
				return fmt.Errorf("counter metric %s: %w", spec.ID, err)
			}

			points := samplesByVersion(samples, versions, now)
			mu.Lock()
			defer mu.Unlock()
			for vid, dp := range points {
				out[vid][spec.ID] = dp
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return out, nil
}

// GetRatioMetrics divides the aggregated numerator by the aggregated
// denominator. No backend query is issued.
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
	return DeriveRatios(specs, counters, versions, r.now()), nil
}

func (r *MetricsRepository) queryVector(ctx context.Context, query string, ts time.Time) (model.Vector, error) {
	var opts []promv1.Option
	if r.timeout > 0 {
		opts = append(opts, promv1.WithTimeout(r.timeout))
	}

	value, warnings, err := r.api.Query(ctx, query, ts, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: query %q: %w", analytics.ErrMetricsBackend, query, err)
	}
	if len(warnings) > 0 {
		logger.Warn("prometheus query returned warnings",
			"trace_id", analytics.TraceIDFromContext(ctx),
			"query", query,
			"warnings", warnings,
		)
	}

	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("%w: query %q returned %s, want vector",
			analytics.ErrMetricsBackend, query, value.Type())
	}
	return vector, nil
}

// intervalSince is the query range in whole seconds, never below one.
func intervalSince(start, now time.Time) string {
	secs := max(int64(now.Sub(start).Seconds()), 1)
	return fmt.Sprintf("%ds", secs)
}

// versionLabelNames returns every label name used by any version, sorted.
func versionLabelNames(versions []domain.VersionSpec) string {
	set := map[string]struct{}{}
	for _, v := range versions {
		for name := range v.VersionLabels {
			set[name] = struct{}{}
		}
	}
	return strings.Join(slices.Sorted(maps.Keys(set)), ",")
}

func expandQuery(template, interval, labels string) string {
	return strings.NewReplacer(
		"$interval", interval,
		"$version_labels", labels,
	).Replace(template)
}

// samplesByVersion attributes samples to the versions whose labels they carry.
// Counter values are never null: missing data becomes zero with a status.
func samplesByVersion(samples model.Vector, versions []domain.VersionSpec, now time.Time) map[string]domain.CounterDataPoint {
	out := make(map[string]domain.CounterDataPoint, len(versions))
	for _, v := range versions {
		if len(samples) == 0 {
			out[v.ID] = domain.CounterDataPoint{Value: 0, Timestamp: now, Status: domain.StatusNoVersions}
			continue
		}

		found := false
		total := 0.0
		for _, s := range samples {
			if !matchesLabels(s.Metric, v.VersionLabels) {
				continue
			}
			found = true
			total += float64(s.Value)
		}

		switch {
		case !found:
			out[v.ID] = domain.CounterDataPoint{Value: 0, Timestamp: now, Status: domain.StatusAbsentVersion}
		case math.IsNaN(total):
			out[v.ID] = domain.CounterDataPoint{Value: 0, Timestamp: now, Status: domain.StatusNaNValue}
		case math.IsInf(total, 0):
			out[v.ID] = domain.CounterDataPoint{Value: 0, Timestamp: now, Status: domain.StatusNonFiniteValue}
		default:
			out[v.ID] = domain.CounterDataPoint{Value: total, Timestamp: now, Status: domain.StatusAllOK}
		}
	}
	return out
}

func matchesLabels(metric model.Metric, labels map[string]string) bool {
	for name, value := range labels {
		if metric[model.LabelName(name)] != model.LabelValue(value) {
			return false
		}
	}
	return true
}

// DeriveRatios computes every ratio from aggregated counters. A missing
// operand, a zero denominator or a non-finite quotient yields a null value
// with a status.
func DeriveRatios(
	specs []domain.RatioMetricSpec,
	counters map[string]map[string]domain.CounterDataPoint,
	versions []domain.VersionSpec,
	now time.Time,
) map[string]map[string]domain.RatioDataPoint {
	out := make(map[string]map[string]domain.RatioDataPoint, len(versions))
	for _, v := range versions {
		out[v.ID] = make(map[string]domain.RatioDataPoint, len(specs))
		for _, spec := range specs {
			num, okNum := counters[v.ID][spec.Numerator]
			den, okDen := counters[v.ID][spec.Denominator]

			dp := domain.RatioDataPoint{Timestamp: now}
			switch {
			case !okNum || !okDen:
				dp.Status = domain.StatusAbsentVersion
			case den.Value == 0:
				dp.Status = domain.StatusZeroDenominator
			default:
				ratio := num.Value / den.Value
				if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
					dp.Status = domain.StatusNonFiniteValue
					break
				}
				dp.Value = domain.Float(ratio)
				dp.Status = domain.StatusAllOK
			}
			out[v.ID][spec.ID] = dp
		}
	}
	return out
}
