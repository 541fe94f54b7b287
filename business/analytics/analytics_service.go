package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canaryAnalytics/domain"
	"canaryAnalytics/pkg/logger"
)

// ---- Repository interfaces ----

// MetricsRepository is the metrics backend. Counter values are never null;
// a version missing from the returned map had no data at all.
type MetricsRepository interface {
	GetCounterMetrics(
		ctx context.Context,
		specs []domain.CounterMetricSpec,
		versions []domain.VersionSpec,
		startTime time.Time,
	) (map[string]map[string]domain.CounterDataPoint, error)

	// GetRatioMetrics may derive ratios from the already aggregated counters.
	GetRatioMetrics(
		ctx context.Context,
		specs []domain.RatioMetricSpec,
		counterSpecs []domain.CounterMetricSpec,
		counters map[string]map[string]domain.CounterDataPoint,
		versions []domain.VersionSpec,
		startTime time.Time,
	) (map[string]map[string]domain.RatioDataPoint, error)
}

// ExperimentStateRepository persists last_state between iterations.
// GetState returns (nil, nil) when nothing is stored under name.
type ExperimentStateRepository interface {
	GetState(ctx context.Context, name string) (*domain.LastState, error)
	SaveState(ctx context.Context, name string, state *domain.LastState) error
	DeleteState(ctx context.Context, name string) error
}

var ErrStateStoreDisabled = errors.New("experiment state store is not configured")

// ---- Usecase / Service ----

type AnalyticsService struct {
	metricsRepo MetricsRepository
	stateRepo   ExperimentStateRepository
	defaultCfg  Config
}

// NewAnalyticsService wires the collaborators. stateRepo may be nil, in which
// case the caller must send last_state with every request.
func NewAnalyticsService(
	metricsRepo MetricsRepository,
	stateRepo ExperimentStateRepository,
	defaultCfg Config,
) *AnalyticsService {
	return &AnalyticsService{
		metricsRepo: metricsRepo,
		stateRepo:   stateRepo,
		defaultCfg:  defaultCfg,
	}
}

// Assess runs one experiment iteration.
//
// A *FatalSpecError means the request is inconsistent and nothing was
// computed. A metrics backend failure is not an error: the previous split and
// state are returned unchanged with the metrics_backend_error status.
// Cancellation is returned as an error.
func (s *AnalyticsService) Assess(
	ctx context.Context,
	req domain.ExperimentIterationRequest,
) (domain.AssessmentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AssessmentResult{}, fmt.Errorf("context error: %w", err)
	}
	start := time.Now()
	defer func() { IterationDuration.Observe(time.Since(start).Seconds()) }()

	// 1) effective parameters
	cfg, err := s.loadConfig(req)
	if err != nil {
		IterationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return domain.AssessmentResult{}, err
	}

	// 2) previous state: request first, then the store
	statuses := newStatusSet()
	prev, err := s.previousState(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			IterationsTotal.WithLabelValues(outcomeCanceled).Inc()
			return domain.AssessmentResult{}, fmt.Errorf("load experiment state: %w", err)
		}
		logger.Warn("experiment state unavailable",
			"trace_id", TraceIDFromContext(ctx),
			"experiment", req.Name,
			"error", err,
		)
		statuses.add(domain.StatusPreviousStateNotDecoded)
	}

	// 3) build + run
	exp, err := NewExperiment(req, prev, cfg)
	if err != nil {
		IterationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return domain.AssessmentResult{}, err
	}

	result, err := exp.Run(ctx, s.metricsRepo)
	switch {
	case err == nil:
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		IterationsTotal.WithLabelValues(outcomeCanceled).Inc()
		return domain.AssessmentResult{}, err
	case errors.Is(err, ErrMetricsBackend):
		logger.Error("metrics backend failed, carrying previous split forward",
			"trace_id", TraceIDFromContext(ctx),
			"experiment", req.Name,
			"error", err,
		)
		MetricsBackendErrorsTotal.Inc()
		IterationsTotal.WithLabelValues(outcomeBackendError).Inc()
		statuses.add(domain.StatusMetricsBackendError)
		return exp.carryForward(statuses), nil
	default:
		var fatal *FatalSpecError
		if errors.As(err, &fatal) {
			IterationsTotal.WithLabelValues(outcomeInvalid).Inc()
		} else {
			IterationsTotal.WithLabelValues(outcomeError).Inc()
		}
		return domain.AssessmentResult{}, err
	}
	statuses.add(result.Status...)
	result.Status = statuses.list()

	// 4) persist for the next iteration
	if s.stateRepo != nil && req.Name != "" {
		if err := s.stateRepo.SaveState(ctx, req.Name, &result.LastState); err != nil {
			logger.Error("failed to save experiment state",
				"trace_id", TraceIDFromContext(ctx),
				"experiment", req.Name,
				"error", err,
			)
		}
	}

	// trace logging
	winner := ""
	if result.WinnerAssessment.CurrentWinner != nil {
		winner = *result.WinnerAssessment.CurrentWinner
	}
	iteration := 0
	if req.IterationNumber != nil {
		iteration = *req.IterationNumber
	}
	logger.Debug("assessment_iteration",
		"trace_id", TraceIDFromContext(ctx),
		"experiment", req.Name,
		"iteration", iteration,
		"strategy", cfg.Strategy,
		"winner", winner,
		"split", result.TrafficSplitRecommendation[cfg.Strategy],
		"status", result.Status,
	)

	// increment Prometheus counters AFTER the iteration succeeded
	IterationsTotal.WithLabelValues(outcomeOK).Inc()
	for _, code := range result.Status {
		DataQualityStatusTotal.WithLabelValues(string(code)).Inc()
	}
	return result, nil
}

func (s *AnalyticsService) previousState(
	ctx context.Context,
	req domain.ExperimentIterationRequest,
) (*domain.LastState, error) {
	if req.LastState != nil {
		return req.LastState, nil
	}
	if s.stateRepo == nil || req.Name == "" {
		return nil, nil
	}
	state, err := s.stateRepo.GetState(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// State returns the stored last_state for an experiment, or nil.
func (s *AnalyticsService) State(ctx context.Context, name string) (*domain.LastState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.stateRepo == nil {
		return nil, ErrStateStoreDisabled
	}
	state, err := s.stateRepo.GetState(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get experiment state: %w", err)
	}
	return state, nil
}

// ResetState drops the stored state so the next iteration starts fresh.
func (s *AnalyticsService) ResetState(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if s.stateRepo == nil {
		return ErrStateStoreDisabled
	}
	if err := s.stateRepo.DeleteState(ctx, name); err != nil {
		return fmt.Errorf("delete experiment state: %w", err)
	}
	logger.Info("experiment state reset", "experiment", name, "trace_id", TraceIDFromContext(ctx))
	return nil
}
