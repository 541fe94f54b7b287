package analytics

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"canaryAnalytics/domain"
)

// Run drives one iteration: fetch, aggregate, update beliefs, assess, pick a
// winner and allocate traffic. Metric retrieval completes before any
// computation starts; a failed fetch aborts without producing a split.
func (e *Experiment) Run(ctx context.Context, metricsRepo MetricsRepository) (domain.AssessmentResult, error) {
	statuses := newStatusSet()
	versions := e.versionSpecs()
	agg := NewMetricAggregator(e.prev, e.VersionIDs())

	newCounters, err := metricsRepo.GetCounterMetrics(ctx, e.counterSpecs, versions, e.startTime)
	if err != nil {
		return domain.AssessmentResult{}, fetchError(ctx, "counter", err)
	}
	for _, v := range e.Versions() {
		fresh, ok := newCounters[v.ID]
		if !ok {
			statuses.add(domain.StatusAbsentVersion)
			continue
		}
		for _, dp := range fresh {
			statuses.add(dp.Status)
			if !isFinite(dp.Value) {
				statuses.add(domain.StatusNonFiniteValue)
			}
		}
		agg.AggregateCounterMetrics(v.ID, fresh)
	}

	newRatios, err := metricsRepo.GetRatioMetrics(ctx, e.ratioSpecs, e.counterSpecs, agg.CounterResults(), versions, e.startTime)
	if err != nil {
		return domain.AssessmentResult{}, fetchError(ctx, "ratio", err)
	}
	for _, v := range e.Versions() {
		fresh := newRatios[v.ID]
		for _, dp := range fresh {
			statuses.add(dp.Status)
			if dp.Value != nil && !isFinite(*dp.Value) {
				statuses.add(domain.StatusNonFiniteValue)
			}
		}
		agg.AggregateRatioMetrics(v.ID, fresh)
	}

	var prevMaxMins map[string]domain.RatioMaxMin
	if e.prev != nil {
		prevMaxMins = e.prev.RatioMaxMins
	}
	maxMins := ratioMaxMins(prevMaxMins, newRatios, e.ratioIDs())

	if err := e.updateBeliefs(agg, maxMins); err != nil {
		return domain.AssessmentResult{}, err
	}

	assessor := NewCriterionAssessor(e.cfg, e.metrics, agg, e.baseline)
	versionAssessor := NewVersionAssessor(e.criteria, assessor, agg, e.hasRequestCount())
	for _, v := range e.Versions() {
		statuses.merge(versionAssessor.Assess(v))
	}
	if !e.hasRequestCount() {
		statuses.add(domain.StatusNoRequestCountMetric)
	}

	n := e.cfg.PosteriorSampleSize
	posts := make([]versionPosterior, 0, len(e.candidates)+1)
	anyCandidateEligible := false
	for _, v := range e.Versions() {
		p := versionPosterior{
			id:       v.ID,
			eligible: versionEligibility(v, n),
			reward:   e.rewardSample(v, agg),
		}
		if !v.IsBaseline() && p.reward != nil && anyTrue(p.eligible) {
			anyCandidateEligible = true
		}
		posts = append(posts, p)
	}
	if len(e.candidates) > 0 && !anyCandidateEligible {
		statuses.add(domain.StatusNoCandidateIsEligible)
	}

	winProbs, winner := evaluateWinner(posts, n, e.cfg.WinnerConfidence)
	meets := make([]bool, len(posts))
	for j, v := range e.Versions() {
		v.winProbability = winProbs[j]
		meets[j] = v.meetsAllCriteria()
	}

	split := NewTrafficAllocator(e.cfg).Recommend(allocationInput{
		versionIDs:     e.VersionIDs(),
		winProbability: winProbs,
		meetsCriteria:  meets,
		current:        e.resolveCurrentSplit(),
	})

	result := domain.AssessmentResult{
		Timestamp:                  time.Now().UTC(),
		BaselineAssessment:         e.baseline.assessment(),
		CandidateAssessments:       make([]domain.CandidateAssessment, 0, len(e.candidates)),
		TrafficSplitRecommendation: split,
		WinnerAssessment:           winner,
		Status:                     statuses.list(),
		LastState: domain.LastState{
			AggregatedCounterMetrics:   agg.CounterResults(),
			AggregatedRatioMetrics:     agg.RatioResults(),
			RatioMaxMins:               maxMins,
			TrafficSplitRecommendation: split,
		},
	}
	for _, c := range e.candidates {
		result.CandidateAssessments = append(result.CandidateAssessments, c.candidateAssessment())
	}
	return result, nil
}

func (e *Experiment) updateBeliefs(agg *MetricAggregator, maxMins map[string]domain.RatioMaxMin) error {
	for _, v := range e.Versions() {
		for _, spec := range e.ratioSpecs {
			b, err := updateBelief(beliefInputs{
				spec:        spec,
				value:       agg.RatioValue(v.ID, spec.ID),
				numerator:   agg.CounterValue(v.ID, spec.Numerator),
				denominator: agg.CounterValue(v.ID, spec.Denominator),
				maxMin:      maxMins[spec.ID],
			}, e.cfg)
			if err != nil {
				return &FatalSpecError{
					Reason: ReasonDataIntegrity,
					Detail: fmt.Sprintf("version %s: %v", v.ID, err),
					Err:    err,
				}
			}
			v.beliefs[spec.ID] = b
		}
	}
	return nil
}

// carryForward is the result of an iteration whose metrics could not be
// fetched: the previous split and state are republished unchanged.
func (e *Experiment) carryForward(statuses *statusSet) domain.AssessmentResult {
	state := newEmptyState()
	if e.prev != nil {
		state = e.prev
	}

	split := map[string]map[string]int{}
	if len(state.TrafficSplitRecommendation) > 0 {
		for strategy, s := range state.TrafficSplitRecommendation {
			split[strategy] = maps.Clone(s)
		}
	} else {
		current := e.resolveCurrentSplit()
		for _, strategy := range domain.Strategies {
			split[strategy] = map[string]int{}
			for j, id := range e.VersionIDs() {
				split[strategy][id] = current[j]
			}
		}
	}

	result := domain.AssessmentResult{
		Timestamp:                  time.Now().UTC(),
		BaselineAssessment:         emptyAssessment(e.baseline.ID),
		CandidateAssessments:       make([]domain.CandidateAssessment, 0, len(e.candidates)),
		TrafficSplitRecommendation: split,
		WinnerAssessment:           domain.WinnerAssessment{},
		Status:                     statuses.list(),
		LastState:                  *state,
	}
	for _, c := range e.candidates {
		result.CandidateAssessments = append(result.CandidateAssessments, domain.CandidateAssessment{
			VersionAssessment: emptyAssessment(c.ID),
		})
	}
	return result
}

func emptyAssessment(id string) domain.VersionAssessment {
	return domain.VersionAssessment{ID: id, CriterionAssessments: []domain.CriterionAssessment{}}
}

// fetchError keeps cancellation distinct from backend failures.
func fetchError(ctx context.Context, kind string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fetch %s metrics: %w", kind, ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("fetch %s metrics: %w", kind, err)
	}
	if errors.Is(err, ErrMetricsBackend) {
		return fmt.Errorf("fetch %s metrics: %w", kind, err)
	}
	return fmt.Errorf("fetch %s metrics: %w: %w", kind, ErrMetricsBackend, err)
}

func anyTrue(xs []bool) bool {
	for _, x := range xs {
		if x {
			return true
		}
	}
	return false
}
