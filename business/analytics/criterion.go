package analytics

import (
	"canaryAnalytics/domain"
)

// criterionOutcome is the assessment of one criterion for one version plus
// what the winner evaluation needs to build its eligibility mask.
type criterionOutcome struct {
	criterion   domain.Criterion
	assessment  domain.CriterionAssessment
	thresholded bool
	// baseline against its own relative threshold
	exempt bool
}

func (o criterionOutcome) probability() *float64 {
	if o.assessment.ThresholdAssessment == nil {
		return nil
	}
	return o.assessment.ThresholdAssessment.ProbabilityOfSatisfyingThreshold
}

// CriterionAssessor evaluates criteria against aggregated metrics and beliefs.
type CriterionAssessor struct {
	cfg      Config
	metrics  map[string]metricInfo
	agg      *MetricAggregator
	baseline *Version
}

func NewCriterionAssessor(cfg Config, metrics map[string]metricInfo, agg *MetricAggregator, baseline *Version) *CriterionAssessor {
	return &CriterionAssessor{cfg: cfg, metrics: metrics, agg: agg, baseline: baseline}
}

func (a *CriterionAssessor) value(v *Version, metricID string) *float64 {
	if a.metrics[metricID].kind == ratioMetric {
		return a.agg.RatioValue(v.ID, metricID)
	}
	return a.agg.CounterValue(v.ID, metricID)
}

// Assess runs the per (version, criterion) state machine: statistics are
// always reported; a threshold assessment only exists when the criterion has
// a threshold, the version has data and the limit is defined.
func (a *CriterionAssessor) Assess(v *Version, cri domain.Criterion) (criterionOutcome, *statusSet) {
	statuses := newStatusSet()
	info := a.metrics[cri.MetricID]
	value := a.value(v, cri.MetricID)

	out := criterionOutcome{
		criterion: cri,
		assessment: domain.CriterionAssessment{
			ID:         cri.ID,
			MetricID:   cri.MetricID,
			Statistics: domain.Statistics{Value: value},
		},
		thresholded: cri.Threshold != nil,
	}

	var sample []float64
	if info.kind == ratioMetric {
		var status domain.StatusCode
		sample, status = usableSample(v.belief(cri.MetricID), a.cfg.PosteriorFloor)
		if value != nil {
			statuses.add(status)
		}
		rs := &domain.RatioStatistics{}
		if sample != nil {
			rs.CredibleInterval = credibleInterval(sample, a.cfg.CredibleIntervalLevel)
		}
		out.assessment.Statistics.RatioStatistics = rs
	}

	if cri.Threshold == nil {
		return out, statuses
	}
	if cri.Threshold.Type == domain.ThresholdRelative && v.IsBaseline() {
		out.exempt = true
		return out, statuses
	}
	if value == nil {
		return out, statuses
	}

	limit := cri.Threshold.Value
	var baselineSample []float64
	if cri.Threshold.Type == domain.ThresholdRelative {
		baselineValue := a.value(a.baseline, cri.MetricID)
		if baselineValue == nil {
			statuses.add(domain.StatusBaselineValueMissing)
			return out, statuses
		}
		limit = *baselineValue * cri.Threshold.Value

		var status domain.StatusCode
		baselineSample, status = usableSample(a.baseline.belief(cri.MetricID), a.cfg.PosteriorFloor)
		statuses.add(status)
	}

	ta := &domain.ThresholdAssessment{
		ThresholdBreached: breached(info.direction, *value, limit),
	}

	switch {
	case info.kind == counterMetric:
		p := 1.0
		if ta.ThresholdBreached {
			p = 0.0
		}
		ta.ProbabilityOfSatisfyingThreshold = &p
	case sample == nil:
		// crisp breach only; the belief cannot back a probability
	case cri.Threshold.Type == domain.ThresholdAbsolute:
		p := fractionSatisfying(info.direction, sample, limit)
		ta.ProbabilityOfSatisfyingThreshold = &p
	case baselineSample != nil:
		p := fractionSatisfyingRelative(info.direction, sample, baselineSample, cri.Threshold.Value)
		ta.ProbabilityOfSatisfyingThreshold = &p
	}

	out.assessment.ThresholdAssessment = ta
	return out, statuses
}

// VersionAssessor builds the version-level assessment record.
type VersionAssessor struct {
	criteria []domain.Criterion
	assessor *CriterionAssessor
	agg      *MetricAggregator
	// request count is only reported when the experiment declares the metric
	withRequestCount bool
}

func NewVersionAssessor(criteria []domain.Criterion, assessor *CriterionAssessor, agg *MetricAggregator, withRequestCount bool) *VersionAssessor {
	return &VersionAssessor{criteria: criteria, assessor: assessor, agg: agg, withRequestCount: withRequestCount}
}

func (va *VersionAssessor) Assess(v *Version) *statusSet {
	statuses := newStatusSet()

	v.outcomes = v.outcomes[:0]
	v.rollback = false
	for _, cri := range va.criteria {
		o, st := va.assessor.Assess(v, cri)
		statuses.merge(st)
		v.outcomes = append(v.outcomes, o)

		ta := o.assessment.ThresholdAssessment
		if v.Role == RoleCandidate && cri.RollbackOnViolation && ta != nil && ta.ThresholdBreached {
			v.rollback = true
		}
	}

	v.requestCount = nil
	if va.withRequestCount {
		v.requestCount = va.agg.CounterValue(v.ID, domain.RequestCountMetricID)
	}
	return statuses
}
