package analytics

import (
	"time"

	"canaryAnalytics/domain"
)

type metricKind int

const (
	counterMetric metricKind = iota
	ratioMetric
)

type metricInfo struct {
	kind metricKind

	// direction drives thresholds; declared is as written and may be empty
	direction domain.PreferredDirection
	declared  domain.PreferredDirection
	zeroToOne bool
}

// Experiment is the root aggregate of one iteration. It is built from the
// request plus the previous state and discarded once the result is produced.
type Experiment struct {
	cfg       Config
	name      string
	startTime time.Time

	// only the specs some criterion depends on, in declaration order
	counterSpecs []domain.CounterMetricSpec
	ratioSpecs   []domain.RatioMetricSpec
	metrics      map[string]metricInfo

	criteria []domain.Criterion
	reward   *domain.Criterion

	baseline   *Version
	candidates []*Version

	prev         *domain.LastState
	currentSplit map[string]int
}

// NewExperiment validates the request and resolves every metric dependency.
// Any inconsistency is a *FatalSpecError.
func NewExperiment(req domain.ExperimentIterationRequest, prev *domain.LastState, cfg Config) (*Experiment, error) {
	allCounters := make(map[string]domain.CounterMetricSpec, len(req.MetricSpecs.CounterMetrics))
	for _, cms := range req.MetricSpecs.CounterMetrics {
		if _, dup := allCounters[cms.ID]; dup {
			return nil, fatalf(ReasonDuplicateMetric, "counter metric %q declared twice", cms.ID)
		}
		allCounters[cms.ID] = cms
	}
	allRatios := make(map[string]domain.RatioMetricSpec, len(req.MetricSpecs.RatioMetrics))
	for _, rms := range req.MetricSpecs.RatioMetrics {
		if _, dup := allRatios[rms.ID]; dup {
			return nil, fatalf(ReasonDuplicateMetric, "ratio metric %q declared twice", rms.ID)
		}
		if _, clash := allCounters[rms.ID]; clash {
			return nil, fatalf(ReasonDuplicateMetric, "metric %q declared as counter and ratio", rms.ID)
		}
		for _, operand := range []string{rms.Numerator, rms.Denominator} {
			if _, ok := allCounters[operand]; !ok {
				return nil, fatalf(ReasonUnknownRatioOperand,
					"ratio metric %q references unknown counter metric %q", rms.ID, operand)
			}
		}
		allRatios[rms.ID] = rms
	}

	neededCounters := map[string]bool{}
	neededRatios := map[string]bool{}
	var reward *domain.Criterion
	criteria := make([]domain.Criterion, 0, len(req.Criteria))

	for _, cri := range req.Criteria {
		if cms, ok := allCounters[cri.MetricID]; ok {
			neededCounters[cms.ID] = true
			if cri.Threshold != nil && cri.Threshold.Type == domain.ThresholdRelative {
				return nil, fatalf(ReasonRelativeOnCounter,
					"criterion %q has a relative threshold on counter metric %q", cri.ID, cms.ID)
			}
		} else if rms, ok := allRatios[cri.MetricID]; ok {
			neededRatios[rms.ID] = true
			neededCounters[rms.Numerator] = true
			neededCounters[rms.Denominator] = true
		} else {
			return nil, fatalf(ReasonUnknownMetric, "criterion %q references unknown metric %q", cri.ID, cri.MetricID)
		}

		if cri.IsReward {
			if reward != nil {
				return nil, fatalf(ReasonMultipleRewards, "criteria %q and %q are both rewards", reward.ID, cri.ID)
			}
			c := cri
			reward = &c
		}
		criteria = append(criteria, cri)
	}
	if _, ok := allCounters[domain.RequestCountMetricID]; ok {
		neededCounters[domain.RequestCountMetricID] = true
	}

	e := &Experiment{
		cfg:          cfg,
		name:         req.Name,
		startTime:    req.StartTime,
		metrics:      map[string]metricInfo{},
		criteria:     criteria,
		reward:       reward,
		currentSplit: req.CurrentTrafficSplit,
	}
	for _, cms := range req.MetricSpecs.CounterMetrics {
		if neededCounters[cms.ID] {
			e.counterSpecs = append(e.counterSpecs, cms)
			e.metrics[cms.ID] = metricInfo{
				kind:      counterMetric,
				direction: directionOrDefault(cms.PreferredDirection),
				declared:  cms.PreferredDirection,
			}
		}
	}
	for _, rms := range req.MetricSpecs.RatioMetrics {
		if neededRatios[rms.ID] {
			e.ratioSpecs = append(e.ratioSpecs, rms)
			e.metrics[rms.ID] = metricInfo{
				kind:      ratioMetric,
				direction: directionOrDefault(rms.PreferredDirection),
				declared:  rms.PreferredDirection,
				zeroToOne: rms.ZeroToOne,
			}
		}
	}

	if err := e.buildVersions(req); err != nil {
		return nil, err
	}

	e.prev = pruneState(prev, e.VersionIDs(), e.counterIDs(), e.ratioIDs())
	return e, nil
}

// Thresholds on metrics without a declared direction treat lower as better.
func directionOrDefault(d domain.PreferredDirection) domain.PreferredDirection {
	if d == "" {
		return domain.DirectionLower
	}
	return d
}

func (e *Experiment) buildVersions(req domain.ExperimentIterationRequest) error {
	if req.Baseline.ID == "" {
		return fatalf(ReasonMissingVersionID, "baseline version id is required")
	}

	seen := map[string]bool{req.Baseline.ID: true}
	e.baseline = newVersion(req.Baseline, RoleBaseline)
	for _, spec := range req.Candidates {
		if spec.ID == "" {
			return fatalf(ReasonMissingVersionID, "candidate version id is required")
		}
		if seen[spec.ID] {
			return fatalf(ReasonDuplicateVersion, "version %q declared twice", spec.ID)
		}
		seen[spec.ID] = true
		e.candidates = append(e.candidates, newVersion(spec, RoleCandidate))
	}
	return nil
}

// Versions returns the baseline followed by the candidates.
func (e *Experiment) Versions() []*Version {
	out := make([]*Version, 0, len(e.candidates)+1)
	out = append(out, e.baseline)
	return append(out, e.candidates...)
}

func (e *Experiment) VersionIDs() []string {
	ids := make([]string, 0, len(e.candidates)+1)
	for _, v := range e.Versions() {
		ids = append(ids, v.ID)
	}
	return ids
}

func (e *Experiment) versionSpecs() []domain.VersionSpec {
	specs := make([]domain.VersionSpec, 0, len(e.candidates)+1)
	for _, v := range e.Versions() {
		specs = append(specs, domain.VersionSpec{ID: v.ID, VersionLabels: v.Labels})
	}
	return specs
}

func (e *Experiment) counterIDs() []string {
	ids := make([]string, 0, len(e.counterSpecs))
	for _, s := range e.counterSpecs {
		ids = append(ids, s.ID)
	}
	return ids
}

func (e *Experiment) ratioIDs() []string {
	ids := make([]string, 0, len(e.ratioSpecs))
	for _, s := range e.ratioSpecs {
		ids = append(ids, s.ID)
	}
	return ids
}

func (e *Experiment) hasRequestCount() bool {
	_, ok := e.metrics[domain.RequestCountMetricID]
	return ok
}
