package analytics

import (
	"maps"

	"canaryAnalytics/domain"
)

type VersionRole int

const (
	RoleBaseline VersionRole = iota
	RoleCandidate
)

// Version is one deployed version under assessment. Role-specific fields
// such as rollback only carry meaning for candidates.
type Version struct {
	ID     string
	Labels map[string]string
	Role   VersionRole

	beliefs  map[string]*Belief
	outcomes []criterionOutcome

	requestCount   *float64
	winProbability float64
	rollback       bool
}

func newVersion(spec domain.VersionSpec, role VersionRole) *Version {
	return &Version{
		ID:      spec.ID,
		Labels:  maps.Clone(spec.VersionLabels),
		Role:    role,
		beliefs: map[string]*Belief{},
	}
}

func (v *Version) IsBaseline() bool {
	return v.Role == RoleBaseline
}

func (v *Version) belief(metricID string) *Belief {
	if b, ok := v.beliefs[metricID]; ok {
		return b
	}
	return UninitializedBelief()
}

// meetsAllCriteria is true when every thresholded criterion was assessed and
// none was breached. Unassessable thresholds do not count as met.
func (v *Version) meetsAllCriteria() bool {
	for _, o := range v.outcomes {
		if !o.thresholded || o.exempt {
			continue
		}
		ta := o.assessment.ThresholdAssessment
		if ta == nil || ta.ThresholdBreached || ta.ProbabilityOfSatisfyingThreshold == nil {
			return false
		}
	}
	return true
}

func (v *Version) assessment() domain.VersionAssessment {
	cas := make([]domain.CriterionAssessment, 0, len(v.outcomes))
	for _, o := range v.outcomes {
		cas = append(cas, o.assessment)
	}
	return domain.VersionAssessment{
		ID:                   v.ID,
		RequestCount:         v.requestCount,
		CriterionAssessments: cas,
		WinProbability:       v.winProbability,
	}
}

func (v *Version) candidateAssessment() domain.CandidateAssessment {
	return domain.CandidateAssessment{
		VersionAssessment: v.assessment(),
		Rollback:          v.rollback,
	}
}
