package domain

import "time"

type StatusCode string

const (
	StatusAllOK                   StatusCode = "all_ok"
	StatusNonFiniteValue          StatusCode = "non_finite_value"
	StatusAbsentVersion           StatusCode = "absent_version_in_backend_response"
	StatusNoVersions              StatusCode = "no_versions_in_backend_response"
	StatusNaNValue                StatusCode = "nan_value"
	StatusZeroDenominator         StatusCode = "zero_denominator"
	StatusBeliefUninitialized     StatusCode = "belief_uninitialized"
	StatusNonFiniteSample         StatusCode = "non_finite_posterior_sample"
	StatusBaselineValueMissing    StatusCode = "baseline_value_unavailable"
	StatusNoRequestCountMetric    StatusCode = "no_request_count_metric"
	StatusMetricsBackendError     StatusCode = "metrics_backend_error"
	StatusNoCandidateIsEligible   StatusCode = "no_candidate_satisfies_criteria"
	StatusPreviousStateNotDecoded StatusCode = "previous_state_unavailable"
)

type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type RatioStatistics struct {
	CredibleInterval *Interval `json:"credible_interval"`
}

type Statistics struct {
	Value           *float64         `json:"value"`
	RatioStatistics *RatioStatistics `json:"ratio_statistics,omitempty"`
}

type ThresholdAssessment struct {
	ThresholdBreached                bool     `json:"threshold_breached"`
	ProbabilityOfSatisfyingThreshold *float64 `json:"probability_of_satisfying_threshold"`
}

type CriterionAssessment struct {
	ID                  string               `json:"id"`
	MetricID            string               `json:"metric_id"`
	Statistics          Statistics           `json:"statistics"`
	ThresholdAssessment *ThresholdAssessment `json:"threshold_assessment"`
}

type VersionAssessment struct {
	ID                   string                `json:"id"`
	RequestCount         *float64              `json:"request_count"`
	CriterionAssessments []CriterionAssessment `json:"criterion_assessments"`
	WinProbability       float64               `json:"win_probability"`
}

type CandidateAssessment struct {
	VersionAssessment
	Rollback bool `json:"rollback"`
}

type WinnerAssessment struct {
	WinningVersionFound bool     `json:"winning_version_found"`
	CurrentWinner       *string  `json:"current_winner,omitempty"`
	WinningProbability  *float64 `json:"winning_probability,omitempty"`
}

// AssessmentResult is the response of one experiment iteration.
type AssessmentResult struct {
	Timestamp                  time.Time                 `json:"timestamp"`
	BaselineAssessment         VersionAssessment         `json:"baseline_assessment"`
	CandidateAssessments       []CandidateAssessment     `json:"candidate_assessments"`
	TrafficSplitRecommendation map[string]map[string]int `json:"traffic_split_recommendation"`
	WinnerAssessment           WinnerAssessment          `json:"winner_assessment"`
	Status                     []StatusCode              `json:"status"`
	LastState                  LastState                 `json:"last_state"`
}
