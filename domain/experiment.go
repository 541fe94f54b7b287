package domain

import "time"

// RequestCountMetricID is the counter metric reported as a version's request count.
const RequestCountMetricID = "iter8_request_count"

type PreferredDirection string

const (
	DirectionLower  PreferredDirection = "lower"
	DirectionHigher PreferredDirection = "higher"
)

type ThresholdType string

const (
	ThresholdAbsolute ThresholdType = "absolute"
	ThresholdRelative ThresholdType = "relative"
)

const (
	StrategyUniform     = "uniform"
	StrategyProgressive = "progressive"
	StrategyTop2        = "top_2"
)

// Strategies lists every traffic policy published in a recommendation.
var Strategies = []string{StrategyUniform, StrategyProgressive, StrategyTop2}

type CounterMetricSpec struct {
	ID                 string             `json:"id" validate:"required"`
	QueryTemplate      string             `json:"query_template"`
	PreferredDirection PreferredDirection `json:"preferred_direction,omitempty" validate:"omitempty,oneof=lower higher"`
	Description        string             `json:"description,omitempty"`
	Units              string             `json:"units,omitempty"`
}

type RatioMetricSpec struct {
	ID                 string             `json:"id" validate:"required"`
	Numerator          string             `json:"numerator" validate:"required"`
	Denominator        string             `json:"denominator" validate:"required"`
	ZeroToOne          bool               `json:"zero_to_one"`
	PreferredDirection PreferredDirection `json:"preferred_direction,omitempty" validate:"omitempty,oneof=lower higher"`
	Description        string             `json:"description,omitempty"`
}

type MetricSpecs struct {
	CounterMetrics []CounterMetricSpec `json:"counter_metrics" validate:"dive"`
	RatioMetrics   []RatioMetricSpec   `json:"ratio_metrics" validate:"dive"`
}

type Threshold struct {
	Type  ThresholdType `json:"type" validate:"required,oneof=absolute relative"`
	Value float64       `json:"value"`
}

type Criterion struct {
	ID                  string     `json:"id" validate:"required"`
	MetricID            string     `json:"metric_id" validate:"required"`
	IsReward            bool       `json:"is_reward"`
	Threshold           *Threshold `json:"threshold,omitempty"`
	RollbackOnViolation bool       `json:"rollback_on_violation"`
}

type VersionSpec struct {
	ID            string            `json:"id" validate:"required"`
	VersionLabels map[string]string `json:"version_labels"`
}

type TrafficControl struct {
	Strategy          string `json:"strategy,omitempty" validate:"omitempty,oneof=uniform progressive top_2"`
	MaxIncrement      *int   `json:"max_increment,omitempty" validate:"omitempty,min=1,max=100"`
	MaxTrafficPercent *int   `json:"max_traffic_percent,omitempty" validate:"omitempty,min=0,max=100"`
}

// MaxPosteriorSampleSize bounds the draws per belief a caller can request.
const MaxPosteriorSampleSize = 1_000_000

// AdvancedParameters override the service defaults for one iteration.
type AdvancedParameters struct {
	PosteriorSampleSize   *int     `json:"posterior_sample_size,omitempty" validate:"omitempty,min=1,max=1000000"`
	CredibleIntervalLevel *float64 `json:"credible_interval_level,omitempty" validate:"omitempty,gt=0,lt=1"`
	WinnerConfidence      *float64 `json:"min_posterior_probability_for_winner,omitempty" validate:"omitempty,gt=0,lt=1"`
	VarianceBoostFactor   *float64 `json:"variance_boost_factor,omitempty" validate:"omitempty,gt=0"`
	BaselinePseudoReward  *float64 `json:"baseline_pseudo_reward,omitempty"`
	CandidatePseudoReward *float64 `json:"candidate_pseudo_reward,omitempty"`
	PosteriorFloor        *float64 `json:"posterior_floor,omitempty"`
}

type ExperimentIterationRequest struct {
	Name                string              `json:"name"`
	ServiceName         string              `json:"service_name,omitempty"`
	IterationNumber     *int                `json:"iteration_number,omitempty"`
	StartTime           time.Time           `json:"start_time" validate:"required"`
	MetricSpecs         MetricSpecs         `json:"metric_specs"`
	Criteria            []Criterion         `json:"criteria" validate:"dive"`
	Baseline            VersionSpec         `json:"baseline"`
	Candidates          []VersionSpec       `json:"candidates" validate:"dive"`
	TrafficControl      TrafficControl      `json:"traffic_control"`
	AdvancedParameters  *AdvancedParameters `json:"advanced_parameters,omitempty"`
	CurrentTrafficSplit map[string]int      `json:"current_traffic_split,omitempty"`
	LastState           *LastState          `json:"last_state,omitempty"`
}
