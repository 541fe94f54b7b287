package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrMetricsBackend wraps every failure reported by the metrics collaborator.
	ErrMetricsBackend = errors.New("metrics backend error")

	ErrNumeratorExceedsDenominator = errors.New("ratio numerator exceeds denominator")

	ErrBeliefUninitialized = errors.New("belief is uninitialized")
)

type FatalReason string

const (
	ReasonUnknownMetric       FatalReason = "unknown_metric"
	ReasonUnknownRatioOperand FatalReason = "unknown_ratio_operand"
	ReasonDuplicateMetric     FatalReason = "duplicate_metric"
	ReasonDuplicateVersion    FatalReason = "duplicate_version"
	ReasonMissingVersionID    FatalReason = "missing_version_id"
	ReasonMultipleRewards     FatalReason = "multiple_rewards"
	ReasonRelativeOnCounter   FatalReason = "relative_threshold_on_counter"
	ReasonInvalidParameters   FatalReason = "invalid_parameters"
	ReasonDataIntegrity       FatalReason = "numerator_exceeds_denominator"
)

// FatalSpecError aborts an iteration before any metric is fetched.
type FatalSpecError struct {
	Reason FatalReason
	Detail string
	Err    error
}

func (e *FatalSpecError) Error() string {
	return fmt.Sprintf("invalid experiment (%s): %s", e.Reason, e.Detail)
}

func (e *FatalSpecError) Unwrap() error {
	return e.Err
}

func fatalf(reason FatalReason, format string, args ...any) *FatalSpecError {
	return &FatalSpecError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
