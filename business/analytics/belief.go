package analytics

import (
	"fmt"
	"math"
	"sync"

	"canaryAnalytics/domain"

	"gonum.org/v1/gonum/stat/distuv"
)

type BeliefKind int

const (
	BeliefUninitialized BeliefKind = iota
	BeliefGaussian
	BeliefBeta
	BeliefConstant
)

func (k BeliefKind) String() string {
	switch k {
	case BeliefGaussian:
		return "gaussian"
	case BeliefBeta:
		return "beta"
	case BeliefConstant:
		return "constant"
	default:
		return "uninitialized"
	}
}

// Belief is the current distribution over a ratio metric's true value.
// Only the fields of its Kind are meaningful. The posterior sample is drawn
// once, on first use, and never mutated afterwards.
type Belief struct {
	Kind BeliefKind

	Mean     float64
	Variance float64

	Alpha float64
	Beta  float64

	Value float64

	sampleSize int
	once       sync.Once
	sample     []float64
}

func UninitializedBelief() *Belief {
	return &Belief{Kind: BeliefUninitialized}
}

func NewGaussianBelief(mean, variance float64, sampleSize int) *Belief {
	return &Belief{Kind: BeliefGaussian, Mean: mean, Variance: variance, sampleSize: sampleSize}
}

func NewBetaBelief(alpha, beta float64, sampleSize int) *Belief {
	return &Belief{Kind: BeliefBeta, Alpha: alpha, Beta: beta, sampleSize: sampleSize}
}

func NewConstantBelief(value float64, sampleSize int) *Belief {
	return &Belief{Kind: BeliefConstant, Value: value, sampleSize: sampleSize}
}

func (b *Belief) Initialized() bool {
	return b != nil && b.Kind != BeliefUninitialized
}

func (b *Belief) computeInitialSample() {
	out := make([]float64, b.sampleSize)
	switch b.Kind {
	case BeliefGaussian:
		dist := distuv.Normal{Mu: b.Mean, Sigma: math.Sqrt(b.Variance)}
		for i := range out {
			out[i] = dist.Rand()
		}
	case BeliefBeta:
		dist := distuv.Beta{Alpha: b.Alpha, Beta: b.Beta}
		for i := range out {
			out[i] = dist.Rand()
		}
	case BeliefConstant:
		for i := range out {
			out[i] = b.Value
		}
	}
	b.sample = out
}

// SamplePosterior returns a floor-clamped copy of the cached posterior sample.
// Non-finite draws are passed through unchanged so callers can detect them.
func (b *Belief) SamplePosterior(floor float64) ([]float64, error) {
	if !b.Initialized() {
		return nil, ErrBeliefUninitialized
	}
	b.once.Do(b.computeInitialSample)

	out := make([]float64, len(b.sample))
	for i, x := range b.sample {
		if x < floor {
			x = floor
		}
		out[i] = x
	}
	return out, nil
}

// beliefInputs is everything a ratio metric's belief update depends on.
type beliefInputs struct {
	spec        domain.RatioMetricSpec
	value       *float64
	numerator   *float64
	denominator *float64
	maxMin      domain.RatioMaxMin
}

// updateBelief selects the belief variant for a ratio metric. The variant is
// decided once here and never changes within the iteration.
func updateBelief(in beliefInputs, cfg Config) (*Belief, error) {
	if in.value == nil || in.denominator == nil {
		return UninitializedBelief(), nil
	}
	den := *in.denominator

	if in.spec.ZeroToOne {
		num := *in.value * den
		if in.numerator != nil {
			num = *in.numerator
		}
		if num > den {
			return nil, fmt.Errorf("%w: metric %s numerator %v denominator %v",
				ErrNumeratorExceedsDenominator, in.spec.ID, num, den)
		}
		return NewBetaBelief(1+num, 1+(den-num), cfg.PosteriorSampleSize), nil
	}

	if in.maxMin.Minimum == nil || in.maxMin.Maximum == nil {
		return UninitializedBelief(), nil
	}
	lo, hi := *in.maxMin.Minimum, *in.maxMin.Maximum
	if lo == hi {
		return NewConstantBelief(lo, cfg.PosteriorSampleSize), nil
	}
	if den <= 0 {
		return UninitializedBelief(), nil
	}

	variance := (hi - lo) * cfg.VarianceBoostFactor / (1 + den)
	return NewGaussianBelief(*in.value, variance, cfg.PosteriorSampleSize), nil
}
