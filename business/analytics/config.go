package analytics

import (
	"errors"
	"fmt"

	"canaryAnalytics/domain"
	"canaryAnalytics/pkg/config"
)

// Config is the immutable parameter set threaded through every component
// of one iteration.
type Config struct {
	PosteriorSampleSize   int
	CredibleIntervalLevel float64
	WinnerConfidence      float64
	VarianceBoostFactor   float64

	// pseudo rewards ranked in place of a reward metric when none is declared
	BaselinePseudoReward  float64
	CandidatePseudoReward float64

	// posterior draws are clamped to this floor on every read
	PosteriorFloor float64

	Strategy          string
	MaxIncrement      int
	MaxTrafficPercent int
}

const (
	defaultPosteriorSampleSize   = 10000
	defaultCredibleIntervalLevel = 0.95
	defaultWinnerConfidence      = 0.99
	defaultVarianceBoostFactor   = 1.0
	defaultBaselinePseudoReward  = 1.0
	defaultCandidatePseudoReward = 2.0
	defaultPosteriorFloor        = 0.0
	defaultStrategy              = domain.StrategyProgressive
	defaultMaxIncrement          = 2
	defaultMaxTrafficPercent     = 100
)

func DefaultConfig() Config {
	return Config{
		PosteriorSampleSize:   defaultPosteriorSampleSize,
		CredibleIntervalLevel: defaultCredibleIntervalLevel,
		WinnerConfidence:      defaultWinnerConfidence,
		VarianceBoostFactor:   defaultVarianceBoostFactor,
		BaselinePseudoReward:  defaultBaselinePseudoReward,
		CandidatePseudoReward: defaultCandidatePseudoReward,
		PosteriorFloor:        defaultPosteriorFloor,
		Strategy:              defaultStrategy,
		MaxIncrement:          defaultMaxIncrement,
		MaxTrafficPercent:     defaultMaxTrafficPercent,
	}
}

// FromSettings overlays the process settings on DefaultConfig. Traffic
// control has no process setting and keeps its defaults.
func FromSettings(s config.AnalyticsConfig) Config {
	cfg := DefaultConfig()
	cfg.PosteriorSampleSize = s.PosteriorSampleSize
	cfg.CredibleIntervalLevel = s.CredibleIntervalLevel
	cfg.WinnerConfidence = s.WinnerConfidence
	cfg.VarianceBoostFactor = s.VarianceBoostFactor
	cfg.BaselinePseudoReward = s.BaselinePseudoReward
	cfg.CandidatePseudoReward = s.CandidatePseudoReward
	cfg.PosteriorFloor = s.PosteriorFloor
	return cfg
}

func (c Config) Validate() error {
	if c.PosteriorSampleSize <= 0 {
		return errors.New("posterior sample size must be positive")
	}
	if c.PosteriorSampleSize > domain.MaxPosteriorSampleSize {
		return fmt.Errorf("posterior sample size %d above %d", c.PosteriorSampleSize, domain.MaxPosteriorSampleSize)
	}
	if c.CredibleIntervalLevel <= 0 || c.CredibleIntervalLevel >= 1 {
		return fmt.Errorf("credible interval level %v outside (0, 1)", c.CredibleIntervalLevel)
	}
	if c.WinnerConfidence <= 0 || c.WinnerConfidence >= 1 {
		return fmt.Errorf("winner confidence %v outside (0, 1)", c.WinnerConfidence)
	}
	if c.VarianceBoostFactor <= 0 {
		return errors.New("variance boost factor must be positive")
	}
	switch c.Strategy {
	case domain.StrategyUniform, domain.StrategyProgressive, domain.StrategyTop2:
	default:
		return fmt.Errorf("unknown traffic strategy %q", c.Strategy)
	}
	if c.MaxIncrement < 1 || c.MaxIncrement > 100 {
		return fmt.Errorf("max increment %d outside [1, 100]", c.MaxIncrement)
	}
	if c.MaxTrafficPercent < 0 || c.MaxTrafficPercent > 100 {
		return fmt.Errorf("max traffic percent %d outside [0, 100]", c.MaxTrafficPercent)
	}
	return nil
}
