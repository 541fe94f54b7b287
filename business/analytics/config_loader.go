package analytics

import "canaryAnalytics/domain"

// loadConfig starts from the service defaults and applies whatever the
// request sets explicitly. Unset fields keep their defaults.
func (s *AnalyticsService) loadConfig(req domain.ExperimentIterationRequest) (Config, error) {
	cfg := s.defaultCfg

	if adv := req.AdvancedParameters; adv != nil {
		if adv.PosteriorSampleSize != nil {
			cfg.PosteriorSampleSize = *adv.PosteriorSampleSize
		}
		if adv.CredibleIntervalLevel != nil {
			cfg.CredibleIntervalLevel = *adv.CredibleIntervalLevel
		}
		if adv.WinnerConfidence != nil {
			cfg.WinnerConfidence = *adv.WinnerConfidence
		}
		if adv.VarianceBoostFactor != nil {
			cfg.VarianceBoostFactor = *adv.VarianceBoostFactor
		}
		if adv.BaselinePseudoReward != nil {
			cfg.BaselinePseudoReward = *adv.BaselinePseudoReward
		}
		if adv.CandidatePseudoReward != nil {
			cfg.CandidatePseudoReward = *adv.CandidatePseudoReward
		}
		if adv.PosteriorFloor != nil {
			cfg.PosteriorFloor = *adv.PosteriorFloor
		}
	}

	tc := req.TrafficControl
	if tc.Strategy != "" {
		cfg.Strategy = tc.Strategy
	}
	if tc.MaxIncrement != nil {
		cfg.MaxIncrement = *tc.MaxIncrement
	}
	if tc.MaxTrafficPercent != nil {
		cfg.MaxTrafficPercent = *tc.MaxTrafficPercent
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &FatalSpecError{Reason: ReasonInvalidParameters, Detail: err.Error()}
	}
	return cfg, nil
}
