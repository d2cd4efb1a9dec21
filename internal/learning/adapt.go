package learning

import (
	"math"

	"solana-autotrader/internal/domain"
)

// Adaptation policy constants.
const (
	DefaultColdStart = 10

	lowWinRate        = 60.0
	highWinRate       = 75.0
	targetWinRate     = 70.0
	confidenceRaise   = 0.05
	confidenceRelief  = 0.02
	multiplierGrow    = 1.05
	multiplierShrink  = 0.95
	targetGrow        = 1.1
	targetShrink      = 0.95
	adaptTargetCapBps = 500.0
	stopGrow          = 1.1
	stopShrink        = 0.95
	volatilityWindow  = 50
	preferredListSize = 3
)

// AdaptConfiguration applies one adaptation pass to cfg. outcomes is the
// ledger, oldest first. Below coldStart outcomes cfg is returned unchanged.
func AdaptConfiguration(cfg domain.AdaptiveConfig, m domain.LearningMetrics, outcomes []domain.TradeOutcome, coldStart int) domain.AdaptiveConfig {
	if m.TotalTrades < coldStart {
		return cfg
	}
	next := cfg.Clone()

	switch {
	case m.WinRate < lowWinRate:
		next.MinConfidence = math.Min(next.MinConfidence+confidenceRaise, domain.MinConfidenceCap)
	case m.WinRate > highWinRate:
		next.MinConfidence = math.Max(next.MinConfidence-confidenceRelief, domain.MinConfidenceFloor)
	}

	if m.AvgProfitPerTrade > 0 {
		next.PositionSizeMultiplier = math.Min(next.PositionSizeMultiplier*multiplierGrow, domain.PositionMultiplierCap)
	} else {
		next.PositionSizeMultiplier = math.Max(next.PositionSizeMultiplier*multiplierShrink, domain.PositionMultiplierFloor)
	}

	next.PreferredStrategies = topN(m.StrategyStats, preferredListSize)
	next.PreferredAgents = topN(m.AgentStats, preferredListSize)
	next.PreferredHours = topN(m.HourStats, preferredListSize)

	if m.WinRate > targetWinRate {
		next.ProfitTargetBps = math.Min(next.ProfitTargetBps*targetGrow, adaptTargetCapBps)
	} else {
		next.ProfitTargetBps = math.Max(next.ProfitTargetBps*targetShrink, domain.ProfitTargetFloorBps)
	}

	if recentVolatility(outcomes, volatilityWindow) > highVolatilityThreshold {
		next.StopLossBps = math.Min(next.StopLossBps*stopGrow, domain.StopLossCapBps)
	} else {
		next.StopLossBps = math.Max(next.StopLossBps*stopShrink, domain.StopLossFloorBps)
	}

	return sanitize(next)
}

// recentVolatility averages the volatility of the last n outcomes.
func recentVolatility(outcomes []domain.TradeOutcome, n int) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	if len(outcomes) > n {
		outcomes = outcomes[len(outcomes)-n:]
	}
	var sum float64
	for i := range outcomes {
		sum += outcomes[i].Conditions.Volatility
	}
	return sum / float64(len(outcomes))
}

// sanitize forces every tunable into its bounds. Persisted configs pass
// through it on load since blobs are not versioned.
func sanitize(cfg domain.AdaptiveConfig) domain.AdaptiveConfig {
	cfg.MinConfidence = clampOrDefault(cfg.MinConfidence, domain.MinConfidenceFloor, domain.MinConfidenceCap, 0.65)
	cfg.PositionSizeMultiplier = clampOrDefault(cfg.PositionSizeMultiplier, domain.PositionMultiplierFloor, domain.PositionMultiplierCap, 1.0)
	cfg.ProfitTargetBps = clampOrDefault(cfg.ProfitTargetBps, domain.ProfitTargetFloorBps, domain.ProfitTargetCapBps, 300)
	cfg.StopLossBps = clampOrDefault(cfg.StopLossBps, domain.StopLossFloorBps, domain.StopLossCapBps, 150)
	if cfg.MaxSlippageBps <= 0 || math.IsNaN(cfg.MaxSlippageBps) {
		cfg.MaxSlippageBps = 100
	}
	if cfg.PreferredStrategies == nil {
		cfg.PreferredStrategies = []string{}
	}
	if cfg.PreferredAgents == nil {
		cfg.PreferredAgents = []string{}
	}
	if cfg.PreferredHours == nil {
		cfg.PreferredHours = []int{}
	}
	return cfg
}

func clampOrDefault(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return def
	}
	return math.Max(lo, math.Min(hi, v))
}
