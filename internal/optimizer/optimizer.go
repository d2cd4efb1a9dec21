// Package optimizer turns a raw agent decision into a sized, bounded and
// annotated decision using the learned configuration.
package optimizer

import (
	"math"

	"solana-autotrader/internal/domain"
)

// TradeGate is the learned state the optimizer consults.
type TradeGate interface {
	ShouldTakeTrade(agentID, strategyID string, confidence float64, conditions domain.MarketConditions) bool
	Config() domain.AdaptiveConfig
}

// OverrideReason is recorded when a directional signal is forced to HOLD.
const OverrideReason = "confidence below learned threshold"

const (
	highConfidence = 0.8
	lowConfidence  = 0.6
	highVolatility = 0.05

	strongProfitBps = 300.0
	weakProfitBps   = 150.0
)

// Optimizer is stateless apart from its gate and safe for concurrent use.
type Optimizer struct {
	gate TradeGate
}

// New creates an Optimizer backed by gate.
func New(gate TradeGate) *Optimizer {
	return &Optimizer{gate: gate}
}

// Optimize sizes and bounds raw. A directional signal that fails the
// learned gate is always overridden to HOLD with zero size and targets.
func (o *Optimizer) Optimize(raw domain.RawDecision, dctx domain.DecisionContext) domain.OptimizedDecision {
	out := domain.OptimizedDecision{
		AgentID:    raw.AgentID,
		StrategyID: raw.StrategyID,
		Signal:     raw.Signal,
		Confidence: raw.Confidence,
		RiskLevel:  raw.RiskLevel,
		Metadata:   domain.DecisionMetadata{OriginalSignal: raw.Signal},
	}

	take := o.gate.ShouldTakeTrade(raw.AgentID, raw.StrategyID, raw.Confidence, dctx.Conditions())
	if !take || !raw.Signal.IsDirectional() {
		out.Signal = domain.SignalHold
		if raw.Signal.IsDirectional() {
			out.Metadata.Overridden = true
			out.Metadata.OverrideReason = OverrideReason
		}
		return out
	}

	cfg := o.gate.Config()
	var adj []domain.Adjustment
	scale := func(v *float64, field string, factor float64, reason string) {
		*v *= factor
		adj = append(adj, domain.Adjustment{Field: field, Factor: factor, Reason: reason})
	}

	size := cfg.PositionSizeMultiplier
	switch {
	case raw.Confidence >= highConfidence:
		scale(&size, domain.FieldPositionSize, 1.2, "high confidence")
	case raw.Confidence < lowConfidence:
		scale(&size, domain.FieldPositionSize, 0.8, "low confidence")
	}
	switch raw.RiskLevel {
	case domain.RiskLow:
		scale(&size, domain.FieldPositionSize, 1.15, "low risk")
	case domain.RiskHigh:
		scale(&size, domain.FieldPositionSize, 0.7, "high risk")
	}

	target, stop := cfg.ProfitTargetBps, cfg.StopLossBps
	if dctx.Snapshot.Volatility > highVolatility {
		scale(&target, domain.FieldProfitTarget, 1.2, "high volatility")
		scale(&stop, domain.FieldStopLoss, 1.15, "high volatility")
	} else {
		scale(&target, domain.FieldProfitTarget, 0.9, "calm market")
		scale(&stop, domain.FieldStopLoss, 0.9, "calm market")
	}
	switch {
	case raw.ExpectedProfitBps > strongProfitBps:
		scale(&target, domain.FieldProfitTarget, 1.1, "large expected profit")
	case raw.ExpectedProfitBps < weakProfitBps:
		scale(&target, domain.FieldProfitTarget, 0.95, "small expected profit")
	}

	out.PositionSize = clamp(size, domain.PositionMultiplierFloor, domain.PositionMultiplierCap)
	out.ProfitTargetBps = clamp(target, domain.ProfitTargetFloorBps, domain.ProfitTargetCapBps)
	out.StopLossBps = clamp(stop, domain.StopLossFloorBps, domain.StopLossCapBps)
	out.ShouldExecute = true
	out.Metadata.Adjustments = adj
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
