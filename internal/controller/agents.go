package controller

import (
	"context"
	"fmt"
	"math"

	"solana-autotrader/internal/domain"
)

// AgentKind selects the rule set of a SignalAgent.
type AgentKind string

// Built-in agent kinds.
const (
	AgentMomentum   AgentKind = "momentum"
	AgentContrarian AgentKind = "contrarian"
	AgentSniper     AgentKind = "sniper"
)

const (
	momentumTriggerPct  = 2.0
	contrarianHighSent  = 0.8
	contrarianLowSent   = 0.2
	agentHighVolatility = 0.08
)

// SignalAgent is a rule-based agent reading only the decision context.
type SignalAgent struct {
	id   string
	kind AgentKind
}

// NewSignalAgent creates an agent. An empty id defaults to the kind.
func NewSignalAgent(id string, kind AgentKind) (*SignalAgent, error) {
	switch kind {
	case AgentMomentum, AgentContrarian, AgentSniper:
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
	if id == "" {
		id = string(kind)
	}
	return &SignalAgent{id: id, kind: kind}, nil
}

// DefaultAgents returns one agent of each built-in kind.
func DefaultAgents() []Agent {
	return []Agent{
		&SignalAgent{id: string(AgentMomentum), kind: AgentMomentum},
		&SignalAgent{id: string(AgentContrarian), kind: AgentContrarian},
		&SignalAgent{id: string(AgentSniper), kind: AgentSniper},
	}
}

// ID returns the agent id.
func (a *SignalAgent) ID() string { return a.id }

// Decide applies the agent's rules to dctx.
func (a *SignalAgent) Decide(_ context.Context, dctx domain.DecisionContext) (domain.RawDecision, error) {
	d := domain.RawDecision{
		AgentID:    a.id,
		Signal:     domain.SignalHold,
		Confidence: 0.5,
		RiskLevel:  volatilityRisk(dctx.Snapshot.Volatility),
	}

	switch a.kind {
	case AgentMomentum:
		a.momentum(&d, dctx.Snapshot)
	case AgentContrarian:
		a.contrarian(&d, dctx.Snapshot)
	case AgentSniper:
		a.sniper(&d, dctx.Opportunity)
	}
	return d, nil
}

func (a *SignalAgent) momentum(d *domain.RawDecision, s domain.MarketSnapshot) {
	chg, flow := s.PriceChangePct, s.WhaleFlow()
	switch {
	case chg > momentumTriggerPct && flow > 0:
		d.Signal = domain.SignalBuy
	case chg < -momentumTriggerPct && flow < 0:
		d.Signal = domain.SignalSell
	default:
		d.Reasoning = "no momentum"
		return
	}
	d.Confidence = math.Min(0.55+math.Min(math.Abs(chg)/20, 0.3)+math.Abs(flow)*0.1, 0.95)
	d.ExpectedProfitBps = math.Min(math.Abs(chg)*50, 600)
	d.Reasoning = fmt.Sprintf("price %.1f%% with whale flow %.2f", chg, flow)
}

func (a *SignalAgent) contrarian(d *domain.RawDecision, s domain.MarketSnapshot) {
	var extreme float64
	switch {
	case s.Sentiment >= contrarianHighSent:
		d.Signal = domain.SignalSell
		extreme = s.Sentiment - contrarianHighSent
	case s.Sentiment > 0 && s.Sentiment <= contrarianLowSent:
		d.Signal = domain.SignalBuy
		extreme = contrarianLowSent - s.Sentiment
	default:
		d.Reasoning = "sentiment not extreme"
		return
	}
	d.Confidence = math.Min(0.6+extreme*1.5, 0.9)
	d.ExpectedProfitBps = 200 + extreme*500
	d.Reasoning = fmt.Sprintf("fading sentiment %.2f", s.Sentiment)
}

func (a *SignalAgent) sniper(d *domain.RawDecision, opp *domain.ScoredOpportunity) {
	if opp == nil || opp.Score.Recommendation != domain.RecommendSnipe {
		d.Reasoning = "no snipe target"
		return
	}
	d.Signal = domain.SignalBuy
	d.Confidence = opp.Score.Confidence
	d.ExpectedProfitBps = opp.Score.ExpectedProfitBps
	d.RiskLevel = opp.Score.RiskLevel
	d.Reasoning = fmt.Sprintf("snipe %s score %.0f", opp.Opportunity.ID, opp.Score.Score)
}

func volatilityRisk(v float64) domain.RiskLevel {
	switch {
	case v >= agentHighVolatility:
		return domain.RiskHigh
	case v >= agentHighVolatility/2:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
