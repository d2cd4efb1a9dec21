package controller

import (
	"context"
	"testing"

	"solana-autotrader/internal/domain"
)

func TestSignalAgent_Decide(t *testing.T) {
	snipe := &domain.ScoredOpportunity{
		Opportunity: domain.Opportunity{ID: "pool"},
		Score: domain.OpportunityScore{
			Score: 82, Confidence: 0.9, Recommendation: domain.RecommendSnipe,
			RiskLevel: domain.RiskLow, ExpectedProfitBps: 330,
		},
	}
	monitor := &domain.ScoredOpportunity{Score: domain.OpportunityScore{Recommendation: domain.RecommendMonitor}}

	tests := []struct {
		name string
		kind AgentKind
		dctx domain.DecisionContext
		want domain.Signal
	}{
		{"momentum up with whales", AgentMomentum,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{PriceChangePct: 6, WhaleBuys: 3, WhaleSells: 1}}, domain.SignalBuy},
		{"momentum down with whales", AgentMomentum,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{PriceChangePct: -4, WhaleSells: 2}}, domain.SignalSell},
		{"momentum against whales", AgentMomentum,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{PriceChangePct: 6, WhaleSells: 2}}, domain.SignalHold},
		{"contrarian euphoria", AgentContrarian,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{Sentiment: 0.9}}, domain.SignalSell},
		{"contrarian panic", AgentContrarian,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{Sentiment: 0.1}}, domain.SignalBuy},
		{"contrarian unknown sentiment", AgentContrarian,
			domain.DecisionContext{Snapshot: domain.MarketSnapshot{}}, domain.SignalHold},
		{"sniper target", AgentSniper, domain.DecisionContext{Opportunity: snipe}, domain.SignalBuy},
		{"sniper monitor only", AgentSniper, domain.DecisionContext{Opportunity: monitor}, domain.SignalHold},
		{"sniper nothing", AgentSniper, domain.DecisionContext{}, domain.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewSignalAgent("", tt.kind)
			if err != nil {
				t.Fatalf("NewSignalAgent: %v", err)
			}
			d, err := a.Decide(context.Background(), tt.dctx)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if d.Signal != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, d.Signal, d.Reasoning)
			}
			if d.AgentID != string(tt.kind) {
				t.Errorf("expected agent id %s, got %s", tt.kind, d.AgentID)
			}
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Errorf("confidence out of range: %f", d.Confidence)
			}
		})
	}
}

func TestSignalAgent_SniperCopiesScore(t *testing.T) {
	a, _ := NewSignalAgent("s1", AgentSniper)
	d, _ := a.Decide(context.Background(), domain.DecisionContext{Opportunity: &domain.ScoredOpportunity{
		Score: domain.OpportunityScore{Confidence: 0.88, Recommendation: domain.RecommendSnipe, RiskLevel: domain.RiskLow, ExpectedProfitBps: 410},
	}})

	if d.Confidence != 0.88 || d.ExpectedProfitBps != 410 || d.RiskLevel != domain.RiskLow {
		t.Errorf("unexpected decision %+v", d)
	}
	if a.ID() != "s1" {
		t.Errorf("expected id s1, got %s", a.ID())
	}
}

func TestNewSignalAgent_UnknownKind(t *testing.T) {
	if _, err := NewSignalAgent("x", AgentKind("oracle")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
