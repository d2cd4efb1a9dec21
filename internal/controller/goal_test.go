package controller

import (
	"math"
	"testing"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/intelligence"
)

func TestComputeProgress(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		at        time.Duration
		profit    float64
		status    intelligence.GoalStatus
		farBehind bool
		ahead     bool
		hourly    float64
	}{
		{"far behind at noon", 12 * time.Hour, 10, intelligence.GoalBehind, true, false, 90.0 / 12},
		{"slightly behind", 12 * time.Hour, 40, intelligence.GoalBehind, false, false, 60.0 / 12},
		{"ahead", 6 * time.Hour, 50, intelligence.GoalOnTrack, false, true, 50.0 / 18},
		{"met", 20 * time.Hour, 120, intelligence.GoalMet, false, false, 0},
		{"last hour floors remaining time", 23*time.Hour + 30*time.Minute, 0, intelligence.GoalBehind, true, false, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := computeProgress(day.Add(tt.at), day, tt.profit, 100)
			if p.status() != tt.status {
				t.Errorf("status: expected %s, got %s", tt.status, p.status())
			}
			if p.farBehind != tt.farBehind {
				t.Errorf("farBehind: expected %v, got %v", tt.farBehind, p.farBehind)
			}
			if p.ahead != tt.ahead {
				t.Errorf("ahead: expected %v, got %v", tt.ahead, p.ahead)
			}
			if math.Abs(p.hourly-tt.hourly) > 1e-9 {
				t.Errorf("hourly: expected %f, got %f", tt.hourly, p.hourly)
			}
		})
	}
}

func TestAdjustAggression(t *testing.T) {
	behindEarly := progress{behind: true, remaining: 10 * time.Hour}
	behindLate := progress{behind: true, remaining: 3 * time.Hour}
	ahead := progress{ahead: true, remaining: 10 * time.Hour}
	met := progress{met: true}

	tests := []struct {
		name     string
		level    int
		p        progress
		highConf bool
		want     int
	}{
		{"behind with time left", 50, behindEarly, false, 55},
		{"behind late holds", 50, behindLate, false, 50},
		{"ahead", 50, ahead, false, 47},
		{"met", 50, met, false, 45},
		{"opportunity boost", 50, behindLate, true, 60},
		{"capped at 100", 98, behindEarly, true, domain.AggressionCap},
		{"floored at 20", 22, met, false, domain.AggressionFloor},
		{"out of range input clamped", 5, ahead, false, domain.AggressionFloor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adjustAggression(tt.level, tt.p, tt.highConf); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	if !sameDay(a, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected same day")
	}
	if sameDay(a, a.Add(2*time.Minute)) {
		t.Error("expected different day across midnight")
	}
	if got := startOfDay(a); !got.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start of day %v", got)
	}
}

func TestPickAgent(t *testing.T) {
	c := &Controller{agents: []Agent{
		&SignalAgent{id: "a"}, &SignalAgent{id: "b"}, &SignalAgent{id: "c"},
	}}

	m := domain.EmptyLearningMetrics()
	if got := c.pickAgent(m).ID(); got != "a" {
		t.Errorf("without history expected first agent, got %s", got)
	}

	m.AgentStats["a"] = domain.PerformanceStats{Trades: 5, Wins: 3, WinRate: 60, TotalProfit: 5}
	m.AgentStats["b"] = domain.PerformanceStats{Trades: 10, Wins: 6, WinRate: 60, TotalProfit: 9}
	m.AgentStats["c"] = domain.PerformanceStats{Trades: 4, Wins: 1, WinRate: 25, TotalProfit: 20}
	if got := c.pickAgent(m).ID(); got != "b" {
		t.Errorf("expected profit tie-break to pick b, got %s", got)
	}
}

func TestOverrideHold(t *testing.T) {
	opp := &domain.ScoredOpportunity{
		Opportunity: domain.Opportunity{ID: "pool", Momentum: -12},
		Score:       domain.OpportunityScore{Confidence: 0.8, ExpectedProfitBps: 250, RiskLevel: domain.RiskMedium},
	}
	hold := domain.RawDecision{Signal: domain.SignalHold, Confidence: 0.4}

	got := overrideHold(hold, opp, domain.MarketSnapshot{PriceChangePct: 5})
	if got.Signal != domain.SignalSell {
		t.Errorf("expected SELL from negative momentum, got %s", got.Signal)
	}
	if got.Confidence != 0.8 || got.ExpectedProfitBps != 250 {
		t.Errorf("expected opportunity confidence and profit, got %f / %f", got.Confidence, got.ExpectedProfitBps)
	}

	opp.Opportunity.Momentum = 0
	if got := overrideHold(hold, opp, domain.MarketSnapshot{PriceChangePct: 5}); got.Signal != domain.SignalBuy {
		t.Errorf("expected BUY from snapshot direction, got %s", got.Signal)
	}

	opp.Score.Confidence = 0.7
	if got := overrideHold(hold, opp, domain.MarketSnapshot{}); got.Signal != domain.SignalHold {
		t.Errorf("confidence 0.7 must not override, got %s", got.Signal)
	}

	buy := domain.RawDecision{Signal: domain.SignalBuy, Confidence: 0.6}
	opp.Score.Confidence = 0.95
	if got := overrideHold(buy, opp, domain.MarketSnapshot{}); got != buy {
		t.Errorf("directional signals are left alone, got %+v", got)
	}
	if got := overrideHold(hold, nil, domain.MarketSnapshot{}); got != hold {
		t.Errorf("no opportunity must not override, got %+v", got)
	}
}
