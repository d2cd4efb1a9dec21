package risk

import (
	"context"
	"math"
	"testing"

	"solana-autotrader/internal/domain"
)

func TestSetStopLoss_Bounds(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager()

	long, ok := m.SetStopLoss(ctx, "SOL", 100, domain.SideLong)
	if !ok {
		t.Fatal("expected long stop registered")
	}
	if math.Abs(long.StopPrice-98) > 1e-9 || math.Abs(long.TargetPrice-105) > 1e-9 {
		t.Errorf("unexpected long bounds %+v", long)
	}

	short, _ := m.SetStopLoss(ctx, "BONK", 100, domain.SideShort)
	if math.Abs(short.StopPrice-102) > 1e-9 || math.Abs(short.TargetPrice-95) > 1e-9 {
		t.Errorf("unexpected short bounds %+v", short)
	}

	if _, ok := m.SetStopLoss(ctx, "BAD", 0, domain.SideLong); ok {
		t.Error("expected zero entry rejected")
	}
	if len(m.State().Stops) != 2 {
		t.Errorf("expected 2 stops, got %d", len(m.State().Stops))
	}
}

func TestCheckStopLoss(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		side  domain.Side
		price float64
		want  domain.StopKind
	}{
		{"long inside band", domain.SideLong, 101, ""},
		{"long stop", domain.SideLong, 97.5, domain.StopKindStopLoss},
		{"long target", domain.SideLong, 105.5, domain.StopKindTakeProfit},
		{"short inside band", domain.SideShort, 99, ""},
		{"short stop", domain.SideShort, 102.5, domain.StopKindStopLoss},
		{"short target", domain.SideShort, 94, domain.StopKindTakeProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager()
			m.SetStopLoss(ctx, "SOL", 100, tt.side)

			trig := m.CheckStopLoss(ctx, "SOL", tt.price)
			_, stillRegistered := m.State().Stops["SOL"]

			if tt.want == "" {
				if trig != nil {
					t.Fatalf("expected no trigger, got %+v", trig)
				}
				if !stillRegistered {
					t.Error("entry should stay registered when nothing triggered")
				}
				return
			}
			if trig == nil || trig.Kind != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, trig)
			}
			if stillRegistered {
				t.Error("entry should be removed after trigger")
			}
			if m.CheckStopLoss(ctx, "SOL", tt.price) != nil {
				t.Error("second check should find nothing")
			}
		})
	}
}

func TestCheckStopLoss_UnknownSymbol(t *testing.T) {
	m, _ := newTestManager()
	if m.CheckStopLoss(context.Background(), "NONE", 1) != nil {
		t.Error("expected nil for unknown symbol")
	}
}

func TestClearStop(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager()
	m.SetStopLoss(ctx, "SOL", 100, domain.SideLong)
	m.ClearStop(ctx, "SOL")
	if len(m.State().Stops) != 0 {
		t.Error("expected stop cleared")
	}
}
