package learning

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"solana-autotrader/internal/domain"
)

func uniformOutcomes(n int, success bool, profit, volatility float64) []domain.TradeOutcome {
	ts := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	out := make([]domain.TradeOutcome, n)
	for i := range out {
		out[i] = outcomeAt(fmt.Sprintf("o%d", i), "agent", "strat", success, profit, ts)
		out[i].Conditions.Volatility = volatility
	}
	return out
}

func TestAdaptConfiguration_ColdStart(t *testing.T) {
	outcomes := uniformOutcomes(9, false, -1, 0.1)
	cfg := domain.DefaultAdaptiveConfig()

	got := AdaptConfiguration(cfg, ComputeMetrics(outcomes, time.Now().UTC()), outcomes, DefaultColdStart)

	if got.MinConfidence != cfg.MinConfidence || got.PositionSizeMultiplier != cfg.PositionSizeMultiplier ||
		got.ProfitTargetBps != cfg.ProfitTargetBps || got.StopLossBps != cfg.StopLossBps {
		t.Errorf("expected no change below cold start, got %+v", got)
	}
	if len(got.PreferredStrategies) != 0 {
		t.Errorf("expected no preferred strategies, got %v", got.PreferredStrategies)
	}
}

func TestAdaptConfiguration_LosingStreak(t *testing.T) {
	outcomes := uniformOutcomes(10, false, -1, 0.01)
	cfg := domain.DefaultAdaptiveConfig()

	got := AdaptConfiguration(cfg, ComputeMetrics(outcomes, time.Now().UTC()), outcomes, DefaultColdStart)

	assertNear(t, "min confidence", got.MinConfidence, 0.70)
	assertNear(t, "multiplier", got.PositionSizeMultiplier, 0.95)
	assertNear(t, "profit target", got.ProfitTargetBps, 285)
	assertNear(t, "stop loss", got.StopLossBps, 142.5)
	if len(got.PreferredAgents) != 1 || got.PreferredAgents[0] != "agent" {
		t.Errorf("unexpected preferred agents: %v", got.PreferredAgents)
	}
	if len(got.PreferredHours) != 1 || got.PreferredHours[0] != 9 {
		t.Errorf("unexpected preferred hours: %v", got.PreferredHours)
	}
}

func TestAdaptConfiguration_WinningStreak(t *testing.T) {
	outcomes := uniformOutcomes(10, true, 5, 0.2)
	cfg := domain.DefaultAdaptiveConfig()

	got := AdaptConfiguration(cfg, ComputeMetrics(outcomes, time.Now().UTC()), outcomes, DefaultColdStart)

	assertNear(t, "min confidence", got.MinConfidence, 0.63)
	assertNear(t, "multiplier", got.PositionSizeMultiplier, 1.05)
	assertNear(t, "profit target", got.ProfitTargetBps, 330)
	assertNear(t, "stop loss", got.StopLossBps, 165)
}

func TestAdaptConfiguration_BoundsHoldUnderRepetition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := domain.DefaultAdaptiveConfig()
	var outcomes []domain.TradeOutcome

	for i := 0; i < 5000; i++ {
		// Long runs push each tunable against both of its bounds.
		phase := (i / 500) % 2
		success := phase == 0
		profit := -1.0
		if success {
			profit = 1
		}
		o := outcomeAt(fmt.Sprintf("o%d", i), fmt.Sprintf("a%d", rng.Intn(5)), fmt.Sprintf("s%d", rng.Intn(5)), success, profit,
			time.Date(2026, 1, 1, rng.Intn(24), 0, 0, 0, time.UTC))
		o.Conditions.Volatility = float64(phase) * 0.1
		outcomes = append(outcomes, o)
		if len(outcomes) > DefaultCapacity {
			outcomes = outcomes[1:]
		}

		cfg = AdaptConfiguration(cfg, ComputeMetrics(outcomes, time.Now().UTC()), outcomes, DefaultColdStart)

		if cfg.MinConfidence < domain.MinConfidenceFloor || cfg.MinConfidence > domain.MinConfidenceCap {
			t.Fatalf("cycle %d: min confidence %f out of bounds", i, cfg.MinConfidence)
		}
		if cfg.PositionSizeMultiplier < domain.PositionMultiplierFloor || cfg.PositionSizeMultiplier > domain.PositionMultiplierCap {
			t.Fatalf("cycle %d: multiplier %f out of bounds", i, cfg.PositionSizeMultiplier)
		}
		if cfg.ProfitTargetBps < 100 || cfg.ProfitTargetBps > 500 {
			t.Fatalf("cycle %d: profit target %f out of bounds", i, cfg.ProfitTargetBps)
		}
		if cfg.StopLossBps < 100 || cfg.StopLossBps > 300 {
			t.Fatalf("cycle %d: stop loss %f out of bounds", i, cfg.StopLossBps)
		}
		if len(cfg.PreferredAgents) > 3 || len(cfg.PreferredStrategies) > 3 || len(cfg.PreferredHours) > 3 {
			t.Fatalf("cycle %d: preferred lists exceed 3", i)
		}
	}
}

func TestSanitize(t *testing.T) {
	got := sanitize(domain.AdaptiveConfig{
		MinConfidence:          2,
		PositionSizeMultiplier: math.NaN(),
		ProfitTargetBps:        50,
		StopLossBps:            1000,
	})

	assertNear(t, "min confidence", got.MinConfidence, domain.MinConfidenceCap)
	assertNear(t, "multiplier", got.PositionSizeMultiplier, 1.0)
	assertNear(t, "profit target", got.ProfitTargetBps, 100)
	assertNear(t, "stop loss", got.StopLossBps, 300)
	assertNear(t, "slippage", got.MaxSlippageBps, 100)
	if got.PreferredAgents == nil || got.PreferredHours == nil || got.PreferredStrategies == nil {
		t.Error("expected non-nil preferred lists")
	}
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %f, want %f", name, got, want)
	}
}
