package idhash

import (
	"testing"
	"time"

	"solana-autotrader/internal/domain"
)

func TestComputeOutcomeID(t *testing.T) {
	ts := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	id1 := ComputeOutcomeID("momentum", "trend", domain.SignalBuy, ts, 1)
	id2 := ComputeOutcomeID("momentum", "trend", domain.SignalBuy, ts, 1)

	if len(id1) != 64 {
		t.Fatalf("expected 64-char hash, got %d", len(id1))
	}
	if id1 != id2 {
		t.Error("same inputs should produce the same id")
	}

	variants := []string{
		ComputeOutcomeID("contrarian", "trend", domain.SignalBuy, ts, 1),
		ComputeOutcomeID("momentum", "sniper", domain.SignalBuy, ts, 1),
		ComputeOutcomeID("momentum", "trend", domain.SignalSell, ts, 1),
		ComputeOutcomeID("momentum", "trend", domain.SignalBuy, ts.Add(time.Nanosecond), 1),
		ComputeOutcomeID("momentum", "trend", domain.SignalBuy, ts, 2),
	}
	for i, v := range variants {
		if v == id1 {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}

func TestComputeOpportunityID(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	a := ComputeOpportunityID("MintA", created)
	if a != ComputeOpportunityID("MintA", created) {
		t.Error("expected deterministic id")
	}
	if a == ComputeOpportunityID("MintB", created) {
		t.Error("different mints should differ")
	}
	if a == ComputeOpportunityID("MintA", time.Time{}) {
		t.Error("unknown creation time should differ from a known one")
	}
}
