package learning

import (
	"fmt"
	"testing"

	"solana-autotrader/internal/domain"
)

func TestLedger_FIFOEviction(t *testing.T) {
	l := NewLedger(3)

	for i := 0; i < 5; i++ {
		evicted := l.Append(domain.TradeOutcome{ID: fmt.Sprintf("o%d", i)})
		if want := i >= 3; evicted != want {
			t.Errorf("append %d: evicted=%v, want %v", i, evicted, want)
		}
	}

	got := l.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"o2", "o3", "o4"} {
		if got[i].ID != want {
			t.Errorf("entry %d: got %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestLedger_DefaultCapacityBound(t *testing.T) {
	l := NewLedger(0)
	if l.Cap() != DefaultCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultCapacity, l.Cap())
	}

	for i := 0; i < 2500; i++ {
		l.Append(domain.TradeOutcome{ID: fmt.Sprintf("o%d", i)})
		if l.Len() > DefaultCapacity {
			t.Fatalf("ledger grew to %d", l.Len())
		}
	}

	got := l.Snapshot()
	if got[0].ID != "o1500" || got[len(got)-1].ID != "o2499" {
		t.Errorf("expected o1500..o2499, got %s..%s", got[0].ID, got[len(got)-1].ID)
	}
}

func TestLedger_Reset(t *testing.T) {
	l := NewLedger(2)
	l.Append(domain.TradeOutcome{ID: "a"})
	l.Append(domain.TradeOutcome{ID: "b"})
	l.Append(domain.TradeOutcome{ID: "c"})
	l.Reset()

	if l.Len() != 0 || len(l.Snapshot()) != 0 {
		t.Fatal("expected empty ledger after reset")
	}
	l.Append(domain.TradeOutcome{ID: "d"})
	if got := l.Snapshot(); len(got) != 1 || got[0].ID != "d" {
		t.Errorf("unexpected snapshot after reset: %+v", got)
	}
}
