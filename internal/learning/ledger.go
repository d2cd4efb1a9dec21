package learning

import "solana-autotrader/internal/domain"

// DefaultCapacity is the number of outcomes the ledger retains.
const DefaultCapacity = 1000

// Ledger is a bounded FIFO of trade outcomes. Appending past capacity
// evicts the oldest entry. Not safe for concurrent use; the Engine
// serializes access.
type Ledger struct {
	buf   []domain.TradeOutcome
	start int // index of the oldest entry
	size  int
}

// NewLedger creates an empty ledger. Non-positive capacity selects
// DefaultCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{buf: make([]domain.TradeOutcome, capacity)}
}

// Append adds o and reports whether an older outcome was evicted.
func (l *Ledger) Append(o domain.TradeOutcome) bool {
	c := len(l.buf)
	if l.size < c {
		l.buf[(l.start+l.size)%c] = o
		l.size++
		return false
	}
	l.buf[l.start] = o
	l.start = (l.start + 1) % c
	return true
}

// Len returns the number of retained outcomes.
func (l *Ledger) Len() int { return l.size }

// Cap returns the ledger capacity.
func (l *Ledger) Cap() int { return len(l.buf) }

// Snapshot returns the retained outcomes, oldest first.
func (l *Ledger) Snapshot() []domain.TradeOutcome {
	out := make([]domain.TradeOutcome, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

// Reset drops every outcome.
func (l *Ledger) Reset() {
	clear(l.buf)
	l.start, l.size = 0, 0
}
