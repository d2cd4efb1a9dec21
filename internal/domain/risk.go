package domain

import "time"

// Side is the direction of an open position.
type Side string

// Side values.
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Valid reports whether s is LONG or SHORT.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// SideFromSignal maps BUY to LONG and SELL to SHORT.
func SideFromSignal(s Signal) Side {
	if s == SignalSell {
		return SideShort
	}
	return SideLong
}

// StopEntry is a registered fixed stop/target for one symbol.
type StopEntry struct {
	EntryPrice  float64 `json:"entry_price"`
	StopPrice   float64 `json:"stop_price"`
	TargetPrice float64 `json:"target_price"`
	Side        Side    `json:"side"`
}

// StopKind identifies which bound of a StopEntry was crossed.
type StopKind string

// Stop kinds.
const (
	StopKindStopLoss   StopKind = "STOP_LOSS"
	StopKindTakeProfit StopKind = "TAKE_PROFIT"
)

// StopTrigger reports a crossed stop or target.
type StopTrigger struct {
	Symbol string
	Kind   StopKind
	Price  float64
	Entry  StopEntry
}

// RiskState is a point-in-time copy of the risk manager's state.
type RiskState struct {
	CircuitBreakerActive bool                 `json:"circuit_breaker_active"`
	CircuitBreakerUntil  time.Time            `json:"circuit_breaker_until"`
	ConsecutiveLosses    int                  `json:"consecutive_losses"`
	DailyLossPct         float64              `json:"daily_loss_pct"`
	DailyLossResetAt     time.Time            `json:"daily_loss_reset_at"`
	Stops                map[string]StopEntry `json:"stops"`
	History              []int                `json:"history"` // 1 win, 0 loss
	AvgWinPct            float64              `json:"avg_win_pct"`
	AvgLossPct           float64              `json:"avg_loss_pct"`
}
