package domain

import "time"

// Signal is the direction a trading agent recommends.
type Signal string

// Signal values.
const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// IsDirectional reports whether the signal opens a position.
func (s Signal) IsDirectional() bool {
	return s == SignalBuy || s == SignalSell
}

// MarketConditions is the market snapshot attached to each outcome.
type MarketConditions struct {
	Volatility float64 `json:"volatility"`
	Volume     float64 `json:"volume"`
	Sentiment  float64 `json:"sentiment"` // 0..1
	MEVRisk    float64 `json:"mev_risk"`  // 0..1
}

// TradeOutcome is an immutable record of one executed (or attempted) trade.
// Outcomes are appended to the ledger and never mutated afterwards.
type TradeOutcome struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	AgentID    string    `json:"agent_id"`
	StrategyID string    `json:"strategy_id"`
	Signal     Signal    `json:"signal"`
	Confidence float64   `json:"confidence"` // 0..1

	EntryPrice    float64  `json:"entry_price"`
	ExitPrice     *float64 `json:"exit_price,omitempty"`
	Profit        *float64 `json:"profit,omitempty"`
	ProfitPercent *float64 `json:"profit_percent,omitempty"`

	ExecutionTime time.Duration    `json:"execution_time"`
	Conditions    MarketConditions `json:"conditions"`
	Success       bool             `json:"success"`
}

// ProfitValue returns the realized profit, 0 when unknown.
func (o *TradeOutcome) ProfitValue() float64 {
	if o.Profit == nil {
		return 0
	}
	return *o.Profit
}

// ProfitPercentValue returns the realized profit percent, 0 when unknown.
func (o *TradeOutcome) ProfitPercentValue() float64 {
	if o.ProfitPercent == nil {
		return 0
	}
	return *o.ProfitPercent
}
