package domain

import "time"

// Aggression bounds.
const (
	AggressionFloor = 20
	AggressionCap   = 100
)

// BotState is the controller's session state. Daily fields reset when the
// local date changes.
type BotState struct {
	Running         bool           `json:"running"`
	DailyProfit     float64        `json:"daily_profit"`
	TradesToday     int            `json:"trades_today"`
	WinsToday       int            `json:"wins_today"`
	WinRateToday    float64        `json:"win_rate_today"` // percent
	CurrentStrategy string         `json:"current_strategy"`
	AggressionLevel int            `json:"aggression_level"`
	GoalReached     bool           `json:"goal_reached"`
	LastDecision    *FinalDecision `json:"last_decision,omitempty"`
	LastReset       time.Time      `json:"last_reset"`
}
