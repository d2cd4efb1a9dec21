package domain

import (
	"slices"
	"time"
)

// PerformanceStats is a win/profit breakdown for one grouping key.
type PerformanceStats struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"` // percent
	TotalProfit float64 `json:"total_profit"`
}

// LearningMetrics is derived from the outcome ledger and fully recomputed on
// every append. The ledger stays authoritative.
type LearningMetrics struct {
	TotalTrades       int           `json:"total_trades"`
	SuccessfulTrades  int           `json:"successful_trades"`
	WinRate           float64       `json:"win_rate"` // percent
	TotalProfit       float64       `json:"total_profit"`
	AvgProfitPerTrade float64       `json:"avg_profit_per_trade"`
	AvgProfitPercent  float64       `json:"avg_profit_percent"`
	AvgExecutionTime  time.Duration `json:"avg_execution_time"`

	BestStrategy  string `json:"best_strategy,omitempty"`
	WorstStrategy string `json:"worst_strategy,omitempty"`
	BestHour      int    `json:"best_hour"` // -1 when unknown
	BestDay       int    `json:"best_day"`  // time.Weekday, -1 when unknown

	AgentStats     map[string]PerformanceStats `json:"agent_stats"`
	StrategyStats  map[string]PerformanceStats `json:"strategy_stats"`
	HourStats      map[int]PerformanceStats    `json:"hour_stats"`
	DayStats       map[int]PerformanceStats    `json:"day_stats"`
	ConditionStats map[string]PerformanceStats `json:"condition_stats"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EmptyLearningMetrics returns metrics for an empty ledger.
func EmptyLearningMetrics() LearningMetrics {
	return LearningMetrics{
		BestHour:       -1,
		BestDay:        -1,
		AgentStats:     map[string]PerformanceStats{},
		StrategyStats:  map[string]PerformanceStats{},
		HourStats:      map[int]PerformanceStats{},
		DayStats:       map[int]PerformanceStats{},
		ConditionStats: map[string]PerformanceStats{},
	}
}

// Bounds on adaptive tunables.
const (
	MinConfidenceFloor = 0.5
	MinConfidenceCap   = 0.85

	PositionMultiplierFloor = 0.5
	PositionMultiplierCap   = 2.0

	ProfitTargetFloorBps = 100.0
	ProfitTargetCapBps   = 600.0
	StopLossFloorBps     = 100.0
	StopLossCapBps       = 300.0
)

// AdaptiveConfig holds the tunables re-derived after each outcome.
type AdaptiveConfig struct {
	MinConfidence          float64  `json:"min_confidence"`
	PositionSizeMultiplier float64  `json:"position_size_multiplier"`
	PreferredStrategies    []string `json:"preferred_strategies"`
	PreferredAgents        []string `json:"preferred_agents"`
	PreferredHours         []int    `json:"preferred_hours"`
	MaxSlippageBps         float64  `json:"max_slippage_bps"`
	ProfitTargetBps        float64  `json:"profit_target_bps"`
	StopLossBps            float64  `json:"stop_loss_bps"`
}

// DefaultAdaptiveConfig returns the cold-start configuration.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		MinConfidence:          0.65,
		PositionSizeMultiplier: 1.0,
		PreferredStrategies:    []string{},
		PreferredAgents:        []string{},
		PreferredHours:         []int{},
		MaxSlippageBps:         100,
		ProfitTargetBps:        300,
		StopLossBps:            150,
	}
}

// Clone returns a deep copy.
func (c AdaptiveConfig) Clone() AdaptiveConfig {
	out := c
	out.PreferredStrategies = slices.Clone(c.PreferredStrategies)
	out.PreferredAgents = slices.Clone(c.PreferredAgents)
	out.PreferredHours = slices.Clone(c.PreferredHours)
	return out
}
