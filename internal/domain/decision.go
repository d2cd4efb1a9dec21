package domain

import "time"

// RawDecision is the unoptimized output of a trading agent.
type RawDecision struct {
	AgentID           string    `json:"agent_id"`
	StrategyID        string    `json:"strategy_id"`
	Signal            Signal    `json:"signal"`
	Confidence        float64   `json:"confidence"`
	ExpectedProfitBps float64   `json:"expected_profit_bps"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Reasoning         string    `json:"reasoning,omitempty"`
}

// NewsSignal is the aggregate of scored news articles.
type NewsSignal struct {
	Sentiment float64  `json:"sentiment"` // -1..1
	Impact    float64  `json:"impact"`    // 0..1
	Keywords  []string `json:"keywords,omitempty"`
	Articles  int      `json:"articles"`
}

// DecisionContext is the market context a decision is made in.
type DecisionContext struct {
	Symbol      string             `json:"symbol"`
	Snapshot    MarketSnapshot     `json:"snapshot"`
	Opportunity *ScoredOpportunity `json:"opportunity,omitempty"`
	News        NewsSignal         `json:"news"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Conditions returns the market conditions of the context.
func (c DecisionContext) Conditions() MarketConditions {
	return c.Snapshot.Conditions()
}

// Adjustment names one multiplicative change applied by the optimizer.
type Adjustment struct {
	Field  string  `json:"field"`
	Factor float64 `json:"factor"`
	Reason string  `json:"reason"`
}

// Adjustment fields.
const (
	FieldPositionSize = "position_size"
	FieldProfitTarget = "profit_target"
	FieldStopLoss     = "stop_loss"
)

// DecisionMetadata is the closed set of annotations attached to a decision.
type DecisionMetadata struct {
	OriginalSignal Signal       `json:"original_signal"`
	Overridden     bool         `json:"overridden"`
	OverrideReason string       `json:"override_reason,omitempty"`
	Adjustments    []Adjustment `json:"adjustments,omitempty"`
}

// OptimizedDecision is a sized, bounded and annotated decision.
type OptimizedDecision struct {
	AgentID         string           `json:"agent_id"`
	StrategyID      string           `json:"strategy_id"`
	Signal          Signal           `json:"signal"`
	Confidence      float64          `json:"confidence"`
	PositionSize    float64          `json:"position_size"` // multiplier, [0.5, 2.0]
	ProfitTargetBps float64          `json:"profit_target_bps"`
	StopLossBps     float64          `json:"stop_loss_bps"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	ShouldExecute   bool             `json:"should_execute"`
	Metadata        DecisionMetadata `json:"metadata"`
}

// Urgency of a final decision.
type Urgency string

// Urgency values.
const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// FinalDecision is the controller's verdict for one cycle.
type FinalDecision struct {
	Action         Signal            `json:"action"`
	Execute        bool              `json:"execute"`
	Amount         float64           `json:"amount"`
	ExpectedProfit float64           `json:"expected_profit"`
	Urgency        Urgency           `json:"urgency"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	Rationale      string            `json:"rationale"`
	Optimized      OptimizedDecision `json:"optimized"`
	OpportunityID  string            `json:"opportunity_id,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// DecisionSnapshot is emitted to telemetry after each cycle. It is write-only.
type DecisionSnapshot struct {
	CycleID        string        `json:"cycle_id"`
	Timestamp      time.Time     `json:"timestamp"`
	Symbol         string        `json:"symbol"`
	Strategy       string        `json:"strategy"`
	Agent          string        `json:"agent"`
	Decision       FinalDecision `json:"decision"`
	Executed       bool          `json:"executed"`
	ExecutionError string        `json:"execution_error,omitempty"`
	Bot            BotState      `json:"bot"`
	BreakerActive  bool          `json:"breaker_active"`
	DailyLossPct   float64       `json:"daily_loss_pct"`
	WinRate        float64       `json:"win_rate"`
	TotalTrades    int           `json:"total_trades"`
}
