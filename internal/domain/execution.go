package domain

// ExecutionRequest is what the controller hands to the execution
// collaborator. Amount is in quote units.
type ExecutionRequest struct {
	AgentID    string           `json:"agent_id"`
	StrategyID string           `json:"strategy_id"`
	Symbol     string           `json:"symbol"`
	Side       Side             `json:"side"`
	Amount     float64          `json:"amount"`
	Conditions MarketConditions `json:"conditions"`
}

// ExecutionResult is the collaborator's reply. Only Success and the numeric
// fields influence behavior; Signature is carried for telemetry.
type ExecutionResult struct {
	Success    bool     `json:"success"`
	Signature  string   `json:"signature,omitempty"`
	EntryPrice float64  `json:"entry_price,omitempty"`
	ExitPrice  *float64 `json:"exit_price,omitempty"`
	Error      string   `json:"error,omitempty"`
}
