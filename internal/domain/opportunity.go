package domain

import "time"

// Opportunity is a transient, time-sensitive candidate such as a new
// liquidity pool.
type Opportunity struct {
	ID           string    `json:"id"`
	Mint         string    `json:"mint"`
	Symbol       string    `json:"symbol"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	MEVRisk      float64   `json:"mev_risk"`
	PoolCreated  time.Time `json:"pool_created"`
	VolumeSpike  float64   `json:"volume_spike"` // multiple of baseline volume
	Sentiment    float64   `json:"sentiment"`    // 0..1, 0 when unknown
	Momentum     float64   `json:"momentum"`     // short-window price change, percent
	HolderCount  int       `json:"holder_count"` // 0 when unknown
	HasMetadata  bool      `json:"has_metadata"`
	Price        float64   `json:"price"`
	ObservedAt   time.Time `json:"observed_at"`
}

// HasRichData reports whether enough auxiliary data is attached to the
// opportunity to trust its score more.
func (o *Opportunity) HasRichData() bool {
	return o.HasMetadata && o.HolderCount > 0 && o.Sentiment > 0
}

// PoolAge returns the pool age at now, or -1 when the creation time is unknown.
func (o *Opportunity) PoolAge(now time.Time) time.Duration {
	if o.PoolCreated.IsZero() {
		return -1
	}
	return now.Sub(o.PoolCreated)
}

// Recommendation is the action suggested for an opportunity.
type Recommendation string

// Recommendation values.
const (
	RecommendSnipe   Recommendation = "snipe"
	RecommendMonitor Recommendation = "monitor"
	RecommendSkip    Recommendation = "skip"
)

// RiskLevel is a coarse risk bucket.
type RiskLevel string

// RiskLevel values.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScoreFactors is the five-factor breakdown of an opportunity score.
type ScoreFactors struct {
	Liquidity  float64 `json:"liquidity"`  // max 25
	MEV        float64 `json:"mev"`        // max 25
	Timing     float64 `json:"timing"`     // max 20
	Historical float64 `json:"historical"` // max 20
	Market     float64 `json:"market"`     // max 10
}

// Total sums the factors.
func (f ScoreFactors) Total() float64 {
	return f.Liquidity + f.MEV + f.Timing + f.Historical + f.Market
}

// OpportunityScore is produced per evaluation and never persisted.
type OpportunityScore struct {
	OpportunityID     string         `json:"opportunity_id"`
	Score             float64        `json:"score"` // 0..100
	Factors           ScoreFactors   `json:"factors"`
	Confidence        float64        `json:"confidence"`
	Recommendation    Recommendation `json:"recommendation"`
	RiskLevel         RiskLevel      `json:"risk_level"`
	ExpectedProfitBps float64        `json:"expected_profit_bps"`
}

// ScoredOpportunity pairs an opportunity with its score.
type ScoredOpportunity struct {
	Opportunity Opportunity
	Score       OpportunityScore
}
