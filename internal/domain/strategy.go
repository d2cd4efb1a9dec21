package domain

// StrategyKind classifies a strategy's market thesis.
type StrategyKind string

// Strategy kinds.
const (
	StrategyKindTrend         StrategyKind = "trend"
	StrategyKindMomentum      StrategyKind = "momentum"
	StrategyKindMeanReversion StrategyKind = "mean_reversion"
	StrategyKindSniper        StrategyKind = "sniper"
	StrategyKindArbitrage     StrategyKind = "arbitrage"
)

// StrategyProfile describes a candidate strategy for ranking.
type StrategyProfile struct {
	ID            string       `json:"id" yaml:"id"`
	Kind          StrategyKind `json:"kind" yaml:"kind"`
	Risk          RiskLevel    `json:"risk" yaml:"risk"`
	Keywords      []string     `json:"keywords" yaml:"keywords"`
	MinVolatility float64      `json:"min_volatility" yaml:"min_volatility"`
	MaxVolatility float64      `json:"max_volatility" yaml:"max_volatility"`
}

// RankedStrategy is a strategy with its ranking score.
type RankedStrategy struct {
	Profile StrategyProfile `json:"profile"`
	Score   float64         `json:"score"` // 0..1 before bias
	Biased  float64         `json:"biased"`
}
