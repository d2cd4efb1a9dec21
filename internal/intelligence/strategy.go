package intelligence

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"solana-autotrader/internal/domain"
)

// Ranking weights.
const (
	weightNews       = 0.30
	weightMarket     = 0.30
	weightHistorical = 0.25
	weightTiming     = 0.15
)

// GoalStatus is the controller's progress against its internal daily goal.
type GoalStatus int

// Goal states.
const (
	GoalOnTrack GoalStatus = iota
	GoalBehind
	GoalMet
)

func (g GoalStatus) String() string {
	switch g {
	case GoalBehind:
		return "behind"
	case GoalMet:
		return "met"
	default:
		return "on_track"
	}
}

// RankInput is everything strategy ranking looks at.
type RankInput struct {
	Snapshot    domain.MarketSnapshot
	News        domain.NewsSignal
	Opportunity *domain.ScoredOpportunity
	Metrics     domain.LearningMetrics
	Config      domain.AdaptiveConfig
	Goal        GoalStatus
	Hour        int
}

// DefaultCatalog returns the built-in strategy profiles.
func DefaultCatalog() []domain.StrategyProfile {
	return []domain.StrategyProfile{
		{ID: "trend-follow", Kind: domain.StrategyKindTrend, Risk: domain.RiskMedium,
			Keywords: []string{"bullish", "breakout", "rally", "adoption", "etf"}, MinVolatility: 0.02, MaxVolatility: 0.10},
		{ID: "momentum-scalp", Kind: domain.StrategyKindMomentum, Risk: domain.RiskHigh,
			Keywords: []string{"surge", "pump", "listing", "soars", "gains"}, MinVolatility: 0.04, MaxVolatility: 0.30},
		{ID: "mean-revert", Kind: domain.StrategyKindMeanReversion, Risk: domain.RiskLow,
			Keywords: []string{"crash", "dump", "plunge", "selloff", "liquidation"}, MinVolatility: 0, MaxVolatility: 0.05},
		{ID: "pool-sniper", Kind: domain.StrategyKindSniper, Risk: domain.RiskHigh,
			Keywords: []string{"launch", "listing", "airdrop", "mainnet"}, MinVolatility: 0, MaxVolatility: 1},
		{ID: "dex-arb", Kind: domain.StrategyKindArbitrage, Risk: domain.RiskLow,
			Keywords: []string{"jupiter", "raydium"}, MinVolatility: 0, MaxVolatility: 1},
	}
}

// ValidateCatalog rejects empty catalogs, duplicate ids and inverted bands.
func ValidateCatalog(catalog []domain.StrategyProfile) error {
	if len(catalog) == 0 {
		return fmt.Errorf("strategy catalog is empty")
	}
	seen := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if p.ID == "" {
			return fmt.Errorf("strategy without id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate strategy id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.MaxVolatility < p.MinVolatility {
			return fmt.Errorf("strategy %q: max volatility below min", p.ID)
		}
	}
	return nil
}

// Rank scores every profile in catalog and returns them best first.
// Ties are broken by id.
func Rank(catalog []domain.StrategyProfile, in RankInput) []domain.RankedStrategy {
	ranked := make([]domain.RankedStrategy, 0, len(catalog))
	for _, p := range catalog {
		score := weightNews*newsMatch(p, in) +
			weightMarket*marketMatch(p, in) +
			weightHistorical*historicalMatch(p, in) +
			weightTiming*timingMatch(in)
		ranked = append(ranked, domain.RankedStrategy{
			Profile: p,
			Score:   score,
			Biased:  score * goalBias(p, in.Goal),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Biased != ranked[j].Biased {
			return ranked[i].Biased > ranked[j].Biased
		}
		return ranked[i].Profile.ID < ranked[j].Profile.ID
	})
	return ranked
}

// goalBias pushes toward aggressive strategies when behind and toward
// conservative ones once the goal is met.
func goalBias(p domain.StrategyProfile, goal GoalStatus) float64 {
	switch goal {
	case GoalBehind:
		if p.Risk == domain.RiskHigh {
			return 1.2
		}
		if p.Kind == domain.StrategyKindTrend {
			return 1.1
		}
	case GoalMet:
		if p.Risk == domain.RiskLow {
			return 1.2
		}
		if p.Kind == domain.StrategyKindMeanReversion {
			return 1.1
		}
	}
	return 1
}

// newsMatch blends keyword overlap with sentiment alignment. A sniper is
// matched against the opportunity instead when one is present.
func newsMatch(p domain.StrategyProfile, in RankInput) float64 {
	if p.Kind == domain.StrategyKindSniper && in.Opportunity != nil {
		return in.Opportunity.Score.Confidence
	}

	var overlap float64
	if len(p.Keywords) > 0 {
		hits := 0
		for _, k := range in.News.Keywords {
			if slices.Contains(p.Keywords, k) {
				hits++
			}
		}
		overlap = math.Min(1, float64(hits)/math.Min(3, float64(len(p.Keywords))))
	}

	s := in.News.Sentiment
	var align float64
	switch p.Kind {
	case domain.StrategyKindTrend, domain.StrategyKindMomentum:
		align = (1 + s) / 2
	case domain.StrategyKindMeanReversion:
		align = (1 - s) / 2
	default:
		align = 0.5
	}
	return clamp01(0.5*overlap + 0.5*align)
}

// marketMatch averages how well volatility fits the profile band with a
// kind-specific fit to the snapshot.
func marketMatch(p domain.StrategyProfile, in RankInput) float64 {
	snap := in.Snapshot
	band := bandFit(snap.Volatility, p.MinVolatility, p.MaxVolatility)

	var fit float64
	switch p.Kind {
	case domain.StrategyKindTrend:
		fit = clamp01(math.Abs(snap.PriceChangePct)/10)*0.6 + math.Abs(snap.WhaleFlow())*0.4
	case domain.StrategyKindMomentum:
		fit = clamp01((snap.VolumeSpike - 1) / 2)
	case domain.StrategyKindMeanReversion:
		// Stretched moves are what mean reversion trades.
		fit = clamp01(math.Abs(snap.PriceChangePct) / 15)
	case domain.StrategyKindSniper:
		fit = 0.2
		if in.Opportunity != nil {
			fit = in.Opportunity.Score.Score / 100
		}
	case domain.StrategyKindArbitrage:
		fit = clamp01(snap.ArbitrageEdge / 30)
	}
	fit *= 1 - snap.MEVRisk*0.5
	return clamp01((band + fit) / 2)
}

// bandFit is 1 inside [lo, hi] and decays linearly with distance outside.
func bandFit(v, lo, hi float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	width := math.Max(hi-lo, 0.01)
	var dist float64
	if v < lo {
		dist = lo - v
	} else {
		dist = v - hi
	}
	return clamp01(1 - dist/width)
}

func historicalMatch(p domain.StrategyProfile, in RankInput) float64 {
	score := 0.5
	if st, ok := in.Metrics.StrategyStats[p.ID]; ok && st.Trades > 0 {
		score = st.WinRate / 100
	}
	if slices.Contains(in.Config.PreferredStrategies, p.ID) {
		score += 0.1
	}
	return clamp01(score)
}

func timingMatch(in RankInput) float64 {
	switch {
	case in.Metrics.BestHour < 0:
		return 0.5
	case in.Hour == in.Metrics.BestHour:
		return 1
	case slices.Contains(in.Config.PreferredHours, in.Hour):
		return 0.8
	default:
		return 0.4
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
