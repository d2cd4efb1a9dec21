// Package opportunity scores transient trading opportunities such as
// freshly created liquidity pools.
package opportunity

import (
	"math"
	"sort"
	"time"

	"solana-autotrader/internal/domain"
)

// MetricsSource supplies the learned metrics snapshot consulted per score.
type MetricsSource interface {
	Metrics() domain.LearningMetrics
}

// Recommendation thresholds.
const (
	SnipeMinScore      = 70.0
	SnipeMinConfidence = 0.75
	MonitorMinScore    = 50.0
	MonitorMinConf     = 0.6
)

// Liquidity bands in USD.
const (
	optimalLiquidityMin = 50_000.0
	optimalLiquidityMax = 500_000.0
	thinLiquidityMin    = 20_000.0
	microLiquidityMin   = 10_000.0
	deepLiquidityMax    = 2_000_000.0
)

const freshPoolAge = 60 * time.Second

// Scorer computes OpportunityScores. It holds no mutable state and may be
// used from many goroutines; each call reads one metrics snapshot.
type Scorer struct {
	source MetricsSource
	now    func() time.Time
	loc    *time.Location
}

// NewScorer creates a Scorer. A nil now selects time.Now. loc must match
// the location the learning metrics are bucketed in; nil keeps the zone of
// now.
func NewScorer(source MetricsSource, now func() time.Time, loc *time.Location) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{source: source, now: now, loc: loc}
}

// Score evaluates opp against the current learned metrics.
func (s *Scorer) Score(opp domain.Opportunity) domain.OpportunityScore {
	m := domain.EmptyLearningMetrics()
	if s.source != nil {
		m = s.source.Metrics()
	}
	now := s.now()
	if s.loc != nil {
		now = now.In(s.loc)
	}

	factors := domain.ScoreFactors{
		Liquidity:  liquidityFactor(opp.LiquidityUSD),
		MEV:        mevFactor(opp.MEVRisk),
		Timing:     timingFactor(now, m),
		Historical: historicalFactor(m),
		Market:     marketFactor(opp),
	}
	score := clamp(factors.Total(), 0, 100)

	confidence := score / 100
	if opp.HasRichData() {
		confidence += 0.1
	}
	if opp.MEVRisk > 0.6 {
		confidence -= 0.2
	}
	if age := opp.PoolAge(now); age >= 0 && age < freshPoolAge {
		confidence += 0.15
	}
	confidence = clamp(confidence, 0, 1)

	expected := expectedProfitBps(opp, m)
	risk := riskLevel(opp, expected)

	return domain.OpportunityScore{
		OpportunityID:     opp.ID,
		Score:             score,
		Factors:           factors,
		Confidence:        confidence,
		Recommendation:    recommend(score, confidence, risk),
		RiskLevel:         risk,
		ExpectedProfitBps: expected,
	}
}

// Rank scores opps and returns those not recommended "skip", best first.
// Ties fall back to confidence, then id.
func (s *Scorer) Rank(opps []domain.Opportunity) []domain.ScoredOpportunity {
	ranked := make([]domain.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		sc := s.Score(opp)
		if sc.Recommendation == domain.RecommendSkip {
			continue
		}
		ranked = append(ranked, domain.ScoredOpportunity{Opportunity: opp, Score: sc})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Score, ranked[j].Score
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.OpportunityID < b.OpportunityID
	})
	return ranked
}

func liquidityFactor(usd float64) float64 {
	switch {
	case usd >= optimalLiquidityMin && usd <= optimalLiquidityMax:
		return 25
	case usd > optimalLiquidityMax && usd <= deepLiquidityMax:
		return 18
	case usd >= thinLiquidityMin && usd < optimalLiquidityMin:
		return 15
	case usd > deepLiquidityMax:
		return 10
	case usd >= microLiquidityMin:
		return 8
	default:
		return 0
	}
}

func mevFactor(risk float64) float64 {
	switch {
	case risk < 0.3:
		return 25
	case risk < 0.5:
		return 20
	case risk < 0.7:
		return 10
	default:
		return 0
	}
}

func timingFactor(now time.Time, m domain.LearningMetrics) float64 {
	f := 10.0
	if m.BestHour >= 0 && now.Hour() == m.BestHour {
		f += 6
	}
	if m.BestDay >= 0 && int(now.Weekday()) == m.BestDay {
		f += 4
	}
	return f
}

// historicalFactor tiers the best strategy's win rate. Without history it
// returns a neutral midpoint.
func historicalFactor(m domain.LearningMetrics) float64 {
	best, ok := m.StrategyStats[m.BestStrategy]
	if m.BestStrategy == "" || !ok || best.Trades == 0 {
		return 10
	}
	switch {
	case best.WinRate >= 70:
		return 20
	case best.WinRate >= 60:
		return 15
	case best.WinRate >= 50:
		return 10
	case best.WinRate > 0:
		return 5
	default:
		return 0
	}
}

func marketFactor(opp domain.Opportunity) float64 {
	f := 5.0
	if opp.Sentiment > 0 {
		switch {
		case opp.Sentiment > 0.6:
			f += 3
		case opp.Sentiment < 0.4:
			f -= 3
		}
	}
	if opp.VolumeSpike >= 2 {
		f += 2
	}
	switch {
	case opp.Momentum > 10:
		f++
	case opp.Momentum < -10:
		f -= 2
	}
	return clamp(f, 0, 10)
}

// expectedProfitBps prefers the learned average profit percent and falls
// back to a liquidity heuristic, then scales by liquidity and MEV bands.
func expectedProfitBps(opp domain.Opportunity, m domain.LearningMetrics) float64 {
	var base float64
	switch {
	case m.TotalTrades > 0 && m.AvgProfitPercent > 0:
		base = m.AvgProfitPercent * 100
	case opp.LiquidityUSD < optimalLiquidityMin:
		base = 400
	case opp.LiquidityUSD <= optimalLiquidityMax:
		base = 250
	default:
		base = 150
	}

	if opp.LiquidityUSD >= optimalLiquidityMin && opp.LiquidityUSD <= optimalLiquidityMax {
		base *= 1.2
	} else {
		base *= 0.9
	}

	switch {
	case opp.MEVRisk < 0.3:
		base *= 1.1
	case opp.MEVRisk >= 0.6:
		base *= 0.7
	}
	return math.Round(base*100) / 100
}

// riskLevel sums MEV and liquidity risk points, discounts a point for a
// strong expected profit and adds one for a weak one.
func riskLevel(opp domain.Opportunity, expectedBps float64) domain.RiskLevel {
	points := 0
	switch {
	case opp.MEVRisk >= 0.7:
		points += 3
	case opp.MEVRisk >= 0.5:
		points += 2
	case opp.MEVRisk >= 0.3:
		points++
	}
	switch {
	case opp.LiquidityUSD < microLiquidityMin:
		points += 3
	case opp.LiquidityUSD < thinLiquidityMin:
		points += 2
	case opp.LiquidityUSD < optimalLiquidityMin:
		points++
	}

	switch {
	case expectedBps >= 300 && points > 0:
		points--
	case expectedBps < 150:
		points++
	}

	switch {
	case points <= 1:
		return domain.RiskLow
	case points <= 3:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

func recommend(score, confidence float64, risk domain.RiskLevel) domain.Recommendation {
	switch {
	case score >= SnipeMinScore && confidence >= SnipeMinConfidence && risk == domain.RiskLow:
		return domain.RecommendSnipe
	case score >= MonitorMinScore && confidence >= MonitorMinConf:
		return domain.RecommendMonitor
	default:
		return domain.RecommendSkip
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
