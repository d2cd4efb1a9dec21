package learning

import (
	"sort"
	"time"

	"solana-autotrader/internal/domain"
)

// Condition buckets used for ConditionStats keys.
const (
	highVolatilityThreshold = 0.05
	highMEVThreshold        = 0.5
	bullishSentiment        = 0.6
	bearishSentiment        = 0.4
)

// ComputeMetrics derives LearningMetrics from outcomes. It is a pure
// function of its input. now stamps UpdatedAt, and its location is the zone
// hour and weekday statistics are bucketed in.
func ComputeMetrics(outcomes []domain.TradeOutcome, now time.Time) domain.LearningMetrics {
	loc := now.Location()
	m := domain.EmptyLearningMetrics()
	m.UpdatedAt = now
	if len(outcomes) == 0 {
		return m
	}

	var (
		wins          int
		profitPercent float64
		execTotal     time.Duration
	)
	for i := range outcomes {
		o := &outcomes[i]
		profit := o.ProfitValue()

		m.TotalProfit += profit
		profitPercent += o.ProfitPercentValue()
		execTotal += o.ExecutionTime
		if o.Success {
			wins++
		}

		accumulate(m.AgentStats, o.AgentID, o.Success, profit)
		accumulate(m.StrategyStats, o.StrategyID, o.Success, profit)
		at := o.Timestamp.In(loc)
		accumulate(m.HourStats, at.Hour(), o.Success, profit)
		accumulate(m.DayStats, int(at.Weekday()), o.Success, profit)
		for _, key := range conditionKeys(o.Conditions) {
			accumulate(m.ConditionStats, key, o.Success, profit)
		}
	}

	n := len(outcomes)
	m.TotalTrades = n
	m.SuccessfulTrades = wins
	m.WinRate = winRate(wins, n)
	m.AvgExecutionTime = execTotal / time.Duration(n)
	m.AvgProfitPercent = profitPercent / float64(n)
	// Profit per winning trade, not per trade.
	if wins > 0 {
		m.AvgProfitPerTrade = m.TotalProfit / float64(wins)
	}

	finalize(m.AgentStats)
	finalize(m.StrategyStats)
	finalize(m.HourStats)
	finalize(m.DayStats)
	finalize(m.ConditionStats)

	if ranked := rankByWinRate(m.StrategyStats); len(ranked) > 0 {
		m.BestStrategy = ranked[0]
		m.WorstStrategy = worstByWinRate(m.StrategyStats)
	}
	if ranked := rankByWinRate(m.HourStats); len(ranked) > 0 {
		m.BestHour = ranked[0]
	}
	if ranked := rankByWinRate(m.DayStats); len(ranked) > 0 {
		m.BestDay = ranked[0]
	}

	return m
}

func accumulate[K comparable](stats map[K]domain.PerformanceStats, key K, success bool, profit float64) {
	s := stats[key]
	s.Trades++
	if success {
		s.Wins++
	}
	s.TotalProfit += profit
	stats[key] = s
}

func finalize[K comparable](stats map[K]domain.PerformanceStats) {
	for k, s := range stats {
		s.WinRate = winRate(s.Wins, s.Trades)
		stats[k] = s
	}
}

// winRate returns wins/total as a percentage.
func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// conditionKeys buckets a market snapshot into volatility, sentiment and
// MEV classes.
func conditionKeys(c domain.MarketConditions) []string {
	keys := make([]string, 0, 3)
	if c.Volatility > highVolatilityThreshold {
		keys = append(keys, "volatility:high")
	} else {
		keys = append(keys, "volatility:low")
	}
	switch {
	case c.Sentiment > bullishSentiment:
		keys = append(keys, "sentiment:bullish")
	case c.Sentiment < bearishSentiment:
		keys = append(keys, "sentiment:bearish")
	default:
		keys = append(keys, "sentiment:neutral")
	}
	if c.MEVRisk > highMEVThreshold {
		keys = append(keys, "mev:high")
	} else {
		keys = append(keys, "mev:low")
	}
	return keys
}

// rankByWinRate orders keys by win rate descending. Ties go to the key
// with more trades, then to the smaller key.
func rankByWinRate[K string | int](stats map[K]domain.PerformanceStats) []K {
	keys := make([]K, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := stats[keys[i]], stats[keys[j]]
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.Trades != b.Trades {
			return a.Trades > b.Trades
		}
		return keys[i] < keys[j]
	})
	return keys
}

// worstByWinRate returns the key with the lowest win rate, breaking ties
// the same way as rankByWinRate.
func worstByWinRate(stats map[string]domain.PerformanceStats) string {
	var (
		worst string
		found bool
	)
	for k, s := range stats {
		if !found {
			worst, found = k, true
			continue
		}
		w := stats[worst]
		switch {
		case s.WinRate < w.WinRate:
			worst = k
		case s.WinRate == w.WinRate && s.Trades > w.Trades:
			worst = k
		case s.WinRate == w.WinRate && s.Trades == w.Trades && k < worst:
			worst = k
		}
	}
	return worst
}

// topN returns at most n leading keys of the win-rate ranking.
func topN[K string | int](stats map[K]domain.PerformanceStats, n int) []K {
	ranked := rankByWinRate(stats)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
