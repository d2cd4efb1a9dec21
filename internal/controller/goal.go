package controller

import (
	"math"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/intelligence"
)

const (
	farBehindMargin     = 0.25
	aggressionHorizon   = 6 * time.Hour
	highConfidenceOpp   = 0.7
	farBehindConfidence = 0.75
)

// progress is the controller's position against its internal daily goal.
type progress struct {
	ratio     float64 // daily profit / goal
	elapsed   float64 // fraction of the day gone, 0..1
	remaining time.Duration
	met       bool
	behind    bool
	ahead     bool
	farBehind bool
	hourly    float64 // profit per hour still needed
}

func computeProgress(now, dayStart time.Time, dailyProfit, goal float64) progress {
	elapsed := now.Sub(dayStart)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > 24*time.Hour {
		elapsed = 24 * time.Hour
	}
	p := progress{
		elapsed:   elapsed.Hours() / 24,
		remaining: 24*time.Hour - elapsed,
	}
	if goal > 0 {
		p.ratio = dailyProfit / goal
	}
	p.met = goal > 0 && dailyProfit >= goal
	if !p.met {
		p.behind = p.ratio < p.elapsed
		p.ahead = p.ratio > p.elapsed
		p.farBehind = p.ratio < p.elapsed-farBehindMargin
	}

	hours := math.Max(p.remaining.Hours(), 1)
	p.hourly = math.Max(goal-dailyProfit, 0) / hours
	return p
}

func (p progress) status() intelligence.GoalStatus {
	switch {
	case p.met:
		return intelligence.GoalMet
	case p.behind:
		return intelligence.GoalBehind
	default:
		return intelligence.GoalOnTrack
	}
}

// adjustAggression applies one cycle of self-adjustment and clamps the
// result to [AggressionFloor, AggressionCap].
func adjustAggression(level int, p progress, highConfOpp bool) int {
	switch {
	case p.met:
		level -= 5
	case p.behind && p.remaining > aggressionHorizon:
		level += 5
	case p.ahead:
		level -= 3
	}
	if highConfOpp {
		level += 10
	}
	return clampAggression(level)
}

func clampAggression(level int) int {
	return min(max(level, domain.AggressionFloor), domain.AggressionCap)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
