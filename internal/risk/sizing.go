package risk

import "math"

// Regime is the market regime used to scale Kelly sizing.
type Regime string

// Regimes.
const (
	RegimeBull    Regime = "bull"
	RegimeNeutral Regime = "neutral"
	RegimeBear    Regime = "bear"
)

// Kelly sizing bounds, as fractions of capital.
const (
	DefaultKellyFraction = 0.05
	MinKellyFraction     = 0.005
	MaxKellyFraction     = 0.15
	MaxBullKelly         = 0.20

	basePositionFraction = 0.10
	minPositionSize      = 0.001
)

// KellyInput holds the Kelly parameters. WinRate is a probability and the
// averages are fractional returns (0.05 means 5%).
type KellyInput struct {
	WinRate float64
	AvgWin  float64
	AvgLoss float64
	Regime  Regime
}

// CalculateKellyPosition returns the half-Kelly fraction of capital to risk.
// Invalid input yields DefaultKellyFraction.
func (m *Manager) CalculateKellyPosition(in KellyInput) float64 {
	return KellyFraction(in)
}

// KellyFraction is the stateless form of CalculateKellyPosition.
func KellyFraction(in KellyInput) float64 {
	p := in.WinRate
	if math.IsNaN(p) || p <= 0 || p >= 1 || math.IsNaN(in.AvgLoss) || in.AvgLoss <= 0 {
		return DefaultKellyFraction
	}
	if math.IsNaN(in.AvgWin) || in.AvgWin <= 0 {
		// No edge.
		return MinKellyFraction
	}

	b := in.AvgWin / in.AvgLoss
	q := 1 - p
	half := (p*b - q) / b / 2

	if in.Regime == RegimeBull {
		return clamp(half*2, MinKellyFraction, MaxBullKelly)
	}
	return clamp(half, MinKellyFraction, MaxKellyFraction)
}

// CalculatePositionSize scales 10% of capital by confidence and damps it by
// volatility. The result is never below 0.001.
func (m *Manager) CalculatePositionSize(capital, confidence, volatility float64) float64 {
	if !finite(capital) || !finite(confidence) || capital <= 0 {
		return minPositionSize
	}
	if !finite(volatility) || volatility < 0 {
		volatility = 0
	}
	size := capital * basePositionFraction * (0.5 + confidence) / (1 + volatility/10)
	return math.Max(size, minPositionSize)
}

// KellyInput derives Kelly parameters from the win/loss history and the
// smoothed averages. With no history the win rate is zero, which
// CalculateKellyPosition maps to the default fraction.
func (m *Manager) KellyInput(regime Regime) KellyInput {
	m.mu.Lock()
	defer m.mu.Unlock()

	var wins int
	for _, h := range m.history {
		wins += h
	}
	var p float64
	if len(m.history) > 0 {
		p = float64(wins) / float64(len(m.history))
	}
	return KellyInput{
		WinRate: p,
		AvgWin:  m.avgWinPct / 100,
		AvgLoss: m.avgLossPct / 100,
		Regime:  regime,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
