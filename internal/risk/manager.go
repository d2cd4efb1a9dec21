// Package risk implements the trading safety layer: a timed circuit
// breaker, a rolling daily-loss cap, Kelly position sizing and a fixed
// per-symbol stop/target registry.
package risk

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// Limits. Percentages are in percent units (5 means 5%).
const (
	DailyLossCapPct      = 5.0
	ConsecutiveLossLimit = 3

	DailyLossBreaker  = time.Hour
	LossStreakBreaker = 2 * time.Hour

	dailyWindow    = 24 * time.Hour
	historySize    = 50
	smoothingAlpha = 0.1

	defaultAvgWinPct  = 5.0
	defaultAvgLossPct = 2.0

	stopLossFraction   = 0.02
	takeProfitFraction = 0.05
)

// Options configures a Manager.
type Options struct {
	Now    func() time.Time
	Logger *zerolog.Logger
	// Store persists state under storage.KeyRiskState after every change.
	Store storage.KVStore
}

// Manager holds the risk state. All methods are safe for concurrent use;
// mutations are serialized by one mutex.
type Manager struct {
	mu sync.Mutex

	breakerActive     bool
	breakerUntil      time.Time
	consecutiveLosses int
	dailyLossPct      float64
	dailyResetAt      time.Time
	stops             map[string]domain.StopEntry
	history           []int // 1 win, 0 loss
	avgWinPct         float64
	avgLossPct        float64

	now   func() time.Time
	store storage.KVStore
	log   zerolog.Logger
}

// NewManager creates a Manager with an inactive breaker and empty history.
func NewManager(opts Options) *Manager {
	m := &Manager{
		stops:      make(map[string]domain.StopEntry),
		avgWinPct:  defaultAvgWinPct,
		avgLossPct: defaultAvgLossPct,
		now:        opts.Now,
		store:      opts.Store,
	}
	if m.now == nil {
		m.now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	m.log = logger.With().Str("component", "risk").Logger()
	m.dailyResetAt = m.now()
	return m
}

// RecordLoss registers a losing trade of pct percent. Crossing the daily
// cap trips the breaker for an hour and skips streak accounting; otherwise
// the third consecutive loss trips it for two hours.
func (m *Manager) RecordLoss(ctx context.Context, pct float64) {
	pct = sanitizePct(pct)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.refreshBreaker(now)
	m.refreshDaily(now)

	m.dailyLossPct += pct
	if m.dailyLossPct >= DailyLossCapPct {
		m.activate(now, DailyLossBreaker, "daily loss cap")
		m.persist(ctx)
		return
	}

	m.consecutiveLosses++
	m.pushHistory(0)
	if m.consecutiveLosses >= ConsecutiveLossLimit {
		m.activate(now, LossStreakBreaker, "consecutive losses")
	}
	m.avgLossPct = (1-smoothingAlpha)*m.avgLossPct + smoothingAlpha*pct
	m.persist(ctx)
}

// RecordWin registers a winning trade of pct percent and clears the loss streak.
func (m *Manager) RecordWin(ctx context.Context, pct float64) {
	pct = sanitizePct(pct)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveLosses = 0
	m.pushHistory(1)
	m.avgWinPct = (1-smoothingAlpha)*m.avgWinPct + smoothingAlpha*pct
	m.persist(ctx)
}

// CanTrade reports whether a trade risking estimatedLossPct may proceed.
func (m *Manager) CanTrade(estimatedLossPct float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.refreshBreaker(now)
	if m.breakerActive {
		return false
	}
	m.refreshDaily(now)
	return m.dailyLossPct+sanitizePct(estimatedLossPct) <= DailyLossCapPct
}

// IsCircuitBreakerActive reports the breaker state, expiring it if due.
func (m *Manager) IsCircuitBreakerActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshBreaker(m.now())
	return m.breakerActive
}

// State returns a copy of the current state.
func (m *Manager) State() domain.RiskState {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshBreaker(m.now())
	return m.snapshot()
}

func (m *Manager) snapshot() domain.RiskState {
	stops := make(map[string]domain.StopEntry, len(m.stops))
	for k, v := range m.stops {
		stops[k] = v
	}
	return domain.RiskState{
		CircuitBreakerActive: m.breakerActive,
		CircuitBreakerUntil:  m.breakerUntil,
		ConsecutiveLosses:    m.consecutiveLosses,
		DailyLossPct:         m.dailyLossPct,
		DailyLossResetAt:     m.dailyResetAt,
		Stops:                stops,
		History:              append([]int(nil), m.history...),
		AvgWinPct:            m.avgWinPct,
		AvgLossPct:           m.avgLossPct,
	}
}

// refreshBreaker deactivates an expired breaker. Must hold mu.
func (m *Manager) refreshBreaker(now time.Time) {
	if m.breakerActive && !now.Before(m.breakerUntil) {
		m.breakerActive = false
		m.breakerUntil = time.Time{}
		m.consecutiveLosses = 0
		m.log.Info().Msg("circuit breaker released")
	}
}

// refreshDaily restarts the daily-loss window after 24h. Must hold mu.
func (m *Manager) refreshDaily(now time.Time) {
	if now.Sub(m.dailyResetAt) > dailyWindow {
		m.dailyLossPct = 0
		m.dailyResetAt = now
	}
}

func (m *Manager) activate(now time.Time, d time.Duration, reason string) {
	until := now.Add(d)
	if m.breakerActive && m.breakerUntil.After(until) {
		return
	}
	m.breakerActive = true
	m.breakerUntil = until
	m.log.Warn().
		Str("reason", reason).
		Time("until", until).
		Float64("daily_loss_pct", m.dailyLossPct).
		Int("consecutive_losses", m.consecutiveLosses).
		Msg("circuit breaker activated")
}

func (m *Manager) pushHistory(v int) {
	m.history = append(m.history, v)
	if len(m.history) > historySize {
		m.history = append(m.history[:0], m.history[len(m.history)-historySize:]...)
	}
}

// sanitizePct returns |pct|, with non-finite input treated as zero.
func sanitizePct(pct float64) float64 {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return math.Abs(pct)
}

func (m *Manager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(m.snapshot())
	if err != nil {
		m.log.Warn().Err(err).Msg("marshal risk state")
		return
	}
	if err := m.store.Set(ctx, storage.KeyRiskState, raw); err != nil {
		m.log.Warn().Err(err).Msg("persist risk state")
	}
}

// Restore loads persisted state. Missing or unreadable state is logged and
// the current state kept.
func (m *Manager) Restore(ctx context.Context) {
	if m.store == nil {
		return
	}
	raw, err := m.store.Get(ctx, storage.KeyRiskState)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn().Err(err).Msg("load risk state")
		}
		return
	}
	var st domain.RiskState
	if err := json.Unmarshal(raw, &st); err != nil {
		m.log.Warn().Err(err).Msg("discarding unreadable risk state")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.breakerActive = st.CircuitBreakerActive
	m.breakerUntil = st.CircuitBreakerUntil
	m.consecutiveLosses = st.ConsecutiveLosses
	m.dailyLossPct = sanitizePct(st.DailyLossPct)
	if !st.DailyLossResetAt.IsZero() {
		m.dailyResetAt = st.DailyLossResetAt
	}
	m.stops = make(map[string]domain.StopEntry, len(st.Stops))
	for k, v := range st.Stops {
		m.stops[k] = v
	}
	m.history = nil
	for _, h := range st.History {
		m.pushHistory(h)
	}
	if st.AvgWinPct > 0 {
		m.avgWinPct = st.AvgWinPct
	}
	if st.AvgLossPct > 0 {
		m.avgLossPct = st.AvgLossPct
	}
	m.refreshBreaker(m.now())
	m.log.Info().
		Bool("breaker_active", m.breakerActive).
		Int("stops", len(m.stops)).
		Msg("risk state restored")
}
