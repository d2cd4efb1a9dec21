// Package learning keeps the trade outcome ledger, derives performance
// metrics from it and adapts the trading tunables after every outcome.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// ErrInvalidOutcome is returned by RecordOutcome for outcomes without an id.
var ErrInvalidOutcome = errors.New("learning: outcome id is required")

const (
	preferredPenalty = 0.10
	offHourPenalty   = 0.05
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// Store persists config and metrics blobs. Nil disables persistence.
	Store   storage.KVStore
	// Archive keeps every outcome so the ledger survives restarts.
	Archive storage.OutcomeStore

	Capacity  int
	ColdStart int
	Now       func() time.Time
	// Location fixes the zone of hour and weekday statistics and of the
	// best-hour check. Nil keeps the zone of Now.
	Location  *time.Location
	Logger    *zerolog.Logger

	// OnUpdate is called after each RecordOutcome with the new state.
	OnUpdate func(domain.LearningMetrics, domain.AdaptiveConfig)
}

// learnedState pairs the metrics with the configuration adapted from them.
type learnedState struct {
	metrics domain.LearningMetrics
	config  domain.AdaptiveConfig
}

// Engine owns the outcome ledger and the adaptive configuration.
// RecordOutcome, Load and Reset are serialized; readers get whole
// snapshots published atomically.
type Engine struct {
	mu     sync.Mutex
	ledger *Ledger
	state  atomic.Pointer[learnedState]

	store     storage.KVStore
	archive   storage.OutcomeStore
	coldStart int
	now       func() time.Time
	loc       *time.Location
	log       zerolog.Logger
	onUpdate  func(domain.LearningMetrics, domain.AdaptiveConfig)
}

// NewEngine creates an engine with default configuration and an empty ledger.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		ledger:    NewLedger(opts.Capacity),
		store:     opts.Store,
		archive:   opts.Archive,
		coldStart: opts.ColdStart,
		now:       opts.Now,
		loc:       opts.Location,
		onUpdate:  opts.OnUpdate,
	}
	if e.coldStart <= 0 {
		e.coldStart = DefaultColdStart
	}
	if e.now == nil {
		e.now = time.Now
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	e.log = logger.With().Str("component", "learning").Logger()

	e.state.Store(&learnedState{
		metrics: domain.EmptyLearningMetrics(),
		config:  domain.DefaultAdaptiveConfig(),
	})
	return e
}

func (e *Engine) clock() time.Time {
	t := e.now()
	if e.loc != nil {
		t = t.In(e.loc)
	}
	return t
}

// Load restores state at startup. The archive, when present, rebuilds the
// ledger and metrics are recomputed from it; the persisted metrics blob is
// only used when no outcomes could be loaded. Failures are logged and leave
// defaults in place.
func (e *Engine) Load(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := *e.state.Load()
	if e.store != nil {
		if raw, err := e.store.Get(ctx, storage.KeyAdaptiveConfig); err == nil {
			var cfg domain.AdaptiveConfig
			if err := json.Unmarshal(raw, &cfg); err != nil {
				e.log.Warn().Err(err).Msg("discarding unreadable adaptive config")
			} else {
				next.config = sanitize(cfg)
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			e.log.Warn().Err(err).Msg("load adaptive config")
		}
	}

	if e.archive != nil {
		outcomes, err := e.archive.Latest(ctx, e.ledger.Cap())
		if err != nil {
			e.log.Warn().Err(err).Msg("load outcome archive")
		}
		for _, o := range outcomes {
			e.ledger.Append(*o)
		}
	}

	if e.ledger.Len() > 0 {
		next.metrics = ComputeMetrics(e.ledger.Snapshot(), e.clock())
	} else if e.store != nil {
		if raw, err := e.store.Get(ctx, storage.KeyLearningMetrics); err == nil {
			m := domain.EmptyLearningMetrics()
			if err := json.Unmarshal(raw, &m); err != nil {
				e.log.Warn().Err(err).Msg("discarding unreadable learning metrics")
			} else {
				next.metrics = m
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			e.log.Warn().Err(err).Msg("load learning metrics")
		}
	}

	e.state.Store(&next)
	e.log.Info().
		Int("outcomes", e.ledger.Len()).
		Float64("min_confidence", next.config.MinConfidence).
		Float64("position_multiplier", next.config.PositionSizeMultiplier).
		Msg("learning state loaded")
}

// RecordOutcome appends o to the ledger, recomputes metrics, adapts the
// configuration and persists both. Persistence is best effort.
func (e *Engine) RecordOutcome(ctx context.Context, o domain.TradeOutcome) error {
	if o.ID == "" {
		return ErrInvalidOutcome
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = e.clock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.Append(o)
	outcomes := e.ledger.Snapshot()

	m := ComputeMetrics(outcomes, e.clock())
	cfg := AdaptConfiguration(e.state.Load().config, m, outcomes, e.coldStart)
	e.state.Store(&learnedState{metrics: m, config: cfg})

	e.log.Debug().
		Str("outcome_id", o.ID).
		Str("agent", o.AgentID).
		Str("strategy", o.StrategyID).
		Bool("success", o.Success).
		Float64("win_rate", m.WinRate).
		Float64("min_confidence", cfg.MinConfidence).
		Msg("outcome recorded")

	if e.archive != nil {
		if err := e.archive.Insert(ctx, &o); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			e.log.Warn().Err(err).Str("outcome_id", o.ID).Msg("archive outcome")
		}
	}
	e.persist(ctx, m, cfg)

	if e.onUpdate != nil {
		e.onUpdate(m, cfg)
	}
	return nil
}

func (e *Engine) persist(ctx context.Context, m domain.LearningMetrics, cfg domain.AdaptiveConfig) {
	if e.store == nil {
		return
	}
	if err := e.putJSON(ctx, storage.KeyAdaptiveConfig, cfg); err != nil {
		e.log.Warn().Err(err).Msg("persist adaptive config")
	}
	if err := e.putJSON(ctx, storage.KeyLearningMetrics, m); err != nil {
		e.log.Warn().Err(err).Msg("persist learning metrics")
	}
}

func (e *Engine) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return e.store.Set(ctx, key, raw)
}

// ShouldTakeTrade reports whether a trade at confidence passes the learned
// gates. The threshold grows by 0.10 when the agent or strategy is outside
// the preferred lists, and by another 0.05 off the best hour. Lists and the
// best hour only apply once learned.
func (e *Engine) ShouldTakeTrade(agentID, strategyID string, confidence float64, conditions domain.MarketConditions) bool {
	st := e.state.Load()
	cfg, m := &st.config, &st.metrics

	required := cfg.MinConfidence
	if confidence < required {
		return false
	}

	outsidePreferred := (len(cfg.PreferredAgents) > 0 && !slices.Contains(cfg.PreferredAgents, agentID)) ||
		(len(cfg.PreferredStrategies) > 0 && !slices.Contains(cfg.PreferredStrategies, strategyID))
	if outsidePreferred {
		required += preferredPenalty
	}
	if m.BestHour >= 0 && e.clock().Hour() != m.BestHour {
		required += offHourPenalty
	}

	if confidence < required {
		e.log.Debug().
			Str("agent", agentID).
			Str("strategy", strategyID).
			Float64("confidence", confidence).
			Float64("required", required).
			Strs("conditions", conditionKeys(conditions)).
			Msg("trade below learned threshold")
		return false
	}
	return true
}

// Metrics returns the current metrics snapshot. Its maps are shared and
// must not be modified.
func (e *Engine) Metrics() domain.LearningMetrics {
	return e.state.Load().metrics
}

// Config returns a copy of the current adaptive configuration.
func (e *Engine) Config() domain.AdaptiveConfig {
	return e.state.Load().config.Clone()
}

// Snapshot returns metrics and the configuration adapted from them as one
// consistent pair.
func (e *Engine) Snapshot() (domain.LearningMetrics, domain.AdaptiveConfig) {
	st := e.state.Load()
	return st.metrics, st.config.Clone()
}

// Outcomes returns the ledger, oldest first.
func (e *Engine) Outcomes() []domain.TradeOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Snapshot()
}

// Reset drops the ledger, restores the default configuration and deletes
// the persisted blobs. Used after an incompatible blob format change.
// Archived outcomes are left in place.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger.Reset()
	m := domain.EmptyLearningMetrics()
	m.UpdatedAt = e.clock()
	e.state.Store(&learnedState{metrics: m, config: domain.DefaultAdaptiveConfig()})

	if e.store != nil {
		for _, key := range []string{storage.KeyAdaptiveConfig, storage.KeyLearningMetrics} {
			if err := e.store.Delete(ctx, key); err != nil {
				e.log.Warn().Err(err).Str("key", key).Msg("delete persisted state")
			}
		}
	}
	e.log.Info().Msg("learning state reset")
}
