// Package telemetry publishes decision snapshots to write-only sinks.
// Nothing published here is ever read back by the trading core.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/observability"
	"solana-autotrader/internal/storage"
)

// Sink receives one snapshot per controller cycle.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap domain.DecisionSnapshot) error
}

// LogSink writes snapshots as structured log lines.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink. A nil logger selects the global logger.
func NewLogSink(logger *zerolog.Logger) *LogSink {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &LogSink{logger: l.With().Str("component", "telemetry").Logger()}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Publish implements Sink.
func (s *LogSink) Publish(_ context.Context, snap domain.DecisionSnapshot) error {
	d := snap.Decision
	s.logger.Info().
		Str("cycle", snap.CycleID).
		Str("symbol", snap.Symbol).
		Str("strategy", snap.Strategy).
		Str("agent", snap.Agent).
		Str("action", string(d.Action)).
		Bool("executed", snap.Executed).
		Float64("amount", d.Amount).
		Float64("expected_profit", d.ExpectedProfit).
		Float64("confidence", d.Optimized.Confidence).
		Str("urgency", string(d.Urgency)).
		Float64("daily_profit", snap.Bot.DailyProfit).
		Int("aggression", snap.Bot.AggressionLevel).
		Bool("breaker", snap.BreakerActive).
		Str("error", snap.ExecutionError).
		Msg(d.Rationale)
	return nil
}

// PrometheusSink mirrors snapshots into the metric registry.
type PrometheusSink struct {
	metrics *observability.Metrics
	now     func() time.Time
}

// NewPrometheusSink creates a PrometheusSink. Cycle duration is measured
// from the snapshot timestamp to publish time.
func NewPrometheusSink(m *observability.Metrics, now func() time.Time) *PrometheusSink {
	if now == nil {
		now = time.Now
	}
	return &PrometheusSink{metrics: m, now: now}
}

// Name implements Sink.
func (s *PrometheusSink) Name() string { return "prometheus" }

// Publish implements Sink.
func (s *PrometheusSink) Publish(_ context.Context, snap domain.DecisionSnapshot) error {
	now := s.now()
	took := now.Sub(snap.Timestamp)
	if took < 0 {
		took = 0
	}
	s.metrics.RecordCycle(snap.Decision.Action, snap.Decision.Execute, took, now)
	s.metrics.UpdateBotState(snap.Bot)
	s.metrics.UpdateRisk(snap.BreakerActive, snap.DailyLossPct)
	return nil
}

// StoreSink appends snapshots to a DecisionLogStore (ClickHouse in
// production). Duplicate cycle ids are ignored.
type StoreSink struct {
	store storage.DecisionLogStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store storage.DecisionLogStore) *StoreSink {
	return &StoreSink{store: store}
}

// Name implements Sink.
func (s *StoreSink) Name() string { return "decision_log" }

// Publish implements Sink.
func (s *StoreSink) Publish(ctx context.Context, snap domain.DecisionSnapshot) error {
	err := s.store.Insert(ctx, &snap)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}
