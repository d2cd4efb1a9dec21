package telemetry

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/observability"
)

// Multi fans a snapshot out to every sink. Sink failures are logged,
// counted and swallowed so telemetry never affects a cycle.
type Multi struct {
	sinks   []Sink
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewMulti creates a fan-out over sinks. metrics may be nil.
func NewMulti(metrics *observability.Metrics, logger *zerolog.Logger, sinks ...Sink) *Multi {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &Multi{
		sinks:   sinks,
		metrics: metrics,
		logger:  l.With().Str("component", "telemetry").Logger(),
	}
}

// Publish sends snap to every sink and always returns nil.
func (m *Multi) Publish(ctx context.Context, snap domain.DecisionSnapshot) error {
	for _, s := range m.sinks {
		if err := s.Publish(ctx, snap); err != nil {
			m.logger.Warn().Err(err).Str("sink", s.Name()).Str("cycle", snap.CycleID).Msg("publish failed")
			if m.metrics != nil {
				m.metrics.RecordTelemetryError(s.Name())
			}
		}
	}
	return nil
}

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }
