// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-autotrader/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "solana_autotrader"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	// Execution metrics
	TradesExecuted   *prometheus.CounterVec
	ExecutionLatency prometheus.Histogram

	// Session metrics
	DailyProfit     prometheus.Gauge
	TradesToday     prometheus.Gauge
	WinRateToday    prometheus.Gauge
	AggressionLevel prometheus.Gauge
	GoalReached     prometheus.Gauge

	// Risk metrics
	CircuitBreakerActive prometheus.Gauge
	DailyLossPct         prometheus.Gauge

	// Learning metrics
	LearningWinRate     prometheus.Gauge
	LearningTrades      prometheus.Gauge
	MinConfidence       prometheus.Gauge
	PositionMultiplier  prometheus.Gauge
	OpportunitiesScored *prometheus.CounterVec

	// Telemetry metrics
	TelemetryErrors *prometheus.CounterVec

	// Health metrics
	LastCycle prometheus.Gauge
}

// NewMetrics creates a Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Cycle metrics
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "cycles_total",
			Help:      "Total number of decision cycles by final action",
		}, []string{"action"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "cycle_duration_seconds",
			Help:      "Decision cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Execution metrics
		TradesExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "trades_total",
			Help:      "Total number of execution attempts by result",
		}, []string{"result"}),
		ExecutionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "latency_seconds",
			Help:      "Execution collaborator latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		// Session metrics
		DailyProfit: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "daily_profit",
			Help:      "Realized profit since the last daily reset",
		}),
		TradesToday: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "trades_today",
			Help:      "Closed trades since the last daily reset",
		}),
		WinRateToday: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "win_rate_today_percent",
			Help:      "Win rate of today's closed trades",
		}),
		AggressionLevel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "aggression_level",
			Help:      "Current aggression level (20-100)",
		}),
		GoalReached: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "goal_reached",
			Help:      "1 when the internal daily goal has been reached",
		}),

		// Risk metrics
		CircuitBreakerActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "circuit_breaker_active",
			Help:      "1 while the trading circuit breaker is active",
		}),
		DailyLossPct: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "daily_loss_percent",
			Help:      "Accumulated loss percent in the rolling daily window",
		}),

		// Learning metrics
		LearningWinRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "win_rate_percent",
			Help:      "Win rate over the outcome ledger",
		}),
		LearningTrades: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "ledger_trades",
			Help:      "Outcomes currently held in the ledger",
		}),
		MinConfidence: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "min_confidence",
			Help:      "Learned minimum confidence threshold",
		}),
		PositionMultiplier: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "position_size_multiplier",
			Help:      "Learned position size multiplier",
		}),
		OpportunitiesScored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "opportunity",
			Name:      "scored_total",
			Help:      "Total number of opportunities scored by recommendation",
		}, []string{"recommendation"}),

		// Telemetry metrics
		TelemetryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "publish_errors_total",
			Help:      "Total number of failed telemetry publishes by sink",
		}, []string{"sink"}),

		// Health metrics
		LastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCycle records one completed cycle.
func (m *Metrics) RecordCycle(action domain.Signal, executed bool, d time.Duration, at time.Time) {
	label := string(action)
	if !executed {
		label = "HOLD"
	}
	m.CyclesTotal.WithLabelValues(label).Inc()
	m.CycleDuration.Observe(d.Seconds())
	m.LastCycle.Set(float64(at.Unix()))
}

// RecordExecution records one execution attempt.
func (m *Metrics) RecordExecution(success bool, d time.Duration) {
	result := "success"
	if !success {
		result = "failed"
	}
	m.TradesExecuted.WithLabelValues(result).Inc()
	m.ExecutionLatency.Observe(d.Seconds())
}

// UpdateBotState mirrors the controller session state.
func (m *Metrics) UpdateBotState(st domain.BotState) {
	m.DailyProfit.Set(st.DailyProfit)
	m.TradesToday.Set(float64(st.TradesToday))
	m.WinRateToday.Set(st.WinRateToday)
	m.AggressionLevel.Set(float64(st.AggressionLevel))
	m.GoalReached.Set(boolGauge(st.GoalReached))
}

// UpdateRisk mirrors the risk manager state.
func (m *Metrics) UpdateRisk(breakerActive bool, dailyLossPct float64) {
	m.CircuitBreakerActive.Set(boolGauge(breakerActive))
	m.DailyLossPct.Set(dailyLossPct)
}

// UpdateLearning mirrors the learned metrics and configuration.
func (m *Metrics) UpdateLearning(lm domain.LearningMetrics, cfg domain.AdaptiveConfig) {
	m.LearningWinRate.Set(lm.WinRate)
	m.LearningTrades.Set(float64(lm.TotalTrades))
	m.MinConfidence.Set(cfg.MinConfidence)
	m.PositionMultiplier.Set(cfg.PositionSizeMultiplier)
}

// RecordOpportunity counts one scored opportunity.
func (m *Metrics) RecordOpportunity(rec domain.Recommendation) {
	m.OpportunitiesScored.WithLabelValues(string(rec)).Inc()
}

// RecordTelemetryError counts a failed publish on sink.
func (m *Metrics) RecordTelemetryError(sink string) {
	m.TelemetryErrors.WithLabelValues(sink).Inc()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
