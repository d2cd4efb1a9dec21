package main

import (
	"encoding/json"
	"net/http"
	"time"

	"solana-autotrader/internal/domain"
)

// statusSource is the read side of the running stack.
type statusSource interface {
	State() domain.BotState
}

type riskSource interface {
	State() domain.RiskState
}

type learningSource interface {
	Metrics() domain.LearningMetrics
	Config() domain.AdaptiveConfig
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status   string                `json:"status"`
	Uptime   string                `json:"uptime"`
	Started  time.Time             `json:"started"`
	Bot      domain.BotState       `json:"bot"`
	Risk     riskStatus            `json:"risk"`
	Learning learningStatus        `json:"learning"`
	Config   domain.AdaptiveConfig `json:"adaptive_config"`
}

type riskStatus struct {
	CircuitBreakerActive bool      `json:"circuit_breaker_active"`
	CircuitBreakerUntil  time.Time `json:"circuit_breaker_until,omitempty"`
	ConsecutiveLosses    int       `json:"consecutive_losses"`
	DailyLossPct         float64   `json:"daily_loss_pct"`
	OpenStops            int       `json:"open_stops"`
}

type learningStatus struct {
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalProfit   float64 `json:"total_profit"`
	BestStrategy  string  `json:"best_strategy,omitempty"`
	WorstStrategy string  `json:"worst_strategy,omitempty"`
	BestHour      int     `json:"best_hour"`
}

// newStatusMux serves /health, /metrics and /status.
func newStatusMux(bot statusSource, rs riskSource, ls learningSource, metrics http.Handler, started time.Time, now func() time.Time) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics)

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		st := bot.State()
		risk := rs.State()
		m := ls.Metrics()

		status := "stopped"
		if st.Running {
			status = "running"
		}
		resp := StatusResponse{
			Status:  status,
			Uptime:  now().Sub(started).Truncate(time.Second).String(),
			Started: started,
			Bot:     st,
			Risk: riskStatus{
				CircuitBreakerActive: risk.CircuitBreakerActive,
				CircuitBreakerUntil:  risk.CircuitBreakerUntil,
				ConsecutiveLosses:    risk.ConsecutiveLosses,
				DailyLossPct:         risk.DailyLossPct,
				OpenStops:            len(risk.Stops),
			},
			Learning: learningStatus{
				TotalTrades:   m.TotalTrades,
				WinRate:       m.WinRate,
				TotalProfit:   m.TotalProfit,
				BestStrategy:  m.BestStrategy,
				WorstStrategy: m.WorstStrategy,
				BestHour:      m.BestHour,
			},
			Config: ls.Config(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}
