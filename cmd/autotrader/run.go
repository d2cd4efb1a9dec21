package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(a *app) *cobra.Command {
	var (
		interval  time.Duration
		symbol    string
		dailyGoal float64
		capital   float64
		httpAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading controller",
		Long:  "Connects the market feed, execution and news collaborators and runs decision cycles until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("interval") {
				cfg.Agent.CycleInterval = interval
			}
			if flags.Changed("symbol") {
				cfg.Agent.Symbol = symbol
			}
			if flags.Changed("daily-goal") {
				cfg.Agent.DailyGoal = dailyGoal
			}
			if flags.Changed("capital") {
				cfg.Agent.Capital = capital
			}
			if flags.Changed("http-addr") {
				cfg.HTTP.Addr = httpAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			started := time.Now()
			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           newStatusMux(rt.ctrl, rt.risk, rt.engine, rt.metrics.Handler(), started, time.Now),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("HTTP server error")
				}
			}()

			log.Info().
				Str("symbol", cfg.Agent.Symbol).
				Dur("interval", cfg.Agent.CycleInterval).
				Float64("daily_goal", cfg.Agent.DailyGoal).
				Float64("capital", cfg.Agent.Capital).
				Msg("controller starting")

			err = rt.ctrl.Run(ctx, cfg.Agent.CycleInterval)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				log.Warn().Err(serr).Msg("HTTP shutdown")
			}

			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Cycle interval (overrides agent.cycle_interval)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Traded symbol (overrides agent.symbol)")
	cmd.Flags().Float64Var(&dailyGoal, "daily-goal", 0, "Internal daily profit goal")
	cmd.Flags().Float64Var(&capital, "capital", 0, "Capital available for sizing")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Health/metrics/status listen address")
	return cmd
}
