package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"solana-autotrader/internal/config"
	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/learning"
	"solana-autotrader/internal/storage"
	pgstore "solana-autotrader/internal/storage/postgres"
)

// ReplaySummary is printed by the replay command.
type ReplaySummary struct {
	Loaded   int                    `json:"loaded"`
	Replayed int                    `json:"replayed"`
	Skipped  int                    `json:"skipped"`
	Metrics  domain.LearningMetrics `json:"metrics"`
	Config   domain.AdaptiveConfig  `json:"config"`
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		limit    int
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay archived outcomes through a fresh learning engine",
		Long:  "Loads outcomes from the postgres archive and feeds them, oldest first, through an engine with default configuration. Prints the resulting metrics and adaptive configuration as JSON. Nothing is written back.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := a.cfg.Storage.PostgresDSN
			if dsn == "" {
				return fmt.Errorf("replay requires storage.postgres_dsn")
			}
			window, err := parseWindow(from, to)
			if err != nil {
				return err
			}

			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := pgstore.NewPool(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			sum, err := replayOutcomes(ctx, pgstore.NewOutcomeStore(pool), a.cfg.Learning, loc, limit, window)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 1000, "Most recent outcomes to load when no window is given")
	cmd.Flags().StringVar(&from, "from", "", "Window start (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "Window end (RFC3339), defaults to now")
	return cmd
}

type timeWindow struct {
	start, end time.Time
}

func parseWindow(from, to string) (*timeWindow, error) {
	if from == "" {
		if to != "" {
			return nil, fmt.Errorf("--to requires --from")
		}
		return nil, nil
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	end := time.Now()
	if to != "" {
		if end, err = time.Parse(time.RFC3339, to); err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("--to is before --from")
	}
	return &timeWindow{start: start, end: end}, nil
}

// replayOutcomes rebuilds learning state from archived outcomes, keeping
// hour statistics in loc. Outcomes the engine rejects are counted as skipped.
func replayOutcomes(ctx context.Context, archive storage.OutcomeStore, lc config.LearningConfig, loc *time.Location, limit int, window *timeWindow) (ReplaySummary, error) {
	var (
		outcomes []*domain.TradeOutcome
		err      error
	)
	if window != nil {
		outcomes, err = archive.GetByTimeRange(ctx, window.start, window.end)
	} else {
		outcomes, err = archive.Latest(ctx, limit)
	}
	if err != nil {
		return ReplaySummary{}, fmt.Errorf("load outcomes: %w", err)
	}

	engine := learning.NewEngine(learning.Options{
		Capacity:  lc.Capacity,
		ColdStart: lc.ColdStart,
		Location:  loc,
	})

	sum := ReplaySummary{Loaded: len(outcomes)}
	for _, o := range outcomes {
		if err := engine.RecordOutcome(ctx, *o); err != nil {
			log.Warn().Err(err).Str("outcome", o.ID).Msg("skipping outcome")
			sum.Skipped++
			continue
		}
		sum.Replayed++
	}
	sum.Metrics = engine.Metrics()
	sum.Config = engine.Config()
	return sum, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
