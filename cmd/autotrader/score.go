package main

import (
	"time"

	"github.com/spf13/cobra"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/idhash"
	"solana-autotrader/internal/opportunity"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		opp     domain.Opportunity
		poolAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an opportunity offline",
		Long:  "Scores the opportunity described by flags against the learning state in the configured backend (cold metrics for the memory backend) and prints the score as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStores(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			defer st.close()

			engine, _ := loadCore(ctx, a.cfg, st, loc, nil)
			now := time.Now()
			return writeJSON(cmd.OutOrStdout(), scoreOpportunity(engine, opp, poolAge, now, loc))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opp.Mint, "mint", "", "Token mint address")
	f.StringVar(&opp.Symbol, "symbol", "", "Token symbol")
	f.Float64Var(&opp.LiquidityUSD, "liquidity", 0, "Pool liquidity in USD")
	f.Float64Var(&opp.MEVRisk, "mev-risk", 0.5, "MEV risk (0-1)")
	f.DurationVar(&poolAge, "pool-age", 0, "Pool age; zero means unknown")
	f.Float64Var(&opp.VolumeSpike, "volume-spike", 0, "Volume as a multiple of baseline")
	f.Float64Var(&opp.Sentiment, "sentiment", 0, "Sentiment (0-1), zero means unknown")
	f.Float64Var(&opp.Momentum, "momentum", 0, "Short-window price change in percent")
	f.IntVar(&opp.HolderCount, "holders", 0, "Holder count, zero means unknown")
	f.BoolVar(&opp.HasMetadata, "metadata", false, "Token metadata is available")
	f.Float64Var(&opp.Price, "price", 0, "Current price")
	return cmd
}

// scoreOpportunity fills derived fields and scores opp at now, reading
// the learned best hour in loc.
func scoreOpportunity(src opportunity.MetricsSource, opp domain.Opportunity, poolAge time.Duration, now time.Time, loc *time.Location) domain.OpportunityScore {
	if poolAge > 0 {
		opp.PoolCreated = now.Add(-poolAge)
	}
	opp.ObservedAt = now
	if opp.ID == "" && opp.Mint != "" {
		opp.ID = idhash.ComputeOpportunityID(opp.Mint, opp.PoolCreated)
	}
	return opportunity.NewScorer(src, func() time.Time { return now }, loc).Score(opp)
}
