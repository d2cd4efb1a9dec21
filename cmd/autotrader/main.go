// Command autotrader runs the adaptive Solana trading agent and its
// maintenance tasks.
//
// Usage:
//
//	autotrader run --config autotrader.yaml
//	autotrader migrate --config autotrader.yaml
//	autotrader replay --limit 500
//	autotrader score --liquidity 80000 --mev-risk 0.2 --pool-age 3m
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"solana-autotrader/internal/config"
	"solana-autotrader/internal/logging"
)

const version = "v0.4.0"

// app carries state shared by subcommands after the root pre-run.
type app struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("autotrader failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "autotrader",
		Short:         "Adaptive Solana trading agent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			if cmd.Flags().Changed("pretty") {
				cfg.Log.Pretty = a.pretty
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("AUTOTRADER_CONFIG"), "Path to YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "Human readable console logs")

	root.AddCommand(
		newRunCmd(a),
		newMigrateCmd(a),
		newReplayCmd(a),
		newScoreCmd(a),
	)
	return root
}
