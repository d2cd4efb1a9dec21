package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"solana-autotrader/internal/storage/migrations"
	pgstore "solana-autotrader/internal/storage/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded postgres and clickhouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pgDSN := a.cfg.Storage.PostgresDSN
			chDSN := a.cfg.Telemetry.ClickHouseDSN
			if pgDSN == "" && chDSN == "" {
				return fmt.Errorf("nothing to migrate: set storage.postgres_dsn or telemetry.clickhouse_dsn")
			}

			if pgDSN != "" {
				pool, err := pgstore.NewPool(ctx, pgDSN)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
					return err
				}
				log.Info().Msg("postgres migrations applied")
			}

			if chDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, chDSN)
				if err != nil {
					return err
				}
				conn.Close()
				log.Info().Msg("clickhouse migrations applied")
			}
			return nil
		},
	}
}
