package migrations

import (
	"context"
	"fmt"

	"solana-autotrader/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded Postgres files in lexical order.
// Every file is idempotent, so reapplying on each start is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("read embedded postgres migrations: %w", err)
	}

	for _, f := range files {
		if f.body == "" {
			continue
		}
		if _, err := pool.Exec(ctx, f.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
