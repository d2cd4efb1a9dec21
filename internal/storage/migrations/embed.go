// Package migrations embeds and applies the SQL schema for the Postgres
// state store and the ClickHouse decision log.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
