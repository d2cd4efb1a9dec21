package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("postgres files: %v", err)
	}
	if len(pg) != 2 || pg[0].name != "001_kv_store.sql" || pg[1].name != "002_trade_outcomes.sql" {
		t.Fatalf("unexpected postgres files: %+v", pg)
	}

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("clickhouse files: %v", err)
	}
	if len(ch) != 1 {
		t.Fatalf("expected 1 clickhouse file, got %d", len(ch))
	}
	for _, f := range ch {
		if err := validateNoSemicolonInStrings(f.body); err != nil {
			t.Errorf("%s: %v", f.name, err)
		}
		if stmts := splitStatements(f.body); len(stmts) != 1 {
			t.Errorf("%s: expected 1 statement, got %d", f.name, len(stmts))
		}
	}
}

func TestSplitStatements(t *testing.T) {
	input := `-- header
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y UInt8) ENGINE = Memory;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		sql     string
		wantErr bool
	}{
		{"SELECT 'a'; SELECT 'b';", false},
		{"SELECT 'it''s'; SELECT 1;", false},
		{"SELECT 'a;b';", true},
	}
	for _, tt := range tests {
		err := validateNoSemicolonInStrings(tt.sql)
		if (err != nil) != tt.wantErr {
			t.Errorf("validate(%q) err=%v, wantErr=%v", tt.sql, err, tt.wantErr)
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/telemetry")
	if err != nil || db != "telemetry" {
		t.Fatalf("got %q, %v", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for missing database")
	}
}
