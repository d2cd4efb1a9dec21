package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// DecisionLogStore implements storage.DecisionLogStore on decision_snapshots.
// Flat columns serve ad-hoc queries; the payload column holds the full
// snapshot and is what reads decode.
type DecisionLogStore struct {
	conn *Conn
}

// NewDecisionLogStore creates a DecisionLogStore backed by conn.
func NewDecisionLogStore(conn *Conn) *DecisionLogStore {
	return &DecisionLogStore{conn: conn}
}

var _ storage.DecisionLogStore = (*DecisionLogStore)(nil)

// Insert appends a snapshot. Returns ErrDuplicateKey if cycle_id exists.
func (s *DecisionLogStore) Insert(ctx context.Context, snap *domain.DecisionSnapshot) error {
	if snap == nil || snap.CycleID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would silently collapse duplicates.
	exists, err := s.exists(ctx, snap.CycleID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal decision snapshot: %w", err)
	}

	query := `
		INSERT INTO decision_snapshots (
			cycle_id, ts, symbol, strategy, agent,
			action, executed, amount, expected_profit, urgency, risk_level, confidence,
			execution_error, daily_profit, aggression,
			breaker_active, daily_loss_pct, win_rate, total_trades,
			payload
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?
		)
	`

	d := snap.Decision
	err = s.conn.Exec(ctx, query,
		snap.CycleID, snap.Timestamp.UTC(), snap.Symbol, snap.Strategy, snap.Agent,
		string(d.Action), boolToUInt8(snap.Executed), d.Amount, d.ExpectedProfit,
		string(d.Urgency), string(d.RiskLevel), d.Optimized.Confidence,
		snap.ExecutionError, snap.Bot.DailyProfit, int32(snap.Bot.AggressionLevel),
		boolToUInt8(snap.BreakerActive), snap.DailyLossPct, snap.WinRate, int32(snap.TotalTrades),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert decision snapshot: %w", err)
	}
	return nil
}

// GetByTimeRange returns snapshots within [start, end], ordered by timestamp ASC.
func (s *DecisionLogStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.DecisionSnapshot, error) {
	query := `
		SELECT payload
		FROM decision_snapshots FINAL
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC, cycle_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	var result []*domain.DecisionSnapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan decision snapshot: %w", err)
		}
		var snap domain.DecisionSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("decode decision snapshot: %w", err)
		}
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision snapshots: %w", err)
	}
	return result, nil
}

func (s *DecisionLogStore) exists(ctx context.Context, cycleID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM decision_snapshots WHERE cycle_id = ?`, cycleID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
