package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore on the trade_outcomes table.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates an OutcomeStore backed by pool.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	id, ts, agent_id, strategy_id, signal, confidence,
	entry_price, exit_price, profit, profit_percent,
	execution_time_ms, volatility, volume, sentiment, mev_risk, success
`

// Insert archives an outcome. Returns ErrDuplicateKey if id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.TradeOutcome) error {
	if o == nil || o.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO trade_outcomes (` + outcomeColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16
	)`

	_, err := s.pool.Exec(ctx, query,
		o.ID, o.Timestamp.UTC(), o.AgentID, o.StrategyID, string(o.Signal), o.Confidence,
		o.EntryPrice, o.ExitPrice, o.Profit, o.ProfitPercent,
		o.ExecutionTime.Milliseconds(),
		o.Conditions.Volatility, o.Conditions.Volume, o.Conditions.Sentiment, o.Conditions.MEVRisk,
		o.Success,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade outcome: %w", err)
	}
	return nil
}

// Latest returns up to limit most recent outcomes, ordered by timestamp ASC.
func (s *OutcomeStore) Latest(ctx context.Context, limit int) ([]*domain.TradeOutcome, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT * FROM (
			SELECT ` + outcomeColumns + `
			FROM trade_outcomes
			ORDER BY ts DESC, id DESC
			LIMIT $1
		) recent
		ORDER BY ts ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest trade outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// GetByTimeRange returns outcomes within [start, end], ordered by timestamp ASC.
func (s *OutcomeStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TradeOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM trade_outcomes
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query trade outcomes by time range: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

func scanOutcomes(rows pgx.Rows) ([]*domain.TradeOutcome, error) {
	var result []*domain.TradeOutcome
	for rows.Next() {
		var (
			o      domain.TradeOutcome
			signal string
			execMs int64
		)
		err := rows.Scan(
			&o.ID, &o.Timestamp, &o.AgentID, &o.StrategyID, &signal, &o.Confidence,
			&o.EntryPrice, &o.ExitPrice, &o.Profit, &o.ProfitPercent,
			&execMs,
			&o.Conditions.Volatility, &o.Conditions.Volume, &o.Conditions.Sentiment, &o.Conditions.MEVRisk,
			&o.Success,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade outcome: %w", err)
		}
		o.Signal = domain.Signal(signal)
		o.ExecutionTime = time.Duration(execMs) * time.Millisecond
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade outcomes: %w", err)
	}
	return result, nil
}
