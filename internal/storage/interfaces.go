package storage

import (
	"context"
	"time"

	"solana-autotrader/internal/domain"
)

// Fixed keys under which engine state is persisted.
const (
	KeyAdaptiveConfig  = "adaptive_config"
	KeyLearningMetrics = "learning_metrics"
	KeyRiskState       = "risk_state"
)

// KVStore persists opaque state blobs under fixed keys.
// No schema versioning is applied: a blob format change requires a reset.
type KVStore interface {
	// Get returns the value stored under key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// OutcomeStore archives trade outcomes so the ledger can be rehydrated.
type OutcomeStore interface {
	// Insert appends an outcome. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, o *domain.TradeOutcome) error

	// Latest returns up to limit most recent outcomes, ordered by timestamp ASC.
	Latest(ctx context.Context, limit int) ([]*domain.TradeOutcome, error)

	// GetByTimeRange returns outcomes within [start, end], ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TradeOutcome, error)
}

// DecisionLogStore keeps an append-only log of decision snapshots.
type DecisionLogStore interface {
	// Insert appends a snapshot. Returns ErrDuplicateKey if cycle_id exists.
	Insert(ctx context.Context, s *domain.DecisionSnapshot) error

	// GetByTimeRange returns snapshots within [start, end], ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.DecisionSnapshot, error)
}
