package controller

import (
	"context"

	"solana-autotrader/internal/domain"
)

// MarketFeed supplies normalized market data.
type MarketFeed interface {
	// Snapshot returns the latest market snapshot. A cycle cannot proceed
	// without one.
	Snapshot(ctx context.Context) (domain.MarketSnapshot, error)

	// Opportunities returns the currently open opportunities.
	Opportunities(ctx context.Context) ([]domain.Opportunity, error)
}

// NewsSource supplies raw news articles.
type NewsSource interface {
	Articles(ctx context.Context) ([]domain.NewsArticle, error)
}

// Executor places trades. Retries and timeouts are its own concern.
type Executor interface {
	Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error)
}

// Agent produces raw trading decisions.
type Agent interface {
	ID() string
	Decide(ctx context.Context, dctx domain.DecisionContext) (domain.RawDecision, error)
}

// Sink receives one snapshot per cycle. It is write-only.
type Sink interface {
	Publish(ctx context.Context, s domain.DecisionSnapshot) error
}
