package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TradeOutcome // keyed by outcome id
	order []string                        // insertion order
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.TradeOutcome),
	}
}

// Insert appends an outcome. Returns ErrDuplicateKey if the id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.TradeOutcome) error {
	if o == nil || o.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *o
	s.data[o.ID] = &copy
	s.order = append(s.order, o.ID)
	return nil
}

// Latest returns up to limit most recent outcomes, ordered by timestamp ASC.
func (s *OutcomeStore) Latest(_ context.Context, limit int) ([]*domain.TradeOutcome, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	all := s.sorted(func(*domain.TradeOutcome) bool { return true })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// GetByTimeRange returns outcomes within [start, end], ordered by timestamp ASC.
func (s *OutcomeStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.TradeOutcome, error) {
	return s.sorted(func(o *domain.TradeOutcome) bool {
		return !o.Timestamp.Before(start) && !o.Timestamp.After(end)
	}), nil
}

func (s *OutcomeStore) sorted(keep func(*domain.TradeOutcome) bool) []*domain.TradeOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeOutcome
	for _, id := range s.order {
		o := s.data[id]
		if keep(o) {
			copy := *o
			result = append(result, &copy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

var _ storage.OutcomeStore = (*OutcomeStore)(nil)
