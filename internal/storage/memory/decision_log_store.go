package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// DecisionLogStore is an in-memory implementation of storage.DecisionLogStore.
type DecisionLogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DecisionSnapshot // keyed by cycle_id
}

// NewDecisionLogStore creates a new in-memory decision log.
func NewDecisionLogStore() *DecisionLogStore {
	return &DecisionLogStore{
		data: make(map[string]*domain.DecisionSnapshot),
	}
}

// Insert appends a snapshot. Returns ErrDuplicateKey if cycle_id exists.
func (s *DecisionLogStore) Insert(_ context.Context, snap *domain.DecisionSnapshot) error {
	if snap == nil || snap.CycleID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.CycleID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *snap
	s.data[snap.CycleID] = &copy
	return nil
}

// GetByTimeRange returns snapshots within [start, end], ordered by timestamp ASC.
func (s *DecisionLogStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.DecisionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DecisionSnapshot
	for _, snap := range s.data {
		if !snap.Timestamp.Before(start) && !snap.Timestamp.After(end) {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].CycleID < result[j].CycleID
	})
	return result, nil
}

var _ storage.DecisionLogStore = (*DecisionLogStore)(nil)
