package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
	"solana-autotrader/internal/storage/memory"
)

// failingKV rejects every call.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("kv down") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("kv down") }
func (failingKV) Delete(context.Context, string) error        { return errors.New("kv down") }

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func recordN(t *testing.T, e *Engine, n int, agent, strategy string, success bool, ts time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		profit := -1.0
		if success {
			profit = 2
		}
		o := outcomeAt(fmt.Sprintf("%s-%s-%d-%d", agent, strategy, ts.Unix(), i), agent, strategy, success, profit, ts)
		require.NoError(t, e.RecordOutcome(context.Background(), o))
	}
}

func TestEngine_RecordOutcomeUpdatesState(t *testing.T) {
	now := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	var updates int
	e := NewEngine(Options{
		Now:      fixedClock(now),
		OnUpdate: func(domain.LearningMetrics, domain.AdaptiveConfig) { updates++ },
	})

	recordN(t, e, 9, "a1", "s1", true, now)
	assert.Equal(t, 9, e.Metrics().TotalTrades)
	assert.Equal(t, domain.DefaultAdaptiveConfig().MinConfidence, e.Config().MinConfidence, "cold start keeps defaults")

	recordN(t, e, 1, "a1", "s1", true, now.Add(time.Minute))
	assert.Equal(t, 10, e.Metrics().TotalTrades)
	assert.InDelta(t, 0.63, e.Config().MinConfidence, 1e-9)
	assert.Equal(t, []string{"a1"}, e.Config().PreferredAgents)
	assert.Equal(t, 10, updates)
}

func TestEngine_RecordOutcomeRequiresID(t *testing.T) {
	e := NewEngine(Options{})
	err := e.RecordOutcome(context.Background(), domain.TradeOutcome{})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
	assert.Equal(t, 0, e.Metrics().TotalTrades)
}

func TestEngine_LedgerCapacity(t *testing.T) {
	e := NewEngine(Options{Capacity: 1000})
	ts := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 1200; i++ {
		o := outcomeAt(fmt.Sprintf("o%04d", i), "a", "s", i%2 == 0, 1, ts.Add(time.Duration(i)*time.Second))
		require.NoError(t, e.RecordOutcome(context.Background(), o))
	}

	outcomes := e.Outcomes()
	require.Len(t, outcomes, 1000)
	assert.Equal(t, "o0200", outcomes[0].ID)
	assert.Equal(t, "o1199", outcomes[999].ID)
	assert.Equal(t, 1000, e.Metrics().TotalTrades)
}

func TestEngine_ShouldTakeTradeStacking(t *testing.T) {
	learnedHour := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)
	e := NewEngine(Options{Now: fixedClock(now)})

	recordN(t, e, 10, "a1", "s1", true, learnedHour)
	require.Equal(t, 10, e.Metrics().BestHour)
	require.InDelta(t, 0.63, e.Config().MinConfidence, 1e-9)

	tests := []struct {
		name       string
		agent      string
		strategy   string
		confidence float64
		want       bool
	}{
		{"below base threshold", "a1", "s1", 0.60, false},
		{"preferred but off best hour", "a1", "s1", 0.66, false},
		{"preferred clears hour penalty", "a1", "s1", 0.69, true},
		{"unknown agent needs both penalties", "a2", "s1", 0.77, false},
		{"unknown agent clears both", "a2", "s1", 0.79, true},
		{"unknown strategy", "a1", "s9", 0.77, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ShouldTakeTrade(tt.agent, tt.strategy, tt.confidence, domain.MarketConditions{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_BestHourUsesConfiguredLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	e := NewEngine(Options{Now: fixedClock(now), Location: zone})

	// Timestamps come back from the archive in UTC.
	recordN(t, e, 10, "a1", "s1", true, now)
	require.Equal(t, 17, e.Metrics().BestHour)
	require.Equal(t, []int{17}, e.Config().PreferredHours)

	assert.True(t, e.ShouldTakeTrade("a1", "s1", 0.64, domain.MarketConditions{}), "no off-hour penalty during the best hour")

	later := NewEngine(Options{Now: fixedClock(now.Add(time.Hour)), Location: zone})
	recordN(t, later, 10, "a1", "s1", true, now)
	assert.False(t, later.ShouldTakeTrade("a1", "s1", 0.64, domain.MarketConditions{}))
}

func TestEngine_ShouldTakeTradeWithoutHistory(t *testing.T) {
	e := NewEngine(Options{})
	assert.True(t, e.ShouldTakeTrade("any", "any", 0.65, domain.MarketConditions{}))
	assert.False(t, e.ShouldTakeTrade("any", "any", 0.64, domain.MarketConditions{}))
}

func TestEngine_PersistenceFailureKeepsState(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	e := NewEngine(Options{Store: failingKV{}, Now: fixedClock(now)})

	recordN(t, e, 12, "a1", "s1", true, now)

	assert.Equal(t, 12, e.Metrics().TotalTrades)
	assert.Len(t, e.Outcomes(), 12)
	assert.Less(t, e.Config().MinConfidence, 0.65)

	// Load against a failing store keeps what is in memory.
	e.Load(context.Background())
	assert.Equal(t, 12, e.Metrics().TotalTrades)
}

func TestEngine_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	archive := memory.NewOutcomeStore()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	first := NewEngine(Options{Store: kv, Archive: archive, Now: fixedClock(now)})
	recordN(t, first, 12, "a1", "s1", true, now)

	raw, err := kv.Get(ctx, storage.KeyAdaptiveConfig)
	require.NoError(t, err)
	var persisted domain.AdaptiveConfig
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, first.Config(), persisted)

	second := NewEngine(Options{Store: kv, Archive: archive, Now: fixedClock(now)})
	second.Load(ctx)

	assert.Equal(t, first.Config(), second.Config())
	assert.Len(t, second.Outcomes(), 12)
	assert.Equal(t, first.Metrics().WinRate, second.Metrics().WinRate)
	assert.Equal(t, first.Metrics().TotalTrades, second.Metrics().TotalTrades)
}

func TestEngine_LoadMetricsBlobWithoutArchive(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()

	m := domain.EmptyLearningMetrics()
	m.TotalTrades = 99
	m.BestHour = 7
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.KeyLearningMetrics, raw))
	require.NoError(t, kv.Set(ctx, storage.KeyAdaptiveConfig, []byte(`{"min_confidence":0.99,"position_size_multiplier":0.1}`)))

	e := NewEngine(Options{Store: kv})
	e.Load(ctx)

	assert.Equal(t, 99, e.Metrics().TotalTrades)
	assert.Equal(t, 7, e.Metrics().BestHour)
	// Out-of-range persisted values are clamped.
	assert.InDelta(t, domain.MinConfidenceCap, e.Config().MinConfidence, 1e-9)
	assert.InDelta(t, domain.PositionMultiplierFloor, e.Config().PositionSizeMultiplier, 1e-9)
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	e := NewEngine(Options{Store: kv, Now: fixedClock(now)})

	recordN(t, e, 10, "a1", "s1", false, now)
	e.Reset(ctx)

	assert.Empty(t, e.Outcomes())
	assert.Equal(t, 0, e.Metrics().TotalTrades)
	assert.Equal(t, domain.DefaultAdaptiveConfig(), e.Config())

	_, err := kv.Get(ctx, storage.KeyAdaptiveConfig)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	e := NewEngine(Options{})
	ts := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				m := e.Metrics()
				sum := 0
				for _, s := range m.AgentStats {
					sum += s.Trades
				}
				if sum != m.TotalTrades {
					t.Errorf("torn snapshot: agent trades %d, total %d", sum, m.TotalTrades)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		o := outcomeAt(fmt.Sprintf("o%d", i), fmt.Sprintf("a%d", i%3), "s", i%2 == 0, 1, ts)
		require.NoError(t, e.RecordOutcome(context.Background(), o))
	}
	close(stop)
	wg.Wait()
}

func TestEngine_SnapshotPairsMetricsWithConfig(t *testing.T) {
	e := NewEngine(Options{})
	ts := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			m, cfg := e.Snapshot()
			adapted := len(cfg.PreferredAgents) > 0
			if adapted != (m.TotalTrades >= DefaultColdStart) {
				t.Errorf("config adapted=%v paired with %d trades", adapted, m.TotalTrades)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		o := outcomeAt(fmt.Sprintf("o%d", i), "a1", "s1", i%2 == 0, 1, ts)
		require.NoError(t, e.RecordOutcome(context.Background(), o))
	}
	close(stop)
	wg.Wait()
}
