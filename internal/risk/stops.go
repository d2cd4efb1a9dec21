package risk

import (
	"context"

	"solana-autotrader/internal/domain"
)

// SetStopLoss registers a fixed stop 2% against and a target 5% in favour
// of side from entry, replacing any entry for symbol. Non-positive entry
// prices are ignored.
func (m *Manager) SetStopLoss(ctx context.Context, symbol string, entry float64, side domain.Side) (domain.StopEntry, bool) {
	if symbol == "" || !finite(entry) || entry <= 0 {
		return domain.StopEntry{}, false
	}

	e := domain.StopEntry{EntryPrice: entry, Side: side}
	if side == domain.SideShort {
		e.StopPrice = entry * (1 + stopLossFraction)
		e.TargetPrice = entry * (1 - takeProfitFraction)
	} else {
		e.Side = domain.SideLong
		e.StopPrice = entry * (1 - stopLossFraction)
		e.TargetPrice = entry * (1 + takeProfitFraction)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stops[symbol] = e
	m.persist(ctx)
	return e, true
}

// CheckStopLoss compares price to the registered bounds for symbol. When a
// bound is crossed the entry is removed and the trigger returned;
// otherwise it returns nil.
func (m *Manager) CheckStopLoss(ctx context.Context, symbol string, price float64) *domain.StopTrigger {
	if !finite(price) || price <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.stops[symbol]
	if !ok {
		return nil
	}

	var kind domain.StopKind
	switch e.Side {
	case domain.SideShort:
		if price >= e.StopPrice {
			kind = domain.StopKindStopLoss
		} else if price <= e.TargetPrice {
			kind = domain.StopKindTakeProfit
		}
	default:
		if price <= e.StopPrice {
			kind = domain.StopKindStopLoss
		} else if price >= e.TargetPrice {
			kind = domain.StopKindTakeProfit
		}
	}
	if kind == "" {
		return nil
	}

	delete(m.stops, symbol)
	m.persist(ctx)
	m.log.Info().
		Str("symbol", symbol).
		Str("kind", string(kind)).
		Float64("price", price).
		Float64("entry", e.EntryPrice).
		Msg("stop triggered")
	return &domain.StopTrigger{Symbol: symbol, Kind: kind, Price: price, Entry: e}
}

// ClearStop drops the registered entry for symbol, if any.
func (m *Manager) ClearStop(ctx context.Context, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stops[symbol]; ok {
		delete(m.stops, symbol)
		m.persist(ctx)
	}
}
