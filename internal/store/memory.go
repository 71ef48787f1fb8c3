package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/model"
)

// MemoryStore keeps bars in process memory. It is used in tests and as the
// fallback when the configured database cannot be opened.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]map[string]model.EnrichedBar
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[string]model.EnrichedBar)}
}

func (m *MemoryStore) Read(_ context.Context, ticker string, since time.Time) ([]model.EnrichedBar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.EnrichedBar
	for _, b := range m.rows[ticker] {
		if !since.IsZero() && b.Date.Before(model.DateOf(since)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryStore) Merge(_ context.Context, ticker string, bars []model.EnrichedBar) (int, error) {
	// Reject the whole batch up front, matching the SQL backends' CHECK rollback.
	for _, b := range bars {
		if !(b.Close > 0) {
			return 0, fmt.Errorf("insert %s %s: close must be positive, got %v", ticker, model.DateKey(b.Date), b.Close)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byDate := m.rows[ticker]
	if byDate == nil {
		byDate = make(map[string]model.EnrichedBar)
		m.rows[ticker] = byDate
	}
	inserted := 0
	for _, b := range bars {
		key := model.DateKey(b.Date)
		if _, ok := byDate[key]; ok {
			continue
		}
		b.Ticker = ticker
		b.Date = model.DateOf(b.Date)
		byDate[key] = b
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) Close() error { return nil }
