package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"StockPulse/internal/catalog"
	"StockPulse/internal/model"
)

// ErrFetchFailure marks a fetch that produced no usable bars. Callers treat it
// as a recoverable "no data" signal.
var ErrFetchFailure = errors.New("fetch failure")

// MockFetcher serves canned bars keyed by provider id, for development and testing.
// Ids without canned bars get generated data around Price, unless Price is 0.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.RawBar
	Errs  map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, providerID string, window model.Window) ([]model.RawBar, error) {
	m.mu.Lock()
	m.calls = append(m.calls, providerID)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[providerID]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[providerID]; ok {
		out := make([]model.RawBar, len(bars))
		copy(out, bars)
		return out, nil
	}
	if m.Price == 0 {
		return nil, nil
	}
	days := window.Days
	if window.IsPeriod() {
		days = 252
	}
	return GenerateMockBars(m.Price, days, time.Now()), nil
}

// Calls returns the provider ids requested so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// GenerateMockBars returns count consecutive daily bars ending the day before end.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.RawBar {
	bars := make([]model.RawBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.RawBar{
			Date:   model.DateOf(end.AddDate(0, 0, -(count - i))),
			Open:   null.FloatFrom(p * 0.999),
			High:   null.FloatFrom(p * 1.005),
			Low:    null.FloatFrom(p * 0.995),
			Close:  null.FloatFrom(p),
			Volume: null.FloatFrom(1000000),
		}
	}
	return bars
}

// Collector resolves tickers through the catalog and fetches their daily bars.
// When a region-scoped id yields nothing it retries once with the plain ticker.
type Collector struct {
	Fetcher Fetcher
	Catalog *catalog.Catalog
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, cat *catalog.Catalog) *Collector {
	return &Collector{Fetcher: fetcher, Catalog: cat}
}

// Fetch returns raw bars for ticker over window, ordered by date with the time
// of day dropped. Every failure wraps ErrFetchFailure.
func (c *Collector) Fetch(ctx context.Context, ticker string, window model.Window) ([]model.RawBar, error) {
	id := c.Catalog.Resolve(ticker)
	bars, err := c.Fetcher.FetchDailyBars(ctx, id, window)

	if len(bars) == 0 && ctx.Err() == nil {
		if _, ok := catalog.RegionSuffix(id); ok {
			retry, _ := catalog.RegionSuffix(ticker)
			log.Printf("[WARN] %s returned no bars for %s (%v), retrying as %s", c.Fetcher.Name(), id, err, retry)
			bars, err = c.Fetcher.FetchDailyBars(ctx, retry, window)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %w", ErrFetchFailure, ticker, window, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s (%s): %w", ErrFetchFailure, ticker, window, ErrNoBars)
	}

	for i := range bars {
		bars[i].Date = model.DateOf(bars[i].Date)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	log.Printf("[INFO] fetched %d bars for %s from %s (%s)", len(bars), ticker, c.Fetcher.Name(), window)
	return bars, nil
}
