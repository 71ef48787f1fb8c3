// Package series decides whether stored bars can serve a request and refreshes
// them from the remote provider when they cannot.
package series

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StockPulse/internal/catalog"
	"StockPulse/internal/collector"
	"StockPulse/internal/model"
	"StockPulse/internal/store"
)

var (
	// ErrUnknownSymbol is returned for tickers outside the catalog.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrNoData is returned when neither storage nor the provider has bars.
	ErrNoData = errors.New("no data available")
)

// Source tells where a Result's bars came from.
type Source int

const (
	SourceCache Source = iota
	SourceFresh
)

func (s Source) String() string {
	if s == SourceFresh {
		return "fresh"
	}
	return "cache"
}

// Result is a served series. A fresh series whose merge failed still carries
// its bars, with the failure in PersistErr.
type Result struct {
	Ticker     string
	Bars       []model.EnrichedBar
	Source     Source
	Inserted   int
	PersistErr error
}

// Persisted reports whether the bars are known to be in storage.
func (r *Result) Persisted() bool {
	return r.Source == SourceCache || r.PersistErr == nil
}

// Fetcher supplies raw bars for a ticker; *collector.Collector implements it.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, window model.Window) ([]model.RawBar, error)
}

// Enricher turns raw bars into an enriched series; *enricher.Enricher implements it.
type Enricher interface {
	Enrich(ticker string, raw []model.RawBar) ([]model.EnrichedBar, error)
}

// Options tune the service; zero fields take defaults.
type Options struct {
	// RefreshPeriod is the provider window fetched on a miss.
	RefreshPeriod string
	// CompareMinRows is how many stored rows History needs before it skips the provider.
	CompareMinRows int
	// Now is the clock used for the request cutoff.
	Now func() time.Time
}

// Service serves enriched series, reading through the store.
type Service struct {
	catalog  *catalog.Catalog
	fetcher  Fetcher
	enricher Enricher
	store    store.Store
	opts     Options
}

// NewService wires the pipeline together.
func NewService(cat *catalog.Catalog, f Fetcher, e Enricher, st store.Store, opts Options) *Service {
	if opts.RefreshPeriod == "" {
		opts.RefreshPeriod = "1y"
	}
	if opts.CompareMinRows <= 0 {
		opts.CompareMinRows = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{catalog: cat, fetcher: f, enricher: e, store: st, opts: opts}
}

// Catalog exposes the service's ticker registry.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

func (s *Service) resolve(ticker string) (string, error) {
	t := catalog.Normalize(ticker)
	if !s.catalog.Contains(t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, ticker)
	}
	return t, nil
}

// Get returns up to days bars for ticker, ascending.
//
// Stored rows are served when at least days of them fall within the last
// days calendar days. Only the count is checked, not recency, so an old
// but large enough history keeps being served.
func (s *Service) Get(ctx context.Context, ticker string, days int) (*Result, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	t, err := s.resolve(ticker)
	if err != nil {
		return nil, err
	}

	cutoff := model.DateOf(s.opts.Now()).AddDate(0, 0, -days)
	stored, err := s.store.Read(ctx, t, cutoff)
	if err != nil {
		return nil, fmt.Errorf("read stored %s: %w", t, err)
	}
	if len(stored) >= days {
		// The read is inclusive of the cutoff, so the window spans days+1 dates.
		return &Result{Ticker: t, Bars: stored[len(stored)-days:], Source: SourceCache}, nil
	}

	log.Printf("[INFO] fetching fresh data for %s (stored %d, want %d)", t, len(stored), days)
	enriched, err := s.refresh(ctx, t)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(stored))
	for _, b := range stored {
		existing[model.DateKey(b.Date)] = struct{}{}
	}
	fresh := make([]model.EnrichedBar, 0, len(enriched))
	for _, b := range enriched {
		if _, ok := existing[model.DateKey(b.Date)]; !ok {
			fresh = append(fresh, b)
		}
	}

	served := enriched
	if len(served) > days {
		served = served[len(served)-days:]
	}
	res := &Result{Ticker: t, Bars: served, Source: SourceFresh}
	res.Inserted, res.PersistErr = s.persist(ctx, t, fresh)
	return res, nil
}

// Stored returns every persisted bar for ticker without touching the provider.
func (s *Service) Stored(ctx context.Context, ticker string) (*Result, error) {
	t, err := s.resolve(ticker)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Read(ctx, t, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("read stored %s: %w", t, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, t)
	}
	return &Result{Ticker: t, Bars: stored, Source: SourceCache}, nil
}

// History returns the full stored history when it holds at least
// CompareMinRows bars, otherwise a freshly fetched refresh period.
func (s *Service) History(ctx context.Context, ticker string) (*Result, error) {
	t, err := s.resolve(ticker)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Read(ctx, t, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("read stored %s: %w", t, err)
	}
	if len(stored) >= s.opts.CompareMinRows {
		log.Printf("[INFO] using stored data for %s (%d rows)", t, len(stored))
		return &Result{Ticker: t, Bars: stored, Source: SourceCache}, nil
	}

	log.Printf("[INFO] fetching fresh history for %s (stored %d)", t, len(stored))
	enriched, err := s.refresh(ctx, t)
	if err != nil {
		return nil, err
	}
	res := &Result{Ticker: t, Bars: enriched, Source: SourceFresh}
	res.Inserted, res.PersistErr = s.persist(ctx, t, enriched)
	return res, nil
}

func (s *Service) refresh(ctx context.Context, ticker string) ([]model.EnrichedBar, error) {
	raw, err := s.fetcher.Fetch(ctx, ticker, model.Period(s.opts.RefreshPeriod))
	if err != nil {
		if errors.Is(err, collector.ErrFetchFailure) {
			log.Printf("[WARN] %v", err)
			return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	enriched, err := s.enricher.Enrich(ticker, raw)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", ticker, err)
	}
	if len(enriched) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return enriched, nil
}

// persist merges bars and logs, rather than returns, a storage failure.
func (s *Service) persist(ctx context.Context, ticker string, bars []model.EnrichedBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	n, err := s.store.Merge(ctx, ticker, bars)
	if err != nil {
		log.Printf("[ERROR] save %d bars for %s: %v", len(bars), ticker, err)
		return 0, err
	}
	if n < len(bars) {
		log.Printf("[WARN] %d duplicate bars for %s skipped", len(bars)-n, ticker)
	}
	log.Printf("[INFO] saved %d new bars for %s", n, ticker)
	return n, nil
}
