package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"StockPulse/internal/catalog"
	"StockPulse/internal/series"
)

// Service answers summary and comparison requests on top of the series service.
type Service struct {
	series *series.Service
}

func NewService(s *series.Service) *Service {
	return &Service{series: s}
}

// Summary summarizes the stored bars of ticker. It never calls the provider.
func (s *Service) Summary(ctx context.Context, ticker string) (SummaryStats, error) {
	res, err := s.series.Stored(ctx, ticker)
	if err != nil {
		return SummaryStats{}, err
	}
	return Summarize(res.Bars), nil
}

// CompareTickers loads both histories concurrently and compares them.
func (s *Service) CompareTickers(ctx context.Context, ticker1, ticker2 string) (Comparison, error) {
	t1, t2 := catalog.Normalize(ticker1), catalog.Normalize(ticker2)
	for _, t := range []string{t1, t2} {
		if !s.series.Catalog().Contains(t) {
			return Comparison{}, fmt.Errorf("%w: %q", series.ErrUnknownSymbol, t)
		}
	}

	var r1, r2 *series.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r1, err = s.series.History(gctx, t1)
		return err
	})
	g.Go(func() error {
		var err error
		r2, err = s.series.History(gctx, t2)
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}
	return Compare(t1, r1.Bars, t2, r2.Bars), nil
}
