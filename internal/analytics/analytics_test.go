package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/catalog"
	"StockPulse/internal/collector"
	"StockPulse/internal/enricher"
	"StockPulse/internal/model"
	"StockPulse/internal/series"
	"StockPulse/internal/store"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func closesSeries(closes ...float64) []model.EnrichedBar {
	out := make([]model.EnrichedBar, len(closes))
	for i, c := range closes {
		out[i] = model.EnrichedBar{Bar: model.Bar{
			Date:  day0.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}}
	}
	return out
}

func TestSummarize(t *testing.T) {
	bars := closesSeries(10, 12, 11, 15)
	s := Summarize(bars)
	assert.Equal(t, 16.0, s.High52w)
	assert.Equal(t, 9.0, s.Low52w)
	assert.Equal(t, 12.0, s.AvgClose)
	assert.Equal(t, 15.0, s.CurrentClose)
	assert.Equal(t, 4, s.TotalRecords)
	assert.Equal(t, DateRange{Start: "2025-01-01", End: "2025-01-04"}, s.DateRange)

	assert.Equal(t, SummaryStats{}, Summarize(nil))
}

func TestPerformance(t *testing.T) {
	bars := closesSeries(100, 110, 99, 120)
	bars[1].DailyReturn = 0.02
	bars[2].DailyReturn = -0.01
	bars[3].DailyReturn = 0.03

	p := Performance(bars)
	assert.Equal(t, 20.0, p.TotalReturnPct)
	assert.Equal(t, 0.01, p.AvgDailyReturn)
	assert.Equal(t, 0.0183, p.Volatility)
	assert.Equal(t, 120.0, p.MaxPrice)
	assert.Equal(t, 99.0, p.MinPrice)
	assert.Equal(t, 107.25, p.AvgPrice)
}

func TestPerformance_Degenerate(t *testing.T) {
	assert.Equal(t, PerformanceMetrics{}, Performance(nil))

	single := Performance(closesSeries(50))
	assert.Equal(t, 0.0, single.TotalReturnPct)
	assert.Equal(t, 0.0, single.Volatility)
}

func TestCorrelate(t *testing.T) {
	up := closesSeries(1, 2, 3, 4, 5, 6)
	down := closesSeries(6, 5, 4, 3, 2, 1)

	assert.InDelta(t, 1.0, Correlate(up, up), 1e-9)
	assert.LessOrEqual(t, Correlate(up, down), -0.99)

	r := Correlate(up, closesSeries(3, 1, 4, 1, 5, 9))
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
}

func TestCorrelate_Degenerate(t *testing.T) {
	a := closesSeries(1, 2, 3)
	shifted := closesSeries(1, 2, 3)
	for i := range shifted {
		shifted[i].Date = shifted[i].Date.AddDate(0, 0, 2)
	}
	// Only one shared date.
	assert.Equal(t, 0.0, Correlate(a, shifted))
	// Constant side has undefined correlation.
	assert.Equal(t, 0.0, Correlate(a, closesSeries(5, 5, 5)))
	// Non-finite closes are dropped, leaving two aligned pairs.
	assert.InDelta(t, 1.0, Correlate(a, closesSeries(1, math.NaN(), 3)), 1e-9)
	assert.Equal(t, 0.0, Correlate(nil, nil))
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{0.95, "Strong positive"},
		{0.7, "Moderate positive"},
		{0.45, "Moderate positive"},
		{0.3, "Weak"},
		{0.0, "Weak"},
		{-0.29, "Weak"},
		{-0.3, "Negative"},
		{-0.9, "Negative"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.r), "r=%v", tt.r)
	}
}

func TestCompare(t *testing.T) {
	tcs := closesSeries(100, 105, 110)
	infy := closesSeries(50, 51, 52)
	c := Compare("TCS", tcs, "INFY", infy)

	assert.Equal(t, "TCS", c.Insights.BetterPerformer)
	assert.Equal(t, 6.0, c.Insights.ReturnDifference)
	assert.Equal(t, "Strong positive", c.Insights.CorrelationInterpretation)
	assert.Equal(t, 1.0, c.Correlation)
	assert.Equal(t, 10.0, c.Symbol1Metrics.TotalReturnPct)
	assert.Equal(t, 111.0, c.Symbol1Metrics.High52w)
	assert.Equal(t, 49.0, c.Symbol2Metrics.Low52w)
	assert.Equal(t, 51.0, c.Symbol2Metrics.AvgClose)

	swapped := Compare("INFY", infy, "TCS", tcs)
	assert.Equal(t, "TCS", swapped.Insights.BetterPerformer)
}

func TestCompare_TieFavorsFirst(t *testing.T) {
	a := closesSeries(10, 11)
	b := closesSeries(20, 22)
	assert.Equal(t, "A", Compare("A", a, "B", b).Insights.BetterPerformer)
	assert.Equal(t, "B", Compare("B", b, "A", a).Insights.BetterPerformer)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, Round(1.235, 2))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 0.1235, Round(0.12345, 4))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mock := &collector.MockFetcher{Bars: map[string][]model.RawBar{
		"TCS.NS":  collector.GenerateMockBars(3500, 120, now),
		"INFY.NS": collector.GenerateMockBars(1500, 120, now),
	}}
	cat := catalog.Default()
	st := store.NewMemoryStore()
	svc := NewService(series.NewService(cat, collector.NewCollector(mock, cat), enricher.New(), st, series.Options{}))

	_, err := svc.Summary(ctx, "TCS")
	assert.ErrorIs(t, err, series.ErrNoData, "summary never fetches")

	c, err := svc.CompareTickers(ctx, "tcs", "INFY")
	require.NoError(t, err)
	assert.Equal(t, "TCS", c.Symbol1)
	assert.Equal(t, "INFY", c.Symbol2)
	assert.InDelta(t, 1.0, c.Correlation, 1e-9)

	// Compare persisted both histories, so summary now has data.
	s, err := svc.Summary(ctx, "TCS")
	require.NoError(t, err)
	assert.Equal(t, 120, s.TotalRecords)

	_, err = svc.CompareTickers(ctx, "TCS", "NOPE")
	assert.ErrorIs(t, err, series.ErrUnknownSymbol)
}
