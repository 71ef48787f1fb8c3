// Package enricher turns raw provider bars into cleaned, indicator-bearing series.
package enricher

import (
	"fmt"
	"math"
	"sort"

	"github.com/guregu/null/v6"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

const (
	DefaultMAWindow         = 7
	DefaultVolatilityWindow = 30
)

// Enricher computes derived fields over an ordered daily series. It holds no
// state between calls.
type Enricher struct {
	maWindow  int
	volWindow int
}

// New creates an Enricher with the default 7-bar average and 30-bar volatility windows.
func New() *Enricher {
	return &Enricher{maWindow: DefaultMAWindow, volWindow: DefaultVolatilityWindow}
}

// NewWithWindows creates an Enricher with custom rolling windows.
func NewWithWindows(maWindow, volWindow int) (*Enricher, error) {
	if maWindow <= 0 || volWindow <= 0 {
		return nil, fmt.Errorf("rolling windows must be positive, got ma=%d vol=%d", maWindow, volWindow)
	}
	return &Enricher{maWindow: maWindow, volWindow: volWindow}, nil
}

// Enrich runs clean, daily return, moving average and volatility in order.
// The result has the same length and order as Clean(ticker, raw).
func (e *Enricher) Enrich(ticker string, raw []model.RawBar) ([]model.EnrichedBar, error) {
	bars := Clean(ticker, raw)
	if len(bars) == 0 {
		return nil, nil
	}

	returns := DailyReturns(bars)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	ma, err := calculator.RollingMean(closes, e.maWindow)
	if err != nil {
		return nil, fmt.Errorf("moving average: %w", err)
	}
	vol, err := Volatility(returns, e.volWindow)
	if err != nil {
		return nil, fmt.Errorf("volatility: %w", err)
	}

	out := make([]model.EnrichedBar, len(bars))
	for i, b := range bars {
		out[i] = model.EnrichedBar{
			Bar:          b,
			DailyReturn:  returns[i],
			MA7:          ma[i],
			Volatility30: vol[i],
		}
	}
	return out, nil
}

// Clean drops empty rows, forward-fills then back-fills missing fields,
// drops rows without a positive close, and sorts by date. When a date
// repeats the later row wins.
func Clean(ticker string, raw []model.RawBar) []model.Bar {
	rows := make([]model.RawBar, 0, len(raw))
	for _, r := range raw {
		if !r.Empty() {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	fields := []func(*model.RawBar) *null.Float{
		func(r *model.RawBar) *null.Float { return &r.Open },
		func(r *model.RawBar) *null.Float { return &r.High },
		func(r *model.RawBar) *null.Float { return &r.Low },
		func(r *model.RawBar) *null.Float { return &r.Close },
		func(r *model.RawBar) *null.Float { return &r.Volume },
	}
	for _, field := range fields {
		fill(rows, field)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		if !r.Close.Valid || r.Close.Float64 <= 0 || math.IsNaN(r.Close.Float64) {
			continue
		}
		b := model.Bar{
			Ticker: ticker,
			Date:   model.DateOf(r.Date),
			Open:   r.Open.ValueOrZero(),
			High:   r.High.ValueOrZero(),
			Low:    r.Low.ValueOrZero(),
			Close:  r.Close.Float64,
		}
		if r.Volume.Valid {
			b.Volume = null.IntFrom(int64(math.Round(r.Volume.Float64)))
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	deduped := bars[:0]
	for _, b := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(b.Date) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

// fill forward-fills one field across rows, then back-fills the leading gap.
func fill(rows []model.RawBar, field func(*model.RawBar) *null.Float) {
	var last null.Float
	firstValid := -1
	for i := range rows {
		v := field(&rows[i])
		if v.Valid && !math.IsNaN(v.Float64) {
			last = *v
			if firstValid < 0 {
				firstValid = i
			}
			continue
		}
		if last.Valid {
			*v = last
		}
	}
	if firstValid <= 0 {
		return
	}
	lead := *field(&rows[firstValid])
	for i := 0; i < firstValid; i++ {
		*field(&rows[i]) = lead
	}
}

// DailyReturns computes (close - open) / open per bar, 0 when open is 0.
func DailyReturns(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if b.Open == 0 {
			continue
		}
		r := (b.Close - b.Open) / b.Open
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out[i] = r
	}
	return out
}

// Volatility is the rolling sample deviation of returns annualized by √252.
func Volatility(returns []float64, window int) ([]float64, error) {
	std, err := calculator.RollingStd(returns, window)
	if err != nil {
		return nil, err
	}
	for i := range std {
		std[i] *= calculator.AnnualizationFactor
	}
	return std, nil
}
