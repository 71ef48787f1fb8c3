// Package analytics derives summary, performance and comparison figures from
// enriched series.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SummaryStats describes one series. The 52-week extrema cover the trailing
// 252 bars, not a calendar year.
type SummaryStats struct {
	High52w      float64   `json:"high_52w"`
	Low52w       float64   `json:"low_52w"`
	AvgClose     float64   `json:"avg_close"`
	CurrentClose float64   `json:"current_close"`
	TotalRecords int       `json:"total_records"`
	DateRange    DateRange `json:"date_range"`
}

type PerformanceMetrics struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	AvgDailyReturn float64 `json:"avg_daily_return"`
	Volatility     float64 `json:"volatility"`
	MaxPrice       float64 `json:"max_price"`
	MinPrice       float64 `json:"min_price"`
	AvgPrice       float64 `json:"avg_price"`
}

// TickerMetrics is one side of a Comparison.
type TickerMetrics struct {
	PerformanceMetrics
	High52w  float64 `json:"high_52w"`
	Low52w   float64 `json:"low_52w"`
	AvgClose float64 `json:"avg_close"`
}

type Insights struct {
	BetterPerformer           string  `json:"better_performer"`
	ReturnDifference          float64 `json:"return_difference"`
	CorrelationInterpretation string  `json:"correlation_interpretation"`
}

type Comparison struct {
	Symbol1        string        `json:"symbol1"`
	Symbol2        string        `json:"symbol2"`
	Correlation    float64       `json:"correlation"`
	Symbol1Metrics TickerMetrics `json:"symbol1_metrics"`
	Symbol2Metrics TickerMetrics `json:"symbol2_metrics"`
	Insights       Insights      `json:"insights"`
}

// Round rounds half away from zero to places decimals.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Summarize returns the summary of bars; an empty series gives the zero value.
func Summarize(bars []model.EnrichedBar) SummaryStats {
	if len(bars) == 0 {
		return SummaryStats{}
	}
	high, low, _ := calculator.Calculate52WeekRange(bars)
	return SummaryStats{
		High52w:      high,
		Low52w:       low,
		AvgClose:     calculator.Mean(model.Closes(bars)),
		CurrentClose: bars[len(bars)-1].Close,
		TotalRecords: len(bars),
		DateRange: DateRange{
			Start: model.DateKey(bars[0].Date),
			End:   model.DateKey(bars[len(bars)-1].Date),
		},
	}
}

// Performance computes return and risk figures over the whole series.
func Performance(bars []model.EnrichedBar) PerformanceMetrics {
	if len(bars) == 0 {
		return PerformanceMetrics{}
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	totalReturn := 0.0
	if first > 0 {
		totalReturn = (last - first) / first * 100
	}
	closes := model.Closes(bars)
	returns := model.DailyReturns(bars)
	maxPrice, minPrice := calculator.MaxMin(closes)

	return PerformanceMetrics{
		TotalReturnPct: Round(totalReturn, 2),
		AvgDailyReturn: Round(calculator.Mean(returns), 4),
		Volatility:     Round(calculator.SampleStd(returns), 4),
		MaxPrice:       maxPrice,
		MinPrice:       minPrice,
		AvgPrice:       calculator.Mean(closes),
	}
}

// Correlate returns the Pearson correlation of closes on the dates both series
// share. It is 0 with fewer than two shared dates or when undefined, and is
// clamped to [-1, 1].
func Correlate(a, b []model.EnrichedBar) float64 {
	closesA := make(map[string]float64, len(a))
	for _, bar := range a {
		closesA[model.DateKey(bar.Date)] = bar.Close
	}
	var xs, ys []float64
	for _, bar := range b {
		x, ok := closesA[model.DateKey(bar.Date)]
		if !ok || !finite(x) || !finite(bar.Close) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, bar.Close)
	}
	if len(xs) < 2 {
		return 0
	}
	r := calculator.Pearson(xs, ys)
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Interpret labels a correlation coefficient.
func Interpret(r float64) string {
	switch {
	case r > 0.7:
		return "Strong positive"
	case r > 0.3:
		return "Moderate positive"
	case r > -0.3:
		return "Weak"
	default:
		return "Negative"
	}
}

// Compare combines both series' metrics with their correlation. A tie on
// total return goes to tickerA.
func Compare(tickerA string, a []model.EnrichedBar, tickerB string, b []model.EnrichedBar) Comparison {
	r := Correlate(a, b)
	ma, mb := tickerMetrics(a), tickerMetrics(b)

	better := tickerA
	if mb.TotalReturnPct > ma.TotalReturnPct {
		better = tickerB
	}
	return Comparison{
		Symbol1:        tickerA,
		Symbol2:        tickerB,
		Correlation:    Round(r, 4),
		Symbol1Metrics: ma,
		Symbol2Metrics: mb,
		Insights: Insights{
			BetterPerformer:           better,
			ReturnDifference:          Round(math.Abs(ma.TotalReturnPct-mb.TotalReturnPct), 2),
			CorrelationInterpretation: Interpret(r),
		},
	}
}

func tickerMetrics(bars []model.EnrichedBar) TickerMetrics {
	s := Summarize(bars)
	return TickerMetrics{
		PerformanceMetrics: Performance(bars),
		High52w:            s.High52w,
		Low52w:             s.Low52w,
		AvgClose:           s.AvgClose,
	}
}
