package enricher

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

var day0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func rawBar(offset int, open, high, low, close, volume float64) model.RawBar {
	return model.RawBar{
		Date:   day0.AddDate(0, 0, offset),
		Open:   null.FloatFrom(open),
		High:   null.FloatFrom(high),
		Low:    null.FloatFrom(low),
		Close:  null.FloatFrom(close),
		Volume: null.FloatFrom(volume),
	}
}

func rawSeries(n int) []model.RawBar {
	out := make([]model.RawBar, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = rawBar(i, p-0.5, p+1, p-1, p, 1000)
	}
	return out
}

func TestClean_FillsAndDrops(t *testing.T) {
	raw := []model.RawBar{
		// open, high and low missing at the head
		{Date: day0, Close: null.FloatFrom(10)},
		// fully empty
		{Date: day0.AddDate(0, 0, 1)},
		rawBar(2, 11, 12, 10, 11.5, 500),
		// close carried forward
		{Date: day0.AddDate(0, 0, 3), Open: null.FloatFrom(11.6)},
		// non-positive close
		rawBar(4, 12, 13, 11, 0, 100),
		{Date: day0.AddDate(0, 0, 5), Close: null.FloatFrom(12), Open: null.FloatFrom(12)},
	}

	bars := Clean("TCS", raw)
	require.Len(t, bars, 4)

	// Leading gaps are back-filled from the first complete row.
	assert.Equal(t, 11.0, bars[0].Open)
	assert.Equal(t, 12.0, bars[0].High)
	assert.Equal(t, 10.0, bars[0].Low)
	assert.Equal(t, int64(500), bars[0].Volume.Int64)

	// Forward fill carries the prior close.
	assert.Equal(t, 11.5, bars[2].Close)
	assert.Equal(t, 11.6, bars[2].Open)

	for _, b := range bars {
		assert.Equal(t, "TCS", b.Ticker)
		assert.Greater(t, b.Close, 0.0)
	}
}

func TestClean_SortsAndDedupes(t *testing.T) {
	raw := []model.RawBar{
		rawBar(2, 1, 1, 1, 3, 1),
		rawBar(0, 1, 1, 1, 1, 1),
		rawBar(1, 1, 1, 1, 2, 1),
		rawBar(1, 1, 1, 1, 2.5, 1),
	}
	bars := Clean("INFY", raw)
	require.Len(t, bars, 3)
	assert.Equal(t, []float64{1, 2.5, 3}, []float64{bars[0].Close, bars[1].Close, bars[2].Close})
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Date.Before(bars[i].Date))
	}
}

func TestClean_DropsTimeOfDay(t *testing.T) {
	r := rawBar(0, 1, 1, 1, 1, 1)
	r.Date = time.Date(2025, 3, 3, 15, 30, 0, 0, time.UTC)
	bars := Clean("TCS", []model.RawBar{r})
	require.Len(t, bars, 1)
	assert.Equal(t, day0, bars[0].Date)
}

func TestEnrich_PreservesLengthAndOrder(t *testing.T) {
	raw := rawSeries(45)
	e := New()
	enriched, err := e.Enrich("TCS", raw)
	require.NoError(t, err)

	cleaned := Clean("TCS", raw)
	require.Len(t, enriched, len(cleaned))
	for i := range cleaned {
		assert.Equal(t, cleaned[i].Date, enriched[i].Date)
	}
}

func TestEnrich_Indicators(t *testing.T) {
	raw := rawSeries(40)
	enriched, err := New().Enrich("TCS", raw)
	require.NoError(t, err)

	// ma7 at the head expands from one bar.
	assert.Equal(t, enriched[0].Close, enriched[0].MA7)
	for i := 0; i < 6; i++ {
		sum := 0.0
		for j := 0; j <= i; j++ {
			sum += enriched[j].Close
		}
		assert.InDelta(t, sum/float64(i+1), enriched[i].MA7, 1e-9, "ma7[%d]", i)
	}
	// Full window from index 6 on.
	sum := 0.0
	for j := 33; j <= 39; j++ {
		sum += enriched[j].Close
	}
	assert.InDelta(t, sum/7, enriched[39].MA7, 1e-9)

	assert.Equal(t, 0.0, enriched[0].Volatility30)
	assert.InDelta(t, 0.5/99.5, enriched[0].DailyReturn, 1e-12)
}

func TestEnrich_VolatilityAnnualized(t *testing.T) {
	raw := []model.RawBar{
		rawBar(0, 100, 100, 100, 101, 1),
		rawBar(1, 100, 100, 100, 99, 1),
	}
	enriched, err := New().Enrich("TCS", raw)
	require.NoError(t, err)
	require.Len(t, enriched, 2)
	// sample std of {0.01, -0.01} is sqrt(0.0002)
	assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(252), enriched[1].Volatility30, 1e-12)
}

func TestDailyReturns(t *testing.T) {
	bars := []model.Bar{
		{Open: 50, Close: 50},
		{Open: 0, Close: 10},
		{Open: 100, Close: 110},
	}
	got := DailyReturns(bars)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
	assert.InDelta(t, 0.1, got[2], 1e-12)
}

func TestEnrich_Empty(t *testing.T) {
	out, err := New().Enrich("TCS", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewWithWindows_Invalid(t *testing.T) {
	_, err := NewWithWindows(0, 30)
	assert.Error(t, err)
}
