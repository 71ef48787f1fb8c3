package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the wire and storage format of bar dates.
const DateLayout = "2006-01-02"

// DateOf drops the time of day from t, keeping its calendar day, as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateKey returns the YYYY-MM-DD form of t, used for date lookups.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// RawBar is a provider bar before cleaning; any field may be missing.
type RawBar struct {
	Date   time.Time
	Open   null.Float
	High   null.Float
	Low    null.Float
	Close  null.Float
	Volume null.Float
}

// Empty reports whether all price and volume fields are missing.
func (r RawBar) Empty() bool {
	return !r.Open.Valid && !r.High.Valid && !r.Low.Valid && !r.Close.Valid && !r.Volume.Valid
}

// Bar represents one cleaned trading day.
type Bar struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume null.Int
}

// EnrichedBar is a Bar plus its derived indicators.
type EnrichedBar struct {
	Bar
	DailyReturn  float64
	MA7          float64
	Volatility30 float64
}

type enrichedBarJSON struct {
	Date         string   `json:"date"`
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Close        float64  `json:"close"`
	Volume       null.Int `json:"volume"`
	DailyReturn  float64  `json:"daily_return"`
	MA7          float64  `json:"ma_7"`
	Volatility30 float64  `json:"volatility_score"`
}

func (b EnrichedBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(enrichedBarJSON{
		Date:         DateKey(b.Date),
		Open:         b.Open,
		High:         b.High,
		Low:          b.Low,
		Close:        b.Close,
		Volume:       b.Volume,
		DailyReturn:  b.DailyReturn,
		MA7:          b.MA7,
		Volatility30: b.Volatility30,
	})
}

func (b *EnrichedBar) UnmarshalJSON(data []byte) error {
	var v enrichedBarJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	d, err := ParseDate(v.Date)
	if err != nil {
		return fmt.Errorf("parse bar date %q: %w", v.Date, err)
	}
	b.Date = d
	b.Open, b.High, b.Low, b.Close = v.Open, v.High, v.Low, v.Close
	b.Volume = v.Volume
	b.DailyReturn, b.MA7, b.Volatility30 = v.DailyReturn, v.MA7, v.Volatility30
	return nil
}

// Closes extracts close prices in series order.
func Closes(bars []EnrichedBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// DailyReturns extracts daily returns in series order.
func DailyReturns(bars []EnrichedBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.DailyReturn
	}
	return out
}

// Window selects how much history a fetch covers: either a trailing day count
// or a provider period string such as "1y".
type Window struct {
	Days   int
	Period string
}

func Days(n int) Window         { return Window{Days: n} }
func Period(p string) Window    { return Window{Period: p} }
func (w Window) IsPeriod() bool { return w.Days <= 0 }

func (w Window) String() string {
	if w.IsPeriod() {
		return w.Period
	}
	return fmt.Sprintf("%dd", w.Days)
}
