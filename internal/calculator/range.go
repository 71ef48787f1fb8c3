package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockPulse/internal/model"
)

// TradingDaysPerYear approximates one calendar year of daily bars.
const TradingDaysPerYear = 252

// TrailingRange returns the highest high and lowest low over the last window
// bars. A series shorter than window is scanned whole.
func TrailingRange(bars []model.EnrichedBar, window int) (high, low float64, err error) {
	if window <= 0 {
		return 0, 0, fmt.Errorf("range window must be positive, got %d", window)
	}
	if len(bars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range bars[max(0, len(bars)-window):] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, nil
}

// Calculate52WeekRange is TrailingRange over one trading year.
func Calculate52WeekRange(bars []model.EnrichedBar) (high, low float64, err error) {
	return TrailingRange(bars, TradingDaysPerYear)
}

// RangePosition places price inside [low, high] as a fraction clamped to 0..1.
// A flat range reports the midpoint.
func RangePosition(price, high, low float64) (float64, error) {
	switch {
	case high < low:
		return 0, fmt.Errorf("inverted range: high %v < low %v", high, low)
	case high == low:
		return 0.5, nil
	}
	return math.Min(1, math.Max(0, (price-low)/(high-low))), nil
}
