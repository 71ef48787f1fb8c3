package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AnnualizationFactor scales a daily standard deviation to a yearly one.
var AnnualizationFactor = math.Sqrt(TradingDaysPerYear)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// SampleStd returns the sample standard deviation, or 0 with fewer than two values.
func SampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// MaxMin returns the largest and smallest value, or zeros for an empty slice.
func MaxMin(xs []float64) (hi, lo float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return floats.Max(xs), floats.Min(xs)
}

// Pearson returns the Pearson correlation of x and y. It is NaN when either
// side has zero variance.
func Pearson(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}
