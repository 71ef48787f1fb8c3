package calculator

import (
	"errors"
	"math"
)

// RollingMean returns the trailing mean of values over window. The window
// expands from 1 at the head of the series until it reaches its nominal size.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out, nil
}

// RollingStd returns the trailing sample standard deviation (n-1) of values
// over window, expanding at the head like RollingMean. Positions with a
// single observation have no variance and yield 0.
func RollingStd(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	// Accumulate around the first value to limit cancellation in sumSq - sum²/n.
	k := values[0]
	var sum, sumSq float64
	for i, v := range values {
		d := v - k
		sum += d
		sumSq += d * d
		if i >= window {
			old := values[i-window] - k
			sum -= old
			sumSq -= old * old
		}
		n := float64(min(i+1, window))
		if n < 2 {
			continue
		}
		variance := (sumSq - sum*sum/n) / (n - 1)
		if variance <= 0 {
			continue
		}
		out[i] = math.Sqrt(variance)
	}
	return out, nil
}
