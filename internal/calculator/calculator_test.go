package calculator

import (
	"math"
	"testing"
	"time"

	"StockPulse/internal/model"
)

const tolerance = 1e-9

func TestRollingMean_ExpandingHead(t *testing.T) {
	closes := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90}
	got, err := RollingMean(closes, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{10, 15, 20, 25, 30, 35, 40, 50, 60}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("ma[%d] = %.6f, want %.6f", i, got[i], want[i])
		}
	}
}

func TestRollingMean_InvalidWindow(t *testing.T) {
	if _, err := RollingMean([]float64{1}, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestRollingStd_MatchesNaive(t *testing.T) {
	values := []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.022, -0.011, 0.004, 0.0, 0.013}
	window := 4
	got, err := RollingStd(values, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 0 {
		t.Errorf("first element = %v, want 0", got[0])
	}
	for i := 1; i < len(values); i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		want := SampleStd(values[start : i+1])
		if math.Abs(got[i]-want) > tolerance {
			t.Errorf("std[%d] = %.10f, want %.10f", i, got[i], want)
		}
	}
}

func TestRollingStd_ConstantSeriesIsZero(t *testing.T) {
	got, _ := RollingStd([]float64{0.5, 0.5, 0.5, 0.5}, 30)
	for i, v := range got {
		if v != 0 {
			t.Errorf("std[%d] = %v, want 0", i, v)
		}
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	bars := make([]model.EnrichedBar, 300)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i].Date = start.AddDate(0, 0, i)
		bars[i].High = float64(100 + i)
		bars[i].Low = float64(50 + i)
	}
	// The earliest 48 bars fall outside the trailing 252.
	bars[0].High = 10000
	bars[0].Low = 1

	high, low, err := Calculate52WeekRange(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 399 {
		t.Errorf("high = %v, want 399", high)
	}
	if low != 98 {
		t.Errorf("low = %v, want 98", low)
	}

	if _, _, err := Calculate52WeekRange(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestTrailingRange(t *testing.T) {
	bars := []model.EnrichedBar{
		{Bar: model.Bar{High: 12, Low: 4}},
		{Bar: model.Bar{High: 10, Low: 6}},
		{Bar: model.Bar{High: 15, Low: 9}},
		{Bar: model.Bar{High: 11, Low: 7}},
	}
	tests := []struct {
		name      string
		window    int
		high, low float64
	}{
		{"last bar", 1, 11, 7},
		{"last two", 2, 15, 7},
		{"whole series", 4, 15, 4},
		{"window longer than series", 10, 15, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			high, low, err := TrailingRange(bars, tt.window)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if high != tt.high || low != tt.low {
				t.Errorf("range = (%v, %v), want (%v, %v)", high, low, tt.high, tt.low)
			}
		})
	}

	if _, _, err := TrailingRange(bars, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		price, high, low float64
		want             float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.price, tt.high, tt.low)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("position(%v,%v,%v) = %v, want %v", tt.price, tt.high, tt.low, got, tt.want)
		}
	}
	if _, err := RangePosition(1, 100, 200); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	if r := Pearson(x, x); math.Abs(r-1) > tolerance {
		t.Errorf("identical series correlation = %v, want 1", r)
	}
	y := []float64{5, 4, 3, 2, 1}
	if r := Pearson(x, y); r > -0.99 {
		t.Errorf("opposite series correlation = %v, want <= -0.99", r)
	}
}

func TestSampleStd(t *testing.T) {
	if SampleStd([]float64{3}) != 0 {
		t.Error("single value std must be 0")
	}
	// var = ((1-2)^2 + 0 + (3-2)^2) / 2 = 1
	if got := SampleStd([]float64{1, 2, 3}); math.Abs(got-1) > tolerance {
		t.Errorf("std = %v, want 1", got)
	}
}
