package calculate

import (
	"math"

	"github.com/Alias1177/SqueezeAlert/models"
)

// TrueRange calculates the true range of every bar.
// The first bar has no previous close, its true range is high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	if len(closes) == 0 {
		return tr
	}

	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(closes); i++ {
		// True Range is the greatest of:
		// 1. Current High - Current Low
		// 2. Abs(Current High - Previous Close)
		// 3. Abs(Current Low - Previous Close)
		highLow := highs[i] - lows[i]
		highPrevClose := math.Abs(highs[i] - closes[i-1])
		lowPrevClose := math.Abs(lows[i] - closes[i-1])

		tr[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	return tr
}

// ATR calculates the Average True Range with Wilder smoothing.
// Seeded at bar period-1 with the mean of the first period true ranges.
func ATR(highs, lows, closes []float64, period int) []models.Value {
	return wilder(TrueRange(highs, lows, closes), period, 0)
}

// wilder smooths values[from:] with alpha = 1/period. The seed is the simple
// mean of the first period values starting at from; earlier bars are absent.
func wilder(values []float64, period, from int) []models.Value {
	out := make([]models.Value, len(values))
	seedAt := from + period - 1
	if period <= 0 || from < 0 || seedAt >= len(values) {
		return out
	}

	avg := calculateAverage(values[from : seedAt+1])
	out[seedAt] = models.Some(avg)

	alpha := 1.0 / float64(period)
	for i := seedAt + 1; i < len(values); i++ {
		avg = avg + alpha*(values[i]-avg)
		out[i] = models.Some(avg)
	}
	return out
}
