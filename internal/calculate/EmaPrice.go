package calculate

import "github.com/Alias1177/SqueezeAlert/models"

// EMA calculates the exponential moving average with alpha = 2/(period+1).
// The series is seeded with the first value, so it is defined from bar 0.
func EMA(prices []float64, period int) []models.Value {
	out := make([]models.Value, len(prices))
	if len(prices) == 0 || period <= 0 {
		return out
	}

	multiplier := 2.0 / float64(period+1)

	ema := prices[0]
	out[0] = models.Some(ema)
	for i := 1; i < len(prices); i++ {
		ema = ema + (prices[i]-ema)*multiplier
		out[i] = models.Some(ema)
	}

	return out
}
