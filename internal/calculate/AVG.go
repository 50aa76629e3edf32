package calculate

import "github.com/Alias1177/SqueezeAlert/models"

// SMA calculates the trailing simple moving average.
// Values before the first full window are absent.
func SMA(values []float64, period int) []models.Value {
	out := make([]models.Value, len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		out[i] = models.Some(calculateAverage(values[i-period+1 : i+1]))
	}
	return out
}

// calculateAverage calculates simple average
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}
