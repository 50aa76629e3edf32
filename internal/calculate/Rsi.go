package calculate

import "github.com/Alias1177/SqueezeAlert/models"

// NeutralRSI is reported when the average loss is exactly zero
const NeutralRSI = 50.0

// RSI calculates the Relative Strength Index with Wilder averages.
// Gains and losses start at bar 1, so the first value is at bar period.
func RSI(closes []float64, period int) []models.Value {
	out := make([]models.Value, len(closes))
	if len(closes) < 2 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := wilder(gains, period, 1)
	avgLoss := wilder(losses, period, 1)

	for i := range closes {
		if !avgGain[i].OK || !avgLoss[i].OK {
			continue
		}
		if avgLoss[i].V == 0 {
			out[i] = models.Some(NeutralRSI)
			continue
		}
		rs := avgGain[i].V / avgLoss[i].V
		out[i] = models.Some(100.0 - (100.0 / (1.0 + rs)))
	}
	return out
}
