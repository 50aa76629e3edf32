package calculate

import (
	"math"

	"github.com/Alias1177/SqueezeAlert/models"
)

// Directional holds the ADX family of series
type Directional struct {
	PlusDI  []models.Value
	MinusDI []models.Value
	DX      []models.Value
	ADX     []models.Value
}

// ADX calculates +DI, -DI and the Average Directional Index.
//
// +DM, -DM and TR are Wilder-smoothed from bar 1 and seeded at bar period.
// A bar whose DI sum is zero has no DX; it is skipped by the ADX smoothing,
// which carries the previous ADX forward. ADX is seeded with the mean of the
// first period defined DX values.
func ADX(highs, lows, closes []float64, period int) Directional {
	n := len(closes)
	d := Directional{
		PlusDI:  make([]models.Value, n),
		MinusDI: make([]models.Value, n),
		DX:      make([]models.Value, n),
		ADX:     make([]models.Value, n),
	}
	if n < 2 || period <= 0 {
		return d
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	tr := TrueRange(highs, lows, closes)
	sTR := wilder(tr, period, 1)
	sPlus := wilder(plusDM, period, 1)
	sMinus := wilder(minusDM, period, 1)

	for i := 0; i < n; i++ {
		if !sTR[i].OK {
			continue
		}
		var plusDI, minusDI float64
		if sTR[i].V != 0 {
			plusDI = 100 * sPlus[i].V / sTR[i].V
			minusDI = 100 * sMinus[i].V / sTR[i].V
		}
		d.PlusDI[i] = models.Some(plusDI)
		d.MinusDI[i] = models.Some(minusDI)

		if sum := plusDI + minusDI; sum != 0 {
			d.DX[i] = models.Some(100 * math.Abs(plusDI-minusDI) / sum)
		}
	}

	d.ADX = smoothDefined(d.DX, period)
	return d
}

// smoothDefined is Wilder smoothing over the defined entries of values only.
// Absent entries neither reset nor update the average.
func smoothDefined(values []models.Value, period int) []models.Value {
	out := make([]models.Value, len(values))

	var (
		seeded bool
		count  int
		sum    float64
		avg    float64
	)
	alpha := 1.0 / float64(period)

	for i, v := range values {
		switch {
		case !seeded && v.OK:
			count++
			sum += v.V
			if count == period {
				avg = sum / float64(period)
				seeded = true
				out[i] = models.Some(avg)
			}
		case seeded && v.OK:
			avg = avg + alpha*(v.V-avg)
			out[i] = models.Some(avg)
		case seeded:
			out[i] = models.Some(avg)
		}
	}
	return out
}
