package calculate

import (
	"math"

	"github.com/Alias1177/SqueezeAlert/models"
)

// Bands is one set of channel lines over a series
type Bands struct {
	Mid   []models.Value
	Upper []models.Value
	Lower []models.Value
}

// BollingerBands calculates SMA(period) ± stdDev * population standard deviation
func BollingerBands(closes []float64, period int, stdDev float64) Bands {
	b := Bands{
		Mid:   SMA(closes, period),
		Upper: make([]models.Value, len(closes)),
		Lower: make([]models.Value, len(closes)),
	}

	for i := range closes {
		if !b.Mid[i].OK {
			continue
		}
		middle := b.Mid[i].V

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))

		b.Upper[i] = models.Some(middle + sd*stdDev)
		b.Lower[i] = models.Some(middle - sd*stdDev)
	}

	return b
}

// BandWidth returns (upper-lower)/mid, absent where mid is absent or zero
func BandWidth(b Bands) []models.Value {
	out := make([]models.Value, len(b.Mid))
	for i := range b.Mid {
		if !b.Mid[i].OK || b.Mid[i].V == 0 {
			continue
		}
		out[i] = models.Some((b.Upper[i].V - b.Lower[i].V) / b.Mid[i].V)
	}
	return out
}

// KeltnerChannels calculates EMA(period) ± atrMult * ATR(period).
// The ATR series is returned as well since the alert reuses it.
func KeltnerChannels(highs, lows, closes []float64, period int, atrMult float64) (Bands, []models.Value) {
	mid := EMA(closes, period)
	atr := ATR(highs, lows, closes, period)

	k := Bands{
		Mid:   mid,
		Upper: make([]models.Value, len(closes)),
		Lower: make([]models.Value, len(closes)),
	}
	for i := range closes {
		if !atr[i].OK {
			continue
		}
		k.Upper[i] = models.Some(mid[i].V + atrMult*atr[i].V)
		k.Lower[i] = models.Some(mid[i].V - atrMult*atr[i].V)
	}
	return k, atr
}
