package calculate

import (
	"github.com/Alias1177/SqueezeAlert/models"
)

// Annotate calculates every squeeze indicator for the series.
// The result has one row per input bar, in the same order.
func Annotate(bars []models.Bar, p models.SqueezeParams) ([]models.AnnotatedBar, error) {
	if err := Validate(bars, p); err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	// Calculate Bollinger Bands
	bb := BollingerBands(closes, p.BBPeriod, p.BBStdDev)
	bbWidth := BandWidth(bb)

	// Keltner channels and the ATR behind them
	kel, atr := KeltnerChannels(highs, lows, closes, p.ATRPeriod, p.KeltnerATRMult)

	// Trend filter averages
	maFast := EMA(closes, p.MAFast)
	maSlow := EMA(closes, p.MASlow)

	volSMA := SMA(volumes, p.VolSMAWindow)

	rsi := RSI(closes, p.RSIPeriod)
	dir := ADX(highs, lows, closes, p.ADXPeriod)

	out := make([]models.AnnotatedBar, len(bars))
	for i, b := range bars {
		out[i] = models.AnnotatedBar{
			Bar:          b,
			BBMid:        bb.Mid[i],
			BBUpper:      bb.Upper[i],
			BBLower:      bb.Lower[i],
			BBWidth:      bbWidth[i],
			KeltnerMid:   kel.Mid[i],
			KeltnerUpper: kel.Upper[i],
			KeltnerLower: kel.Lower[i],
			ATR:          atr[i],
			MAFast:       maFast[i],
			MASlow:       maSlow[i],
			VolumeSMA:    volSMA[i],
			RSI:          rsi[i],
			PlusDI:       dir.PlusDI[i],
			MinusDI:      dir.MinusDI[i],
			ADX:          dir.ADX[i],
		}
	}
	return out, nil
}

// Warmup returns the index of the first bar at which every indicator the
// detector reads is defined. RSI and ADX count only when their filter is on.
func Warmup(p models.SqueezeParams) int {
	w := maxInt(p.BBPeriod-1, p.ATRPeriod-1)
	w = maxInt(w, p.VolSMAWindow-1)
	if p.UseRSIFilter {
		w = maxInt(w, p.RSIPeriod)
	}
	if p.UseADXFilter {
		w = maxInt(w, 2*p.ADXPeriod-1)
	}
	return w
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
