package calculate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SqueezeAlert/models"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func generateTestBars(n int, generator func(int) models.Bar) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		b := generator(i)
		b.Time = t0.Add(time.Duration(i) * 15 * time.Minute)
		b.Symbol = "BTC-USD"
		bars[i] = b
	}
	return bars
}

// wavy is a deterministic, non-trivial price path
func wavy(i int) models.Bar {
	c := 100 + 5*math.Sin(float64(i)/3) + float64(i%7)*0.3
	return models.Bar{
		Open:   c - 0.2,
		High:   c + 1 + float64(i%3)*0.1,
		Low:    c - 1 - float64(i%4)*0.1,
		Close:  c,
		Volume: 1000 + float64(i%5)*50,
	}
}

func closesOf(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	require.Len(t, got, 5)
	assert.False(t, got[0].OK)
	assert.False(t, got[1].OK)
	assert.Equal(t, models.Some(2), got[2])
	assert.Equal(t, models.Some(3), got[3])
	assert.Equal(t, models.Some(4), got[4])
}

func TestSMAMatchesTalib(t *testing.T) {
	closes := closesOf(generateTestBars(120, wavy))

	got := SMA(closes, 20)
	want := talib.Sma(closes, 20)

	for i := 19; i < len(closes); i++ {
		require.True(t, got[i].OK, "bar %d", i)
		assert.InDelta(t, want[i], got[i].V, 1e-9, "bar %d", i)
	}
}

func TestEMASeededWithFirstValue(t *testing.T) {
	got := EMA([]float64{10, 13, 7}, 2) // alpha = 2/3

	require.Len(t, got, 3)
	assert.Equal(t, models.Some(10), got[0])
	assert.InDelta(t, 12.0, got[1].V, 1e-12)
	assert.InDelta(t, 12.0+(7-12.0)*2.0/3.0, got[2].V, 1e-12)
}

func TestBollingerBandsPopulationStdDev(t *testing.T) {
	b := BollingerBands([]float64{1, 2, 3, 4}, 4, 2)

	sd := math.Sqrt(1.25)
	require.True(t, b.Mid[3].OK)
	assert.InDelta(t, 2.5, b.Mid[3].V, 1e-12)
	assert.InDelta(t, 2.5+2*sd, b.Upper[3].V, 1e-12)
	assert.InDelta(t, 2.5-2*sd, b.Lower[3].V, 1e-12)
	assert.False(t, b.Upper[2].OK)
}

func TestBollingerBandsMatchTalib(t *testing.T) {
	closes := closesOf(generateTestBars(120, wavy))

	got := BollingerBands(closes, 20, 2)
	upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)

	for i := 19; i < len(closes); i++ {
		assert.InDelta(t, middle[i], got.Mid[i].V, 1e-9, "mid %d", i)
		assert.InDelta(t, upper[i], got.Upper[i].V, 1e-6, "upper %d", i)
		assert.InDelta(t, lower[i], got.Lower[i].V, 1e-6, "lower %d", i)
	}
}

func TestBandWidthAbsentOnZeroMid(t *testing.T) {
	b := Bands{
		Mid:   []models.Value{{}, models.Some(0), models.Some(10)},
		Upper: []models.Value{{}, models.Some(1), models.Some(12)},
		Lower: []models.Value{{}, models.Some(-1), models.Some(8)},
	}

	w := BandWidth(b)
	assert.False(t, w[0].OK)
	assert.False(t, w[1].OK)
	assert.Equal(t, models.Some(0.4), w[2])
}

func TestTrueRange(t *testing.T) {
	highs := []float64{10, 12, 11}
	lows := []float64{8, 11, 7}
	closes := []float64{9, 11.5, 8}

	tr := TrueRange(highs, lows, closes)

	assert.Equal(t, []float64{2, 3, 4.5}, tr)
}

func TestATRWilder(t *testing.T) {
	highs := []float64{10, 12, 11, 13}
	lows := []float64{8, 11, 7, 12}
	closes := []float64{9, 11.5, 8, 12.5}
	// TR = 2, 3, 4.5, 5

	atr := ATR(highs, lows, closes, 2)

	assert.False(t, atr[0].OK)
	assert.InDelta(t, 2.5, atr[1].V, 1e-12)
	assert.InDelta(t, 2.5+0.5*(4.5-2.5), atr[2].V, 1e-12)
	assert.InDelta(t, 3.5+0.5*(5-3.5), atr[3].V, 1e-12)
}

func TestRSIZeroLossIsNeutral(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := RSI(closes, 14)

	assert.False(t, rsi[13].OK)
	for i := 14; i < len(closes); i++ {
		require.True(t, rsi[i].OK)
		assert.Equal(t, NeutralRSI, rsi[i].V, "bar %d", i)
		assert.False(t, math.IsNaN(rsi[i].V))
	}
}

func TestRSIBalancedMoves(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 101
		}
	}

	rsi := RSI(closes, 4)

	// seed: gains 1,0,1,0 and losses 0,1,0,1
	require.True(t, rsi[4].OK)
	assert.InDelta(t, 50, rsi[4].V, 1e-9)
	for i := 5; i < len(closes); i++ {
		assert.InDelta(t, 50, rsi[i].V, 15, "bar %d", i)
	}
}

func TestADXStrongTrend(t *testing.T) {
	const period = 5
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}

	d := ADX(highs, lows, closes, period)

	assert.False(t, d.PlusDI[period-1].OK)
	require.True(t, d.PlusDI[period].OK)
	assert.InDelta(t, 50, d.PlusDI[period].V, 1e-9)
	assert.InDelta(t, 0, d.MinusDI[period].V, 1e-9)

	assert.False(t, d.ADX[2*period-2].OK)
	require.True(t, d.ADX[2*period-1].OK)
	assert.InDelta(t, 100, d.ADX[2*period-1].V, 1e-9)
	assert.InDelta(t, 100, d.ADX[n-1].V, 1e-9)
}

func TestADXFlatMarketHasNoDX(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		highs[i], lows[i], closes[i] = 101, 99, 100
	}

	d := ADX(highs, lows, closes, 14)

	for i := range closes {
		assert.False(t, d.DX[i].OK, "dx %d", i)
		assert.False(t, d.ADX[i].OK, "adx %d", i)
	}
	assert.Equal(t, models.Some(0), d.PlusDI[20])
}

func TestSmoothDefinedCarriesForward(t *testing.T) {
	in := []models.Value{
		models.Some(10), {}, models.Some(20), models.Some(40), {}, models.Some(0),
	}

	out := smoothDefined(in, 2)

	assert.False(t, out[0].OK)
	assert.False(t, out[1].OK)
	assert.Equal(t, models.Some(15), out[2])
	assert.Equal(t, models.Some(27.5), out[3])
	assert.Equal(t, models.Some(27.5), out[4])
	assert.Equal(t, models.Some(13.75), out[5])
}

func TestAnnotateWarmup(t *testing.T) {
	p := models.DefaultSqueezeParams()
	bars := generateTestBars(80, wavy)

	series, err := Annotate(bars, p)
	require.NoError(t, err)
	require.Len(t, series, len(bars))

	w := Warmup(p)
	assert.Equal(t, 27, w)

	assert.False(t, series[w-1].ADX.OK)
	full := series[w]
	for name, v := range map[string]models.Value{
		"bb_upper": full.BBUpper, "bb_lower": full.BBLower, "keltner_upper": full.KeltnerUpper,
		"keltner_lower": full.KeltnerLower, "atr": full.ATR, "ma_fast": full.MAFast,
		"ma_slow": full.MASlow, "volume_sma": full.VolumeSMA, "rsi": full.RSI, "adx": full.ADX,
	} {
		assert.True(t, v.OK, name)
	}
	for i, row := range series {
		assert.Equal(t, bars[i], row.Bar)
	}
}

func TestAnnotateIsPure(t *testing.T) {
	p := models.DefaultSqueezeParams()
	bars := generateTestBars(100, wavy)

	first, err := Annotate(bars, p)
	require.NoError(t, err)
	second, err := Annotate(bars, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnnotateHasNoLookAhead(t *testing.T) {
	p := models.DefaultSqueezeParams()
	bars := generateTestBars(100, wavy)

	full, err := Annotate(bars, p)
	require.NoError(t, err)

	for _, k := range []int{1, 30, 64, 99} {
		prefix, err := Annotate(bars[:k], p)
		require.NoError(t, err)
		assert.Equal(t, full[k-1], prefix[k-1], "row %d", k-1)
	}
}

func TestAnnotateRejectsInvalidInput(t *testing.T) {
	good := generateTestBars(30, wavy)

	unordered := generateTestBars(30, wavy)
	unordered[10].Time = unordered[9].Time

	negative := generateTestBars(30, wavy)
	negative[3].Low = -1

	badParams := models.DefaultSqueezeParams()
	badParams.ATRPeriod = 0

	zeroMult := models.DefaultSqueezeParams()
	zeroMult.VolMinMult = 0

	tests := []struct {
		name string
		bars []models.Bar
		p    models.SqueezeParams
	}{
		{"empty series", nil, models.DefaultSqueezeParams()},
		{"duplicate timestamp", unordered, models.DefaultSqueezeParams()},
		{"non-positive price", negative, models.DefaultSqueezeParams()},
		{"zero period", good, badParams},
		{"zero multiplier", good, zeroMult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := Annotate(tt.bars, tt.p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
			assert.Nil(t, series)
		})
	}
}
