package squeeze

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/SqueezeAlert/internal/calculate"
	"github.com/Alias1177/SqueezeAlert/models"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

var some = models.Some

// wideBar is a fully annotated, unsqueezed, unbroken bar
func wideBar(i int) models.AnnotatedBar {
	return models.AnnotatedBar{
		Bar: models.Bar{
			Time:   t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 100,
			Symbol: "BTC-USD",
		},
		BBMid:        some(100),
		BBUpper:      some(103),
		BBLower:      some(97),
		BBWidth:      some(0.06),
		KeltnerMid:   some(100),
		KeltnerUpper: some(102),
		KeltnerLower: some(98),
		ATR:          some(1.3),
		MAFast:       some(99),
		MASlow:       some(98),
		VolumeSMA:    some(100),
		RSI:          some(50),
		PlusDI:       some(20),
		MinusDI:      some(20),
		ADX:          some(15),
	}
}

func squeezed(b models.AnnotatedBar) models.AnnotatedBar {
	b.BBUpper, b.BBLower = some(101), some(99)
	return b
}

// breakoutUpBar closes above the wide upper band with volMult x volume SMA
func breakoutUpBar(i int, volMult float64) models.AnnotatedBar {
	b := wideBar(i)
	b.Close, b.High = 104, 104.5
	b.Volume = 100 * volMult
	b.RSI = some(60)
	b.ADX = some(25)
	b.MAFast, b.MASlow = some(101), some(100)
	return b
}

// scenario builds n bars, squeezed on [runStart, runEnd], with trigger as the last bar
func scenario(n, runStart, runEnd int, trigger models.AnnotatedBar) []models.AnnotatedBar {
	series := make([]models.AnnotatedBar, n)
	for i := 0; i < n-1; i++ {
		series[i] = wideBar(i)
		if i >= runStart && i <= runEnd {
			series[i] = squeezed(series[i])
		}
	}
	series[n-1] = trigger
	return series
}

func TestSqueezed(t *testing.T) {
	tests := []struct {
		name                 string
		bbUp, bbDn, kUp, kDn float64
		want                 bool
	}{
		{"inside", 101, 99, 102, 98, true},
		{"touching both", 102, 98, 102, 98, true},
		{"upper outside", 102.5, 99, 102, 98, false},
		{"lower outside", 101, 97.9, 102, 98, false},
		{"both outside", 103, 97, 102, 98, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := wideBar(0)
			b.BBUpper, b.BBLower = some(tt.bbUp), some(tt.bbDn)
			b.KeltnerUpper, b.KeltnerLower = some(tt.kUp), some(tt.kDn)
			assert.Equal(t, tt.want, Squeezed(b))
		})
	}

	t.Run("absent bands", func(t *testing.T) {
		b := squeezed(wideBar(0))
		b.KeltnerUpper = models.Value{}
		assert.False(t, Squeezed(b))
	})
}

func TestBreakoutFlagsNeedPriceAndVolume(t *testing.T) {
	p := models.DefaultSqueezeParams()

	both := breakoutUpBar(0, 1.5)
	assert.True(t, BreakoutUp(both, p))

	priceOnly := breakoutUpBar(0, 1.2)
	assert.False(t, BreakoutUp(priceOnly, p))

	volumeOnly := wideBar(0)
	volumeOnly.Volume = 500
	assert.False(t, BreakoutUp(volumeOnly, p))

	noSMA := breakoutUpBar(0, 1.5)
	noSMA.VolumeSMA = models.Value{}
	assert.False(t, BreakoutUp(noSMA, p))

	down := wideBar(0)
	down.Close, down.Volume = 96, 140
	assert.True(t, BreakoutDown(down, p))
	assert.False(t, BreakoutUp(down, p))
}

func TestFiltersPass(t *testing.T) {
	p := models.DefaultSqueezeParams()
	b := breakoutUpBar(0, 1.5)

	assert.True(t, FiltersPass(b, models.Up, p))
	assert.False(t, FiltersPass(b, models.Down, p))

	weak := b
	weak.RSI = some(54.9)
	assert.False(t, FiltersPass(weak, models.Up, p))

	noTrend := b
	noTrend.ADX = some(19.9)
	assert.False(t, FiltersPass(noTrend, models.Up, p))

	belowMA := b
	belowMA.MASlow = some(105)
	assert.False(t, FiltersPass(belowMA, models.Up, p))

	off := p
	off.UseMAFilter, off.UseRSIFilter, off.UseADXFilter = false, false, false
	assert.True(t, FiltersPass(belowMA, models.Up, off))
	assert.True(t, FiltersPass(noTrend, models.Down, off))
}

func TestDetectScenarioUp(t *testing.T) {
	p := models.DefaultSqueezeParams()
	// bars 40..58 squeezed (run of 19), bar 59 leaves the squeeze on a 1.5x volume breakout
	series := scenario(60, 40, 58, breakoutUpBar(59, 1.5))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.Up, sig.Direction)
	assert.Equal(t, series[59], sig.Bar)
	assert.Equal(t, series[58], sig.Prev)
}

func TestDetectCounterScenarioWeakVolume(t *testing.T) {
	p := models.DefaultSqueezeParams()
	series := scenario(60, 40, 58, breakoutUpBar(59, 1.1))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestDetectShortSeries(t *testing.T) {
	p := models.DefaultSqueezeParams()
	min := MinHistory(p)
	assert.Equal(t, 50, min)

	for _, n := range []int{0, 1, 2, 10, min - 1} {
		series := make([]models.AnnotatedBar, 0, n)
		if n > 0 {
			series = scenario(n, 0, n-2, breakoutUpBar(n-1, 3))
		}
		sig, err := Detect(series, p)
		require.NoError(t, err, "n=%d", n)
		assert.Nil(t, sig, "n=%d", n)
	}
}

func TestMinHistoryCoversWarmup(t *testing.T) {
	p := models.DefaultSqueezeParams()
	p.MinBars = 5
	assert.Equal(t, 29, MinHistory(p))

	p.UseADXFilter = false
	assert.Equal(t, 21, MinHistory(p))
}

func TestDetectPreviousBarNotSqueezed(t *testing.T) {
	p := models.DefaultSqueezeParams()
	// run ends at 57, bar 58 is wide
	series := scenario(60, 40, 57, breakoutUpBar(59, 2))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestDetectNoSqueezeAnywhere(t *testing.T) {
	p := models.DefaultSqueezeParams()
	series := scenario(60, -1, -1, breakoutUpBar(59, 2))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestDetectRunAlreadyBrokeOut(t *testing.T) {
	p := models.DefaultSqueezeParams()
	// run of 5 bars: 54..58, the third one already broke out
	series := scenario(60, 54, 58, breakoutUpBar(59, 1.5))
	series[56].Close = 101.5
	series[56].Volume = 200
	require.True(t, BreakoutUp(series[56], p))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestDetectRunLengthOneBoundary(t *testing.T) {
	p := models.DefaultSqueezeParams()

	t.Run("breakout before the run is ignored", func(t *testing.T) {
		series := scenario(60, 58, 58, breakoutUpBar(59, 1.5))
		series[57] = breakoutUpBar(57, 3)
		require.False(t, Squeezed(series[57]))

		sig, err := Detect(series, p)

		require.NoError(t, err)
		require.NotNil(t, sig)
		assert.Equal(t, models.Up, sig.Direction)
	})

	t.Run("breakout on the single run bar blocks", func(t *testing.T) {
		series := scenario(60, 58, 58, breakoutUpBar(59, 1.5))
		series[58].Close = 101.5
		series[58].Volume = 200

		sig, err := Detect(series, p)

		require.NoError(t, err)
		assert.Nil(t, sig)
	})
}

func TestDetectDown(t *testing.T) {
	p := models.DefaultSqueezeParams()
	trigger := wideBar(59)
	trigger.Close, trigger.Low = 96, 95.5
	trigger.Volume = 150
	trigger.RSI = some(40)
	trigger.ADX = some(22)
	series := scenario(60, 30, 58, trigger)

	sig, err := Detect(series, p)

	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.Down, sig.Direction)
}

func TestDetectTieBreakPrefersUp(t *testing.T) {
	p := models.DefaultSqueezeParams()
	p.UseMAFilter, p.UseRSIFilter = false, false

	trigger := breakoutUpBar(59, 2)
	trigger.Close = 100
	trigger.BBUpper, trigger.BBLower = some(95), some(105)
	require.True(t, BreakoutUp(trigger, p))
	require.True(t, BreakoutDown(trigger, p))

	sig, err := Detect(scenario(60, 40, 58, trigger), p)

	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.Up, sig.Direction)
}

func TestDetectFailedUpFiltersFallsThroughToNoSignal(t *testing.T) {
	p := models.DefaultSqueezeParams()
	trigger := breakoutUpBar(59, 1.5)
	trigger.RSI = some(50)

	sig, err := Detect(scenario(60, 40, 58, trigger), p)

	require.NoError(t, err)
	assert.Nil(t, sig)

	p.UseRSIFilter = false
	sig, err = Detect(scenario(60, 40, 58, trigger), p)
	require.NoError(t, err)
	require.NotNil(t, sig)
}

func TestDetectMissingFieldIsInvalidInput(t *testing.T) {
	p := models.DefaultSqueezeParams()
	series := scenario(60, 40, 58, breakoutUpBar(59, 1.5))

	series[58].KeltnerLower = models.Value{}
	_, err := Detect(series, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	series = scenario(60, 40, 58, breakoutUpBar(59, 1.5))
	series[59].MAFast = models.Value{}
	_, err = Detect(series, p)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	p.UseMAFilter = false
	sig, err := Detect(series, p)
	require.NoError(t, err)
	assert.NotNil(t, sig)
}

func TestDetectAbsentOscillatorFailsFilter(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*models.AnnotatedBar)
		off   func(*models.SqueezeParams)
	}{
		{"rsi", func(b *models.AnnotatedBar) { b.RSI = models.Value{} }, func(p *models.SqueezeParams) { p.UseRSIFilter = false }},
		{"adx", func(b *models.AnnotatedBar) { b.ADX = models.Value{} }, func(p *models.SqueezeParams) { p.UseADXFilter = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.DefaultSqueezeParams()
			trigger := breakoutUpBar(59, 1.5)
			tt.clear(&trigger)
			series := scenario(60, 40, 58, trigger)
			tt.clear(&series[58])

			sig, err := Detect(series, p)
			require.NoError(t, err)
			assert.Nil(t, sig)

			tt.off(&p)
			sig, err = Detect(series, p)
			require.NoError(t, err)
			require.NotNil(t, sig)
			assert.Equal(t, models.Up, sig.Direction)
		})
	}
}

func TestDetectFlatSeriesIsNoSignal(t *testing.T) {
	bars := make([]models.Bar, 120)
	for i := range bars {
		bars[i] = models.Bar{
			Time:   t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:   1,
			High:   1,
			Low:    1,
			Close:  1,
			Volume: 100,
			Symbol: "BTC-USD",
		}
	}
	p := models.DefaultSqueezeParams()

	series, err := calculate.Annotate(bars, p)
	require.NoError(t, err)
	assert.False(t, series[len(series)-1].ADX.OK, "no directional movement leaves ADX undefined")

	sig, err := Detect(series, p)
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestDetectMissingVolumeSMAIsNoSignal(t *testing.T) {
	p := models.DefaultSqueezeParams()
	trigger := breakoutUpBar(59, 1.5)
	trigger.VolumeSMA = models.Value{}

	sig, err := Detect(scenario(60, 40, 58, trigger), p)

	require.NoError(t, err)
	assert.Nil(t, sig)
}

// quietThenBreakout is a tight alternating range with wide candles, so the
// Bollinger Bands sit well inside Keltner, followed by one high-volume thrust
func quietThenBreakout(n int, lastVolume float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n-1; i++ {
		c := 99.99
		if i%2 == 1 {
			c = 100.01
		}
		bars[i] = models.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
	}
	bars[n-1] = models.Bar{Open: 100, High: 104, Low: 99.5, Close: 103, Volume: lastVolume}
	for i := range bars {
		bars[i].Time = t0.Add(time.Duration(i) * 15 * time.Minute)
		bars[i].Symbol = "ETH-USD"
	}
	return bars
}

func TestDetectEndToEnd(t *testing.T) {
	p := models.DefaultSqueezeParams()
	p.UseADXFilter = false

	series, err := calculate.Annotate(quietThenBreakout(81, 1000), p)
	require.NoError(t, err)
	require.True(t, Squeezed(series[79]))

	sig, err := Detect(series, p)

	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, models.Up, sig.Direction)
	assert.Equal(t, 103.0, sig.Bar.Close)
	assert.Equal(t, series[79], sig.Prev)
	assert.Greater(t, sig.Bar.RSI.V, p.RSILongMin)

	series, err = calculate.Annotate(quietThenBreakout(81, 120), p)
	require.NoError(t, err)
	sig, err = Detect(series, p)
	require.NoError(t, err)
	assert.Nil(t, sig)
}
