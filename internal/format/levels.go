package format

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/SqueezeAlert/models"
)

// Rounding modes
const (
	RoundingAuto  = "auto"
	RoundingFixed = "fixed"
)

// Options controls how alerts are rendered
type Options struct {
	EntryUseBuffer bool
	EntryBufferATR float64
	SLATRMult      float64
	TPMults        []float64

	RoundingMode  string
	FixedDecimals int

	Location *time.Location
}

// DefaultOptions mirrors the stock entry/stop/target settings
func DefaultOptions() Options {
	return Options{
		EntryUseBuffer: true,
		EntryBufferATR: 0.10,
		SLATRMult:      1.5,
		TPMults:        []float64{1, 2, 3},
		RoundingMode:   RoundingAuto,
		FixedDecimals:  2,
		Location:       time.UTC,
	}
}

// TradeLevels holds long entry, stop and targets
type TradeLevels struct {
	Entry       float64
	StopLoss    float64
	TakeProfits []float64
}

// Levels derives long entry, stop-loss and take-profit prices from the bar's
// close and ATR. ok is false when ATR is not available.
func Levels(b models.AnnotatedBar, o Options) (lv TradeLevels, ok bool) {
	if !b.ATR.OK {
		return TradeLevels{}, false
	}
	atr := b.ATR.V

	entry := b.Close
	if o.EntryUseBuffer {
		entry += o.EntryBufferATR * atr
	}
	sl := entry - o.SLATRMult*atr
	risk := entry - sl

	tps := make([]float64, len(o.TPMults))
	for i, m := range o.TPMults {
		tps[i] = entry + m*risk
	}

	return TradeLevels{Entry: entry, StopLoss: sl, TakeProfits: tps}, true
}

// FormatPrice renders a price with a fixed number of decimals or, in auto
// mode, with more decimals for cheaper instruments.
func FormatPrice(x float64, mode string, fixed int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	places := int32(fixed)
	if mode != RoundingFixed {
		places = autoDecimals(x)
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}

func autoDecimals(x float64) int32 {
	ax := math.Abs(x)
	switch {
	case ax < 0.1:
		return 5
	case ax < 1:
		return 4
	case ax < 10:
		return 3
	default:
		return 2
	}
}
