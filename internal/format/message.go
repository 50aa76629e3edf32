// Package format renders squeeze signals as chat messages.
package format

import (
	"fmt"
	"strings"

	"github.com/Alias1177/SqueezeAlert/internal/squeeze"
	"github.com/Alias1177/SqueezeAlert/models"
)

// Verdicts prefixed to the comment line
const (
	VerdictBuy       = "🟢 Worth buying (bullish breakout)"
	VerdictWeakUp    = "🟡 Wait — weak confirmation"
	VerdictNoBuy     = "🔴 Not worth buying (bearish breakout)"
	VerdictWeakDown  = "🟠 Wait — possible false breakout"
	barTimeLayout    = "2006-01-02 15:04 MST"
	notAvailable     = "n/a"
	headerUpSuffix   = "breakout_up ✅"
	headerDownSuffix = "breakout_down ⬇"
)

// Message renders the alert for one signal
func Message(symbol string, tf models.Timeframe, sig *models.Signal, p models.SqueezeParams, o Options) string {
	if sig == nil {
		return ""
	}
	b := sig.Bar

	head := fmt.Sprintf("[SQUEEZE] %s %s → ", symbol, tf)
	if sig.Direction == models.Up {
		head += headerUpSuffix
	} else {
		head += headerDownSuffix
	}

	comment := Comment(sig, p)
	lines := []string{head, baseLine(b, p, o), comment, "Bar: " + barTime(b, o)}

	if comment == VerdictBuy {
		if lv, ok := Levels(b, o); ok {
			lines = append(lines, levelsLine(lv, o))
		}
	}

	return strings.Join(lines, "\n")
}

// Comment grades the signal. Longs need every enabled filter, shorts need
// their filters and trend strength.
func Comment(sig *models.Signal, p models.SqueezeParams) string {
	b := sig.Bar
	if sig.Direction == models.Up {
		if squeeze.FiltersPass(b, models.Up, p) {
			return VerdictBuy
		}
		return VerdictWeakUp
	}
	if squeeze.FiltersPass(b, models.Down, p) {
		return VerdictNoBuy
	}
	return VerdictWeakDown
}

func baseLine(b models.AnnotatedBar, p models.SqueezeParams, o Options) string {
	price := func(x float64) string { return FormatPrice(x, o.RoundingMode, o.FixedDecimals) }

	width := 0.0
	if b.BBWidth.OK {
		width = b.BBWidth.V
	}
	volPct := 0.0
	if r := b.VolumeRatio(); r.OK {
		volPct = (r.V - 1) * 100
	}

	atr := notAvailable
	if b.ATR.OK {
		atr = price(b.ATR.V)
	}

	parts := []string{
		"Price: " + price(b.Close),
		fmt.Sprintf("BBWidth: %.4f", width),
		fmt.Sprintf("Vol %+.0f%% vs SMA%d", volPct, p.VolSMAWindow),
		fmt.Sprintf("MA%d/%d: %s/%s", p.MAFast, p.MASlow, side(b.Close, b.MAFast), side(b.Close, b.MASlow)),
		fmt.Sprintf("ATR%d: %s", p.ATRPeriod, atr),
		fmt.Sprintf("RSI%d: %s", p.RSIPeriod, oneDecimal(b.RSI)),
		fmt.Sprintf("ADX%d: %s", p.ADXPeriod, oneDecimal(b.ADX)),
	}
	return strings.Join(parts, " | ")
}

func levelsLine(lv TradeLevels, o Options) string {
	price := func(x float64) string { return FormatPrice(x, o.RoundingMode, o.FixedDecimals) }

	parts := []string{"Entry: " + price(lv.Entry), "SL: " + price(lv.StopLoss)}
	for i, tp := range lv.TakeProfits {
		parts = append(parts, fmt.Sprintf("TP%d: %s", i+1, price(tp)))
	}
	return strings.Join(parts, " | ")
}

func barTime(b models.AnnotatedBar, o Options) string {
	loc := o.Location
	if loc == nil {
		loc = b.Time.Location()
	}
	return b.Time.In(loc).Format(barTimeLayout)
}

func side(close float64, ma models.Value) string {
	if !ma.OK {
		return notAvailable
	}
	if close > ma.V {
		return "above"
	}
	return "below"
}

func oneDecimal(v models.Value) string {
	if !v.OK {
		return notAvailable
	}
	return fmt.Sprintf("%.1f", v.V)
}
