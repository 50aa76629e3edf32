package models

import (
	"time"
)

// Bar represents a single OHLCV observation
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Symbol string    `json:"symbol"`
}

// Value is a derived metric that may not be warmed up yet.
// OK == false means absent, V must not be read as zero.
type Value struct {
	V  float64 `json:"v"`
	OK bool    `json:"ok"`
}

// Some wraps a defined value
func Some(v float64) Value {
	return Value{V: v, OK: true}
}

// AnnotatedBar is a Bar with every indicator the squeeze strategy reads
type AnnotatedBar struct {
	Bar

	BBMid   Value `json:"bb_mid"`
	BBUpper Value `json:"bb_upper"`
	BBLower Value `json:"bb_lower"`
	BBWidth Value `json:"bb_width"` // (upper-lower)/mid

	KeltnerMid   Value `json:"keltner_mid"`
	KeltnerUpper Value `json:"keltner_upper"`
	KeltnerLower Value `json:"keltner_lower"`
	ATR          Value `json:"atr"`

	MAFast Value `json:"ma_fast"`
	MASlow Value `json:"ma_slow"`

	VolumeSMA Value `json:"volume_sma"`

	RSI     Value `json:"rsi"`
	PlusDI  Value `json:"plus_di"`
	MinusDI Value `json:"minus_di"`
	ADX     Value `json:"adx"`
}

// VolumeRatio returns volume / volume SMA
func (b AnnotatedBar) VolumeRatio() Value {
	if !b.VolumeSMA.OK || b.VolumeSMA.V <= 0 {
		return Value{}
	}
	return Some(b.Volume / b.VolumeSMA.V)
}

// Direction of a breakout
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Signal is the first breakout after a squeeze episode.
// A nil *Signal means no signal.
type Signal struct {
	Direction Direction    `json:"direction"`
	Bar       AnnotatedBar `json:"bar"`  // triggering (most recent closed) bar
	Prev      AnnotatedBar `json:"prev"` // bar immediately before the trigger
}

// SqueezeParams holds every strategy parameter. It is passed by value and
// never mutated during computation.
type SqueezeParams struct {
	BBPeriod int     `toml:"bb_period"`
	BBStdDev float64 `toml:"bb_std"`

	ATRPeriod      int     `toml:"atr_period"`
	KeltnerATRMult float64 `toml:"keltner_atr_mult"`

	VolSMAWindow int     `toml:"vol_sma_win"`
	VolMinMult   float64 `toml:"vol_min_mult"`

	UseMAFilter bool `toml:"use_ma_filter"`
	MAFast      int  `toml:"ma_fast"`
	MASlow      int  `toml:"ma_slow"`

	UseRSIFilter bool    `toml:"use_rsi_filter"`
	RSIPeriod    int     `toml:"rsi_period"`
	RSILongMin   float64 `toml:"rsi_long_min"`
	RSIShortMax  float64 `toml:"rsi_short_max"`

	UseADXFilter bool    `toml:"use_adx_filter"`
	ADXPeriod    int     `toml:"adx_period"`
	ADXMin       float64 `toml:"adx_min"`

	// MinBars is the shortest series the detector will evaluate
	MinBars int `toml:"min_bars"`
}

// DefaultSqueezeParams returns the stock squeeze settings
func DefaultSqueezeParams() SqueezeParams {
	return SqueezeParams{
		BBPeriod:       20,
		BBStdDev:       2.0,
		ATRPeriod:      20,
		KeltnerATRMult: 1.5,
		VolSMAWindow:   20,
		VolMinMult:     1.3,
		UseMAFilter:    true,
		MAFast:         20,
		MASlow:         50,
		UseRSIFilter:   true,
		RSIPeriod:      14,
		RSILongMin:     55,
		RSIShortMax:    45,
		UseADXFilter:   true,
		ADXPeriod:      14,
		ADXMin:         20,
		MinBars:        50,
	}
}

// AlertRecord is one journaled alert
type AlertRecord struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	BarTime   time.Time `json:"bar_time"`
	Direction Direction `json:"direction"`
	Close     float64   `json:"close"`
	SentAt    time.Time `json:"sent_at"`
}
