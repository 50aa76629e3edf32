package models

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is the bar interval name used in configuration (M15, M30, H1)
type Timeframe string

const (
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
)

var granularities = map[Timeframe]time.Duration{
	M15: 15 * time.Minute,
	M30: 30 * time.Minute,
	H1:  time.Hour,
}

// ParseTimeframe normalizes and checks a timeframe name
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := granularities[tf]; !ok {
		return "", fmt.Errorf("unsupported timeframe: %q", s)
	}
	return tf, nil
}

// Granularity returns the bar length, zero for unknown timeframes
func (tf Timeframe) Granularity() time.Duration {
	return granularities[tf]
}

// BinanceInterval maps the timeframe to a Binance kline interval
func (tf Timeframe) BinanceInterval() string {
	switch tf {
	case M15:
		return "15m"
	case M30:
		return "30m"
	case H1:
		return "1h"
	}
	return ""
}

// DropOpenBar removes trailing bars that have not closed yet at now
func DropOpenBar(bars []Bar, tf Timeframe, now time.Time) []Bar {
	g := tf.Granularity()
	for len(bars) > 0 && bars[len(bars)-1].Time.Add(g).After(now) {
		bars = bars[:len(bars)-1]
	}
	return bars
}

// Fresh reports whether the last bar closed no more than one bar length before now
func Fresh(bars []Bar, tf Timeframe, now time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	g := tf.Granularity()
	closedAt := bars[len(bars)-1].Time.Add(g)
	return !now.Before(closedAt) && now.Sub(closedAt) <= g
}
