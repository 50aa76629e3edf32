package models

import (
	"context"
	"time"
)

// BarSource fetches closed bars for one instrument, oldest first
type BarSource interface {
	GetBars(ctx context.Context, symbol string, tf Timeframe, limit int) ([]Bar, error)
}

// Notifier delivers a rendered alert
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Journal remembers which trigger bars were already alerted
type Journal interface {
	Seen(ctx context.Context, symbol, timeframe string, barTime time.Time) (bool, error)
	Record(ctx context.Context, rec AlertRecord) error
}
