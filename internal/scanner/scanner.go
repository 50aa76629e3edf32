// Package scanner runs the squeeze pipeline for every configured symbol.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/SqueezeAlert/internal/calculate"
	"github.com/Alias1177/SqueezeAlert/internal/format"
	"github.com/Alias1177/SqueezeAlert/internal/squeeze"
	"github.com/Alias1177/SqueezeAlert/models"
)

// Status of one symbol after a run
type Status string

const (
	StatusSignal   Status = "signal"
	StatusNoSignal Status = "no_signal"
	StatusSkipped  Status = "skipped"
	StatusError    Status = "error"
)

// Result is the outcome for one symbol
type Result struct {
	Symbol    string
	Status    Status
	Direction models.Direction
	Bars      int
	Reason    string // why the symbol was skipped
	Message   string
	Err       error
}

// Options configures a scan
type Options struct {
	Symbols       []string
	Timeframe     models.Timeframe
	MaxCandles    int
	MinSeriesLen  int
	Concurrency   int
	SkipIfNoFresh bool
	// SendEach alerts on every qualifying run, ignoring the journal
	SendEach bool

	Params models.SqueezeParams
	Format format.Options

	Clock func() time.Time
}

// Scanner evaluates symbols independently; one failing symbol never stops the others
type Scanner struct {
	source   models.BarSource
	notifier models.Notifier
	journal  models.Journal
	opts     Options
	logger   zerolog.Logger
}

// New creates a scanner. journal may be nil.
func New(source models.BarSource, notifier models.Notifier, journal models.Journal, opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scanner{
		source:   source,
		notifier: notifier,
		journal:  journal,
		opts:     opts,
		logger:   log.With().Str("component", "scanner").Logger(),
	}
}

// Run scans every symbol and returns results in symbol order
func (s *Scanner) Run(ctx context.Context) []Result {
	results := make([]Result, len(s.opts.Symbols))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, symbol := range s.opts.Symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			results[i] = s.scanSymbol(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string) Result {
	logger := s.logger.With().Str("symbol", symbol).Logger()
	res := Result{Symbol: symbol}

	fail := func(err error) Result {
		logger.Error().Err(err).Msg("Scan failed")
		res.Status = StatusError
		res.Err = err
		return res
	}
	skip := func(reason string) Result {
		logger.Info().Str("reason", reason).Msg("Skipped")
		res.Status = StatusSkipped
		res.Reason = reason
		return res
	}

	bars, err := s.source.GetBars(ctx, symbol, s.opts.Timeframe, s.opts.MaxCandles)
	if err != nil {
		return fail(fmt.Errorf("fetching bars: %w", err))
	}
	res.Bars = len(bars)

	if len(bars) == 0 || len(bars) < s.opts.MinSeriesLen {
		return skip(fmt.Sprintf("no fresh OHLCV (len=%d)", len(bars)))
	}
	if s.opts.SkipIfNoFresh && !models.Fresh(bars, s.opts.Timeframe, s.opts.Clock()) {
		return skip(fmt.Sprintf("stale data, last bar %s", bars[len(bars)-1].Time.Format(time.RFC3339)))
	}

	series, err := calculate.Annotate(bars, s.opts.Params)
	if err != nil {
		return fail(fmt.Errorf("computing indicators: %w", err))
	}

	sig, err := squeeze.Detect(series, s.opts.Params)
	if err != nil {
		return fail(fmt.Errorf("detecting breakout: %w", err))
	}
	if sig == nil {
		logger.Info().Msg("No signal")
		res.Status = StatusNoSignal
		return res
	}

	res.Direction = sig.Direction
	res.Message = format.Message(symbol, s.opts.Timeframe, sig, s.opts.Params, s.opts.Format)

	if s.journal != nil && !s.opts.SendEach {
		seen, err := s.journal.Seen(ctx, symbol, string(s.opts.Timeframe), sig.Bar.Time)
		if err != nil {
			logger.Warn().Err(err).Msg("Alert journal unavailable, sending anyway")
		} else if seen {
			return skip("already alerted for bar " + sig.Bar.Time.Format(time.RFC3339))
		}
	}

	if err := s.notifier.Send(ctx, res.Message); err != nil {
		return fail(fmt.Errorf("sending alert: %w", err))
	}
	logger.Info().Str("direction", string(sig.Direction)).Time("bar", sig.Bar.Time).Msg("Signal sent")
	res.Status = StatusSignal

	if s.journal != nil {
		rec := models.AlertRecord{
			Symbol:    symbol,
			Timeframe: string(s.opts.Timeframe),
			BarTime:   sig.Bar.Time,
			Direction: sig.Direction,
			Close:     sig.Bar.Close,
			SentAt:    s.opts.Clock(),
		}
		if err := s.journal.Record(ctx, rec); err != nil {
			logger.Warn().Err(err).Msg("Failed to record alert")
		}
	}

	return res
}
