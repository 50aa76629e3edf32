package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/SqueezeAlert/internal/platform/http"
	"github.com/Alias1177/SqueezeAlert/models"
)

const (
	baseURLProduction = "https://api.binance.com"
	maxKlinesLimit    = 1000
	defaultMaxRetries = 5
)

// ErrRateLimited is returned when Binance rejects a request for weight limits
var ErrRateLimited = errors.New("binance rate limit exceeded")

// ErrUnknownSymbol is returned for symbols Binance does not list
var ErrUnknownSymbol = errors.New("binance symbol not found")

// Client fetches spot klines through the go-binance library
type Client struct {
	spot   *binance.Client
	http   *httpClient.Client
	logger zerolog.Logger
	now    func() time.Time
}

// ClientOptions holds configuration specific to the Binance client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
	// InitialInterval is the first retry delay
	InitialInterval time.Duration
	Clock           func() time.Time
}

// NewClient creates a public-endpoint spot client
func NewClient(options ClientOptions) *Client {
	if options.MaxRetries == 0 {
		options.MaxRetries = defaultMaxRetries
	}
	hc := httpClient.NewClient(httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
		InitialInterval: options.InitialInterval,
	})

	spot := binance.NewClient("", "")
	spot.HTTPClient = hc.HTTPClient
	if options.BaseURL != "" {
		spot.BaseURL = options.BaseURL
	} else {
		spot.BaseURL = baseURLProduction
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	return &Client{
		spot:   spot,
		http:   hc,
		logger: log.With().Str("component", "binance_client").Logger(),
		now:    options.Clock,
	}
}

// GetBars fetches up to limit closed bars, oldest first
func (c *Client) GetBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	interval := tf.BinanceInterval()
	if interval == "" {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	// one extra for the bar that is still forming
	n := limit + 1
	if n > maxKlinesLimit {
		n = maxKlinesLimit
	}

	pair := PairSymbol(symbol)
	c.logger.Debug().Str("symbol", symbol).Str("pair", pair).Str("interval", interval).Int("limit", n).Msg("Fetching klines")

	var klines []*binance.Kline
	attempt := 0
	err := c.http.Retry(ctx, func() error {
		attempt++
		var err error
		klines, err = c.spot.NewKlinesService().Symbol(pair).Interval(interval).Limit(n).Do(ctx)
		if err != nil {
			c.logger.Debug().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("Klines request failed")
			if !retryableError(err) {
				return backoff.Permanent(err)
			}
		}
		return err
	})
	if err != nil {
		return nil, c.handleError(err, symbol)
	}

	bars := make([]models.Bar, 0, len(klines))
	for _, k := range klines {
		b, err := translateKline(k, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to translate kline for %s: %w", symbol, err)
		}
		bars = append(bars, b)
	}

	bars = models.DropOpenBar(bars, tf, c.now())
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched klines")
	return bars, nil
}

// PairSymbol maps an exchange-neutral symbol such as BTC-USD to the Binance
// pair BTCUSDT. Symbols without a dash are passed through upper-cased.
func PairSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	base, quote, ok := strings.Cut(s, "-")
	if !ok {
		return s
	}
	if quote == "USD" {
		quote = "USDT"
	}
	return base + quote
}

// retryableError reports whether a klines failure is transient. Transport
// errors are retried, API errors only for rate limits and server-side faults.
func retryableError(err error) bool {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.Code {
	case 0, -1000, -1001, -1003, -1007: // unparsed body, unknown, disconnected, too many requests, timeout
		return true
	}
	return false
}

func (c *Client) handleError(err error, symbol string) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		c.logger.Error().Str("symbol", symbol).Int64("code", apiErr.Code).Str("message", apiErr.Message).Msg("Binance API error")
		switch apiErr.Code {
		case -1003: // Too many requests
			return fmt.Errorf("%s: %w: %s", symbol, ErrRateLimited, apiErr.Message)
		case -1121: // Invalid symbol
			return fmt.Errorf("%s: %w: %s", symbol, ErrUnknownSymbol, apiErr.Message)
		}
	}
	return fmt.Errorf("fetching klines for %s: %w", symbol, err)
}

func translateKline(k *binance.Kline, symbol string) (models.Bar, error) {
	if k == nil {
		return models.Bar{}, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parsing open price '%s': %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parsing high price '%s': %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parsing low price '%s': %w", k.Low, err)
	}
	cls, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parsing close price '%s': %w", k.Close, err)
	}
	vol, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.Bar{}, fmt.Errorf("parsing volume '%s': %w", k.Volume, err)
	}

	return models.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cls,
		Volume: vol,
		Symbol: symbol,
	}, nil
}
