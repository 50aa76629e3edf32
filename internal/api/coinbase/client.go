package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/SqueezeAlert/internal/platform/http"
	"github.com/Alias1177/SqueezeAlert/models"
)

const (
	defaultBaseURL = "https://api.exchange.coinbase.com"
	// Coinbase returns at most this many candles per request
	maxCandlesPerRequest = 300
	userAgent            = "SqueezeAlert/1.0"
)

// Client is the Coinbase Exchange candles client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// ClientOptions holds options for creating a new Coinbase client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
	Clock           func() time.Time
}

// NewClient creates a new Coinbase Exchange client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	// Apply defaults if not set
	if httpOpts.Timeout == 0 {
		httpOpts.Timeout = 20 * time.Second
	}
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 3
	}
	if options.BaseURL == "" {
		options.BaseURL = defaultBaseURL
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	return &Client{
		baseURL:    options.BaseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "coinbase_client").Logger(),
		now:        options.Clock,
	}
}

// GetBars fetches up to limit closed bars, oldest first. Requests are paged
// backwards when limit exceeds one response.
func (c *Client) GetBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	g := tf.Granularity()
	if g == 0 {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	// one spare page covers the forming bar and a short first page
	maxPages := (limit+maxCandlesPerRequest)/maxCandlesPerRequest + 1

	byTime := make(map[int64]models.Bar, limit+1)
	var end time.Time
	for pages := 0; len(byTime) < limit+1 && pages < maxPages; pages++ {
		page, err := c.fetchPage(ctx, symbol, g, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		added := 0
		oldest := page[0].Time
		for _, b := range page {
			if _, ok := byTime[b.Time.Unix()]; !ok {
				added++
			}
			byTime[b.Time.Unix()] = b
			if b.Time.Before(oldest) {
				oldest = b.Time
			}
		}
		if added == 0 {
			c.logger.Warn().Str("symbol", symbol).Time("end", end).Msg("Page added no new candles, stopping")
			break
		}
		if len(page) < maxCandlesPerRequest {
			break
		}
		end = oldest.Add(-g)
	}

	if len(byTime) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No candles in response")
		return nil, fmt.Errorf("empty data returned for %s", symbol)
	}

	bars := make([]models.Bar, 0, len(byTime))
	for _, b := range byTime {
		bars = append(bars, b)
	}

	// Sort bars by time (oldest first for proper calculations)
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	bars = models.DropOpenBar(bars, tf, c.now())
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(bars)).Msg("Fetched candles")
	return bars, nil
}

// fetchPage requests one page of candles ending at end, or the latest page
// when end is zero
func (c *Client) fetchPage(ctx context.Context, symbol string, g time.Duration, end time.Time) ([]models.Bar, error) {
	q := url.Values{}
	q.Set("granularity", strconv.Itoa(int(g.Seconds())))
	if !end.IsZero() {
		start := end.Add(-time.Duration(maxCandlesPerRequest-1) * g)
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
	}
	endpoint := fmt.Sprintf("%s/products/%s/candles?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	c.logger.Debug().Str("url", endpoint).Msg("Fetching candles")

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return parseCandles(body, symbol)
}

// parseCandles decodes rows of [time, low, high, open, close, volume]
func parseCandles(body []byte, symbol string) ([]models.Bar, error) {
	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("Coinbase API error: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("candle %d has %d fields, want 6", i, len(r))
		}
		bars = append(bars, models.Bar{
			Time:   time.Unix(int64(r[0]), 0).UTC(),
			Low:    r[1],
			High:   r[2],
			Open:   r[3],
			Close:  r[4],
			Volume: r[5],
			Symbol: symbol,
		})
	}
	return bars, nil
}
