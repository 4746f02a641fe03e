// Package kucoin is the exchange fetch collaborator: a keyless client for
// KuCoin's public REST API supplying normalized OHLCV series and 24h
// tickers. Rate limiting and a circuit breaker keep the scan polite and
// resilient against venue hiccups.
package kucoin

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

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/altpilot/altpilot/internal/models"
)

const defaultBaseURL = "https://api.kucoin.com"

var timeframeTypes = map[models.Timeframe]string{
	models.TFDaily: "1day",
	models.TF4H:    "4hour",
	models.TF1H:    "1hour",
	models.TF15M:   "15min",
}

// Ticker is a 24h market summary for one symbol.
type Ticker struct {
	Symbol         string
	QuoteVolumeUSD float64
}

// Client fetches public market data.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a client with sensible public-API limits.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL builds a client against an explicit endpoint,
// mainly for tests.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(8), 8), // public endpoints allow ~10 rps
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "kucoin",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type envelope struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

// FetchCandles returns up to limit bars for one symbol and timeframe,
// oldest first with strictly increasing timestamps.
func (c *Client) FetchCandles(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.TimeframeSeries, error) {
	ktype, ok := timeframeTypes[tf]
	if !ok {
		return models.TimeframeSeries{}, fmt.Errorf("unsupported timeframe %q", tf)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("type", ktype)

	var raw [][]string
	if err := c.getJSON(ctx, "/api/v1/market/candles", q, &raw); err != nil {
		return models.TimeframeSeries{}, fmt.Errorf("fetch candles %s %s: %w", symbol, tf, err)
	}

	series := models.TimeframeSeries{Symbol: symbol, Timeframe: tf}
	for _, row := range raw {
		bar, err := parseCandle(row)
		if err != nil {
			return models.TimeframeSeries{}, &models.UpstreamDataError{
				Symbol: symbol, Timeframe: string(tf), Reason: err.Error(),
			}
		}
		series.Bars = append(series.Bars, bar)
	}
	// KuCoin returns newest first.
	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Timestamp.Before(series.Bars[j].Timestamp)
	})
	if len(series.Bars) > limit {
		series.Bars = series.Bars[len(series.Bars)-limit:]
	}
	if err := series.Validate(); err != nil {
		return models.TimeframeSeries{}, err
	}
	return series, nil
}

// AllTickers returns the 24h summary for every trading pair.
func (c *Client) AllTickers(ctx context.Context) ([]Ticker, error) {
	var payload struct {
		Ticker []struct {
			Symbol   string `json:"symbol"`
			VolValue string `json:"volValue"`
		} `json:"ticker"`
	}
	if err := c.getJSON(ctx, "/api/v1/market/allTickers", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch tickers: %w", err)
	}

	out := make([]Ticker, 0, len(payload.Ticker))
	for _, t := range payload.Ticker {
		vol, err := strconv.ParseFloat(t.VolValue, 64)
		if err != nil {
			continue // symbols without a parsable quote volume rank last anyway
		}
		out = append(out, Ticker{Symbol: t.Symbol, QuoteVolumeUSD: vol})
	}
	return out, nil
}

// getJSON performs a rate-limited, breaker-guarded GET with one retry.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 1200 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := c.breaker.Execute(func() (any, error) {
			return c.do(ctx, path, q)
		})
		if err != nil {
			lastErr = err
			continue
		}
		var env envelope
		if err := json.Unmarshal(body.([]byte), &env); err != nil {
			lastErr = fmt.Errorf("decode response: %w", err)
			continue
		}
		if env.Code != "200000" {
			lastErr = fmt.Errorf("kucoin error code %s", env.Code)
			continue
		}
		return json.Unmarshal(env.Data, dst)
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

// parseCandle decodes one KuCoin kline row:
// [time, open, close, high, low, volume, turnover], all strings.
func parseCandle(row []string) (models.OHLCVBar, error) {
	if len(row) < 6 {
		return models.OHLCVBar{}, fmt.Errorf("kline row has %d fields", len(row))
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.OHLCVBar{}, fmt.Errorf("bad timestamp %q", row[0])
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return models.OHLCVBar{}, fmt.Errorf("bad field %q", row[i])
		}
		fields[i-1] = v
	}
	return models.OHLCVBar{
		Timestamp: time.Unix(ts, 0).UTC(),
		Open:      fields[0],
		Close:     fields[1],
		High:      fields[2],
		Low:       fields[3],
		Volume:    fields[4],
	}, nil
}
