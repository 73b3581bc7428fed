// Package alphavantage implements the Alpha Vantage market-data client.
// Alpha Vantage serves fundamentals, company overviews, dividends,
// insider transactions, shares outstanding, and news sentiment via a
// rate-limited REST API with API key authentication.
//
// Free tier: 25 requests/day.
// Docs: https://www.alphavantage.co/documentation
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/seenimoa/tickerdata/internal/infra"
)

const (
	defaultBaseURL    = "https://www.alphavantage.co/query"
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
)

// Soft-failure keys: a 2xx payload carrying any of these signals
// provider-side throttling or API misuse rather than data.
var softFailureKeys = []string{"Note", "Information", "Error Message"}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // initial backoff, doubled per retry
	RateLimit  int           // requests per RateWindow; 0 disables limiting
	RateWindow time.Duration
}

// Client is a rate-limited Alpha Vantage API client with retry and
// graceful degradation on persistent provider failures.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	limiter    *infra.RateLimiter
}

// New creates a Client, filling unset options with defaults.
func New(opts Options) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.backoff == 0 {
		c.backoff = defaultBackoff
	}
	if opts.RateLimit > 0 {
		c.limiter = infra.NewRateLimiter(opts.RateLimit, opts.RateWindow)
	}
	return c
}

// FetchJSON performs a GET against the provider with the given query
// parameters and returns the raw JSON document.
//
// A non-2xx response fails the attempt. A 2xx payload carrying a
// soft-failure key (throttle/misuse notice) also fails the attempt and
// is retried with exponential backoff. After all attempts fail the
// result degrades to an empty object with no error, so one throttled
// endpoint cannot sink an aggregated response; only context
// cancellation surfaces as an error.
func (c *Client) FetchJSON(ctx context.Context, query url.Values) (json.RawMessage, error) {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + q.Encode()

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	log.Printf("[alphavantage] fetch failed after %d attempts (function=%s): %v",
		attempts, query.Get("function"), lastErr)
	return json.RawMessage("{}"), nil
}

// fetchOnce performs a single attempt.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, _, err := infra.DoGet(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		// Arrays and other non-object payloads cannot carry a
		// soft-failure notice; pass them through as-is.
		if json.Valid(data) {
			return data, nil
		}
		return nil, fmt.Errorf("parse provider JSON: %w", err)
	}
	for _, key := range softFailureKeys {
		if note, ok := top[key]; ok {
			return nil, fmt.Errorf("provider soft failure: %s=%s", key, note)
		}
	}
	return data, nil
}

// pickFirst returns the first present, non-null value among the given
// keys. Providers are inconsistent about field naming across endpoints
// and plan tiers, so record extraction is alias-tolerant.
func pickFirst(obj map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
