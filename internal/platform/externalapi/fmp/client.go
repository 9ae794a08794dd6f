package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"stock_sync/internal/shared/ratelimiter"
)

// errInvalidJSON marks a 2xx response whose body is not JSON; it is retried like a transport error.
var errInvalidJSON = errors.New("fmp: response is not valid JSON")

// Client is a stateless gateway to the provider. It owns retry/backoff and batching;
// it never returns errors to callers; exhausted retries degrade to an empty result.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// NewClient creates a Client. limiter may be nil.
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	return &Client{cfg: cfg.withDefaults(), client: client, limiter: limiter}
}

func (c *Client) buildURL(path string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	q.Set("apikey", c.cfg.APIKey)
	return fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, q.Encode())
}

// backoffPolicy yields InitialBackoff, 2x, 4x ... between at most MaxAttempts attempts.
func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.InitialBackoff << uint(c.cfg.MaxAttempts)
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)
}

// fetch GETs path and decodes the JSON body into out. It reports false when no data could
// be obtained: every attempt failed, or the body did not match out's shape.
func (c *Client) fetch(ctx context.Context, path string, params url.Values, out any) bool {
	u := c.buildURL(path, params)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		if c.limiter != nil {
			c.limiter.WaitIfNeeded()
		}
		data, err := c.get(ctx, u)
		if err != nil {
			return err
		}
		body = data
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("provider request failed, retrying",
			"path", path, "attempt", attempt, "max_attempts", c.cfg.MaxAttempts, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, c.backoffPolicy(ctx), notify); err != nil {
		slog.Error("provider request failed, giving up", "path", path, "attempts", attempt, "error", err)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		slog.Error("provider response has unexpected shape", "path", path, "error", err)
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("fmp http %d", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}
	return data, nil
}
