// Package fetch performs HTTP GETs with a per-attempt timeout and bounded,
// jittered exponential backoff.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout     = 6 * time.Second
	DefaultAttempts    = 3
	DefaultBaseBackoff = 250 * time.Millisecond
	DefaultMaxBackoff  = 4 * time.Second
	DefaultJitter      = 150 * time.Millisecond

	maxBodyBytes = 4 << 20
)

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// NotFound reports a 404 or 410.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// Options tunes a Client. Zero fields take the defaults; a negative Jitter disables it.
type Options struct {
	Timeout     time.Duration
	Attempts    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	httpClient  *http.Client
	timeout     time.Duration
	attempts    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	jitter      time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:  opts.HTTPClient,
		timeout:     opts.Timeout,
		attempts:    opts.Attempts,
		baseBackoff: opts.BaseBackoff,
		maxBackoff:  opts.MaxBackoff,
		jitter:      opts.Jitter,
		sleep:       sleepCtx,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.attempts <= 0 {
		c.attempts = DefaultAttempts
	}
	if c.baseBackoff <= 0 {
		c.baseBackoff = DefaultBaseBackoff
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = DefaultMaxBackoff
	}
	if c.jitter < 0 {
		c.jitter = 0
	} else if opts.Jitter == 0 {
		c.jitter = DefaultJitter
	}
	return c
}

// IsRetriableStatus covers 408, 425, 429 and every 5xx.
func IsRetriableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooEarly ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// Backoff is the delay before retry number attempt (1-based), without jitter.
func (c *Client) Backoff(attempt int) time.Duration {
	d := c.baseBackoff
	for i := 1; i < attempt && d < c.maxBackoff; i++ {
		d *= 2
	}
	return min(d, c.maxBackoff)
}

func (c *Client) delay(attempt int) time.Duration {
	d := c.Backoff(attempt)
	if c.jitter > 0 {
		d += rand.N(c.jitter)
	}
	return d
}

// Get returns the body of a 2xx response. Timeouts, transport errors and
// retriable statuses are retried; anything else fails on the first attempt.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, retry, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.attempts {
			break
		}

		wait := c.delay(attempt)
		log.Debug().Err(err).Str("url", url).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying fetch")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, bool, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller gave up; retrying cannot help.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, IsRetriableStatus(resp.StatusCode), &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("read %s: %w", url, err)
	}
	return body, false, nil
}

// GetJSON fetches url and decodes the body into v. Malformed JSON is not retried.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// IsNotFound reports whether err is a 404/410 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NotFound()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
