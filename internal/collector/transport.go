package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/net/html"
)

// maxBodySize bounds every response body read into memory.
const maxBodySize = 64 << 20

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ClientOptions configures a Client.
type ClientOptions struct {
	UserAgent      string
	AcceptLanguage string

	// Timeout bounds each attempt.
	Timeout time.Duration

	// Attempts is the total number of tries per request.
	Attempts int

	// Delay before the first retry; doubled after every failed attempt.
	Delay time.Duration

	Clock clock.Clock
}

// Client is a GET-only HTTP client with retries on transient failures:
// network errors and 429/500/502/503/504 responses.
type Client struct {
	hc   *http.Client
	opts ClientOptions
}

// NewClient wraps hc. A nil hc uses a new http.Client.
func NewClient(hc *http.Client, opts ClientOptions) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	return &Client{hc: hc, opts: opts}
}

// WithAcceptLanguage returns a copy of c sending lang as Accept-Language.
func (c *Client) WithAcceptLanguage(lang string) *Client {
	opts := c.opts
	opts.AcceptLanguage = lang
	return &Client{hc: c.hc, opts: opts}
}

// Get fetches rawURL with query merged into its query string.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	var body []byte
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			b, err := c.do(ctx, target)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		IsFatalError: func(err error) bool {
			if ctx.Err() != nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return false
		},
		NotifyFunc: func(err error, attempt int) {
			slog.Warn("request failed",
				"url", target,
				"attempt", attempt,
				"error", err,
			)
		},
		Attempts:    c.opts.Attempts,
		Delay:       c.opts.Delay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.opts.Clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		if last := retry.LastError(err); last != nil {
			return nil, last
		}
		return nil, err
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	body, err := c.Get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// GetHTML fetches rawURL and parses the body as HTML.
func (c *Client) GetHTML(ctx context.Context, rawURL string) (*html.Node, error) {
	body, err := c.Get(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.opts.AcceptLanguage)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
