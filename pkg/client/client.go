// Package client talks to a caltz-server over HTTP.
package client

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
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/httpcache"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// APIError is a non-2xx reply that does not map onto a sentinel kind.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("caltz server: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("caltz server: %d %s: %s", e.Status, e.Code, e.Description)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d httpcache.Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithCache serves repeated requests from cache.
func WithCache(cache *httpcache.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// Client is a caltz API client. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	doer     httpcache.Doer
	cache    *httpcache.Cache
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
}

// New returns a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:     u,
		doer:     &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
		attempts: 5,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache != nil {
		c.doer = httpcache.NewClient(c.cache, c.doer, c.logger)
	}
	return c, nil
}

// Convert performs one conversion.
func (c *Client) Convert(ctx context.Context, req api.ConvertRequest) (api.ConvertResponse, error) {
	var out api.ConvertResponse
	err := c.call(ctx, http.MethodPost, "/convert", nil, req, &out)
	return out, err
}

// ConvertBatch performs up to api.MaxBatch conversions in one request.
// Per-item failures are reported in the returned items.
func (c *Client) ConvertBatch(ctx context.Context, reqs []api.ConvertRequest) ([]api.BatchItem, error) {
	var out api.BatchResponse
	if err := c.call(ctx, http.MethodPost, "/convert/batch", nil, api.BatchRequest{Items: reqs}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Offset returns the offset of zone to relative to zone from at the given
// instant, or at the server's current time when at is zero.
func (c *Client) Offset(ctx context.Context, from, to string, at time.Time) (api.OffsetResponse, error) {
	q := url.Values{"from": {from}, "to": {to}}
	if !at.IsZero() {
		q.Set("at", at.Format(time.RFC3339))
	}
	var out api.OffsetResponse
	err := c.call(ctx, http.MethodGet, "/offset", q, nil, &out)
	return out, err
}

// Seconds parses an offset text such as "+03:30" into seconds.
func (c *Client) Seconds(ctx context.Context, text string) (int, error) {
	var out api.SecondsResponse
	if err := c.call(ctx, http.MethodGet, "/seconds", url.Values{"text": {text}}, nil, &out); err != nil {
		return 0, err
	}
	return out.Seconds, nil
}

// Leap reports whether year is a leap year in calendar.
func (c *Client) Leap(ctx context.Context, year int, calendar, locale string) (bool, error) {
	q := url.Values{"year": {strconv.Itoa(year)}, "calendar": {calendar}}
	if locale != "" {
		q.Set("locale", locale)
	}
	var out api.LeapResponse
	if err := c.call(ctx, http.MethodGet, "/leap", q, nil, &out); err != nil {
		return false, err
	}
	return out.Leap, nil
}

// Add shifts a date by years, months and days in its calendar.
func (c *Client) Add(ctx context.Context, req api.AddRequest) (civil.Date, error) {
	var out api.AddResponse
	if err := c.call(ctx, http.MethodPost, "/add", nil, req, &out); err != nil {
		return civil.Date{}, err
	}
	return out.Date, nil
}

// Now returns the server's current time in calendar and zone.
func (c *Client) Now(ctx context.Context, calendar, locale, zone string) (caltz.DateTimeResult, error) {
	q := url.Values{"calendar": {calendar}, "zone": {zone}}
	if locale != "" {
		q.Set("locale", locale)
	}
	var out api.ConvertResponse
	if err := c.call(ctx, http.MethodGet, "/now", q, nil, &out); err != nil {
		return caltz.DateTimeResult{}, err
	}
	if out.DateTime == nil {
		return caltz.DateTimeResult{}, errors.New("caltz server: empty now response")
	}
	return *out.DateTime, nil
}

// Zones returns every zone the server knows with its offset from ref.
func (c *Client) Zones(ctx context.Context, ref string) (map[string]string, error) {
	var out api.ZonesResponse
	if err := c.call(ctx, http.MethodGet, "/zones", url.Values{"ref": {ref}}, nil, &out); err != nil {
		return nil, err
	}
	return out.Zones, nil
}

// Calendars lists the calendar ids the server knows.
func (c *Client) Calendars(ctx context.Context) ([]string, error) {
	var out api.CalendarsResponse
	if err := c.call(ctx, http.MethodGet, "/calendars", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Calendars, nil
}

// call sends one request with retries and decodes the JSON reply into out.
// Network failures, 429 and 5xx replies are retried; other errors are not.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(api.Prefix, path)
	u.RawQuery = query.Encode()

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	start := time.Now()
	var data []byte
	err := retry.Do(
		func() error {
			var rdr io.Reader = http.NoBody
			if body != nil {
				rdr = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.doer.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()
			data, err = io.ReadAll(io.LimitReader(resp.Body, 16<<20))
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode == http.StatusOK {
				c.logger.Debug("caltz request completed",
					"method", method,
					"path", path,
					"cached", resp.Header.Get("X-From-Cache") == "true",
					"duration", time.Since(start))
				return nil
			}
			apiErr := decodeError(resp.StatusCode, data)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return apiErr
			}
			return retry.Unrecoverable(apiErr)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(c.delay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying caltz request",
				"path", path,
				"attempt", n+1,
				"error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// decodeError turns an error body back into the sentinel taxonomy where the
// code allows it.
func decodeError(status int, data []byte) error {
	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return &APIError{Status: status, Code: http.StatusText(status)}
	}
	switch body.Error {
	case "invalid_argument":
		return remote(sentinel.ErrInvalidArgument, body.ErrorDescription)
	case "invalid_format":
		return remote(sentinel.ErrInvalidFormat, body.ErrorDescription)
	default:
		return &APIError{Status: status, Code: body.Error, Description: body.ErrorDescription}
	}
}

func remote(kind error, desc string) error {
	return &sentinel.Error{Kind: kind, Msg: strings.TrimPrefix(desc, kind.Error()+": ")}
}
