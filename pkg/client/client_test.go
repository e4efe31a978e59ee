package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/httpcache"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
	"github.com/codeGROOVE-dev/calTZ/pkg/server"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	reg, err := profile.Default()
	require.NoError(t, err)
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	conv := caltz.New(reg, caltz.WithClock(func() time.Time { return now }))
	srv := httptest.NewServer(server.NewWithLogger(conv, discard(), server.WithRateLimit(0, 0)).Handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, append([]Option{WithLogger(discard()), WithRetry(2, time.Millisecond)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://")
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	dt := civil.DateTime{Date: civil.Date{Year: 2022, Month: 3, Day: 25}, Time: civil.Time{Hour: 13, Minute: 47}}
	resp, err := c.Convert(ctx, api.ConvertRequest{
		DateTime: &dt,
		From:     caltz.Side{Calendar: "gregorian", Zone: "UTC"},
		To:       caltz.Side{Calendar: "khorshidi", Locale: "en", Zone: "Asia/Tehran"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.DateTime)
	assert.Equal(t, "1401-01-05T18:17:00", resp.DateTime.Text)

	d := civil.Date{Year: 2021, Month: 3, Day: 21}
	items, err := c.ConvertBatch(ctx, []api.ConvertRequest{{
		Date: &d,
		From: caltz.Side{Calendar: "gregorian", Zone: "UTC"},
		To:   caltz.Side{Calendar: "khorshidi", Zone: "UTC"},
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Date)
	assert.Equal(t, civil.Date{Year: 1400, Month: 1, Day: 1}, items[0].Date.Value)

	off, err := c.Offset(ctx, "UTC", "Asia/Tehran", time.Date(2021, time.April, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 16200, off.Seconds)

	secs, err := c.Seconds(ctx, "+03:30")
	require.NoError(t, err)
	assert.Equal(t, 12600, secs)

	leap, err := c.Leap(ctx, 1403, "khorshidi", "")
	require.NoError(t, err)
	assert.True(t, leap)

	added, err := c.Add(ctx, api.AddRequest{Date: civil.Date{Year: 1400, Month: 12, Day: 29}, Calendar: "khorshidi", Days: 1})
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1401, Month: 1, Day: 1}, added)

	now, err := c.Now(ctx, "gregorian", "", "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T21:00:00", now.Value.String())

	zones, err := c.Zones(ctx, "UTC")
	require.NoError(t, err)
	assert.NotEmpty(t, zones)

	cals, err := c.Calendars(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gregorian", "khorshidi"}, cals)
}

func TestErrorsMapToSentinels(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Seconds(ctx, "3:30")
	require.ErrorIs(t, err, sentinel.ErrInvalidFormat)
	assert.Equal(t, `invalid format: time: "3:30" is not HH:mm:ss or ±HH:mm[:ss]`, err.Error())

	_, err = c.Leap(ctx, 2024, "mayan", "")
	require.ErrorIs(t, err, sentinel.ErrInvalidArgument)
}

func TestRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"calendars":["gregorian"]}`)) //nolint:errcheck // test
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithLogger(discard()), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	cals, err := c.Calendars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gregorian"}, cals)
	assert.EqualValues(t, 3, hits.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_argument","error_description":"invalid argument: zone: zone is required"}`)) //nolint:errcheck // test
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithLogger(discard()), WithRetry(5, time.Millisecond))
	require.NoError(t, err)
	_, err = c.Zones(context.Background(), "")
	require.ErrorIs(t, err, sentinel.ErrInvalidArgument)
	assert.Equal(t, "invalid argument: zone: zone is required", err.Error())
	assert.EqualValues(t, 1, hits.Load())
}

func TestInternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error"}`)) //nolint:errcheck // test
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithLogger(discard()), WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	_, err = c.Calendars(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "internal_error", apiErr.Code)
}

func TestCachedClient(t *testing.T) {
	cache, err := httpcache.New(context.Background(), "", time.Hour, discard())
	require.NoError(t, err)
	c := newClient(t, WithCache(cache))
	ctx := context.Background()

	for range 2 {
		leap, err := c.Leap(ctx, 2024, "gregorian", "")
		require.NoError(t, err)
		assert.True(t, leap)
	}
	assert.Equal(t, 1, cache.Len())

	_, err = c.Now(ctx, "gregorian", "", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}
