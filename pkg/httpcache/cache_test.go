package httpcache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheExpiry(t *testing.T) {
	c, err := New(context.Background(), "", time.Hour, discard())
	require.NoError(t, err)

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := Key(http.MethodGet, "http://x/api/v1/calendars", nil)
	c.Set(key, []byte("a"), "application/json")
	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), e.Data)
	assert.Equal(t, "application/json", e.ContentType)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	a := Key(http.MethodPost, "http://x/convert", []byte(`{"a":1}`))
	assert.Equal(t, a, Key(http.MethodPost, "http://x/convert", []byte(`{"a":1}`)))
	assert.NotEqual(t, a, Key(http.MethodPost, "http://x/convert", []byte(`{"a":2}`)))
	assert.NotEqual(t, a, Key(http.MethodGet, "http://x/convert", []byte(`{"a":1}`)))
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := New(ctx, dir, time.Hour, discard())
	require.NoError(t, err)
	c.Set("k", []byte("v"), "text/plain")
	require.NoError(t, c.Close())

	reopened, err := New(ctx, dir, time.Hour, discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() }) //nolint:errcheck // test cleanup
	e, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), e.Data)
}

func TestNewRejectsZeroTTL(t *testing.T) {
	_, err := New(context.Background(), "", 0, discard())
	assert.Error(t, err)
}

func TestClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/now":
			w.Header().Set("Cache-Control", "no-store")
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test echo
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(append([]byte(r.URL.Path+":"), body...)) //nolint:errcheck // test
	}))
	t.Cleanup(srv.Close)

	cache, err := New(context.Background(), "", time.Hour, discard())
	require.NoError(t, err)
	client := NewClient(cache, srv.Client(), discard())

	get := func(path, body string) (string, bool, int) {
		t.Helper()
		method := http.MethodGet
		var rdr io.Reader = http.NoBody
		if body != "" {
			method = http.MethodPost
			rdr = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, rdr)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(data), resp.Header.Get("X-From-Cache") == "true", resp.StatusCode
	}

	body, cached, _ := get("/calendars", "")
	assert.Equal(t, "/calendars:", body)
	assert.False(t, cached)
	body, cached, _ = get("/calendars", "")
	assert.Equal(t, "/calendars:", body)
	assert.True(t, cached)
	assert.EqualValues(t, 1, hits.Load())

	body, cached, _ = get("/convert", `{"a":1}`)
	assert.Equal(t, `/convert:{"a":1}`, body)
	assert.False(t, cached)
	_, cached, _ = get("/convert", `{"a":1}`)
	assert.True(t, cached)
	_, cached, _ = get("/convert", `{"a":2}`)
	assert.False(t, cached)
	assert.EqualValues(t, 3, hits.Load())

	get("/now", "")
	_, cached, _ = get("/now", "")
	assert.False(t, cached)

	get("/fail", "")
	_, cached, code := get("/fail", "")
	assert.False(t, cached)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.EqualValues(t, 7, hits.Load())
}

func TestClientWithoutCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(nil, srv.Client(), discard())
	for range 2 {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	assert.EqualValues(t, 2, hits.Load())
}
