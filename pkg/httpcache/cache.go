// Package httpcache caches calTZ API responses in memory and, optionally, on
// disk between runs.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const fileName = "caltz-responses.gob"

// Entry is one cached response body.
type Entry struct {
	ExpiresAt   time.Time
	ContentType string
	Data        []byte
}

// Cache stores response bodies keyed by method, URL and request body. With a
// directory it is loaded on creation and saved periodically and on Close.
type Cache struct {
	entries    *otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
	now        func() time.Time
}

// New creates a cache. An empty dir keeps the cache in memory only.
func New(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %v", ttl)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	c := &Cache{
		entries: otter.Must(&otter.Options[string, Entry]{
			MaximumSize:      20_000,
			InitialCapacity:  256,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
		}),
		dir:    dir,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	if dir == "" {
		return c, nil
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load cache from disk", "error", err)
	}
	logger.Debug("cache initialized", "dir", dir, "entries_loaded", c.entries.EstimatedSize())

	c.startPeriodicSave(ctx)
	return c, nil
}

// Key derives the cache key for a request.
func Key(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live entry for key.
func (c *Cache) Get(key string) (Entry, bool) {
	e, ok := c.entries.GetIfPresent(key)
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.entries.Invalidate(key)
		return Entry{}, false
	}
	return e, true
}

// Set stores data under key for the cache ttl.
func (c *Cache) Set(key string, data []byte, contentType string) {
	c.entries.Set(key, Entry{
		Data:        data,
		ContentType: contentType,
		ExpiresAt:   c.now().Add(c.ttl),
	})
}

// Len returns the approximate number of entries.
func (c *Cache) Len() int {
	return c.entries.EstimatedSize()
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, fileName)
}

func (c *Cache) load() error {
	f, err := os.Open(c.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.logger.Debug("failed to close cache file", "error", err)
		}
	}()

	var saved map[string]Entry
	if err := gob.NewDecoder(f).Decode(&saved); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := c.now()
	live := 0
	for k, e := range saved {
		if now.Before(e.ExpiresAt) {
			c.entries.Set(k, e)
			live++
		}
	}
	c.logger.Debug("loaded cache from disk", "path", c.path(), "total", len(saved), "live", live)
	return nil
}

// Save writes live entries to disk. It is a no-op for memory-only caches.
func (c *Cache) Save() error {
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := c.path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("failed to remove temp file", "error", err)
		}
	}()

	now := c.now()
	live := make(map[string]Entry)
	for k, e := range c.entries.All() {
		if now.Before(e.ExpiresAt) {
			live[k] = e
		}
	}

	if err := gob.NewEncoder(f).Encode(live); err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding cache file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path()); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("cache saved to disk", "entries", len(live), "path", c.path())
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.Save(); err != nil {
					c.logger.Error("periodic cache save failed", "error", err)
				}
			}
		}
	}()
}

// Close stops periodic saving and writes the cache one last time.
func (c *Cache) Close() error {
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()
	return c.Save()
}

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps a Doer and serves repeated GET and POST requests from the
// cache. Only 200 responses are stored, and never those marked no-store.
type Client struct {
	cache  *Cache
	next   Doer
	logger *slog.Logger
}

// NewClient returns a caching Client. A nil cache passes every request
// through.
func NewClient(cache *Cache, next Doer, logger *slog.Logger) *Client {
	return &Client{cache: cache, next: next, logger: logger}
}

// Do implements Doer. Cached responses carry an X-From-Cache header.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || (req.Method != http.MethodGet && req.Method != http.MethodPost) {
		return c.next.Do(req)
	}

	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			c.logger.Debug("failed to close request body", "error", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	key := Key(req.Method, req.URL.String(), body)
	if e, ok := c.cache.Get(key); ok {
		c.logger.Debug("cache hit", "method", req.Method, "url", req.URL.String())
		resp := &http.Response{
			Status:        "200 OK",
			StatusCode:    http.StatusOK,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        make(http.Header),
			Body:          io.NopCloser(bytes.NewReader(e.Data)),
			ContentLength: int64(len(e.Data)),
			Request:       req,
		}
		resp.Header.Set("X-From-Cache", "true")
		if e.ContentType != "" {
			resp.Header.Set("Content-Type", e.ContentType)
		}
		return resp, nil
	}

	resp, err := c.next.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || noStore(resp.Header) {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		c.logger.Debug("failed to close response body", "error", err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.cache.Set(key, data, resp.Header.Get("Content-Type"))
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func noStore(h http.Header) bool {
	for _, v := range h.Values("Cache-Control") {
		for _, d := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(d), "no-store") {
				return true
			}
		}
	}
	return false
}
