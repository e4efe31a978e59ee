// Package server exposes the conversion engine over HTTP.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
)

// Option configures a Server.
type Option func(*Server)

// WithRateLimit allows each client rps requests per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = newLimiter(rps, burst, 10*time.Minute)
	}
}

// WithBatchConcurrency bounds the goroutines one batch request may use.
func WithBatchConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithRegistry sets the prometheus registry metrics are registered on and
// served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// Server serves the /api/v1 endpoints.
type Server struct {
	conv         *caltz.Converter
	logger       *slog.Logger
	metrics      *Metrics
	registry     *prometheus.Registry
	limiter      *limiter
	batchWorkers int
	now          func() time.Time
}

// NewWithLogger creates a Server over conv.
func NewWithLogger(conv *caltz.Converter, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		conv:         conv,
		logger:       logger,
		limiter:      newLimiter(20, 40, 10*time.Minute),
		batchWorkers: 8,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.wrap)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route(api.Prefix, func(r chi.Router) {
		r.Use(s.rateLimit)
		s.Register(r)
	})
	return r
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/convert", s.handleConvert)
	r.Post("/convert/batch", s.handleBatch)
	r.Get("/offset", s.handleOffset)
	r.Get("/seconds", s.handleSeconds)
	r.Get("/leap", s.handleLeap)
	r.Post("/add", s.handleAdd)
	r.Get("/now", s.handleNow)
	r.Get("/zones", s.handleZones)
	r.Get("/calendars", s.handleCalendars)
}

// wrap adds request ids, security headers, panic recovery, access logging
// and request metrics.
func (s *Server) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				writeError(ww, fmt.Errorf("panic: %v", err))
			}

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			s.metrics.ObserveRequest(route, ww.Status(), start)
			s.logger.Debug("request completed",
				"request_id", requestID,
				"method", r.Method,
				"route", route,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds())
		}()

		ww.Header().Set("X-Frame-Options", "DENY")
		ww.Header().Set("X-Content-Type-Options", "nosniff")
		ww.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if clockDependent(r) {
			ww.Header().Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip, s.now()) {
			s.metrics.IncrementRateLimited()
			s.logger.Warn("Rate limit exceeded",
				"request_id", w.Header().Get("X-Request-ID"),
				"client_ip", ip,
				"user_agent", r.Header.Get("User-Agent"))
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, api.ErrorResponse{
				Error:            "rate_limited",
				ErrorDescription: "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clockDependent reports whether the answer to r depends on the current time.
func clockDependent(r *http.Request) bool {
	switch strings.TrimPrefix(r.URL.Path, api.Prefix) {
	case "/now", "/zones":
		return true
	case "/offset":
		return r.URL.Query().Get("at") == ""
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
