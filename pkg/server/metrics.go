package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

// Metrics provides observability for the HTTP surface.
type Metrics struct {
	// Request latency by route pattern
	RequestLatency *prometheus.HistogramVec

	// Responses by route pattern and status code
	Responses *prometheus.CounterVec

	// Conversion outcomes: "ok", "invalid_argument", "invalid_format", ...
	Conversions *prometheus.CounterVec

	// Day shifts applied by date-time conversions
	DayShifts *prometheus.CounterVec

	// Requests rejected by the rate limiter
	RateLimited prometheus.Counter
}

// NewMetrics registers the server metrics, plus Go runtime and process
// collectors, on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caltz_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"route"}),

		Responses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caltz_http_responses_total",
			Help: "Total HTTP responses by route and status code",
		}, []string{"route", "code"}),

		Conversions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caltz_conversions_total",
			Help: "Total calendar conversions by outcome",
		}, []string{"outcome"}),

		DayShifts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caltz_day_shifts_total",
			Help: "Day-boundary corrections applied by date-time conversions",
		}, []string{"shift"}),

		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "caltz_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, code int, start time.Time) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.Responses.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

// IncrementConversion records a conversion outcome.
func (m *Metrics) IncrementConversion(outcome string) {
	if m != nil {
		m.Conversions.WithLabelValues(outcome).Inc()
	}
}

// IncrementDayShift records the shift a date-time conversion applied.
func (m *Metrics) IncrementDayShift(shift tzconvert.DayShift) {
	if m != nil {
		m.DayShifts.WithLabelValues(strconv.Itoa(int(shift))).Inc()
	}
}

// IncrementRateLimited records a rejected request.
func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
