// Package metrics exposes Prometheus instrumentation for provider attempts,
// generated signals, cycles and the socket hub.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/th3rrry/minees/internal/collector"
	"github.com/th3rrry/minees/internal/model"
)

const namespace = "minees"

// Recorder implements collector.Observer and scheduler.Observer.
type Recorder struct {
	reg *prometheus.Registry

	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	signals         *prometheus.CounterVec
	confidence      *prometheus.GaugeVec
	cycleDuration   *prometheus.HistogramVec
	lastCycle       *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, including the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Provider tier calls by outcome.",
		}, []string{"provider", "kind", "outcome"}),
		attemptDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Provider tier call duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider", "kind"}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Generated signals by group, path and direction.",
		}, []string{"group", "path", "direction"}),
		confidence: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_confidence",
			Help:      "Confidence of the latest signal per instrument.",
		}, []string{"pair"}),
		cycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Generation cycle duration per group.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"group"}),
		lastCycle: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed cycle per group.",
		}, []string{"group"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "method"}),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) ObserveAttempt(a collector.Attempt) {
	outcome := "ok"
	if !a.OK() {
		outcome = "error"
	}
	r.attempts.WithLabelValues(a.Provider, string(a.Kind), outcome).Inc()
	r.attemptDuration.WithLabelValues(a.Provider, string(a.Kind)).Observe(a.Duration.Seconds())
}

func (r *Recorder) ObserveSignal(group string, sig model.Signal) {
	r.signals.WithLabelValues(group, string(sig.Path), string(sig.Direction)).Inc()
	r.confidence.WithLabelValues(sig.Pair).Set(float64(sig.Confidence))
}

func (r *Recorder) ObserveCycle(group string, took time.Duration) {
	r.cycleDuration.WithLabelValues(group).Observe(took.Seconds())
	r.lastCycle.WithLabelValues(group).SetToCurrentTime()
}

// GaugeFunc registers a gauge sampled from fn at scrape time.
func (r *Recorder) GaugeFunc(name, help string, fn func() float64) {
	promauto.With(r.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Middleware records request counts and latency per matched route.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			r.httpRequests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			r.httpDuration.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
