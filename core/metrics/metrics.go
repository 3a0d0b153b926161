// Package metrics records request durations and handler panics with prometheus
package metrics

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/gestion/core/logger"
)

// Metrics holds all the available internal metrics
type Metrics struct {
	registry *prometheus.Registry

	// ResponseDurationsMilliseconds is the number of milliseconds it takes to
	// complete API responses.
	//
	// Labels: route (route path template), method (request HTTP method),
	// status_code (response HTTP status code)
	ResponseDurationsMilliseconds *prometheus.HistogramVec

	// HandlerPanicsTotal is the number of times HTTP request handlers have panicked.
	//
	// Labels: route (route path template), method (request HTTP method)
	HandlerPanicsTotal *prometheus.CounterVec
}

// New creates a Metrics struct with all recorders registered in a fresh registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ResponseDurationsMilliseconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "response_durations_milliseconds",
			Help:      "Time, in milliseconds, it took to respond to API requests",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route", "method", "status_code"}),
		HandlerPanicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "handler_panics_total",
			Help:      "Total number of HTTP handlers which have panicked while processing a request",
		}, []string{"route", "method"}),
	}
	m.registry.MustRegister(m.ResponseDurationsMilliseconds, m.HandlerPanicsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Handler returns the prometheus exposition handler for /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusWriter wraps an http.ResponseWriter and remembers the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the wrapped writer does
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// routeName returns the path template of the matched route, so that ids do
// not end up in label values
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return "unmatched"
}

// Middleware observes the duration of each request, writes an access log line
// and recovers from panics in the handler, which are answered with
// http.StatusInternalServerError.
func (m *Metrics) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeName(r)
		sw := &statusWriter{ResponseWriter: w}

		defer func() {
			rlog := logger.FromContext(r.Context())
			if recovery := recover(); recovery != nil {
				m.HandlerPanicsTotal.With(prometheus.Labels{"route": route, "method": r.Method}).Inc()
				rlog.Error(string(debug.Stack()))
				rlog.Errorf("panicked while handling request: %#v", recovery)
				if sw.status == 0 {
					sw.Header().Set("Content-Type", "application/json")
					sw.WriteHeader(http.StatusInternalServerError)
					fmt.Fprintln(sw, `{"error":"internal server error"}`)
				}
			}
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			duration := time.Since(start)
			m.ResponseDurationsMilliseconds.With(prometheus.Labels{
				"route":       route,
				"method":      r.Method,
				"status_code": strconv.Itoa(sw.status),
			}).Observe(float64(duration) / float64(time.Millisecond))
			rlog.Infof("%s %s %d %s", r.Method, r.URL.Path, sw.status, duration.Round(time.Microsecond))
		}()

		h.ServeHTTP(sw, r)
	})
}
