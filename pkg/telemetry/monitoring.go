package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Monitoring bridges the OpenTelemetry parse instruments and the HTTP server
// metrics onto one Prometheus registry.
type Monitoring struct {
	registry *prom.Registry
	provider *sdkmetric.MeterProvider

	httpRequestsTotal   *prom.CounterVec
	httpRequestDuration *prom.HistogramVec
	tableReloads        *prom.CounterVec
}

// NewMonitoring creates a Prometheus registry fed by an OpenTelemetry meter
// provider. Call SetAsGlobal to route RecordParse into it.
func NewMonitoring(ctx context.Context, cfg Config) (*Monitoring, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := &Monitoring{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res)),
		httpRequestsTotal: prom.NewCounterVec(
			prom.CounterOpts{
				Name: "whois_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prom.NewHistogramVec(
			prom.HistogramOpts{
				Name:    "whois_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prom.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		tableReloads: prom.NewCounterVec(
			prom.CounterOpts{
				Name: "whois_table_reloads_total",
				Help: "Total number of alias table reload attempts by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.tableReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m, nil
}

// SetAsGlobal installs the meter provider as the global OpenTelemetry provider.
func (m *Monitoring) SetAsGlobal() {
	otel.SetMeterProvider(m.provider)
}

// Registry returns the Prometheus registry.
func (m *Monitoring) Registry() *prom.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Monitoring) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request.
func (m *Monitoring) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTablesReload records an alias table reload attempt.
func (m *Monitoring) RecordTablesReload(status string) {
	m.tableReloads.WithLabelValues(status).Inc()
}

// Shutdown flushes and stops the meter provider.
func (m *Monitoring) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// Middleware records request counts and latency per endpoint.
func (m *Monitoring) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.RecordHTTPRequest(r.Method, endpointName(r.URL.Path), strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// endpointName bounds label cardinality to the routes the server exposes.
func endpointName(path string) string {
	switch path {
	case "/v1/parse":
		return "parse"
	case "/healthz":
		return "health"
	case "/metrics":
		return "metrics"
	default:
		return "unknown"
	}
}
