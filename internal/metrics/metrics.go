// Package metrics exposes Prometheus collectors for the gateway and crawler services.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invocation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	httpRequestsTotal                   *prometheus.CounterVec
	httpRequestDurationSeconds          *prometheus.HistogramVec
	capabilityInvocationsTotal          *prometheus.CounterVec
	capabilityInvocationDurationSeconds *prometheus.HistogramVec
	capabilityRecordsTotal              *prometheus.CounterVec
	fetchesTotal                        *prometheus.CounterVec
	fetchBytesTotal                     *prometheus.CounterVec
	mountedRouters                      prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"method", "route"},
		)

		capabilityInvocationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capability_invocations_total",
				Help: "Total number of capability provider invocations, labeled by capability and outcome.",
			},
			[]string{"capability", "outcome"},
		)

		capabilityInvocationDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capability_invocation_duration_seconds",
				Help:    "Histogram of capability provider latencies, labeled by capability.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"capability"},
		)

		capabilityRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capability_records_total",
				Help: "Total number of records returned by successful invocations, labeled by capability.",
			},
			[]string{"capability"},
		)

		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetches_total",
				Help: "Total number of page fetches, labeled by site, fetcher and outcome.",
			},
			[]string{"site", "fetcher", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		mountedRouters = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_mounted_routers",
				Help: "Number of capability routers mounted by the gateway.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveInvocation records one provider invocation.
func ObserveInvocation(capability, outcome string, records int, duration time.Duration) {
	Init()
	capabilityInvocationsTotal.WithLabelValues(capability, outcome).Inc()
	capabilityInvocationDurationSeconds.WithLabelValues(capability).Observe(duration.Seconds())
	if records > 0 {
		capabilityRecordsTotal.WithLabelValues(capability).Add(float64(records))
	}
}

// ObserveFetch records one page fetch.
func ObserveFetch(site, fetcher, outcome string, bytesFetched int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	fetchesTotal.WithLabelValues(sanitizedSite, fetcher, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// SetMountedRouters reports how many routers the gateway mounted.
func SetMountedRouters(n int) {
	Init()
	mountedRouters.Set(float64(n))
}
