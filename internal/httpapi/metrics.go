package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	ecosystem *prometheus.GaugeVec
	mutations *prometheus.CounterVec
}

func newAPIMetrics(reg *prometheus.Registry) *apiMetrics {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &apiMetrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamscore",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamscore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ecosystem: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "streamscore",
			Name:      "ecosystem_condition_index",
			Help:      "Most recent ecosystem condition index per scenario.",
		}, []string{"scenario"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamscore",
			Name:      "scenario_mutations_total",
			Help:      "Scenario mutations applied, by operation.",
		}, []string{"op"}),
	}
}

// instrument records request counts and latency under the matched route pattern.
func (m *apiMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *apiMetrics) observeIndex(scenarioID string, index float64) {
	if scenarioID == "" {
		return
	}
	m.ecosystem.WithLabelValues(scenarioID).Set(index)
}
