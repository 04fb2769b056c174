package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
)

const metricsNamespace = "tracker"

// appMetrics owns a private registry so several servers can coexist in one
// process (tests).
type appMetrics struct {
	started  time.Time
	registry *prometheus.Registry

	mutations          *prometheus.CounterVec
	validationFailures prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

func newAppMetrics(limiter *ratelimit.Limiter, detector *security.Detector, tracer *trace.Middleware) *appMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)
	started := time.Now()

	m := &appMetrics{
		started:  started,
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_mutations_total",
			Help:      "Committed ledger mutations by operation.",
		}, []string{"operation"}),
		validationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "form_validation_failures_total",
			Help:      "Submits rejected by form validation.",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"code", "method"}),
	}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Ledger writes rejected by the rate limiter.",
	}, func() float64 { return float64(limiter.GetMetrics().Rejected) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "rate_limit_active_clients",
		Help:      "Client addresses currently tracked by the rate limiter.",
	}, func() float64 { return float64(limiter.ActiveClients()) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "suspicious_requests_total",
		Help:      "Requests flagged by the security detector.",
	}, func() float64 { return float64(detector.GetMetrics().SuspiciousRequests) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "invalid_forwarded_ip_total",
		Help:      "Unparseable X-Forwarded-For addresses from trusted proxies.",
	}, func() float64 { return float64(detector.GetMetrics().InvalidIPAttempts) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "server_errors_total",
		Help:      "Responses with a 5xx status.",
	}, func() float64 { return float64(tracer.GetMetrics().ServerErrors) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the server started.",
	}, func() float64 { return time.Since(started).Seconds() })

	return m
}

func (m *appMetrics) mutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// instrument records request latency by status code and method.
func (m *appMetrics) instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(m.requestDuration, next)
}

func (m *appMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
