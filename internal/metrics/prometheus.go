package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	backendCalls        *prometheus.CounterVec
	backendDuration     *prometheus.HistogramVec
	sessionCache        *prometheus.CounterVec
	checkouts           *prometheus.CounterVec
	apiKeysRegenerated  prometheus.Counter
	notificationsRead   prometheus.Counter
	instanceTransitions *prometheus.CounterVec
}

// NewPrometheus registers the portal collectors plus Go and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Marketplace backend requests by operation and status code.",
		}, []string{"operation", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Marketplace backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		sessionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cache_lookups_total",
			Help:      "Session profile cache lookups by result.",
		}, []string{"result"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout submissions by result.",
		}, []string{"result"}),
		apiKeysRegenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_keys_regenerated_total",
			Help:      "API keys regenerated through the portal.",
		}),
		notificationsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_read_total",
			Help:      "Notifications marked as read.",
		}),
		instanceTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_transitions_total",
			Help:      "Instance start/stop/restart actions.",
		}, []string{"action"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.backendCalls,
		p.backendDuration,
		p.sessionCache,
		p.checkouts,
		p.apiKeysRegenerated,
		p.notificationsRead,
		p.instanceTransitions,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveBackendCall records a backend round trip. Status 0 means the call never got a response.
func (p *PrometheusRecorder) ObserveBackendCall(operation string, status int, duration time.Duration) {
	p.backendCalls.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	p.backendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncSessionCacheHit increments cache hit counter.
func (p *PrometheusRecorder) IncSessionCacheHit() {
	p.sessionCache.WithLabelValues("hit").Inc()
}

// IncSessionCacheMiss increments cache miss counter.
func (p *PrometheusRecorder) IncSessionCacheMiss() {
	p.sessionCache.WithLabelValues("miss").Inc()
}

// IncCheckout counts a checkout attempt by result.
func (p *PrometheusRecorder) IncCheckout(result string) {
	p.checkouts.WithLabelValues(result).Inc()
}

// IncAPIKeyRegenerated increments the regenerated key counter.
func (p *PrometheusRecorder) IncAPIKeyRegenerated() {
	p.apiKeysRegenerated.Inc()
}

// AddNotificationsRead adds to the read notifications counter.
func (p *PrometheusRecorder) AddNotificationsRead(n int) {
	if n > 0 {
		p.notificationsRead.Add(float64(n))
	}
}

// IncInstanceTransition counts an instance action.
func (p *PrometheusRecorder) IncInstanceTransition(action string) {
	p.instanceTransitions.WithLabelValues(action).Inc()
}
