package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "simuserver"

// DefaultBuckets are the request duration buckets in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds the collectors of one server instance.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	injectedErrors   prometheus.Counter
	wsConnections    prometheus.Gauge
	wsMessages       *prometheus.CounterVec
	routesRegistered prometheus.Gauge
	hostCPU          prometheus.Gauge
	hostMemory       prometheus.Gauge
	rps              prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
// uptime, if non-nil, backs the uptime gauge.
func New(uptime func() time.Duration) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds, including injected delay.",
			Buckets:   DefaultBuckets,
		}, []string{"method"}),
		injectedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injected_errors_total",
			Help:      "Requests answered with a simulated server error.",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open WebSocket connections.",
		}),
		wsMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_total",
			Help:      "Inbound WebSocket messages by channel.",
		}, []string{"channel"}),
		routesRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes_registered",
			Help:      "Routes currently registered from templates.",
		}),
		hostCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_cpu_percent",
			Help:      "System-wide CPU utilisation at the last sample.",
		}),
		hostMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_percent",
			Help:      "Memory utilisation at the last sample.",
		}),
		rps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_per_second",
			Help:      "Requests per second over the last window.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.injectedErrors,
		m.wsConnections,
		m.wsMessages,
		m.routesRegistered,
		m.hostCPU,
		m.hostMemory,
		m.rps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if uptime != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server was started.",
		}, func() float64 { return uptime().Seconds() }))
	}
	return m
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// IncInjectedErrors counts one simulated server error.
func (m *Metrics) IncInjectedErrors() {
	m.injectedErrors.Inc()
}

// SetWebSocketConnections sets the open connection gauge.
func (m *Metrics) SetWebSocketConnections(n int) {
	m.wsConnections.Set(float64(n))
}

// IncWebSocketMessages counts one inbound message on channel.
func (m *Metrics) IncWebSocketMessages(channel string) {
	m.wsMessages.WithLabelValues(channel).Inc()
}

// SetRoutesRegistered sets the route count gauge.
func (m *Metrics) SetRoutesRegistered(n int) {
	m.routesRegistered.Set(float64(n))
}

// SetHost records the latest host sample.
func (m *Metrics) SetHost(cpuPercent, memoryPercent, requestsPerSecond float64) {
	m.hostCPU.Set(cpuPercent)
	m.hostMemory.Set(memoryPercent)
	m.rps.Set(requestsPerSecond)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
