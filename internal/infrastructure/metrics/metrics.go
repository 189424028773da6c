package metrics

import (
	"net/http"
	"strconv"
	"time"

	"subete-shopify-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subete"

// Metrics holds the Prometheus collectors of the service on a private registry
type Metrics struct {
	registry *prometheus.Registry

	installs          *prometheus.CounterVec
	enrollments       *prometheus.CounterVec
	campaignsCreated  prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpRequestLength *prometheus.HistogramVec
}

var _ ports.Metrics = (*Metrics)(nil)

// New registers every collector, plus the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installs_total",
			Help:      "Completed OAuth installs by outcome.",
		}, []string{"outcome"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participant_enrollments_total",
			Help:      "Campaign enrollment attempts by outcome.",
		}, []string{"outcome"}),
		campaignsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaigns_created_total",
			Help:      "Campaigns created.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.installs,
		m.enrollments,
		m.campaignsCreated,
		m.httpRequests,
		m.httpRequestLength,
	)
	return m
}

func (m *Metrics) InstallFinished(outcome string) {
	m.installs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ParticipantEnrolled(outcome string) {
	m.enrollments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CampaignCreated() {
	m.campaignsCreated.Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestLength.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry exposes the registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
