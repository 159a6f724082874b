package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors updated by the request handlers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	admissions       *prometheus.CounterVec
	validationErrors prometheus.Counter
	blocks           prometheus.Counter
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	archiveWrites    *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_admissions_total",
			Help:      "Upload submissions by admission outcome.",
		}, []string{"outcome"}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_validation_errors_total",
			Help:      "Submissions rejected by input validation.",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_blocks_total",
			Help:      "Clients blocked after repeated validation errors.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to the verification backend by endpoint and result.",
		}, []string{"endpoint", "result"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of requests to the verification backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		archiveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Quote archive writes by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{
		m.admissions, m.validationErrors, m.blocks,
		m.upstreamRequests, m.upstreamDuration, m.archiveWrites,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("could not register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) RecordAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordValidationError(blocked bool) {
	if m == nil {
		return
	}
	m.validationErrors.Inc()
	if blocked {
		m.blocks.Inc()
	}
}

// RecordUpstream counts one backend call. A nil err is recorded as "ok".
func (m *Metrics) RecordUpstream(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamRequests.WithLabelValues(endpoint, result).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordArchiveWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.archiveWrites.WithLabelValues("error").Inc()
		return
	}
	m.archiveWrites.WithLabelValues("ok").Inc()
}

// MetricsServer exposes a dedicated registry at /metrics.
type MetricsServer struct {
	Metrics *Metrics

	registry *prometheus.Registry
	srv      *http.Server
}

// New creates a metrics server listening on addr. Process and Go runtime
// collectors are registered alongside the service metrics.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := NewMetrics(namespace, registry)
	if err != nil {
		return nil, err
	}

	ms := &MetricsServer{
		Metrics:  m,
		registry: registry,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", ms.Handler())
	ms.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return ms, nil
}

func (ms *MetricsServer) Handler() http.Handler {
	return promhttp.HandlerFor(ms.registry, promhttp.HandlerOpts{Registry: ms.registry})
}

func (ms *MetricsServer) ListenAndServe() error {
	return ms.srv.ListenAndServe()
}

func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.srv.Shutdown(ctx)
}
