package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// Metrics contains all Prometheus metrics for the prosody analyzer
type Metrics struct {
	registry *prometheus.Registry

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	AudioDuration    prometheus.Histogram
	GenderTotal      *prometheus.CounterVec
	Scores           *prometheus.HistogramVec

	// Store metrics
	SessionsStored prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics on a private registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prosody_analyses_total",
			Help: "Total number of analyses by outcome",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prosody_analysis_duration_seconds",
			Help:    "Wall time spent analyzing one input",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prosody_audio_duration_seconds",
			Help:    "Duration of analyzed audio",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		GenderTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prosody_gender_classifications_total",
			Help: "Total number of classifications by gender class",
		}, []string{"gender"}),
		Scores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prosody_score",
			Help:    "Distribution of composite scores",
			Buckets: prometheus.LinearBuckets(-3, 0.5, 13), // -3 to 3
		}, []string{"score"}),

		SessionsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "prosody_sessions_stored_total",
			Help: "Total number of sessions written to the store",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prosody_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prosody_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prosody_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordAnalysis records a successful analysis
func (m *Metrics) RecordAnalysis(session *prosody.Session, elapsed time.Duration) {
	m.AnalysesTotal.WithLabelValues("success").Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	m.AudioDuration.Observe(session.Duration)
	m.GenderTotal.WithLabelValues(string(session.Gender)).Inc()
	for name, score := range session.Scores {
		m.Scores.WithLabelValues(name).Observe(score)
	}
}

// RecordAnalysisFailure records a failed analysis labelled by error code
func (m *Metrics) RecordAnalysisFailure(err error, elapsed time.Duration) {
	status := "error"
	var perr *prosody.Error
	if errors.As(err, &perr) {
		status = perr.Code
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// RecordSessionStored increments the stored sessions counter
func (m *Metrics) RecordSessionStored() {
	m.SessionsStored.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
