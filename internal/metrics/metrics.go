// Package metrics collects SOAP call and record counters for a target run.
//
// A run is a batch process, so metrics are not scraped; they are written in
// the Prometheus text format to a file (for the node exporter textfile
// collector) when the run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sirosfoundation/target-sherpaan/internal/purchase"
)

// Metric names
const (
	MetricSOAPRequestsTotal   = "soap_requests_total"
	MetricSOAPRequestDuration = "soap_request_duration_seconds"
	MetricSOAPRetriesTotal    = "soap_retries_total"
	MetricRecordsTotal        = "records_total"
)

// Request outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics implements the transport and purchase observers
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	recordsTotal    *prometheus.CounterVec
}

// New creates the metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSOAPRequestsTotal,
			Help: "SOAP calls by operation and outcome, after retries",
		}, []string{"operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: MetricSOAPRequestDuration,
			Help: "Duration of SOAP calls including retries",
			// calls may wait out the full backoff schedule
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"operation"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSOAPRetriesTotal,
			Help: "SOAP call retries by operation",
		}, []string{"operation"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRecordsTotal,
			Help: "Processed records by final stage",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.retriesTotal, m.recordsTotal)
	return m
}

// Registry returns the registry holding the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records a finished SOAP call
func (m *Metrics) ObserveRequest(operation string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRetry records a retried SOAP call attempt
func (m *Metrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(operation).Inc()
}

// ObserveRecord records the final stage of a record
func (m *Metrics) ObserveRecord(stage purchase.Stage) {
	m.recordsTotal.WithLabelValues(stage.String()).Inc()
}

// WriteTextfile writes all metrics to path in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
