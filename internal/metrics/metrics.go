// Package metrics exposes prometheus counters for workflow activity.
package metrics

import (
	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_workflow_transitions_total",
			Help: "Workflow events applied to applicants, by outcome",
		},
		[]string{"event", "result"},
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_payments_total",
			Help: "Payment records written, by method and resulting status",
		},
		[]string{"method", "status"},
	)

	AdminLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_admin_logins_total",
			Help: "Admin login attempts, by result",
		},
		[]string{"result"},
	)

	HTTPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_http_errors_total",
			Help: "API error responses, by error kind",
		},
		[]string{"kind"},
	)

	UploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admissions_upload_bytes",
			Help:    "Size of stored uploads",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
		[]string{"field"},
	)
)

// Collector is the metrics surface services depend on.
type Collector interface {
	RecordTransition(event, result string)
	RecordPayment(method, status string)
	RecordAdminLogin(result string)
	RecordUpload(field string, size int64)
}

// Prometheus records into the package-level collectors.
type Prometheus struct{}

func (Prometheus) RecordTransition(event, result string) {
	WorkflowTransitions.WithLabelValues(event, result).Inc()
}

func (Prometheus) RecordPayment(method, status string) {
	Payments.WithLabelValues(method, status).Inc()
}

func (Prometheus) RecordAdminLogin(result string) {
	AdminLogins.WithLabelValues(result).Inc()
}

func (Prometheus) RecordUpload(field string, size int64) {
	UploadBytes.WithLabelValues(field).Observe(float64(size))
}

// NoopCollector discards everything; used in tests.
type NoopCollector struct{}

func (NoopCollector) RecordTransition(string, string) {}
func (NoopCollector) RecordPayment(string, string)    {}
func (NoopCollector) RecordAdminLogin(string)         {}
func (NoopCollector) RecordUpload(string, int64)      {}

// Result maps an error to a transition result label.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if de, ok := apperrors.As(err); ok {
		return string(de.Kind)
	}
	return "error"
}
