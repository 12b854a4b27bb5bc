// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sales_conversation"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Upload pipeline metrics
	UploadsTotal    prometheus.Counter
	UploadsActive   prometheus.Gauge
	UploadsSuccess  prometheus.Counter
	UploadsFailed   *prometheus.CounterVec
	PipelineLatency *prometheus.HistogramVec

	// Transcription metrics
	TranscriptionsTotal prometheus.Counter
	TranscriptionsEmpty prometheus.Counter
	AudioBytesReceived  prometheus.Counter

	// Insight metrics
	CompletionsTotal  *prometheus.CounterVec
	CompletionLatency *prometheus.HistogramVec

	// CRM metrics
	CRMRequestsTotal *prometheus.CounterVec
	CRMLatency       *prometheus.HistogramVec
	CRMLoginsTotal   prometheus.Counter
	CRMAuthRetries   prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of conversation uploads received",
		}),
		UploadsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_active",
			Help:      "Number of conversation uploads currently in flight",
		}),
		UploadsSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_success_total",
			Help:      "Total number of uploads that completed the full pipeline",
		}),
		UploadsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_failed_total",
			Help:      "Total number of uploads that failed, by pipeline stage",
		}, []string{"stage"}),
		PipelineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),

		TranscriptionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of transcription requests sent",
		}),
		TranscriptionsEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_empty_total",
			Help:      "Total number of transcriptions that returned no results",
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received across uploads",
		}),

		CompletionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Total language-model completion calls, by purpose and outcome",
		}, []string{"purpose", "outcome"}),
		CompletionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Duration of language-model completion calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"purpose"}),

		CRMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_requests_total",
			Help:      "Total CRM requests, by object type, operation and outcome",
		}, []string{"object", "operation", "outcome"}),
		CRMLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crm_request_duration_seconds",
			Help:      "Duration of CRM requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"object", "operation"}),
		CRMLoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_logins_total",
			Help:      "Total CRM login exchanges performed",
		}),
		CRMAuthRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_auth_retries_total",
			Help:      "Total CRM calls retried after a session-expiry rejection",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total Kafka publish attempts, by topic",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total Kafka publish failures, by topic",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Duration of Kafka publish calls in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"topic"}),
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, durationSeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(durationSeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// RecordCRMRequest records the outcome and latency of a CRM request.
func (m *Metrics) RecordCRMRequest(object, operation string, err error, durationSeconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.CRMRequestsTotal.WithLabelValues(object, operation, outcome).Inc()
	m.CRMLatency.WithLabelValues(object, operation).Observe(durationSeconds)
}
