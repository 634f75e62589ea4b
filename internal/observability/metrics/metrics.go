// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interpretation"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Connection metrics
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	DefaultSessions   prometheus.Counter

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	AudioFramesDropped  prometheus.Counter

	// Stream metrics
	StreamsActive  prometheus.Gauge
	StreamErrors   *prometheus.CounterVec
	StreamDuration prometheus.Histogram

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// Pipeline metrics
	SegmentsProcessed prometheus.Counter
	SegmentsFailed    *prometheus.CounterVec
	SegmentsDuplicate prometheus.Counter
	PipelineLatency   *prometheus.HistogramVec
	ClassifyFallbacks prometheus.Counter
	ReviewTasks       prometheus.Counter

	// Delivery metrics
	DeliveryErrors prometheus.Counter

	// Persistence metrics
	StoreErrors *prometheus.CounterVec

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
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of WebSocket connections accepted",
		}),
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently active WebSocket connections",
		}),
		DefaultSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "default_sessions_total",
			Help:      "Messages that arrived for an unregistered connection and got a synthesized default session",
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total decoded audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),
		AudioFramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_dropped_total",
			Help:      "Audio frames dropped because the per-connection queue was full",
		}),

		StreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams_active",
			Help:      "Number of active speech-recognition streams",
		}),
		StreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Speech-recognition stream failures",
		}, []string{"provider"}),
		StreamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Lifetime of speech-recognition streams in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),

		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of partial transcripts received",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),

		SegmentsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_processed_total",
			Help:      "Segments that completed the interpretation pipeline",
		}),
		SegmentsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_failed_total",
			Help:      "Segments that failed the interpretation pipeline",
		}, []string{"stage"}),
		SegmentsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_duplicate_total",
			Help:      "Pipeline invocations skipped because the segment was already processed",
		}),
		PipelineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_latency_seconds",
			Help:      "Latency of individual pipeline stages",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"stage"}),
		ClassifyFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_fallbacks_total",
			Help:      "Classifications that fell back to the default label",
		}),
		ReviewTasks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_tasks_total",
			Help:      "Review tasks created for low-confidence segments",
		}),

		DeliveryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Failed pushes to a WebSocket connection",
		}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Key-value store write failures",
		}, []string{"record"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordConnect records a new WebSocket connection.
func (m *Metrics) RecordConnect() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// RecordDisconnect records a WebSocket connection closing.
func (m *Metrics) RecordDisconnect() {
	m.ConnectionsActive.Dec()
}

// RecordDefaultSession records the degraded unknown-connection path.
func (m *Metrics) RecordDefaultSession() {
	m.DefaultSessions.Inc()
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordFrameDropped records a frame evicted from a full queue.
func (m *Metrics) RecordFrameDropped() {
	m.AudioFramesDropped.Inc()
}

// RecordStreamStart records a speech stream opening.
func (m *Metrics) RecordStreamStart() {
	m.StreamsActive.Inc()
}

// RecordStreamEnd records a speech stream closing.
func (m *Metrics) RecordStreamEnd(durationSeconds float64) {
	m.StreamsActive.Dec()
	m.StreamDuration.Observe(durationSeconds)
}

// RecordStreamError records a speech stream failure.
func (m *Metrics) RecordStreamError(provider string) {
	m.StreamErrors.WithLabelValues(provider).Inc()
}

// RecordTranscript records a transcript event.
func (m *Metrics) RecordTranscript(isPartial bool) {
	if isPartial {
		m.TranscriptsPartial.Inc()
	} else {
		m.TranscriptsFinal.Inc()
	}
}

// RecordSegmentProcessed records a completed pipeline run.
func (m *Metrics) RecordSegmentProcessed() {
	m.SegmentsProcessed.Inc()
}

// RecordSegmentFailed records a pipeline failure at a stage.
func (m *Metrics) RecordSegmentFailed(stage string) {
	m.SegmentsFailed.WithLabelValues(stage).Inc()
}

// RecordDuplicateSegment records a skipped duplicate pipeline invocation.
func (m *Metrics) RecordDuplicateSegment() {
	m.SegmentsDuplicate.Inc()
}

// RecordStageLatency records a pipeline stage latency.
func (m *Metrics) RecordStageLatency(stage string, seconds float64) {
	m.PipelineLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordClassifyFallback records a classification default fallback.
func (m *Metrics) RecordClassifyFallback() {
	m.ClassifyFallbacks.Inc()
}

// RecordReviewTask records a review escalation.
func (m *Metrics) RecordReviewTask() {
	m.ReviewTasks.Inc()
}

// RecordDeliveryError records a failed connection push.
func (m *Metrics) RecordDeliveryError() {
	m.DeliveryErrors.Inc()
}

// RecordStoreError records a key-value store failure.
func (m *Metrics) RecordStoreError(record string) {
	m.StoreErrors.WithLabelValues(record).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
