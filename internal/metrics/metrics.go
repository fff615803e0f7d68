package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edlkit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upload Metrics
	ExportUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edlkit_export_uploads_total",
			Help: "Total number of uploaded EDL exports",
		},
	)

	ExportUploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edlkit_export_upload_size_bytes",
			Help:    "Size of uploaded EDL exports in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 16), // 1KB to 32MB
		},
	)

	// Parse Metrics
	ParsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_parses_total",
			Help: "Total number of EDL parses by outcome",
		},
		[]string{"outcome"},
	)

	ParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edlkit_parse_duration_seconds",
			Help:    "Time spent parsing one export",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
	)

	RecordsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_records_parsed_total",
			Help: "Records parsed per section",
		},
		[]string{"section"},
	)

	ParseWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_parse_warnings_total",
			Help: "Parse warnings per section",
		},
		[]string{"section"},
	)

	// Cache Metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_cache_lookups_total",
			Help: "Parsed session cache lookups by result",
		},
		[]string{"result"},
	)

	// Ingest Metrics
	IngestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_ingest_jobs_total",
			Help: "Ingest jobs by final status",
		},
		[]string{"status"},
	)

	IngestJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edlkit_ingest_jobs_in_progress",
			Help: "Number of ingest jobs currently being processed",
		},
	)

	IngestQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edlkit_ingest_queue_depth",
			Help: "Number of ingest jobs waiting in queue",
		},
	)

	DeadLetterTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edlkit_ingest_dead_letter_total",
			Help: "Ingest jobs moved to the dead letter queue",
		},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_storage_operations_total",
			Help: "Object storage operations",
		},
		[]string{"operation", "status"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edlkit_webhook_deliveries_total",
			Help: "Webhook deliveries by event and status",
		},
		[]string{"event", "status"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordUpload records an uploaded export
func RecordUpload(sizeBytes int64) {
	ExportUploadsTotal.Inc()
	ExportUploadSizeBytes.Observe(float64(sizeBytes))
}

// RecordParse records a parse outcome. On success the record and warning
// counts of the session are added per section.
func RecordParse(session *edl.Session, duration float64, err error) {
	ParseDuration.Observe(duration)

	if err != nil {
		ParsesTotal.WithLabelValues("failed").Inc()
		return
	}

	outcome := "ok"
	if len(session.Warnings) > 0 {
		outcome = "warnings"
	}
	ParsesTotal.WithLabelValues(outcome).Inc()

	RecordsParsed.WithLabelValues(edl.SectionOnlineFiles.String()).Add(float64(len(session.OnlineFiles)))
	RecordsParsed.WithLabelValues(edl.SectionOfflineFiles.String()).Add(float64(len(session.OfflineFiles)))
	RecordsParsed.WithLabelValues(edl.SectionOnlineClips.String()).Add(float64(len(session.OnlineClips)))
	RecordsParsed.WithLabelValues(edl.SectionPlugins.String()).Add(float64(len(session.Plugins)))
	RecordsParsed.WithLabelValues(edl.SectionTracks.String()).Add(float64(len(session.Tracks)))
	RecordsParsed.WithLabelValues(edl.SectionMarkers.String()).Add(float64(len(session.Markers)))

	for _, w := range session.Warnings {
		ParseWarningsTotal.WithLabelValues(w.Section.String()).Inc()
	}
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// RecordIngestJob records the final status of an ingest job
func RecordIngestJob(status string) {
	IngestJobsTotal.WithLabelValues(status).Inc()
}

// UpdateIngestMetrics updates the in-progress and queue depth gauges
func UpdateIngestMetrics(inProgress, queueDepth int) {
	IngestJobsInProgress.Set(float64(inProgress))
	IngestQueueDepth.Set(float64(queueDepth))
}

// RecordDeadLetter records a job moved to the dead letter queue
func RecordDeadLetter() {
	DeadLetterTotal.Inc()
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt outcome
func RecordWebhookDelivery(event string, delivered bool) {
	status := "delivered"
	if !delivered {
		status = "failed"
	}
	WebhookDeliveriesTotal.WithLabelValues(event, status).Inc()
}
