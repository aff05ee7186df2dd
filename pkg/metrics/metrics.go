// Package metrics provides Prometheus metrics for the oracle pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProviderFetchesTotal is a counter of per-provider quote fetches.
	ProviderFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fetches_total",
			Help: "Total number of provider quote fetches",
		},
		[]string{"provider", "token", "status"},
	)

	// PriceAggregationDuration is a histogram of price aggregation duration.
	PriceAggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_aggregation_duration_seconds",
			Help:    "Duration of price aggregation operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"token"},
	)

	// OutlierRejectionsTotal is a counter of quotes rejected as outliers.
	OutlierRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outlier_rejections_total",
			Help: "Total number of provider quotes rejected as outliers",
		},
		[]string{"token"},
	)

	// AttestationsTotal is a counter of produced price attestations.
	AttestationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attestations_total",
			Help: "Total number of signed price attestations produced",
		},
		[]string{"token"},
	)

	// SnapshotPublishesTotal is a counter of snapshot publish attempts.
	SnapshotPublishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_publishes_total",
			Help: "Total number of historical snapshot publish attempts",
		},
		[]string{"status"},
	)

	// SnapshotFallbackReadsTotal is a counter of fallback object-store reads.
	SnapshotFallbackReadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_fallback_reads_total",
			Help: "Total number of snapshot reads served from the fallback object store",
		},
	)

	// EndorsementSubmissionsTotal is a counter of consensus slot submissions.
	EndorsementSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endorsement_submissions_total",
			Help: "Total number of consensus slot endorsement submissions",
		},
		[]string{"token", "status"},
	)

	// SlotPromotionsTotal is a counter of max-slot cache promotions.
	SlotPromotionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_promotions_total",
			Help: "Total number of consensus slot promotions into a max cache",
		},
		[]string{"token", "cache"},
	)

	// TaskRunsTotal is a counter of scheduled task executions by outcome.
	TaskRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_runs_total",
			Help: "Total number of scheduled task runs (completed, failed, skipped)",
		},
		[]string{"task", "status"},
	)

	// TaskDuration is a histogram of task execution durations.
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Duration of scheduled task executions",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"task"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init registers all pipeline metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		ProviderFetchesTotal,
		PriceAggregationDuration,
		OutlierRejectionsTotal,
		AttestationsTotal,
		SnapshotPublishesTotal,
		SnapshotFallbackReadsTotal,
		EndorsementSubmissionsTotal,
		SlotPromotionsTotal,
		TaskRunsTotal,
		TaskDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordProviderFetch records a provider fetch outcome.
func RecordProviderFetch(provider, tokenName, status string) {
	ProviderFetchesTotal.WithLabelValues(provider, tokenName, status).Inc()
}

// RecordAggregation records a price aggregation operation.
func RecordAggregation(tokenName string, duration time.Duration) {
	PriceAggregationDuration.WithLabelValues(tokenName).Observe(duration.Seconds())
}

// RecordOutlierRejection records an outlier rejection.
func RecordOutlierRejection(tokenName string) {
	OutlierRejectionsTotal.WithLabelValues(tokenName).Inc()
}

// RecordAttestation records a produced attestation.
func RecordAttestation(tokenName string) {
	AttestationsTotal.WithLabelValues(tokenName).Inc()
}

// RecordSnapshotPublish records a snapshot publish attempt.
func RecordSnapshotPublish(status string) {
	SnapshotPublishesTotal.WithLabelValues(status).Inc()
}

// RecordSnapshotFallbackRead records a fallback object-store read.
func RecordSnapshotFallbackRead() {
	SnapshotFallbackReadsTotal.Inc()
}

// RecordEndorsement records a consensus slot submission outcome.
func RecordEndorsement(tokenName, status string) {
	EndorsementSubmissionsTotal.WithLabelValues(tokenName, status).Inc()
}

// RecordSlotPromotion records a promotion into a max-slot cache.
func RecordSlotPromotion(tokenName, cache string) {
	SlotPromotionsTotal.WithLabelValues(tokenName, cache).Inc()
}

// RecordTaskRun records a scheduled task run outcome.
func RecordTaskRun(task, status string, duration time.Duration) {
	TaskRunsTotal.WithLabelValues(task, status).Inc()
	if status != "skipped" {
		TaskDuration.WithLabelValues(task).Observe(duration.Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
