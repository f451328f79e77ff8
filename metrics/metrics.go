package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/tee-contact-attestor/common"
)

var (
	// Requests by scope and outcome. Outcome is "ok", a parse error kind,
	// "too_large" or "internal".
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.PackageName,
			Name:      "requests_total",
			Help:      "Total number of signing requests",
		},
		[]string{"scope", "outcome"},
	)

	RecordsSigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.PackageName,
			Name:      "records_signed_total",
			Help:      "Total number of contact records included in signed batches",
		},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.PackageName,
			Name:      "batch_size_records",
			Help:      "Number of records per signed batch",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000},
		},
	)

	PayloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.PackageName,
			Name:      "payload_bytes",
			Help:      "Size of submitted CSV payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
	)

	ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.PackageName,
			Name:      "processing_duration_seconds",
			Help:      "Duration of parse and sign in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func pipelineCollectors() []prometheus.Collector {
	return []prometheus.Collector{RequestsTotal, RecordsSigned, BatchSize, PayloadBytes, ProcessingDuration}
}
