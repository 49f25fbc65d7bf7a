package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion outcome labels.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Ingestion Prometheus metrics.
var (
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdedup",
			Name:      "ingest_total",
			Help:      "Ingestions by outcome",
		},
		[]string{"outcome"},
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdedup",
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end ingestion duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	TopMatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docdedup",
			Name:      "top_match_score",
			Help:      "Highest similarity score returned for each duplicate check",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.98, 0.99, 1},
		},
	)
)

var ingestGroup = newGroup(IngestTotal, IngestDuration, TopMatchScore)

// RegisterIngestMetrics registers the ingestion collectors. Safe to call repeatedly.
func RegisterIngestMetrics() { ingestGroup.register() }
