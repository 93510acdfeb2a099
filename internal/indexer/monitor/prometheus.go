package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// KafkaMessagesReceived Kafka 消费相关
	KafkaMessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_received_total",
			Help: "Total number of messages received from Kafka.",
		},
		[]string{"topic"},
	)
	LogBatchProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "log_batch_process_duration_seconds",
			Help:    "Time taken to process a raw log batch.",
			Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"worker_id"},
	)
	LogsMatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logs_matched_total",
			Help: "Number of raw logs matched to an event descriptor.",
		},
		[]string{"kind"},
	)
	LogsUnmatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logs_unmatched_total",
			Help: "Number of raw logs with no matching event descriptor.",
		},
	)
	FillEventsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_events_persisted_total",
			Help: "Number of fill events persisted, by store variant.",
		},
		[]string{"variant"},
	)
	FillEventsSkippedNoPrice = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fill_events_skipped_no_native_price_total",
			Help: "Fills dropped because no native price could be resolved.",
		},
	)
	TraceFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trace_fetch_errors_total",
			Help: "Failed transaction trace fetches.",
		},
	)
	RoyaltyEnrichments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "royalty_enrichments_total",
			Help: "Royalty enrichment attempts by result.",
		},
		[]string{"result"},
	)
	PriceOracleLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_oracle_lookups_total",
			Help: "Price oracle lookups by source (memory/db/upstream/stale/miss).",
		},
		[]string{"source"},
	)
	BlocksOrphaned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blocks_orphaned_total",
			Help: "Locally stored blocks detected as orphaned.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		KafkaMessagesReceived,
		LogBatchProcessDuration,
		LogsMatched,
		LogsUnmatched,
		FillEventsPersisted,
		FillEventsSkippedNoPrice,
		TraceFetchErrors,
		RoyaltyEnrichments,
		PriceOracleLookups,
		BlocksOrphaned,
	)
}
