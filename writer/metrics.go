package writer

import "github.com/prometheus/client_golang/prometheus"

var BatchedReads = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "batched_reads",
})

var RowsRead = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "rows_read",
})

var Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "decisions",
}, []string{"op"})

var SkippedRows = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "skipped_rows",
})

var PartitionDeletes = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "partition_deletes",
})

var Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "failures",
}, []string{"kind"})

var FinishDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "widerow",
	Subsystem: "writer",
	Name:      "finish_duration_seconds",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
})

// Collectors lists the writer metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		BatchedReads, RowsRead, Decisions, SkippedRows, PartitionDeletes, Failures, FinishDuration,
	}
}
