package index

import "github.com/prometheus/client_golang/prometheus"

var PostingsWritten = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "index",
	Name:      "postings_written",
})

var PostingsRemoved = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "index",
	Name:      "postings_removed",
})

var Writes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "index",
	Name:      "writes",
}, []string{"op"})

var LookupCache = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "widerow",
	Subsystem: "index",
	Name:      "lookup_cache",
}, []string{"result"})

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{PostingsWritten, PostingsRemoved, Writes, LookupCache}
}
