package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup resolutions, used as metric labels
const (
	resolutionExact   = "exact"
	resolutionPrefix2 = "prefix2"
	resolutionPrefix1 = "prefix1"
	resolutionFull    = "full"
	resolutionMiss    = "miss"
)

var (
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rotrigo",
		Subsystem: "index",
		Name:      "build_duration_seconds",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		Help:      "time taken to sort and index a statement set",
	}, []string{"order"})

	indexedStatements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rotrigo",
		Subsystem: "index",
		Name:      "statements",
		Help:      "number of statements in the most recently built index",
	}, []string{"order"})

	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rotrigo",
		Subsystem: "index",
		Name:      "lookups_total",
		Help:      "pattern lookups by index order and how they were resolved",
	}, []string{"order", "resolution"})
)

// lookupCounters holds the per-order counters, curried once at build time so
// lookups do not pay for label resolution.
type lookupCounters struct {
	exact, prefix2, prefix1, full, miss prometheus.Counter
}

func newLookupCounters(order Order) lookupCounters {
	c := lookupsTotal.MustCurryWith(prometheus.Labels{"order": order.String()})
	return lookupCounters{
		exact:   c.WithLabelValues(resolutionExact),
		prefix2: c.WithLabelValues(resolutionPrefix2),
		prefix1: c.WithLabelValues(resolutionPrefix1),
		full:    c.WithLabelValues(resolutionFull),
		miss:    c.WithLabelValues(resolutionMiss),
	}
}
