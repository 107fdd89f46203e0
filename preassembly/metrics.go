package preassembly

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics tracks assembly throughput. With a nil registerer the
// collectors still work but are not exported anywhere.
type metrics struct {
	statementsIn     prometheus.Counter
	duplicatesMerged prometheus.Counter
	comparisons      prometheus.Counter
	refinementEdges  prometheus.Counter
	skippedPairs     prometheus.Counter
	bucketSize       prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		statementsIn: f.NewCounter(prometheus.CounterOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name: "statements_total",
			Help: "Raw statements submitted for assembly.",
		}),
		duplicatesMerged: f.NewCounter(prometheus.CounterOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name: "duplicates_merged_total",
			Help: "Statements merged into an existing matches key.",
		}),
		comparisons: f.NewCounter(prometheus.CounterOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name: "comparisons_total",
			Help: "Pairwise refinement comparisons performed.",
		}),
		refinementEdges: f.NewCounter(prometheus.CounterOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name: "refinement_edges_total",
			Help: "Refinement relations found between unique statements.",
		}),
		skippedPairs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name: "skipped_pairs_total",
			Help: "Pairs left unrelated because the ontology could not answer.",
		}),
		bucketSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "indra", Subsystem: "preassembly",
			Name:    "bucket_size",
			Help:    "Number of unique statements per comparison bucket.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}
