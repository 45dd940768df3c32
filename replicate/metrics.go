package replicate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lastReplicationTimestamp is a Gauge that captures the timestamp of the
	// last successful replication
	lastReplicationTimestamp *prometheus.GaugeVec
	// replicationCount is a Counter vector of replication attempts
	replicationCount *prometheus.CounterVec
	// replicationLatency is a Histogram vector that keeps track of per repo
	// replication durations
	replicationLatency *prometheus.HistogramVec
)

// EnableMetrics will enable metrics collection for replication runs.
// Available metrics are...
//   - git_last_replication_timestamp - (tags: repo)
//     A Gauge that captures the Timestamp of the last successful replication per repo.
//   - git_replication_count - (tags: repo,outcome)
//     A Counter for each replication attempt, tagged with the outcome
//     (created|updated|skipped|failed)
//   - git_replication_latency_seconds - (tags: repo)
//     A Histogram that keeps track of the replication latency per repo.
func EnableMetrics(metricsNamespace string, registerer prometheus.Registerer) {
	lastReplicationTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "git_last_replication_timestamp",
		Help:      "Timestamp of the last successful git replication",
	},
		[]string{
			// name of the repository
			"repo",
		},
	)

	replicationCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "git_replication_count",
		Help:      "Count of git replication operations",
	},
		[]string{
			// name of the repository
			"repo",
			// classification of the attempt
			"outcome",
		},
	)

	replicationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "git_replication_latency_seconds",
		Help:      "Latency for git repo replication",
		Buckets:   []float64{0.5, 1, 5, 10, 20, 30, 60, 90, 120, 150, 300},
	},
		[]string{
			// name of the repository
			"repo",
		},
	)

	registerer.MustRegister(
		lastReplicationTimestamp,
		replicationCount,
		replicationLatency,
	)
}

// recordReplication records a replication attempt by updating all the
// relevant metrics
func recordReplication(repo string, kind OutcomeKind, took time.Duration) {
	// if metrics not enabled return
	if lastReplicationTimestamp == nil || replicationCount == nil || replicationLatency == nil {
		return
	}

	if kind == OutcomeCreated || kind == OutcomeUpdated {
		lastReplicationTimestamp.With(prometheus.Labels{
			"repo": repo,
		}).Set(float64(time.Now().Unix()))
	}

	replicationCount.With(prometheus.Labels{
		"repo":    repo,
		"outcome": string(kind),
	}).Inc()

	replicationLatency.WithLabelValues(repo).Observe(took.Seconds())
}
