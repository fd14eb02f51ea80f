package prometheus

import (
	promclient "github.com/prometheus/client_golang/prometheus"
)

// Business-level metrics for the directory console
// These track directory operations, not just HTTP requests

var (
	// ═══════════════════════════════════════════════════════════════════════════
	// CLUSTER METRICS
	// ═══════════════════════════════════════════════════════════════════════════

	// ClustersTotal - Gauge of registered clusters
	ClustersTotal = promclient.NewGauge(
		promclient.GaugeOpts{
			Name: "ldap_console_clusters_total",
			Help: "Number of clusters in the registry",
		},
	)

	// ClusterHealthy - 1 when the last health check was healthy, 0 otherwise
	ClusterHealthy = promclient.NewGaugeVec(
		promclient.GaugeOpts{
			Name: "ldap_console_cluster_healthy",
			Help: "Result of the last health check per cluster",
		},
		[]string{"cluster"},
	)

	// ClusterInSync - 1 when all nodes report the same contextCSN
	ClusterInSync = promclient.NewGaugeVec(
		promclient.GaugeOpts{
			Name: "ldap_console_cluster_in_sync",
			Help: "Replication agreement across cluster nodes",
		},
		[]string{"cluster"},
	)

	// ═══════════════════════════════════════════════════════════════════════════
	// ENTRY METRICS
	// ═══════════════════════════════════════════════════════════════════════════

	// EntriesTotal - Gauge of entries counted in the stats window, by category
	EntriesTotal = promclient.NewGaugeVec(
		promclient.GaugeOpts{
			Name: "ldap_console_entries_total",
			Help: "Entries counted in the last stats window",
		},
		[]string{"cluster", "category"}, // "all", "users", "groups"
	)

	// StatsWindowExact - 0 when the last stats window was filled
	StatsWindowExact = promclient.NewGaugeVec(
		promclient.GaugeOpts{
			Name: "ldap_console_stats_exact",
			Help: "Whether the last stats window covered the whole directory",
		},
		[]string{"cluster"},
	)

	// SearchResultsTotal - Counter of entries returned by searches
	SearchResultsTotal = promclient.NewCounterVec(
		promclient.CounterOpts{
			Name: "ldap_console_search_results_total",
			Help: "Total number of entries returned by searches",
		},
		[]string{"filter_type"},
	)

	// ═══════════════════════════════════════════════════════════════════════════
	// OPERATION DURATION METRICS
	// ═══════════════════════════════════════════════════════════════════════════

	// OperationDuration - Histogram of directory operation durations
	OperationDuration = promclient.NewHistogramVec(
		promclient.HistogramOpts{
			Name:    "ldap_console_operation_duration_seconds",
			Help:    "Duration of directory operations in seconds",
			Buckets: promclient.DefBuckets,
		},
		[]string{"operation", "success"},
	)

	// OperationsTotal - Counter of all directory operations
	OperationsTotal = promclient.NewCounterVec(
		promclient.CounterOpts{
			Name: "ldap_console_operations_total",
			Help: "Total number of directory operations",
		},
		[]string{"operation", "success"},
	)

	// ═══════════════════════════════════════════════════════════════════════════
	// CONNECT METRICS
	// ═══════════════════════════════════════════════════════════════════════════

	// ConnectAttemptsTotal - Counter of bind attempts through Connect
	ConnectAttemptsTotal = promclient.NewCounterVec(
		promclient.CounterOpts{
			Name: "ldap_console_connect_attempts_total",
			Help: "Total number of cluster connect attempts",
		},
		[]string{"cluster", "success"},
	)

	// ConnectDuration - Histogram of connect duration
	ConnectDuration = promclient.NewHistogram(
		promclient.HistogramOpts{
			Name:    "ldap_console_connect_duration_seconds",
			Help:    "Duration of cluster connect attempts in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Collectors returns every business metric
func Collectors() []promclient.Collector {
	return []promclient.Collector{
		ClustersTotal,
		ClusterHealthy,
		ClusterInSync,
		EntriesTotal,
		StatsWindowExact,
		SearchResultsTotal,
		OperationDuration,
		OperationsTotal,
		ConnectAttemptsTotal,
		ConnectDuration,
	}
}

// Init registers all metrics with Prometheus
func Init() {
	promclient.MustRegister(Collectors()...)
}
