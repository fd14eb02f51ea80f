package prometheus

import (
	"context"
	"time"

	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
)

// DirectoryCollector wraps a DirectoryInterface and records metrics for all operations
type DirectoryCollector struct {
	next DirectoryInterface
}

// NewDirectoryCollector creates a new instrumented wrapper around a DirectoryInterface
func NewDirectoryCollector(next DirectoryInterface) *DirectoryCollector {
	return &DirectoryCollector{next: next}
}

// recordOperation records duration and count for an operation
func recordOperation(operation string, start time.Time, err error) {
	success := successLabel(err)
	OperationDuration.WithLabelValues(operation, success).Observe(time.Since(start).Seconds())
	OperationsTotal.WithLabelValues(operation, success).Inc()
}

func successLabel(err error) string {
	if err != nil {
		return "false"
	}
	return "true"
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (c *DirectoryCollector) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	start := time.Now()
	clusters, err := c.next.ListClusters(ctx)
	recordOperation("list_clusters", start, err)

	if err == nil {
		ClustersTotal.Set(float64(len(clusters)))
	}

	return clusters, err
}

func (c *DirectoryCollector) CredentialCached(ctx context.Context, cluster string) (bool, error) {
	start := time.Now()
	cached, err := c.next.CredentialCached(ctx, cluster)
	recordOperation("credential_cached", start, err)
	return cached, err
}

func (c *DirectoryCollector) Connect(ctx context.Context, cluster, password string) (*models.ConnectResult, error) {
	start := time.Now()
	res, err := c.next.Connect(ctx, cluster, password)

	// Record connect-specific metrics
	ConnectDuration.Observe(time.Since(start).Seconds())
	ConnectAttemptsTotal.WithLabelValues(cluster, successLabel(err)).Inc()

	// Also record as general operation
	recordOperation("connect", start, err)

	return res, err
}

func (c *DirectoryCollector) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	start := time.Now()
	res, err := c.next.Search(ctx, q)
	recordOperation("search", start, err)

	if err == nil {
		label := q.Category.FilterType()
		if label == "" {
			label = "all"
		}
		SearchResultsTotal.WithLabelValues(label).Add(float64(len(res.Entries)))
	}

	return res, err
}

func (c *DirectoryCollector) Stats(ctx context.Context, cluster string) (*models.DirectoryStats, error) {
	start := time.Now()
	stats, err := c.next.Stats(ctx, cluster)
	recordOperation("stats", start, err)

	// Update gauges
	if err == nil {
		EntriesTotal.WithLabelValues(cluster, "all").Set(float64(stats.Total))
		EntriesTotal.WithLabelValues(cluster, "users").Set(float64(stats.Users))
		EntriesTotal.WithLabelValues(cluster, "groups").Set(float64(stats.Groups))
		StatsWindowExact.WithLabelValues(cluster).Set(boolGauge(stats.Exact))
	}

	return stats, err
}

func (c *DirectoryCollector) Classifier() *directory.Classifier {
	return c.next.Classifier()
}

func (c *DirectoryCollector) Health(ctx context.Context, cluster string) (*models.HealthSnapshot, error) {
	start := time.Now()
	h, err := c.next.Health(ctx, cluster)
	recordOperation("health", start, err)

	if err == nil {
		ClusterHealthy.WithLabelValues(cluster).Set(boolGauge(h.IsHealthy()))
	}

	return h, err
}

func (c *DirectoryCollector) Activity(ctx context.Context, cluster string) ([]models.ActivityRecord, error) {
	start := time.Now()
	records, err := c.next.Activity(ctx, cluster)
	recordOperation("activity", start, err)
	return records, err
}

func (c *DirectoryCollector) NodeMetrics(ctx context.Context, cluster string) (*models.ClusterMetrics, error) {
	start := time.Now()
	m, err := c.next.NodeMetrics(ctx, cluster)
	recordOperation("node_metrics", start, err)

	if err == nil {
		ClusterInSync.WithLabelValues(cluster).Set(boolGauge(m.InSync))
	}

	return m, err
}
