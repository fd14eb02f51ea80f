package prometheus

import (
	"context"

	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
)

// DirectoryInterface defines all methods from service.Directory that the transports use.
// This allows us to wrap the service with metrics collection.
type DirectoryInterface interface {
	// ═══════════════════════════════════════════════════════════════════════════
	// CLUSTERS & CREDENTIALS
	// ═══════════════════════════════════════════════════════════════════════════

	// ListClusters returns every registered cluster
	ListClusters(ctx context.Context) ([]models.Cluster, error)

	// CredentialCached reports whether a bind password is cached for the cluster
	CredentialCached(ctx context.Context, cluster string) (bool, error)

	// Connect binds to the cluster and caches the password on success
	Connect(ctx context.Context, cluster, password string) (*models.ConnectResult, error)

	// ═══════════════════════════════════════════════════════════════════════════
	// BROWSING
	// ═══════════════════════════════════════════════════════════════════════════

	// Search returns one page of entries with the exact total
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)

	// Stats counts users and groups over a bounded window
	Stats(ctx context.Context, cluster string) (*models.DirectoryStats, error)

	// Classifier returns the classifier used for summaries
	Classifier() *directory.Classifier

	// ═══════════════════════════════════════════════════════════════════════════
	// MONITORING
	// ═══════════════════════════════════════════════════════════════════════════

	// Health returns the live status of the cluster
	Health(ctx context.Context, cluster string) (*models.HealthSnapshot, error)

	// Activity returns the cn=Monitor operation counters
	Activity(ctx context.Context, cluster string) ([]models.ActivityRecord, error)

	// NodeMetrics probes every node of the cluster
	NodeMetrics(ctx context.Context, cluster string) (*models.ClusterMetrics, error)
}
