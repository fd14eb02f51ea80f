package console

import (
	"context"

	"github.com/devplatform/ldap-console/internal/models"
)

// Remote is the backend the console drives. HTTPClient is the production implementation.
type Remote interface {
	ListClusters(ctx context.Context) ([]models.Cluster, error)
	CheckCredentialCached(ctx context.Context, cluster string) (bool, error)
	Connect(ctx context.Context, cluster, credential string) (*models.ConnectResult, error)
	SearchEntries(ctx context.Context, params SearchParams) (*models.SearchResult, error)
	GetHealth(ctx context.Context, cluster string) (*models.HealthSnapshot, error)
	GetStats(ctx context.Context, cluster string) (*models.DirectoryStats, error)
}

// SearchParams are the wire parameters of one search call
type SearchParams struct {
	Cluster    string
	Page       int
	PageSize   int
	FilterType string // "" selects every category
	Search     string // omitted from the request when empty
}
