// Package registry loads the set of directory clusters the console can browse.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/devplatform/ldap-console/internal/models"
)

// ErrClusterNotFound is returned when a cluster name is not registered
var ErrClusterNotFound = errors.New("cluster not found")

// Source yields the raw cluster document
type Source interface {
	// Load returns the registry document, or nil when none exists yet
	Load(ctx context.Context) ([]byte, error)
	// Describe names the source in logs
	Describe() string
}

type document struct {
	Clusters []models.Cluster `yaml:"clusters"`
}

// Parse decodes a registry document. Clusters keep their file order. A cluster that fails
// validation or repeats an earlier name is left out and reported in skipped; only a
// malformed document is an error.
func Parse(data []byte) (clusters []models.Cluster, skipped []error, err error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse cluster registry: %w", err)
	}

	clusters = make([]models.Cluster, 0, len(doc.Clusters))
	seen := make(map[string]struct{}, len(doc.Clusters))
	for i, c := range doc.Clusters {
		if err := c.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("cluster #%d: %w", i+1, err))
			continue
		}
		if _, dup := seen[c.Name]; dup {
			skipped = append(skipped, fmt.Errorf("cluster #%d: duplicate cluster %q", i+1, c.Name))
			continue
		}
		seen[c.Name] = struct{}{}
		clusters = append(clusters, c)
	}

	return clusters, skipped, nil
}

// Registry serves clusters from a source, re-reading it on every List
type Registry struct {
	source Source
	logger *logrus.Logger

	mu   sync.RWMutex
	last []models.Cluster
}

// New creates a registry over a source
func New(source Source, logger *logrus.Logger) *Registry {
	return &Registry{source: source, logger: logger}
}

// List returns all clusters in registry order. If the source fails after a
// successful read, the last good list is served.
func (r *Registry) List(ctx context.Context) ([]models.Cluster, error) {
	clusters, err := r.load(ctx)
	if err != nil {
		r.mu.RLock()
		last := r.last
		r.mu.RUnlock()

		if last == nil {
			return nil, err
		}
		r.logger.WithError(err).WithField("source", r.source.Describe()).Warn("Cluster registry unreadable, serving last good copy")
		return copyClusters(last), nil
	}

	r.mu.Lock()
	r.last = clusters
	r.mu.Unlock()

	return copyClusters(clusters), nil
}

// Get returns one cluster by name
func (r *Registry) Get(ctx context.Context, name string) (models.Cluster, error) {
	clusters, err := r.List(ctx)
	if err != nil {
		return models.Cluster{}, err
	}
	for _, c := range clusters {
		if c.Name == name {
			return c, nil
		}
	}
	return models.Cluster{}, fmt.Errorf("%w: %s", ErrClusterNotFound, name)
}

func (r *Registry) load(ctx context.Context) ([]models.Cluster, error) {
	data, err := r.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []models.Cluster{}, nil
	}

	clusters, skipped, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for _, err := range skipped {
		r.logger.WithError(err).WithField("source", r.source.Describe()).Warn("Skipping invalid cluster")
	}
	return clusters, nil
}

func copyClusters(in []models.Cluster) []models.Cluster {
	out := make([]models.Cluster, len(in))
	copy(out, in)
	return out
}
