// Package service implements the directory console backend operations on top of the
// cluster registry, the credential cache and LDAP sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/credentials"
	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/ldap"
	"github.com/devplatform/ldap-console/internal/models"
)

// Clusters is the registry view the service needs
type Clusters interface {
	List(ctx context.Context) ([]models.Cluster, error)
	Get(ctx context.Context, name string) (models.Cluster, error)
}

// Connector opens bound LDAP sessions
type Connector interface {
	Connect(ctx context.Context, cluster models.Cluster, password string) (*ldap.Session, error)
	ConnectNode(ctx context.Context, cluster models.Cluster, node models.Node, password string) (*ldap.Session, error)
}

// Options holds the browsing limits
type Options struct {
	StatsWindow int
	MaxPageSize int
}

// Directory serves cluster listing, connection, search, stats and monitoring
type Directory struct {
	clusters   Clusters
	creds      credentials.Store
	connector  Connector
	classifier *directory.Classifier
	opts       Options
	logger     *logrus.Logger
	now        func() time.Time
}

// NewDirectory creates the service
func NewDirectory(clusters Clusters, creds credentials.Store, connector Connector, classifier *directory.Classifier, opts Options, logger *logrus.Logger) *Directory {
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = 1000
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 1000
	}
	return &Directory{
		clusters:   clusters,
		creds:      creds,
		connector:  connector,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Classifier exposes the classifier used for stats and summaries
func (d *Directory) Classifier() *directory.Classifier {
	return d.classifier
}

// ListClusters returns every registered cluster
func (d *Directory) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	return d.clusters.List(ctx)
}

// CredentialCached reports whether a password is cached. Unknown clusters are simply not cached.
func (d *Directory) CredentialCached(ctx context.Context, name string) (bool, error) {
	cluster, err := d.clusters.Get(ctx, name)
	if errors.Is(err, ErrClusterNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.creds.Has(cluster.Name, cluster.BindDN), nil
}

// Connect binds to the cluster and caches the password on success. A cached password
// takes precedence over the supplied one.
func (d *Directory) Connect(ctx context.Context, name, password string) (*models.ConnectResult, error) {
	cluster, err := d.clusters.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	cached, err := d.creds.Get(cluster.Name, cluster.BindDN)
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		d.logger.WithError(err).WithField("cluster", name).Warn("Cached credential unreadable")
	}

	pw := cached
	if pw == "" {
		pw = password
	}
	if pw == "" {
		return nil, ErrPasswordRequired
	}

	d.logger.WithFields(logrus.Fields{
		"cluster": name,
		"cached":  cached != "",
	}).Info("Connecting to cluster")

	session, err := d.connector.Connect(ctx, cluster, pw)
	if err != nil {
		if cached != "" && ldap.IsInvalidCredentials(err) {
			d.forget(cluster)
		}
		return nil, &DirectoryError{Cluster: name, Op: "connect", Err: err}
	}
	defer session.Close()

	baseDN := session.BaseDN()

	if cached == "" {
		if err := d.creds.Save(cluster.Name, cluster.BindDN, pw); err != nil {
			d.logger.WithError(err).WithField("cluster", name).Error("Failed to cache credential")
		}
	}

	d.logger.WithFields(logrus.Fields{
		"cluster": name,
		"node":    session.Node().Host,
		"base_dn": baseDN,
	}).Info("Connected successfully")

	return &models.ConnectResult{
		Status:  "success",
		Message: "Connected successfully",
		BaseDN:  baseDN,
	}, nil
}

// forget drops a cached password the directory no longer accepts, so the next connect asks again
func (d *Directory) forget(cluster models.Cluster) {
	log := d.logger.WithField("cluster", cluster.Name)
	if err := d.creds.Clear(cluster.Name, cluster.BindDN); err != nil {
		log.WithError(err).Error("Failed to clear rejected credential")
		return
	}
	log.Warn("Cached credential rejected by the directory, cleared")
}

// open binds with the cached credential
func (d *Directory) open(ctx context.Context, name string) (*ldap.Session, error) {
	cluster, password, err := d.cachedCredential(ctx, name)
	if err != nil {
		return nil, err
	}

	session, err := d.connector.Connect(ctx, cluster, password)
	if err != nil {
		return nil, &DirectoryError{Cluster: name, Op: "connect", Err: err}
	}
	return session, nil
}

func (d *Directory) cachedCredential(ctx context.Context, name string) (models.Cluster, string, error) {
	cluster, err := d.clusters.Get(ctx, name)
	if err != nil {
		return cluster, "", err
	}

	password, err := d.creds.Get(cluster.Name, cluster.BindDN)
	if errors.Is(err, credentials.ErrNotFound) || (err == nil && password == "") {
		return cluster, "", ErrCredentialNotCached
	}
	if err != nil {
		return cluster, "", fmt.Errorf("failed to read cached credential: %w", err)
	}
	return cluster, password, nil
}

// Search returns one page of entries. The total is always exact for the filter.
func (d *Directory) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	if q.Page < 1 {
		return nil, invalid("page must be at least 1")
	}
	if q.PageSize < 1 || q.PageSize > d.opts.MaxPageSize {
		return nil, invalid("page_size must be between 1 and %d", d.opts.MaxPageSize)
	}

	session, err := d.open(ctx, q.Cluster)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	filter := ldap.BuildFilter(q.Category, q.SearchText)
	d.logger.WithFields(logrus.Fields{
		"cluster": q.Cluster,
		"filter":  filter,
		"page":    q.Page,
	}).Debug("Searching entries")

	found, err := session.SearchAll(session.BaseDN(), filter, nil, 0)
	if err != nil {
		return nil, &DirectoryError{Cluster: q.Cluster, Op: "search", Err: err}
	}

	total := len(found)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	page := ldap.ToEntries(found[start:end])
	return &models.SearchResult{
		Entries:  page,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  start+len(page) < total,
	}, nil
}

// Stats counts users and groups over the first StatsWindow entries
func (d *Directory) Stats(ctx context.Context, name string) (*models.DirectoryStats, error) {
	session, err := d.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	found, err := session.SearchAll(session.BaseDN(), ldap.MatchAll, []string{"objectClass", "ou", "o"}, d.opts.StatsWindow)
	if err != nil {
		return nil, &DirectoryError{Cluster: name, Op: "stats", Err: err}
	}

	stats := directory.Aggregate(d.classifier, ldap.ToEntries(found), d.opts.StatsWindow)
	return &stats, nil
}

// Health measures bind time and reads the entry count and contextCSN. Every failure
// other than an unknown cluster is reported in the snapshot.
func (d *Directory) Health(ctx context.Context, name string) (*models.HealthSnapshot, error) {
	session, err := d.open(ctx, name)
	if errors.Is(err, ErrClusterNotFound) {
		return nil, err
	}
	if err != nil {
		d.logger.WithError(err).WithField("cluster", name).Warn("Health check failed")
		return &models.HealthSnapshot{Status: models.StatusUnhealthy, Error: unwrapDetail(err)}, nil
	}
	defer session.Close()

	base := session.BaseDN()
	count, err := session.Count(base, ldap.MatchAll)
	if err != nil {
		d.logger.WithError(err).WithField("cluster", name).Debug("Entry count failed")
	}
	csn, err := session.ReadAttribute(base, "contextCSN")
	if err != nil {
		csn = ""
	}

	return &models.HealthSnapshot{
		Status:       models.StatusHealthy,
		ResponseTime: fmt.Sprintf("%dms", session.BindTime().Milliseconds()),
		Connections:  "N/A",
		Operations:   count,
		ContextCSN:   csn,
	}, nil
}

func unwrapDetail(err error) string {
	var de *DirectoryError
	if errors.As(err, &de) {
		return de.Err.Error()
	}
	return err.Error()
}
