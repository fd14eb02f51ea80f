package console

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
)

// Options configures a Console
type Options struct {
	PageSize    int
	StatsWindow int
	// MaxPageSize is the largest page the backend serves; larger stats windows are fetched in several pages
	MaxPageSize int
	Classifier  *directory.Classifier
}

// Session is the per-cluster state of the console
type Session struct {
	Cluster   models.Cluster
	Gate      *Gate
	Paginator *Paginator
	Probe     *Probe

	remote     Remote
	window     int
	maxPage    int
	classifier *directory.Classifier
	logger     *logrus.Logger
}

// Search runs the paginator's current query. Only a Cached session may query the directory.
func (s *Session) Search(ctx context.Context) error {
	if !s.Gate.Cached() {
		return ErrCredentialRequired
	}
	s.Paginator.Execute(ctx)
	return s.Paginator.LastError()
}

// LoadStats fetches one window of entries across every category and aggregates it
func (s *Session) LoadStats(ctx context.Context) (models.DirectoryStats, error) {
	if !s.Gate.Cached() {
		return models.DirectoryStats{}, ErrCredentialRequired
	}

	size := min(s.window, s.maxPage)
	entries := make([]models.DirectoryEntry, 0, size)
	for page := 1; len(entries) < s.window; page++ {
		res, err := s.remote.SearchEntries(ctx, SearchParams{
			Cluster:  s.Cluster.Name,
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"cluster": s.Cluster.Name,
				"page":    page,
			}).Warn("Failed to load stats window")
			return models.DirectoryStats{}, err
		}

		entries = append(entries, res.Entries...)
		if len(res.Entries) < size || len(entries) >= res.Total {
			break
		}
	}
	if len(entries) > s.window {
		entries = entries[:s.window]
	}

	return directory.Aggregate(s.classifier, entries, s.window), nil
}

// Console is the operator's view over every registered cluster
type Console struct {
	remote Remote
	opts   Options
	logger *logrus.Logger

	mu       sync.Mutex
	clusters []models.Cluster
	sessions map[string]*Session
}

// New creates a console. Zero options fall back to a page size of 10, a window of 1000
// and a backend page limit of 1000.
func New(remote Remote, opts Options, logger *logrus.Logger) *Console {
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	if opts.StatsWindow < 1 {
		opts.StatsWindow = 1000
	}
	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = 1000
	}
	if opts.Classifier == nil {
		opts.Classifier = directory.NewClassifier(directory.DefaultOptions())
	}
	return &Console{
		remote:   remote,
		opts:     opts,
		logger:   logger,
		clusters: []models.Cluster{},
		sessions: make(map[string]*Session),
	}
}

// Classifier returns the classifier used for summaries and stats
func (c *Console) Classifier() *directory.Classifier {
	return c.opts.Classifier
}

// Load lists the clusters and resolves every gate concurrently. A failed list leaves the
// console with no clusters. A failed cache check resolves that gate as uncached.
func (c *Console) Load(ctx context.Context) []models.Cluster {
	clusters, err := c.remote.ListClusters(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list clusters")
		clusters = nil
	}
	if clusters == nil {
		clusters = []models.Cluster{}
	}

	c.mu.Lock()
	c.clusters = clusters
	sessions := make([]*Session, 0, len(clusters))
	for _, cl := range clusters {
		s := c.session(cl.Name)
		s.Cluster = cl
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			cached, err := c.remote.CheckCredentialCached(ctx, s.Cluster.Name)
			if err != nil {
				c.logger.WithError(err).WithField("cluster", s.Cluster.Name).Warn("Credential check failed")
				cached = false
			}
			s.Gate.Resolve(cached)
			return nil
		})
	}
	_ = g.Wait()

	return clusters
}

// Clusters returns the clusters from the last Load, never nil
func (c *Console) Clusters() []models.Cluster {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Cluster, len(c.clusters))
	copy(out, c.clusters)
	return out
}

// Session returns the session of the named cluster, creating it on first access
func (c *Console) Session(name string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session(name)
}

func (c *Console) session(name string) *Session {
	if s, ok := c.sessions[name]; ok {
		return s
	}

	cluster := models.Cluster{Name: name}
	for _, cl := range c.clusters {
		if cl.Name == name {
			cluster = cl
			break
		}
	}

	s := &Session{
		Cluster:    cluster,
		Gate:       NewGate(name, c.remote, c.logger),
		Paginator:  NewPaginator(name, c.opts.PageSize, c.remote, c.logger),
		Probe:      NewProbe(name, c.remote, c.logger),
		remote:     c.remote,
		window:     c.opts.StatsWindow,
		maxPage:    c.opts.MaxPageSize,
		classifier: c.opts.Classifier,
		logger:     c.logger,
	}
	c.sessions[name] = s
	return s
}

// Enter opens the cluster's detail view. Without a cached credential the gate's prompt
// is opened and ErrCredentialRequired returned, and no directory call is made.
// Otherwise health is refreshed.
func (c *Console) Enter(ctx context.Context, name string) (*Session, error) {
	s := c.Session(name)
	if err := s.Gate.RequestEntry(); err != nil {
		return s, err
	}
	s.Probe.Refresh(ctx)
	return s, nil
}
