package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/ldap-console/internal/models"
)

type fakeRemote struct {
	mu sync.Mutex

	clusters   []models.Cluster
	listErr    error
	cached     map[string]bool
	checkErr   map[string]error
	password   string
	connectErr error
	search     func(SearchParams) (*models.SearchResult, error)
	health     func(string) (*models.HealthSnapshot, error)

	connectCalls int
	searchCalls  []SearchParams
	healthCalls  int
}

func (f *fakeRemote) ListClusters(context.Context) ([]models.Cluster, error) {
	return f.clusters, f.listErr
}

func (f *fakeRemote) CheckCredentialCached(_ context.Context, cluster string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkErr[cluster]; err != nil {
		return false, err
	}
	return f.cached[cluster], nil
}

func (f *fakeRemote) Connect(_ context.Context, cluster, credential string) (*models.ConnectResult, error) {
	f.mu.Lock()
	f.connectCalls++
	f.mu.Unlock()

	if f.connectErr != nil {
		return nil, f.connectErr
	}
	if credential != f.password {
		return nil, &RemoteError{Op: "connect", Status: 502, Detail: "Invalid Credentials"}
	}
	return &models.ConnectResult{Status: "success", Message: "Connected successfully"}, nil
}

func (f *fakeRemote) SearchEntries(_ context.Context, params SearchParams) (*models.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, params)
	f.mu.Unlock()
	return f.search(params)
}

func (f *fakeRemote) GetHealth(_ context.Context, cluster string) (*models.HealthSnapshot, error) {
	f.mu.Lock()
	f.healthCalls++
	f.mu.Unlock()
	return f.health(cluster)
}

func (f *fakeRemote) GetStats(context.Context, string) (*models.DirectoryStats, error) {
	return nil, errors.New("not used")
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func person(uid string) models.DirectoryEntry {
	return models.NewEntry("uid="+uid+",ou=people", map[string]models.AttributeValue{
		"objectClass": models.MultiValue("top", "person", "inetOrgPerson"),
		"uid":         models.ScalarValue(uid),
	})
}

func team(cn string) models.DirectoryEntry {
	return models.NewEntry("cn="+cn+",ou=groups", map[string]models.AttributeValue{
		"objectClass": models.MultiValue("groupOfNames"),
		"cn":          models.ScalarValue(cn),
	})
}

// ============================================================================
// GATE
// ============================================================================

func TestGateResolveOnlyFromUnknown(t *testing.T) {
	t.Parallel()

	g := NewGate("prod", &fakeRemote{}, testLogger())
	assert.Equal(t, StateUnknown, g.State())

	g.Resolve(false)
	assert.Equal(t, StateUncached, g.State())

	g.Resolve(true)
	assert.Equal(t, StateUncached, g.State())

	cached := NewGate("dev", &fakeRemote{}, testLogger())
	cached.Resolve(true)
	assert.True(t, cached.Cached())
}

func TestGateRequestEntryOpensPrompt(t *testing.T) {
	t.Parallel()

	g := NewGate("prod", &fakeRemote{}, testLogger())
	g.Resolve(false)

	assert.ErrorIs(t, g.RequestEntry(), ErrCredentialRequired)
	assert.Equal(t, StatePromptOpen, g.State())

	g.ClosePrompt()
	assert.Equal(t, StateUncached, g.State())
}

func TestGateSubmitEmptyCredential(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{password: "secret"}
	g := NewGate("prod", remote, testLogger())
	g.Resolve(false)
	require.ErrorIs(t, g.RequestEntry(), ErrCredentialRequired)

	err := g.Submit(context.Background(), "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password required", verr.Message)
	assert.Equal(t, StatePromptOpen, g.State())
	assert.Equal(t, "Password required", g.PromptError())
	assert.Zero(t, remote.connectCalls)
}

func TestGateSubmitSuccessIsSticky(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{password: "secret"}
	g := NewGate("prod", remote, testLogger())
	g.Resolve(false)
	require.ErrorIs(t, g.RequestEntry(), ErrCredentialRequired)

	require.NoError(t, g.Submit(context.Background(), "secret"))
	assert.Equal(t, StateCached, g.State())
	assert.Empty(t, g.PromptError())
	assert.NoError(t, g.RequestEntry())

	// later failures never demote a cached gate
	remote.connectErr = errors.New("boom")
	assert.NoError(t, g.Submit(context.Background(), "other"))
	g.Resolve(false)
	g.ClosePrompt()
	assert.Equal(t, StateCached, g.State())
}

func TestGateSubmitFailureKeepsPromptOpen(t *testing.T) {
	t.Parallel()

	t.Run("server detail", func(t *testing.T) {
		g := NewGate("prod", &fakeRemote{password: "secret"}, testLogger())
		g.Resolve(false)
		_ = g.RequestEntry()

		err := g.Submit(context.Background(), "wrong")
		require.Error(t, err)
		assert.Equal(t, StatePromptOpen, g.State())
		assert.Equal(t, "Invalid Credentials", g.PromptError())
	})

	t.Run("no detail", func(t *testing.T) {
		g := NewGate("prod", &fakeRemote{connectErr: errors.New("dial tcp: refused")}, testLogger())
		g.Resolve(false)
		_ = g.RequestEntry()

		require.Error(t, g.Submit(context.Background(), "secret"))
		assert.Equal(t, StatePromptOpen, g.State())
		assert.Equal(t, "Connection failed", g.PromptError())
	})
}

type blockingRemote struct {
	fakeRemote
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRemote) Connect(ctx context.Context, cluster, credential string) (*models.ConnectResult, error) {
	close(b.entered)
	<-b.release
	return b.fakeRemote.Connect(ctx, cluster, credential)
}

func TestGateSingleSubmissionInFlight(t *testing.T) {
	t.Parallel()

	remote := &blockingRemote{
		fakeRemote: fakeRemote{password: "secret"},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	g := NewGate("prod", remote, testLogger())
	g.Resolve(false)
	_ = g.RequestEntry()

	done := make(chan error, 1)
	go func() { done <- g.Submit(context.Background(), "secret") }()

	<-remote.entered
	assert.Equal(t, StateSubmitting, g.State())
	assert.ErrorIs(t, g.Submit(context.Background(), "secret"), ErrSubmissionInFlight)

	close(remote.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCached, g.State())
	assert.Equal(t, 1, remote.connectCalls)
}

// ============================================================================
// PAGINATOR
// ============================================================================

func pageOf(n, total int, hasMore bool) func(SearchParams) (*models.SearchResult, error) {
	return func(p SearchParams) (*models.SearchResult, error) {
		entries := make([]models.DirectoryEntry, n)
		for i := range entries {
			entries[i] = person(fmt.Sprintf("u%d", i))
		}
		return &models.SearchResult{Entries: entries, Total: total, HasMore: hasMore}, nil
	}
}

func TestPaginatorFilterResetsPage(t *testing.T) {
	t.Parallel()

	p := NewPaginator("prod", 10, &fakeRemote{}, testLogger())

	for _, page := range []int{1, 2, 7, 100} {
		p.SetPage(page)
		p.SetCategoryFilter(models.Group)
		assert.Equal(t, 1, p.Query().Page)

		p.SetPage(page)
		p.SetSearchText("jo")
		assert.Equal(t, 1, p.Query().Page)
	}

	p.SetPage(-3)
	assert.Equal(t, 1, p.Query().Page)
}

func TestPaginatorParams(t *testing.T) {
	t.Parallel()

	p := NewPaginator("prod", 25, &fakeRemote{}, testLogger())
	assert.Equal(t, SearchParams{Cluster: "prod", Page: 1, PageSize: 25, FilterType: ""}, p.Params())

	p.SetCategoryFilter(models.OrganizationalUnit)
	p.SetSearchText("   ")
	p.SetPage(3)
	assert.Equal(t, SearchParams{Cluster: "prod", Page: 3, PageSize: 25, FilterType: "ous"}, p.Params())

	p.SetSearchText("jane")
	assert.Equal(t, "jane", p.Params().Search)
}

func TestPaginatorNextControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entries  int
		hasMore  bool
		disabled bool
	}{
		{"full page without more", 10, false, false},
		{"short page without more", 4, false, true},
		{"short page with more", 4, true, false},
		{"empty page", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginator("prod", 10, &fakeRemote{search: pageOf(tt.entries, 30, tt.hasMore)}, testLogger())
			require.True(t, p.Execute(context.Background()))
			assert.Equal(t, tt.disabled, p.NextDisabled())
		})
	}
}

func TestPaginatorNavigation(t *testing.T) {
	t.Parallel()

	p := NewPaginator("prod", 10, &fakeRemote{search: pageOf(10, 25, true)}, testLogger())
	p.Execute(context.Background())

	assert.True(t, p.PreviousDisabled())
	assert.False(t, p.Previous())
	assert.Equal(t, "Showing 1 to 10 of 25 entries", p.RangeLabel())

	require.True(t, p.Next())
	p.Execute(context.Background())
	assert.Equal(t, 2, p.Query().Page)
	assert.False(t, p.PreviousDisabled())
	assert.Equal(t, "Showing 11 to 20 of 25 entries", p.RangeLabel())

	p.SetPage(3)
	assert.Equal(t, "Showing 21 to 25 of 25 entries", p.RangeLabel())

	require.True(t, p.Previous())
	assert.Equal(t, 2, p.Query().Page)
}

func TestPaginatorEmptyResult(t *testing.T) {
	t.Parallel()

	p := NewPaginator("prod", 10, &fakeRemote{search: pageOf(0, 0, false)}, testLogger())
	p.Execute(context.Background())

	assert.Equal(t, "No entries found", p.EmptyMessage())
	assert.Equal(t, "Showing 0 to 0 of 0 entries", p.RangeLabel())
	assert.True(t, p.NextDisabled())
}

func TestPaginatorFailureClearsResults(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{search: pageOf(10, 50, true)}
	p := NewPaginator("prod", 10, remote, testLogger())
	p.Execute(context.Background())
	require.Len(t, p.Result().Entries, 10)

	remote.search = func(SearchParams) (*models.SearchResult, error) {
		return nil, &RemoteError{Op: "searchEntries", Status: 502, Detail: "Can't contact LDAP server"}
	}
	assert.True(t, p.Execute(context.Background()))

	res := p.Result()
	assert.Empty(t, res.Entries)
	assert.NotNil(t, res.Entries)
	assert.Zero(t, res.Total)
	assert.False(t, res.HasMore)
	assert.Error(t, p.LastError())
	assert.Equal(t, "No entries found", p.EmptyMessage())

	remote.search = pageOf(3, 3, false)
	p.Execute(context.Background())
	assert.NoError(t, p.LastError())
}

func TestPaginatorDiscardsStaleResponse(t *testing.T) {
	t.Parallel()

	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})

	remote := &fakeRemote{search: func(p SearchParams) (*models.SearchResult, error) {
		if p.Search == "old" {
			close(slowEntered)
			<-releaseSlow
			return &models.SearchResult{Entries: []models.DirectoryEntry{person("old")}, Total: 1}, nil
		}
		return &models.SearchResult{Entries: []models.DirectoryEntry{team("new")}, Total: 1}, nil
	}}
	p := NewPaginator("prod", 10, remote, testLogger())

	p.SetSearchText("old")
	staleApplied := make(chan bool, 1)
	go func() { staleApplied <- p.Execute(context.Background()) }()
	<-slowEntered

	p.SetSearchText("new")
	require.True(t, p.Execute(context.Background()))

	close(releaseSlow)
	assert.False(t, <-staleApplied)
	assert.Equal(t, "cn=new,ou=groups", p.Result().Entries[0].DN)
}

// ============================================================================
// PROBE
// ============================================================================

func TestProbeBadge(t *testing.T) {
	t.Parallel()

	status := models.StatusHealthy
	remote := &fakeRemote{health: func(string) (*models.HealthSnapshot, error) {
		return &models.HealthSnapshot{Status: status, ResponseTime: "4ms"}, nil
	}}
	p := NewProbe("prod", remote, testLogger())
	assert.Empty(t, p.Badge())
	assert.Nil(t, p.Snapshot())

	p.Refresh(context.Background())
	assert.Equal(t, "● Healthy", p.Badge())

	status = "degraded"
	p.Refresh(context.Background())
	assert.Equal(t, "● Unhealthy", p.Badge())
}

func TestProbeFailureDropsSnapshot(t *testing.T) {
	t.Parallel()

	fail := false
	remote := &fakeRemote{health: func(string) (*models.HealthSnapshot, error) {
		if fail {
			return nil, &RemoteError{Op: "getHealth", Status: 404, Detail: "Cluster not found"}
		}
		return &models.HealthSnapshot{Status: models.StatusHealthy}, nil
	}}
	p := NewProbe("prod", remote, testLogger())
	p.Refresh(context.Background())
	require.NotNil(t, p.Snapshot())

	fail = true
	p.Refresh(context.Background())
	assert.Nil(t, p.Snapshot())
	assert.Empty(t, p.Badge())
}

func TestProbeDiscardsStaleResponse(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})

	remote := &fakeRemote{health: func(string) (*models.HealthSnapshot, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(slowEntered)
			<-releaseSlow
			return &models.HealthSnapshot{Status: models.StatusUnhealthy}, nil
		}
		return &models.HealthSnapshot{Status: models.StatusHealthy}, nil
	}}
	p := NewProbe("prod", remote, testLogger())

	stale := make(chan bool, 1)
	go func() { stale <- p.Refresh(context.Background()) }()
	<-slowEntered

	require.True(t, p.Refresh(context.Background()))
	close(releaseSlow)
	assert.False(t, <-stale)
	assert.Equal(t, "● Healthy", p.Badge())
}

// ============================================================================
// CONSOLE
// ============================================================================

func newConsoleRemote() *fakeRemote {
	return &fakeRemote{
		clusters: []models.Cluster{
			{Name: "prod", Host: "ldap1", Port: 389, BindDN: "cn=admin"},
			{Name: "dev", Host: "ldap2", Port: 389, BindDN: "cn=admin"},
			{Name: "lab", Host: "ldap3", Port: 389, BindDN: "cn=admin"},
		},
		cached:   map[string]bool{"prod": true},
		checkErr: map[string]error{"lab": errors.New("timeout")},
		password: "secret",
		search: func(p SearchParams) (*models.SearchResult, error) {
			entries := []models.DirectoryEntry{person("a"), person("b"), team("admins")}
			return &models.SearchResult{Entries: entries, Total: len(entries)}, nil
		},
		health: func(string) (*models.HealthSnapshot, error) {
			return &models.HealthSnapshot{Status: models.StatusHealthy}, nil
		},
	}
}

func TestConsoleLoad(t *testing.T) {
	t.Parallel()

	c := New(newConsoleRemote(), Options{}, testLogger())
	clusters := c.Load(context.Background())
	require.Len(t, clusters, 3)

	assert.Equal(t, StateCached, c.Session("prod").Gate.State())
	assert.Equal(t, StateUncached, c.Session("dev").Gate.State())
	assert.Equal(t, StateUncached, c.Session("lab").Gate.State())
	assert.Equal(t, "ldap1", c.Session("prod").Cluster.Host)
	assert.Same(t, c.Session("prod"), c.Session("prod"))
}

func TestConsoleLoadListFailure(t *testing.T) {
	t.Parallel()

	remote := newConsoleRemote()
	remote.listErr = &RemoteError{Op: "listClusters", Err: errors.New("connection refused")}

	c := New(remote, Options{}, testLogger())
	assert.NotNil(t, c.Clusters())

	clusters := c.Load(context.Background())
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
	assert.NotNil(t, c.Clusters())
	assert.Empty(t, c.Clusters())
}

func TestConsoleEnter(t *testing.T) {
	t.Parallel()

	remote := newConsoleRemote()
	c := New(remote, Options{}, testLogger())
	c.Load(context.Background())

	s, err := c.Enter(context.Background(), "dev")
	assert.ErrorIs(t, err, ErrCredentialRequired)
	assert.Equal(t, StatePromptOpen, s.Gate.State())
	assert.ErrorIs(t, s.Search(context.Background()), ErrCredentialRequired)
	assert.Empty(t, remote.searchCalls)
	assert.Zero(t, remote.healthCalls)

	require.NoError(t, s.Gate.Submit(context.Background(), "secret"))
	s, err = c.Enter(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, "● Healthy", s.Probe.Badge())

	require.NoError(t, s.Search(context.Background()))
	assert.Len(t, s.Paginator.Result().Entries, 3)
}

func TestSessionLoadStats(t *testing.T) {
	t.Parallel()

	remote := newConsoleRemote()
	c := New(remote, Options{StatsWindow: 3}, testLogger())
	c.Load(context.Background())

	_, err := c.Session("dev").LoadStats(context.Background())
	assert.ErrorIs(t, err, ErrCredentialRequired)

	stats, err := c.Session("prod").LoadStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DirectoryStats{Total: 3, Users: 2, Groups: 1, Window: 3, Exact: false}, stats)

	require.NotEmpty(t, remote.searchCalls)
	assert.Equal(t, SearchParams{Cluster: "prod", Page: 1, PageSize: 3}, remote.searchCalls[len(remote.searchCalls)-1])
}

func TestSessionLoadStatsPagesLargeWindow(t *testing.T) {
	t.Parallel()

	all := []models.DirectoryEntry{
		person("a"), person("b"), person("c"), person("d"),
		team("admins"), team("ops"), team("dev"),
	}
	sliceOf := func(entries []models.DirectoryEntry) func(SearchParams) (*models.SearchResult, error) {
		return func(p SearchParams) (*models.SearchResult, error) {
			start := min((p.Page-1)*p.PageSize, len(entries))
			end := min(start+p.PageSize, len(entries))
			return &models.SearchResult{Entries: entries[start:end], Total: len(entries)}, nil
		}
	}

	t.Run("window spans several pages", func(t *testing.T) {
		remote := newConsoleRemote()
		remote.search = sliceOf(all)
		c := New(remote, Options{StatsWindow: 5, MaxPageSize: 2}, testLogger())
		c.Load(context.Background())

		stats, err := c.Session("prod").LoadStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DirectoryStats{Total: 5, Users: 4, Groups: 1, Window: 5, Exact: false}, stats)
		assert.Equal(t, []SearchParams{
			{Cluster: "prod", Page: 1, PageSize: 2},
			{Cluster: "prod", Page: 2, PageSize: 2},
			{Cluster: "prod", Page: 3, PageSize: 2},
		}, remote.searchCalls)
	})

	t.Run("directory smaller than the window", func(t *testing.T) {
		remote := newConsoleRemote()
		remote.search = sliceOf(all[2:5])
		c := New(remote, Options{StatsWindow: 5, MaxPageSize: 2}, testLogger())
		c.Load(context.Background())

		stats, err := c.Session("prod").LoadStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.DirectoryStats{Total: 3, Users: 2, Groups: 1, Window: 5, Exact: true}, stats)
		assert.Len(t, remote.searchCalls, 2)
	})

	t.Run("a failed page fails the load", func(t *testing.T) {
		remote := newConsoleRemote()
		remote.search = func(p SearchParams) (*models.SearchResult, error) {
			if p.Page == 2 {
				return nil, &RemoteError{Op: "searchEntries", Status: 502, Detail: "timeout"}
			}
			return sliceOf(all)(p)
		}
		c := New(remote, Options{StatsWindow: 5, MaxPageSize: 2}, testLogger())
		c.Load(context.Background())

		_, err := c.Session("prod").LoadStats(context.Background())
		var rerr *RemoteError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "timeout", rerr.Detail)
	})
}
