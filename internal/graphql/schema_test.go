package graphql

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
	"github.com/devplatform/ldap-console/internal/service"
)

type stubDirectory struct {
	lastQuery models.SearchQuery
}

func (s *stubDirectory) ListClusters(context.Context) ([]models.Cluster, error) {
	return []models.Cluster{
		{Name: "prod", Host: "ldap1", Port: 389, BindDN: "cn=admin"},
		{Name: "ha", BindDN: "cn=admin", Nodes: []models.Node{{Host: "a", Port: 389}, {Host: "b", Port: 389}}},
	}, nil
}

func (s *stubDirectory) CredentialCached(_ context.Context, cluster string) (bool, error) {
	return cluster == "prod", nil
}

func (s *stubDirectory) Connect(_ context.Context, cluster, password string) (*models.ConnectResult, error) {
	if password == "" {
		return nil, service.ErrPasswordRequired
	}
	return &models.ConnectResult{Status: "success", Message: "Connected successfully", BaseDN: "dc=example,dc=com"}, nil
}

func (s *stubDirectory) Search(_ context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	s.lastQuery = q
	return &models.SearchResult{
		Entries: []models.DirectoryEntry{
			models.NewEntry("uid=jdoe,ou=people", map[string]models.AttributeValue{
				"objectClass": models.MultiValue("top", "inetOrgPerson"),
				"uid":         models.ScalarValue("jdoe"),
				"cn":          models.ScalarValue("Jane Doe"),
			}),
			models.NewEntry("cn=admins,ou=groups", map[string]models.AttributeValue{
				"objectClass": models.MultiValue("groupOfNames"),
				"cn":          models.ScalarValue("admins"),
				"member":      models.MultiValue("uid=a", "uid=b"),
			}),
		},
		Total:    12,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  true,
	}, nil
}

func (s *stubDirectory) Stats(context.Context, string) (*models.DirectoryStats, error) {
	return &models.DirectoryStats{Total: 1000, Users: 700, Groups: 50, Window: 1000, Exact: false}, nil
}

func (s *stubDirectory) Classifier() *directory.Classifier {
	return directory.NewClassifier(directory.DefaultOptions())
}

func (s *stubDirectory) Health(context.Context, string) (*models.HealthSnapshot, error) {
	return &models.HealthSnapshot{Status: models.StatusHealthy, ResponseTime: "3ms", Operations: 42}, nil
}

func (s *stubDirectory) Activity(context.Context, string) ([]models.ActivityRecord, error) {
	return []models.ActivityRecord{{Timestamp: "2024-05-01 12:00:00", Client: "Statistics", Operation: "BIND", DN: "Completed: 7"}}, nil
}

func (s *stubDirectory) NodeMetrics(context.Context, string) (*models.ClusterMetrics, error) {
	return &models.ClusterMetrics{
		Nodes:         []models.NodeMetrics{{Node: "a", Port: 389, Status: models.StatusHealthy, EntryCount: 10}},
		ClusterStatus: models.StatusHealthy,
		InSync:        true,
	}, nil
}

func run(t *testing.T, svc *stubDirectory, query string) (map[string]any, []string) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	s, err := NewSchema(svc, logger)
	require.NoError(t, err)

	res := graphql.Do(graphql.Params{
		Schema:        s.GetSchema(),
		RequestString: query,
		Context:       context.Background(),
	})

	var errs []string
	for _, e := range res.Errors {
		errs = append(errs, e.Message)
	}

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	return data, errs
}

func TestClustersQuery(t *testing.T) {
	t.Parallel()

	data, errs := run(t, &stubDirectory{}, `{ clusters { name location nodes { host } } credentialCached(cluster: "prod") }`)
	require.Empty(t, errs)

	clusters := data["clusters"].([]any)
	require.Len(t, clusters, 2)
	assert.Equal(t, "ldap1:389", clusters[0].(map[string]any)["location"])
	assert.Equal(t, "2 nodes", clusters[1].(map[string]any)["location"])
	assert.Equal(t, true, data["credentialCached"])
}

func TestEntriesQuery(t *testing.T) {
	t.Parallel()

	svc := &stubDirectory{}
	data, errs := run(t, svc, `{
		entries(cluster: "prod", category: USERS, search: "jo", page: 2, pageSize: 5) {
			total page pageSize hasMore
			entries {
				dn category
				user { username fullName detail badges { label kind } }
				group { name memberCount memberLabel }
				summary { objectClass }
			}
		}
	}`)
	require.Empty(t, errs)

	assert.Equal(t, models.SearchQuery{Cluster: "prod", Category: models.User, SearchText: "jo", Page: 2, PageSize: 5}, svc.lastQuery)

	page := data["entries"].(map[string]any)
	assert.EqualValues(t, 12, page["total"])
	assert.Equal(t, true, page["hasMore"])

	entries := page["entries"].([]any)
	require.Len(t, entries, 2)

	user := entries[0].(map[string]any)
	assert.Equal(t, "user", user["category"])
	assert.Nil(t, user["group"])
	u := user["user"].(map[string]any)
	assert.Equal(t, "jdoe", u["username"])
	assert.Equal(t, "-", u["detail"])
	assert.Equal(t, []any{map[string]any{"label": "Standard", "kind": "standard"}}, u["badges"])

	group := entries[1].(map[string]any)
	assert.Equal(t, "group", group["category"])
	g := group["group"].(map[string]any)
	assert.EqualValues(t, 2, g["memberCount"])
	assert.Equal(t, "2 members", g["memberLabel"])
}

func TestEntriesDefaults(t *testing.T) {
	t.Parallel()

	svc := &stubDirectory{}
	_, errs := run(t, svc, `{ entries(cluster: "prod") { total } }`)
	require.Empty(t, errs)
	assert.Equal(t, models.SearchQuery{Cluster: "prod", Category: models.All, Page: 1, PageSize: 10}, svc.lastQuery)
}

func TestMonitoringQueries(t *testing.T) {
	t.Parallel()

	data, errs := run(t, &stubDirectory{}, `{
		stats(cluster: "prod") { total users groups window exact }
		health(cluster: "prod") { status responseTime operations }
		activity(cluster: "prod") { operation dn }
		nodeMetrics(cluster: "prod") { cluster_status in_sync nodes { node entry_count } }
	}`)
	require.Empty(t, errs)

	stats := data["stats"].(map[string]any)
	assert.EqualValues(t, 700, stats["users"])
	assert.Equal(t, false, stats["exact"])

	assert.Equal(t, "healthy", data["health"].(map[string]any)["status"])
	assert.Equal(t, "BIND", data["activity"].([]any)[0].(map[string]any)["operation"])

	metrics := data["nodeMetrics"].(map[string]any)
	assert.Equal(t, true, metrics["in_sync"])
	assert.EqualValues(t, 10, metrics["nodes"].([]any)[0].(map[string]any)["entry_count"])
}

func TestConnectMutation(t *testing.T) {
	t.Parallel()

	data, errs := run(t, &stubDirectory{}, `mutation { connect(cluster: "prod", password: "secret") { status message base_dn } }`)
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"status": "success", "message": "Connected successfully", "base_dn": "dc=example,dc=com"}, data["connect"])

	_, errs = run(t, &stubDirectory{}, `mutation { connect(cluster: "prod") { status } }`)
	assert.Equal(t, []string{"Password required"}, errs)
}
