package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/models"
)

// HTTPClient calls the console backend REST API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPClient creates a client for the backend at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListClusters returns the registered clusters
func (c *HTTPClient) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	var resp struct {
		Clusters []models.Cluster `json:"clusters"`
	}
	if err := c.do(ctx, "listClusters", http.MethodGet, "/api/clusters/list", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clusters, nil
}

// CheckCredentialCached reports whether the backend holds a bind password for the cluster
func (c *HTTPClient) CheckCredentialCached(ctx context.Context, cluster string) (bool, error) {
	var resp struct {
		Cached bool `json:"cached"`
	}
	path := "/api/password/check/" + url.PathEscape(cluster)
	if err := c.do(ctx, "checkCredentialCached", http.MethodGet, path, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Cached, nil
}

// Connect submits a bind password for the cluster
func (c *HTTPClient) Connect(ctx context.Context, cluster, credential string) (*models.ConnectResult, error) {
	body := map[string]string{
		"cluster_name":  cluster,
		"bind_password": credential,
	}
	var resp models.ConnectResult
	if err := c.do(ctx, "connect", http.MethodPost, "/api/connection/connect", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchEntries fetches one page of directory entries
func (c *HTTPClient) SearchEntries(ctx context.Context, params SearchParams) (*models.SearchResult, error) {
	q := url.Values{}
	q.Set("cluster", params.Cluster)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("page_size", strconv.Itoa(params.PageSize))
	q.Set("filter_type", params.FilterType)
	if params.Search != "" {
		q.Set("search", params.Search)
	}

	var resp models.SearchResult
	if err := c.do(ctx, "searchEntries", http.MethodGet, "/api/entries/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetHealth fetches the live health snapshot of the cluster
func (c *HTTPClient) GetHealth(ctx context.Context, cluster string) (*models.HealthSnapshot, error) {
	var resp models.HealthSnapshot
	if err := c.do(ctx, "getHealth", http.MethodGet, "/api/monitoring/health", clusterQuery(cluster), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStats fetches the server-side entry statistics of the cluster
func (c *HTTPClient) GetStats(ctx context.Context, cluster string) (*models.DirectoryStats, error) {
	var resp models.DirectoryStats
	if err := c.do(ctx, "getStats", http.MethodGet, "/api/entries/stats", clusterQuery(cluster), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetNodeMetrics fetches the per-node replication status of the cluster
func (c *HTTPClient) GetNodeMetrics(ctx context.Context, cluster string) (*models.ClusterMetrics, error) {
	var resp models.ClusterMetrics
	if err := c.do(ctx, "getNodeMetrics", http.MethodGet, "/api/monitoring/nodes", clusterQuery(cluster), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetActivity fetches the operation counters of the cluster
func (c *HTTPClient) GetActivity(ctx context.Context, cluster string) ([]models.ActivityRecord, error) {
	var resp struct {
		Logs []models.ActivityRecord `json:"logs"`
	}
	if err := c.do(ctx, "getActivity", http.MethodGet, "/api/logs/activity", clusterQuery(cluster), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

func clusterQuery(cluster string) url.Values {
	return url.Values{"cluster": []string{cluster}}
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"op":     op,
		"method": method,
		"path":   path,
	}).Debug("Calling console backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(respBody, &detail)
		return &RemoteError{Op: op, Status: resp.StatusCode, Detail: detail.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return nil
}
