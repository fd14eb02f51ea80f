package models

import (
	"fmt"
	"strings"
)

// DefaultLDAPPort is used when a cluster or node omits its port
const DefaultLDAPPort = 389

// Node is one server of a replicated cluster
type Node struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// Cluster describes a directory cluster as loaded from the registry
type Cluster struct {
	Name        string `json:"name" yaml:"name"`
	Host        string `json:"host,omitempty" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	BaseDN      string `json:"base_dn,omitempty" yaml:"base_dn"`
	BindDN      string `json:"bind_dn" yaml:"bind_dn"`
	ReadOnly    bool   `json:"readonly" yaml:"readonly"`
	Description string `json:"description" yaml:"description"`
	UseTLS      bool   `json:"use_tls,omitempty" yaml:"use_tls"`
}

// Endpoints returns the servers to try in order: the single host, or the node list
func (c Cluster) Endpoints() []Node {
	if c.Host != "" {
		port := c.Port
		if port == 0 {
			port = DefaultLDAPPort
		}
		return []Node{{Host: c.Host, Port: port}}
	}

	nodes := make([]Node, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Host == "" {
			continue
		}
		if n.Port == 0 {
			n.Port = DefaultLDAPPort
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Location is the short host description shown next to a cluster name
func (c Cluster) Location() string {
	if c.Host != "" {
		return fmt.Sprintf("%s:%d", c.Host, c.Endpoints()[0].Port)
	}
	return fmt.Sprintf("%d nodes", len(c.Endpoints()))
}

// Validate checks the fields every operation relies on
func (c Cluster) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("cluster name is required")
	}
	if strings.TrimSpace(c.BindDN) == "" {
		return fmt.Errorf("cluster %s: bind_dn is required", c.Name)
	}
	if len(c.Endpoints()) == 0 {
		return fmt.Errorf("cluster %s: host or nodes is required", c.Name)
	}
	return nil
}

// SearchQuery is the paginator state for one cluster
type SearchQuery struct {
	Cluster    string
	Category   Category
	SearchText string
	Page       int
	PageSize   int
}

// Offset is the index of the first entry on the page
func (q SearchQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// SearchResult is one page of a directory search
type SearchResult struct {
	Entries  []DirectoryEntry `json:"entries"`
	Total    int              `json:"total"`
	Page     int              `json:"page,omitempty"`
	PageSize int              `json:"page_size,omitempty"`
	HasMore  bool             `json:"has_more"`
}

// HealthSnapshot is the live status of a cluster. Only Status is interpreted.
type HealthSnapshot struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime,omitempty"`
	Connections  string `json:"connections,omitempty"`
	Operations   int    `json:"operations,omitempty"`
	ContextCSN   string `json:"contextCSN,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Health status values reported by the backend
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// IsHealthy reports whether the snapshot status is "healthy"
func (h HealthSnapshot) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// ConnectResult is returned after a successful bind
type ConnectResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	BaseDN  string `json:"base_dn"`
}

// ActivityRecord is one line of the activity log view
type ActivityRecord struct {
	Timestamp string `json:"timestamp"`
	Client    string `json:"client"`
	Operation string `json:"operation"`
	DN        string `json:"dn"`
	Filter    string `json:"filter"`
}

// NodeMetrics is the per-server replication view
type NodeMetrics struct {
	Node       string `json:"node"`
	Port       int    `json:"port"`
	Status     string `json:"status"`
	EntryCount int    `json:"entry_count,omitempty"`
	ContextCSN string `json:"contextCSN,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ClusterMetrics aggregates node metrics for a cluster
type ClusterMetrics struct {
	Nodes         []NodeMetrics `json:"nodes"`
	ClusterStatus string        `json:"cluster_status"`
	InSync        bool          `json:"in_sync"`
}

// DirectoryStats are category counts over a bounded window of entries.
// Exact is false when the window was filled, so the directory may hold more.
type DirectoryStats struct {
	Total  int  `json:"total"`
	Users  int  `json:"users"`
	Groups int  `json:"groups"`
	Window int  `json:"window"`
	Exact  bool `json:"exact"`
}
