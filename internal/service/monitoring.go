package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/devplatform/ldap-console/internal/ldap"
	"github.com/devplatform/ldap-console/internal/models"
)

const (
	activityTimeFormat = "2006-01-02 15:04:05"
	monitorOperations  = "cn=Operations,cn=Monitor"
)

var monitoredOperations = []string{"Bind", "Unbind", "Search", "Compare", "Modify", "Add", "Delete"}

// Activity reads completed operation counters from the cn=Monitor backend. Servers
// without monitoring, and any connection failure, yield a single informational record.
func (d *Directory) Activity(ctx context.Context, name string) ([]models.ActivityRecord, error) {
	now := d.now().Format(activityTimeFormat)

	session, err := d.open(ctx, name)
	if errors.Is(err, ErrClusterNotFound) {
		return nil, err
	}
	if err != nil {
		d.logger.WithError(err).WithField("cluster", name).Warn("Activity log unavailable")
		return []models.ActivityRecord{{
			Timestamp: now,
			Client:    "System",
			Operation: "INFO",
			DN:        "Activity logging unavailable",
			Filter:    "cn=Monitor backend must be enabled in LDAP configuration",
		}}, nil
	}
	defer session.Close()

	var records []models.ActivityRecord
	for _, op := range monitoredOperations {
		completed, err := session.ReadAttribute(fmt.Sprintf("cn=%s,%s", op, monitorOperations), "monitorOpCompleted")
		if err != nil || completed == "" {
			continue
		}
		records = append(records, models.ActivityRecord{
			Timestamp: now,
			Client:    "Statistics",
			Operation: strings.ToUpper(op),
			DN:        "Completed: " + completed,
		})
	}

	if len(records) == 0 {
		records = append(records, models.ActivityRecord{
			Timestamp: now,
			Client:    "System",
			Operation: "INFO",
			DN:        "cn=Monitor backend not enabled on this LDAP server",
			Filter:    "Enable monitoring in slapd.conf or cn=config to view activity logs",
		})
	}
	return records, nil
}

// NodeMetrics probes every endpoint of the cluster concurrently. The cluster is in sync
// when at most one distinct non-empty contextCSN is seen.
func (d *Directory) NodeMetrics(ctx context.Context, name string) (*models.ClusterMetrics, error) {
	cluster, password, err := d.cachedCredential(ctx, name)
	if err != nil {
		return nil, err
	}

	endpoints := cluster.Endpoints()
	nodes := make([]models.NodeMetrics, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, node := range endpoints {
		g.Go(func() error {
			nodes[i] = d.probeNode(gctx, cluster, node, password)
			return nil
		})
	}
	_ = g.Wait()

	status := models.StatusHealthy
	csns := make(map[string]struct{})
	for _, n := range nodes {
		if n.Status != models.StatusHealthy {
			status = models.StatusDegraded
		}
		if n.ContextCSN != "" {
			csns[n.ContextCSN] = struct{}{}
		}
	}

	return &models.ClusterMetrics{
		Nodes:         nodes,
		ClusterStatus: status,
		InSync:        len(csns) <= 1,
	}, nil
}

func (d *Directory) probeNode(ctx context.Context, cluster models.Cluster, node models.Node, password string) models.NodeMetrics {
	m := models.NodeMetrics{Node: node.Host, Port: node.Port}

	session, err := d.connector.ConnectNode(ctx, cluster, node, password)
	if err != nil {
		m.Status = models.StatusUnhealthy
		m.Error = err.Error()
		return m
	}
	defer session.Close()

	base := session.BaseDN()
	count, err := session.Count(base, ldap.MatchAll)
	if err != nil {
		d.logger.WithError(err).WithField("node", node.Host).Debug("Entry count failed")
	}
	csn, _ := session.ReadAttribute(base, "contextCSN")

	m.Status = models.StatusHealthy
	m.EntryCount = count
	m.ContextCSN = csn
	return m
}
