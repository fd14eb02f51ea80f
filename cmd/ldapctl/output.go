package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/devplatform/ldap-console/internal/console"
	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func renderClusters(out io.Writer, c *console.Console, clusters []models.Cluster) {
	if len(clusters) == 0 {
		fmt.Fprintln(out, "No clusters configured")
		return
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tLOCATION\tBASE DN\tPASSWORD\tMODE\tDESCRIPTION")
	for _, cl := range clusters {
		password := "not cached"
		if c.Session(cl.Name).Gate.Cached() {
			password = "cached"
		}
		mode := "read-write"
		if cl.ReadOnly {
			mode = "read-only"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", cl.Name, cl.Location(), orDash(cl.BaseDN), password, mode, orDash(cl.Description))
	}
	w.Flush()
}

// renderEntries prints the table of one page, with columns chosen by the active category
func renderEntries(out io.Writer, c *directory.Classifier, category models.Category, entries []models.DirectoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, console.NoEntriesMessage)
		return
	}

	w := newTable(out)
	switch category {
	case models.User:
		fmt.Fprintln(w, "USERNAME\tFULL NAME\tEMAIL\tDETAIL\tTYPE")
		for _, e := range entries {
			u := c.UserSummary(e)
			detail := u.Detail
			if u.SubDetail != "" {
				detail += " (" + u.SubDetail + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.FullName, u.Email, detail, badgeLabels(u.Badges))
		}
	case models.Group:
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tMEMBERS\tDN")
		for _, e := range entries {
			g := c.GroupSummary(e)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.Description, g.MemberLabel(), g.DN)
		}
	case models.OrganizationalUnit:
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tDN")
		for _, e := range entries {
			u := c.UnitSummary(e)
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Description, u.DN)
		}
	default:
		fmt.Fprintln(w, "DN\tKIND\tOBJECT CLASS\tATTRIBUTES")
		for _, e := range entries {
			s := c.Summarize(e)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.DN, s.Category, s.Entry.ObjectClass, s.Entry.Preview)
		}
	}
	w.Flush()
}

func renderPager(out io.Writer, p *console.Paginator) {
	var controls []string
	if !p.PreviousDisabled() {
		controls = append(controls, fmt.Sprintf("previous: --page %d", p.Query().Page-1))
	}
	if !p.NextDisabled() {
		controls = append(controls, fmt.Sprintf("next: --page %d", p.Query().Page+1))
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, p.RangeLabel())
	if len(controls) > 0 {
		fmt.Fprintf(out, "  [%s]", strings.Join(controls, ", "))
	}
	fmt.Fprintln(out)
}

func renderStats(out io.Writer, stats models.DirectoryStats) {
	w := newTable(out)
	fmt.Fprintf(w, "Total entries\t%d\n", stats.Total)
	fmt.Fprintf(w, "Users\t%d\n", stats.Users)
	fmt.Fprintf(w, "Groups\t%d\n", stats.Groups)
	w.Flush()

	if !stats.Exact {
		fmt.Fprintf(out, "\nCounts cover the first %d entries only\n", stats.Window)
	}
}

func renderHealth(out io.Writer, p *console.Probe) {
	snapshot := p.Snapshot()
	if snapshot == nil {
		fmt.Fprintln(out, "Health unavailable")
		return
	}

	w := newTable(out)
	fmt.Fprintf(w, "Status\t%s\n", p.Badge())
	fmt.Fprintf(w, "Response time\t%s\n", orDash(snapshot.ResponseTime))
	fmt.Fprintf(w, "Connections\t%s\n", orDash(snapshot.Connections))
	fmt.Fprintf(w, "Entries\t%d\n", snapshot.Operations)
	if snapshot.ContextCSN != "" {
		fmt.Fprintf(w, "contextCSN\t%s\n", snapshot.ContextCSN)
	}
	if snapshot.Error != "" {
		fmt.Fprintf(w, "Error\t%s\n", snapshot.Error)
	}
	w.Flush()
}

func renderNodes(out io.Writer, m *models.ClusterMetrics) {
	sync := "in sync"
	if !m.InSync {
		sync = "out of sync"
	}
	fmt.Fprintf(out, "Cluster %s, replication %s\n", m.ClusterStatus, sync)

	w := newTable(out)
	fmt.Fprintln(w, "NODE\tPORT\tSTATUS\tENTRIES\tCONTEXT CSN")
	for _, n := range m.Nodes {
		status := n.Status
		if n.Error != "" {
			status += ": " + n.Error
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", n.Node, n.Port, status, n.EntryCount, orDash(n.ContextCSN))
	}
	w.Flush()
}

func renderActivity(out io.Writer, logs []models.ActivityRecord) {
	w := newTable(out)
	fmt.Fprintln(w, "TIMESTAMP\tCLIENT\tOPERATION\tDETAIL")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Timestamp, l.Client, l.Operation, l.DN)
	}
	w.Flush()
}

func badgeLabels(badges []directory.Badge) string {
	labels := make([]string, len(badges))
	for i, b := range badges {
		labels[i] = b.Label
	}
	return strings.Join(labels, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
