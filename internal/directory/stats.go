package directory

import "github.com/devplatform/ldap-console/internal/models"

// Aggregate counts users and groups in a bounded window of entries.
//
// The counts only describe the window: when the window is full the directory may hold
// more entries than were seen, and Exact is false. The aggregator never fetches more.
func Aggregate(c *Classifier, entries []models.DirectoryEntry, window int) models.DirectoryStats {
	stats := models.DirectoryStats{
		Total:  len(entries),
		Window: window,
		Exact:  window <= 0 || len(entries) < window,
	}

	for _, e := range entries {
		switch c.Classify(e) {
		case models.User:
			stats.Users++
		case models.Group:
			stats.Groups++
		}
	}

	return stats
}
