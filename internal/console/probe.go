package console

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/models"
)

// Health badges
const (
	BadgeHealthy   = "● Healthy"
	BadgeUnhealthy = "● Unhealthy"
)

// Probe holds the live health snapshot of one cluster
type Probe struct {
	cluster string
	remote  Remote
	logger  *logrus.Logger

	mu       sync.Mutex
	snapshot *models.HealthSnapshot
	issued   uint64
	applied  uint64
}

// NewProbe creates a probe with no snapshot
func NewProbe(cluster string, remote Remote, logger *logrus.Logger) *Probe {
	return &Probe{
		cluster: cluster,
		remote:  remote,
		logger:  logger,
	}
}

// Refresh fetches a new snapshot. A failure drops the previous one.
// It returns false when the response was stale and discarded.
func (p *Probe) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	snapshot, err := p.remote.GetHealth(ctx, p.cluster)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq < p.applied {
		return false
	}
	p.applied = seq

	if err != nil {
		p.snapshot = nil
		p.logger.WithError(err).WithField("cluster", p.cluster).Warn("Health check failed")
		return true
	}
	p.snapshot = snapshot
	return true
}

// Snapshot returns a copy of the current snapshot, nil when there is none
func (p *Probe) Snapshot() *models.HealthSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return nil
	}
	s := *p.snapshot
	return &s
}

// Badge renders the health badge, "" when there is no snapshot
func (p *Probe) Badge() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.snapshot == nil:
		return ""
	case p.snapshot.IsHealthy():
		return BadgeHealthy
	default:
		return BadgeUnhealthy
	}
}
