package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/models"
)

// NoEntriesMessage is shown in place of an empty table
const NoEntriesMessage = "No entries found"

// Paginator owns the search query of one cluster and the last page it fetched
type Paginator struct {
	remote Remote
	logger *logrus.Logger

	mu      sync.Mutex
	query   models.SearchQuery
	result  models.SearchResult
	lastErr error
	issued  uint64
	applied uint64
}

// NewPaginator creates a paginator on page 1 of every category
func NewPaginator(cluster string, pageSize int, remote Remote, logger *logrus.Logger) *Paginator {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Paginator{
		remote: remote,
		logger: logger,
		query: models.SearchQuery{
			Cluster:  cluster,
			Category: models.All,
			Page:     1,
			PageSize: pageSize,
		},
		result: emptyResult(),
	}
}

func emptyResult() models.SearchResult {
	return models.SearchResult{Entries: []models.DirectoryEntry{}}
}

// Query returns the current query
func (p *Paginator) Query() models.SearchQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// SetCategoryFilter changes the category and returns to page 1
func (p *Paginator) SetCategoryFilter(c models.Category) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query.Category = c
	p.query.Page = 1
}

// SetSearchText changes the free-text search and returns to page 1
func (p *Paginator) SetSearchText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query.SearchText = text
	p.query.Page = 1
}

// SetPage moves to page n, clamped to 1
func (p *Paginator) SetPage(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query.Page = max(n, 1)
}

// Params returns the wire parameters for the current query
func (p *Paginator) Params() SearchParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params()
}

func (p *Paginator) params() SearchParams {
	params := SearchParams{
		Cluster:    p.query.Cluster,
		Page:       p.query.Page,
		PageSize:   p.query.PageSize,
		FilterType: p.query.Category.FilterType(),
	}
	if strings.TrimSpace(p.query.SearchText) != "" {
		params.Search = p.query.SearchText
	}
	return params
}

// Execute runs the current query. A failure clears the results and is recorded in
// LastError. It returns false when the response arrived after a newer one was applied
// and was discarded.
func (p *Paginator) Execute(ctx context.Context) bool {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	params := p.params()
	p.mu.Unlock()

	res, err := p.remote.SearchEntries(ctx, params)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq < p.applied {
		p.logger.WithFields(logrus.Fields{
			"cluster":  params.Cluster,
			"sequence": seq,
			"applied":  p.applied,
		}).Debug("Discarding stale search response")
		return false
	}
	p.applied = seq

	if err != nil {
		p.result = emptyResult()
		p.lastErr = err
		p.logger.WithError(err).WithField("cluster", params.Cluster).Warn("Search failed")
		return true
	}

	p.result = *res
	if p.result.Entries == nil {
		p.result.Entries = []models.DirectoryEntry{}
	}
	p.lastErr = nil
	return true
}

// Result returns the last applied page
func (p *Paginator) Result() models.SearchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// LastError is the error of the last applied search, nil after a success
func (p *Paginator) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// PreviousDisabled reports whether the Previous control is disabled
func (p *Paginator) PreviousDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query.Page == 1
}

// NextDisabled reports whether the Next control is disabled. A short page is terminal
// only when the server does not flag more results.
func (p *Paginator) NextDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.result.HasMore && len(p.result.Entries) < p.query.PageSize
}

// Next advances one page when allowed
func (p *Paginator) Next() bool {
	if p.NextDisabled() {
		return false
	}
	p.mu.Lock()
	p.query.Page++
	p.mu.Unlock()
	return true
}

// Previous goes back one page when allowed
func (p *Paginator) Previous() bool {
	if p.PreviousDisabled() {
		return false
	}
	p.mu.Lock()
	p.query.Page--
	p.mu.Unlock()
	return true
}

// RangeLabel renders "Showing A to B of T entries"
func (p *Paginator) RangeLabel() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.result.Total
	from := 0
	if total > 0 {
		from = p.query.Offset() + 1
	}
	to := min(p.query.Page*p.query.PageSize, total)
	return fmt.Sprintf("Showing %d to %d of %d entries", from, to, total)
}

// EmptyMessage is NoEntriesMessage when the page has no entries, otherwise ""
func (p *Paginator) EmptyMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.result.Entries) == 0 {
		return NoEntriesMessage
	}
	return ""
}
