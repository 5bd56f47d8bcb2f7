package reports

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	domain "github.com/bryanwahyu/auditlens/internal/domain/reports"
)

// Loader produces the enriched report list.
type Loader func(ctx context.Context) []domain.Report

// ReportCache holds the enriched reports for the life of the process.
//
// An empty result is not remembered: the next Ensure tries again. A
// non-empty one is never reloaded.
type ReportCache struct {
	load Loader

	group   singleflight.Group
	mu      sync.RWMutex
	reports []domain.Report
}

func NewReportCache(load Loader) *ReportCache {
	return &ReportCache{load: load}
}

// Ensure populates the cache unless it already holds reports. Concurrent
// callers wait for a single load.
func (c *ReportCache) Ensure(ctx context.Context) {
	if c.loaded() {
		return
	}
	c.group.Do("load", func() (any, error) {
		if c.loaded() {
			return nil, nil
		}
		reports := c.load(ctx)
		c.mu.Lock()
		c.reports = reports
		c.mu.Unlock()
		return nil, nil
	})
}

// All returns the cached reports, loading them first if needed. The slice is
// shared; callers must not modify it.
func (c *ReportCache) All(ctx context.Context) []domain.Report {
	c.Ensure(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reports
}

func (c *ReportCache) loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports) > 0
}
