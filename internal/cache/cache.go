// Package cache holds the project status list between menu openings.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is how long a status list stays fresh.
const DefaultTTL = time.Hour

// ErrNoStatuses is returned when Jira reports no statuses for a project.
var ErrNoStatuses = errors.New("no statuses found for the project")

// StatusCache is a single-entry cache of project statuses with time-based expiry.
//
// Reads are safe for concurrent use, but two callers that miss at the same
// time will both fetch; the last one to finish wins the slot.
type StatusCache struct {
	fetcher jira.StatusFetcher
	clock   clockwork.Clock
	ttl     time.Duration

	mu    sync.Mutex
	entry *entry // nil until the first successful fetch
}

// entry is the one cached status list.
type entry struct {
	project   string
	statuses  []jira.Status
	fetchedAt time.Time
}

// NewStatusCache constructs a StatusCache. A ttl <= 0 selects DefaultTTL and a
// nil clock selects the real clock.
func NewStatusCache(fetcher jira.StatusFetcher, ttl time.Duration, clock clockwork.Clock) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StatusCache{fetcher: fetcher, clock: clock, ttl: ttl}
}

// Statuses returns the statuses of projectKey, from cache while the entry is
// younger than the TTL. A failed refresh returns the error, never stale data.
// A context from WithRefresh skips the cached entry.
func (c *StatusCache) Statuses(ctx context.Context, projectKey string) ([]jira.Status, error) {
	if !IsRefresh(ctx) {
		if statuses, ok := c.lookup(projectKey); ok {
			return statuses, nil
		}
	}

	statuses, err := c.fetcher.ProjectStatuses(ctx, projectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch statuses: %w", err)
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("project %q: %w", projectKey, ErrNoStatuses)
	}

	c.mu.Lock()
	c.entry = &entry{
		project:   projectKey,
		statuses:  slices.Clone(statuses),
		fetchedAt: c.clock.Now(),
	}
	c.mu.Unlock()

	return statuses, nil
}

type ctxKey struct{}

// WithRefresh marks ctx so that Statuses fetches even if the entry is fresh.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

// IsRefresh reports whether the cached entry should be bypassed.
func IsRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Invalidate drops the cached entry so the next read fetches.
func (c *StatusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// lookup returns a copy of the cached statuses if the entry is fresh and for projectKey.
func (c *StatusCache) lookup(projectKey string) ([]jira.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || c.entry.project != projectKey {
		return nil, false
	}
	if c.clock.Since(c.entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	// return a copy to avoid callers mutating the cached slice
	return slices.Clone(c.entry.statuses), true
}
