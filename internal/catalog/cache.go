package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// Default symptom cache bounds.
const (
	DefaultSymptomCacheSize = 4096
	DefaultSymptomCacheTTL  = 10 * time.Minute
)

// CachedSymptoms memoizes symptom lookups in a bounded, expiring LRU.
// Unknown identifiers are not cached and are looked up again next time.
type CachedSymptoms struct {
	next  domain.SymptomCatalog
	cache *expirable.LRU[domain.SymptomID, domain.Symptom]
}

// NewCachedSymptoms wraps next. Non-positive size or ttl select the defaults.
func NewCachedSymptoms(next domain.SymptomCatalog, size int, ttl time.Duration) *CachedSymptoms {
	if size <= 0 {
		size = DefaultSymptomCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultSymptomCacheTTL
	}
	return &CachedSymptoms{
		next:  next,
		cache: expirable.NewLRU[domain.SymptomID, domain.Symptom](size, nil, ttl),
	}
}

// FindByIDs serves cached symptoms and fetches only the misses.
func (c *CachedSymptoms) FindByIDs(ctx context.Context, ids []domain.SymptomID) ([]domain.Symptom, error) {
	ids = domain.DedupeSymptomIDs(ids)

	found := make(map[domain.SymptomID]domain.Symptom, len(ids))
	var misses []domain.SymptomID
	for _, id := range ids {
		if s, ok := c.cache.Get(id); ok {
			found[id] = s
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := c.next.FindByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, s := range fetched {
			c.cache.Add(s.ID, s)
			found[s.ID] = s
		}
	}

	out := make([]domain.Symptom, 0, len(found))
	for _, id := range ids {
		if s, ok := found[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Purge drops every cached entry.
func (c *CachedSymptoms) Purge() {
	c.cache.Purge()
}

// Len is the number of cached symptoms.
func (c *CachedSymptoms) Len() int {
	return c.cache.Len()
}
