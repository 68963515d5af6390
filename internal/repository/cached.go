package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"recordapi/internal/model"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "record_cache_hits_total",
		Help: "Record document lookups served from the LRU cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "record_cache_misses_total",
		Help: "Record document lookups that went to the database.",
	})
)

// CachedRecordRepository keeps recently used documents in an expiring LRU cache.
// Writes go through to the wrapped repository and refresh the cache on success.
type CachedRecordRepository struct {
	next  RecordRepository
	cache *expirable.LRU[string, model.RecordDocument]
}

var _ RecordRepository = (*CachedRecordRepository)(nil)

// NewCachedRecordRepository wraps next with a cache of maxSize documents living for ttl.
func NewCachedRecordRepository(next RecordRepository, maxSize int, ttl time.Duration) *CachedRecordRepository {
	return &CachedRecordRepository{
		next:  next,
		cache: expirable.NewLRU[string, model.RecordDocument](maxSize, nil, ttl),
	}
}

func (c *CachedRecordRepository) Create(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	out, err := c.next.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.cache.Add(out.ID, *out)
	return out, nil
}

// FindByID returns a copy of the cached document when present.
func (c *CachedRecordRepository) FindByID(ctx context.Context, id string) (*model.RecordDocument, error) {
	if doc, ok := c.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		return &doc, nil
	}
	cacheMissesTotal.Inc()
	return c.Reload(ctx, id)
}

func (c *CachedRecordRepository) Reload(ctx context.Context, id string) (*model.RecordDocument, error) {
	out, err := c.next.Reload(ctx, id)
	if err != nil {
		c.cache.Remove(id)
		return nil, err
	}
	c.cache.Add(id, *out)
	return out, nil
}

func (c *CachedRecordRepository) Update(ctx context.Context, doc *model.RecordDocument) (*model.RecordDocument, error) {
	out, err := c.next.Update(ctx, doc)
	if err != nil {
		// A conflict means our copy is stale.
		c.cache.Remove(doc.ID)
		return nil, err
	}
	c.cache.Add(out.ID, *out)
	return out, nil
}

func (c *CachedRecordRepository) List(ctx context.Context, pq PageQuery) (*PageResult[model.RecordDocument], error) {
	return c.next.List(ctx, pq)
}

func (c *CachedRecordRepository) Delete(ctx context.Context, id string) error {
	c.cache.Remove(id)
	return c.next.Delete(ctx, id)
}
