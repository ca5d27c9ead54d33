package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogCache fronts a slower app.CatalogStore (e.g. Postgres) with a Redis copy of
// the catalog document. Misses are collapsed with singleflight and refilled with a
// jittered TTL; saves go to the backing store first and then refresh the cache.
type CatalogCache struct {
	client  *redis.Client
	backing app.CatalogStore
	key     string
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalogCache(client *redis.Client, backing app.CatalogStore, prefix string, ttl time.Duration) *CatalogCache {
	if prefix == "" {
		prefix = "eduhub:"
	}
	return &CatalogCache{
		client:  client,
		backing: backing,
		key:     prefix + "catalog:cache",
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	if courses, ok := c.cached(ctx); ok {
		return courses, nil
	}

	result, err, _ := c.sf.Do(c.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if courses, ok := c.cached(ctx); ok {
			return courses, nil
		}
		courses, err := c.backing.LoadCourses(ctx)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, courses)
		return courses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Course), nil
}

func (c *CatalogCache) SaveCourses(ctx context.Context, courses []domain.Course) error {
	if err := c.backing.SaveCourses(ctx, courses); err != nil {
		_ = c.client.Del(ctx, c.key).Err()
		return err
	}
	c.fill(ctx, courses)
	return nil
}

func (c *CatalogCache) cached(ctx context.Context) ([]domain.Course, bool) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil, false
	}
	var courses []domain.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false
	}
	return courses, true
}

func (c *CatalogCache) fill(ctx context.Context, courses []domain.Course) {
	raw, err := json.Marshal(courses)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key, raw, c.ttlWithJitter()).Err()
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
