package cli

import (
	"context"
	"fmt"
	"time"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/config"
	"eduhub-course-service/internal/infra/memory"
	pgcatalog "eduhub-course-service/internal/infra/postgres"
	infraredis "eduhub-course-service/internal/infra/redis"
	"eduhub-course-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultSQLitePath = "data/eduhub.db"

// stores holds the persistence backends selected by config.
type stores struct {
	kv      app.KVStore
	catalog app.CatalogStore
	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores picks the key-value store from storage.driver and the catalog store:
// Postgres when configured (behind a Redis cache if Redis is also configured),
// otherwise a record in the key-value store, or a plain slice for memory storage.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	switch cfg.Storage.Driver {
	case "", "memory":
		s.kv = memory.NewStore()
		s.catalog = memory.NewStaticCatalogStore(nil)
	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = defaultSQLitePath
		}
		db, err := sqlite.Open(path)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		s.kv = db
	case "redis":
		if redisClient == nil {
			s.Close()
			return nil, fmt.Errorf("storage driver redis needs redis.addr")
		}
		s.kv = infraredis.NewStore(redisClient, cfg.Redis.Prefix)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if s.catalog == nil {
		s.catalog = app.NewKVCatalogStore(s.kv)
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.catalog = pgcatalog.NewCatalogStore(pool)
		if redisClient != nil {
			ttl := config.TTLDuration(cfg.Catalog.CacheTTL, 10*time.Minute)
			s.catalog = infraredis.NewCatalogCache(redisClient, s.catalog, cfg.Redis.Prefix, ttl)
		}
	}

	log.Info().
		Str("storage", driverName(cfg.Storage.Driver)).
		Bool("postgres_catalog", cfg.Postgres.URL != "").
		Bool("redis", redisClient != nil).
		Msg("stores ready")
	return s, nil
}

func driverName(d string) string {
	if d == "" {
		return "memory"
	}
	return d
}
