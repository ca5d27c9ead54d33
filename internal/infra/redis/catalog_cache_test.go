package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"eduhub-course-service/internal/domain"
	"eduhub-course-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestCatalogCacheServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingStore{StaticCatalogStore: memory.NewStaticCatalogStore(sampleCourses())}
	cache := NewCatalogCache(newClient(mr), backing, "test:", time.Minute)

	courses, err := cache.LoadCourses(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != "course-1" {
		t.Fatalf("unexpected courses %+v", courses)
	}
	if backing.loads != 1 {
		t.Fatalf("expected backing store called once, got %d", backing.loads)
	}

	// Second call should hit cache, backing store not incremented.
	_, _ = cache.LoadCourses(context.Background())
	if backing.loads != 1 {
		t.Fatalf("expected cache hit, backing loads=%d", backing.loads)
	}
	if ttl := mr.TTL("test:catalog:cache"); ttl < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", ttl)
	}
}

func TestCatalogCacheSaveRefreshes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingStore{StaticCatalogStore: memory.NewStaticCatalogStore(nil)}
	cache := NewCatalogCache(newClient(mr), backing, "test:", time.Minute)
	ctx := context.Background()

	if _, err := cache.LoadCourses(ctx); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}

	if err := cache.SaveCourses(ctx, sampleCourses()); err != nil {
		t.Fatalf("save: %v", err)
	}
	courses, err := cache.LoadCourses(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("expected saved course, got %+v", courses)
	}
	if backing.loads != 1 {
		t.Fatalf("expected load after save to hit cache, backing loads=%d", backing.loads)
	}
}

type countingStore struct {
	*memory.StaticCatalogStore
	loads int
}

func (s *countingStore) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	s.loads++
	return s.StaticCatalogStore.LoadCourses(ctx)
}

func sampleCourses() []domain.Course {
	return []domain.Course{
		{
			ID:    "course-1",
			Title: "HTML basics",
			Modules: []domain.Module{
				{
					ID:    "m1",
					Title: "Tags",
					Lessons: []domain.Lesson{
						{ID: "l1", Title: "What is HTML?", Type: domain.LessonTheory},
					},
				},
			},
		},
	}
}
