package memory

import (
	"context"
	"sync"

	"eduhub-course-service/internal/domain"
)

// StaticCatalogStore is an app.CatalogStore backed by a slice; it serves the memory
// storage driver and tests. A nil catalog reports domain.ErrCatalogNotFound until
// something is saved.
type StaticCatalogStore struct {
	mu      sync.RWMutex
	courses []domain.Course
}

func NewStaticCatalogStore(courses []domain.Course) *StaticCatalogStore {
	return &StaticCatalogStore{courses: courses}
}

func (s *StaticCatalogStore) LoadCourses(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.courses == nil {
		return nil, domain.ErrCatalogNotFound
	}
	return append([]domain.Course(nil), s.courses...), nil
}

func (s *StaticCatalogStore) SaveCourses(_ context.Context, courses []domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append([]domain.Course{}, courses...)
	return nil
}
