package memory

import (
	"sync"

	"eduhub-course-service/internal/app"
)

// EngineStore is an in-memory implementation of app.EngineRepository.
type EngineStore struct {
	mu      sync.RWMutex
	engines map[string]*app.ProgressionEngine
}

func NewEngineStore() *EngineStore {
	return &EngineStore{
		engines: make(map[string]*app.ProgressionEngine),
	}
}

// Acquire returns the cached engine of courseID, building it on first use, and retains
// it so DeleteIfIdle leaves it alone until the caller releases it. A failed build is
// not cached.
func (s *EngineStore) Acquire(courseID string, build func() (*app.ProgressionEngine, error)) (*app.ProgressionEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, ok := s.engines[courseID]
	if !ok {
		var err error
		if engine, err = build(); err != nil {
			return nil, err
		}
		s.engines[courseID] = engine
	}
	engine.Retain()
	return engine, nil
}

func (s *EngineStore) Get(courseID string) (*app.ProgressionEngine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.engines[courseID]
	return engine, ok
}

func (s *EngineStore) Delete(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, courseID)
}

func (s *EngineStore) DeleteIfIdle(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, ok := s.engines[courseID]
	if !ok {
		return
	}
	if engine.IsIdle() {
		delete(s.engines, courseID)
	}
}
