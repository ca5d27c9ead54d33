package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"eduhub-course-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CatalogStore persists the whole catalog. LoadCourses returns domain.ErrCatalogNotFound
// when nothing has been stored yet.
type CatalogStore interface {
	LoadCourses(ctx context.Context) ([]domain.Course, error)
	SaveCourses(ctx context.Context, courses []domain.Course) error
}

// KVCatalogStore keeps the catalog as one JSON document under a single key.
type KVCatalogStore struct {
	kv KVStore
}

func NewKVCatalogStore(kv KVStore) *KVCatalogStore {
	return &KVCatalogStore{kv: kv}
}

func (s *KVCatalogStore) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	raw, err := s.kv.Get(ctx, catalogKey)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, domain.ErrCatalogNotFound
	}
	if err != nil {
		return nil, err
	}
	var courses []domain.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return courses, nil
}

func (s *KVCatalogStore) SaveCourses(ctx context.Context, courses []domain.Course) error {
	raw, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return s.kv.Set(ctx, catalogKey, raw)
}

// CatalogService is the course catalog for one process. The stored catalog is loaded
// once; afterwards the in-memory copy is authoritative and every change is written
// through to the store.
type CatalogService struct {
	store    CatalogStore
	defaults []domain.Course
	log      zerolog.Logger
	newID    func() string
	sf       singleflight.Group

	mu      sync.RWMutex
	loaded  bool
	courses []domain.Course
}

func NewCatalogService(store CatalogStore, defaults []domain.Course, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:    store,
		defaults: defaults,
		log:      log.With().Str("component", "catalog").Logger(),
		newID:    func() string { return "course-" + uuid.NewString() },
	}
}

// List returns every course. It never fails: a missing, corrupt or unreachable stored
// catalog falls back to the built-in defaults.
func (c *CatalogService) List(ctx context.Context) []domain.Course {
	courses := c.ensureLoaded(ctx)
	return append([]domain.Course(nil), courses...)
}

// Get returns the course with the given id or domain.ErrCourseNotFound.
func (c *CatalogService) Get(ctx context.Context, id string) (domain.Course, error) {
	for _, course := range c.ensureLoaded(ctx) {
		if course.ID == id {
			return course, nil
		}
	}
	return domain.Course{}, domain.ErrCourseNotFound
}

// Append normalizes the course (ids, slugs, lesson types) and adds it to the catalog.
// A missing or already used course id is replaced by a fresh one.
func (c *CatalogService) Append(ctx context.Context, course domain.Course) domain.Course {
	c.ensureLoaded(ctx)

	c.mu.Lock()
	taken := make(map[string]struct{}, len(c.courses))
	for _, existing := range c.courses {
		taken[existing.ID] = struct{}{}
	}
	if _, dup := taken[course.ID]; course.ID == "" || dup {
		course.ID = c.newID()
	}
	course = NormalizeCourse(course)
	c.courses = append(c.courses, course)
	snapshot := append([]domain.Course(nil), c.courses...)
	c.mu.Unlock()

	c.persist(ctx, snapshot)
	return course
}

// Replace swaps the stored course with the same id.
func (c *CatalogService) Replace(ctx context.Context, course domain.Course) (domain.Course, error) {
	c.ensureLoaded(ctx)
	course = NormalizeCourse(course)

	c.mu.Lock()
	idx := -1
	for i := range c.courses {
		if c.courses[i].ID == course.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return domain.Course{}, domain.ErrCourseNotFound
	}
	c.courses[idx] = course
	snapshot := append([]domain.Course(nil), c.courses...)
	c.mu.Unlock()

	c.persist(ctx, snapshot)
	return course, nil
}

func (c *CatalogService) persist(ctx context.Context, courses []domain.Course) {
	if err := c.store.SaveCourses(ctx, courses); err != nil {
		c.log.Error().Err(err).Int("courses", len(courses)).Msg("failed to save catalog")
	}
}

func (c *CatalogService) ensureLoaded(ctx context.Context) []domain.Course {
	c.mu.RLock()
	if c.loaded {
		courses := c.courses
		c.mu.RUnlock()
		return courses
	}
	c.mu.RUnlock()

	// Concurrent callers share this load, so one caller's cancellation must not turn it
	// into a defaults fallback for everyone.
	ctx = context.WithoutCancel(ctx)
	result, _, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		c.mu.RLock()
		if c.loaded {
			courses := c.courses
			c.mu.RUnlock()
			return courses, nil
		}
		c.mu.RUnlock()

		courses, err := c.store.LoadCourses(ctx)
		switch {
		case errors.Is(err, domain.ErrCatalogNotFound):
			courses = cloneCourses(c.defaults)
			c.persist(ctx, courses)
		case err != nil:
			c.log.Warn().Err(err).Msg("falling back to default catalog")
			courses = cloneCourses(c.defaults)
		}

		c.mu.Lock()
		c.courses = courses
		c.loaded = true
		c.mu.Unlock()
		return courses, nil
	})
	return result.([]domain.Course)
}

func cloneCourses(courses []domain.Course) []domain.Course {
	raw, err := json.Marshal(courses)
	if err != nil {
		return append([]domain.Course(nil), courses...)
	}
	var out []domain.Course
	if err := json.Unmarshal(raw, &out); err != nil {
		return append([]domain.Course(nil), courses...)
	}
	return out
}

// NormalizeCourse fills in the identifiers untrusted course documents tend to omit:
// module, lesson and question ids, lesson slugs, and a valid lesson type. Module and
// lesson ids are made unique within the course because lesson ids key progress; question
// ids are made unique within their lesson because they key answers.
func NormalizeCourse(course domain.Course) domain.Course {
	modules := make([]domain.Module, len(course.Modules))
	seenModules := make(map[string]struct{})
	seenLessons := make(map[string]struct{})

	for mi, m := range course.Modules {
		m.ID = claimID(seenModules, m.ID, func(n int) string { return fmt.Sprintf("module-%d", mi+n) })

		lessons := make([]domain.Lesson, len(m.Lessons))
		for li, l := range m.Lessons {
			l.ID = claimID(seenLessons, l.ID, func(n int) string { return fmt.Sprintf("%s-lesson-%d", m.ID, li+n) })
			if l.Slug == "" {
				l.Slug = slug.Make(l.Title)
			}
			if !l.Type.Valid() {
				if len(l.Quiz) > 0 {
					l.Type = domain.LessonQuiz
				} else {
					l.Type = domain.LessonTheory
				}
			}
			if len(l.Quiz) > 0 {
				seenQuestions := make(map[string]struct{}, len(l.Quiz))
				quiz := make([]domain.QuizQuestion, len(l.Quiz))
				for qi, q := range l.Quiz {
					q.ID = claimID(seenQuestions, q.ID, func(n int) string { return fmt.Sprintf("%s-q%d", l.ID, qi+n) })
					quiz[qi] = q
				}
				l.Quiz = quiz
			}
			lessons[li] = l
		}
		m.Lessons = lessons
		modules[mi] = m
	}
	course.Modules = modules
	return course
}

// claimID records id in seen and returns it. An empty or already seen id is replaced by
// the first candidate(1), candidate(2), ... that is still free.
func claimID(seen map[string]struct{}, id string, candidate func(n int) string) string {
	if _, dup := seen[id]; id == "" || dup {
		for n := 1; ; n++ {
			id = candidate(n)
			if _, dup := seen[id]; !dup {
				break
			}
		}
	}
	seen[id] = struct{}{}
	return id
}
