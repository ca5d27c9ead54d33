package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"eduhub-course-service/internal/infra/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCatalogStore struct{ saves int }

func (s *brokenCatalogStore) LoadCourses(context.Context) ([]domain.Course, error) {
	return nil, errors.New("connection refused")
}

func (s *brokenCatalogStore) SaveCourses(context.Context, []domain.Course) error {
	s.saves++
	return errors.New("connection refused")
}

func TestCatalogSeedsDefaultsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStaticCatalogStore(nil)
	catalog := app.NewCatalogService(store, []domain.Course{abcCourse()}, zerolog.Nop())

	courses := catalog.List(ctx)
	require.Len(t, courses, 1)

	stored, err := store.LoadCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored[0].ID)
}

func TestCatalogFallsBackOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := &brokenCatalogStore{}
	catalog := app.NewCatalogService(store, []domain.Course{abcCourse()}, zerolog.Nop())

	course, err := catalog.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", course.Title)

	_, err = catalog.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)

	added := catalog.Append(ctx, domain.Course{Title: "Offline"})
	assert.Len(t, catalog.List(ctx), 2, "kept in memory")
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, 1, store.saves)
}

func TestCatalogUsesStoredCourses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStaticCatalogStore([]domain.Course{{ID: "stored", Title: "Stored"}})
	catalog := app.NewCatalogService(store, []domain.Course{abcCourse()}, zerolog.Nop())

	courses := catalog.List(ctx)
	require.Len(t, courses, 1)
	assert.Equal(t, "stored", courses[0].ID)
}

func TestCatalogAppendAssignsFreshIDOnCollision(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	catalog := app.NewCatalogService(app.NewKVCatalogStore(kv), []domain.Course{abcCourse()}, zerolog.Nop())

	dup := catalog.Append(ctx, domain.Course{ID: "abc", Title: "Another"})
	assert.NotEqual(t, "abc", dup.ID)
	assert.True(t, strings.HasPrefix(dup.ID, "course-"))

	kept := catalog.Append(ctx, domain.Course{ID: "custom", Title: "Custom"})
	assert.Equal(t, "custom", kept.ID)

	// A second service over the same store sees the appended courses.
	reloaded := app.NewCatalogService(app.NewKVCatalogStore(kv), nil, zerolog.Nop())
	assert.Len(t, reloaded.List(ctx), 3)
}

func TestCatalogReplace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.SetLessonCompleted(ctx, "abc", "A", true)
	require.NoError(t, err)

	updated := abcCourse()
	updated.Modules[0].Lessons = updated.Modules[0].Lessons[1:]
	_, err = f.service.ReplaceCourse(ctx, updated)
	require.NoError(t, err)

	view, err := f.service.View(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Progress.Total)
	assert.Zero(t, view.Progress.Completed, "progress on removed lesson is ignored")

	_, err = f.service.ReplaceCourse(ctx, domain.Course{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestNormalizeCourse(t *testing.T) {
	course := app.NormalizeCourse(domain.Course{
		ID:    "c",
		Title: "C",
		Modules: []domain.Module{
			{Title: "Intro", Lessons: []domain.Lesson{
				{Title: "Hello, World!", Type: "lecture"},
				{ID: "dup", Title: "Quiz me", Quiz: []domain.QuizQuestion{{Question: "?", Options: []string{"a"}, CorrectAnswer: "a"}}},
			}},
			{ID: "module-1", Title: "Clash", Lessons: []domain.Lesson{
				{ID: "dup", Title: "Second dup", Type: domain.LessonCode},
			}},
		},
	})

	m1, m2 := course.Modules[0], course.Modules[1]
	assert.Equal(t, "module-1", m1.ID)
	assert.Equal(t, "module-2", m2.ID)

	assert.Equal(t, "module-1-lesson-1", m1.Lessons[0].ID)
	assert.Equal(t, "hello-world", m1.Lessons[0].Slug)
	assert.Equal(t, domain.LessonTheory, m1.Lessons[0].Type)

	assert.Equal(t, "dup", m1.Lessons[1].ID)
	assert.Equal(t, domain.LessonQuiz, m1.Lessons[1].Type)
	assert.Equal(t, "dup-q1", m1.Lessons[1].Quiz[0].ID)

	assert.Equal(t, "module-2-lesson-1", m2.Lessons[0].ID)
	assert.Equal(t, domain.LessonCode, m2.Lessons[0].Type)
}

func TestNormalizeCourseAvoidsGeneratedCollisions(t *testing.T) {
	course := app.NormalizeCourse(domain.Course{
		ID: "c",
		Modules: []domain.Module{
			{ID: "module-2", Lessons: []domain.Lesson{
				{ID: "module-2-lesson-2", Title: "Explicit"},
				{Title: "Generated", Quiz: []domain.QuizQuestion{
					{ID: "module-2-lesson-3-q2"},
					{},
					{ID: "module-2-lesson-3-q2"},
				}},
			}},
			{Lessons: []domain.Lesson{{Title: "Second module"}}},
		},
	})

	lessons := course.Modules[0].Lessons
	assert.Equal(t, "module-2-lesson-2", lessons[0].ID)
	assert.Equal(t, "module-2-lesson-3", lessons[1].ID)
	assert.Equal(t, "module-3", course.Modules[1].ID)

	ids := []string{}
	for _, q := range lessons[1].Quiz {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"module-2-lesson-3-q2", "module-2-lesson-3-q3", "module-2-lesson-3-q4"}, ids)

	seen := map[string]bool{}
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			assert.False(t, seen[l.ID], "duplicate lesson id %s", l.ID)
			seen[l.ID] = true
		}
	}
}

func TestNormalizeCourseTransliteratesSlugs(t *testing.T) {
	course := app.NormalizeCourse(domain.Course{
		ID: "c",
		Modules: []domain.Module{{Lessons: []domain.Lesson{
			{Title: "Café au lait"},
			{Title: "Привет мир"},
			{Title: "Keep", Slug: "custom"},
		}}},
	})

	lessons := course.Modules[0].Lessons
	assert.Equal(t, "cafe-au-lait", lessons[0].Slug)
	assert.Equal(t, "privet-mir", lessons[1].Slug)
	assert.Equal(t, "custom", lessons[2].Slug)
}

// cancellableCatalogStore fails loads once ctx is done, as a network store would.
type cancellableCatalogStore struct{ *memory.StaticCatalogStore }

func (s cancellableCatalogStore) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.StaticCatalogStore.LoadCourses(ctx)
}

func TestCatalogLoadIgnoresCallerCancellation(t *testing.T) {
	store := cancellableCatalogStore{memory.NewStaticCatalogStore([]domain.Course{{ID: "stored", Title: "Stored"}})}
	catalog := app.NewCatalogService(store, []domain.Course{abcCourse()}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	courses := catalog.List(ctx)
	require.Len(t, courses, 1)
	assert.Equal(t, "stored", courses[0].ID)
}
