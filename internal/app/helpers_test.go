package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"eduhub-course-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

// abcCourse has lessons A, B (module m1) and a quiz C (module m2).
func abcCourse() domain.Course {
	return domain.Course{
		ID:    "abc",
		Title: "ABC",
		Modules: []domain.Module{
			{ID: "m1", Title: "First", Lessons: []domain.Lesson{
				{ID: "A", Title: "A", Type: domain.LessonTheory},
				{ID: "B", Title: "B", Type: domain.LessonCode, Code: &domain.CodeSeed{HTML: "<p></p>"}},
			}},
			{ID: "m2", Title: "Second", Lessons: []domain.Lesson{
				{ID: "C", Title: "C", Type: domain.LessonQuiz, Quiz: []domain.QuizQuestion{
					{ID: "c1", Question: "1+1", Options: []string{"1", "2"}, CorrectAnswer: "2"},
					{ID: "c2", Question: "2+2", Options: []string{"4", "5"}, CorrectAnswer: "4"},
					{ID: "c3", Question: "3+3", Options: []string{"6", "7"}, CorrectAnswer: "6"},
				}},
			}},
		},
	}
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))}
}

type fixture struct {
	kv      *memory.Store
	catalog *app.CatalogService
	service *app.ProgressService
	clock   *fixedClock
}

func newFixture(t *testing.T, courses ...domain.Course) fixture {
	t.Helper()
	if len(courses) == 0 {
		courses = []domain.Course{abcCourse()}
	}
	log := zerolog.Nop()
	kv := memory.NewStore()
	clock := newClock()
	catalog := app.NewCatalogService(memory.NewStaticCatalogStore(nil), courses, log)
	service := app.NewProgressServiceWithClock(catalog, memory.NewEngineStore(), app.NewProgressStore(kv, log), app.NewCertificateIssuer(kv, log), clock.Now)
	return fixture{kv: kv, catalog: catalog, service: service, clock: clock}
}

// restart builds a new service over the same stores, as a reloaded page would.
func (f fixture) restart() *app.ProgressService {
	log := zerolog.Nop()
	return app.NewProgressServiceWithClock(f.catalog, memory.NewEngineStore(), app.NewProgressStore(f.kv, log), app.NewCertificateIssuer(f.kv, log), f.clock.Now)
}

// failingKV fails every operation.
type failingKV struct{}

var errBackend = errors.New("backend down")

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errBackend }
func (failingKV) Set(context.Context, string, []byte) error { return errBackend }
func (failingKV) Delete(context.Context, ...string) error { return errBackend }

// flakyKV fails reads while down or when ctx is done, as network stores do; writes
// always reach the wrapped store.
type flakyKV struct {
	*memory.Store
	mu   sync.Mutex
	down bool
}

func (k *flakyKV) setDown(down bool) {
	k.mu.Lock()
	k.down = down
	k.mu.Unlock()
}

func (k *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	k.mu.Lock()
	down := k.down
	k.mu.Unlock()
	if down {
		return nil, errBackend
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.Store.Get(ctx, key)
}

// readOnlyKV serves reads and fails every write.
type readOnlyKV struct{ *memory.Store }

func (readOnlyKV) Set(context.Context, string, []byte) error { return errBackend }
func (readOnlyKV) Delete(context.Context, ...string) error { return errBackend }
