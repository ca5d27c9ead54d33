package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"eduhub-course-service/internal/domain"
)

// EngineRepository keeps the live engine of each course (in-memory, etc).
// Acquire retains the engine it returns; DeleteIfIdle must skip retained engines.
type EngineRepository interface {
	Acquire(courseID string, build func() (*ProgressionEngine, error)) (*ProgressionEngine, error)
	Get(courseID string) (*ProgressionEngine, bool)
	Delete(courseID string)
	DeleteIfIdle(courseID string)
}

// ProgressService contains the course progress use cases.
type ProgressService struct {
	catalog  *CatalogService
	engines  EngineRepository
	progress *ProgressStore
	issuer   *CertificateIssuer
	now      func() time.Time
}

func NewProgressService(catalog *CatalogService, engines EngineRepository, progress *ProgressStore, issuer *CertificateIssuer) *ProgressService {
	return &ProgressService{
		catalog:  catalog,
		engines:  engines,
		progress: progress,
		issuer:   issuer,
		now:      time.Now,
	}
}

// NewProgressServiceWithClock is test-only for deterministic completion dates.
func NewProgressServiceWithClock(catalog *CatalogService, engines EngineRepository, progress *ProgressStore, issuer *CertificateIssuer, now func() time.Time) *ProgressService {
	s := NewProgressService(catalog, engines, progress, issuer)
	s.now = now
	return s
}

// Acquire returns the live engine for courseID, loading its progress on first use.
// The engine stays cached at least until release is called. The load outlives ctx
// because the engine is shared by every later caller.
func (s *ProgressService) Acquire(ctx context.Context, courseID string) (engine *ProgressionEngine, release func(), err error) {
	course, err := s.catalog.Get(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	engine, err = s.engines.Acquire(courseID, func() (*ProgressionEngine, error) {
		return NewProgressionEngineWithClock(context.WithoutCancel(ctx), course, s.progress, s.issuer, s.now)
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.Release, nil
}

// View returns the derived progress view of a course. When the progress record cannot
// be read the view is computed from the empty record; that guess is never cached.
func (s *ProgressService) View(ctx context.Context, courseID string) (domain.ProgressView, error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if errors.Is(err, domain.ErrProgressUnavailable) {
		course, cerr := s.catalog.Get(ctx, courseID)
		if cerr != nil {
			return domain.ProgressView{}, cerr
		}
		return BuildView(course, domain.NewCourseProgress()), nil
	}
	if err != nil {
		return domain.ProgressView{}, err
	}
	defer release()
	return engine.View(), nil
}

// SetLessonCompleted marks or unmarks a lesson. Completing a lesson requires it to be
// completable: unlocked, and for quizzes a passing last attempt. Unmarking is always
// allowed.
func (s *ProgressService) SetLessonCompleted(ctx context.Context, courseID, lessonID string, completed bool) (domain.ProgressView, error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return domain.ProgressView{}, err
	}
	defer release()
	if completed {
		if err := checkCompletable(engine, lessonID); err != nil {
			return engine.View(), err
		}
	}
	return engine.SetLessonCompleted(ctx, lessonID, completed)
}

// SubmitQuiz grades the answers, records the score and, when the attempt passes,
// completes the lesson. A failing attempt never un-completes a lesson.
func (s *ProgressService) SubmitQuiz(ctx context.Context, courseID, lessonID string, answers map[string]string) (domain.QuizResult, domain.ProgressView, error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return domain.QuizResult{}, domain.ProgressView{}, err
	}
	defer release()
	lesson, ok := FindLesson(engine.Course(), lessonID)
	if !ok {
		return domain.QuizResult{}, engine.View(), domain.ErrLessonNotFound
	}
	if !engine.IsLessonUnlocked(lessonID) {
		return domain.QuizResult{}, engine.View(), domain.ErrLessonLocked
	}

	result, err := GradeQuiz(lesson, answers)
	if err != nil {
		return domain.QuizResult{}, engine.View(), err
	}

	view, err := engine.SetQuizScore(ctx, lessonID, domain.QuizScore{Score: result.Score, Total: result.Total})
	if err != nil {
		return result, view, err
	}
	if result.Passed && engine.IsLessonCompletable(lessonID, true) {
		view, err = engine.SetLessonCompleted(ctx, lessonID, true)
	}
	return result, view, err
}

// Advance completes the active lesson and returns the lesson that follows it.
// next is empty when lessonID was the last lesson.
func (s *ProgressService) Advance(ctx context.Context, courseID, lessonID string) (next string, view domain.ProgressView, err error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return "", domain.ProgressView{}, err
	}
	defer release()
	if err := checkCompletable(engine, lessonID); err != nil {
		return "", engine.View(), err
	}
	view, err = engine.SetLessonCompleted(ctx, lessonID, true)
	if err != nil {
		return "", view, err
	}
	if l, ok := NextLesson(engine.Course(), lessonID); ok {
		next = l.ID
	}
	return next, view, nil
}

// ResetProgress wipes progress, credential and holder name for the course.
func (s *ProgressService) ResetProgress(ctx context.Context, courseID string) (domain.ProgressView, error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return domain.ProgressView{}, err
	}
	defer release()
	return engine.ResetProgress(ctx), nil
}

// Certificate returns the certificate of a completed course, minting the credential
// on first access.
func (s *ProgressService) Certificate(ctx context.Context, courseID string) (domain.Certificate, error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return domain.Certificate{}, err
	}
	defer release()
	if !engine.IsCourseCompleted() {
		return domain.Certificate{}, domain.ErrCourseNotCompleted
	}
	course := engine.Course()
	return domain.Certificate{
		CourseID:       course.ID,
		CourseTitle:    course.Title,
		HolderName:     s.issuer.HolderName(ctx, course.ID),
		CredentialID:   s.issuer.GetOrCreateCredential(ctx, course.ID),
		CompletionDate: engine.CompletionDate(),
	}, nil
}

// SetHolderName stores the name printed on the certificate.
func (s *ProgressService) SetHolderName(ctx context.Context, courseID, name string) error {
	if _, err := s.catalog.Get(ctx, courseID); err != nil {
		return err
	}
	return s.issuer.SetHolderName(ctx, courseID, name)
}

// Subscribe streams progress views of a course together with the engine that produces
// them, so callers navigate against the same engine they watch.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ProgressService) Subscribe(ctx context.Context, courseID string) (*ProgressionEngine, <-chan domain.ProgressView, func(), error) {
	engine, release, err := s.Acquire(ctx, courseID)
	if err != nil {
		return nil, nil, nil, err
	}
	ch, unsubscribe := engine.Subscribe()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			release()
		})
	}
	return engine, ch, cancel, nil
}

// Leave drops the course engine once nobody watches it; progress is already persisted.
func (s *ProgressService) Leave(_ context.Context, courseID string) {
	s.engines.DeleteIfIdle(courseID)
}

// ReplaceCourse swaps a catalog course and discards its live engine so the next access
// recomputes the lesson order from the new content.
func (s *ProgressService) ReplaceCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	replaced, err := s.catalog.Replace(ctx, course)
	if err != nil {
		return domain.Course{}, err
	}
	s.engines.Delete(replaced.ID)
	return replaced, nil
}

func checkCompletable(engine *ProgressionEngine, lessonID string) error {
	lesson, ok := FindLesson(engine.Course(), lessonID)
	if !ok {
		return domain.ErrLessonNotFound
	}
	score, _ := engine.QuizScore(lessonID)
	if engine.IsLessonCompletable(lessonID, score.Passed()) {
		return nil
	}
	if !engine.IsLessonUnlocked(lessonID) {
		return domain.ErrLessonLocked
	}
	if lesson.Type == domain.LessonQuiz {
		return domain.ErrQuizNotPassed
	}
	return domain.ErrLessonLocked
}
