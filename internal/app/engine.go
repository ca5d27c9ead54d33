package app

import (
	"context"
	"sync"
	"time"

	"eduhub-course-service/internal/domain"
)

// ProgressionEngine owns the progress record of one course. It is the only writer of
// CourseProgress; every query is recomputed from the current record.
type ProgressionEngine struct {
	course domain.Course
	store  *ProgressStore
	issuer *CertificateIssuer
	now    func() time.Time

	mu          sync.RWMutex
	progress    domain.CourseProgress
	subscribers map[chan domain.ProgressView]struct{}
	users       int
}

// NewProgressionEngine loads the course's progress record, creating it lazily.
// issuer may be nil when certificates are not used. An unreadable record is an error:
// an engine built on a guessed empty record would overwrite the stored one.
func NewProgressionEngine(ctx context.Context, course domain.Course, store *ProgressStore, issuer *CertificateIssuer) (*ProgressionEngine, error) {
	return NewProgressionEngineWithClock(ctx, course, store, issuer, time.Now)
}

// NewProgressionEngineWithClock allows deterministic completion dates in tests.
func NewProgressionEngineWithClock(ctx context.Context, course domain.Course, store *ProgressStore, issuer *CertificateIssuer, now func() time.Time) (*ProgressionEngine, error) {
	progress, err := store.Load(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	return &ProgressionEngine{
		course:      course,
		store:       store,
		issuer:      issuer,
		now:         now,
		progress:    sanitizeProgress(course, progress),
		subscribers: make(map[chan domain.ProgressView]struct{}),
	}, nil
}

// Course returns the course this engine tracks.
func (e *ProgressionEngine) Course() domain.Course {
	return e.course
}

// Snapshot returns a copy of the current progress record.
func (e *ProgressionEngine) Snapshot() domain.CourseProgress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneProgress(e.progress)
}

func (e *ProgressionEngine) Progress() domain.Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Summarize(e.course, e.progress)
}

func (e *ProgressionEngine) IsLessonCompleted(lessonID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return LessonCompleted(e.progress, lessonID)
}

func (e *ProgressionEngine) IsLessonUnlocked(lessonID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return LessonUnlocked(e.course, e.progress, lessonID)
}

func (e *ProgressionEngine) IsModuleCompleted(moduleID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ModuleCompleted(e.course, e.progress, moduleID)
}

func (e *ProgressionEngine) IsLessonCompletable(lessonID string, quizPassed bool) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return LessonCompletable(e.course, e.progress, lessonID, quizPassed)
}

// QuizScore returns the last recorded attempt for a quiz lesson.
func (e *ProgressionEngine) QuizScore(lessonID string) (domain.QuizScore, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	score, ok := e.progress.QuizScores[lessonID]
	return score, ok
}

func (e *ProgressionEngine) IsCourseCompleted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return CourseCompleted(e.course, e.progress)
}

// CompletionDate is the first time the course reached 100%, or nil.
func (e *ProgressionEngine) CompletionDate() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.progress.CompletionDate == nil {
		return nil
	}
	t := *e.progress.CompletionDate
	return &t
}

func (e *ProgressionEngine) View() domain.ProgressView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return BuildView(e.course, e.progress)
}

// SetLessonCompleted adds or removes the lesson from the completed set. The write and
// broadcast happen even when the set does not change. The completion date is stamped
// the first time every lesson is completed and is not cleared by later unsets.
func (e *ProgressionEngine) SetLessonCompleted(ctx context.Context, lessonID string, completed bool) (domain.ProgressView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if LessonIndex(e.course, lessonID) < 0 {
		return BuildView(e.course, e.progress), domain.ErrLessonNotFound
	}

	next := cloneProgress(e.progress)
	if completed {
		if !LessonCompleted(next, lessonID) {
			next.CompletedLessons = append(next.CompletedLessons, lessonID)
		}
	} else {
		kept := next.CompletedLessons[:0]
		for _, id := range next.CompletedLessons {
			if id != lessonID {
				kept = append(kept, id)
			}
		}
		next.CompletedLessons = kept
	}
	if next.CompletionDate == nil && CourseCompleted(e.course, next) {
		stamp := e.now().UTC()
		next.CompletionDate = &stamp
	}

	e.progress = next
	e.store.Save(ctx, e.course.ID, next)
	return e.broadcastLocked(BuildView(e.course, next)), nil
}

// SetQuizScore overwrites the recorded score. It never completes the lesson.
func (e *ProgressionEngine) SetQuizScore(ctx context.Context, lessonID string, score domain.QuizScore) (domain.ProgressView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if LessonIndex(e.course, lessonID) < 0 {
		return BuildView(e.course, e.progress), domain.ErrLessonNotFound
	}

	next := cloneProgress(e.progress)
	next.QuizScores[lessonID] = score
	e.progress = next
	e.store.Save(ctx, e.course.ID, next)
	return e.broadcastLocked(BuildView(e.course, next)), nil
}

// ResetProgress clears the record, the credential and the holder name, reloads from the
// store and tells subscribers to reinitialize.
func (e *ProgressionEngine) ResetProgress(ctx context.Context) domain.ProgressView {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Reset(ctx, e.course.ID)
	if e.issuer != nil {
		e.issuer.Forget(e.course.ID)
	}
	// A failed read leaves the empty record, which is what a reset produces anyway.
	progress, _ := e.store.Load(ctx, e.course.ID)
	e.progress = sanitizeProgress(e.course, progress)

	view := BuildView(e.course, e.progress)
	view.Reset = true
	return e.broadcastLocked(view)
}

// Subscribe returns a channel of views, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (e *ProgressionEngine) Subscribe() (<-chan domain.ProgressView, func()) {
	ch := make(chan domain.ProgressView, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	// The channel is new and buffered, so this cannot block; sending under the lock keeps
	// a concurrent broadcast from landing ahead of the initial view.
	ch <- BuildView(e.course, e.progress)
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Retain marks the engine as in use. Engine repositories call it while handing the
// engine out; every Retain is paired with a Release.
func (e *ProgressionEngine) Retain() {
	e.mu.Lock()
	e.users++
	e.mu.Unlock()
}

func (e *ProgressionEngine) Release() {
	e.mu.Lock()
	if e.users > 0 {
		e.users--
	}
	e.mu.Unlock()
}

// IsIdle reports whether nobody is subscribed to or using the engine.
func (e *ProgressionEngine) IsIdle() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers) == 0 && e.users == 0
}

func (e *ProgressionEngine) broadcastLocked(view domain.ProgressView) domain.ProgressView {
	for ch := range e.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: drop its oldest view so the latest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func cloneProgress(p domain.CourseProgress) domain.CourseProgress {
	out := domain.CourseProgress{
		CompletedLessons: append([]string{}, p.CompletedLessons...),
		QuizScores:       make(map[string]domain.QuizScore, len(p.QuizScores)),
	}
	for id, s := range p.QuizScores {
		out.QuizScores[id] = s
	}
	if p.CompletionDate != nil {
		t := *p.CompletionDate
		out.CompletionDate = &t
	}
	return out
}
