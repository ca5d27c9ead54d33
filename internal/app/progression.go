package app

import "eduhub-course-service/internal/domain"

// The functions in this file derive unlock and completion state from a course and a
// progress record. They hold no state; the engine recomputes them on every query so an
// unset lesson immediately re-locks its successors.

// FlattenLessons returns every lesson in course order: modules in declared order,
// lessons in declared order within each module.
func FlattenLessons(course domain.Course) []domain.Lesson {
	n := 0
	for _, m := range course.Modules {
		n += len(m.Lessons)
	}
	lessons := make([]domain.Lesson, 0, n)
	for _, m := range course.Modules {
		lessons = append(lessons, m.Lessons...)
	}
	return lessons
}

// LessonIndex returns the flattened position of lessonID, or -1.
func LessonIndex(course domain.Course, lessonID string) int {
	i := 0
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			if l.ID == lessonID {
				return i
			}
			i++
		}
	}
	return -1
}

// FindLesson looks up a lesson by id.
func FindLesson(course domain.Course, lessonID string) (domain.Lesson, bool) {
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			if l.ID == lessonID {
				return l, true
			}
		}
	}
	return domain.Lesson{}, false
}

func completedSet(p domain.CourseProgress) map[string]struct{} {
	set := make(map[string]struct{}, len(p.CompletedLessons))
	for _, id := range p.CompletedLessons {
		set[id] = struct{}{}
	}
	return set
}

// LessonCompleted is a membership test against the completed set.
func LessonCompleted(p domain.CourseProgress, lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// LessonUnlocked reports whether lessonID may be opened. The first lesson is always
// unlocked; any other lesson is unlocked iff its immediate predecessor is completed.
func LessonUnlocked(course domain.Course, p domain.CourseProgress, lessonID string) bool {
	lessons := FlattenLessons(course)
	for i, l := range lessons {
		if l.ID != lessonID {
			continue
		}
		if i == 0 {
			return true
		}
		return LessonCompleted(p, lessons[i-1].ID)
	}
	return false
}

// ModuleCompleted reports whether every lesson of the module is completed.
// Unknown and empty modules are never completed.
func ModuleCompleted(course domain.Course, p domain.CourseProgress, moduleID string) bool {
	for _, m := range course.Modules {
		if m.ID != moduleID {
			continue
		}
		if len(m.Lessons) == 0 {
			return false
		}
		done := completedSet(p)
		for _, l := range m.Lessons {
			if _, ok := done[l.ID]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

// LessonCompletable reports whether the lesson may be marked completed now.
// Completed lessons stay completable; quiz lessons additionally need a passing attempt.
func LessonCompletable(course domain.Course, p domain.CourseProgress, lessonID string, quizPassed bool) bool {
	lesson, ok := FindLesson(course, lessonID)
	if !ok {
		return false
	}
	if LessonCompleted(p, lessonID) {
		return true
	}
	if !LessonUnlocked(course, p, lessonID) {
		return false
	}
	if lesson.Type == domain.LessonQuiz {
		return quizPassed
	}
	return true
}

// Summarize computes the completion summary. Only ids that belong to the course count.
func Summarize(course domain.Course, p domain.CourseProgress) domain.Progress {
	lessons := FlattenLessons(course)
	total := len(lessons)
	if total == 0 {
		return domain.Progress{}
	}
	done := completedSet(p)
	completed := 0
	for _, l := range lessons {
		if _, ok := done[l.ID]; ok {
			completed++
		}
	}
	return domain.Progress{
		Completed:  completed,
		Total:      total,
		Percentage: 100 * float64(completed) / float64(total),
	}
}

// CourseCompleted is true iff the course has lessons and all of them are completed.
func CourseCompleted(course domain.Course, p domain.CourseProgress) bool {
	s := Summarize(course, p)
	return s.Total > 0 && s.Completed == s.Total
}

// BuildView assembles the per-lesson and per-module derived state.
func BuildView(course domain.Course, p domain.CourseProgress) domain.ProgressView {
	done := completedSet(p)
	view := domain.ProgressView{
		CourseID:        course.ID,
		Progress:        Summarize(course, p),
		Modules:         make([]domain.ModuleState, 0, len(course.Modules)),
		Lessons:         []domain.LessonState{},
		CourseCompleted: CourseCompleted(course, p),
		CompletionDate:  p.CompletionDate,
	}

	prevCompleted := true
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			_, completed := done[l.ID]
			state := domain.LessonState{
				ID:        l.ID,
				ModuleID:  m.ID,
				Title:     l.Title,
				Type:      l.Type,
				Completed: completed,
				Unlocked:  prevCompleted,
			}
			if score, ok := p.QuizScores[l.ID]; ok {
				score := score
				state.QuizScore = &score
			}
			view.Lessons = append(view.Lessons, state)
			prevCompleted = completed
		}
		view.Modules = append(view.Modules, domain.ModuleState{
			ID:        m.ID,
			Title:     m.Title,
			Completed: ModuleCompleted(course, p, m.ID),
		})
	}
	return view
}

// sanitizeProgress drops completed ids and quiz scores for lessons that are not part
// of the course, removes duplicates and fills nil collections.
func sanitizeProgress(course domain.Course, p domain.CourseProgress) domain.CourseProgress {
	known := make(map[string]struct{})
	for _, l := range FlattenLessons(course) {
		known[l.ID] = struct{}{}
	}

	out := domain.NewCourseProgress()
	seen := make(map[string]struct{}, len(p.CompletedLessons))
	for _, id := range p.CompletedLessons {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.CompletedLessons = append(out.CompletedLessons, id)
	}
	for id, score := range p.QuizScores {
		if _, ok := known[id]; ok {
			out.QuizScores[id] = score
		}
	}
	out.CompletionDate = p.CompletionDate
	return out
}
