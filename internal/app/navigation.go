package app

import "eduhub-course-service/internal/domain"

// ResumeLesson picks the lesson to open when a course is entered: the first
// incomplete lesson, else the last completed one, else the first lesson.
// ok is false for a course without lessons.
func ResumeLesson(course domain.Course, p domain.CourseProgress) (domain.Lesson, bool) {
	lessons := FlattenLessons(course)
	if len(lessons) == 0 {
		return domain.Lesson{}, false
	}
	for _, l := range lessons {
		if !LessonCompleted(p, l.ID) {
			return l, true
		}
	}
	for i := len(lessons) - 1; i >= 0; i-- {
		if LessonCompleted(p, lessons[i].ID) {
			return lessons[i], true
		}
	}
	return lessons[0], true
}

// NextLesson returns the lesson after lessonID in course order.
func NextLesson(course domain.Course, lessonID string) (domain.Lesson, bool) {
	lessons := FlattenLessons(course)
	i := LessonIndex(course, lessonID)
	if i < 0 || i+1 >= len(lessons) {
		return domain.Lesson{}, false
	}
	return lessons[i+1], true
}

// PreviousLesson returns the lesson before lessonID in course order.
func PreviousLesson(course domain.Course, lessonID string) (domain.Lesson, bool) {
	lessons := FlattenLessons(course)
	i := LessonIndex(course, lessonID)
	if i <= 0 {
		return domain.Lesson{}, false
	}
	return lessons[i-1], true
}

// Navigator tracks the active lesson of one viewer. Requests to open a locked or
// unknown lesson leave the active lesson unchanged.
type Navigator struct {
	engine *ProgressionEngine
	active string
}

func NewNavigator(engine *ProgressionEngine) *Navigator {
	n := &Navigator{engine: engine}
	if l, ok := ResumeLesson(engine.Course(), engine.Snapshot()); ok {
		n.active = l.ID
	}
	return n
}

// Active returns the active lesson id ("" for an empty course).
func (n *Navigator) Active() string {
	return n.active
}

// Activate switches to lessonID if it is unlocked and reports whether it did.
func (n *Navigator) Activate(lessonID string) bool {
	if !n.engine.IsLessonUnlocked(lessonID) {
		return false
	}
	n.active = lessonID
	return true
}

// Previous moves back one lesson if it is unlocked. An earlier lesson can be locked
// again after its predecessor was unmarked.
func (n *Navigator) Previous() bool {
	prev, ok := PreviousLesson(n.engine.Course(), n.active)
	if !ok {
		return false
	}
	return n.Activate(prev.ID)
}

// Next moves to the following lesson if it is unlocked.
func (n *Navigator) Next() bool {
	next, ok := NextLesson(n.engine.Course(), n.active)
	if !ok {
		return false
	}
	return n.Activate(next.ID)
}

// Reinitialize re-derives the active lesson, used after a progress reset.
func (n *Navigator) Reinitialize() {
	n.active = ""
	if l, ok := ResumeLesson(n.engine.Course(), n.engine.Snapshot()); ok {
		n.active = l.ID
	}
}
