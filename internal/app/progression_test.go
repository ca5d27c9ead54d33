package app_test

import (
	"testing"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func progressOf(ids ...string) domain.CourseProgress {
	p := domain.NewCourseProgress()
	p.CompletedLessons = append(p.CompletedLessons, ids...)
	return p
}

func TestFlattenLessonsOrder(t *testing.T) {
	var ids []string
	for _, l := range app.FlattenLessons(abcCourse()) {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
	assert.Equal(t, 2, app.LessonIndex(abcCourse(), "C"))
	assert.Equal(t, -1, app.LessonIndex(abcCourse(), "Z"))
}

func TestLessonUnlockedFollowsPredecessor(t *testing.T) {
	course := abcCourse()
	cases := []struct {
		name      string
		completed []string
		unlocked  map[string]bool
	}{
		{"fresh", nil, map[string]bool{"A": true, "B": false, "C": false}},
		{"after A", []string{"A"}, map[string]bool{"A": true, "B": true, "C": false}},
		{"after A and B", []string{"A", "B"}, map[string]bool{"A": true, "B": true, "C": true}},
		{"B without A", []string{"B"}, map[string]bool{"A": true, "B": false, "C": true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := progressOf(tc.completed...)
			for id, want := range tc.unlocked {
				assert.Equal(t, want, app.LessonUnlocked(course, p, id), "lesson %s", id)
			}
			assert.False(t, app.LessonUnlocked(course, p, "missing"))
		})
	}
}

func TestModuleCompleted(t *testing.T) {
	course := abcCourse()
	course.Modules = append(course.Modules, domain.Module{ID: "empty", Title: "Empty"})

	assert.False(t, app.ModuleCompleted(course, progressOf("A"), "m1"))
	assert.True(t, app.ModuleCompleted(course, progressOf("A", "B"), "m1"))
	assert.False(t, app.ModuleCompleted(course, progressOf("A", "B", "C"), "empty"))
	assert.False(t, app.ModuleCompleted(course, progressOf("A", "B"), "unknown"))
}

func TestLessonCompletable(t *testing.T) {
	course := abcCourse()

	assert.True(t, app.LessonCompletable(course, progressOf(), "A", false))
	assert.False(t, app.LessonCompletable(course, progressOf(), "B", false), "locked lesson")
	assert.False(t, app.LessonCompletable(course, progressOf("A", "B"), "C", false), "quiz without pass")
	assert.True(t, app.LessonCompletable(course, progressOf("A", "B"), "C", true))
	assert.True(t, app.LessonCompletable(course, progressOf("C"), "C", false), "already completed")
	assert.False(t, app.LessonCompletable(course, progressOf(), "missing", true))
}

func TestSummarizeIgnoresForeignIDs(t *testing.T) {
	course := abcCourse()
	s := app.Summarize(course, progressOf("A", "ghost"))
	assert.Equal(t, domain.Progress{Completed: 1, Total: 3, Percentage: 100.0 / 3}, s)

	empty := domain.Course{ID: "empty"}
	assert.Equal(t, domain.Progress{}, app.Summarize(empty, progressOf()))
	assert.False(t, app.CourseCompleted(empty, progressOf()))
	assert.True(t, app.CourseCompleted(course, progressOf("C", "B", "A")))
}

func TestBuildViewMatchesQueries(t *testing.T) {
	course := abcCourse()
	p := progressOf("A")
	p.QuizScores["C"] = domain.QuizScore{Score: 1, Total: 3}

	view := app.BuildView(course, p)
	assert.Len(t, view.Lessons, 3)
	for _, l := range view.Lessons {
		assert.Equal(t, app.LessonUnlocked(course, p, l.ID), l.Unlocked, "lesson %s", l.ID)
		assert.Equal(t, app.LessonCompleted(p, l.ID), l.Completed, "lesson %s", l.ID)
	}
	assert.NotNil(t, view.Lessons[2].QuizScore)
	assert.Equal(t, "m2", view.Lessons[2].ModuleID)
	assert.False(t, view.Modules[0].Completed)
}
