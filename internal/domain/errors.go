package domain

import "errors"

var (
	// ErrCourseNotFound is returned when a course id is not in the catalog.
	ErrCourseNotFound = errors.New("course not found")
	// ErrLessonNotFound indicates a lesson id that does not belong to the course.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrLessonLocked is returned when acting on a lesson whose predecessor is incomplete.
	ErrLessonLocked = errors.New("lesson is locked")
	// ErrQuizNotPassed is returned when advancing past a quiz lesson without a passing attempt.
	ErrQuizNotPassed = errors.New("quiz not passed")
	// ErrNotQuizLesson is returned when quiz answers target a theory or code lesson.
	ErrNotQuizLesson = errors.New("lesson is not a quiz")
	// ErrCourseNotCompleted guards certificate access.
	ErrCourseNotCompleted = errors.New("course not completed")
	// ErrNotesTooShort rejects course generation input below the minimum length.
	ErrNotesTooShort = errors.New("notes too short")
	// ErrMalformedCourse indicates the generated course document could not be used.
	ErrMalformedCourse = errors.New("malformed course document")
	// ErrCatalogNotFound is returned by catalog stores that hold no catalog yet.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrKeyNotFound is returned by key-value stores for a missing key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrProgressUnavailable means the stored progress record could not be read.
	ErrProgressUnavailable = errors.New("progress store unavailable")
)
