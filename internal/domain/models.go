package domain

import "time"

// PassThreshold is the minimum score/total ratio that passes a quiz lesson.
const PassThreshold = 0.7

// LessonType selects how a lesson is presented and completed.
type LessonType string

const (
	LessonTheory LessonType = "theory"
	LessonCode   LessonType = "code"
	LessonQuiz   LessonType = "quiz"
)

// Valid reports whether t is one of the known lesson types.
func (t LessonType) Valid() bool {
	switch t {
	case LessonTheory, LessonCode, LessonQuiz:
		return true
	}
	return false
}

// CodeSeed is the starting source for a playground lesson.
type CodeSeed struct {
	HTML string `json:"html,omitempty"`
	CSS  string `json:"css,omitempty"`
	JS   string `json:"js,omitempty"`
}

// QuizQuestion is graded by string equality against CorrectAnswer.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Lesson is the unit of progress. ID, not Slug, is the progress key.
type Lesson struct {
	ID      string         `json:"id"`
	Slug    string         `json:"slug,omitempty"`
	Title   string         `json:"title"`
	Type    LessonType     `json:"type"`
	Content string         `json:"content,omitempty"`
	Code    *CodeSeed      `json:"code,omitempty"`
	Quiz    []QuizQuestion `json:"quiz,omitempty"`
}

// Module groups lessons; its completion is derived from its lessons.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Course is an ordered tree of modules and lessons.
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	BannerImage string   `json:"bannerImage,omitempty"`
	Modules     []Module `json:"modules"`
}

// QuizScore is the last recorded attempt for a quiz lesson.
type QuizScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Passed reports whether the score meets PassThreshold.
func (s QuizScore) Passed() bool {
	if s.Total <= 0 {
		return false
	}
	return float64(s.Score)/float64(s.Total) >= PassThreshold
}

// CourseProgress is the persisted per-course record.
type CourseProgress struct {
	CompletedLessons []string             `json:"completedLessons"`
	QuizScores       map[string]QuizScore `json:"quizScores"`
	CompletionDate   *time.Time           `json:"completionDate,omitempty"`
}

// NewCourseProgress returns the empty record used for absent or corrupt data.
func NewCourseProgress() CourseProgress {
	return CourseProgress{
		CompletedLessons: []string{},
		QuizScores:       map[string]QuizScore{},
	}
}

// Progress is the course-wide completion summary.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// QuizResult is the outcome of grading one quiz attempt.
type QuizResult struct {
	LessonID string `json:"lessonId"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	Passed   bool   `json:"passed"`
}

// LessonState is the derived view of a single lesson.
type LessonState struct {
	ID        string     `json:"id"`
	ModuleID  string     `json:"moduleId"`
	Title     string     `json:"title"`
	Type      LessonType `json:"type"`
	Completed bool       `json:"completed"`
	Unlocked  bool       `json:"unlocked"`
	QuizScore *QuizScore `json:"quizScore,omitempty"`
}

// ModuleState is the derived view of a module.
type ModuleState struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// ProgressView is everything a client needs to render a course's progress.
// Reset is set on the first view after a progress reset so clients reload.
type ProgressView struct {
	CourseID        string        `json:"courseId"`
	Progress        Progress      `json:"progress"`
	Modules         []ModuleState `json:"modules"`
	Lessons         []LessonState `json:"lessons"`
	CourseCompleted bool          `json:"courseCompleted"`
	CompletionDate  *time.Time    `json:"completionDate,omitempty"`
	Reset           bool          `json:"reset,omitempty"`
}

// Certificate is issued for a completed course.
type Certificate struct {
	CourseID       string     `json:"courseId"`
	CourseTitle    string     `json:"courseTitle"`
	HolderName     string     `json:"holderName"`
	CredentialID   string     `json:"credentialId"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}
