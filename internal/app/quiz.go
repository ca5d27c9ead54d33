package app

import "eduhub-course-service/internal/domain"

// GradeQuiz scores answers (question id -> chosen option text) against a quiz lesson.
// Unanswered questions count as wrong. Grading has no side effects; recording the
// score and completing the lesson are separate steps.
func GradeQuiz(lesson domain.Lesson, answers map[string]string) (domain.QuizResult, error) {
	if lesson.Type != domain.LessonQuiz {
		return domain.QuizResult{}, domain.ErrNotQuizLesson
	}

	score := 0
	for _, q := range lesson.Quiz {
		if answer, ok := answers[q.ID]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	qs := domain.QuizScore{Score: score, Total: len(lesson.Quiz)}
	return domain.QuizResult{
		LessonID: lesson.ID,
		Score:    qs.Score,
		Total:    qs.Total,
		Passed:   qs.Passed(),
	}, nil
}
