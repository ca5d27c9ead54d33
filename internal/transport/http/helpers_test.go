package http

import (
	"context"
	"testing"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/domain"
	"eduhub-course-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

type testDeps struct {
	catalog *app.CatalogService
	service *app.ProgressService
	kv      *memory.Store
}

func newTestDeps(t *testing.T) testDeps {
	t.Helper()
	log := zerolog.Nop()
	kv := memory.NewStore()
	catalog := app.NewCatalogService(memory.NewStaticCatalogStore(nil), []domain.Course{sampleCourse()}, log)
	service := app.NewProgressService(catalog, memory.NewEngineStore(), app.NewProgressStore(kv, log), app.NewCertificateIssuer(kv, log))
	if _, err := catalog.Get(context.Background(), "course-1"); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return testDeps{catalog: catalog, service: service, kv: kv}
}

func sampleCourse() domain.Course {
	return domain.Course{
		ID:    "course-1",
		Title: "Arithmetic",
		Modules: []domain.Module{
			{
				ID:    "m1",
				Title: "Basics",
				Lessons: []domain.Lesson{
					{ID: "l1", Title: "Numbers", Type: domain.LessonTheory},
					{
						ID:    "l2",
						Title: "Check",
						Type:  domain.LessonQuiz,
						Quiz: []domain.QuizQuestion{
							{ID: "q1", Question: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"},
						},
					},
				},
			},
			{
				ID:    "m2",
				Title: "More",
				Lessons: []domain.Lesson{
					{ID: "l3", Title: "Fractions", Type: domain.LessonTheory},
				},
			},
		},
	}
}
