package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"eduhub-course-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MinNotesLength is the shortest input accepted for course generation.
const MinNotesLength = 50

// CourseWriter turns freeform notes into a course document (JSON text).
type CourseWriter interface {
	WriteCourse(ctx context.Context, notes string) (string, error)
}

// generatedCourse is the shape expected back from the writer. Ids are optional.
type generatedCourse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Modules     []generatedModule `json:"modules" validate:"dive"`
}

type generatedModule struct {
	ID      string            `json:"id"`
	Title   string            `json:"title" validate:"required"`
	Lessons []generatedLesson `json:"lessons" validate:"dive"`
}

type generatedLesson struct {
	ID      string                `json:"id"`
	Title   string                `json:"title" validate:"required"`
	Type    string                `json:"type"`
	Content string                `json:"content"`
	Code    *domain.CodeSeed      `json:"code"`
	Quiz    []domain.QuizQuestion `json:"quiz"`
}

// CourseGenerator asks the writer for a course once and merges a usable result into
// the catalog. Nothing is stored when the document cannot be parsed.
type CourseGenerator struct {
	writer   CourseWriter
	catalog  *CatalogService
	validate *validator.Validate
	log      zerolog.Logger
}

func NewCourseGenerator(writer CourseWriter, catalog *CatalogService, log zerolog.Logger) *CourseGenerator {
	return &CourseGenerator{
		writer:   writer,
		catalog:  catalog,
		validate: validator.New(),
		log:      log.With().Str("component", "course_generator").Logger(),
	}
}

// Generate converts notes into a course and appends it to the catalog.
func (g *CourseGenerator) Generate(ctx context.Context, notes string) (domain.Course, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) < MinNotesLength {
		return domain.Course{}, domain.ErrNotesTooShort
	}

	raw, err := g.writer.WriteCourse(ctx, notes)
	if err != nil {
		return domain.Course{}, fmt.Errorf("generate course: %w", err)
	}

	course, err := g.ParseCourse(raw)
	if err != nil {
		g.log.Warn().Err(err).Int("bytes", len(raw)).Msg("rejecting generated course")
		return domain.Course{}, err
	}

	saved := g.catalog.Append(ctx, course)
	g.log.Info().Str("course_id", saved.ID).Int("modules", len(saved.Modules)).Msg("generated course added")
	return saved, nil
}

// ParseCourse decodes and shape-checks a course document. Markdown code fences around
// the JSON are tolerated.
func (g *CourseGenerator) ParseCourse(raw string) (domain.Course, error) {
	var doc generatedCourse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &doc); err != nil {
		return domain.Course{}, fmt.Errorf("%w: %v", domain.ErrMalformedCourse, err)
	}
	if err := g.validate.Struct(doc); err != nil {
		return domain.Course{}, fmt.Errorf("%w: %v", domain.ErrMalformedCourse, err)
	}

	course := domain.Course{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Modules:     make([]domain.Module, 0, len(doc.Modules)),
	}
	for _, m := range doc.Modules {
		module := domain.Module{ID: m.ID, Title: m.Title, Lessons: make([]domain.Lesson, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			module.Lessons = append(module.Lessons, domain.Lesson{
				ID:      l.ID,
				Title:   l.Title,
				Type:    domain.LessonType(strings.ToLower(strings.TrimSpace(l.Type))),
				Content: l.Content,
				Code:    l.Code,
				Quiz:    l.Quiz,
			})
		}
		course.Modules = append(course.Modules, module)
	}
	return course, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
