package excel

import (
	"fmt"
	"path/filepath"
	"strings"

	"eduhub-course-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Column order of a course sheet.
const (
	colModule = iota
	colLesson
	colType
	colContent
	colQuestion
	colOptions
	colAnswer
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath  string
	SheetName string // defaults to the first sheet
	StartRow  int    // 1-based; 2 skips the header row
	Title     string // defaults to the file name
}

func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{FilePath: path, StartRow: 2}
}

// ImportResult holds the imported course and per-row problems.
type ImportResult struct {
	Course         domain.Course
	TotalProcessed int
	Skipped        int
	Errors         []string
}

// ImportCourse reads a sheet with the columns
// module | lesson | type | content | question | options | answer.
// Rows sharing a module title form one module; rows repeating the previous lesson
// title add quiz questions to it. Options are separated by "|".
func ImportCourse(cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	title := cfg.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(cfg.FilePath), filepath.Ext(cfg.FilePath))
	}
	result := &ImportResult{
		Course: domain.Course{Title: title},
		Errors: make([]string, 0),
	}

	for i, row := range rows {
		if i < cfg.StartRow-1 {
			continue
		}
		if blank(row) {
			continue
		}
		result.TotalProcessed++
		if err := addRow(&result.Course, row); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func addRow(course *domain.Course, row []string) error {
	moduleTitle := cell(row, colModule)
	lessonTitle := cell(row, colLesson)
	if moduleTitle == "" {
		return fmt.Errorf("module title is empty")
	}
	if lessonTitle == "" {
		return fmt.Errorf("lesson title is empty")
	}

	question, err := parseQuestion(row)
	if err != nil {
		return err
	}

	n := len(course.Modules)
	if n == 0 || course.Modules[n-1].Title != moduleTitle {
		course.Modules = append(course.Modules, domain.Module{Title: moduleTitle})
		n++
	}
	module := &course.Modules[n-1]

	if l := len(module.Lessons); l > 0 && module.Lessons[l-1].Title == lessonTitle {
		if question == nil {
			return fmt.Errorf("duplicate lesson %q without a question", lessonTitle)
		}
		module.Lessons[l-1].Quiz = append(module.Lessons[l-1].Quiz, *question)
		return nil
	}

	lesson := domain.Lesson{
		Title:   lessonTitle,
		Type:    domain.LessonType(strings.ToLower(cell(row, colType))),
		Content: cell(row, colContent),
	}
	if question != nil {
		lesson.Quiz = []domain.QuizQuestion{*question}
	}
	if lesson.Type == domain.LessonCode {
		lesson.Code = &domain.CodeSeed{}
	}
	module.Lessons = append(module.Lessons, lesson)
	return nil
}

func parseQuestion(row []string) (*domain.QuizQuestion, error) {
	text := cell(row, colQuestion)
	if text == "" {
		return nil, nil
	}
	var options []string
	for _, opt := range strings.Split(cell(row, colOptions), "|") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("question %q needs at least two options", text)
	}
	answer := cell(row, colAnswer)
	for _, opt := range options {
		if opt == answer {
			return &domain.QuizQuestion{Question: text, Options: options, CorrectAnswer: answer}, nil
		}
	}
	return nil, fmt.Errorf("answer %q is not one of the options", answer)
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
