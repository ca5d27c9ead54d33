package excel

import (
	"path/filepath"
	"testing"

	"eduhub-course-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "css-basics.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestImportCourseGroupsRows(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"module", "lesson", "type", "content", "question", "options", "answer"},
		{"Selectors", "Intro", "theory", "Selectors pick elements."},
		{"Selectors", "Try it", "code", "Style a paragraph."},
		{"Selectors", "Check", "quiz", "", "Which selects by id?", "#a | .a | a", "#a"},
		{"Selectors", "Check", "", "", "Which selects by class?", ".a|#a", ".a"},
		{"Box model", "Margins", "theory", "Space outside the border."},
	})

	res, err := ImportCourse(DefaultImportConfig(path))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	course := res.Course
	if course.Title != "css-basics" {
		t.Fatalf("expected title from file name, got %q", course.Title)
	}
	if len(course.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(course.Modules))
	}
	sel := course.Modules[0]
	if len(sel.Lessons) != 3 {
		t.Fatalf("expected 3 lessons in first module, got %d", len(sel.Lessons))
	}
	if sel.Lessons[1].Type != domain.LessonCode || sel.Lessons[1].Code == nil {
		t.Fatalf("expected code lesson with seed, got %+v", sel.Lessons[1])
	}
	quiz := sel.Lessons[2]
	if quiz.Type != domain.LessonQuiz || len(quiz.Quiz) != 2 {
		t.Fatalf("expected quiz with 2 questions, got %+v", quiz)
	}
	if quiz.Quiz[0].Options[0] != "#a" || quiz.Quiz[0].CorrectAnswer != "#a" {
		t.Fatalf("unexpected question %+v", quiz.Quiz[0])
	}
	if res.TotalProcessed != 5 {
		t.Fatalf("expected 5 processed rows, got %d", res.TotalProcessed)
	}
}

func TestImportCourseCollectsRowErrors(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"module", "lesson", "type", "content", "question", "options", "answer"},
		{"", "Orphan", "theory"},
		{"M1", "Quiz", "quiz", "", "Pick one", "a|b", "c"},
		{"M1", "Fine", "theory", "ok"},
	})

	res, err := ImportCourse(ImportConfig{FilePath: path, StartRow: 2, Title: "Mixed"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d %v", res.Skipped, res.Errors)
	}
	if res.Course.Title != "Mixed" || len(res.Course.Modules) != 1 || len(res.Course.Modules[0].Lessons) != 1 {
		t.Fatalf("unexpected course %+v", res.Course)
	}
}
