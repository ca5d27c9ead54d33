// Package content ships the built-in course catalog.
package content

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"eduhub-course-service/internal/domain"
)

//go:embed courses.json
var coursesJSON []byte

// DefaultCourses decodes the embedded catalog. Each call returns a fresh copy.
func DefaultCourses() ([]domain.Course, error) {
	var courses []domain.Course
	if err := json.Unmarshal(coursesJSON, &courses); err != nil {
		return nil, fmt.Errorf("decode default courses: %w", err)
	}
	return courses, nil
}
