package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"eduhub-course-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogStore keeps one JSONB row per course; position preserves catalog order.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM courses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var course domain.Course
		if err := json.Unmarshal(raw, &course); err != nil {
			return nil, fmt.Errorf("unmarshal course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	if len(courses) == 0 {
		return nil, domain.ErrCatalogNotFound
	}
	return courses, nil
}

// SaveCourses replaces the whole table in one transaction.
func (s *CatalogStore) SaveCourses(ctx context.Context, courses []domain.Course) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM courses`); err != nil {
			return fmt.Errorf("clear courses: %w", err)
		}
		for i, course := range courses {
			data, err := json.Marshal(course)
			if err != nil {
				return fmt.Errorf("marshal course %s: %w", course.ID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO courses (id, position, data, updated_at) VALUES ($1, $2, $3::jsonb, now())`,
				course.ID, i, string(data)); err != nil {
				return fmt.Errorf("insert course %s: %w", course.ID, err)
			}
		}
		return nil
	})
}
