package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eduhub-course-service/internal/domain"
	"github.com/rs/zerolog"
)

// KVStore abstracts the local persistence medium (in-memory, SQLite file, Redis).
// Get returns domain.ErrKeyNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

func progressKey(courseID string) string   { return "progress:" + courseID }
func credentialKey(courseID string) string { return "certificate-id:" + courseID }
func holderKey(courseID string) string     { return "certificate-name:" + courseID }

const catalogKey = "catalog"

// ProgressStore persists CourseProgress records. Writes never fail their callers, only
// the log sees them. Reads report backend failures so that an unread record is never
// mistaken for an empty one and saved back over the real data.
type ProgressStore struct {
	kv  KVStore
	log zerolog.Logger
}

func NewProgressStore(kv KVStore, log zerolog.Logger) *ProgressStore {
	return &ProgressStore{kv: kv, log: log.With().Str("component", "progress_store").Logger()}
}

// Load returns the stored record, or the empty record when absent or corrupt. When the
// backend cannot be read it returns the empty record together with an error wrapping
// domain.ErrProgressUnavailable.
func (s *ProgressStore) Load(ctx context.Context, courseID string) (domain.CourseProgress, error) {
	raw, err := s.kv.Get(ctx, progressKey(courseID))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.NewCourseProgress(), nil
		}
		s.log.Error().Err(err).Str("course_id", courseID).Msg("failed to read progress")
		return domain.NewCourseProgress(), fmt.Errorf("%w: %v", domain.ErrProgressUnavailable, err)
	}

	var p domain.CourseProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn().Err(err).Str("course_id", courseID).Msg("discarding corrupt progress record")
		return domain.NewCourseProgress(), nil
	}
	if p.CompletedLessons == nil {
		p.CompletedLessons = []string{}
	}
	if p.QuizScores == nil {
		p.QuizScores = map[string]domain.QuizScore{}
	}
	return p, nil
}

// Save overwrites the stored record.
func (s *ProgressStore) Save(ctx context.Context, courseID string, p domain.CourseProgress) {
	raw, err := json.Marshal(p)
	if err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("failed to encode progress")
		return
	}
	if err := s.kv.Set(ctx, progressKey(courseID), raw); err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("failed to save progress")
	}
}

// Reset removes the progress record together with the certificate keys.
func (s *ProgressStore) Reset(ctx context.Context, courseID string) {
	keys := []string{progressKey(courseID), credentialKey(courseID), holderKey(courseID)}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("failed to reset progress")
	}
}
