package app

import (
	"context"
	"errors"
	"sync"

	"eduhub-course-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CertificateIssuer mints one credential id per course and stores the holder name.
// Whether the course is completed is checked by the caller.
type CertificateIssuer struct {
	kv    KVStore
	log   zerolog.Logger
	newID func() string

	mu     sync.Mutex
	issued map[string]string
}

func NewCertificateIssuer(kv KVStore, log zerolog.Logger) *CertificateIssuer {
	return &CertificateIssuer{
		kv:     kv,
		log:    log.With().Str("component", "certificate_issuer").Logger(),
		newID:  uuid.NewString,
		issued: make(map[string]string),
	}
}

// GetOrCreateCredential returns the stored credential id, minting and storing a new
// one on first use. If the write fails the id is still kept for this process so it
// stays stable until reset.
func (c *CertificateIssuer) GetOrCreateCredential(ctx context.Context, courseID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.issued[courseID]; ok {
		return id
	}

	raw, err := c.kv.Get(ctx, credentialKey(courseID))
	if err == nil && len(raw) > 0 {
		id := string(raw)
		c.issued[courseID] = id
		return id
	}
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		c.log.Error().Err(err).Str("course_id", courseID).Msg("failed to read credential")
	}

	id := c.newID()
	if err := c.kv.Set(ctx, credentialKey(courseID), []byte(id)); err != nil {
		c.log.Error().Err(err).Str("course_id", courseID).Msg("failed to save credential")
	}
	c.issued[courseID] = id
	return id
}

// Forget drops the cached credential so the next call mints a fresh one.
func (c *CertificateIssuer) Forget(courseID string) {
	c.mu.Lock()
	delete(c.issued, courseID)
	c.mu.Unlock()
}

func (c *CertificateIssuer) HolderName(ctx context.Context, courseID string) string {
	raw, err := c.kv.Get(ctx, holderKey(courseID))
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			c.log.Error().Err(err).Str("course_id", courseID).Msg("failed to read holder name")
		}
		return ""
	}
	return string(raw)
}

// SetHolderName stores name verbatim.
func (c *CertificateIssuer) SetHolderName(ctx context.Context, courseID, name string) error {
	return c.kv.Set(ctx, holderKey(courseID), []byte(name))
}
