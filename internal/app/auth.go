package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// SessionService verifies bearer tokens minted by the external login service.
// Verified sessions are cached briefly under a hash of the token; expiry is
// still re-checked on every hit so a cached session cannot outlive itself.
type SessionService struct {
	sessions domain.SessionRepository
	cache    domain.Cache
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(r domain.SessionRepository, cache domain.Cache, ttl time.Duration, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{sessions: r, cache: cache, ttl: ttl, now: now}
}

// Verify returns the partner id behind the token or ErrUnauthorized.
func (s *SessionService) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthorized
	}
	key := "session:" + hashToken(token)

	var sess domain.PartnerSession
	if ok, _ := s.cache.Get(ctx, key, &sess); ok {
		if sess.ExpiresAt.After(s.now()) {
			return sess.PartnerID, nil
		}
		_ = s.cache.Del(ctx, key)
		return 0, domain.ErrUnauthorized
	}

	sess, err := s.sessions.PartnerBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrUnauthorized
		}
		return 0, err
	}
	if !sess.ExpiresAt.After(s.now()) {
		return 0, domain.ErrUnauthorized
	}
	sess.Token = "" // never cache the raw token
	_ = s.cache.Set(ctx, key, sess, int(s.ttl.Seconds()))
	return sess.PartnerID, nil
}

func hashToken(token string) string {
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}
