package auth

import (
	"context"
	"errors"
	"time"

	"factorylink/internal/cache"
)

// Session is the logged-in identity an operation acts as.
type Session struct {
	AccountID string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Revocations is the logout denylist. Entries live until the token would
// have expired anyway.
type Revocations struct {
	cache cache.Cache
	now   func() time.Time
}

func NewRevocations(c cache.Cache) *Revocations {
	return &Revocations{cache: c, now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, "revoked:"+tokenID, []byte{1}, ttl)
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := r.cache.Get(ctx, "revoked:"+tokenID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	return false, err
}
