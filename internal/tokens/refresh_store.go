package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/cache"
)

// RefreshStore binds one active refresh token per user in the cache so
// that rotation can detect reuse of a superseded token and logout, password
// change and password reset can revoke a session server-side (a capability the token's own claims
// cannot provide, since JWTs are not revocable by themselves).
type RefreshStore struct {
	cache *cache.Client
}

// NewRefreshStore wires a refresh binding store against the shared cache.
func NewRefreshStore(c *cache.Client) *RefreshStore {
	return &RefreshStore{cache: c}
}

func refreshKey(userID uuid.UUID) string {
	return "user:" + userID.String() + ":refresh_token"
}

// Bind records token as the single valid refresh token for userID.
func (s *RefreshStore) Bind(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) {
	s.cache.Set(ctx, refreshKey(userID), token, ttl)
}

// IsBound reports whether token is the currently bound refresh token for
// userID — presenting any other token (including a previously rotated
// one) must fail this check.
func (s *RefreshStore) IsBound(ctx context.Context, userID uuid.UUID, token string) bool {
	bound, ok := s.cache.Get(ctx, refreshKey(userID))
	return ok && bound == token
}

// Revoke removes the bound refresh token, ending the session (logout).
func (s *RefreshStore) Revoke(ctx context.Context, userID uuid.UUID) {
	s.cache.Delete(ctx, refreshKey(userID))
}
