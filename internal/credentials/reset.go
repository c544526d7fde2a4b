package credentials

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/cache"
)

// ResetTTL is how long a password reset token remains valid.
const ResetTTL = 30 * time.Minute

const resetTokenLen = 32

// resetPayload is stored at the token key.
type resetPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ResetService issues and redeems password reset tokens, grounded on the
// cache rather than a database table so tokens expire automatically.
type ResetService struct {
	cache *cache.Client
}

// NewResetService wires a reset service against the shared cache client.
func NewResetService(c *cache.Client) *ResetService {
	return &ResetService{cache: c}
}

func tokenKey(token string) string {
	return "password_reset:" + token
}

func userKey(userID uuid.UUID) string {
	return "password_reset_user:" + userID.String()
}

// Create issues a new reset token for userID, invalidating any token
// already outstanding for that user.
func (s *ResetService) Create(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	if existing, ok := s.cache.Get(ctx, userKey(userID)); ok {
		s.cache.Delete(ctx, tokenKey(existing))
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	payload := resetPayload{UserID: userID, Email: email, CreatedAt: time.Now()}
	if err := s.cache.SetJSON(ctx, tokenKey(token), payload, ResetTTL); err != nil {
		return "", err
	}
	s.cache.Set(ctx, userKey(userID), token, ResetTTL)

	return token, nil
}

// Verify looks up a token's associated user/email, returning (userID,
// email, true) if still valid.
func (s *ResetService) Verify(ctx context.Context, token string) (userID uuid.UUID, email string, ok bool) {
	var payload resetPayload
	if !s.cache.GetJSON(ctx, tokenKey(token), &payload) {
		return uuid.Nil, "", false
	}
	return payload.UserID, payload.Email, true
}

// Invalidate removes a token after it has been consumed (successful
// password change) so it cannot be replayed.
func (s *ResetService) Invalidate(ctx context.Context, token string, userID uuid.UUID) {
	s.cache.Delete(ctx, tokenKey(token))
	s.cache.Delete(ctx, userKey(userID))
}

func generateToken() (string, error) {
	buf := make([]byte, resetTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
