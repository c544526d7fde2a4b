// Package gate collapses credential extraction, token validation, and
// permission enforcement into one request-scoped checkpoint (component K).
package gate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey int

const (
	userIDKey contextKey = iota
)

// ErrNoPrincipal is returned by UserID when no principal is bound to ctx.
var ErrNoPrincipal = errors.New("gate: no authenticated principal in context")

// WithUserID binds the authenticated user's ID into ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID retrieves the authenticated user's ID bound by the gate
// middleware.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoPrincipal
	}
	return id, nil
}
