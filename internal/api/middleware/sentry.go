package middleware

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// SetSentryUser tags the current Sentry scope with the authenticated
// principal, so a captured panic or error is attributable to a user.
func SetSentryUser(ctx context.Context, userID string, ip string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: userID, IPAddress: ip})
	})
}
