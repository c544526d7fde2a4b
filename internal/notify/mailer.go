// Package notify provides the minimal outbound-email surface the engine
// needs: a single transactional send, used for password reset links. The
// reference implementation's invitation/verification mail flows are not
// part of this spec's scope.
package notify

import (
	"context"
	"log/slog"
)

// Mailer sends one transactional email identified by template name.
type Mailer interface {
	SendTransactional(ctx context.Context, to, template string, data map[string]any) error
}

// DevMailer logs the message instead of sending it, for local/dev use.
type DevMailer struct {
	Logger *slog.Logger
}

func (m *DevMailer) SendTransactional(ctx context.Context, to, template string, data map[string]any) error {
	m.Logger.Info("email sent",
		slog.String("to", to),
		slog.String("template", template),
		slog.Any("data", data),
	)
	return nil
}
