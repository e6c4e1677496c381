package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers user-facing notifications. Delivery is best effort;
// failures are logged by the caller and never propagate into booking or
// payment state.
type Notifier interface {
	Notify(ctx context.Context, templateKind string, recipient uuid.UUID, payload map[string]interface{}) error
}

// LogNotifier is the development notifier: it records what would have been
// sent. A mail-backed implementation satisfies the same interface in
// deployments that wire SMTP credentials.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates the logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, templateKind string, recipient uuid.UUID, payload map[string]interface{}) error {
	n.logger.Info("notification",
		zap.String("template", templateKind),
		zap.String("recipient", recipient.String()),
		zap.Any("payload", payload),
	)
	return nil
}
