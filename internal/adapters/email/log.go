package email

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport records messages instead of sending them (EMAIL_PROVIDER=log)
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport creates a transport that only logs
func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	t.logger.Info("E-mail (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
