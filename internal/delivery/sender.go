package delivery

import (
	"context"
	"log/slog"
)

// Sender delivers plain text to a destination chat on the upstream messaging
// platform. Failures are non-fatal to callers; they log and move on.
type Sender interface {
	Send(ctx context.Context, destination int64, text string) error
}

// NopSender is used when no bot credentials are configured. It drops messages
// after logging them, keeping reminder and digest planning observable.
type NopSender struct {
	Logger *slog.Logger
}

// Send logs the dropped message and reports success.
func (s NopSender) Send(ctx context.Context, destination int64, text string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "delivery disabled, dropping message", "destination", destination, "length", len(text))
	return nil
}
